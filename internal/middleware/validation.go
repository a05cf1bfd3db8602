package middleware

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxMessageLen = 4000
	maxIDLen      = 64
)

// ValidateMessageContent validates a user chat message.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("user_message cannot be empty")
	}
	if !utf8.ValidString(content) {
		return errors.New("user_message must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return errors.New("user_message exceeds maximum length")
	}
	return nil
}

// ValidateSessionID validates a client supplied session id. Ids become
// stream subject tokens, so wildcards, dots and whitespace are rejected.
func ValidateSessionID(id string) error {
	return validateToken("session ID", id)
}

// ValidateTenantID validates a tenant ID.
func ValidateTenantID(id string) error {
	return validateToken("tenant ID", id)
}

func validateToken(what, id string) error {
	if id == "" {
		return errors.New(what + " cannot be empty")
	}
	if len(id) > maxIDLen {
		return errors.New(what + " exceeds maximum length")
	}
	for _, r := range id {
		if r == '.' || r == '*' || r == '>' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return errors.New(what + " contains invalid characters")
		}
	}
	return nil
}
