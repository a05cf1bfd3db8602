package order

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// ErrInvalidOrder is returned by Validate for orders that fail structural checks.
var ErrInvalidOrder = errors.New("invalid order")

// Limits bounds the structural checks.
type Limits struct {
	MaxQuantity   int
	MaxItems      int
	MaxFieldLen   int
	MinPhoneDigit int
	MaxPhoneDigit int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxQuantity:   100,
		MaxItems:      50,
		MaxFieldLen:   500,
		MinPhoneDigit: 7,
		MaxPhoneDigit: 15,
	}
}

// ValidationError lists every problem found in an order.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidOrder, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// Validate runs structural checks on an order that is ready for validation.
func Validate(o model.Order, lim Limits) error {
	var problems []string

	if !o.ReadyForValidation() {
		problems = append(problems, "order is incomplete")
	}
	if lim.MaxItems > 0 && len(o.Items) > lim.MaxItems {
		problems = append(problems, fmt.Sprintf("too many items (max %d)", lim.MaxItems))
	}
	for _, it := range o.Items {
		if lim.MaxQuantity > 0 && it.Quantity > lim.MaxQuantity {
			problems = append(problems, fmt.Sprintf("quantity for %s must be at most %d", it.Name, lim.MaxQuantity))
		}
		if tooLong(it.Name, lim) || tooLong(it.SizeOrWeight, lim) {
			problems = append(problems, fmt.Sprintf("item %q has an overlong field", truncate(it.Name, 40)))
		}
	}

	digits := countDigits(o.Contact.Phone)
	if o.Contact.Phone != "" && (digits < lim.MinPhoneDigit || (lim.MaxPhoneDigit > 0 && digits > lim.MaxPhoneDigit)) {
		problems = append(problems, fmt.Sprintf("phone number must have %d to %d digits", lim.MinPhoneDigit, lim.MaxPhoneDigit))
	}

	for name, v := range map[string]string{
		"delivery date":  o.DeliveryDate,
		"payment method": o.PaymentMethod,
		"contact name":   o.Contact.Name,
		"address":        o.Contact.Address,
	} {
		if tooLong(v, lim) {
			problems = append(problems, name+" is too long")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	// map iteration above is unordered; keep messages stable
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}

func tooLong(s string, lim Limits) bool {
	return lim.MaxFieldLen > 0 && utf8.RuneCountInString(s) > lim.MaxFieldLen
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
