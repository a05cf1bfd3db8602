package model

import (
	"time"
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeTurnCompleted    EventType = "turn_completed"
	EventTypeOrderFulfilled   EventType = "order_fulfilled"
	EventTypeExtractionFailed EventType = "extraction_failed"
	EventTypeTurnFailed       EventType = "turn_failed"
)

// OrderEvent represents an event in a session's order lifecycle.
type OrderEvent struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	TenantID  string            `json:"tenant_id"`
	Type      EventType         `json:"type"`
	Stage     Stage             `json:"stage,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	OrderID   string            `json:"order_id,omitempty"`
	Order     *Order            `json:"order,omitempty"`
	Pricing   *PricingBreakdown `json:"pricing,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Sequence  uint64            `json:"sequence,omitempty"`
}
