package model

import (
	"time"
)

// Stage is one named state of the order capture state machine.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageClarification Stage = "clarification"
	StageValidation    Stage = "validation"
	StagePricing       Stage = "pricing"
	StageConfirmation  Stage = "confirmation"
	StageFulfillment   Stage = "fulfillment"

	// StageAwaitingUser ends the turn and hands control back to the caller.
	StageAwaitingUser Stage = "awaiting_user"
)

// PriceLine is a single priced order line.
type PriceLine struct {
	Name         string `json:"name"`
	SizeOrWeight string `json:"size,omitempty"`
	Quantity     int    `json:"qty"`
	UnitPrice    int64  `json:"unit"`
	Total        int64  `json:"total"`
}

// PricingBreakdown is the priced order. All amounts are in the smallest currency unit.
type PricingBreakdown struct {
	Lines       []PriceLine `json:"lines"`
	Subtotal    int64       `json:"subtotal"`
	Tax         int64       `json:"taxes"`
	DeliveryFee int64       `json:"delivery"`
	GrandTotal  int64       `json:"grand_total"`

	// CatalogUnavailable is set when lines were priced at zero because no
	// catalog was loaded.
	CatalogUnavailable bool `json:"catalog_unavailable,omitempty"`
}

// ItemChoice is a pending fuzzy suggestion the user must pick from.
type ItemChoice struct {
	Index      int      `json:"index"`
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
}

// ConversationState is everything a session knows about its order.
type ConversationState struct {
	Stage            Stage             `json:"stage"`
	Order            Order             `json:"order"`
	Transcript       []string          `json:"transcript"`
	MissingFields    []string          `json:"missing_fields"`
	PendingChoices   []ItemChoice      `json:"pending_choices,omitempty"`
	AssistantMessage string            `json:"assistant_message"`
	Pricing          *PricingBreakdown `json:"pricing,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	OrderID          string            `json:"order_id,omitempty"`
	Turns            int               `json:"turns"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewConversationState returns the empty state of a fresh session.
func NewConversationState(now time.Time) *ConversationState {
	return &ConversationState{
		Stage:         StageExtraction,
		Order:         Order{Items: []OrderItem{}},
		Transcript:    []string{},
		MissingFields: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a deep copy so a turn can run without touching the committed state.
func (s *ConversationState) Clone() *ConversationState {
	out := *s
	out.Order = s.Order.Clone()
	out.Transcript = append([]string(nil), s.Transcript...)
	out.MissingFields = append([]string(nil), s.MissingFields...)
	out.Warnings = append([]string(nil), s.Warnings...)
	if s.PendingChoices != nil {
		out.PendingChoices = make([]ItemChoice, len(s.PendingChoices))
		for i, c := range s.PendingChoices {
			c.Candidates = append([]string(nil), c.Candidates...)
			out.PendingChoices[i] = c
		}
	}
	if s.Pricing != nil {
		p := *s.Pricing
		p.Lines = append([]PriceLine(nil), s.Pricing.Lines...)
		out.Pricing = &p
	}
	return &out
}
