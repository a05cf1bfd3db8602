package orchestrator

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/internal/order"
)

// User-visible warnings attached to a turn.
const (
	WarnExtractionFailed   = "Sorry, I couldn't make sense of that message. Could you say it another way?"
	WarnCatalogUnavailable = "Our menu is unavailable right now, so prices could not be determined."
)

const (
	fulfilledMessage = "Order placed! You'll get delivery updates soon."
	repromptMessage  = "Sorry, something went wrong on our side. Could you send that again?"
	unpricedMessage  = "I can't place this order until our menu prices are available. Please reply CONFIRM again in a little while."
)

var affirmations = map[string]bool{
	"confirm":         true,
	"confirmed":       true,
	"yes":             true,
	"y":               true,
	"ok":              true,
	"okay":            true,
	"sure":            true,
	"yes please":      true,
	"place order":     true,
	"place the order": true,
}

// IsAffirmation reports whether reply explicitly accepts the order summary.
func IsAffirmation(reply string) bool {
	s := strings.ToLower(strings.TrimSpace(reply))
	s = strings.TrimRight(s, ".!")
	return affirmations[strings.Join(strings.Fields(s), " ")]
}

// Summary renders a priced order for confirmation.
func Summary(p *model.PricingBreakdown, warnings []string) string {
	var b strings.Builder
	b.WriteString("Here's your order:\n")
	for _, l := range p.Lines {
		name := l.Name
		if l.SizeOrWeight != "" {
			name += " " + l.SizeOrWeight
		}
		fmt.Fprintf(&b, "- %s x %d = %d\n", name, l.Quantity, l.Total)
	}
	fmt.Fprintf(&b, "Subtotal: %d\n", p.Subtotal)
	fmt.Fprintf(&b, "Taxes: %d\n", p.Tax)
	fmt.Fprintf(&b, "Delivery: %d\n", p.DeliveryFee)
	fmt.Fprintf(&b, "Total: %d\n", p.GrandTotal)
	for _, w := range warnings {
		fmt.Fprintf(&b, "Note: %s\n", w)
	}
	b.WriteString("Reply CONFIRM to place the order, or tell me what to change.")
	return b.String()
}

// FulfilledMessage is the reply sent once an order is placed.
func FulfilledMessage(orderID string) string {
	return fmt.Sprintf("%s Your order number is %s.", fulfilledMessage, orderID)
}

// ClosedMessage answers messages that arrive after fulfillment.
func ClosedMessage(st *model.ConversationState) string {
	if st.OrderID == "" {
		return fulfilledMessage
	}
	return fmt.Sprintf("Your order %s has already been placed. You'll get delivery updates soon.", st.OrderID)
}

// UnpricedMessage answers a confirmation of an order that has no real prices.
func UnpricedMessage() string {
	return unpricedMessage
}

// RepromptMessage is the reply used when a turn could not be completed.
func RepromptMessage() string {
	return repromptMessage
}

// InvalidMessage explains why validation rejected the order.
func InvalidMessage(problems []string) string {
	return fmt.Sprintf("There's a problem with your order: %s. Could you correct it?", strings.Join(problems, "; "))
}

// FallbackQuestion builds a follow-up question without the generation
// service.
func FallbackQuestion(o model.Order, missing []string, choices []model.ItemChoice) string {
	var parts []string
	chosen := make(map[int]bool, len(choices))
	for _, c := range choices {
		chosen[c.Index] = true
	}

	for _, f := range missing {
		if i, field, ok := order.ParseItemField(f); ok {
			if i >= len(o.Items) {
				continue
			}
			name := o.Items[i].Name
			switch field {
			case "name":
				if !chosen[i] {
					parts = append(parts, fmt.Sprintf("which menu item you meant by %q", name))
				}
			case "qty":
				parts = append(parts, "how many "+name+" you'd like")
			case "size_or_weight":
				parts = append(parts, "the size or weight for "+name)
			}
			continue
		}
		switch f {
		case order.FieldItems:
			parts = append(parts, "what you'd like to order")
		case order.FieldDeliveryDate:
			parts = append(parts, "your delivery date")
		case order.FieldPaymentMethod:
			parts = append(parts, "how you'd like to pay")
		case order.FieldContactName:
			parts = append(parts, "your name")
		case order.FieldContactPhone:
			parts = append(parts, "your phone number")
		case order.FieldContactAddress:
			parts = append(parts, "your delivery address")
		}
	}

	var b strings.Builder
	for _, c := range choices {
		fmt.Fprintf(&b, "For %q, did you mean %s? ", c.Query, joinWith(c.Candidates, "or"))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "Could you tell me %s?", joinWith(parts, "and"))
	}
	return strings.TrimSpace(b.String())
}

func joinWith(parts []string, last string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " " + last + " " + parts[len(parts)-1]
}
