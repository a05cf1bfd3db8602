// Package order implements the pure rules applied to an accumulated order:
// merging extracted fragments, reporting missing fields and structural checks.
package order

import (
	"strings"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// Merge combines a newly extracted fragment with the previously accumulated
// order. Present values in next overwrite prev; absent or blank values never
// erase what prev already knew. Each incoming item is matched against the
// items of prev only (see Match); unmatched items are appended in mention
// order, so two lines of one fragment never fold into each other.
func Merge(prev, next model.Order) model.Order {
	out := prev.Clone()
	if out.Items == nil {
		out.Items = []model.OrderItem{}
	}

	out.Items = mergeItems(out.Items, next.Items, len(out.Items))
	out.DeliveryDate = pick(out.DeliveryDate, next.DeliveryDate)
	out.PaymentMethod = pick(out.PaymentMethod, next.PaymentMethod)
	out.Contact = model.Contact{
		Name:    pick(out.Contact.Name, next.Contact.Name),
		Phone:   pick(out.Contact.Phone, next.Contact.Phone),
		Address: pick(out.Contact.Address, next.Contact.Address),
	}
	return out
}

// Consolidate folds items that Match an earlier item into it, using the same
// field rules as Merge. Lines of one name with different sizes stay apart.
func Consolidate(items []model.OrderItem) []model.OrderItem {
	out := []model.OrderItem{}
	for _, it := range items {
		out = mergeItems(out, []model.OrderItem{it}, len(out))
	}
	return out
}

// Match returns the index of the item in items that n refers to, or -1.
// Names compare case-insensitively. An item with the same size wins; a line
// without a size matches a single same-name line of any size, but never
// picks between several.
func Match(items []model.OrderItem, n model.OrderItem) int {
	name := strings.TrimSpace(n.Name)
	size := strings.TrimSpace(n.SizeOrWeight)
	loose := -1
	looseCount := 0
	for i, it := range items {
		if !strings.EqualFold(strings.TrimSpace(it.Name), name) {
			continue
		}
		have := strings.TrimSpace(it.SizeOrWeight)
		if strings.EqualFold(have, size) {
			return i
		}
		if have == "" || size == "" {
			loose = i
			looseCount++
		}
	}
	if looseCount == 1 {
		return loose
	}
	return -1
}

// mergeItems folds incoming into items, matching only against items[:known].
func mergeItems(items, incoming []model.OrderItem, known int) []model.OrderItem {
	for _, n := range incoming {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			continue
		}
		i := Match(items[:known], n)
		if i < 0 {
			n.Name = name
			n.SizeOrWeight = strings.TrimSpace(n.SizeOrWeight)
			if n.Quantity < 0 {
				n.Quantity = 0
			}
			items = append(items, n)
			continue
		}
		if n.Quantity > 0 {
			items[i].Quantity = n.Quantity
		}
		if strings.TrimSpace(items[i].SizeOrWeight) == "" {
			items[i].SizeOrWeight = strings.TrimSpace(n.SizeOrWeight)
		}
	}
	return items
}

func pick(prev, next string) string {
	if v := strings.TrimSpace(next); v != "" {
		return v
	}
	return prev
}
