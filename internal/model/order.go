// Package model defines data structures for the order capture service.
package model

import "strings"

// Contact holds the customer's contact details.
type Contact struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// IsComplete reports whether name, phone and address are all present.
func (c Contact) IsComplete() bool {
	return present(c.Name) && present(c.Phone) && present(c.Address)
}

// OrderItem is one line of an order as the customer described it.
// Quantity is absent when zero or negative.
type OrderItem struct {
	Name         string `json:"name"`
	Quantity     int    `json:"qty,omitempty"`
	SizeOrWeight string `json:"size_or_weight,omitempty"`
}

// HasQuantity reports whether a positive quantity is known.
func (i OrderItem) HasQuantity() bool {
	return i.Quantity > 0
}

// HasSize reports whether a size or weight descriptor is known.
func (i OrderItem) HasSize() bool {
	return present(i.SizeOrWeight)
}

// IsComplete reports whether both quantity and size-or-weight are present.
func (i OrderItem) IsComplete() bool {
	return i.HasQuantity() && i.HasSize()
}

// Order is the accumulated, possibly partial, order for a session.
type Order struct {
	Items         []OrderItem `json:"items"`
	DeliveryDate  string      `json:"delivery_date,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Contact       Contact     `json:"contact"`
}

// ReadyForValidation reports whether the order has at least one item, every
// item is complete, and delivery date, payment method and contact are present.
func (o Order) ReadyForValidation() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.IsComplete() {
			return false
		}
	}
	return present(o.DeliveryDate) && present(o.PaymentMethod) && o.Contact.IsComplete()
}

// IsEmpty reports whether no field of the order carries a value.
func (o Order) IsEmpty() bool {
	return len(o.Items) == 0 &&
		!present(o.DeliveryDate) &&
		!present(o.PaymentMethod) &&
		o.Contact == Contact{}
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]OrderItem, len(o.Items))
		copy(out.Items, o.Items)
	}
	return out
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
