package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// Field identifiers reported by Missing.
const (
	FieldItems          = "items"
	FieldDeliveryDate   = "delivery_date"
	FieldPaymentMethod  = "payment_method"
	FieldContactName    = "contact.name"
	FieldContactPhone   = "contact.phone"
	FieldContactAddress = "contact.address"
)

// ItemField names a per-item field, e.g. items[0].qty.
func ItemField(i int, field string) string {
	return fmt.Sprintf("items[%d].%s", i, field)
}

// ParseItemField splits a per-item field identifier produced by ItemField.
func ParseItemField(s string) (int, string, bool) {
	rest, ok := strings.CutPrefix(s, "items[")
	if !ok {
		return 0, "", false
	}
	idx, field, ok := strings.Cut(rest, "].")
	if !ok {
		return 0, "", false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return 0, "", false
	}
	return i, field, true
}

// Missing lists the fields the order still lacks, in fixed priority order:
// items, per-item name/qty/size, delivery date, payment method, then contact
// name, phone and address. unresolved holds indices of items whose names did
// not resolve against the catalog; they are reported as items[i].name.
// The output is empty iff the order is ready for validation and nothing is
// unresolved.
func Missing(o model.Order, unresolved ...int) []string {
	missing := []string{}

	if len(o.Items) == 0 {
		missing = append(missing, FieldItems)
	}

	bad := make(map[int]bool, len(unresolved))
	for _, i := range unresolved {
		if i >= 0 && i < len(o.Items) {
			bad[i] = true
		}
	}

	for i, it := range o.Items {
		if bad[i] {
			missing = append(missing, ItemField(i, "name"))
		}
		if !it.HasQuantity() {
			missing = append(missing, ItemField(i, "qty"))
		}
		if !it.HasSize() {
			missing = append(missing, ItemField(i, "size_or_weight"))
		}
	}

	if !present(o.DeliveryDate) {
		missing = append(missing, FieldDeliveryDate)
	}
	if !present(o.PaymentMethod) {
		missing = append(missing, FieldPaymentMethod)
	}
	if !present(o.Contact.Name) {
		missing = append(missing, FieldContactName)
	}
	if !present(o.Contact.Phone) {
		missing = append(missing, FieldContactPhone)
	}
	if !present(o.Contact.Address) {
		missing = append(missing, FieldContactAddress)
	}
	return missing
}
