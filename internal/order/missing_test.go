package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/model"
)

func readyOrder() model.Order {
	return model.Order{
		Items:         []model.OrderItem{{Name: "Margherita Pizza", Quantity: 2, SizeOrWeight: "Large"}},
		DeliveryDate:  "tomorrow",
		PaymentMethod: "cash",
		Contact:       model.Contact{Name: "Asha", Phone: "9876543210", Address: "12 Park Street"},
	}
}

func TestMissingOnlyPaymentMethod(t *testing.T) {
	o := readyOrder()
	o.PaymentMethod = ""
	assert.Equal(t, []string{"payment_method"}, Missing(o))
}

func TestMissingEmptyOrder(t *testing.T) {
	want := []string{
		"items",
		"delivery_date",
		"payment_method",
		"contact.name",
		"contact.phone",
		"contact.address",
	}
	if diff := cmp.Diff(want, Missing(model.Order{})); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingPerItemOrder(t *testing.T) {
	o := readyOrder()
	o.Items = []model.OrderItem{
		{Name: "Margherita Pizza", Quantity: 1},
		{Name: "marg", SizeOrWeight: "Small"},
		{Name: "Coke", Quantity: 1, SizeOrWeight: "500ml"},
	}
	o.Contact.Phone = ""

	want := []string{
		"items[0].size_or_weight",
		"items[1].name",
		"items[1].qty",
		"contact.phone",
	}
	if diff := cmp.Diff(want, Missing(o, 1, 1, 7)); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingIsDeterministic(t *testing.T) {
	o := readyOrder()
	o.Items = append(o.Items, model.OrderItem{Name: "Coke"})
	o.DeliveryDate = ""

	first := Missing(o)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Missing(o))
	}
}

func TestMissingEmptyIffReady(t *testing.T) {
	orders := []model.Order{
		readyOrder(),
		{},
		func() model.Order { o := readyOrder(); o.Items = nil; return o }(),
		func() model.Order { o := readyOrder(); o.Items[0].Quantity = 0; return o }(),
		func() model.Order { o := readyOrder(); o.Contact.Address = " "; return o }(),
		func() model.Order { o := readyOrder(); o.DeliveryDate = ""; return o }(),
	}
	for i, o := range orders {
		assert.Equal(t, o.ReadyForValidation(), len(Missing(o)) == 0, "order %d", i)
	}
}

func TestParseItemField(t *testing.T) {
	i, field, ok := ParseItemField(ItemField(3, "size_or_weight"))
	require.True(t, ok)
	assert.Equal(t, 3, i)
	assert.Equal(t, "size_or_weight", field)

	for _, s := range []string{FieldItems, FieldContactName, "items[x].qty", "items[-1].qty", "items[2]"} {
		_, _, ok := ParseItemField(s)
		assert.False(t, ok, s)
	}
}
