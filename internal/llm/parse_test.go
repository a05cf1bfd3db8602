package llm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/model"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.Order
	}{
		{
			name: "fenced",
			raw: "```json\n{\"items\":[{\"name\":\"Margherita Pizza\",\"qty\":2,\"size_or_weight\":\"Large\"}]," +
				"\"delivery_date\":null,\"payment_method\":\"cash\",\"contact\":null}\n```",
			want: model.Order{
				Items:         []model.OrderItem{{Name: "Margherita Pizza", Quantity: 2, SizeOrWeight: "Large"}},
				PaymentMethod: "cash",
			},
		},
		{
			name: "surrounding prose",
			raw:  `Sure! Here it is: {"delivery_date": "tomorrow", "contact": {"name": "Asha"}} Let me know.`,
			want: model.Order{DeliveryDate: "tomorrow", Contact: model.Contact{Name: "Asha"}},
		},
		{
			name: "numeric phone and weight",
			raw:  `{"items":[{"name":"Coffee Beans","qty":1,"size_or_weight":250}],"contact":{"phone":9876543210}}`,
			want: model.Order{
				Items:   []model.OrderItem{{Name: "Coffee Beans", Quantity: 1, SizeOrWeight: "250"}},
				Contact: model.Contact{Phone: "9876543210"},
			},
		},
		{
			name: "unnamed items dropped",
			raw:  `{"items":[{"name":null,"qty":3},{"name":"  Garlic Bread ","qty":null}]}`,
			want: model.Order{Items: []model.OrderItem{{Name: "Garlic Bread"}}},
		},
		{
			name: "empty object",
			raw:  `{}`,
			want: model.Order{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrder(tt.raw)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseOrder() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseOrderMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"no object":      "I could not find an order in that message.",
		"broken json":    `{"items": [ {"name": "Pizza", }`,
		"wrong qty":      `{"items":[{"name":"Pizza","qty":"two"}]}`,
		"items not list": `{"items":"pizza"}`,
		"contact string": `{"contact":"Asha"}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseOrder(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedExtraction))
			assert.True(t, got.IsEmpty())
		})
	}
}

func TestCleanJSON(t *testing.T) {
	got, ok := CleanJSON("```json\n{\"a\": {\"b\": 1}}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, ok = CleanJSON("} nothing {")
	assert.False(t, ok)
}
