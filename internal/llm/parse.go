package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// ErrMalformedExtraction is returned when provider output cannot be read as
// a partial order.
var ErrMalformedExtraction = errors.New("malformed extraction")

const orderSchemaJSON = `{
  "type": "object",
  "properties": {
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "qty": {"type": ["integer", "null"]},
          "size_or_weight": {"type": ["string", "number", "null"]}
        }
      }
    },
    "delivery_date": {"type": ["string", "null"]},
    "payment_method": {"type": ["string", "null"]},
    "contact": {
      "type": ["object", "null"],
      "properties": {
        "name": {"type": ["string", "null"]},
        "phone": {"type": ["string", "number", "null"]},
        "address": {"type": ["string", "null"]}
      }
    }
  }
}`

var orderSchema = mustCompileSchema(orderSchemaJSON)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("order.json", strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("order.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

type wireOrder struct {
	Items         []wireItem  `json:"items"`
	DeliveryDate  *string     `json:"delivery_date"`
	PaymentMethod *string     `json:"payment_method"`
	Contact       wireContact `json:"contact"`
}

type wireItem struct {
	Name         *string     `json:"name"`
	Qty          *float64    `json:"qty"`
	SizeOrWeight looseString `json:"size_or_weight"`
}

type wireContact struct {
	Name    *string     `json:"name"`
	Phone   looseString `json:"phone"`
	Address *string     `json:"address"`
}

// looseString accepts a JSON string or number and keeps its literal text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(strings.TrimSpace(str))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// CleanJSON strips code fences and returns the outermost {...} span of raw.
func CleanJSON(raw string) (string, bool) {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseOrder reads provider output as a partial order. Any failure wraps
// ErrMalformedExtraction.
func ParseOrder(raw string) (model.Order, error) {
	body, ok := CleanJSON(raw)
	if !ok {
		return model.Order{}, fmt.Errorf("%w: no JSON object in output", ErrMalformedExtraction)
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return model.Order{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	if err := orderSchema.Validate(v); err != nil {
		return model.Order{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}

	var w wireOrder
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return model.Order{}, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
	}
	return w.toOrder(), nil
}

func (w wireOrder) toOrder() model.Order {
	o := model.Order{
		Items:         make([]model.OrderItem, 0, len(w.Items)),
		DeliveryDate:  deref(w.DeliveryDate),
		PaymentMethod: deref(w.PaymentMethod),
		Contact: model.Contact{
			Name:    deref(w.Contact.Name),
			Phone:   string(w.Contact.Phone),
			Address: deref(w.Contact.Address),
		},
	}
	for _, it := range w.Items {
		name := deref(it.Name)
		if name == "" {
			continue
		}
		item := model.OrderItem{Name: name, SizeOrWeight: string(it.SizeOrWeight)}
		if it.Qty != nil && *it.Qty > 0 {
			item.Quantity = int(math.Round(*it.Qty))
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
