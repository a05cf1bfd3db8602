// Package pricing turns a resolved order into priced lines and totals.
// All arithmetic is on integers in the smallest currency unit.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/fuzzy"
	"github.com/capitalize-ai/order-capture/internal/model"
)

var (
	// ErrCatalogUnavailable is reported alongside zero-priced lines when the
	// catalog has no entries.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrUnresolvedItem is returned when an item name matches nothing in a
	// non-empty catalog.
	ErrUnresolvedItem = errors.New("unresolved item")
)

// Rates holds the fixed pricing constants.
type Rates struct {
	// TaxBasisPoints is the tax rate in hundredths of a percent (500 = 5%).
	TaxBasisPoints int64
	// DeliveryFee is charged when the subtotal is below FreeDeliveryThreshold.
	DeliveryFee           int64
	FreeDeliveryThreshold int64
}

// DefaultRates returns 5% tax and a delivery fee of 40 below a subtotal of 1000.
func DefaultRates() Rates {
	return Rates{
		TaxBasisPoints:        500,
		DeliveryFee:           40,
		FreeDeliveryThreshold: 1000,
	}
}

// Tax returns subtotal * rate rounded half up to the nearest unit.
func (r Rates) Tax(subtotal int64) int64 {
	if subtotal <= 0 || r.TaxBasisPoints <= 0 {
		return 0
	}
	return (subtotal*r.TaxBasisPoints + 5000) / 10000
}

// Delivery returns the flat fee for subtotals under the threshold.
func (r Rates) Delivery(subtotal int64) int64 {
	if subtotal < r.FreeDeliveryThreshold {
		return r.DeliveryFee
	}
	return 0
}

// UnresolvedError names the items that could not be priced.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedItem, strings.Join(e.Names, ", "))
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolvedItem
}

// Calculator prices orders against a catalog index.
type Calculator struct {
	index    *catalog.Index
	resolver *fuzzy.Resolver
	rates    Rates
}

// NewCalculator creates a calculator. The resolver supplies the fallback for
// names without an exact catalog match.
func NewCalculator(index *catalog.Index, resolver *fuzzy.Resolver, rates Rates) *Calculator {
	return &Calculator{
		index:    index,
		resolver: resolver,
		rates:    rates,
	}
}

// Price computes the breakdown for o. When the catalog is empty every line is
// priced at zero, the breakdown is flagged CatalogUnavailable and
// ErrCatalogUnavailable is returned with it. When the catalog is loaded but a
// name cannot be resolved, Price returns an *UnresolvedError and no breakdown.
func (c *Calculator) Price(o model.Order) (*model.PricingBreakdown, error) {
	unavailable := c.index.Len() == 0

	b := &model.PricingBreakdown{
		Lines:              make([]model.PriceLine, 0, len(o.Items)),
		CatalogUnavailable: unavailable,
	}

	var unresolved []string
	for _, it := range o.Items {
		var unit int64
		if !unavailable {
			entry, ok := c.lookup(it.Name)
			if !ok {
				unresolved = append(unresolved, it.Name)
				continue
			}
			unit = catalog.PriceFor(entry, it.SizeOrWeight)
		}

		qty := it.Quantity
		if qty < 0 {
			qty = 0
		}
		line := model.PriceLine{
			Name:         it.Name,
			SizeOrWeight: it.SizeOrWeight,
			Quantity:     qty,
			UnitPrice:    unit,
			Total:        unit * int64(qty),
		}
		b.Subtotal += line.Total
		b.Lines = append(b.Lines, line)
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedError{Names: unresolved}
	}

	b.Tax = c.rates.Tax(b.Subtotal)
	b.DeliveryFee = c.rates.Delivery(b.Subtotal)
	b.GrandTotal = b.Subtotal + b.Tax + b.DeliveryFee

	if unavailable {
		return b, ErrCatalogUnavailable
	}
	return b, nil
}

func (c *Calculator) lookup(name string) (model.CatalogEntry, bool) {
	if e, ok := c.index.Lookup(name); ok {
		return e, true
	}
	if c.resolver == nil {
		return model.CatalogEntry{}, false
	}
	return c.resolver.Best(name)
}
