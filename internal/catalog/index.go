// Package catalog holds the read-only item catalog and the sources it is loaded from.
package catalog

import (
	"strings"
	"sync"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// Index holds known items with exact, case-insensitive name lookup.
// Catalog order is the order entries were supplied in.
type Index struct {
	mu      sync.RWMutex
	entries []model.CatalogEntry
	byName  map[string]int
}

// NewIndex builds an index over entries.
func NewIndex(entries []model.CatalogEntry) *Index {
	idx := &Index{}
	idx.Replace(entries)
	return idx
}

// Replace swaps the whole catalog. Entries with blank names are skipped and the
// first entry wins when two names differ only by case.
func (x *Index) Replace(entries []model.CatalogEntry) {
	kept := make([]model.CatalogEntry, 0, len(entries))
	byName := make(map[string]int, len(entries))
	for _, e := range entries {
		key := normalize(e.Name)
		if key == "" {
			continue
		}
		if _, dup := byName[key]; dup {
			continue
		}
		e.Name = strings.TrimSpace(e.Name)
		e.Sizes = append([]model.SizeVariant(nil), e.Sizes...)
		byName[key] = len(kept)
		kept = append(kept, e)
	}

	x.mu.Lock()
	x.entries = kept
	x.byName = byName
	x.mu.Unlock()
}

// Lookup returns the entry whose name matches exactly, ignoring case.
func (x *Index) Lookup(name string) (model.CatalogEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	i, ok := x.byName[normalize(name)]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return x.entries[i], true
}

// Names returns canonical names in catalog order.
func (x *Index) Names() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	names := make([]string, len(x.entries))
	for i, e := range x.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of all entries in catalog order.
func (x *Index) Entries() []model.CatalogEntry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return append([]model.CatalogEntry(nil), x.entries...)
}

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// PriceFor returns the size-specific price when size names one of the
// entry's variants, otherwise the base price. A variant priced at zero falls
// back to the base price.
func PriceFor(e model.CatalogEntry, size string) int64 {
	if s := normalize(size); s != "" {
		for _, v := range e.Sizes {
			if normalize(v.Name) == s && v.Price > 0 {
				return v.Price
			}
		}
	}
	return e.Price
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
