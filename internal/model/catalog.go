package model

// SizeVariant is a named size of a catalog item with its own price.
type SizeVariant struct {
	Name  string `json:"name" yaml:"name"`
	Price int64  `json:"price" yaml:"price"`
}

// CatalogEntry is a purchasable item. Prices are in the smallest currency unit.
type CatalogEntry struct {
	Name  string        `json:"name" yaml:"name"`
	Price int64         `json:"price" yaml:"price"`
	Sizes []SizeVariant `json:"sizes,omitempty" yaml:"sizes,omitempty"`
}
