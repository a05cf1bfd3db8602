package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/order-capture/internal/model"
)

// Source yields the full list of catalog entries.
type Source interface {
	Load(ctx context.Context) ([]model.CatalogEntry, error)
}

// FileSource reads a YAML or JSON catalog file of the form
//
//	items:
//	  - name: Margherita Pizza
//	    price: 400
//	    sizes:
//	      - name: Large
//	        price: 550
type FileSource struct {
	Path string
}

type fileCatalog struct {
	Items []model.CatalogEntry `yaml:"items"`
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", s.Path, err)
	}
	return fc.Items, nil
}

// HTTPSource fetches the menu API, whose response wraps the menu document as
// a JSON string in a "data" field.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a remote menu source with a request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

type menuEnvelope struct {
	Data *string `json:"data"`
}

type menuDocument struct {
	CategoryList []struct {
		CategoryName string `json:"CategryName"`
		Items        []struct {
			ItemName string      `json:"ItemName"`
			Price    json.Number `json:"Price"`
			Sizes    []struct {
				SizeName string      `json:"SizeName"`
				Price    json.Number `json:"Price"`
			} `json:"SizeListWidget"`
		} `json:"ItemListWidget"`
	} `json:"CategoryList"`
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch menu: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env menuEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode menu response: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("menu response has no data field")
	}

	return ParseMenu([]byte(*env.Data))
}

// ParseMenu flattens a menu document's categories into catalog entries.
func ParseMenu(data []byte) ([]model.CatalogEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc menuDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid menu document: %w", err)
	}

	var entries []model.CatalogEntry
	for _, cat := range doc.CategoryList {
		for _, it := range cat.Items {
			price, err := parsePrice(it.Price)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", it.ItemName, err)
			}
			entry := model.CatalogEntry{Name: it.ItemName, Price: price}
			for _, sz := range it.Sizes {
				sp, err := parsePrice(sz.Price)
				if err != nil {
					return nil, fmt.Errorf("item %q size %q: %w", it.ItemName, sz.SizeName, err)
				}
				entry.Sizes = append(entry.Sizes, model.SizeVariant{Name: sz.SizeName, Price: sp})
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// parsePrice reads an integer amount, rounding a decimal fraction half up.
// A missing price is zero.
func parsePrice(n json.Number) (int64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if hasFrac && frac != "" {
		if frac[0] < '0' || frac[0] > '9' {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		if frac[0] >= '5' && v >= 0 {
			v++
		}
	}
	return v, nil
}
