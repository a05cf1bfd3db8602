package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/order-capture/internal/model"
)

func TestFileSourceYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
items:
  - name: Margherita Pizza
    price: 400
    sizes:
      - name: Large
        price: 550
  - name: Garlic Bread
    price: 150
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	entries, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)

	want := []model.CatalogEntry{
		{Name: "Margherita Pizza", Price: 400, Sizes: []model.SizeVariant{{Name: "Large", Price: 550}}},
		{Name: "Garlic Bread", Price: 150},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSourceJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items":[{"name":"Tea","price":50}]}`), 0o644))

	entries, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Tea", entries[0].Name)
	assert.Equal(t, int64(50), entries[0].Price)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
	assert.Error(t, err)
}

const menuPayload = `{
  "CategoryList": [
    {
      "CategryId": 1,
      "CategryName": "Pizza",
      "ItemListWidget": [
        {"ItemId": 10, "ItemName": "Margherita Pizza", "Price": 400,
         "SizeListWidget": [{"SizeId": 1, "SizeName": "Large", "Price": 549.5}]},
        {"ItemId": 11, "ItemName": "Farmhouse Pizza", "Price": "450"}
      ]
    },
    {
      "CategryId": 2,
      "CategryName": "Sides",
      "ItemListWidget": [{"ItemId": 20, "ItemName": "Garlic Bread", "Price": 150.25}]
    }
  ]
}`

func TestHTTPSourceFlattensMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"data": menuPayload})
	}))
	defer srv.Close()

	entries, err := NewHTTPSource(srv.URL, 0).Load(context.Background())
	require.NoError(t, err)

	want := []model.CatalogEntry{
		{Name: "Margherita Pizza", Price: 400, Sizes: []model.SizeVariant{{Name: "Large", Price: 550}}},
		{Name: "Farmhouse Pizza", Price: 450},
		{Name: "Garlic Bread", Price: 150},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}},
		{"missing data field", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}},
		{"data is not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":"not json"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPSource(srv.URL, 0).Load(context.Background())
			assert.Error(t, err)
		})
	}
}
