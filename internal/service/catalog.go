package service

import (
	"context"
	"errors"
	"fmt"

	subseq "github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	"github.com/capitalize-ai/order-capture/internal/model"
	"github.com/capitalize-ai/order-capture/pkg/logger"
	"github.com/capitalize-ai/order-capture/pkg/metrics"
)

var (
	// ErrNoCatalogSource is returned by Refresh when no source is configured.
	ErrNoCatalogSource = errors.New("no catalog source configured")

	// ErrEmptyCatalog is returned when a source yields no entries. The
	// current catalog is kept.
	ErrEmptyCatalog = errors.New("catalog source returned no items")
)

// CatalogService loads and searches the catalog.
type CatalogService struct {
	index  *catalog.Index
	source catalog.Source
	logger *logger.Logger
}

// NewCatalogService creates a catalog service. source may be nil.
func NewCatalogService(index *catalog.Index, source catalog.Source, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogService{index: index, source: source, logger: log}
}

// Refresh reloads the catalog from its source and swaps it in atomically.
func (s *CatalogService) Refresh(ctx context.Context) (*model.CatalogRefreshResponse, error) {
	if s.source == nil {
		return nil, ErrNoCatalogSource
	}

	entries, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("catalog load failed", zap.Error(err))
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Warn("catalog source returned no items, keeping current catalog", zap.Int("current", s.index.Len()))
		return nil, ErrEmptyCatalog
	}

	s.index.Replace(entries)
	metrics.CatalogItems.Set(float64(s.index.Len()))
	s.logger.Info("catalog refreshed", zap.Int("items", s.index.Len()))

	return &model.CatalogRefreshResponse{
		Message:    "catalog refreshed",
		TotalItems: s.index.Len(),
	}, nil
}

// Items lists canonical names in catalog order. A non-empty query keeps
// names containing its characters in sequence, best matches first.
func (s *CatalogService) Items(query string, limit int) *model.CatalogItemsResponse {
	names := s.index.Names()

	items := names
	if query != "" {
		matches := subseq.Find(query, names)
		items = make([]string, len(matches))
		for i, m := range matches {
			items[i] = m.Str
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []string{}
	}
	return &model.CatalogItemsResponse{Items: items}
}
