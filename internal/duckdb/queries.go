package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/tinytelemetry/concentration/internal/model"
)

// Import describes one ReplaceItems call.
type Import struct {
	Source     string    `json:"source"`
	ItemCount  int       `json:"item_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// ListItems returns the catalog in import order. An empty catalog is not an
// error; the game host decides whether it holds enough items.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, vendor, image_url FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: query catalog: %w", model.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Vendor, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("%w: scan item: %w", model.ErrCatalogUnavailable, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}
	return items, nil
}

// CountItems returns the number of stored items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_items").Scan(&n)
	return n, err
}

// LastImport returns the most recent import, or ok=false if there was none.
func (s *Store) LastImport(ctx context.Context) (imp Import, ok bool, err error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT source, item_count, imported_at FROM catalog_imports ORDER BY id DESC LIMIT 1`)
	if err != nil {
		return Import{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return Import{}, false, rows.Err()
	}
	if err := rows.Scan(&imp.Source, &imp.ItemCount, &imp.ImportedAt); err != nil {
		return Import{}, false, err
	}
	return imp, true, nil
}
