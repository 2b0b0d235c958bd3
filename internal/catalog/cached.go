package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tinytelemetry/concentration/internal/model"
)

// Fetcher returns a raw products document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Cached downloads the products document once into Path and serves every
// later call from that file.
type Cached struct {
	Path   string
	Source Fetcher

	mu sync.Mutex
}

func (c *Cached) ListItems(ctx context.Context) ([]model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		raw, err = c.download(ctx)
	}
	if err != nil {
		if !errors.Is(err, model.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
		}
		return nil, err
	}

	items, err := DecodeProducts(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: cache %s: %w", model.ErrCatalogUnavailable, c.Path, err)
	}
	return items, nil
}

func (c *Cached) download(ctx context.Context) ([]byte, error) {
	raw, err := c.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	// Reject a broken document before it is cached.
	if _, err := DecodeProducts(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return nil, fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.Path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("write cache: %w", err)
	}
	log.Printf("catalog: cached %d bytes at %s", len(raw), c.Path)
	return raw, nil
}
