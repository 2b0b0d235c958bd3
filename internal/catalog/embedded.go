package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/tinytelemetry/concentration/internal/model"
)

//go:embed data/products.json
var embeddedProducts []byte

// Embedded serves the bundled sample products.
type Embedded struct {
	once  sync.Once
	items []model.Item
	err   error
}

func NewEmbedded() *Embedded {
	return &Embedded{}
}

func (e *Embedded) init() {
	e.items, e.err = DecodeProducts(bytes.NewReader(embeddedProducts))
	if e.err != nil {
		e.err = fmt.Errorf("embedded catalog: %w", e.err)
	}
}

func (e *Embedded) ListItems(context.Context) ([]model.Item, error) {
	e.once.Do(e.init)
	if e.err != nil {
		return nil, e.err
	}
	return slices.Clone(e.items), nil
}
