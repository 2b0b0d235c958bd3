package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/concentration/internal/model"
	"gopkg.in/yaml.v3"
)

// File reads items from a local file on every call.
// .yaml and .yml files hold an "items" list; anything else is read as a
// products.json document.
type File struct {
	Path string
}

type yamlCatalog struct {
	Items []model.Item `yaml:"items"`
}

func (f File) ListItems(context.Context) ([]model.Item, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}
	defer fh.Close()

	items, err := decodeFile(f.Path, fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrCatalogUnavailable, f.Path, err)
	}
	return items, nil
}

func decodeFile(path string, r io.Reader) ([]model.Item, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc yamlCatalog
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
		return doc.Items, nil
	default:
		return DecodeProducts(r)
	}
}
