package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tinytelemetry/concentration/internal/duckdb"
	"github.com/tinytelemetry/concentration/internal/model"
)

// Sources accepted by Open.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceDuckDB   = "duckdb"
)

var ErrUnknownSource = errors.New("unknown catalog source")

// Options selects and configures a catalog.
type Options struct {
	Source    string
	File      string
	URL       string
	CachePath string
	Timeout   time.Duration
	DBPath    string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the provider for opts.Source. The returned closer releases any
// resources held by the provider and is never nil on success.
//
// For the duckdb source, a non-empty File is imported into the store when the
// store is empty.
func Open(ctx context.Context, opts Options) (model.CatalogProvider, io.Closer, error) {
	switch opts.Source {
	case "", SourceEmbedded:
		return NewEmbedded(), nopCloser{}, nil

	case SourceFile:
		if opts.File == "" {
			return nil, nil, fmt.Errorf("catalog source %q requires a file", opts.Source)
		}
		return File{Path: opts.File}, nopCloser{}, nil

	case SourceHTTP:
		if opts.URL == "" {
			return nil, nil, fmt.Errorf("catalog source %q requires a url", opts.Source)
		}
		h := HTTP{URL: opts.URL, Timeout: opts.Timeout}
		if opts.CachePath == "" {
			return h, nopCloser{}, nil
		}
		return &Cached{Path: opts.CachePath, Source: h}, nopCloser{}, nil

	case SourceDuckDB:
		store, err := duckdb.NewStore(opts.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog store: %w", err)
		}
		if opts.File != "" {
			if err := seedStore(ctx, store, opts.File); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, opts.Source)
	}
}

func seedStore(ctx context.Context, store *duckdb.Store, path string) error {
	n, err := store.CountItems(ctx)
	if err != nil {
		return fmt.Errorf("count catalog items: %w", err)
	}
	if n > 0 {
		return nil
	}
	items, err := File{Path: path}.ListItems(ctx)
	if err != nil {
		return err
	}
	return store.ReplaceItems(ctx, path, items)
}
