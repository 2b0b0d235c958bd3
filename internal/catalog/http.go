package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tinytelemetry/concentration/internal/model"
)

// maxBodyBytes caps a downloaded products document.
const maxBodyBytes = 16 << 20

// HTTP downloads a products.json document on every call.
type HTTP struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// Fetch returns the raw document body.
func (h HTTP) Fetch(ctx context.Context) ([]byte, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", model.ErrCatalogUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", model.ErrCatalogUnavailable, h.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", model.ErrCatalogUnavailable, err)
	}
	return body, nil
}

func (h HTTP) ListItems(ctx context.Context) ([]model.Item, error) {
	body, err := h.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	items, err := DecodeProducts(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}
	return items, nil
}
