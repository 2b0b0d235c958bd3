// Package catalog provides item catalogs for new games.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tinytelemetry/concentration/internal/model"
)

// ProductList is a Shopify products.json document.
type ProductList struct {
	Products []Product `json:"products"`
}

// Product is one entry of a products.json document.
type Product struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Vendor string       `json:"vendor"`
	Image  ProductImage `json:"image"`
}

// ProductImage is the featured image of a product.
type ProductImage struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Src       string `json:"src"`
}

// Item converts the product to a catalog item.
func (p Product) Item() model.Item {
	return model.Item{
		ID:       strconv.FormatInt(p.ID, 10),
		Title:    p.Title,
		Vendor:   p.Vendor,
		ImageURL: p.Image.Src,
	}
}

// DecodeProducts reads a products.json document and returns its items in
// document order. Products without an id are skipped.
func DecodeProducts(r io.Reader) ([]model.Item, error) {
	var doc ProductList
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	items := make([]model.Item, 0, len(doc.Products))
	for _, p := range doc.Products {
		if p.ID == 0 {
			continue
		}
		items = append(items, p.Item())
	}
	return items, nil
}
