package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/shopbot/internal/params"
	"github.com/kalambet/shopbot/internal/storage"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Catalog searches the product table.
type Catalog struct {
	store *storage.Store
}

func NewCatalog(store *storage.Store) *Catalog {
	return &Catalog{store: store}
}

// Search runs q against the catalog. Page is 1-based; page size is clamped
// to [1, MaxPageSize]. When the free-text query alone eliminates every
// product it is dropped and the remaining filters are applied.
func (c *Catalog) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return SearchResult{}, fmt.Errorf("%w: minimum price %.2f is above maximum price %.2f", ErrInvalidInput, *q.MinPrice, *q.MaxPrice)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	category := ""
	if q.Category != "" {
		category = params.NormalizeCategory(q.Category)
	}
	rows, total, dropped, err := c.store.SearchProducts(ctx, storage.ProductFilter{
		Query:    strings.TrimSpace(q.Query),
		Brand:    q.Brand,
		Category: category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		InStock:  q.InStock,
		Offset:   (page - 1) * size,
		Limit:    size,
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("searching products: %w", err)
	}

	res := SearchResult{Total: total, Page: page, PageSize: size, QueryDropped: dropped, Items: make([]Product, 0, len(rows))}
	for _, r := range rows {
		res.Items = append(res.Items, productFromRow(r))
	}
	return res, nil
}

// Get returns a single product.
func (c *Catalog) Get(ctx context.Context, id int64) (Product, error) {
	r, err := c.store.GetProduct(ctx, id)
	if err == storage.ErrNotFound {
		return Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	return productFromRow(r), nil
}

func productFromRow(r storage.Product) Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       r.Brand,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
	}
}
