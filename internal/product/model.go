package product

import (
	"time"

	"storefront-be/internal/pricing"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64
	UserID      uint
	Name        string
	Description string
	Price       decimal.Decimal
	Brand       string
	Category    string
	Images      []string
	Color       string
	SizeStock   SizeStock
	Discount    pricing.Discount
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) EffectivePrice(now time.Time) decimal.Decimal {
	return pricing.EffectivePrice(p.Price, p.Discount, now)
}

func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type SortField string

const (
	SortNewest    SortField = "newest"
	SortPriceAsc  SortField = "price_asc"
	SortPriceDesc SortField = "price_desc"
	SortName      SortField = "name"
)

type ListOptions struct {
	Keyword  string
	Category string
	Brand    string
	Size     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortField
	Page     int
	Limit    int
}

type ListResult struct {
	Items []*Product
	Total int
	Page  int
	Pages int
}

type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Brand       string
	Category    string
	Images      []string
	Color       string
	Sizes       []string
	SizeStock   map[string]int
	Discount    pricing.Discount
}

// UpdateInput carries only the fields to change; nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Brand       *string
	Category    *string
	Images      []string
	Color       *string
	SizeStock   map[string]int
	Discount    *pricing.Discount
}
