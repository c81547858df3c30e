package product

import (
	"time"

	"storefront-be/internal/pricing"

	"github.com/shopspring/decimal"
)

type Response struct {
	ID             int64            `json:"_id"`
	User           uint             `json:"user,omitempty"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	EffectivePrice decimal.Decimal  `json:"effectivePrice"`
	Brand          string           `json:"brand"`
	Category       string           `json:"category"`
	Images         []string         `json:"images"`
	Color          string           `json:"color"`
	Sizes          []string         `json:"sizes"`
	SizeStock      map[string]int   `json:"sizeStock"`
	Discount       pricing.Discount `json:"discount"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

type ListResponse struct {
	Products []Response `json:"products"`
	Page     int        `json:"page"`
	Pages    int        `json:"pages"`
	Total    int        `json:"total"`
}

// ToResponse renders p with its effective price evaluated at now.
func ToResponse(p *Product, now time.Time) Response {
	images := p.Images
	if images == nil {
		images = []string{}
	}

	return Response{
		ID:             p.ID,
		User:           p.UserID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		EffectivePrice: p.EffectivePrice(now),
		Brand:          p.Brand,
		Category:       p.Category,
		Images:         images,
		Color:          p.Color,
		Sizes:          p.SizeStock.Sizes(),
		SizeStock:      p.SizeStock.Clone(),
		Discount:       p.Discount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func ToListResponse(r *ListResult, now time.Time) ListResponse {
	out := ListResponse{
		Products: make([]Response, 0, len(r.Items)),
		Page:     r.Page,
		Pages:    r.Pages,
		Total:    r.Total,
	}
	for _, p := range r.Items {
		out.Products = append(out.Products, ToResponse(p, now))
	}
	return out
}
