package product

import (
	"context"
	"strings"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/pricing"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

type Service interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id int64, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "product"),
		zap.String("method", "List"),
	)

	start := time.Now()

	/* ---------- INPUT NORMALIZATION ---------- */

	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	} else if opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}
	opts.Keyword = strings.TrimSpace(opts.Keyword)

	products, total, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list", zap.Error(err))
		return nil, err
	}

	log.Info("get product list success",
		zap.Int("count", len(products)),
		zap.Int("total", total),
		zap.Int("page", opts.Page),
		zap.Duration("duration", time.Since(start)),
	)

	pages := (total + opts.Limit - 1) / opts.Limit
	return &ListResult{Items: products, Total: total, Page: opts.Page, Pages: pages}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "product"),
		zap.String("method", "Create"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok || !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, apperror.Validation("name cannot be empty")
	}
	if !input.Price.IsPositive() {
		return nil, apperror.Validation("price must be positive")
	}
	if err := pricing.Validate(input.Discount); err != nil {
		return nil, err
	}

	stock, err := buildLedger(input.Sizes, input.SizeStock)
	if err != nil {
		return nil, err
	}

	p := &Product{
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Brand:       input.Brand,
		Category:    normalizeCategory(input.Category),
		Images:      input.Images,
		Color:       input.Color,
		SizeStock:   stock,
		Discount:    input.Discount,
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.Int64("product_id", p.ID))
	return p, nil
}

// buildLedger defines the size set of a new product. Every stocked size must
// be declared, and declared sizes without stock start at 0.
func buildLedger(sizes []string, stock map[string]int) (SizeStock, error) {
	ledger := SizeStock{}
	for _, size := range sizes {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		ledger[size] = 0
	}

	for size, qty := range stock {
		if len(sizes) > 0 && !ledger.Has(size) {
			return nil, apperror.Validation("size %s is not in the product's size list", size)
		}
		if qty < 0 {
			return nil, apperror.Validation("stock for size %s must not be negative", size)
		}
		ledger[size] = qty
	}
	return ledger, nil
}

func normalizeCategory(c string) string {
	parts := strings.Split(c, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

func (s *service) Update(ctx context.Context, id int64, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "product"),
		zap.String("method", "Update"),
		zap.Int64("product_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, apperror.Validation("price must be positive")
		}
		p.Price = *input.Price
	}
	if input.Brand != nil {
		p.Brand = *input.Brand
	}
	if input.Category != nil {
		p.Category = normalizeCategory(*input.Category)
	}
	if input.Images != nil {
		p.Images = input.Images
	}
	if input.Color != nil {
		p.Color = *input.Color
	}
	if input.Discount != nil {
		if err := pricing.Validate(*input.Discount); err != nil {
			return nil, err
		}
		p.Discount = *input.Discount
	}

	stock := make(SizeStock, len(input.SizeStock))
	for size, qty := range input.SizeStock {
		if err := p.SizeStock.Set(size, qty); err != nil {
			return nil, err
		}
		stock[size] = p.SizeStock.Get(size)
	}

	if err := s.repo.Update(ctx, p, stock); err != nil {
		log.Error("failed to update product", zap.Error(err))
		return nil, err
	}

	log.Info("product updated")
	return p, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("product deleted",
		zap.String("service", "product"),
		zap.Int64("product_id", id),
	)
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *service) Brands(ctx context.Context) ([]string, error) {
	return s.repo.Brands(ctx)
}
