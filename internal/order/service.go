package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*product.Product, error)
}

type AddressReader interface {
	Get(ctx context.Context, id string) (*address.Address, error)
}

// Recorder receives order outcomes; the metrics package implements it.
type Recorder interface {
	OrderPlaced()
	OrderRejected(reason string)
}

type noopRecorder struct{}

func (noopRecorder) OrderPlaced()           {}
func (noopRecorder) OrderRejected(_ string) {}

type Service interface {
	Place(ctx context.Context, input PlaceInput) (*Order, error)
	Mine(ctx context.Context) ([]*Order, error)
	All(ctx context.Context, filter ListFilter) (*ListResult, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Delete(ctx context.Context, id int64) error
	MarkPaid(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error)
}

type service struct {
	repo      Repository
	products  ProductReader
	addresses AddressReader
	shipping  ShippingPolicy
	recorder  Recorder
	now       func() time.Time
}

func NewService(repo Repository, products ProductReader, addresses AddressReader, shipping ShippingPolicy, rec Recorder) Service {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &service{
		repo:      repo,
		products:  products,
		addresses: addresses,
		shipping:  shipping,
		recorder:  rec,
		now:       time.Now,
	}
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "order"),
		zap.String("method", "Place"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	lines, err := mergeLines(input.Items)
	if err != nil {
		s.recorder.OrderRejected("validation")
		return nil, err
	}

	if strings.TrimSpace(input.PaymentMethod) == "" {
		s.recorder.OrderRejected("validation")
		return nil, apperror.Validation("payment method is required")
	}

	shippingAddress, err := s.resolveAddress(ctx, input)
	if err != nil {
		s.recorder.OrderRejected("validation")
		return nil, err
	}

	now := s.now()

	// ---------- VALIDATE & PRICE ----------
	items := make([]Item, 0, len(lines))
	itemsPrice := decimal.Zero

	for _, line := range lines {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			s.recorder.OrderRejected("product")
			return nil, err
		}

		if !p.SizeStock.Has(line.Size) {
			s.recorder.OrderRejected("validation")
			return nil, apperror.Validation("size %s is not available for %s", line.Size, p.Name)
		}

		if available := p.SizeStock.Get(line.Size); line.Quantity > available {
			log.Info("order rejected on stock check",
				zap.Int64("product_id", p.ID),
				zap.String("size", line.Size),
				zap.Int("requested", line.Quantity),
				zap.Int("available", available),
			)
			s.recorder.OrderRejected("insufficient_stock")
			return nil, fmt.Errorf("%w: %s (%s)", ErrInsufficientStock, p.Name, line.Size)
		}

		item := Item{
			ProductID: p.ID,
			Name:      p.Name,
			Size:      line.Size,
			Color:     p.Color,
			Image:     p.FirstImage(),
			Quantity:  line.Quantity,
			Price:     p.EffectivePrice(now),
		}
		items = append(items, item)
		itemsPrice = itemsPrice.Add(item.Subtotal())
	}

	shippingPrice := s.shipping.Price(itemsPrice)

	o := &Order{
		OrderNumber:     utils.GenerateOrderNumber(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: shippingAddress,
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		ItemsPrice:      itemsPrice,
		ShippingPrice:   shippingPrice,
		TotalPrice:      itemsPrice.Add(shippingPrice),
		Status:          StatusPending,
	}

	// ---------- RESERVE & PERSIST ----------
	if err := s.repo.PlaceOrderTx(ctx, o); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.recorder.OrderRejected("insufficient_stock")
		}
		log.Error("failed to place order", zap.Error(err))
		return nil, err
	}

	s.recorder.OrderPlaced()
	log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.TotalPrice.String()),
	)
	return o, nil
}

// mergeLines folds repeated (product, size) pairs so the stock check sees the
// full requested quantity.
func mergeLines(in []LineInput) ([]LineInput, error) {
	if len(in) == 0 {
		return nil, ErrEmptyOrder
	}

	type key struct {
		id   int64
		size string
	}
	index := map[key]int{}
	out := make([]LineInput, 0, len(in))

	for i, line := range in {
		line.Size = strings.TrimSpace(line.Size)
		if line.Quantity <= 0 {
			return nil, apperror.Validation("quantity must be positive at line %d", i+1)
		}
		if line.Size == "" {
			return nil, apperror.Validation("size is required at line %d", i+1)
		}

		k := key{line.ProductID, line.Size}
		if j, ok := index[k]; ok {
			out[j].Quantity += line.Quantity
			continue
		}
		index[k] = len(out)
		out = append(out, line)
	}
	return out, nil
}

func (s *service) resolveAddress(ctx context.Context, input PlaceInput) (ShippingAddress, error) {
	if input.AddressID != "" {
		a, err := s.addresses.Get(ctx, input.AddressID)
		if err != nil {
			return ShippingAddress{}, err
		}
		return ShippingAddress{
			Title:        a.Title,
			Recipient:    a.Recipient,
			Phone:        a.Phone,
			City:         a.City,
			District:     a.District,
			Neighborhood: a.Neighborhood,
			Line:         a.Line,
			PostalCode:   a.PostalCode,
		}, nil
	}

	sa := input.ShippingAddress
	if strings.TrimSpace(sa.Line) == "" || strings.TrimSpace(sa.City) == "" {
		return ShippingAddress{}, apperror.Validation("shipping address requires address line and city")
	}
	return sa, nil
}

func (s *service) Mine(ctx context.Context) ([]*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) All(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Validation("unknown order status %q", filter.Status)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	} else if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items: orders,
		Total: total,
		Page:  filter.Page,
		Pages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// Get returns the order to its owner or to an admin.
func (s *service) Get(ctx context.Context, id int64) (*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.UserID != userID && !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order deleted",
		zap.String("service", "order"),
		zap.Int64("order_id", id),
	)
	return nil
}

func (s *service) MarkPaid(ctx context.Context, id int64) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusCancelled {
		return nil, apperror.Validation("cannot pay for a cancelled order")
	}
	if o.IsPaid {
		return o, nil
	}

	now := s.now()
	if err := s.repo.MarkPaid(ctx, id, now); err != nil {
		return nil, err
	}

	o.IsPaid = true
	o.PaidAt = &now
	o.UpdatedAt = now
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "order"),
		zap.String("method", "UpdateStatus"),
		zap.Int64("order_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, apperror.Validation("unknown order status %q", status)
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, status)
	}

	now := s.now()
	if status == StatusCancelled {
		err = s.repo.CancelTx(ctx, o, now)
	} else {
		err = s.repo.UpdateStatus(ctx, id, o.Status, status, now)
	}
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated",
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)),
	)

	o.Status = status
	o.UpdatedAt = now
	if status == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	return o, nil
}
