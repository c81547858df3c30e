package address

import (
	"context"
	"strings"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages the caller's address book.
type Service interface {
	List(ctx context.Context) ([]*Address, error)
	Get(ctx context.Context, addressID string) (*Address, error)

	Create(ctx context.Context, input CreateAddressInput) (*Address, error)
	Update(ctx context.Context, addressID string, input UpdateAddressInput) (*Address, error)
	Delete(ctx context.Context, addressID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrAddressNotFound
	}
	return parsed, nil
}

func (s *service) List(ctx context.Context) ([]*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) Get(ctx context.Context, addressID string) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	id, err := parseID(addressID)
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, userID, id)
}

func (s *service) Create(ctx context.Context, input CreateAddressInput) (*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Create"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	addr := &Address{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        strings.TrimSpace(input.Title),
		Recipient:    strings.TrimSpace(input.Recipient),
		Phone:        strings.TrimSpace(input.Phone),
		City:         strings.TrimSpace(input.City),
		District:     strings.TrimSpace(input.District),
		Neighborhood: strings.TrimSpace(input.Neighborhood),
		Line:         strings.TrimSpace(input.Line),
		PostalCode:   strings.TrimSpace(input.PostalCode),
		IsDefault:    input.IsDefault,
	}
	if err := validate(addr); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, addr); err != nil {
		log.Error("failed to create address", zap.Error(err))
		return nil, err
	}

	log.Info("address created",
		zap.String("address_id", addr.ID.String()),
		zap.Bool("is_default", addr.IsDefault),
	)
	return addr, nil
}

func validate(a *Address) error {
	switch {
	case a.Title == "":
		return apperror.Validation("address title is required")
	case a.Recipient == "":
		return apperror.Validation("recipient is required")
	case a.City == "":
		return apperror.Validation("city is required")
	case a.Line == "":
		return apperror.Validation("address line is required")
	}
	return nil
}

// Update merges the provided fields. Clearing the default flag on the current
// default is ignored; a user picks another default instead.
func (s *service) Update(ctx context.Context, addressID string, input UpdateAddressInput) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Update"),
		zap.String("address_id", addressID),
	)

	id, err := parseID(addressID)
	if err != nil {
		return nil, err
	}

	addr, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	merge(&addr.Title, input.Title)
	merge(&addr.Recipient, input.Recipient)
	merge(&addr.Phone, input.Phone)
	merge(&addr.City, input.City)
	merge(&addr.District, input.District)
	merge(&addr.Neighborhood, input.Neighborhood)
	merge(&addr.Line, input.Line)
	merge(&addr.PostalCode, input.PostalCode)
	if input.IsDefault != nil && *input.IsDefault {
		addr.IsDefault = true
	}

	if err := validate(addr); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, addr); err != nil {
		log.Error("failed to update address", zap.Error(err))
		return nil, err
	}

	log.Info("address updated")
	return addr, nil
}

func merge(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (s *service) Delete(ctx context.Context, addressID string) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	id, err := parseID(addressID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("address deleted",
		zap.String("service", "Address"),
		zap.String("address_id", addressID),
	)
	return nil
}
