package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/mail"
	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const (
	resetTokenBytes = 32
	resetTokenTTL   = 10 * time.Minute
)

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*product.Product, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)

	Profile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error)

	ToggleFavorite(ctx context.Context, productID int64) ([]int64, error)
	Favorites(ctx context.Context) ([]int64, error)

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error

	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id uint) error
}

// ResetOptions configures the password reset link.
type ResetOptions struct {
	Secret      string
	FrontendURL string
}

type service struct {
	repo     Repository
	products ProductReader
	mailer   mail.Sender
	reset    ResetOptions
	now      func() time.Time
}

func NewService(repo Repository, products ProductReader, mailer mail.Sender, reset ResetOptions) Service {
	return &service{
		repo:     repo,
		products: products,
		mailer:   mailer,
		reset:    reset,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "user"),
		zap.String("method", "Register"),
	)

	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperror.Validation("email is required")
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u := &User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	log.Info("register service completed",
		zap.Uint("user_id", u.ID),
		zap.String("email", email),
	)
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "user"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		log.Info("email not found")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("password not match", zap.Uint("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *service) currentUserID(ctx context.Context) (uint, error) {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

func (s *service) Profile(ctx context.Context) (*User, error) {
	id, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error) {
	id, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, apperror.Validation("email is required")
		}
		u.Email = email
	}
	if input.Phone != nil {
		u.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Password != nil && *input.Password != "" {
		if err := ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hashed, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("profile updated", zap.String("service", "user"))
	return u, nil
}

func (s *service) ToggleFavorite(ctx context.Context, productID int64) ([]int64, error) {
	id, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	return s.repo.ToggleFavorite(ctx, id, productID)
}

func (s *service) Favorites(ctx context.Context) ([]int64, error) {
	id, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Favorites(ctx, id)
}

// ForgotPassword mails a one-time reset link. Unknown addresses succeed
// silently so the endpoint does not reveal which e-mails are registered.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "user"),
		zap.String("method", "ForgotPassword"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		log.Info("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := utils.GenerateRandomToken(resetTokenBytes)
	if err != nil {
		return err
	}

	expires := s.now().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, u.ID, utils.HashToken(s.reset.Secret, token), expires); err != nil {
		log.Error("failed to store reset token", zap.Error(err))
		return err
	}

	link := strings.TrimRight(s.reset.FrontendURL, "/") + "/reset-password/" + token
	if err := s.mailer.Send(ctx, mail.BuildResetMessage(u.Email, u.Name, link)); err != nil {
		if clearErr := s.repo.ClearResetToken(ctx, u.ID); clearErr != nil {
			log.Error("failed to clear reset token", zap.Error(clearErr))
		}
		return apperror.Wrap(apperror.KindUpstream, "email could not be sent", err)
	}

	log.Info("reset link sent", zap.Uint("user_id", u.ID))
	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	u, err := s.repo.FindByResetToken(ctx, utils.HashToken(s.reset.Secret, token), s.now())
	if errors.Is(err, ErrUserNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repo.ResetPassword(ctx, u.ID, hashed); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("password reset", zap.Uint("user_id", u.ID))
	return nil
}

func (s *service) List(ctx context.Context) ([]*User, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin {
		return ErrCannotDeleteAdmin
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("user deleted",
		zap.String("service", "user"),
		zap.Uint("user_id", id),
	)
	return nil
}
