package middleware

import (
	"context"
	"errors"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	ErrNoToken     = apperror.New(apperror.KindUnauthorized, "not authorized, no token")
	ErrTokenFailed = apperror.New(apperror.KindUnauthorized, "not authorized, token failed")
	ErrNotAdmin    = apperror.New(apperror.KindForbidden, "not authorized as an admin")
)

// UserLookup resolves the account behind a session so deleted users and
// revoked admin rights take effect before the token expires.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
}

// Authenticate requires a valid session cookie or bearer token and puts the
// caller into the request context.
func Authenticate(issuer *auth.Issuer, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			tokenStr := auth.ExtractAccessToken(req)
			if tokenStr == "" {
				return ErrNoToken
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(ctx).Info("session token rejected", zap.Error(err))
				return ErrTokenFailed
			}

			email, isAdmin := claims.Email, claims.IsAdmin
			if users != nil {
				u, err := users.GetByID(ctx, claims.UserID)
				if errors.Is(err, user.ErrUserNotFound) {
					return ErrTokenFailed
				}
				if err != nil {
					return err
				}
				email, isAdmin = u.Email, u.IsAdmin
			}

			ctx = utils.SetUserContext(ctx, claims.UserID, email, utils.RoleFor(isAdmin))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !utils.IsAdmin(c.Request().Context()) {
				return ErrNotAdmin
			}
			return next(c)
		}
	}
}
