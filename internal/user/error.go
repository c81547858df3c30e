package user

import "storefront-be/internal/apperror"

var (
	ErrEmailExists        = apperror.New(apperror.KindValidation, "user already exists")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
	ErrUnauthenticated    = apperror.New(apperror.KindUnauthorized, "not authorized, no token")
	ErrForbidden          = apperror.New(apperror.KindForbidden, "not authorized as an admin")
	ErrInvalidResetToken  = apperror.New(apperror.KindValidation, "password reset token is invalid or has expired")
	ErrWeakPassword       = apperror.New(apperror.KindValidation, "password must be at least 6 characters")
	ErrCannotDeleteAdmin  = apperror.New(apperror.KindValidation, "cannot delete admin user")
)
