package address

import "storefront-be/internal/apperror"

var (
	ErrAddressNotFound = apperror.New(apperror.KindNotFound, "address not found")
	ErrUserNotFound    = apperror.New(apperror.KindNotFound, "user not found")
	ErrUnauthenticated = apperror.New(apperror.KindUnauthorized, "not authorized, no token")
)
