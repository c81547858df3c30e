package order

import "storefront-be/internal/apperror"

var (
	ErrOrderNotFound     = apperror.New(apperror.KindNotFound, "order not found")
	ErrInsufficientStock = apperror.New(apperror.KindInsufficientStock, "insufficient stock")
	ErrEmptyOrder        = apperror.New(apperror.KindValidation, "no order items")
	ErrUnauthorized      = apperror.New(apperror.KindUnauthorized, "not authorized, no token")
	ErrForbidden         = apperror.New(apperror.KindForbidden, "not authorized to access this order")
	ErrInvalidTransition = apperror.New(apperror.KindValidation, "invalid status transition")
	ErrStatusConflict    = apperror.New(apperror.KindConflict, "order status was changed by another request")
)
