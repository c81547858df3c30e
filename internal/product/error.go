package product

import "storefront-be/internal/apperror"

var (
	ErrProductNotFound = apperror.New(apperror.KindNotFound, "product not found")
	ErrUnknownSize     = apperror.New(apperror.KindValidation, "unknown size")
	ErrForbidden       = apperror.New(apperror.KindForbidden, "not authorized as an admin")
)
