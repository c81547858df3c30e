package api

import (
	"net/http"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/pricing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type quoteRequest struct {
	Price    decimal.Decimal  `json:"price"`
	Discount pricing.Discount `json:"discount"`
}

type pricingHandler struct {
	now func() time.Time
}

// quote previews the price a product would sell at with the given discount.
func (h *pricingHandler) quote(c echo.Context) error {
	var req quoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if !req.Price.IsPositive() {
		return apperror.Validation("price must be greater than 0")
	}
	if err := pricing.Validate(req.Discount); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pricing.QuoteAt(req.Price, req.Discount, h.now()))
}
