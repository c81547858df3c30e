// Package pricing computes the price a buyer pays for a product under its
// discount descriptor. The catalog response, the quote endpoint and order
// placement all call EffectivePrice so the three always agree.
package pricing

import (
	"time"

	"storefront-be/internal/apperror"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

type Discount struct {
	Type      DiscountType    `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	StartDate *time.Time      `json:"startDate,omitempty"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	Active    bool            `json:"isActive"`
}

// IsActive reports whether d applies at now. Both window bounds are inclusive.
func IsActive(d Discount, now time.Time) bool {
	if !d.Active || d.StartDate == nil || d.EndDate == nil {
		return false
	}
	return !now.Before(*d.StartDate) && !now.After(*d.EndDate)
}

// EffectivePrice never fails; descriptors are checked on write by Validate.
func EffectivePrice(price decimal.Decimal, d Discount, now time.Time) decimal.Decimal {
	if !IsActive(d, now) {
		return price
	}

	var out decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		factor := decimal.NewFromInt(1).Sub(d.Amount.Div(hundred))
		// whole currency units, half away from zero
		out = price.Mul(factor).Round(0)
	case DiscountFixed:
		out = price.Sub(d.Amount)
	default:
		return price
	}

	if out.IsNegative() {
		return decimal.Zero
	}
	if out.GreaterThan(price) {
		return price
	}
	return out
}

// Validate rejects malformed descriptors before they are stored.
func Validate(d Discount) error {
	if d.Type == "" && !d.Active && d.Amount.IsZero() {
		return nil
	}

	switch d.Type {
	case DiscountPercentage, DiscountFixed:
	default:
		return apperror.Validation("discount type must be %q or %q", DiscountPercentage, DiscountFixed)
	}

	if d.Amount.IsNegative() {
		return apperror.Validation("discount amount must not be negative")
	}
	if d.Type == DiscountPercentage && d.Amount.GreaterThan(hundred) {
		return apperror.Validation("percentage discount must not exceed 100")
	}

	if d.Active {
		if d.StartDate == nil || d.EndDate == nil {
			return apperror.Validation("active discount requires start and end dates")
		}
		if d.StartDate.After(*d.EndDate) {
			return apperror.Validation("discount start date must not be after end date")
		}
	}
	return nil
}

type Quote struct {
	Price          decimal.Decimal `json:"price"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	DiscountActive bool            `json:"discountActive"`
}

func QuoteAt(price decimal.Decimal, d Discount, now time.Time) Quote {
	return Quote{
		Price:          price,
		EffectivePrice: EffectivePrice(price, d, now),
		DiscountActive: IsActive(d, now),
	}
}
