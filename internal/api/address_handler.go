package api

import (
	"net/http"

	"storefront-be/internal/address"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type addressRequest struct {
	Title        string `json:"title"`
	Recipient    string `json:"recipient"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
	Line         string `json:"address"`
	PostalCode   string `json:"postalCode"`
	IsDefault    bool   `json:"isDefault"`
}

type updateAddressRequest struct {
	Title        *string `json:"title"`
	Recipient    *string `json:"recipient"`
	Phone        *string `json:"phone"`
	City         *string `json:"city"`
	District     *string `json:"district"`
	Neighborhood *string `json:"neighborhood"`
	Line         *string `json:"address"`
	PostalCode   *string `json:"postalCode"`
	IsDefault    *bool   `json:"isDefault"`
}

type addressHandler struct {
	addresses address.Service
}

func (h *addressHandler) list(c echo.Context) error {
	list, err := h.addresses.List(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, address.ToResponseList(list))
}

func (h *addressHandler) create(c echo.Context) error {
	var req addressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.addresses.Create(c.Request().Context(), address.CreateAddressInput{
		Title:        req.Title,
		Recipient:    req.Recipient,
		Phone:        req.Phone,
		City:         req.City,
		District:     req.District,
		Neighborhood: req.Neighborhood,
		Line:         req.Line,
		PostalCode:   req.PostalCode,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusCreated, address.ToResponse(a))
}

func (h *addressHandler) update(c echo.Context) error {
	var req updateAddressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a, err := h.addresses.Update(c.Request().Context(), c.Param("id"), address.UpdateAddressInput{
		Title:        req.Title,
		Recipient:    req.Recipient,
		Phone:        req.Phone,
		City:         req.City,
		District:     req.District,
		Neighborhood: req.Neighborhood,
		Line:         req.Line,
		PostalCode:   req.PostalCode,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, address.ToResponse(a))
}

func (h *addressHandler) delete(c echo.Context) error {
	if err := h.addresses.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Address removed"})
}
