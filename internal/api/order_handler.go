package api

import (
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/order"
	"storefront-be/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type orderItemRequest struct {
	Product  int64  `json:"product"`
	Size     string `json:"size"`
	Quantity int    `json:"qty"`
}

// placeOrderRequest takes either a saved addressId or an inline
// shippingAddress. Line prices sent by the client are ignored.
type placeOrderRequest struct {
	OrderItems      []orderItemRequest `json:"orderItems"`
	AddressID       string             `json:"addressId"`
	ShippingAddress addressRequest     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderHandler struct {
	orders order.Service
}

func orderID(c echo.Context) (int64, error) {
	id, err := utils.ParseInt64(c.Param("id"))
	if err != nil {
		return 0, order.ErrOrderNotFound
	}
	return id, nil
}

func (h *orderHandler) place(c echo.Context) error {
	var req placeOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lines := make([]order.LineInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		lines = append(lines, order.LineInput{ProductID: it.Product, Size: it.Size, Quantity: it.Quantity})
	}

	sa := req.ShippingAddress
	o, err := h.orders.Place(c.Request().Context(), order.PlaceInput{
		Items:     lines,
		AddressID: req.AddressID,
		ShippingAddress: order.ShippingAddress{
			Title:        sa.Title,
			Recipient:    sa.Recipient,
			Phone:        sa.Phone,
			City:         sa.City,
			District:     sa.District,
			Neighborhood: sa.Neighborhood,
			Line:         sa.Line,
			PostalCode:   sa.PostalCode,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusCreated, order.ToResponse(o))
}

func (h *orderHandler) mine(c echo.Context) error {
	orders, err := h.orders.Mine(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, order.ToResponseList(orders))
}

func (h *orderHandler) all(c echo.Context) error {
	page, err := queryInt("page", c.QueryParam("page"))
	if err != nil {
		return err
	}
	limit, err := queryInt("limit", c.QueryParam("limit"))
	if err != nil {
		return err
	}

	filter := order.ListFilter{
		Status: order.Status(c.QueryParam("status")),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.QueryParam("user"); raw != "" {
		uid, err := utils.ToUint(raw)
		if err != nil {
			return apperror.Validation("user must be a numeric id")
		}
		filter.UserID = &uid
	}

	res, err := h.orders.All(c.Request().Context(), filter)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, order.ToListResponse(res))
}

func (h *orderHandler) get(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	o, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, order.ToResponse(o))
}

func (h *orderHandler) pay(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	o, err := h.orders.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, order.ToResponse(o))
}

func (h *orderHandler) updateStatus(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.orders.UpdateStatus(c.Request().Context(), id, order.Status(req.Status))
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, order.ToResponse(o))
}

func (h *orderHandler) delete(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Order removed"})
}
