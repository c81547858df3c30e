package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/pricing"
	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Brand       string           `json:"brand"`
	Category    string           `json:"category"`
	Images      []string         `json:"images"`
	Color       string           `json:"color"`
	Sizes       []string         `json:"sizes"`
	SizeStock   map[string]int   `json:"sizeStock"`
	Discount    pricing.Discount `json:"discount"`
}

type updateProductRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Price       *decimal.Decimal  `json:"price"`
	Brand       *string           `json:"brand"`
	Category    *string           `json:"category"`
	Images      []string          `json:"images"`
	Color       *string           `json:"color"`
	SizeStock   map[string]int    `json:"sizeStock"`
	Discount    *pricing.Discount `json:"discount"`
}

type productHandler struct {
	products product.Service
	now      func() time.Time
}

func productID(c echo.Context) (int64, error) {
	id, err := utils.ParseInt64(c.Param("id"))
	if err != nil {
		return 0, product.ErrProductNotFound
	}
	return id, nil
}

// listOptions reads the catalogue filters from the query string.
func listOptions(c echo.Context) (product.ListOptions, error) {
	opts := product.ListOptions{
		Keyword:  c.QueryParam("keyword"),
		Category: c.QueryParam("category"),
		Brand:    c.QueryParam("brand"),
		Size:     c.QueryParam("size"),
		Sort:     product.SortField(c.QueryParam("sort")),
	}

	var err error
	page := c.QueryParam("pageNumber")
	if page == "" {
		page = c.QueryParam("page")
	}
	if opts.Page, err = queryInt("page", page); err != nil {
		return opts, err
	}
	if opts.Limit, err = queryInt("limit", c.QueryParam("limit")); err != nil {
		return opts, err
	}
	if opts.MinPrice, err = queryDecimal("minPrice", c.QueryParam("minPrice")); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = queryDecimal("maxPrice", c.QueryParam("maxPrice")); err != nil {
		return opts, err
	}

	switch opts.Sort {
	case "", product.SortNewest, product.SortPriceAsc, product.SortPriceDesc, product.SortName:
	default:
		return opts, apperror.Validation("unknown sort %q", opts.Sort)
	}
	return opts, nil
}

func queryInt(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("%s must be a number", name)
	}
	return n, nil
}

func queryDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.Validation("%s must be a number", name)
	}
	return &d, nil
}

func (h *productHandler) list(c echo.Context) error {
	opts, err := listOptions(c)
	if err != nil {
		return err
	}

	res, err := h.products.List(c.Request().Context(), opts)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, product.ToListResponse(res, h.now()))
}

func (h *productHandler) get(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	p, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, product.ToResponse(p, h.now()))
}

func (h *productHandler) categories(c echo.Context) error {
	cats, err := h.products.Categories(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *productHandler) brands(c echo.Context) error {
	brands, err := h.products.Brands(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *productHandler) create(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.products.Create(c.Request().Context(), product.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Brand:       req.Brand,
		Category:    req.Category,
		Images:      req.Images,
		Color:       req.Color,
		Sizes:       req.Sizes,
		SizeStock:   req.SizeStock,
		Discount:    req.Discount,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusCreated, product.ToResponse(p, h.now()))
}

func (h *productHandler) update(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	var req updateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.products.Update(c.Request().Context(), id, product.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Brand:       req.Brand,
		Category:    req.Category,
		Images:      req.Images,
		Color:       req.Color,
		SizeStock:   req.SizeStock,
		Discount:    req.Discount,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, product.ToResponse(p, h.now()))
}

func (h *productHandler) delete(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}

	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return errors.WithStack(err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Product removed"})
}
