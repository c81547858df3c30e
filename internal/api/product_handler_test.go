package api

import (
	"net/http"
	"testing"
	"time"

	"storefront-be/internal/pricing"
	"storefront-be/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discountedShirt() *product.Product {
	start := fixedNow.Add(-24 * time.Hour)
	end := fixedNow.Add(24 * time.Hour)
	return &product.Product{
		ID:        5,
		Name:      "Shirt",
		Price:     decimal.NewFromInt(200),
		SizeStock: product.SizeStock{"M": 3},
		Discount: pricing.Discount{
			Type: pricing.DiscountPercentage, Amount: decimal.NewFromInt(25),
			StartDate: &start, EndDate: &end, Active: true,
		},
	}
}

func TestProductHandler_List(t *testing.T) {
	t.Run("PassesFilters", func(t *testing.T) {
		h := newHarness(t)
		h.products.On("List", mock.Anything, mock.MatchedBy(func(o product.ListOptions) bool {
			return o.Keyword == "dress" &&
				o.Category == "women" &&
				o.Page == 2 && o.Limit == 5 &&
				o.Sort == product.SortPriceAsc &&
				o.MinPrice != nil && o.MinPrice.Equal(decimal.NewFromInt(100)) &&
				o.MaxPrice == nil
		})).Return(&product.ListResult{Items: []*product.Product{discountedShirt()}, Total: 6, Page: 2, Pages: 2}, nil)

		rec := h.do(http.MethodGet, "/api/products?keyword=dress&category=women&pageNumber=2&limit=5&sort=price_asc&minPrice=100", nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body product.ListResponse
		decode(t, rec, &body)
		assert.Equal(t, 6, body.Total)
		require.Len(t, body.Products, 1)
		assert.True(t, decimal.NewFromInt(150).Equal(body.Products[0].EffectivePrice))
		assert.Equal(t, []string{"M"}, body.Products[0].Sizes)
	})

	t.Run("BadPrice", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodGet, "/api/products?minPrice=cheap", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "minPrice must be a number", messageOf(t, rec))
	})

	t.Run("UnknownSort", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodGet, "/api/products?sort=random", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		h := newHarness(t)
		h.products.On("Get", mock.Anything, int64(5)).Return(discountedShirt(), nil)

		rec := h.do(http.MethodGet, "/api/products/5", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body product.Response
		decode(t, rec, &body)
		assert.Equal(t, int64(5), body.ID)
		assert.True(t, decimal.NewFromInt(200).Equal(body.Price))
	})

	t.Run("NonNumericID", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodGet, "/api/products/abc", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "product not found", messageOf(t, rec))
	})

	t.Run("Missing", func(t *testing.T) {
		h := newHarness(t)
		h.products.On("Get", mock.Anything, int64(99)).Return(nil, product.ErrProductNotFound)

		rec := h.do(http.MethodGet, "/api/products/99", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProductHandler_CategoriesAndBrands(t *testing.T) {
	h := newHarness(t)
	h.products.On("Categories", mock.Anything).Return([]string{"men/shirts"}, nil)
	h.products.On("Brands", mock.Anything).Return([]string{"Acme"}, nil)

	assert.JSONEq(t, `["men/shirts"]`, h.do(http.MethodGet, "/api/products/categories", nil, "").Body.String())
	assert.JSONEq(t, `["Acme"]`, h.do(http.MethodGet, "/api/products/brands", nil, "").Body.String())
}

func TestProductHandler_Create(t *testing.T) {
	body := map[string]any{
		"name":      "Shirt",
		"price":     300,
		"sizes":     []string{"S", "M"},
		"sizeStock": map[string]int{"M": 5},
	}

	t.Run("RequiresAdmin", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodPost, "/api/products", body, h.token(t, 7, false))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		h.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		h.products.On("Create", withUser(1), mock.MatchedBy(func(in product.CreateInput) bool {
			return in.Name == "Shirt" &&
				in.Price.Equal(decimal.NewFromInt(300)) &&
				in.SizeStock["M"] == 5 &&
				len(in.Sizes) == 2
		})).Return(&product.Product{ID: 11, Name: "Shirt", Price: decimal.NewFromInt(300)}, nil)

		rec := h.do(http.MethodPost, "/api/products", body, h.token(t, 1, true))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var out product.Response
		decode(t, rec, &out)
		assert.Equal(t, int64(11), out.ID)
	})

	t.Run("MissingName", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodPost, "/api/products", map[string]any{"price": 10}, h.token(t, 1, true))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name is required", messageOf(t, rec))
	})
}

func TestProductHandler_UpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, 1, true)

	h.products.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(in product.UpdateInput) bool {
		return in.Name == nil && in.Price != nil && in.Price.Equal(decimal.NewFromInt(180)) && in.SizeStock["M"] == -1
	})).Return(discountedShirt(), nil)
	h.products.On("Delete", mock.Anything, int64(5)).Return(nil)

	rec := h.do(http.MethodPut, "/api/products/5", map[string]any{"price": "180", "sizeStock": map[string]int{"M": -1}}, admin)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodDelete, "/api/products/5", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product removed"}`, rec.Body.String())

	h.products.AssertExpectations(t)
}
