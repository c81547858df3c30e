package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/auth"
	"storefront-be/internal/config"
	"storefront-be/internal/logger"
	"storefront-be/internal/media"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	jsonBodyLimit   = "1M"
	uploadBodyLimit = "55M"
)

// ImageStore stores product images and serves them back.
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Get(ctx context.Context, key string) (*media.Object, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the HTTP layer needs. Metrics, Limiter and DB are
// optional.
type Deps struct {
	Config     *config.Config
	Issuer     *auth.Issuer
	Users      user.Service
	UserLookup middleware.UserLookup
	Products   product.Service
	Orders     order.Service
	Addresses  address.Service
	Images     ImageStore
	Metrics    *metrics.Metrics
	Limiter    *middleware.Limiter
	DB         Pinger
	Now        func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) production() bool {
	return d.Config != nil && d.Config.IsProduction()
}

// NewRouter builds the echo instance with every route mounted.
func NewRouter(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.production())
	e.Validator = NewValidator()

	// ---------- GLOBAL MIDDLEWARE ----------
	e.Use(echo.WrapMiddleware(logger.RequestIDMiddleware))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.AccessLog())
	e.Use(echomw.Recover())

	var origins []string
	if d.Config != nil {
		origins = d.Config.CORSOrigins
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, logger.RequestIDHeader},
		AllowCredentials: true,
	}))

	// ---------- INFRA ----------
	e.GET("/health", healthHandler(d.DB))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	if d.Images != nil {
		e.GET("/media/*", mediaHandler(d.Images))
	}

	authn := middleware.Authenticate(d.Issuer, d.UserLookup)
	admin := middleware.RequireAdmin()
	strict := limit(d.Limiter, middleware.TierStrict)
	jsonLimit := echomw.BodyLimit(jsonBodyLimit)

	api := e.Group("/api", limit(d.Limiter, middleware.TierGeneral))

	// ---------- USERS ----------
	uh := &userHandler{users: d.Users, issuer: d.Issuer, secure: d.production()}
	users := api.Group("/users", jsonLimit)
	users.POST("/register", uh.register, strict)
	users.POST("/login", uh.login, strict)
	users.POST("/logout", uh.logout)
	users.POST("/forgot-password", uh.forgotPassword, strict)
	users.POST("/reset-password/:token", uh.resetPassword, strict)

	users.GET("/profile", uh.profile, authn)
	users.PUT("/profile", uh.updateProfile, authn)
	users.GET("/favorites", uh.favorites, authn)
	users.POST("/favorites/:id", uh.toggleFavorite, authn)

	ah := &addressHandler{addresses: d.Addresses}
	users.GET("/addresses", ah.list, authn)
	users.POST("/addresses", ah.create, authn)
	users.PUT("/addresses/:id", ah.update, authn)
	users.DELETE("/addresses/:id", ah.delete, authn)

	users.GET("", uh.list, authn, admin)
	users.DELETE("/:id", uh.delete, authn, admin)

	// ---------- PRODUCTS ----------
	ph := &productHandler{products: d.Products, now: d.now}
	products := api.Group("/products", jsonLimit)
	products.GET("", ph.list)
	products.GET("/categories", ph.categories)
	products.GET("/brands", ph.brands)
	products.GET("/:id", ph.get)
	products.POST("", ph.create, authn, admin)
	products.PUT("/:id", ph.update, authn, admin)
	products.DELETE("/:id", ph.delete, authn, admin)

	// ---------- ORDERS ----------
	oh := &orderHandler{orders: d.Orders}
	orders := api.Group("/orders", jsonLimit, authn)
	orders.POST("", oh.place)
	orders.GET("/myorders", oh.mine)
	orders.GET("", oh.all, admin)
	orders.GET("/:id", oh.get)
	orders.PUT("/:id/pay", oh.pay)
	orders.PUT("/:id/status", oh.updateStatus, admin)
	orders.DELETE("/:id", oh.delete, admin)

	// ---------- PRICING ----------
	prh := &pricingHandler{now: d.now}
	api.POST("/pricing/quote", prh.quote, jsonLimit)

	// ---------- UPLOADS ----------
	if d.Images != nil {
		up := &uploadHandler{images: d.Images}
		uploads := api.Group("/upload", echomw.BodyLimit(uploadBodyLimit), authn, admin)
		uploads.POST("", up.single)
		uploads.POST("/multiple", up.multiple)
	}

	return e
}

func limit(l *middleware.Limiter, tier middleware.Tier) echo.MiddlewareFunc {
	if l == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return l.Middleware(tier)
}

type messageResponse struct {
	Message string `json:"message"`
}
