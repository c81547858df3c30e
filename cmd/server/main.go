package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/api"
	"storefront-be/internal/auth"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/mail"
	"storefront-be/internal/media"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("environment variables not loaded properly: %w", err)
	}

	logger.Configure(logger.Options{Env: cfg.AppEnv, File: cfg.LogFile, MaxSizeMB: cfg.LogMaxSizeMB})
	defer logger.Sync()

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	e, cleanup, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.L().Info("server starting",
		zap.String("port", cfg.AppPort),
		zap.String("env", cfg.AppEnv),
	)
	return startServerFunc(ctx, ":"+cfg.AppPort, e)
}

// newServer wires repositories, services and the router. The returned func
// releases the media bucket.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (*echo.Echo, func(), error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, nil, err
	}

	images, err := media.Open(ctx, cfg.MediaBucketURL, cfg.MediaPublicURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open media bucket: %w", err)
	}

	m := metrics.New(nil)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo)

	userRepo := user.NewRepository(database)
	mailer := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	userSvc := user.NewService(userRepo, productRepo, mailer, user.ResetOptions{
		Secret:      cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
	})

	addressRepo := address.NewRepository(database)
	addressSvc := address.NewService(addressRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, productRepo, addressSvc, order.ShippingPolicy{
		Fee:           cfg.ShippingFee,
		FreeThreshold: cfg.FreeShippingThreshold,
	}, m)

	e := api.NewRouter(&api.Deps{
		Config:     cfg,
		Issuer:     issuer,
		Users:      userSvc,
		UserLookup: userRepo,
		Products:   productSvc,
		Orders:     orderSvc,
		Addresses:  addressSvc,
		Images:     images,
		Metrics:    m,
		Limiter:    middleware.NewLimiter(ctx),
		DB:         database,
	})

	cleanup := func() {
		if err := images.Close(); err != nil {
			logger.L().Warn("failed to close media bucket", zap.Error(err))
		}
	}
	return e, cleanup, nil
}

// startServer serves until ctx is cancelled, then drains in-flight requests.
func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
