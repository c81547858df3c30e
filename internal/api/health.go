package api

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

func healthHandler(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.FromCtx(ctx).Error("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		}
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	}
}
