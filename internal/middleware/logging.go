package middleware

import (
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccessLog logs every HTTP request in structured JSON. Handler errors are
// passed to the echo error handler first so the logged status is final.
func AccessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timer := metrics.StartTimer()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", res.Status),
				zap.Int64("bytes", res.Size),
				zap.Duration("duration", timer.Duration()),
				zap.String("remote_ip", c.RealIP()),
			}

			if userID, ok := utils.GetUserIDFromContext(req.Context()); ok {
				fields = append(fields, zap.Uint("user_id", userID))
			}

			log := logger.FromCtx(req.Context())
			switch {
			case res.Status >= 500:
				log.Error("HTTP Request", fields...)
			case res.Status >= 400:
				log.Warn("HTTP Request", fields...)
			default:
				log.Info("HTTP Request", fields...)
			}
			return nil
		}
	}
}
