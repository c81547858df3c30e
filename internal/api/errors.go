package api

import (
	"fmt"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// NewHTTPErrorHandler renders every error as {"message"}. Outside production
// the %+v rendering of the error is added as "stack".
func NewHTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err, production)

		if status >= http.StatusInternalServerError {
			logger.FromCtx(c.Request().Context()).Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		body := errorResponse{Message: message}
		if !production {
			body.Stack = fmt.Sprintf("%+v", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.FromCtx(c.Request().Context()).Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error, production bool) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}

	var ae *apperror.Error
	if errors.As(err, &ae) {
		status := ae.Kind.HTTPStatus()
		if production && status >= http.StatusInternalServerError {
			return status, ae.Message
		}
		return status, err.Error()
	}

	if production {
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
	return http.StatusInternalServerError, err.Error()
}
