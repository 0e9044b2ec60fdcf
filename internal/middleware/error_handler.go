package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mackey55555/ceo-club-app-sub000/internal/dto"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	"go.uber.org/zap"
)

// NewHTTPError carries a machine-readable code to the error handler.
func NewHTTPError(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, dto.ErrorResponse{Code: code, Message: message})
}

func NewValidationHTTPError(details map[string]string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Details: details,
	})
}

// ErrorHandler renders every error as dto.ErrorResponse. Errors that are not
// echo.HTTPError are logged and hidden behind a generic 500.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := dto.ErrorResponse{Code: "INTERNAL_ERROR", Message: "internal server error"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case dto.ErrorResponse:
				body = m
			case string:
				body = dto.ErrorResponse{Code: codeFor(status), Message: m}
			default:
				body = dto.ErrorResponse{Code: codeFor(status), Message: http.StatusText(status)}
			}
		}

		if status >= http.StatusInternalServerError {
			log.WithContext(c.Request().Context()).Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

// codeFor turns a status into a code such as NOT_FOUND.
func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
