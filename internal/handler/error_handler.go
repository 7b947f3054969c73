package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "bookreview/internal/errors"
)

// ErrorHandler is the single place errors become responses.
// 5xx details are logged and never sent to the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := resolveError(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				slog.String("error", err.Error()),
			)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(httpErr.StatusCode)
		} else {
			sendErr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if sendErr != nil {
			logger.Error("write error response", slog.String("error", sendErr.Error()))
		}
	}
}

func resolveError(err error) *apperrors.HTTPError {
	var (
		httpErr   *apperrors.HTTPError
		echoErr   *echo.HTTPError
		validErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &validErrs):
		return apperrors.NewValidationError(fieldErrors(validErrs))
	case errors.As(err, &echoErr):
		return fromEchoError(echoErr)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.NewHTTPError(http.StatusBadRequest, "Duplicate entry", "DUPLICATE")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NewHTTPError(http.StatusNotFound, "Resource not found", "NOT_FOUND")
	default:
		return apperrors.MapErrorToHTTP(err)
	}
}

func fromEchoError(he *echo.HTTPError) *apperrors.HTTPError {
	msg, ok := he.Message.(string)
	if !ok {
		msg = fmt.Sprint(he.Message)
	}
	if he.Code >= http.StatusInternalServerError {
		msg = "Server error"
	}
	code := "HTTP_ERROR"
	switch he.Code {
	case http.StatusBadRequest:
		code = "BAD_REQUEST"
	case http.StatusUnauthorized:
		code = "UNAUTHENTICATED"
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		code = "RATE_LIMITED"
	}
	return apperrors.NewHTTPError(he.Code, msg, code)
}
