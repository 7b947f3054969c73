package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "bookreview/internal/errors"
	"bookreview/internal/model"
	"bookreview/internal/ratelimit"
	"bookreview/internal/service"
)

const userContextKey = "user"

var errNoToken = apperrors.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied", "UNAUTHENTICATED")

// RequireAuth rejects requests without a valid, unrevoked bearer token and
// stores the resolved *model.User in the context.
func RequireAuth(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  userContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			switch {
			case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrUserNotFound):
				return apperrors.ErrInvalidToken
			case errors.As(err, &extractErr), errors.Is(err, echojwt.ErrJWTMissing):
				return errNoToken
			}
			if inner := errors.Unwrap(err); inner != nil {
				return inner
			}
			return err
		},
	})
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c echo.Context) (*model.User, error) {
	user, ok := c.Get(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, apperrors.ErrInvalidToken
	}
	return user, nil
}

// bearerToken returns the raw token of the Authorization header.
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// RateLimit throttles requests per client IP. Limiter errors let the request through.
func RateLimit(limiter *ratelimit.Limiter, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, wait, err := limiter.Allow(c.Request().Context(), c.Path()+":"+c.RealIP())
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				return next(c)
			}
			if !allowed {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return apperrors.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later", "RATE_LIMITED")
			}
			return next(c)
		}
	}
}
