package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookreview/internal/config"
	"bookreview/internal/handler"
	"bookreview/internal/metrics"
	"bookreview/internal/ratelimit"
	"bookreview/internal/service"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Config        *config.Config
	Logger        *slog.Logger
	AuthService   service.AuthService
	UserService   service.UserService
	BookService   service.BookService
	ReviewService service.ReviewService
	AuthLimiter   *ratelimit.Limiter
	Registry      *prometheus.Registry
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins(d.Config.ClientURL),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if d.Registry != nil {
		e.Use(metrics.New(d.Registry).Middleware())
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService)
	bookHandler := handler.NewBookHandler(d.BookService)
	reviewHandler := handler.NewReviewHandler(d.ReviewService)

	requireAuth := handler.RequireAuth(d.AuthService)
	throttle := handler.RateLimit(d.AuthLimiter, logger)

	api := e.Group("/api")

	api.GET("/health", handler.Health)

	// Auth routes
	api.POST("/auth/signup", authHandler.Signup, throttle)
	api.POST("/auth/login", authHandler.Login, throttle)
	api.GET("/auth/profile", userHandler.GetProfile, requireAuth)
	api.POST("/auth/logout", authHandler.Logout, requireAuth)

	// Book routes
	api.GET("/books", bookHandler.ListBooks)
	api.GET("/books/:id", bookHandler.GetBook)
	api.POST("/books", bookHandler.CreateBook, requireAuth)
	api.PUT("/books/:id", bookHandler.UpdateBook, requireAuth)
	api.DELETE("/books/:id", bookHandler.DeleteBook, requireAuth)

	// Review routes
	reviews := api.Group("/reviews", requireAuth)
	reviews.POST("", reviewHandler.CreateReview)
	reviews.POST("/:bookId", reviewHandler.CreateReviewForBook)
	reviews.PUT("/:id", reviewHandler.UpdateReview)
	reviews.DELETE("/:id", reviewHandler.DeleteReview)
}

func allowedOrigins(clientURL string) []string {
	var origins []string
	for _, o := range strings.Split(clientURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	})
}
