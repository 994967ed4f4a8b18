// Package server assembles the echo instance: middleware chain, handlers
// and route table.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"bizdesk-service/internal/handler"
	mid "bizdesk-service/internal/middleware"
	"bizdesk-service/internal/session"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/config"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

// Deps is everything the server needs; main builds it.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    storage.Store
	Sessions session.Store
	Metrics  *prometheus.Metrics
}

// New returns a ready to start echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(d.Logger))
	e.Use(mid.MetricsMiddleware(d.Metrics))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     d.Config.Server.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))

	signer := session.NewSigner(d.Config.Session.Secret)

	health := handler.NewHealthHandler(d.Store)
	auth := handler.NewAuthHandler(d.Store, d.Sessions, signer, d.Metrics, handler.AuthOptions{
		CookieName:   d.Config.Session.CookieName,
		TTL:          d.Config.Session.TTL,
		SecureCookie: d.Config.Session.SecureCookie,
		AutoRegister: d.Config.Auth.AutoRegister,
	})
	products := handler.NewProductHandler(d.Store, d.Metrics)
	contacts := handler.NewContactHandler(d.Store, d.Metrics)
	orders := handler.NewOrderHandler(d.Store, d.Metrics)
	deliveries := handler.NewDeliveryHandler(d.Store, d.Metrics)
	vatRates := handler.NewVatRateHandler(d.Store, d.Metrics)
	vatTransactions := handler.NewVatTransactionHandler(d.Store, d.Metrics)

	// Routes
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.GET("/health", health.Health)

	api := e.Group("/api")
	api.GET("/health", health.Health)

	limiter := loginLimiter(d.Config.Auth)
	authAPI := api.Group("/auth")
	authAPI.POST("/register", auth.Register, limiter)
	authAPI.POST("/login", auth.Login, limiter)
	authAPI.POST("/logout", auth.Logout)

	gate := mid.AuthMiddleware(d.Sessions, signer, d.Config.Session.CookieName)
	authAPI.GET("/me", auth.Me, gate)
	authAPI.POST("/password", auth.ChangePassword, gate)

	productAPI := api.Group("/products", gate)
	productAPI.GET("", products.List)
	productAPI.POST("", products.Create)
	productAPI.GET("/low-stock", products.LowStock)
	productAPI.POST("/import", products.Import)
	productAPI.PATCH("/batch", products.BatchUpdate)
	productAPI.DELETE("/batch", products.BatchDelete)
	productAPI.GET("/:id", products.Get)
	productAPI.PATCH("/:id", products.Update)
	productAPI.DELETE("/:id", products.Delete)

	contactAPI := api.Group("/contacts", gate)
	contactAPI.GET("", contacts.List)
	contactAPI.POST("", contacts.Create)
	contactAPI.GET("/:id", contacts.Get)
	contactAPI.PATCH("/:id", contacts.Update)
	contactAPI.DELETE("/:id", contacts.Delete)

	orderAPI := api.Group("/orders", gate)
	orderAPI.GET("", orders.List)
	orderAPI.POST("", orders.Create)
	orderAPI.GET("/:id", orders.Get)
	orderAPI.PATCH("/:id", orders.Update)
	orderAPI.DELETE("/:id", orders.Delete)

	deliveryAPI := api.Group("/deliveries", gate)
	deliveryAPI.GET("", deliveries.List)
	deliveryAPI.POST("", deliveries.Create)
	deliveryAPI.GET("/:id", deliveries.Get)
	deliveryAPI.PATCH("/:id", deliveries.Update)
	deliveryAPI.DELETE("/:id", deliveries.Delete)

	vatRateAPI := api.Group("/vat-rates", gate)
	vatRateAPI.GET("", vatRates.List)
	vatRateAPI.POST("", vatRates.Create)
	vatRateAPI.GET("/active", vatRates.Active)
	vatRateAPI.GET("/:id", vatRates.Get)
	vatRateAPI.PATCH("/:id", vatRates.Update)
	vatRateAPI.DELETE("/:id", vatRates.Delete)

	vatTxAPI := api.Group("/vat-transactions", gate)
	vatTxAPI.GET("", vatTransactions.List)
	vatTxAPI.POST("", vatTransactions.Create)
	vatTxAPI.POST("/report", vatTransactions.MarkReported)
	vatTxAPI.GET("/:id", vatTransactions.Get)
	vatTxAPI.PATCH("/:id", vatTransactions.Update)
	vatTxAPI.DELETE("/:id", vatTransactions.Delete)

	api.GET("/vat-report", vatTransactions.Report, gate)

	return e
}

// loginLimiter throttles credential endpoints per client IP.
func loginLimiter(cfg config.AuthConfig) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.LoginRateLimit),
			Burst:     cfg.LoginBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "too many requests"})
		},
	})
}

// errorHandler renders errors that reach echo in the {"message"} shape
// every handler uses.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code == http.StatusInternalServerError {
		logger.FromEcho(c).Error("Unhandled error", zap.Error(err))
	}
	msg := strings.ToLower(http.StatusText(code))

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"message": msg})
}
