package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront/commerce-api/docs"
	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// Deps groups everything the router needs. OAuth and SignInLimiter are
// optional; a nil OAuth disables Google sign-in and a nil limiter disables
// sign-in throttling.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Users    ports.UserService
	Products ports.ProductService
	Orders   ports.OrderService

	OAuth         ports.OAuthExchanger
	OAuthStates   ports.OAuthStateStore
	SignInLimiter middleware.Limiter

	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger

	// MetricsRegisterer receives the HTTP metrics; the default registry
	// when nil.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	// Client IPs come from the TCP peer; forwarding headers are client
	// controlled and would let callers pick their own rate-limit key.
	e.IPExtractor = echo.ExtractIPDirect()

	reg := d.MetricsRegisterer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/metrics", "/health", "/health/ready":
				return true
			}
			return false
		},
	}))

	registerRoutes(e, d)
	return e
}

func registerRoutes(e *echo.Echo, d Deps) {
	guard := middleware.NewGuard(d.Auth)

	authHandler := handler.NewAuthHandler(d.Auth, d.OAuth, d.OAuthStates, d.Log)
	userHandler := handler.NewUserHandler(d.Users)
	productHandler := handler.NewProductHandler(d.Products)
	orderHandler := handler.NewOrderHandler(d.Orders)

	// --- Auth ---
	auth := e.Group("/auth")
	var signInChain []echo.MiddlewareFunc
	if d.SignInLimiter != nil {
		signInChain = append(signInChain, middleware.RateLimit("signin", d.SignInLimiter, d.Log))
	}
	auth.POST("/signin", authHandler.SignIn, signInChain...)
	auth.POST("/refresh", authHandler.Refresh, middleware.RefreshBearer())
	auth.POST("/signout", authHandler.SignOut, guard.Authenticated()...)
	auth.GET("/profile", authHandler.Profile, guard.Authenticated()...)
	auth.GET("/google/signin", authHandler.GoogleSignIn, guard.Require(middleware.PublicPolicy())...)
	auth.GET("/google/callback", authHandler.GoogleCallback, guard.Require(middleware.PublicPolicy())...)

	// --- Users ---
	admin := guard.Roles(domain.RoleAdmin)
	users := e.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List, admin...)
	users.GET("/:id", userHandler.Get, admin...)
	users.PATCH("/:id", userHandler.Update, admin...)
	users.PATCH("/:id/role", userHandler.ChangeRole, admin...)
	users.DELETE("/:id", userHandler.Delete, admin...)

	// --- Products ---
	catalogEditors := guard.Roles(domain.RoleAdmin, domain.RoleEditor)
	products := e.Group("/products")
	products.POST("", productHandler.Create, catalogEditors...)
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.PATCH("/:id", productHandler.Update, catalogEditors...)
	products.DELETE("/:id", productHandler.Delete, catalogEditors...)

	// --- Orders ---
	orders := e.Group("/orders")
	orders.POST("", orderHandler.Place, guard.Authenticated()...)
	orders.GET("", orderHandler.List, guard.Authenticated()...)
	orders.GET("/:id", orderHandler.Get, guard.Authenticated()...)
	orders.PATCH("/:id/status", orderHandler.UpdateStatus, admin...)
	orders.DELETE("/:id", orderHandler.Delete, admin...)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
