package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopnow/auth-agent/internal/api/handler"
	"github.com/shopnow/auth-agent/internal/api/middleware"
	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/service"
	"github.com/shopnow/auth-agent/internal/infrastructure/http/handlers"
)

const loginPath = "/login"

// NewRouter builds and returns the Echo instance with all routes
// registered. The session store and gate are injected, never reached
// through package state.
func NewRouter(
	store *service.SessionStore,
	gate *service.AccessGate,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("authagent"))

	// --- UI-facing auth surface ---
	authHandler := handler.NewAuthHandler(store)
	e.POST("/auth/signup", authHandler.SignUp)
	e.POST("/auth/login", authHandler.SignIn)
	e.POST("/auth/logout", authHandler.SignOut)
	e.POST("/auth/check", authHandler.CheckAuth)
	e.PATCH("/auth/role", authHandler.UpdateRole)
	e.GET("/auth/session", authHandler.Session)

	// --- Protected content behind the access gate ---
	accountHandler := handler.NewAccountHandler()
	e.GET(loginPath, accountHandler.Login)

	protected := e.Group("", middleware.Gate(gate, store, loginPath))
	protected.GET("/account", accountHandler.Account)
	protected.GET("/sell", accountHandler.Account,
		middleware.RequireRole(store, string(domain.RoleSeller), string(domain.RoleBoth)))

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
