package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arelunainstituto/financeerp/internal/api/http/handlers"
	"github.com/arelunainstituto/financeerp/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything under the protected group
// passes the auth middleware before any handler runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/verify", cfg.Auth.Verify)
	protected.Get("/me", cfg.Auth.Me)
}
