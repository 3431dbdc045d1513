// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/handler"
	"github.com/skywatch/telescope-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only mints a new
	// short-lived access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke all sessions) or a
	// refresh_token body (revoke one); it does not require the JWT
	// middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("GUEST", "MEMBER", "RESEARCHER", "ADMIN"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints: the
// telescope fleet, each instrument's public schedule and the visible
// target catalog.  These routes carry no JWT or role middleware; the
// optional mw chain (the Redis response cache) wraps them.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/telescopes", p.GetTelescopes, mw...)
	e.GET("/v1/telescopes/:id/reservations", p.GetTelescopeSchedule, mw...)
	e.GET("/v1/bodies", p.GetBodies, mw...)
}
