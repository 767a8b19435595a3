package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"filedepot/internal/middleware"
)

// RegisterRoutes sets up account and session routes. The RequireAuth
// middleware is exported separately for other packages to guard their own
// route groups.
//
// Credential endpoints are rate-limited to slow brute-force and credential
// stuffing: 10 login attempts per IP per minute, 5 registrations.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	e.POST("/users", h.Register, middleware.RateLimit(5, time.Minute))
	e.GET("/connect", h.Connect, middleware.RateLimit(10, time.Minute))

	authed := e.Group("", RequireAuth(service))
	authed.GET("/disconnect", h.Disconnect)
	authed.GET("/users/me", h.Me)
}
