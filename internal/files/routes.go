package files

import (
	"github.com/labstack/echo/v4"

	"filedepot/internal/auth"
)

// RegisterRoutes sets up the file routes. All metadata operations require a
// session; the data endpoint alone accepts anonymous callers so public files
// can be fetched without a token.
func RegisterRoutes(e *echo.Echo, h *Handler, authService auth.AuthService) {
	authed := e.Group("/files", auth.RequireAuth(authService))
	authed.POST("", h.Upload)
	authed.GET("", h.List)
	authed.GET("/:id", h.Show)
	authed.PUT("/:id/publish", h.Publish)
	authed.PUT("/:id/unpublish", h.Unpublish)

	e.GET("/files/:id/data", h.Data, auth.OptionalAuth(authService))
}
