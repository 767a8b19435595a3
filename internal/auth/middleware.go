package auth

import (
	"github.com/labstack/echo/v4"
)

// TokenHeader carries the session token on every protected request.
const TokenHeader = "X-Token"

// Context keys for storing the authenticated user in the Echo context.
// Other packages access them via the exported getters below.
const (
	contextKeyUser  = "auth_user"
	contextKeyToken = "auth_token"
)

// RequireAuth returns middleware that resolves the X-Token header to a User
// and injects it into the request context. Requests with a missing, expired,
// or orphaned token are rejected before the handler runs -- no protected
// operation touches any other resource for an unauthenticated caller.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(TokenHeader)

			user, err := service.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeyUser, user)
			c.Set(contextKeyToken, token)

			return next(c)
		}
	}
}

// OptionalAuth resolves the X-Token header when present and valid, but never
// rejects the request. Handlers behind it see GetUser return nil for
// anonymous callers and decide for themselves what anonymity means.
func OptionalAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(TokenHeader)
			if token != "" {
				if user, err := service.Authenticate(c.Request().Context(), token); err == nil {
					c.Set(contextKeyUser, user)
					c.Set(contextKeyToken, token)
				}
			}
			return next(c)
		}
	}
}

// GetUser retrieves the authenticated user from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// GetToken retrieves the validated session token from the Echo context.
// Returns empty string if the request is not authenticated.
func GetToken(c echo.Context) string {
	token, ok := c.Get(contextKeyToken).(string)
	if !ok {
		return ""
	}
	return token
}
