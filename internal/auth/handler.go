package auth

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"filedepot/internal/apperror"
)

// Handler handles HTTP requests for accounts and sessions. Handlers are
// thin: they bind the request, call the service, and render the response.
// No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates a new account (POST /users).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Connect exchanges Basic-style credentials for a session token
// (GET /connect). Credentials arrive as "Authorization: Basic
// base64(email:password)"; any malformed header is indistinguishable from
// bad credentials.
func (h *Handler) Connect(c echo.Context) error {
	email, password, ok := decodeBasicCredentials(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return apperror.NewUnauthorized()
	}

	token, err := h.service.Login(c.Request().Context(), email, password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Disconnect revokes the caller's session (GET /disconnect). The auth
// middleware has already validated the token, so the revoke acts on a
// session known to have been live moments ago.
func (h *Handler) Disconnect(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), GetToken(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's public identity (GET /users/me).
func (h *Handler) Me(c echo.Context) error {
	user := GetUser(c)
	if user == nil {
		return apperror.NewUnauthorized()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

// decodeBasicCredentials parses a "Basic base64(email:password)" header.
// The password may itself contain colons; only the first separates the pair.
func decodeBasicCredentials(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	email, password, ok = strings.Cut(string(raw), ":")
	if !ok || email == "" {
		return "", "", false
	}

	return email, password, true
}
