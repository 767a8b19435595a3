package files

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"filedepot/internal/apperror"
	"filedepot/internal/auth"
)

// Handler handles HTTP requests for files and folders.
type Handler struct {
	service FileService
}

// NewHandler creates a new files handler with the given service.
func NewHandler(service FileService) *Handler {
	return &Handler{service: service}
}

// Upload creates a file, folder, or image (POST /files).
func (h *Handler) Upload(c echo.Context) error {
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	file, err := h.service.Upload(c.Request().Context(), auth.GetUser(c).ID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, Project(file))
}

// Show returns one file's metadata (GET /files/:id).
func (h *Handler) Show(c echo.Context) error {
	file, err := h.service.Show(c.Request().Context(), auth.GetUser(c).ID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Project(file))
}

// List returns one page of the caller's files (GET /files).
//
// An absent parentId query parameter lists everything the caller owns; a
// present one, "0" included, restricts to that parent's direct children.
// Absent and "0" are distinct filters, so presence is checked, not the value.
func (h *Handler) List(c echo.Context) error {
	var parentID *string
	if c.QueryParams().Has("parentId") {
		p := c.QueryParam("parentId")
		parentID = &p
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))

	list, err := h.service.List(c.Request().Context(), auth.GetUser(c).ID, parentID, page)
	if err != nil {
		return err
	}

	out := make([]Projection, 0, len(list))
	for i := range list {
		out = append(out, Project(&list[i]))
	}

	return c.JSON(http.StatusOK, out)
}

// Publish marks a file public (PUT /files/:id/publish).
func (h *Handler) Publish(c echo.Context) error {
	return h.setVisibility(c, true)
}

// Unpublish marks a file private (PUT /files/:id/unpublish).
func (h *Handler) Unpublish(c echo.Context) error {
	return h.setVisibility(c, false)
}

func (h *Handler) setVisibility(c echo.Context, isPublic bool) error {
	file, err := h.service.SetVisibility(c.Request().Context(), auth.GetUser(c).ID, c.Param("id"), isPublic)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Project(file))
}

// Data streams a file's content (GET /files/:id/data). Public files need no
// token, so this sits behind OptionalAuth rather than RequireAuth.
func (h *Handler) Data(c echo.Context) error {
	var userID string
	if user := auth.GetUser(c); user != nil {
		userID = user.ID
	}

	data, contentType, err := h.service.Content(c.Request().Context(), userID, c.Param("id"), c.QueryParam("size"))
	if err != nil {
		return err
	}

	return c.Blob(http.StatusOK, contentType, data)
}
