// Package status exposes the operational endpoints: backing-store health
// and coarse record counts.
package status

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"filedepot/internal/auth"
	"filedepot/internal/database"
	"filedepot/internal/files"
)

// pingTimeout bounds each backing-store health probe.
const pingTimeout = 5 * time.Second

// Handler serves the status and stats endpoints.
type Handler struct {
	db    *sql.DB
	redis *redis.Client
	users auth.UserRepository
	files files.FileRepository
}

// NewHandler creates a status handler over the shared connections.
func NewHandler(db *sql.DB, redisClient *redis.Client, users auth.UserRepository, fileRepo files.FileRepository) *Handler {
	return &Handler{
		db:    db,
		redis: redisClient,
		users: users,
		files: fileRepo,
	}
}

// Status reports the liveness of both backing stores (GET /status).
// Responds 200 only when both are reachable; any unhealthy store degrades
// the whole response to 500 so load balancers see a single signal.
func (h *Handler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	redisOK := database.PingRedis(ctx, h.redis, pingTimeout)
	dbOK := database.Ping(ctx, h.db, pingTimeout)

	code := http.StatusOK
	if !redisOK || !dbOK {
		code = http.StatusInternalServerError
	}

	return c.JSON(code, echo.Map{
		"redis": redisOK,
		"db":    dbOK,
	})
}

// Stats reports total user and file counts (GET /stats).
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	userCount, err := h.users.Count(ctx)
	if err != nil {
		return err
	}

	fileCount, err := h.files.Count(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": userCount,
		"files": fileCount,
	})
}
