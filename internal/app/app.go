// Package app wires the application together: it builds every repository,
// service, and handler from the shared connections, configures the Echo
// instance, and owns the HTTP server lifecycle.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"filedepot/internal/apperror"
	"filedepot/internal/auth"
	"filedepot/internal/config"
	"filedepot/internal/files"
	"filedepot/internal/middleware"
	"filedepot/internal/queue"
	"filedepot/internal/status"
	"filedepot/internal/storage"
)

// App holds the assembled application.
type App struct {
	cfg  *config.Config
	echo *echo.Echo
}

// New builds the application from its external dependencies. All wiring
// happens here; no package constructs its own collaborators.
func New(cfg *config.Config, db *sql.DB, redisClient *redis.Client, store storage.Store) (*App, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recovery())
	e.Use(middleware.RequestLogger())
	e.Pre(bodyLimit(cfg.Storage.MaxUploadSize))

	userRepo := auth.NewUserRepository(db)
	sessions := auth.NewSessionStore(redisClient, cfg.Auth.SessionTTL)
	authService := auth.NewAuthService(userRepo, sessions)
	authHandler := auth.NewHandler(authService)

	fileRepo := files.NewFileRepository(db)
	dispatcher := queue.NewRedisQueue(redisClient)
	fileService := files.NewFileService(fileRepo, store, dispatcher, slog.Default())
	fileHandler := files.NewHandler(fileService)

	statusHandler := status.NewHandler(db, redisClient, userRepo, fileRepo)

	auth.RegisterRoutes(e, authHandler, authService)
	files.RegisterRoutes(e, fileHandler, authService)
	status.RegisterRoutes(e, statusHandler)

	return &App{cfg: cfg, echo: e}, nil
}

// Start runs the HTTP server until it fails or is shut down.
func (a *App) Start() error {
	addr := ":" + strconv.Itoa(a.cfg.Port)
	slog.Info("server listening", slog.String("addr", addr))

	if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (a *App) Echo() *echo.Echo {
	return a.echo
}

// errorHandler renders every error as the JSON error envelope. AppErrors
// keep their code and message; everything else becomes a generic 500 with
// the cause logged server-side only.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := apperror.SafeCode(err)
	message := apperror.SafeMessage(err)

	// Echo's own errors (404 on unknown route, 405) pass through with
	// their status but a normalized body.
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		message = http.StatusText(code)
	}

	if code == http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	if err := c.JSON(code, echo.Map{"error": message}); err != nil {
		slog.Error("writing error response", slog.Any("error", err))
	}
}

// bodyLimit rejects request bodies over the configured upload ceiling before
// any handler buffers them.
func bodyLimit(maxBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > maxBytes {
				return apperror.NewBadRequest("request body too large")
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			return next(c)
		}
	}
}
