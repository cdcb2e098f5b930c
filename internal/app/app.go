// Package app assembles the Waypost HTTP application: middleware stack,
// dependency wiring, route registration, and the server lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/config"
	appmw "github.com/mjholt/waypost/internal/middleware"
	"github.com/mjholt/waypost/internal/templates/pages"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 15 * time.Second

// App is the assembled application.
type App struct {
	echo *echo.Echo
	cfg  *config.Config
	db   *sql.DB
	rdb  *redis.Client
}

// New builds the application: echo instance, middleware stack, and all
// resource wiring.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.IsDevelopment()
	e.HTTPErrorHandler = errorHandler

	a := &App{echo: e, cfg: cfg, db: db, rdb: rdb}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware installs the global middleware stack. Order matters:
// recovery outermost, then logging, then the security layers.
func (a *App) setupMiddleware() {
	// Browsers only speak GET and POST; forms carry the real verb in a
	// hidden _method field. Rewritten before routing.
	a.echo.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))

	a.echo.Use(appmw.Recovery())
	a.echo.Use(appmw.RequestLogger())
	a.echo.Use(appmw.SecurityHeaders())
	a.echo.Use(appmw.CSRF())

	appmw.TrustedProxies(a.echo, a.cfg.TrustedProxies)
}

// Start runs the HTTP server until the context is canceled, then shuts
// down gracefully.
func (a *App) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.String("addr", addr))
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// errorHandler translates errors into rendered pages. AppErrors use their
// own message; anything else becomes a generic 500. Unauthorized browsers
// are sent to the login page instead of an error page.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again."

	var appErr *apperror.AppError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		if appErr.Internal != nil {
			slog.Error("request failed",
				slog.String("path", c.Request().URL.Path),
				slog.String("type", appErr.Type),
				slog.Any("error", appErr.Internal),
			)
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
		if code == http.StatusNotFound {
			message = "Page not found"
		}
	default:
		slog.Error("unhandled error",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
	}

	if code == http.StatusUnauthorized {
		if redirectErr := c.Redirect(http.StatusSeeOther, "/login"); redirectErr != nil {
			slog.Error("failed to redirect unauthorized request", slog.Any("error", redirectErr))
		}
		return
	}

	if renderErr := appmw.Render(c, code, pages.ErrorPage(code, message)); renderErr != nil {
		slog.Error("failed to render error page", slog.Any("error", renderErr))
	}
}
