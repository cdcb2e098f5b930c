package app

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/mjholt/waypost/internal/auth"
	"github.com/mjholt/waypost/internal/campgrounds"
	"github.com/mjholt/waypost/internal/flash"
	"github.com/mjholt/waypost/internal/media"
	appmw "github.com/mjholt/waypost/internal/middleware"
	"github.com/mjholt/waypost/internal/reviews"
	"github.com/mjholt/waypost/internal/templates/layouts"
)

// setupRoutes builds the dependency graph and mounts every route.
func (a *App) setupRoutes() {
	flashes := flash.NewStore(a.rdb)

	authService := auth.NewAuthService(auth.NewUserRepository(a.db), a.rdb, a.cfg.Auth.SessionTTL)
	authHandler := auth.NewHandler(authService, flashes, a.cfg.Auth.SessionTTL)

	mediaService := media.NewService(a.cfg.Upload.MediaPath, a.cfg.Upload.MaxSize)

	campgroundService := campgrounds.NewCampgroundService(
		campgrounds.NewCampgroundRepository(a.db), mediaService, a.cfg.Upload.MaxImages)

	reviewService := reviews.NewReviewService(reviews.NewReviewRepository(a.db))
	reviewHandler := reviews.NewHandler(reviewService, flashes)

	campgroundHandler := campgrounds.NewHandler(campgroundService,
		reviewListerAdapter{reviewService}, flashes)

	// Sessions resolve on every request; pages requiring login stack
	// RequireAuth on top.
	a.echo.Use(auth.LoadSession(authService))

	// Flashes, session identity, and the CSRF token cross from the echo
	// context into the render context here, once, for every page.
	appmw.LayoutInjector = func(c echo.Context, ctx context.Context) context.Context {
		if session := auth.GetSession(c); session != nil {
			ctx = layouts.SetIsAuthenticated(ctx, true)
			ctx = layouts.SetUserID(ctx, session.UserID)
			ctx = layouts.SetUserName(ctx, session.Name)
			ctx = layouts.SetIsAdmin(ctx, session.IsAdmin)
		}
		ctx = layouts.SetCSRFToken(ctx, appmw.GetCSRFToken(c))
		ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)

		if messages := flashes.Pop(c); len(messages) > 0 {
			converted := make([]layouts.Flash, len(messages))
			for i, m := range messages {
				converted[i] = layouts.Flash{Kind: string(m.Kind), Text: m.Text}
			}
			ctx = layouts.SetFlashes(ctx, converted)
		}
		return ctx
	}

	a.echo.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/campgrounds")
	})
	a.echo.GET("/healthz", a.healthz, appmw.RateLimit(rate.Limit(1), 5))

	a.echo.Static("/static", "static")
	a.echo.Static("/media", a.cfg.Upload.MediaPath)

	auth.RegisterRoutes(a.echo, authHandler)

	requireAuth := auth.RequireAuth(flashes)
	campgrounds.RegisterRoutes(a.echo, campgroundHandler, campgrounds.Guards{
		RequireAuth:      requireAuth,
		RequireOwnership: campgrounds.RequireOwnership(campgroundService, flashes),
	})
	reviews.RegisterRoutes(a.echo, reviewHandler, requireAuth)
}

// healthz verifies the database and Redis are reachable.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	if err := a.db.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded", "database": err.Error(),
		})
	}
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded", "redis": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// reviewListerAdapter exposes the review service through the narrow
// interface the campground show page needs.
type reviewListerAdapter struct {
	service reviews.ReviewService
}

func (a reviewListerAdapter) ListForCampground(ctx context.Context, campgroundID string) ([]campgrounds.ReviewView, error) {
	list, err := a.service.ListForCampground(ctx, campgroundID)
	if err != nil {
		return nil, err
	}

	views := make([]campgrounds.ReviewView, len(list))
	for i, r := range list {
		views[i] = campgrounds.ReviewView{
			ID:         r.ID,
			Body:       r.Body,
			Rating:     r.Rating,
			AuthorID:   r.AuthorID,
			AuthorName: r.AuthorName,
			CreatedAt:  r.CreatedAt,
		}
	}
	return views, nil
}
