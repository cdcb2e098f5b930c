package campgrounds

import (
	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/validate"
)

// Guards bundles the middleware a resource's routes depend on, so route
// registration stays declarative and the middlewares stay swappable in
// tests.
type Guards struct {
	RequireAuth      echo.MiddlewareFunc
	RequireOwnership echo.MiddlewareFunc
}

// RegisterRoutes mounts the campground routes. Reads are public; writes
// require login, and edits additionally require ownership.
func RegisterRoutes(e *echo.Echo, h *Handler, g Guards) {
	e.GET("/campgrounds", h.Index)
	e.GET("/campgrounds/new", h.NewForm, g.RequireAuth)
	e.POST("/campgrounds", h.Create, g.RequireAuth, validate.Form(validate.Campground))
	e.GET("/campgrounds/:id", h.Show)
	e.GET("/campgrounds/:id/edit", h.EditForm, g.RequireAuth, g.RequireOwnership)
	e.PATCH("/campgrounds/:id", h.Update, g.RequireAuth, g.RequireOwnership, validate.Form(validate.Campground))
	e.DELETE("/campgrounds/:id", h.Delete, g.RequireAuth, g.RequireOwnership)
}
