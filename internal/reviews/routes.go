package reviews

import (
	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/validate"
)

// RegisterRoutes mounts the review routes nested under campgrounds. Both
// operations require login; deletion is further checked in the service.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	e.POST("/campgrounds/:id/reviews", h.Create, requireAuth, validate.Form(validate.Review))
	e.DELETE("/campgrounds/:id/reviews/:reviewId", h.Delete, requireAuth)
}
