package auth

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/mjholt/waypost/internal/middleware"
)

// RegisterRoutes mounts the authentication routes. Login and registration
// POSTs are rate limited per IP to slow credential stuffing.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(rate.Limit(10.0/60.0), 10))

	e.GET("/register", h.RegisterForm)
	e.POST("/register", h.Register, middleware.RateLimit(rate.Limit(5.0/60.0), 5))

	e.POST("/logout", h.Logout)
}
