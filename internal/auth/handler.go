package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/flash"
	"github.com/mjholt/waypost/internal/middleware"
)

// Handler serves the login and registration pages and processes their forms.
type Handler struct {
	service    AuthService
	flashes    *flash.Store
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, flashes *flash.Store, sessionTTL time.Duration) *Handler {
	return &Handler{
		service:    service,
		flashes:    flashes,
		sessionTTL: sessionTTL,
	}
}

// LoginForm renders the login page. Already signed-in visitors are sent home.
func (h *Handler) LoginForm(c echo.Context) error {
	if GetSession(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/campgrounds")
	}
	return middleware.Render(c, http.StatusOK, LoginPage("", ""))
}

// Login processes the login form.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form submission")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return middleware.Render(c, http.StatusBadRequest,
			LoginPage(req.Email, "Email and password are required"))
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
			slog.Info("failed login attempt", slog.String("email", req.Email))
			return middleware.Render(c, http.StatusUnauthorized,
				LoginPage(req.Email, "Invalid email or password"))
		}
		return err
	}

	SetSessionCookie(c, token, h.sessionTTL)
	h.flashes.Success(c, fmt.Sprintf("Welcome back, %s!", user.DisplayName))

	if returnTo := popReturnTo(c); returnTo != "" {
		return c.Redirect(http.StatusSeeOther, returnTo)
	}
	return c.Redirect(http.StatusSeeOther, "/campgrounds")
}

// RegisterForm renders the registration page.
func (h *Handler) RegisterForm(c echo.Context) error {
	if GetSession(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/campgrounds")
	}
	return middleware.Render(c, http.StatusOK, RegisterPage("", "", ""))
}

// Register processes the registration form and signs the new user in.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form submission")
	}

	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if msg := validateRegistration(req); msg != "" {
		return middleware.Render(c, http.StatusBadRequest,
			RegisterPage(req.Email, req.DisplayName, msg))
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusConflict {
			return middleware.Render(c, http.StatusConflict,
				RegisterPage(req.Email, req.DisplayName, appErr.Message))
		}
		return err
	}

	// Sign the new account in right away.
	token, _, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Account was created but the session could not be. Send them to
		// the login page rather than failing the whole registration.
		slog.Warn("auto-login after registration failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		h.flashes.Success(c, "Account created, please sign in")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	SetSessionCookie(c, token, h.sessionTTL)
	h.flashes.Success(c, "Welcome to Waypost!")

	return c.Redirect(http.StatusSeeOther, "/campgrounds")
}

// Logout destroys the current session and clears the cookie.
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.service.DestroySession(c.Request().Context(), cookie.Value); err != nil {
			slog.Warn("failed to destroy session", slog.Any("error", err))
		}
	}

	ClearSessionCookie(c)
	h.flashes.Success(c, "Goodbye!")

	return c.Redirect(http.StatusSeeOther, "/campgrounds")
}

// validateRegistration returns a human-readable message for the first
// problem found, or "" when the form is acceptable.
func validateRegistration(req RegisterRequest) string {
	if req.Email == "" || req.DisplayName == "" || req.Password == "" {
		return "All fields are required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "Please enter a valid email address"
	}
	if len(req.DisplayName) > 60 {
		return "Display name must be 60 characters or fewer"
	}
	if len(req.Password) < 8 {
		return "Password must be at least 8 characters"
	}
	if len(req.Password) > 128 {
		return "Password must be 128 characters or fewer"
	}
	if req.Password != req.Confirm {
		return "Passwords do not match"
	}
	return ""
}
