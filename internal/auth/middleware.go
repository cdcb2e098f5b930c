package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/flash"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "waypost_session"

// ReturnToCookieName holds the path a visitor tried to reach before being
// sent to the login page, so they can be redirected back afterwards.
const ReturnToCookieName = "waypost_return_to"

// Echo context keys populated by the session middlewares.
const (
	contextKeySession = "session"
	contextKeyUserID  = "user_id"
	contextKeyIsAdmin = "is_admin"
)

// LoadSession resolves the session cookie on every request and, when valid,
// stores the session in the echo context. It never rejects a request; pages
// that require login use RequireAuth on top of it.
func LoadSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), cookie.Value)
			if err != nil {
				// Stale or invalid token. Clear the cookie and continue
				// as an anonymous visitor.
				ClearSessionCookie(c)
				return next(c)
			}

			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)
			c.Set(contextKeyIsAdmin, session.IsAdmin)

			return next(c)
		}
	}
}

// RequireAuth rejects requests without a valid session. Browsers get a flash
// message and a redirect to the login page; the path they were after is
// remembered so login can send them back.
func RequireAuth(flashes *flash.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetSession(c) != nil {
				return next(c)
			}

			flashes.Error(c, "You must be signed in first")

			if c.Request().Method == http.MethodGet {
				setReturnToCookie(c, c.Request().RequestURI)
			}

			return c.Redirect(http.StatusSeeOther, "/login")
		}
	}
}

// GetSession returns the session stored by LoadSession, or nil for
// anonymous requests.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID returns the authenticated user's ID, or "" for anonymous requests.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetIsAdmin reports whether the authenticated user is an administrator.
func GetIsAdmin(c echo.Context) bool {
	isAdmin, ok := c.Get(contextKeyIsAdmin).(bool)
	return ok && isAdmin
}

// SetSessionCookie writes the session token cookie with the given lifetime.
func SetSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// setReturnToCookie remembers where an anonymous visitor was headed.
func setReturnToCookie(c echo.Context, path string) {
	c.SetCookie(&http.Cookie{
		Name:     ReturnToCookieName,
		Value:    path,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// popReturnTo reads and clears the return-to cookie, returning the saved
// path or "" if none was set. Only same-site paths are honored.
func popReturnTo(c echo.Context) string {
	cookie, err := c.Cookie(ReturnToCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	c.SetCookie(&http.Cookie{
		Name:     ReturnToCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	path := cookie.Value
	if len(path) == 0 || path[0] != '/' || (len(path) > 1 && path[1] == '/') {
		return ""
	}
	return path
}
