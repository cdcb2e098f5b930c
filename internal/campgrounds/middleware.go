package campgrounds

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/auth"
	"github.com/mjholt/waypost/internal/flash"
)

// contextKeyCampground holds the campground loaded by RequireOwnership so
// the handler does not fetch it a second time.
const contextKeyCampground = "campground"

// RequireOwnership loads the campground named by the :id route param and
// verifies the signed-in user may modify it. Owners pass; admins pass for
// any campground, including author-less ones. Everyone else is flashed and
// redirected. Runs after RequireAuth, so a session is guaranteed.
func RequireOwnership(service CampgroundService, flashes *flash.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cg, err := service.Get(c.Request().Context(), c.Param("id"))
			if err != nil {
				if apperror.IsNotFound(err) {
					flashes.Error(c, "Cannot find that campground!")
					return c.Redirect(http.StatusSeeOther, "/campgrounds")
				}
				return err
			}

			userID := auth.GetUserID(c)
			if !cg.OwnedBy(userID) && !auth.GetIsAdmin(c) {
				flashes.Error(c, "You do not have permission to do that!")
				return c.Redirect(http.StatusSeeOther, "/campgrounds/"+cg.ID)
			}

			c.Set(contextKeyCampground, cg)
			return next(c)
		}
	}
}

// GetLoaded returns the campground stored by RequireOwnership, or nil.
func GetLoaded(c echo.Context) *Campground {
	cg, ok := c.Get(contextKeyCampground).(*Campground)
	if !ok {
		return nil
	}
	return cg
}
