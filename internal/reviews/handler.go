package reviews

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/auth"
	"github.com/mjholt/waypost/internal/flash"
)

// Handler processes the review forms posted from campground pages.
type Handler struct {
	service ReviewService
	flashes *flash.Store
}

// NewHandler creates a new review handler.
func NewHandler(service ReviewService, flashes *flash.Store) *Handler {
	return &Handler{service: service, flashes: flashes}
}

// Create posts a review to the campground in the route. Success and the
// campground-gone case both land back on a campground page with a flash.
func (h *Handler) Create(c echo.Context) error {
	var req FormRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form submission")
	}

	campgroundID := c.Param("id")

	_, err := h.service.Create(c.Request().Context(), CreateInput{
		CampgroundID: campgroundID,
		Body:         req.Body,
		Rating:       req.Rating,
		AuthorID:     auth.GetUserID(c),
	})
	if err != nil {
		if apperror.IsNotFound(err) {
			h.flashes.Error(c, "Cannot find that campground!")
			return c.Redirect(http.StatusSeeOther, "/campgrounds")
		}
		return err
	}

	h.flashes.Success(c, "Created new review!")
	return c.Redirect(http.StatusSeeOther, "/campgrounds/"+campgroundID)
}

// Delete removes a review. Authorization lives in the service; here we
// translate its verdicts into flashes and redirects.
func (h *Handler) Delete(c echo.Context) error {
	campgroundID := c.Param("id")

	err := h.service.Delete(c.Request().Context(),
		c.Param("reviewId"), campgroundID, auth.GetUserID(c), auth.GetIsAdmin(c))
	if err != nil {
		var appErr *apperror.AppError
		switch {
		case apperror.IsNotFound(err):
			h.flashes.Error(c, "Cannot find that review!")
		case errors.As(err, &appErr) && appErr.Code == http.StatusForbidden:
			h.flashes.Error(c, "You do not have permission to do that!")
		default:
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/campgrounds/"+campgroundID)
	}

	h.flashes.Success(c, "Successfully deleted review!")
	return c.Redirect(http.StatusSeeOther, "/campgrounds/"+campgroundID)
}
