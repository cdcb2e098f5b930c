package campgrounds

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/apperror"
	"github.com/mjholt/waypost/internal/auth"
	"github.com/mjholt/waypost/internal/flash"
	"github.com/mjholt/waypost/internal/middleware"
)

// ReviewView is the slice of review data the show page renders. Defined
// here so this package does not depend on the reviews package; the app
// wiring adapts the review service to ReviewLister.
type ReviewView struct {
	ID         string
	Body       string
	Rating     int
	AuthorID   *string
	AuthorName *string
	CreatedAt  time.Time
}

// ReviewLister supplies the reviews shown on a campground page.
type ReviewLister interface {
	ListForCampground(ctx context.Context, campgroundID string) ([]ReviewView, error)
}

// Handler serves the campground pages and processes their forms.
type Handler struct {
	service CampgroundService
	reviews ReviewLister
	flashes *flash.Store
}

// NewHandler creates a new campground handler.
func NewHandler(service CampgroundService, reviews ReviewLister, flashes *flash.Store) *Handler {
	return &Handler{
		service: service,
		reviews: reviews,
		flashes: flashes,
	}
}

// Index lists all campgrounds.
func (h *Handler) Index(c echo.Context) error {
	list, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return middleware.Render(c, http.StatusOK, IndexPage(list))
}

// Show renders one campground with its reviews. A missing campground sends
// the visitor back to the index with a flash rather than a 404 page.
func (h *Handler) Show(c echo.Context) error {
	cg, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if apperror.IsNotFound(err) {
			h.flashes.Error(c, "Cannot find that campground!")
			return c.Redirect(http.StatusSeeOther, "/campgrounds")
		}
		return err
	}

	reviews, err := h.reviews.ListForCampground(c.Request().Context(), cg.ID)
	if err != nil {
		return err
	}

	return middleware.Render(c, http.StatusOK, ShowPage(cg, reviews, viewerFrom(c)))
}

// NewForm renders the empty campground form.
func (h *Handler) NewForm(c echo.Context) error {
	return middleware.Render(c, http.StatusOK, NewPage())
}

// Create processes the new-campground form.
func (h *Handler) Create(c echo.Context) error {
	var req FormRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form submission")
	}

	price, err := strconv.ParseFloat(req.Price, 64)
	if err != nil {
		return apperror.NewValidation("price must be a non-negative number")
	}

	cg, err := h.service.Create(c.Request().Context(), CreateInput{
		Title:       req.Title,
		Location:    req.Location,
		Price:       price,
		Description: req.Description,
		Uploads:     formUploads(c),
	}, auth.GetUserID(c))
	if err != nil {
		return err
	}

	h.flashes.Success(c, "Successfully made a new campground!")
	return c.Redirect(http.StatusSeeOther, "/campgrounds/"+cg.ID)
}

// EditForm renders the edit form for the campground loaded by the
// ownership middleware.
func (h *Handler) EditForm(c echo.Context) error {
	cg := GetLoaded(c)
	if cg == nil {
		return apperror.NewInternal(nil)
	}
	return middleware.Render(c, http.StatusOK, EditPage(cg))
}

// Update processes the edit form.
func (h *Handler) Update(c echo.Context) error {
	cg := GetLoaded(c)
	if cg == nil {
		return apperror.NewInternal(nil)
	}

	var req FormRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid form submission")
	}

	price, err := strconv.ParseFloat(req.Price, 64)
	if err != nil {
		return apperror.NewValidation("price must be a non-negative number")
	}

	err = h.service.Update(c.Request().Context(), cg, UpdateInput{
		Title:        req.Title,
		Location:     req.Location,
		Price:        price,
		Description:  req.Description,
		Uploads:      formUploads(c),
		RemoveImages: formValues(c, "remove_images"),
	})
	if err != nil {
		return err
	}

	h.flashes.Success(c, "Successfully updated campground!")
	return c.Redirect(http.StatusSeeOther, "/campgrounds/"+cg.ID)
}

// Delete removes the campground loaded by the ownership middleware.
func (h *Handler) Delete(c echo.Context) error {
	cg := GetLoaded(c)
	if cg == nil {
		return apperror.NewInternal(nil)
	}

	if err := h.service.Delete(c.Request().Context(), cg.ID); err != nil {
		return err
	}

	h.flashes.Success(c, "Successfully deleted campground!")
	return c.Redirect(http.StatusSeeOther, "/campgrounds")
}

// Viewer carries the signed-in user's identity into page components for
// conditional edit/delete controls.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

func viewerFrom(c echo.Context) Viewer {
	return Viewer{
		UserID:  auth.GetUserID(c),
		IsAdmin: auth.GetIsAdmin(c),
	}
}

// formUploads returns the files submitted under the "images" field, or nil
// for non-multipart submissions.
func formUploads(c echo.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}

// formValues returns all values of a repeated form field.
func formValues(c echo.Context, name string) []string {
	values, err := c.FormParams()
	if err != nil {
		return nil
	}
	return values[name]
}
