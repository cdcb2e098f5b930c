// Package campgrounds implements the core resource of Waypost: campground
// listings with photos, pricing, and attached reviews. It follows the
// model / repository / service / handler layering used across the app.
package campgrounds

import (
	"mime/multipart"
	"time"
)

// Campground is a listed campground. AuthorID and AuthorName are nil for
// listings whose account was deleted; those are maintained by admins.
type Campground struct {
	ID          string
	Title       string
	Location    string
	Price       float64
	Description string
	AuthorID    *string
	AuthorName  *string
	ReviewCount int
	Images      []Image
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Image is a stored photo attached to a campground. Filenames are relative
// paths under the media root, served at /media/<Filename>.
type Image struct {
	ID            string
	CampgroundID  string
	Filename      string
	ThumbFilename string
	Position      int
}

// CoverThumb returns the thumbnail of the first image, or "" when the
// campground has no photos yet.
func (c *Campground) CoverThumb() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0].ThumbFilename
}

// OwnedBy reports whether userID is the campground's author. Author-less
// campgrounds are owned by nobody.
func (c *Campground) OwnedBy(userID string) bool {
	return c.AuthorID != nil && *c.AuthorID == userID
}

// --- Request DTOs ---

// FormRequest holds the scalar fields of the campground create/edit form.
// Field names follow the nested naming convention used in the templates.
type FormRequest struct {
	Title       string `form:"campground[title]"`
	Location    string `form:"campground[location]"`
	Price       string `form:"campground[price]"`
	Description string `form:"campground[description]"`
}

// --- Service input DTOs ---

// CreateInput is the validated input for creating a campground.
type CreateInput struct {
	Title       string
	Location    string
	Price       float64
	Description string
	Uploads     []*multipart.FileHeader
}

// UpdateInput is the validated input for editing a campground. RemoveImages
// lists image IDs the author checked for deletion.
type UpdateInput struct {
	Title        string
	Location     string
	Price        float64
	Description  string
	Uploads      []*multipart.FileHeader
	RemoveImages []string
}
