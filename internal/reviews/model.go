// Package reviews implements campground reviews: short rated write-ups
// attached to a campground. Creating or deleting a review also maintains
// the campground's denormalized review count, in the same transaction.
package reviews

import "time"

// Review is one user's rating and write-up for a campground. AuthorID is
// nil when the author's account was deleted. CampgroundAuthorID is joined
// in on reads so delete authorization can consider the listing's owner.
type Review struct {
	ID                 string
	CampgroundID       string
	Body               string
	Rating             int
	AuthorID           *string
	AuthorName         *string
	CampgroundAuthorID *string
	CreatedAt          time.Time
}

// FormRequest holds the review form fields, using the nested naming
// convention shared with the campground forms.
type FormRequest struct {
	Body   string `form:"review[body]"`
	Rating int    `form:"review[rating]"`
}

// CreateInput is the validated input for posting a review.
type CreateInput struct {
	CampgroundID string
	Body         string
	Rating       int
	AuthorID     string
}
