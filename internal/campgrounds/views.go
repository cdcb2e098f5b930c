package campgrounds

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/mjholt/waypost/internal/templates/layouts"
)

// IndexPage renders the campground listing grid.
func IndexPage(list []*Campground) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<div class="page-head">
<h1>All Campgrounds</h1>
</div>
`)

		if len(list) == 0 {
			io.WriteString(w, `<p class="empty-state">No campgrounds yet. Be the first to add one!</p>
`)
			return nil
		}

		io.WriteString(w, `<div class="card-grid">
`)
		for _, cg := range list {
			fmt.Fprintf(w, `<a class="card" href="/campgrounds/%s">
`, templ.EscapeString(cg.ID))
			if thumb := cg.CoverThumb(); thumb != "" {
				fmt.Fprintf(w, `<img src="/media/%s" alt="%s">
`, templ.EscapeString(thumb), templ.EscapeString(cg.Title))
			} else {
				io.WriteString(w, `<div class="card-placeholder"></div>
`)
			}
			fmt.Fprintf(w, `<div class="card-body">
<h2>%s</h2>
<p class="card-location">%s</p>
<p class="card-price">%s / night</p>
<p class="card-reviews">%s</p>
</div>
</a>
`,
				templ.EscapeString(cg.Title),
				templ.EscapeString(cg.Location),
				formatPrice(cg.Price),
				reviewCountLabel(cg.ReviewCount))
		}
		io.WriteString(w, "</div>\n")
		return nil
	})
	return layouts.Base("All Campgrounds", body)
}

// ShowPage renders one campground, its photo gallery, and its reviews.
func ShowPage(cg *Campground, reviews []ReviewView, viewer Viewer) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		csrf := templ.EscapeString(layouts.GetCSRFToken(ctx))

		fmt.Fprintf(w, `<article class="campground">
<div class="page-head">
<h1>%s</h1>
`, templ.EscapeString(cg.Title))

		if cg.OwnedBy(viewer.UserID) || viewer.IsAdmin {
			fmt.Fprintf(w, `<div class="actions">
<a class="btn" href="/campgrounds/%s/edit">Edit</a>
<form method="POST" action="/campgrounds/%s">
<input type="hidden" name="_method" value="DELETE">
<input type="hidden" name="csrf_token" value="%s">
<button type="submit" class="btn btn-danger">Delete</button>
</form>
</div>
`, templ.EscapeString(cg.ID), templ.EscapeString(cg.ID), csrf)
		}
		io.WriteString(w, "</div>\n")

		if len(cg.Images) > 0 {
			io.WriteString(w, `<div class="gallery">
`)
			for _, img := range cg.Images {
				fmt.Fprintf(w, `<a href="/media/%s"><img src="/media/%s" alt=""></a>
`, templ.EscapeString(img.Filename), templ.EscapeString(img.ThumbFilename))
			}
			io.WriteString(w, "</div>\n")
		}

		fmt.Fprintf(w, `<p class="campground-location">%s</p>
<p class="campground-price">%s / night</p>
<p class="campground-author">Submitted by %s</p>
<p class="campground-description">%s</p>
`,
			templ.EscapeString(cg.Location),
			formatPrice(cg.Price),
			templ.EscapeString(authorLabel(cg.AuthorName)),
			templ.EscapeString(cg.Description))

		io.WriteString(w, "</article>\n")

		if err := reviewSection(ctx, w, cg, reviews, viewer, csrf); err != nil {
			return err
		}
		return nil
	})
	return layouts.Base(cg.Title, body)
}

// reviewSection writes the review form and the review list.
func reviewSection(ctx context.Context, w io.Writer, cg *Campground, reviews []ReviewView, viewer Viewer, csrf string) error {
	fmt.Fprintf(w, `<section class="reviews">
<h2>%s</h2>
`, reviewCountLabel(cg.ReviewCount))

	if layouts.IsAuthenticated(ctx) {
		fmt.Fprintf(w, `<form class="review-form" method="POST" action="/campgrounds/%s/reviews">
<input type="hidden" name="csrf_token" value="%s">
<label for="rating">Rating</label>
<select id="rating" name="review[rating]">
`, templ.EscapeString(cg.ID), csrf)
		for rating := 5; rating >= 1; rating-- {
			fmt.Fprintf(w, `<option value="%d">%d %s</option>
`, rating, rating, plural(rating, "star", "stars"))
		}
		io.WriteString(w, `</select>
<label for="body">Review</label>
<textarea id="body" name="review[body]" rows="3" required></textarea>
<button type="submit" class="btn btn-primary">Submit Review</button>
</form>
`)
	} else {
		io.WriteString(w, `<p><a href="/login">Sign in</a> to leave a review.</p>
`)
	}

	for _, review := range reviews {
		fmt.Fprintf(w, `<div class="review">
<div class="review-head">
<span class="review-rating">%s</span>
<span class="review-author">%s</span>
</div>
<p class="review-body">%s</p>
`,
			strings.Repeat("&#9733;", review.Rating)+strings.Repeat("&#9734;", 5-review.Rating),
			templ.EscapeString(authorLabel(review.AuthorName)),
			templ.EscapeString(review.Body))

		if canDeleteReview(review, cg, viewer) {
			fmt.Fprintf(w, `<form method="POST" action="/campgrounds/%s/reviews/%s">
<input type="hidden" name="_method" value="DELETE">
<input type="hidden" name="csrf_token" value="%s">
<button type="submit" class="btn btn-danger btn-small">Delete</button>
</form>
`, templ.EscapeString(cg.ID), templ.EscapeString(review.ID), csrf)
		}
		io.WriteString(w, "</div>\n")
	}

	io.WriteString(w, "</section>\n")
	return nil
}

// canDeleteReview mirrors the server-side delete authorization so the
// button only shows when the action would succeed.
func canDeleteReview(review ReviewView, cg *Campground, viewer Viewer) bool {
	if viewer.UserID == "" {
		return false
	}
	if viewer.IsAdmin {
		return true
	}
	if review.AuthorID != nil && *review.AuthorID == viewer.UserID {
		return true
	}
	return cg.OwnedBy(viewer.UserID)
}

// NewPage renders the empty campground form.
func NewPage() templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<h1>New Campground</h1>
`)
		return campgroundForm(ctx, w, "/campgrounds", "", nil, "Create Campground")
	})
	return layouts.Base("New Campground", body)
}

// EditPage renders the edit form pre-filled with the campground's values.
func EditPage(cg *Campground) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<h1>Edit %s</h1>
`, templ.EscapeString(cg.Title))
		return campgroundForm(ctx, w, "/campgrounds/"+cg.ID, "PATCH", cg, "Save Changes")
	})
	return layouts.Base("Edit Campground", body)
}

// campgroundForm writes the shared create/edit form. cg is nil for create.
func campgroundForm(ctx context.Context, w io.Writer, action, methodOverride string, cg *Campground, submitLabel string) error {
	var title, location, price, description string
	if cg != nil {
		title = cg.Title
		location = cg.Location
		price = formatPriceValue(cg.Price)
		description = cg.Description
	}

	fmt.Fprintf(w, `<form class="campground-form" method="POST" action="%s" enctype="multipart/form-data" novalidate>
`, templ.EscapeString(action))
	if methodOverride != "" {
		fmt.Fprintf(w, `<input type="hidden" name="_method" value="%s">
`, templ.EscapeString(methodOverride))
	}
	fmt.Fprintf(w, `<input type="hidden" name="csrf_token" value="%s">
<label for="title">Title</label>
<input type="text" id="title" name="campground[title]" value="%s" required>
<label for="location">Location</label>
<input type="text" id="location" name="campground[location]" value="%s" required>
<label for="price">Price per night</label>
<input type="number" id="price" name="campground[price]" value="%s" min="0" step="0.01" required>
<label for="description">Description</label>
<textarea id="description" name="campground[description]" rows="5" required>%s</textarea>
<label for="images">Add photos</label>
<input type="file" id="images" name="images" accept="image/*" multiple>
`,
		templ.EscapeString(layouts.GetCSRFToken(ctx)),
		templ.EscapeString(title),
		templ.EscapeString(location),
		templ.EscapeString(price),
		templ.EscapeString(description))

	if cg != nil && len(cg.Images) > 0 {
		io.WriteString(w, `<fieldset class="image-manager">
<legend>Current photos</legend>
`)
		for _, img := range cg.Images {
			fmt.Fprintf(w, `<label class="image-remove">
<img src="/media/%s" alt="">
<input type="checkbox" name="remove_images" value="%s"> Remove
</label>
`, templ.EscapeString(img.ThumbFilename), templ.EscapeString(img.ID))
		}
		io.WriteString(w, "</fieldset>\n")
	}

	fmt.Fprintf(w, `<button type="submit" class="btn btn-primary">%s</button>
</form>
`, templ.EscapeString(submitLabel))
	return nil
}

func formatPrice(price float64) string {
	return "$" + formatPriceValue(price)
}

func formatPriceValue(price float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", price), "0"), ".")
}

func reviewCountLabel(count int) string {
	if count == 0 {
		return "No reviews yet"
	}
	return fmt.Sprintf("%d %s", count, plural(count, "review", "reviews"))
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

func authorLabel(name *string) string {
	if name == nil || *name == "" {
		return "a former member"
	}
	return *name
}
