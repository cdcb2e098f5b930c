// Package pages holds the resource-independent page components: the rendered
// error page and the landing redirect target. Resource-specific pages live
// next to their handlers in the resource packages.
package pages

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mjholt/waypost/internal/templates/layouts"
)

// ErrorPage renders a full error page for the given HTTP status and
// user-safe message. Used by the application error handler for every error
// that is not translated into a flash-and-redirect.
func ErrorPage(code int, message string) templ.Component {
	title := http.StatusText(code)
	if title == "" {
		title = "Error"
	}

	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<section class="error-page">
<h1>%d %s</h1>
<p>%s</p>
<p><a href="/campgrounds">Back to campgrounds</a></p>
</section>
`, code, templ.EscapeString(title), templ.EscapeString(message))
		return nil
	})

	return layouts.Base(title, body)
}
