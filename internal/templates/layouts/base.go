// Package layouts holds the shared page shell and the context plumbing that
// feeds it. Page components are hand-built on templ's runtime Component
// interface: each is a function returning a templ.Component that writes
// escaped HTML, composed inside Base for the full document.
package layouts

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Base wraps a page body in the full HTML document: head, navbar, flash
// banners, and footer. Session state, CSRF token, and flashes are read from
// the context populated by the layout injector.
func Base(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s | Waypost</title>
<link rel="stylesheet" href="/static/styles.css">
</head>
<body>
`, templ.EscapeString(title))

		if err := navbar(ctx, w); err != nil {
			return err
		}
		if err := flashBanners(ctx, w); err != nil {
			return err
		}

		io.WriteString(w, `<main class="container">`+"\n")
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		io.WriteString(w, "</main>\n")

		io.WriteString(w, `<footer class="footer"><span>&copy; Waypost</span></footer>
</body>
</html>
`)
		return nil
	})
}

// navbar writes the site navigation. Links vary with authentication state.
func navbar(ctx context.Context, w io.Writer) error {
	io.WriteString(w, `<nav class="navbar">
<a class="brand" href="/campgrounds">Waypost</a>
<div class="nav-links">
<a href="/campgrounds"`+activeAttr(ctx, "/campgrounds")+`>Campgrounds</a>
`)

	if IsAuthenticated(ctx) {
		fmt.Fprintf(w, `<a href="/campgrounds/new"%s>New Campground</a>
<span class="nav-user">%s</span>
<form class="nav-form" method="POST" action="/logout">
<input type="hidden" name="csrf_token" value="%s">
<button type="submit" class="link-button">Log Out</button>
</form>
`,
			activeAttr(ctx, "/campgrounds/new"),
			templ.EscapeString(GetUserName(ctx)),
			templ.EscapeString(GetCSRFToken(ctx)))
	} else {
		fmt.Fprintf(w, `<a href="/login"%s>Login</a>
<a href="/register"%s>Register</a>
`,
			activeAttr(ctx, "/login"),
			activeAttr(ctx, "/register"))
	}

	io.WriteString(w, "</div>\n</nav>\n")
	return nil
}

// flashBanners writes one banner per pending flash message.
func flashBanners(ctx context.Context, w io.Writer) error {
	for _, f := range GetFlashes(ctx) {
		kind := "success"
		if f.Kind == "error" {
			kind = "error"
		}
		fmt.Fprintf(w, `<div class="flash flash-%s" role="alert">%s</div>
`, kind, templ.EscapeString(f.Text))
	}
	return nil
}

// activeAttr marks the current nav link for styling.
func activeAttr(ctx context.Context, path string) string {
	if GetActivePath(ctx) == path {
		return ` class="active"`
	}
	return ""
}
