package auth

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/mjholt/waypost/internal/templates/layouts"
)

// LoginPage renders the login form. email pre-fills the field after a failed
// attempt; errMsg, when non-empty, is shown above the form.
func LoginPage(email, errMsg string) templ.Component {
	form := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<div class="auth-card">
<h1>Login</h1>
`)
		writeFormError(w, errMsg)
		fmt.Fprintf(w, `<form method="POST" action="/login" novalidate>
<input type="hidden" name="csrf_token" value="%s">
<label for="email">Email</label>
<input type="email" id="email" name="email" value="%s" required autofocus>
<label for="password">Password</label>
<input type="password" id="password" name="password" required>
<button type="submit" class="btn btn-primary">Login</button>
</form>
<p class="auth-alt">New here? <a href="/register">Create an account</a></p>
</div>
`,
			templ.EscapeString(layouts.GetCSRFToken(ctx)),
			templ.EscapeString(email))
		return nil
	})
	return layouts.Base("Login", form)
}

// RegisterPage renders the registration form with any previously submitted
// values preserved.
func RegisterPage(email, displayName, errMsg string) templ.Component {
	form := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, `<div class="auth-card">
<h1>Register</h1>
`)
		writeFormError(w, errMsg)
		fmt.Fprintf(w, `<form method="POST" action="/register" novalidate>
<input type="hidden" name="csrf_token" value="%s">
<label for="email">Email</label>
<input type="email" id="email" name="email" value="%s" required autofocus>
<label for="display_name">Display name</label>
<input type="text" id="display_name" name="display_name" value="%s" maxlength="60" required>
<label for="password">Password</label>
<input type="password" id="password" name="password" minlength="8" required>
<label for="confirm">Confirm password</label>
<input type="password" id="confirm" name="confirm" minlength="8" required>
<button type="submit" class="btn btn-primary">Register</button>
</form>
<p class="auth-alt">Already have an account? <a href="/login">Sign in</a></p>
</div>
`,
			templ.EscapeString(layouts.GetCSRFToken(ctx)),
			templ.EscapeString(email),
			templ.EscapeString(displayName))
		return nil
	})
	return layouts.Base("Register", form)
}

// writeFormError renders an inline error box when msg is non-empty.
func writeFormError(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, `<div class="form-error" role="alert">%s</div>
`, templ.EscapeString(msg))
}
