// Package sanitize cleans user-submitted text before it is stored.
// Campground descriptions and review bodies are plain text: any HTML a
// visitor pastes into a form is stripped with bluemonday so nothing
// dangerous survives to render time.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every HTML element and attribute.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	textPolicy *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

// Text strips all HTML from user input and normalizes surrounding
// whitespace. bluemonday entity-escapes what it keeps, so the escaped
// entities are decoded back to plain characters; output is stored as plain
// text and escaped again at render time.
func Text(input string) string {
	if input == "" {
		return ""
	}
	cleaned := getPolicy().Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
