// Package validate checks submitted form bodies against explicit field
// schemas before a handler ever runs. Each schema is a plain value passed
// into the middleware constructor, so there is no shared mutable state and
// a schema can be exercised directly in tests.
//
// On failure the middleware short-circuits with a 400 whose message is
// every violated field's message joined by ", ".
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mjholt/waypost/internal/apperror"
)

// FieldKind selects which checks apply to a field's raw string value.
type FieldKind int

const (
	// KindString requires a non-empty string after trimming (when Required).
	KindString FieldKind = iota

	// KindNumber requires a parseable decimal number within [Min, Max].
	KindNumber

	// KindInt requires a parseable integer within [Min, Max].
	KindInt
)

// Field describes one form field's validation rules.
type Field struct {
	// Key is the form field name, e.g. "campground[title]".
	Key string

	// Label is the human-readable name used in violation messages.
	Label string

	Kind     FieldKind
	Required bool

	// MaxLen caps string length in bytes. Zero means no cap.
	MaxLen int

	// Min and Max bound numeric fields (inclusive). Only consulted for
	// KindNumber and KindInt.
	Min float64
	Max float64

	// Bounded marks Min/Max as meaningful; without it a zero Max would
	// reject every value.
	Bounded bool
}

// Schema is an ordered set of field rules for one form body.
type Schema struct {
	// Name identifies the schema in log output.
	Name string

	Fields []Field
}

// Campground is the schema for campground create and update submissions.
var Campground = Schema{
	Name: "campground",
	Fields: []Field{
		{Key: "campground[title]", Label: "title", Kind: KindString, Required: true, MaxLen: 200},
		{Key: "campground[location]", Label: "location", Kind: KindString, Required: true, MaxLen: 200},
		{Key: "campground[price]", Label: "price", Kind: KindNumber, Required: true, Min: 0, Max: 1_000_000, Bounded: true},
		{Key: "campground[description]", Label: "description", Kind: KindString, Required: true, MaxLen: 5000},
	},
}

// Review is the schema for review submissions.
var Review = Schema{
	Name: "review",
	Fields: []Field{
		{Key: "review[body]", Label: "body", Kind: KindString, Required: true, MaxLen: 2000},
		{Key: "review[rating]", Label: "rating", Kind: KindInt, Required: true, Min: 1, Max: 5, Bounded: true},
	},
}

// Check runs the schema against a form value getter and returns the ordered
// list of violation messages. An empty slice means the body is valid.
func Check(schema Schema, get func(key string) string) []string {
	var violations []string

	for _, f := range schema.Fields {
		value := strings.TrimSpace(get(f.Key))

		if value == "" {
			if f.Required {
				violations = append(violations, f.Label+" is required")
			}
			continue
		}

		switch f.Kind {
		case KindString:
			if f.MaxLen > 0 && len(value) > f.MaxLen {
				violations = append(violations,
					fmt.Sprintf("%s must be %d characters or less", f.Label, f.MaxLen))
			}

		case KindNumber:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				violations = append(violations, f.Label+" must be a number")
				continue
			}
			if f.Bounded && (n < f.Min || n > f.Max) {
				violations = append(violations, boundsMessage(f))
			}

		case KindInt:
			n, err := strconv.Atoi(value)
			if err != nil {
				violations = append(violations, f.Label+" must be a whole number")
				continue
			}
			if f.Bounded && (float64(n) < f.Min || float64(n) > f.Max) {
				violations = append(violations, boundsMessage(f))
			}
		}
	}

	return violations
}

// boundsMessage phrases the out-of-range violation for a bounded field.
// A zero lower bound reads as "non-negative" rather than "between 0 and N".
func boundsMessage(f Field) string {
	if f.Min == 0 {
		return f.Label + " must be a non-negative number"
	}
	return fmt.Sprintf("%s must be between %s and %s",
		f.Label, trimFloat(f.Min), trimFloat(f.Max))
}

// trimFloat renders a bound without a trailing ".000000".
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Form returns middleware that validates the request's form body against the
// given schema. Invalid submissions never reach the handler: the middleware
// returns a 400 validation error carrying all violations joined by ", ".
func Form(schema Schema) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			violations := Check(schema, c.FormValue)
			if len(violations) > 0 {
				return apperror.NewValidation(strings.Join(violations, ", "))
			}
			return next(c)
		}
	}
}
