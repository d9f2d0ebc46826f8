package recipes

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrCreateFailed is the opaque failure returned when storage rejects a
	// recipe creation. The underlying cause is logged, not returned.
	ErrCreateFailed = errors.New("recipe creation failed")
	// ErrUpdateFailed wraps storage failures during an update.
	ErrUpdateFailed = errors.New("recipe update failed")
	// ErrNotFound is returned when a recipe does not exist.
	ErrNotFound = errors.New("recipe not found")

	errUnknownIngredient = errors.New("unknown ingredient")
)

// ValidationError carries one message per offending field. Field keys are
// the API field names: amount, ingredient, ingredients, cooking_time, name,
// text, image and tags.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) add(field, message string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid recipe: " + strings.Join(parts, "; ")
}
