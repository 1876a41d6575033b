package homework

import (
	"fmt"
	"strings"
)

// MissingFieldError reports a required field that is absent.
// Keys holds the keys that were present, for diagnostics.
type MissingFieldError struct {
	Field string
	Keys  []string
}

func (e *MissingFieldError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("missing field %q (found keys: %s)", e.Field, strings.Join(e.Keys, ";"))
}

// ShapeMismatchError reports a field with an unexpected JSON type.
type ShapeMismatchError struct {
	Field string
	Want  string
	Got   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("field %q is %s, want %s", e.Field, e.Got, e.Want)
}

// UnknownStatusError reports a record whose status is missing or not a known code.
type UnknownStatusError struct {
	Name string
	Code string
}

func (e *UnknownStatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("homework %q: missing status", e.Name)
	}
	return fmt.Sprintf("homework %q: unknown status %q", e.Name, e.Code)
}
