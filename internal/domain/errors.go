package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("state conflict")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrReconciliationRace marks a uniqueness violation hit while creating
	// procurement trackers or actions. It never reaches callers of the review flow.
	ErrReconciliationRace = errors.New("reconciliation race")
)

// ValidationError is one violated rule. Field names the offending field or,
// for rules spanning several fields, the schema-level key.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every violated rule of a single operation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Fields returns the distinct field names in the order they were reported.
func (v ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(v))
	var out []string
	for _, e := range v {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	return out
}

// Has reports whether any error names the given field.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// AsValidationErrors extracts the rule list from err, if it carries one.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// StateConflict builds an ErrStateConflict with a terse, caller-safe reason.
func StateConflict(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrStateConflict)
}

// Unauthorized builds an ErrUnauthorized with a terse, caller-safe reason.
func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}
