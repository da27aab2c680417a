package contract

import (
	"errors"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// ErrorKind classifies a service error for callers outside the core.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION"
	KindStateConflict ErrorKind = "STATE_CONFLICT"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindUnauthorized  ErrorKind = "UNAUTHORIZED"
	KindInternal      ErrorKind = "INTERNAL"
)

// Classify maps err onto its kind and, for validation failures, the full
// list of violated rules.
func Classify(err error) (ErrorKind, []ValidationIssue) {
	if v, ok := domain.AsValidationErrors(err); ok {
		issues := make([]ValidationIssue, 0, len(v))
		for _, e := range v {
			issues = append(issues, ValidationIssue{Field: e.Field, Message: e.Message})
		}
		return KindValidation, issues
	}
	switch {
	case errors.Is(err, domain.ErrStateConflict):
		return KindStateConflict, nil
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound, nil
	case errors.Is(err, domain.ErrUnauthorized):
		return KindUnauthorized, nil
	case errors.Is(err, domain.ErrValidation):
		return KindValidation, nil
	}
	return KindInternal, nil
}
