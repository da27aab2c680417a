// Package changes computes field-level diffs and splits a proposed edit into
// the groups that are applied directly or reviewed separately.
package changes

import (
	"fmt"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// FieldReader exposes an entity's fields in canonical serialized form.
type FieldReader interface {
	FieldValue(name string) (*string, error)
}

// ChangedFields returns the subset of proposed whose values differ from the
// entity's current values.
func ChangedFields(current FieldReader, proposed domain.FieldValues) (domain.FieldValues, error) {
	out := make(domain.FieldValues, len(proposed))
	for _, k := range proposed.Keys() {
		old, err := current.FieldValue(k)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		if !domain.PtrEqual(old, proposed[k]) {
			out[k] = proposed[k]
		}
	}
	return out, nil
}

// Diff pairs every key of data with the entity's current value. The result
// always has exactly the keys of data.
func Diff(current FieldReader, data domain.FieldValues) (map[string]domain.FieldDiff, error) {
	out := make(map[string]domain.FieldDiff, len(data))
	for _, k := range data.Keys() {
		old, err := current.FieldValue(k)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		out[k] = domain.FieldDiff{Old: old, New: data[k]}
	}
	return out, nil
}
