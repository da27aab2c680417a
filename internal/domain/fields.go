package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical serialized form of calendar dates.
const DateLayout = "2006-01-02"

// FieldValues maps a field name to a value in canonical string form.
// A nil value clears the field.
type FieldValues map[string]*string

// FieldDiff is the before/after pair for one field, both in canonical form.
type FieldDiff struct {
	Old *string `json:"old"`
	New *string `json:"new"`
}

// Keys returns the field names in sorted order.
func (f FieldValues) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f FieldValues) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Clone returns a shallow copy; values are immutable strings so sharing pointers is safe.
func (f FieldValues) Clone() FieldValues {
	out := make(FieldValues, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func StrPtr(s string) *string {
	return &s
}

// PtrEqual reports whether two optional canonical values are the same.
func PtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonEmpty maps "" to nil so cleared text fields compare equal to missing ones.
func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func parseDate(name string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *v)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date %q (expected YYYY-MM-DD)", name, *v)
	}
	return &t, nil
}

func normalizeDate(name string, v *string) (*string, error) {
	t, err := parseDate(name, nonEmpty(v))
	if err != nil {
		return nil, err
	}
	return formatDate(t), nil
}

func formatDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(name string, v *string) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid decimal %q", name, *v)
	}
	return &d, nil
}

func normalizeDecimal(name string, v *string) (*string, error) {
	d, err := parseDecimal(name, nonEmpty(v))
	if err != nil {
		return nil, err
	}
	return formatDecimal(d), nil
}

func formatBool(b bool) *string {
	s := strconv.FormatBool(b)
	return &s
}

func parseBool(name string, v *string) (bool, error) {
	if v == nil {
		return false, nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", name, *v)
	}
	return b, nil
}

func normalizeBool(name string, v *string) (*string, error) {
	b, err := parseBool(name, nonEmpty(v))
	if err != nil {
		return nil, err
	}
	return formatBool(b), nil
}

// TodayUTC truncates t to a UTC calendar date.
func TodayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
