package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// fieldValues collects repeated --set name=value flags. "name=" clears the
// field.
type fieldValues map[string]*string

var _ pflag.Value = fieldValues{}

func (f fieldValues) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := ""
		if f[k] != nil {
			v = *f[k]
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f fieldValues) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected field=value, got %q", s)
	}
	if _, dup := f[name]; dup {
		return fmt.Errorf("field %q set twice", name)
	}
	f[name] = &value
	return nil
}

func (f fieldValues) Type() string { return "field=value" }

func addFieldFlag(fs *pflag.FlagSet, values fieldValues, usage string) {
	fs.VarP(values, "set", "s", usage)
}
