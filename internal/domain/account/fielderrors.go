package account

import (
	"sort"
	"strings"
)

// FieldErrors collects validation failures keyed by input field name.
// Rules append to it as they run, so a single pass over an input
// reports every broken field at once instead of stopping at the first.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Any reports whether at least one field failed.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}
