package feature

import (
	"regexp"
	"sort"
	"strings"
)

// ValidationErrors field -> message for input rejected before any network call.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add keeps the first message per field.
func (v ValidationErrors) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v ValidationErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "Campo obligatorio")
	}
}

// err nil when nothing was rejected.
func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(s string) bool { return emailPattern.MatchString(strings.TrimSpace(s)) }
