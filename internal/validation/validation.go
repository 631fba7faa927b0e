// Package validation checks decoded JSON payloads against declarative per-field
// rules before any side effect runs, and normalizes them once they pass.
package validation

import (
	"fmt"
	"math"
	"net/mail"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dioscarr/Topapi/internal/apperr"
)

// Violation names a field and the rule it broke.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Violations []Violation

// Err returns nil for an empty list, otherwise a ValidationFailed error carrying the list.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return apperr.ValidationFailed(v)
}

// Rule checks a present, non-null value. It returns the rule name and a message on failure.
type Rule func(value any) (rule, msg string, ok bool)

type Field struct {
	Name     string
	Required bool
	Rules    []Rule
}

// Schema is an ordered set of field rules. Strict schemas reject fields they do not declare.
type Schema struct {
	Fields []Field
	Strict bool
}

func Required(name string, rules ...Rule) Field {
	return Field{Name: name, Required: true, Rules: rules}
}

func Optional(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// Validate never mutates input. A JSON null counts as absent.
func (s Schema) Validate(input map[string]any) Violations {
	var out Violations
	known := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = struct{}{}
		val, present := input[f.Name]
		if !present || val == nil {
			if f.Required {
				out = append(out, Violation{Field: f.Name, Rule: "required", Message: f.Name + " is required"})
			}
			continue
		}
		for _, rule := range f.Rules {
			name, msg, ok := rule(val)
			if !ok {
				out = append(out, Violation{Field: f.Name, Rule: name, Message: f.Name + " " + msg})
				// later rules usually assume the type check passed
				break
			}
		}
	}
	if s.Strict {
		var unknown []string
		for k := range input {
			if _, ok := known[k]; !ok {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			out = append(out, Violation{Field: k, Rule: "unknown", Message: k + " is not allowed"})
		}
	}
	return out
}

// HasAny reports whether input sets at least one of the schema's fields.
func (s Schema) HasAny(input map[string]any) bool {
	for _, f := range s.Fields {
		if _, ok := input[f.Name]; ok {
			return true
		}
	}
	return false
}

func String() Rule {
	return func(v any) (string, string, bool) {
		_, ok := v.(string)
		return "string", "must be a string", ok
	}
}

func NotBlank() Rule {
	return func(v any) (string, string, bool) {
		s, ok := v.(string)
		if !ok {
			return "string", "must be a string", false
		}
		return "not_blank", "must not be blank", strings.TrimSpace(s) != ""
	}
}

// Length bounds the trimmed rune length of a string. max <= 0 means unbounded.
func Length(min, max int) Rule {
	return func(v any) (string, string, bool) {
		s, ok := v.(string)
		if !ok {
			return "string", "must be a string", false
		}
		n := len([]rune(strings.TrimSpace(s)))
		if n < min {
			return "min_length", fmt.Sprintf("must be at least %d characters", min), false
		}
		if max > 0 && n > max {
			return "max_length", fmt.Sprintf("must be at most %d characters", max), false
		}
		return "", "", true
	}
}

// Int accepts JSON numbers with no fractional part.
func Int() Rule {
	return func(v any) (string, string, bool) {
		f, ok := number(v)
		if !ok || f != math.Trunc(f) {
			return "integer", "must be an integer", false
		}
		return "", "", true
	}
}

func Number() Rule {
	return func(v any) (string, string, bool) {
		_, ok := number(v)
		return "number", "must be a number", ok
	}
}

func Bool() Rule {
	return func(v any) (string, string, bool) {
		_, ok := v.(bool)
		return "boolean", "must be a boolean", ok
	}
}

func Min(min float64) Rule {
	return func(v any) (string, string, bool) {
		f, ok := number(v)
		if !ok {
			return "number", "must be a number", false
		}
		return "min", fmt.Sprintf("must be greater than or equal to %v", min), f >= min
	}
}

func Max(max float64) Rule {
	return func(v any) (string, string, bool) {
		f, ok := number(v)
		if !ok {
			return "number", "must be a number", false
		}
		return "max", fmt.Sprintf("must be less than or equal to %v", max), f <= max
	}
}

func UUID() Rule {
	return func(v any) (string, string, bool) {
		s, ok := v.(string)
		if !ok {
			return "uuid", "must be a valid UUID", false
		}
		return "uuid", "must be a valid UUID", IsUUID(s)
	}
}

func Email() Rule {
	return func(v any) (string, string, bool) {
		s, ok := v.(string)
		if !ok {
			return "email", "must be a valid email address", false
		}
		return "email", "must be a valid email address", IsEmail(s)
	}
}

// OneOf compares case-insensitively; Normalize lower-cases enumeration fields afterwards.
func OneOf(values ...string) Rule {
	msg := "must be one of: " + strings.Join(values, ", ")
	return func(v any) (string, string, bool) {
		s, ok := v.(string)
		if !ok {
			return "enum", msg, false
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, allowed := range values {
			if s == allowed {
				return "", "", true
			}
		}
		return "enum", msg, false
	}
}

func IsUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil && len(strings.TrimSpace(s)) == 36
}

func IsEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
