package schema

import (
	"strings"

	"attacksurface/internal/errs"
)

// fieldType is the declared type of a property, used only during
// validation; the canonical struct fields that validation produces are
// always concretely typed (string, float64, []string, bool, or any).
type fieldType int

const (
	ftString fieldType = iota
	ftNumber
	ftEnum
	ftStringArray
	ftAny
	ftBool
)

// fieldSpec describes one property of a node kind's schema.
type fieldSpec struct {
	name     string
	typ      fieldType
	required bool
	enum     []string
	def      any
}

// kindSpec is the full schema for one node kind: an ordered list of fields.
// Order only decides which field canonicalize checks, and so reports, first.
type kindSpec struct {
	kind   Kind
	fields []fieldSpec
}

// canonicalize validates raw against spec, producing a canonical bag with
// unknown fields stripped and defaults applied. Fields are checked in
// schema order; the returned map itself has no key order.
func canonicalize(spec kindSpec, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.fields))
	for _, f := range spec.fields {
		v, present := raw[f.name]
		if !present || v == nil {
			if f.required {
				return nil, &errs.ValidationError{Kind: string(spec.kind), Field: f.name, Reason: "required field missing"}
			}
			if f.def != nil {
				out[f.name] = f.def
			}
			continue
		}
		cv, err := coerce(spec.kind, f, v)
		if err != nil {
			return nil, err
		}
		out[f.name] = cv
	}
	return out, nil
}

func coerce(kind Kind, f fieldSpec, v any) (any, error) {
	switch f.typ {
	case ftString:
		s, ok := v.(string)
		if !ok {
			return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected string"}
		}
		return s, nil
	case ftNumber:
		return toFloat64(kind, f, v)
	case ftEnum:
		s, ok := v.(string)
		if !ok {
			return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected string enum"}
		}
		for _, allowed := range f.enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "value " + strconvQuote(s) + " not in enum " + strings.Join(f.enum, ",")}
	case ftStringArray:
		switch vv := v.(type) {
		case []string:
			cp := make([]string, len(vv))
			copy(cp, vv)
			return cp, nil
		case []any:
			out := make([]string, 0, len(vv))
			for _, item := range vv {
				s, ok := item.(string)
				if !ok {
					return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected array of strings"}
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected array of strings"}
		}
	case ftAny:
		return v, nil
	case ftBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected bool"}
		}
		return b, nil
	default:
		return nil, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "unsupported field type"}
	}
}

func toFloat64(kind Kind, f fieldSpec, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, &errs.ValidationError{Kind: string(kind), Field: f.name, Reason: "expected number"}
	}
}

func strconvQuote(s string) string { return `"` + s + `"` }

// requiredString fetches a required string from an already-canonicalized map.
// Safe to use after canonicalize has enforced presence and type.
func requiredString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func optionalString(m map[string]any, key string) string {
	return requiredString(m, key)
}

func optionalNumber(m map[string]any, key string) float64 {
	if n, ok := m[key].(float64); ok {
		return n
	}
	return 0
}

func optionalStringArray(m map[string]any, key string) []string {
	if v, ok := m[key].([]string); ok {
		return v
	}
	return nil
}

func optionalBool(m map[string]any, key string) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}
