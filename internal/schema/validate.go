package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldError reports one schema violation at a dotted path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors aggregates every violation found in one validation pass.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return "validation failed: " + e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed (%d errors): %s", len(e), strings.Join(msgs, "; "))
}

// Validate checks a raw candidate document against the record schema and
// returns the normalized typed record. Normalization happens during the same
// pass: absent or null scalars become null, absent or null arrays become [],
// defaultable enums fall back to their conservative member, and unknown keys
// are dropped. Wrong primitive types and out-of-set enum members are
// collected, not coerced; every violation is reported in one
// ValidationErrors value with its dotted path.
func Validate(raw []byte) (*ClinicalExtraction, error) {
	var candidate interface{}
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, ValidationErrors{{Path: "", Message: "not a JSON document: " + err.Error()}}
	}
	if _, ok := candidate.(map[string]interface{}); !ok {
		return nil, ValidationErrors{{Path: "", Message: "top-level value must be an object"}}
	}

	normalized, errs := NormalizeValue(Root(), "", candidate)
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	rec, err := FromDoc(normalized.(map[string]interface{}))
	if err != nil {
		return nil, fmt.Errorf("materialize record: %w", err)
	}
	return rec, nil
}

// NormalizeValue validates a present value against a descriptor node and
// returns its normalized form. It is the single set of rules behind both
// whole-record validation and sub-path validation of edit values. The
// returned value shares no container memory with the input.
func NormalizeValue(desc *Field, path string, v interface{}) (interface{}, []FieldError) {
	switch desc.Kind {
	case KindString:
		return normalizeString(desc, path, v)
	case KindEnum:
		return normalizeEnum(desc, path, v)
	case KindArray:
		return normalizeArray(desc, path, v)
	case KindObject:
		return normalizeObject(desc, path, v)
	default:
		return nil, []FieldError{{Path: path, Message: "unknown field kind"}}
	}
}

func normalizeString(desc *Field, path string, v interface{}) (interface{}, []FieldError) {
	if v == nil {
		if desc.Required {
			return nil, []FieldError{{Path: path, Message: "required string is missing"}}
		}
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("expected string, got %s", jsonTypeName(v))}}
	}
	if desc.Required && strings.TrimSpace(s) == "" {
		return nil, []FieldError{{Path: path, Message: "required string is empty"}}
	}
	return s, nil
}

func normalizeEnum(desc *Field, path string, v interface{}) (interface{}, []FieldError) {
	if v == nil {
		if desc.Default != "" {
			return desc.Default, nil
		}
		if desc.Required {
			return nil, []FieldError{{Path: path, Message: "required value is missing, " + desc.ShapeString()}}
		}
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("expected %s, got %s", desc.ShapeString(), jsonTypeName(v))}}
	}
	for _, member := range desc.Enum {
		if s == member {
			return s, nil
		}
	}
	return nil, []FieldError{{Path: path, Message: fmt.Sprintf("%q is not %s", s, desc.ShapeString())}}
}

func normalizeArray(desc *Field, path string, v interface{}) (interface{}, []FieldError) {
	if v == nil {
		return []interface{}{}, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("expected array, got %s", jsonTypeName(v))}}
	}
	out := make([]interface{}, 0, len(items))
	var errs []FieldError
	for i, item := range items {
		elem, elemErrs := NormalizeValue(desc.Elem, joinPath(path, strconv.Itoa(i)), item)
		if len(elemErrs) > 0 {
			errs = append(errs, elemErrs...)
			continue
		}
		out = append(out, elem)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func normalizeObject(desc *Field, path string, v interface{}) (interface{}, []FieldError) {
	if v == nil {
		if !desc.NeverNull {
			return nil, nil
		}
		v = map[string]interface{}{}
	}
	members, ok := v.(map[string]interface{})
	if !ok {
		return nil, []FieldError{{Path: path, Message: fmt.Sprintf("expected object, got %s", jsonTypeName(v))}}
	}
	out := make(map[string]interface{}, len(desc.Fields))
	var errs []FieldError
	for _, of := range desc.Fields {
		// Absent keys flow through the same rules as explicit null.
		member := members[of.Name]
		normalized, memberErrs := NormalizeValue(of.Field, joinPath(path, of.Name), member)
		if len(memberErrs) > 0 {
			errs = append(errs, memberErrs...)
			continue
		}
		out[of.Name] = normalized
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
