package schema

import (
	"fmt"
	"regexp"

	"github.com/taskforge-dev/taskforge/internal/errors"
)

// Type names a leaf value's expected Go representation after YAML/JSON
// decoding.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeBool   Type = "bool"
	TypeList   Type = "list"
	TypeMap    Type = "map"
	TypeAny    Type = "any"
)

// Field describes one field of an Object schema: presence, type, and the
// optional enum/regex/keyed-by constraints.
type Field struct {
	Required bool
	Type     Type
	Enum     []string
	Regex    *regexp.Regexp
	// KeyedByAttrs, when non-empty, marks this field as
	// optionally_keyed_by(attr1, attr2, ..., Type): a leaf value of Type,
	// or a by-<attr> conditional for one of these attrs.
	KeyedByAttrs []string
	Fields       Object // for Type == TypeMap
	Elem         *Field // for Type == TypeList
}

// Object is a schema for a map[string]interface{}: field name -> Field.
type Object map[string]Field

// Required marks f as a mandatory field.
func Required(f Field) Field {
	f.Required = true
	return f
}

// Optional marks f as an optional field.
func Optional(f Field) Field {
	f.Required = false
	return f
}

// OptionallyKeyedBy builds the optionally_keyed_by(<attrs...>, <leafType>)
// marker.
func OptionallyKeyedBy(leaf Type, attrs ...string) Field {
	return Field{Type: leaf, KeyedByAttrs: attrs}
}

// Validate checks data against the schema, returning an aggregated error
// (via internal/errors.List) naming every violation found, or nil.
func Validate(obj Object, data map[string]interface{}) error {
	errs := &errors.List{}
	validateObject(obj, data, "", errs)

	return errs.ErrorOrNil()
}

func validateObject(obj Object, data map[string]interface{}, path string, errs *errors.List) {
	for name, field := range obj {
		fieldPath := name
		if path != "" {
			fieldPath = path + "." + name
		}

		v, present := data[name]
		if !present {
			if field.Required {
				errs.Append(&errors.SchemaError{
					Descriptor: fieldPath,
					Value:      nil,
					Expected:   "a required field to be present",
				})
			}

			continue
		}

		validateField(field, v, fieldPath, errs)
	}
}

func validateField(field Field, v interface{}, path string, errs *errors.List) {
	if len(field.KeyedByAttrs) > 0 {
		if _, ok := AsKeyedBy(v); ok {
			// Structural validity of the by-* mapping itself is
			// deferred to ResolveKeyedBy, which runs later in the
			// pipeline once attribute context is available.
			return
		}
	}

	switch field.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			errs.Append(typeErr(path, v, "string"))
			return
		}

		if field.Regex != nil && !field.Regex.MatchString(s) {
			errs.Append(&errors.SchemaError{Descriptor: path, Value: v, Expected: fmt.Sprintf("match %s", field.Regex.String())})
		}

		if len(field.Enum) > 0 && !contains(field.Enum, s) {
			errs.Append(&errors.SchemaError{Descriptor: path, Value: v, Expected: fmt.Sprintf("one of %v", field.Enum)})
		}
	case TypeInt:
		switch v.(type) {
		case int, int64, float64:
		default:
			errs.Append(typeErr(path, v, "int"))
		}
	case TypeBool:
		if _, ok := v.(bool); !ok {
			errs.Append(typeErr(path, v, "bool"))
		}
	case TypeList:
		list, ok := v.([]interface{})
		if !ok {
			errs.Append(typeErr(path, v, "list"))
			return
		}

		if field.Elem != nil {
			for i, elem := range list {
				validateField(*field.Elem, elem, fmt.Sprintf("%s[%d]", path, i), errs)
			}
		}
	case TypeMap:
		m, ok := v.(map[string]interface{})
		if !ok {
			errs.Append(typeErr(path, v, "map"))
			return
		}

		if field.Fields != nil {
			validateObject(field.Fields, m, path, errs)
		}
	case TypeAny, "":
		// No constraint beyond presence.
	}
}

func typeErr(path string, v interface{}, want string) error {
	return &errors.SchemaError{Descriptor: path, Value: v, Expected: want}
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}

	return false
}
