package jsonschema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema represents the subset of JSON Schema used to describe tool arguments.
// It follows the JSON Schema standard, supporting object properties, arrays,
// enums, and required-field lists.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// Enum contains the list of allowed values for the parameter
	Enum []any `json:"enum,omitempty"`
}

// GenerateJSONSchema derives a JSON schema for T via reflection.
// Struct fields are introspected through their json and jsonschema tags:
//
//	type input struct {
//	    Query string `json:"query" jsonschema:"description=Search query,required"`
//	    Limit int    `json:"limit" jsonschema:"enum=10,enum=25"`
//	}
//
// Recursive types are not supported; tool inputs are expected to be flat or
// shallowly nested value types.
func GenerateJSONSchema[T any]() *Schema {
	return generate(reflect.TypeFor[T]())
}

func generate(t reflect.Type) *Schema {
	switch t.Kind() {
	case reflect.Ptr:
		return generate(t.Elem())

	case reflect.Struct:
		return generateStruct(t)

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: generate(t.Elem())}

	case reflect.Map:
		return &Schema{Type: "object"}

	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	default:
		// Interfaces and anything else: accept any JSON value.
		return &Schema{}
	}
}

func generateStruct(t reflect.Type) *Schema {
	schema := &Schema{
		Type:       "object",
		Properties: map[string]*Schema{},
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		fieldSchema := generate(field.Type)
		required := applyTag(fieldSchema, field.Tag.Get("jsonschema"), field.Type.Kind())
		schema.Properties[name] = fieldSchema
		if required {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// fieldName resolves the JSON property name for a struct field, honoring the
// json tag when present and falling back to the Go field name.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return field.Name
	}
	return name
}

// applyTag parses a jsonschema struct tag onto schema and reports whether the
// field is marked required. Supported directives:
//
//	description=<text>   field description (commas inside the text are not supported)
//	enum=<value>         repeatable; values are coerced per the field kind
//	required             marks the field as required
func applyTag(schema *Schema, tag string, kind reflect.Kind) bool {
	if tag == "" {
		return false
	}

	required := false
	for _, directive := range strings.Split(tag, ",") {
		switch {
		case directive == "required":
			required = true

		case strings.HasPrefix(directive, "description="):
			schema.Description = strings.TrimPrefix(directive, "description=")

		case strings.HasPrefix(directive, "enum="):
			raw := strings.TrimPrefix(directive, "enum=")
			schema.Enum = append(schema.Enum, coerceEnumValue(raw, kind))
		}
	}
	return required
}

// coerceEnumValue converts a tag literal to the Go value matching the field
// kind so enums serialize as the right JSON type (numbers stay numbers).
func coerceEnumValue(raw string, kind reflect.Kind) any {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case reflect.Bool:
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return raw
}
