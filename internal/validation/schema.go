// Package validation checks plugin data against the JSON schema of its
// plugin type.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("validation: schema invalid")
	ErrSchemaValidation = errors.New("validation: data does not match schema")
)

// Issue is one failed constraint, located by JSON pointer.
type Issue struct {
	Location string
	Message  string
}

func (i Issue) String() string {
	location := "#" + strings.TrimPrefix(strings.TrimSpace(i.Location), "#")
	if i.Message == "" {
		return location
	}
	return location + ": " + i.Message
}

// DataError reports every issue found in one plugin data document. It
// matches ErrSchemaValidation with errors.Is.
type DataError struct {
	Issues []Issue
}

func (e *DataError) Error() string {
	if len(e.Issues) == 0 {
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func (e *DataError) Unwrap() error { return ErrSchemaValidation }

// Issues lists the issues carried by err, or err itself as a single issue.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return dataErr.Issues
	}
	return []Issue{{Message: err.Error()}}
}

// Schema is a compiled plugin data schema. A nil Schema accepts any data.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile expands and compiles schema. Plugin types without a schema get a
// nil Schema.
func Compile(schema map[string]any) (*Schema, error) {
	expanded := Expand(schema)
	if expanded == nil {
		return nil, nil
	}
	raw, err := json.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("plugin.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile("plugin.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks data against the schema.
func (s *Schema) Validate(data map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	doc, err := jsonDocument(data)
	if err != nil {
		return &DataError{Issues: []Issue{{Message: err.Error()}}}
	}
	err = s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) {
		return &DataError{Issues: leafIssues(schemaErr)}
	}
	return &DataError{Issues: []Issue{{Message: err.Error()}}}
}

// Expand turns a schema into JSON schema. A map with JSON schema keywords is
// used as is. A map with a "fields" list is shorthand for an object with one
// property per field, where each field has a name, an optional type and an
// optional required flag. Unlisted properties are rejected unless the map
// sets "additionalProperties".
func Expand(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	for _, keyword := range []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"} {
		if _, ok := schema[keyword]; ok {
			return maps.Clone(schema)
		}
	}
	fields, _ := schema["fields"].([]any)
	properties := map[string]any{}
	required := []string{}
	for _, entry := range fields {
		field, ok := entry.(map[string]any)
		if !ok {
			if name, isName := entry.(string); isName {
				field = map[string]any{"name": name}
			} else {
				continue
			}
		}
		name, _ := field["name"].(string)
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		property := map[string]any{}
		if kind, _ := field["type"].(string); jsonType(kind) != "" {
			property["type"] = jsonType(kind)
		}
		properties[name] = property
		if flag, _ := field["required"].(bool); flag {
			required = append(required, name)
		}
	}
	if len(properties) == 0 {
		return nil
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if allowed, ok := schema["additionalProperties"].(bool); ok {
		out["additionalProperties"] = allowed
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func jsonType(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return kind
	}
	return ""
}

// jsonDocument re-decodes data so Go numbers reach the validator as
// json.Number.
func jsonDocument(data map[string]any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func leafIssues(err *jsonschema.ValidationError) []Issue {
	if len(err.Causes) == 0 {
		return []Issue{{Location: err.InstanceLocation, Message: strings.TrimSpace(err.Message)}}
	}
	var out []Issue
	for _, cause := range err.Causes {
		out = append(out, leafIssues(cause)...)
	}
	return out
}
