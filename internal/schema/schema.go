// Package schema loads and serves the attribute schema: the fixed set of
// fashion attribute names and their enumerable valid values. The schema is
// loaded once at startup and is immutable afterwards.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/vaibhav-asynq/vibe-shopping/internal/types"
)

// fileSchema validates the attribute schema file shape before decoding:
// an object mapping attribute names to non-empty arrays of strings.
const fileSchema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "array",
    "minItems": 1,
    "items": {"type": "string", "minLength": 1}
  }
}`

// Schema is the immutable attribute-name to valid-values lookup table.
type Schema struct {
	values map[string][]string
	names  []string
}

// Load reads and validates the attribute schema file. Attribute names not in
// the closed set are rejected so the pipeline's closed switch statements stay
// authoritative.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute schema %s: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(fileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate attribute schema %s: %w", path, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("attribute schema %s is malformed: %s", path, result.Errors()[0].String())
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse attribute schema %s: %w", path, err)
	}

	return New(raw)
}

// New builds a schema from an in-memory mapping. Used by Load and by tests.
func New(raw map[string][]string) (*Schema, error) {
	known := make(map[string]bool)
	for _, name := range types.AttributeNames() {
		known[name] = true
	}
	for name := range raw {
		if !known[name] {
			return nil, fmt.Errorf("attribute schema: unknown attribute %q", name)
		}
	}

	values := make(map[string][]string, len(raw))
	var names []string
	for _, name := range types.AttributeNames() {
		vals, ok := raw[name]
		if !ok {
			continue
		}
		values[name] = append([]string(nil), vals...)
		names = append(names, name)
	}

	return &Schema{values: values, names: names}, nil
}

// AttributeNames returns the schema's attribute names in canonical order.
func (s *Schema) AttributeNames() []string {
	return s.names
}

// Values returns the valid values for an attribute, or nil for unknown names.
func (s *Schema) Values(attr string) []string {
	return s.values[attr]
}

// Valid reports whether value is an allowed value for the attribute.
func (s *Schema) Valid(attr, value string) bool {
	for _, v := range s.values[attr] {
		if v == value {
			return true
		}
	}
	return false
}

// PromptContext renders the full schema as indented JSON for inclusion in
// extraction prompts.
func (s *Schema) PromptContext() string {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
