package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ChatRequestSchema checks the shape of a chat body. Presence of a non-empty
// query is checked by the handler so that it maps to its own message.
const ChatRequestSchema = `{
	"type": "object",
	"properties": {
		"query":        {"type": "string"},
		"model":        {"type": "string"},
		"language":     {"type": "string"},
		"moleculeName": {"type": "string"},
		"options": {
			"type": "object",
			"properties": {
				"profiling":  {"type": "boolean"},
				"readAcross": {"type": "boolean"},
				"aquatic":    {"type": "boolean"},
				"mutagen":    {"type": "boolean"}
			}
		}
	}
}`

// ProfileRequestSchema checks the body of the profiling proxy.
const ProfileRequestSchema = `{
	"type": "object",
	"properties": {
		"cas":       {"type": "string"},
		"profilers": {"type": "array", "items": {"type": "string"}}
	}
}`

// CategoryRequestSchema checks the body of the category proxy.
const CategoryRequestSchema = `{
	"type": "object",
	"properties": {
		"cas": {"type": "string"}
	}
}`

// Validator holds a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// MustCompile panics on an invalid schema; schemas are package constants.
func MustCompile(schema string) *Validator {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema: %v", err))
	}
	return &Validator{schema: s}
}

// Validate checks a raw JSON document and returns a single readable error
// listing every violation.
func (v *Validator) Validate(document []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid request body: %s", strings.Join(msgs, "; "))
}
