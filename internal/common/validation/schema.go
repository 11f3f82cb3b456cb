// Package validation checks JSON documents (job variables, survey definitions)
// against JSON Schemas.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "ai2c-dataviz/internal/common/errors"
)

// ValidationResult holds the outcome of validating one document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError describes a single violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Schema is a compiled JSON Schema.
type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile parses a schema given as a Go value (typically map[string]interface{}).
func Compile(schema interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: s}, nil
}

// CompileJSON parses a schema given as JSON text.
func CompileJSON(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{compiled: s}, nil
}

// MustCompileJSON is CompileJSON for package-level schemas.
func MustCompileJSON(schemaJSON string) *Schema {
	s, err := CompileJSON(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateBytes validates a raw JSON document.
func (s *Schema) ValidateBytes(doc []byte) (*ValidationResult, error) {
	if !json.Valid(doc) {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: "document is not valid JSON", Code: "invalid_json"}},
		}, nil
	}
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

// Decode validates doc and unmarshals it into out. A document that breaks
// the schema is reported as INVALID_INPUT with every violation listed.
func (s *Schema) Decode(doc []byte, out interface{}) error {
	res, err := s.ValidateBytes(doc)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(res.Summary())
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	return nil
}

// ValidateValue validates an already decoded document.
func (s *Schema) ValidateValue(doc interface{}) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewGoLoader(doc))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := s.compiled.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	return out, nil
}

var activityIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidateActivityNaming checks task types are lowercase kebab-case.
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity id %q must be lowercase kebab-case", activityID)
	}
	return nil
}

// GetErrorMessages flattens errors into "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	msgs := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return msgs
}

// Summary joins every message into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors reports whether a field has at least one violation.
func (vr *ValidationResult) HasErrors(field string) bool {
	return len(vr.GetErrorsForField(field)) > 0
}

func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var out []ValidationError
	for _, e := range vr.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}
