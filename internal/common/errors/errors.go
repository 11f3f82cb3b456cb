// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Load-time structural failures. Fatal for the table being loaded.
	ErrCodeRequiredColumnsMissing ErrorCode = "REQUIRED_COLUMNS_MISSING"
	ErrCodeTableUnparsable        ErrorCode = "TABLE_UNPARSABLE"

	// Collaborator failures. Recovered locally as "no data" or heuristic-only.
	ErrCodeTableFetchFailed    ErrorCode = "TABLE_FETCH_FAILED"
	ErrCodeSchemaSourceInvalid ErrorCode = "SCHEMA_SOURCE_INVALID"
	ErrCodeCacheBackingFailed  ErrorCode = "CACHE_BACKING_FAILED"

	// Request errors.
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidPivotSpec ErrorCode = "INVALID_PIVOT_SPEC"
	ErrCodeDatasetNotFound  ErrorCode = "DATASET_NOT_FOUND"

	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewRequiredColumnsMissingError rejects a table that lacks required columns.
func NewRequiredColumnsMissingError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequiredColumnsMissing,
		Message:   "Response table is missing required columns",
		Details:   strings.Join(missing, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"missingColumns": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewTableUnparsableError rejects a table whose bytes cannot be read as a table.
func NewTableUnparsableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTableUnparsable,
		Message:   "Response table could not be parsed",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTableFetchFailedError creates a retryable error for an unreachable table source.
func NewTableFetchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTableFetchFailed,
		Message:   "Response table source unavailable",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSchemaSourceInvalidError marks a schema document that exists but cannot be used.
func NewSchemaSourceInvalidError(location string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaSourceInvalid,
		Message:   "Questionnaire schema source is invalid",
		Details:   fmt.Sprintf("location: %s, %s", location, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheBackingFailedError wraps a failure of the shared cache backing.
func NewCacheBackingFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheBackingFailed,
		Message:   "Shared cache backing unavailable",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPivotSpecError creates a non-retryable error for a malformed pivot request.
func NewInvalidPivotSpecError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPivotSpec,
		Message:   "Invalid pivot specification",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetNotFoundError reports a survey key with no table in any source.
func NewDatasetNotFoundError(env, surveyKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetNotFound,
		Message:   "No response table for survey",
		Details:   fmt.Sprintf("env: %s, surveyKey: %s", env, surveyKey),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes are
// identical except where the process model catches a broader boundary event.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeRequiredColumnsMissing: "DATASET_INVALID",
	ErrCodeTableUnparsable:        "DATASET_INVALID",
	ErrCodeTableFetchFailed:       "TABLE_FETCH_FAILED",
	ErrCodeSchemaSourceInvalid:    "SCHEMA_SOURCE_INVALID",
	ErrCodeCacheBackingFailed:     "CACHE_BACKING_FAILED",
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeInvalidPivotSpec:       "INVALID_PIVOT_SPEC",
	ErrCodeDatasetNotFound:        "DATASET_NOT_FOUND",
	ErrCodeInternal:               "INTERNAL_ERROR",
	ErrCodeExternalService:        "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                "TIMEOUT_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTableFetchFailed,
		ErrCodeExternalService,
		ErrCodeCacheBackingFailed:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TABLE") || strings.Contains(codeStr, "COLUMNS") || strings.Contains(codeStr, "DATASET"):
		return "DATASET"
	case strings.Contains(codeStr, "SCHEMA"):
		return "SCHEMA"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "INTEGRATION"
	default:
		return "OTHER"
	}
}
