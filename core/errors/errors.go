// Package errors provides standardized error types for the mddc pipeline.
//
// The taxonomy follows the pipeline stages: load errors abort before anything
// else runs, schema errors are collected by the loader, validation issues are
// reported by core/validate, and defects signal invariant violations inside
// transform/convert/write that should have been impossible after validation.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases
var (
	// ErrLoad indicates the document could not be loaded at all
	ErrLoad = errors.New("load error")
	// ErrSchema indicates the document does not conform to the schema
	ErrSchema = errors.New("schema error")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrDefect indicates an internal invariant violation
	ErrDefect = errors.New("internal defect")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// LoadError represents a document that could not be read or parsed at all:
// missing file, malformed syntax, empty input, or a non-mapping root.
type LoadError struct {
	Path    string // File path, if known
	Message string // What went wrong
	Err     error  // Underlying error, if any
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e *LoadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrLoad, e.Err}
	}
	return []error{ErrLoad}
}

// FieldError is a single schema-level finding: a field that is missing,
// mistyped, or out of range, located by its document path.
type FieldError struct {
	Path    string // Dotted path into the document (e.g. "sessions.default.id")
	Message string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaError aggregates every schema-level finding for a document. The
// loader collects all field errors before returning, so callers see the
// complete list in one pass.
type SchemaError struct {
	Path   string // File path, if known
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("schema error: %s", e.Fields[0])
	}
	return fmt.Sprintf("%d schema errors (first: %s)", len(e.Fields), e.Fields[0])
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Detail returns all field errors, one per line.
func (e *SchemaError) Detail() string {
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n")
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "DOP", "service", "chunk")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotFound, e.Err}
	}
	return []error{ErrNotFound}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// DefectError represents an invariant violation reached despite passing
// validation: an unresolved reference inside the transformer, an unset
// parameter kind inside the converter. Defects are always fatal and never
// coerced into a recoverable state.
type DefectError struct {
	Stage   string // Pipeline stage (e.g., "transform", "convert")
	Message string
	Err     error
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("%s defect: %s", e.Stage, e.Message)
}

func (e *DefectError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDefect, e.Err}
	}
	return []error{ErrDefect}
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "rename")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "YAML", "envelope", "payload")
	Path    string // File path, if applicable
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnsupported, e.Err}
	}
	return []error{ErrUnsupported}
}

// Helper functions for creating common errors

// NewLoad creates a LoadError
func NewLoad(path, message string, err error) *LoadError {
	return &LoadError{Path: path, Message: message, Err: err}
}

// NewSchema creates a SchemaError from collected field errors
func NewSchema(path string, fields []FieldError) *SchemaError {
	return &SchemaError{Path: path, Fields: fields}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewDefect creates a DefectError
func NewDefect(stage, message string) *DefectError {
	return &DefectError{Stage: stage, Message: message}
}

// NewDefectf creates a DefectError with a formatted message
func NewDefectf(stage, format string, args ...interface{}) *DefectError {
	return &DefectError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
