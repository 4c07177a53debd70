// Package errors provides custom error types for the netbox-connector system.
// These errors classify failures of a NetBox fetch (configuration, transport,
// API status, malformed body) so callers can decide what is fatal and what is
// a plain absence.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As and Is are aliases for the standard library functions.
var (
	As = errors.As
	Is = errors.Is
)

// Common sentinel errors
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration input
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransport indicates the HTTP exchange itself failed (no status received)
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates a body that could not be interpreted
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates a 5xx answer from the API
	ErrServiceUnavailable = errors.New("service unavailable")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConfigError represents a configuration error. It is always raised before
// any network activity takes place.
type ConfigError struct {
	Component string
	Field     string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, msg)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, field, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Field:     field,
		Message:   message,
		Err:       err,
	}
}

// APIError represents a non-success HTTP status returned by the API.
// Payload holds the decoded JSON error body, or {"raw": text} when the body
// was not JSON.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
	Payload    any
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("API request %s %s failed with status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrServiceUnavailable
	}
	return false
}

// IsNotFound reports whether the API answered 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsServerError reports whether the API answered with a 5xx status.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// NewAPIError creates a new APIError
func NewAPIError(method, endpoint string, statusCode int, payload any) *APIError {
	return &APIError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
		Payload:    payload,
	}
}

// TransportError represents a failure below HTTP: connection refused, TLS
// handshake, timeout. It is never retried.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError creates a new TransportError
func NewTransportError(method, url string, err error) *TransportError {
	return &TransportError{Method: method, URL: url, Err: err}
}

// MalformedResponseError represents a body that is not JSON, or JSON of a
// shape the iterator cannot interpret. Body holds the raw text (non-JSON) or
// a serialized copy of the decoded value.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Body     string
	Err      error
}

// Reasons reported by MalformedResponseError.
const (
	ReasonNotJSON             = "API returned non JSON response"
	ReasonUnexpectedStructure = "unexpected response structure"
)

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s from %s", e.Reason, e.Endpoint)
	}
	return e.Reason
}

// Unwrap implements errors.Unwrap
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// NewMalformedResponseError creates a new MalformedResponseError
func NewMalformedResponseError(endpoint, reason, body string, err error) *MalformedResponseError {
	return &MalformedResponseError{
		Endpoint: endpoint,
		Reason:   reason,
		Body:     body,
		Err:      err,
	}
}

// JobError attaches the job (stanza) name to a failure that prevented the
// job from starting.
type JobError struct {
	Job string
	Err error
}

// Error implements the error interface
func (e *JobError) Error() string {
	return fmt.Sprintf("failed to create NetBox iterator for stanza '%s': %v", e.Job, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *JobError) Unwrap() error {
	return e.Err
}

// NewJobError creates a new JobError
func NewJobError(job string, err error) *JobError {
	return &JobError{Job: job, Err: err}
}

// ParseError represents an error when parsing input data
type ParseError struct {
	Format  string // "json", "yaml"
	Source  string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" && e.Line > 0 {
		return fmt.Sprintf("%s parse error in %s at line %d: %s", e.Format, e.Source, e.Line, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsTransport checks if an error is a transport failure
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformedResponse checks if an error is a malformed response error
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, line int, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, Source: source, Line: line, Message: err.Error(), Err: err}
}

// WrapConfig wraps an error as a ConfigError
func WrapConfig(component, field string, err error) error {
	if err == nil {
		return nil
	}
	return NewConfigError(component, field, err.Error(), err)
}
