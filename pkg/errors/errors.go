// Package errors provides custom error types for the pluginsync system.
// These errors enable programmatic error checking and keep per-plugin
// failures distinguishable from batch-level ones.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Join returns an error that wraps the given errors. It's an alias for the
// standard library errors.Join.
var Join = errors.Join

// Common sentinel errors for the pluginsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNetwork indicates that a remote HTTP call failed
	ErrNetwork = errors.New("network error")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrFormat indicates a value could not be parsed into its expected format
	ErrFormat = errors.New("invalid format")

	// ErrMissingRepo indicates a plugin has no usable repository reference
	ErrMissingRepo = errors.New("missing repository")

	// ErrStore indicates a remote store mutation or query failed
	ErrStore = errors.New("store error")
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

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NetworkError represents a failed HTTP call against the registry, GitHub or the store API.
type NetworkError struct {
	Service    string // "registry", "github", "seatable"
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error from %s (status %d): %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("network error from %s: %s", e.Service, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	if target == ErrRateLimited {
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusForbidden
	}
	if target == ErrNotFound {
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(service, endpoint string, statusCode int, message string) *NetworkError {
	return &NetworkError{
		Service:    service,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// FormatError is returned when a timestamp (or other typed value) cannot be parsed.
type FormatError struct {
	Value   string
	Formats []string
	Err     error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot parse %q (expected one of %v)", e.Value, e.Formats)
}

// Unwrap implements errors.Unwrap
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewFormatError creates a new FormatError
func NewFormatError(value string, formats []string, err error) *FormatError {
	return &FormatError{Value: value, Formats: formats, Err: err}
}

// MissingRepoError is returned when a remote lookup needs a repository reference
// and the plugin does not carry a usable one.
type MissingRepoError struct {
	PluginID string
	Repo     string
}

// Error implements the error interface
func (e *MissingRepoError) Error() string {
	if e.Repo != "" {
		return fmt.Sprintf("plugin %s: malformed repository reference %q", e.PluginID, e.Repo)
	}
	return fmt.Sprintf("plugin %s: no repository reference", e.PluginID)
}

// Is implements errors.Is support
func (e *MissingRepoError) Is(target error) bool {
	return target == ErrMissingRepo
}

// NewMissingRepoError creates a new MissingRepoError
func NewMissingRepoError(pluginID, repo string) *MissingRepoError {
	return &MissingRepoError{PluginID: pluginID, Repo: repo}
}

// StoreError represents a failed query or mutation against the remote store.
type StoreError struct {
	Operation string // "query", "append", "update", "delete", "link", "unlink"
	Table     string
	RowID     string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.RowID != "" {
		return fmt.Sprintf("store %s on %s row %s failed: %v", e.Operation, e.Table, e.RowID, e.Err)
	}
	return fmt.Sprintf("store %s on %s failed: %v", e.Operation, e.Table, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, table, rowID string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Table:     table,
		RowID:     rowID,
		Err:       err,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when decoding data formats
type ParseError struct {
	Format  string // "json", "yaml"
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parse error in %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, source string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during local I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "move"
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

// PluginError ties a failure to the plugin whose processing caused it.
type PluginError struct {
	PluginID string
	Stage    string // "enrich", "reconcile", "insert", "delete"
	Err      error
}

// Error implements the error interface
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s (%s): %v", e.PluginID, e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new PluginError
func NewPluginError(pluginID, stage string, err error) *PluginError {
	return &PluginError{PluginID: pluginID, Stage: stage, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNetwork checks if an error came from a remote HTTP call
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsFormat checks if an error is a parse/format error
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsMissingRepo checks if an error is a missing repository error
func IsMissingRepo(err error) bool {
	return errors.Is(err, ErrMissingRepo)
}

// IsStore checks if an error came from the remote store
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, source string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, source, err.Error(), err)
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, table, rowID string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, table, rowID, err)
}

// WrapNetwork wraps a transport failure as a NetworkError
func WrapNetwork(service, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{
		Service:  service,
		Endpoint: endpoint,
		Message:  err.Error(),
		Err:      err,
	}
}
