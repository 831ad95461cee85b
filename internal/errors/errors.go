// Package errors defines the error taxonomy shared by the SDK packages.
// Every error carries a stable code so callers can classify failures
// without depending on message text.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes.
const (
	CodeUnknown       = "UNKNOWN"
	CodeMapping       = "MAPPING"
	CodeConfiguration = "CONFIGURATION"
	CodeInvocation    = "INVOCATION"
	CodeDispatch      = "DISPATCH"
	CodeAPI           = "API"
	CodeDatabase      = "DATABASE"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// MappingError reports a payload whose shape does not satisfy the
// requested entity kind. Path is the dotted field path of the offending
// value ("" for the root, "message.photo[1]" for nested values).
type MappingError struct {
	Path string
	Kind string
	Got  string
	Err  error
}

func (e *MappingError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	msg := fmt.Sprintf("cannot map %s at %s into %s", e.Got, path, e.Kind)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MappingError) Code() string {
	return CodeMapping
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// NewMappingError creates a MappingError for the value at path.
func NewMappingError(path, kind, got string, cause error) error {
	return &MappingError{Path: path, Kind: kind, Got: got, Err: cause}
}

// ConfigurationError is raised at registration time when a command or
// conversation cannot be found or does not satisfy the required interface.
type ConfigurationError struct {
	base Error
}

func (e *ConfigurationError) Error() string {
	return e.base.Error()
}

func (e *ConfigurationError) Code() string {
	return e.base.Code()
}

func (e *ConfigurationError) Unwrap() error {
	return e.base.Unwrap()
}

func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{
		base: Error{
			code:    CodeConfiguration,
			message: message,
			err:     cause,
		},
	}
}

// InvocationError reports a reply operation that cannot be performed:
// the update has no chat, or the reply verb is unknown.
type InvocationError struct {
	base   Error
	Method string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.base.Error())
}

func (e *InvocationError) Code() string {
	return e.base.Code()
}

func (e *InvocationError) Unwrap() error {
	return e.base.Unwrap()
}

func NewInvocationError(method, message string) error {
	return &InvocationError{
		Method: method,
		base: Error{
			code:    CodeInvocation,
			message: message,
		},
	}
}

// DispatchError reports a handler that could not be constructed for an
// update. It aborts the command or conversation stage of that update only.
type DispatchError struct {
	base    Error
	Handler string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Handler, e.base.Error())
}

func (e *DispatchError) Code() string {
	return e.base.Code()
}

func (e *DispatchError) Unwrap() error {
	return e.base.Unwrap()
}

func NewDispatchError(handler, message string, cause error) error {
	return &DispatchError{
		Handler: handler,
		base: Error{
			code:    CodeDispatch,
			message: message,
			err:     cause,
		},
	}
}

// APIError reports a failed Bot API request.
type APIError struct {
	base        Error
	Method      string
	StatusCode  int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %d %s", e.Method, e.StatusCode, e.base.Error())
	}
	return fmt.Sprintf("%s: %s", e.Method, e.base.Error())
}

func (e *APIError) Code() string {
	return e.base.Code()
}

func (e *APIError) Unwrap() error {
	return e.base.Unwrap()
}

// NewAPIError creates an APIError. statusCode is the Bot API error_code
// (0 when the request never produced a response).
func NewAPIError(method string, statusCode int, description string, retryAfter int, cause error) error {
	return &APIError{
		Method:      method,
		StatusCode:  statusCode,
		Description: description,
		RetryAfter:  retryAfter,
		base: Error{
			code:    CodeAPI,
			message: description,
			err:     cause,
		},
	}
}

type DatabaseError struct {
	base Error
}

func (e *DatabaseError) Error() string {
	return e.base.Error()
}

func (e *DatabaseError) Code() string {
	return e.base.Code()
}

func (e *DatabaseError) Unwrap() error {
	return e.base.Unwrap()
}

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{
		base: Error{
			code:    CodeDatabase,
			message: message,
			err:     cause,
		},
	}
}
