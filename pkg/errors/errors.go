// Package errors provides the structured error taxonomy for keepice.
//
// Every failure raised by the table manager is an *Error whose Type names
// the operation that failed. The engine error that triggered it is kept as
// the Cause, so errors.Is and errors.As keep working across the wrap.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeDatabaseCreation is returned when CREATE DATABASE fails
	ErrorTypeDatabaseCreation ErrorType = "database_creation"
	// ErrorTypeTableCreation is returned when CREATE TABLE fails or its input is rejected
	ErrorTypeTableCreation ErrorType = "table_creation"
	// ErrorTypeTableDrop is returned when DROP TABLE fails
	ErrorTypeTableDrop ErrorType = "table_drop"
	// ErrorTypeMetadataRetrieval is returned when a metadata table query fails
	ErrorTypeMetadataRetrieval ErrorType = "metadata_retrieval"
	// ErrorTypeInvalidTableProperty is returned for an unknown metadata table name
	ErrorTypeInvalidTableProperty ErrorType = "invalid_table_property"

	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeConfigNotFound is returned when no config folder exists up the tree
	ErrorTypeConfigNotFound ErrorType = "config_not_found"
	// ErrorTypeUnknownConnector is returned for a connector name outside the enumeration
	ErrorTypeUnknownConnector ErrorType = "unknown_connector"
	// ErrorTypeUnsupported represents operations a connector cannot perform
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeConnection represents session or client setup errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeQuery represents query execution errors raised by a connector itself
	ErrorTypeQuery ErrorType = "query"
)

var labels = map[ErrorType]string{
	ErrorTypeDatabaseCreation:     "Database Creation Error",
	ErrorTypeTableCreation:        "Table Creation Error",
	ErrorTypeTableDrop:            "Table Drop Error",
	ErrorTypeMetadataRetrieval:    "Metadata Retrieval Error",
	ErrorTypeInvalidTableProperty: "Invalid Table Property",
	ErrorTypeConfig:               "Configuration Error",
	ErrorTypeConfigNotFound:       "Config Not Found Error",
	ErrorTypeUnknownConnector:     "Unknown Connector Error",
	ErrorTypeUnsupported:          "Unsupported Operation Error",
	ErrorTypeConnection:           "Connection Error",
	ErrorTypeQuery:                "Query Error",
}

// Label returns the human readable prefix used when rendering the error.
func (t ErrorType) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface. A wrapped error without a message of
// its own renders the cause text directly after the label.
func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Message == "":
		return fmt.Sprintf("%s: %v", e.Type.Label(), e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Type.Label(), e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Type.Label(), e.Message)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type, so that
// errors.Is(err, errors.New(ErrorTypeTableDrop, "")) matches any drop failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. An empty message
// makes the cause text the message.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsManagerError reports whether err is one of the table manager operation
// failures (database/table creation, drop, metadata retrieval, invalid property).
func IsManagerError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	_, ok := labels[e.Type]
	return ok
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
