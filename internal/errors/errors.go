package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MisalignedRecord indicates a primary record write that does not start on an item boundary
	MisalignedRecord ErrorCode = "MISALIGNED_RECORD"
	// InvalidTableSize indicates an emitted table of zero size or not a multiple of the item size
	InvalidTableSize ErrorCode = "INVALID_TABLE_SIZE"
	// MismatchedOffset indicates a secondary item re-registered at a different offset
	MismatchedOffset ErrorCode = "MISMATCHED_OFFSET"
	// UnsupportedEncoding indicates a cast or signature with no record or accessor encoding
	UnsupportedEncoding ErrorCode = "UNSUPPORTED_ENCODING"
	// MalformedFlagExpression indicates more than one flag where exactly one is required
	MalformedFlagExpression ErrorCode = "MALFORMED_FLAG_EXPRESSION"
	// MalformedVersion indicates a versions attribute that cannot be parsed
	MalformedVersion ErrorCode = "MALFORMED_VERSION"
	// UnknownClass indicates a field or method declaration naming an undeclared class
	UnknownClass ErrorCode = "UNKNOWN_CLASS"
	// UnknownFlag indicates a catalog flag the flag provider does not know
	UnknownFlag ErrorCode = "UNKNOWN_FLAG"
	// DuplicateSymbol indicates two symbols with the same constant name
	DuplicateSymbol ErrorCode = "DUPLICATE_SYMBOL"
	// InvalidDeclaration indicates a declaration missing required attributes
	InvalidDeclaration ErrorCode = "INVALID_DECLARATION"
	// ConfigInvalid indicates invalid configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// SpecNotFound indicates an unknown build spec id
	SpecNotFound ErrorCode = "SPEC_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing an input file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error represents a vmcp error with code, message, and suggestions.
// Every Error is fatal for the current build.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the default suggestions for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error without a cause using a format string
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	UnknownFlag: {
		{
			Type:        RunCommand,
			Command:     "vmcp flags --all",
			Description: "List the flags known to the configured flag source",
		},
	},
	SpecNotFound: {
		{
			Type:        RunCommand,
			Command:     "vmcp spec list",
			Description: "List imported build specs",
		},
		{
			Type:        RunCommand,
			Command:     "vmcp spec import <spec.toml>",
			Description: "Import the build spec into the store",
		},
	},
	MalformedFlagExpression: {
		{
			Type:        EditFile,
			Description: "Declare at most one flag on a top-level declaration; move alternatives into child variants",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "vmcp config show",
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
