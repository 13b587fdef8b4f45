// Package errors provides structured error types for the Tendril expression
// and binding core.
//
// This package defines TendrilError, a unified error type that can represent
// lexing, parsing, compilation, sandbox and digest errors with enough
// metadata for display and programmatic handling.
package errors

import (
	"fmt"
	"strings"
)

// ErrorClass categorizes errors for filtering and assertions.
type ErrorClass string

const (
	ClassLex       ErrorClass = "lex"       // Malformed literal, unknown character
	ClassParse     ErrorClass = "parse"     // Expected token missing
	ClassCompile   ErrorClass = "compile"   // Non-assignable target, unknown node
	ClassSecurity  ErrorClass = "security"  // Sandbox guard rejection
	ClassDigest    ErrorClass = "digest"    // Digest iteration limit exceeded
	ClassState     ErrorClass = "state"     // Phase re-entry, invalid scope state
	ClassUndefined ErrorClass = "undefined" // Unknown filter name
	ClassType      ErrorClass = "type"      // Type mismatches during evaluation
	ClassOperator  ErrorClass = "operator"  // Invalid operations
)

// TendrilError represents any error from lexing, parsing, compiling or
// evaluating an expression, or from driving a scope digest.
type TendrilError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "LEX-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	Data    map[string]any `json:"data,omitempty"`  // Extra values for callers
}

// Error implements the error interface.
func (e *TendrilError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *TendrilError) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d, column %d: ", e.Line, e.Column)
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// New creates a TendrilError with a class, code and message.
func New(class ErrorClass, code, message string) *TendrilError {
	return &TendrilError{Class: class, Code: code, Message: message}
}

// Newf creates a TendrilError with a formatted message.
func Newf(class ErrorClass, code, format string, args ...any) *TendrilError {
	return &TendrilError{Class: class, Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPos attaches a source position and returns the error for chaining.
func (e *TendrilError) WithPos(line, column int) *TendrilError {
	e.Line = line
	e.Column = column
	return e
}

// WithHint appends a suggestion and returns the error for chaining.
func (e *TendrilError) WithHint(hint string) *TendrilError {
	e.Hints = append(e.Hints, hint)
	return e
}

// WithData attaches a named value and returns the error for chaining.
func (e *TendrilError) WithData(key string, value any) *TendrilError {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// ClassOf returns the class of err, or "" when err is not a TendrilError.
func ClassOf(err error) ErrorClass {
	var te *TendrilError
	if As(err, &te) {
		return te.Class
	}
	return ""
}

// As unwraps err into a *TendrilError, following the stdlib convention
// without pulling in error-wrapping machinery the core never uses.
func As(err error, target **TendrilError) bool {
	if te, ok := err.(*TendrilError); ok {
		*target = te
		return true
	}
	return false
}

// IsLex reports whether err is a lexing error.
func IsLex(err error) bool { return ClassOf(err) == ClassLex }

// IsParse reports whether err is a parse error.
func IsParse(err error) bool { return ClassOf(err) == ClassParse }

// IsCompile reports whether err is a compile error.
func IsCompile(err error) bool { return ClassOf(err) == ClassCompile }

// IsSecurity reports whether err is a sandbox rejection.
func IsSecurity(err error) bool { return ClassOf(err) == ClassSecurity }

// IsDigestLimit reports whether err is a digest TTL overrun.
func IsDigestLimit(err error) bool { return ClassOf(err) == ClassDigest }

// IsState reports whether err is a scope phase/state error.
func IsState(err error) bool { return ClassOf(err) == ClassState }
