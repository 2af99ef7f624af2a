package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies the kind of a structured interpreter error.
type ErrorCode string

// Error codes.
const (
	// Parse time.
	ErrSyntax ErrorCode = "SyntaxError"

	// Control flow resolution.
	ErrUndefinedLabel      ErrorCode = "UndefinedLabelError"
	ErrUndefinedSubroutine ErrorCode = "UndefinedSubroutineError"
	ErrUndefinedFunction   ErrorCode = "UndefinedFunctionError"
	ErrUndefinedVariable   ErrorCode = "UndefinedVariableError"

	// Arithmetic.
	ErrArithmeticType ErrorCode = "ArithmeticTypeError"
	ErrDivisionByZero ErrorCode = "DivisionByZeroError"

	// Raised by collaborators and re-raised through the fault channel.
	ErrStaleReference ErrorCode = "StaleReferenceError"
	ErrExternal       ErrorCode = "ExternalError"
	ErrCommand        ErrorCode = "CommandError"

	// INTERPRET latch or disallowed mode.
	ErrSecurity ErrorCode = "SecurityError"

	// Misc runtime.
	ErrArgument      ErrorCode = "ArgumentError"
	ErrStackOverflow ErrorCode = "StackOverflowError"
)

// Error represents a structured interpreter error.
//
// Line is 1-based; 0 means the position is unknown. Function and Variables are
// filled for runtime faults; Expected and Found for syntax errors.
type Error struct {
	Code      ErrorCode
	Message   string
	Line      int
	Column    int
	Function  string
	Variables map[string]string
	Expected  string
	Found     string
	Err       error
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string, line int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Line:    line,
	}
}

// Errorf creates a new structured error with a formatted message.
func Errorf(code ErrorCode, line int, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), line)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Function != "" {
		fmt.Fprintf(&b, " (in %s)", e.Function)
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithFunction records the function in which the error was raised.
func (e *Error) WithFunction(name string) *Error {
	e.Function = name
	return e
}

// WithPosition fills the source position when it is not already known.
func (e *Error) WithPosition(line, column int) *Error {
	if e.Line == 0 {
		e.Line = line
		e.Column = column
	}
	return e
}

// SortedVariables returns the variable snapshot names in sorted order.
func (e *Error) SortedVariables() []string {
	keys := make([]string, 0, len(e.Variables))
	for k := range e.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsError extracts a *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
