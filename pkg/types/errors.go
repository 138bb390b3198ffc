package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a gofhirpath error code.
type ErrorCode string

// Error codes. The leading letter selects the error kind:
// S = syntax, T/U = invalid operation, D32 = incompatible units.
const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed   ErrorCode = "S0101"
	ErrInvalidNumber     ErrorCode = "S0102"
	ErrUnsupportedEscape ErrorCode = "S0103"
	ErrUnexpectedEnd     ErrorCode = "S0104"
	ErrNameNotClosed     ErrorCode = "S0105"
	ErrCommentNotClosed  ErrorCode = "S0106"
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrInvalidLiteral    ErrorCode = "S0203"
	ErrUnknownOperator   ErrorCode = "S0204"
	ErrMaxDepth          ErrorCode = "S0205"

	// T0xxx: Type and cardinality errors
	ErrArgumentCountMismatch ErrorCode = "T0410"
	ErrCardinality           ErrorCode = "T0411"
	ErrCannotConvert         ErrorCode = "T1001"
	ErrInvalidTypeOperation  ErrorCode = "T1003"
	ErrAmbiguousTruthiness   ErrorCode = "T1004"
	ErrInvalidIndex          ErrorCode = "T1005"
	ErrArithmetic            ErrorCode = "T1006"

	// D32xx: Unit errors
	ErrUnitsIncompatible ErrorCode = "D3201"

	// U0xxx: Runtime lookup errors
	ErrUndefinedVariable ErrorCode = "U1001"
	ErrUndefinedFunction ErrorCode = "U1002"
	ErrRecursionDepth    ErrorCode = "U1003"
)

// ErrorKind classifies errors into the three families callers branch on.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota + 1
	KindInvalidOperation
	KindIncompatibleUnits
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindInvalidOperation:
		return "invalid operation"
	case KindIncompatibleUnits:
		return "incompatible units"
	default:
		return "error"
	}
}

// Kind sentinels for use with errors.Is.
var (
	ErrSyntax            = &Error{Code: ErrSyntaxError, Message: "syntax error", Position: -1}
	ErrInvalidOperation  = &Error{Code: ErrInvalidTypeOperation, Message: "invalid operation", Position: -1}
	ErrIncompatibleUnits = &Error{Code: ErrUnitsIncompatible, Message: "incompatible units", Position: -1}
)

// Error represents a structured gofhirpath error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Expected string
	Err      error
}

// NewError creates a new error. Use position -1 when no source position applies.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, position int, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), position)
}

// Kind returns the error family derived from the code.
func (e *Error) Kind() ErrorKind {
	switch {
	case strings.HasPrefix(string(e.Code), "S"):
		return KindSyntax
	case strings.HasPrefix(string(e.Code), "D32"):
		return KindIncompatibleUnits
	default:
		return KindInvalidOperation
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Position >= 0 {
		fmt.Fprintf(&b, " at position %d", e.Position)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Expected != "" {
		fmt.Fprintf(&b, " (expected %s)", e.Expected)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is one of the kind sentinels matching e's kind,
// or an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	switch t {
	case ErrSyntax, ErrInvalidOperation, ErrIncompatibleUnits:
		return e.Kind() == t.Kind()
	}
	return e.Code == t.Code
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithExpected records what the parser expected at the error position.
func (e *Error) WithExpected(expected string) *Error {
	e.Expected = expected
	return e
}

// WithPosition sets the source position when it is not yet known.
func (e *Error) WithPosition(pos int) *Error {
	if e.Position < 0 {
		e.Position = pos
	}
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// AsError returns err as *Error when it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
