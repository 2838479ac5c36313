package syntax

import "fmt"

// ErrorCode describes a class of parse failure. ErrorCode values are errors
// themselves, so callers can test for them with errors.Is.
type ErrorCode string

// Error implements the error interface.
func (c ErrorCode) Error() string { return string(c) }

// Parse error codes.
const (
	ErrMissingParen          ErrorCode = "missing closing )"
	ErrUnexpectedParen       ErrorCode = "unexpected )"
	ErrMissingBracket        ErrorCode = "missing closing ]"
	ErrBadEscape             ErrorCode = "invalid escape sequence"
	ErrBadClassRange         ErrorCode = "invalid character class range"
	ErrMissingRepeatArgument ErrorCode = "missing argument to repetition operator"
	ErrMissingOperand        ErrorCode = "missing operand"
	ErrBadRepeat             ErrorCode = "invalid nested repetition operator"
	ErrRepeatSize            ErrorCode = "invalid repeat count"
	ErrRepeatOrder           ErrorCode = "repeat minimum exceeds maximum"
	ErrBadGroup              ErrorCode = "invalid group syntax"
	ErrBadName               ErrorCode = "invalid group name"
	ErrDuplicateName         ErrorCode = "duplicate group name"
	ErrUnknownGroup          ErrorCode = "reference to undefined group"
	ErrBadConditional        ErrorCode = "conditional with more than two branches"
	ErrUnknownProperty       ErrorCode = "unknown Unicode property"
	ErrBackrefInComplement   ErrorCode = "group reference inside complement"
	ErrNestingDepth          ErrorCode = "expression nests too deeply"
	ErrInvalidUTF8           ErrorCode = "invalid UTF-8"
)

// Error is a positioned parse error.
type Error struct {
	Code ErrorCode
	// Pos is the byte offset in the pattern where the problem starts.
	Pos int
	// Expr is the offending fragment of the pattern.
	Expr string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("error parsing regexp: %s at offset %d: `%s`", e.Code, e.Pos, e.Expr)
}

// Unwrap returns the error code
func (e *Error) Unwrap() error {
	return e.Code
}
