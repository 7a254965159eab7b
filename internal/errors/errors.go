// Package errors defines the typed error kinds of the rewrite engine,
// following the error-code-range convention of the teacher's
// internal/errors/codes.go, adapted to this engine's error space instead of
// semantic-analysis errors.
//
// Error code ranges:
// E1001-E1099: parse errors
// E1100-E1199: width errors
// E1200-E1299: internal assertion failures (programmer error, not recoverable)
// E1300-E1399: SMT solver errors (non-fatal; treated as match failure)
package errors

import "fmt"

const (
	CodeParse             = "E1001"
	CodeUnsupportedWidth   = "E1100"
	CodeInternalAssertion  = "E1200"
	CodeSolverTimeout      = "E1300"
	CodeSolverUnavailable  = "E1301"
)

// ParseError is reported at the boundary between source text and IR; the
// engine itself assumes well-formed IR past this point.
type ParseError struct {
	Code    string
	Line    int
	Column  int
	Message string
}

func NewParseError(line, column int, format string, args ...any) *ParseError {
	return &ParseError{Code: CodeParse, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: parse error at %d:%d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: parse error: %s", e.Code, e.Message)
}

// UnsupportedWidthError is fatal: the requested bit-width is outside the
// range the engine can reason about.
type UnsupportedWidthError struct {
	Code  string
	Width int
}

func NewUnsupportedWidthError(width int) *UnsupportedWidthError {
	return &UnsupportedWidthError{Code: CodeUnsupportedWidth, Width: width}
}

func (e *UnsupportedWidthError) Error() string {
	return fmt.Sprintf("%s: unsupported width %d: must be a positive integer", e.Code, e.Width)
}

// InternalAssertionError signals a programmer error: an IR node kind with no
// handler in some exhaustive switch. Per spec §7 this is not recoverable —
// callers should let it propagate as a panic rather than degrade silently.
type InternalAssertionError struct {
	Code  string
	Where string
	Kind  string
}

func NewInternalAssertionError(where, kind string) *InternalAssertionError {
	return &InternalAssertionError{Code: CodeInternalAssertion, Where: where, Kind: kind}
}

func (e *InternalAssertionError) Error() string {
	return fmt.Sprintf("%s: %s: no handler for node kind %q", e.Code, e.Where, e.Kind)
}

// Assertionf panics with an InternalAssertionError. Used from the default
// branch of every exhaustive type switch over ir.Expr.
func Assertionf(where, kind string) {
	panic(NewInternalAssertionError(where, kind))
}

// SolverTimeoutError wraps a solver timeout; an "unknown" answer is not an
// error and is reported as "not equivalent". It is never fatal: the matcher
// treats it as "not proved equal" and continues.
type SolverTimeoutError struct {
	Code   string
	Reason string
}

func NewSolverTimeoutError(reason string) *SolverTimeoutError {
	return &SolverTimeoutError{Code: CodeSolverTimeout, Reason: reason}
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("%s: solver timeout/unknown: %s", e.Code, e.Reason)
}

// SolverUnavailableError is returned when the configured SMT backend
// (typically the z3 binary) cannot be invoked at all, e.g. it is not
// installed. Also non-fatal to the engine as a whole: matches that would
// have needed the SMT fallback simply fail.
type SolverUnavailableError struct {
	Code string
	Err  error
}

func NewSolverUnavailableError(err error) *SolverUnavailableError {
	return &SolverUnavailableError{Code: CodeSolverUnavailable, Err: err}
}

func (e *SolverUnavailableError) Error() string {
	return fmt.Sprintf("%s: SMT backend unavailable: %s", e.Code, e.Err)
}

func (e *SolverUnavailableError) Unwrap() error { return e.Err }
