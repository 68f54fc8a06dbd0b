package expr

import (
	"errors"
	"fmt"
)

// ErrKind identifies well-known evaluation error categories. Callers match
// on kinds with errors.Is against the exported sentinel helpers rather than
// inspecting message text.
type ErrKind string

const (
	ErrKindUnboundVariable     ErrKind = "UNBOUND_VARIABLE"
	ErrKindDivisionByZero      ErrKind = "DIVISION_BY_ZERO"
	ErrKindDisallowedConstruct ErrKind = "DISALLOWED_CONSTRUCT"
)

// ParseError reports a syntax error or a disallowed construct in an
// expression. Pos is a zero-based byte offset into the source.
type ParseError struct {
	Source  string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
}

// EvalError reports a runtime evaluation failure. Variable is set for
// ErrKindUnboundVariable.
type EvalError struct {
	Kind     ErrKind
	Variable string
}

func (e *EvalError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ErrKindUnboundVariable:
		return fmt.Sprintf("variable %q is not bound", e.Variable)
	case ErrKindDivisionByZero:
		return "division by zero"
	case ErrKindDisallowedConstruct:
		return "disallowed construct in expression tree"
	default:
		return fmt.Sprintf("evaluation error: %s", string(e.Kind))
	}
}

// Is matches any EvalError carrying the same kind, so that
// errors.Is(err, &EvalError{Kind: ErrKindDivisionByZero}) works regardless
// of the variable name captured on the concrete error.
func (e *EvalError) Is(target error) bool {
	var other *EvalError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// IsDivisionByZero reports whether err is a division-by-zero evaluation
// failure.
func IsDivisionByZero(err error) bool {
	var evalErr *EvalError
	return errors.As(err, &evalErr) && evalErr.Kind == ErrKindDivisionByZero
}

// IsUnboundVariable reports whether err is an unbound-variable evaluation
// failure, returning the offending name when it is.
func IsUnboundVariable(err error) (string, bool) {
	var evalErr *EvalError
	if errors.As(err, &evalErr) && evalErr.Kind == ErrKindUnboundVariable {
		return evalErr.Variable, true
	}
	return "", false
}

func newParseError(src string, pos int, format string, args ...any) *ParseError {
	return &ParseError{Source: src, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
