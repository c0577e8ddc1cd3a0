package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode tells callers what went wrong with a toggle, reconcile or
// favorite write without exposing which store raised it. The HTTP layer maps
// each code to one status.
type ErrorCode string

const (
	// CodeValidation: the request can never succeed as sent, e.g. toggling an
	// interior node or naming an unknown favorite kind.
	CodeValidation         ErrorCode = "validation"
	// CodeNotFound: the leaf, node or content item does not exist.
	CodeNotFound           ErrorCode = "not_found"
	// CodeConflict: a concurrent writer flipped the same mark first. The
	// toggle loop re-reads and tries again.
	CodeConflict           ErrorCode = "conflict"
	// CodeInvariantViolation: stored rows contradict each other in a way a
	// retry cannot repair.
	CodeInvariantViolation ErrorCode = "invariant_violation"
	// CodePreconditionFailed: no authenticated user on the request, or a row
	// the write depends on vanished mid-transaction.
	CodePreconditionFailed ErrorCode = "precondition_failed"
	// CodeRetryable: the database was busy or the toggle used up its
	// attempts. Served as 503 with Retry-After.
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error carries a code plus the operation name ("progress.toggle_leaf",
// "favorite.list") that raised it.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

// Error renders as "op: message (code)", dropping whichever parts are empty.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	op, msg := strings.TrimSpace(e.Op), strings.TrimSpace(e.Message)
	b.WriteString(op)
	if op != "" && msg != "" {
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if b.Len() == 0 {
		return string(e.Code)
	}
	b.WriteString(" (")
	b.WriteString(string(e.Code))
	b.WriteString(")")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap classifies a storage or tree error. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

// IsTransient reports whether the toggle loop should run the transaction
// again: a lost mark race or a busy database.
func IsTransient(err error) bool {
	code := CodeOf(err)
	return code == CodeConflict || code == CodeRetryable
}
