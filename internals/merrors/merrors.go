// Package merrors holds the closed set of account error kinds.
// Callers match them with errors.Is against the exported sentinels.
package merrors

import "fmt"

// Error is an account error with a fixed kind. Two errors compare
// equal under errors.Is when their kinds match, so wrapped variants
// created with Because/With still match the sentinel.
type Error struct {
	kind string
	msg  string
	err  error
}

var (
	// ErrInvalid covers bad credentials, unexpected remote responses
	// and protocol-kind mismatches (e.g. refreshing an offline player)
	ErrInvalid = &Error{kind: "invalid", msg: "invalid credentials or request"}
	// ErrNotFound is returned when a referenced player, auth server or
	// flow session does not exist
	ErrNotFound = &Error{kind: "not-found", msg: "not found"}
	// ErrDuplicate is returned when every candidate identity is
	// already present in the roster
	ErrDuplicate = &Error{kind: "duplicate", msg: "account already added"}
	// ErrNetwork is a transport level failure
	ErrNetwork = &Error{kind: "network", msg: "network error"}
	// ErrParse is returned when an expected token or marker is missing
	// from a scraped response
	ErrParse = &Error{kind: "parse", msg: "could not parse response"}
	// ErrTexture is returned for an unknown skin preset name
	ErrTexture = &Error{kind: "texture", msg: "invalid texture preset"}
)

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Because returns a copy of the error with a more specific message
func (e *Error) Because(format string, a ...interface{}) *Error {
	return &Error{kind: e.kind, msg: fmt.Sprintf(format, a...)}
}

// With returns a copy of the error wrapping a cause
func (e *Error) With(err error) *Error {
	return &Error{kind: e.kind, msg: e.msg, err: err}
}
