package auth

import "fmt"

// Kind is the closed set of failure classes an auth operation can surface.
// The controller maps each kind to exactly one HTTP status; anything it cannot
// classify is treated as internal.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

// Error is a tagged variant carrying a client-safe message and an optional
// machine code (TOKEN_INVALID, REFRESH_TOKEN_INVALID).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func errValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func errConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func errUnauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func errForbidden(code, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

func errNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func errInternal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, err: err}
}
