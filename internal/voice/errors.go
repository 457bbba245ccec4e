package voice

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the caller.
type ErrorKind string

const (
	KindCredentialFetch ErrorKind = "credential_fetch"
	KindRoomConnect     ErrorKind = "room_connect"
	KindMediaPermission ErrorKind = "media_permission"
	KindAlreadyActive   ErrorKind = "already_active"
)

// Error is the caller-facing failure of a session attempt.
// Status carries the HTTP status of a failed credential request, zero otherwise.
type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrRoomConnect) works
// regardless of status or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrCredentialFetch = &Error{Kind: KindCredentialFetch}
	ErrRoomConnect     = &Error{Kind: KindRoomConnect}
	ErrMediaPermission = &Error{Kind: KindMediaPermission}
	ErrAlreadyActive   = &Error{Kind: KindAlreadyActive}
)

var (
	// ErrStopped is returned by Start when the attempt was ended by Stop or Close.
	ErrStopped      = errors.New("voice session stopped")
	ErrClosed       = errors.New("voice controller closed")
	ErrNotConnected = errors.New("voice session not connected")
)

func newError(kind ErrorKind, err error) *Error {
	var e *Error
	if errors.As(err, &e) && e.Kind == kind {
		return e
	}
	return &Error{Kind: kind, Err: err}
}
