// Package poolerr defines the error-kind table a connection pool can
// report (spec.md §7): structured errors wrapping one of a small set of
// sentinels, so callers can branch with errors.Is regardless of which
// operation produced the failure.
package poolerr

import (
	"errors"
	"fmt"
)

// Sentinels corresponding to spec.md §7's error-kind column.
var (
	// ErrConnectFailure means the factory could not produce a connection.
	ErrConnectFailure = errors.New("connect failed")
	// ErrMisusedRelease means release was called with a connection this
	// pool does not currently own (already released, or owned by another
	// pool).
	ErrMisusedRelease = errors.New("connection was not acquired from this pool")
	// ErrPoolFull means the idle store declined to keep a released
	// connection.
	ErrPoolFull = errors.New("pool declined to keep the connection")
	// ErrHandler means a handler callback returned an error.
	ErrHandler = errors.New("handler callback failed")
	// ErrCancelled means the caller's context was done before a result
	// was available.
	ErrCancelled = errors.New("acquire was cancelled")
	// ErrClosed means the operation was attempted after Pool.Close.
	ErrClosed = errors.New("pool is closed")
)

// Error is a structured error returned by pool operations. It always
// wraps one of the sentinels above via Unwrap, mirroring the teacher's
// code/message/cause error shape.
type Error struct {
	Op  string // "acquire" or "release"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pool: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the wrapped sentinel so errors.Is/errors.As keep working.
func (e *Error) Unwrap() error { return e.Err }

// Wrap builds a structured Error for the named operation. A nil err
// yields a nil *Error so callers can write `return poolerr.Wrap(op, err)`
// directly.
func Wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	log.WithField("op", op).WithError(err).Debug("pool operation failed")
	return &Error{Op: op, Err: err}
}
