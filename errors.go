package looper

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrClosed is returned by operations on a looper that has been closed.
	ErrClosed = errors.New("looper: closed")

	// ErrInvalidFD is the cause of a UsageError for a negative fd, or for the
	// looper's own wake fd.
	ErrInvalidFD = errors.New("looper: invalid fd")

	// ErrCallbackRequired is the cause of a UsageError when a registration
	// without a callback is attempted on a looper that does not allow them.
	ErrCallbackRequired = errors.New("looper: callback required")

	// ErrInvalidIdent is the cause of a UsageError when a registration
	// without a callback has a negative ident.
	ErrInvalidIdent = errors.New("looper: ident must be >= 0 without a callback")

	// ErrUnsupported is returned when the requested backend is not available
	// on this platform.
	ErrUnsupported = errors.New("looper: not supported on this platform")

	// ErrReentrantPoll is logged when PollOnce is called from a callback.
	ErrReentrantPoll = errors.New("looper: cannot poll from within a callback")

	// errInterrupted is returned by backends when the wait was interrupted by
	// a signal. It never leaves the package.
	errInterrupted = errors.New("looper: wait interrupted")
)

// UsageError reports an invalid AddFd call. The looper is not modified.
type UsageError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Message == "" {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "looper: usage error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *UsageError) Unwrap() error {
	return e.Cause
}

// ResourceError reports a failure of the backend to add or remove an fd,
// e.g. because of descriptor or table limits.
type ResourceError struct {
	Err error
	Op  string
	FD  int
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("looper: %s fd %d: %v", e.Op, e.FD, e.Err)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// SetupError reports that a looper could not be constructed, because either
// the wake channel or the backend could not be created.
type SetupError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *SetupError) Unwrap() error {
	return e.Cause
}
