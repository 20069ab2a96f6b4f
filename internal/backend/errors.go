package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error is a failed backend call: either a non-2xx response or a 2xx
// envelope with success=false. Message carries the server-provided text
// verbatim when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.Status)
}

// IsSessionExpired reports whether err is a 401 from an authenticated call.
func IsSessionExpired(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == 401
}

// IsTimeout reports whether err is a request timeout rather than a
// generic transport failure.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Message returns the server-provided error message verbatim, falling
// back to the given text when the error carries none.
func Message(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
