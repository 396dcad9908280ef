package debugserver

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Start while the server is running.
	ErrAlreadyStarted = errors.New("debugserver: already started")

	// ErrInvalidPort is wrapped in a BindError for ports outside 0-65535.
	ErrInvalidPort = errors.New("debugserver: invalid port")
)

// BindError reports that the listening socket could not be bound.
type BindError struct {
	Addr string
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("debugserver: failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
