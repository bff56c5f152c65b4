package kodi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers dispatch on. Wrapped
// errors carry the device and method context; use errors.Is to classify.
var (
	// ErrUnauthorized means the device rejected the configured
	// credentials. Not retriable without reconfiguration.
	ErrUnauthorized = errors.New("kodi: unauthorized")

	// ErrUnreachable covers dial failures and timeouts. Retriable on the
	// next request.
	ErrUnreachable = errors.New("kodi: device unreachable")

	// ErrMalformed means the device answered with something that is not a
	// valid JSON-RPC response, or with an RPC-level error.
	ErrMalformed = errors.New("kodi: malformed response")

	// ErrNoPlayers means the device is reachable but nothing is playing.
	ErrNoPlayers = errors.New("kodi: no active players")
)

// callError wraps a sentinel with the call that produced it.
type callError struct {
	sentinel error
	device   int
	method   string
	cause    error
}

func (e *callError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (device %d, %s): %v", e.sentinel, e.device, e.method, e.cause)
	}
	return fmt.Sprintf("%s (device %d, %s)", e.sentinel, e.device, e.method)
}

func (e *callError) Is(target error) bool { return target == e.sentinel }

func (e *callError) Unwrap() error { return e.cause }

func wrapCallError(sentinel error, deviceID int, method string, cause error) error {
	return &callError{sentinel: sentinel, device: deviceID, method: method, cause: cause}
}
