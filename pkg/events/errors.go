package events

import (
	"errors"
	"fmt"
)

// ErrListenerInit indicates the input subsystem refused to grant capture.
var ErrListenerInit = errors.New("input listener initialisation failed")

// ErrInterrupted signals that delivery ended because of an external interrupt.
var ErrInterrupted = errors.New("capture interrupted")

// ListenerInitError reports which backend failed to start and why.
type ListenerInitError struct {
	Backend string
	Err     error
}

func (e *ListenerInitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s listener: %s", e.Backend, ErrListenerInit.Error())
	}
	return fmt.Sprintf("%s listener: %v", e.Backend, e.Err)
}

func (e *ListenerInitError) Unwrap() error {
	return e.Err
}

func (e *ListenerInitError) Is(target error) bool {
	return target == ErrListenerInit
}

func newInitError(backend string, err error) error {
	return &ListenerInitError{Backend: backend, Err: err}
}

// NewInitError wraps err as a ListenerInitError for the named backend.
func NewInitError(backend string, err error) error {
	return newInitError(backend, err)
}
