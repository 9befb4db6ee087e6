package capture

import (
	"errors"
	"fmt"

	"github.com/offlinefirst/keylog/pkg/events"
)

// ErrAlreadyRunning is returned when Start is called on a session that has
// left the idle state.
var ErrAlreadyRunning = errors.New("capture session already started")

// ErrInterrupted is returned by Start after an external interrupt, once the
// final flush has run.
var ErrInterrupted = events.ErrInterrupted

// FlushError reports a failed append. The pending entries stay buffered and
// are retried on the next flush.
type FlushError struct {
	Path    string
	Pending int
	Err     error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("append %d bytes to %s: %v", e.Pending, e.Path, e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}
