package capture

import (
	"sync"
	"time"
)

// State is a point in the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Transition records one lifecycle change for diagnostics.
type Transition struct {
	State     State
	Reason    string
	Timestamp time.Time
}

// lifecycle serialises state changes. Idle -> Running -> Stopping -> Stopped;
// Idle may also go straight to Stopping. Nothing leaves Stopped.
type lifecycle struct {
	mu       sync.Mutex
	state    State
	timeline []Transition
	clock    func() time.Time
	// done closes on entering Stopped.
	done chan struct{}
}

func newLifecycle(clock func() time.Time) *lifecycle {
	return &lifecycle{clock: clock, done: make(chan struct{})}
}

func (l *lifecycle) current() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// begin runs open while holding the lock and enters Running only if it
// succeeds.
func (l *lifecycle) begin(open func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return ErrAlreadyRunning
	}
	if err := open(); err != nil {
		return err
	}
	l.record(StateRunning, "listener subscribed")
	return nil
}

// beginStop enters Stopping. It reports false when a stop is already under
// way or done.
func (l *lifecycle) beginStop(reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStopping || l.state == StateStopped {
		return false
	}
	l.record(StateStopping, reason)
	return true
}

func (l *lifecycle) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(StateStopped, "")
	close(l.done)
}

func (l *lifecycle) record(state State, reason string) {
	l.state = state
	l.timeline = append(l.timeline, Transition{State: state, Reason: reason, Timestamp: l.clock()})
}

func (l *lifecycle) snapshot() []Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transition(nil), l.timeline...)
}
