package capture

import (
	"errors"
	"testing"
	"time"
)

func TestLifecycleTransitions(t *testing.T) {
	base := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	life := newLifecycle(steppingClock(base))

	if life.current() != StateIdle {
		t.Fatalf("expected idle, got %s", life.current())
	}

	openErr := errors.New("denied")
	if err := life.begin(func() error { return openErr }); !errors.Is(err, openErr) {
		t.Fatalf("expected open error, got %v", err)
	}
	if life.current() != StateIdle {
		t.Fatalf("failed open must leave the session idle, got %s", life.current())
	}

	if err := life.begin(func() error { return nil }); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := life.begin(func() error { return nil }); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	if !life.beginStop("escape") {
		t.Fatalf("expected first stop to proceed")
	}
	if life.beginStop("again") {
		t.Fatalf("expected second stop to be refused")
	}
	life.finish()

	select {
	case <-life.done:
	default:
		t.Fatalf("expected done to close on finish")
	}

	timeline := life.snapshot()
	want := []State{StateRunning, StateStopping, StateStopped}
	if len(timeline) != len(want) {
		t.Fatalf("expected %d transitions, got %+v", len(want), timeline)
	}
	for i, state := range want {
		if timeline[i].State != state {
			t.Fatalf("transition %d: expected %s, got %s", i, state, timeline[i].State)
		}
		if i > 0 && timeline[i].Timestamp.Before(timeline[i-1].Timestamp) {
			t.Fatalf("timeline out of order at %d", i)
		}
	}
	if timeline[1].Reason != "escape" {
		t.Fatalf("expected stop reason recorded, got %q", timeline[1].Reason)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:     "idle",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		State(42):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
