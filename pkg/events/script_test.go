package events

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/offlinefirst/keylog/pkg/keys"
)

type recordingHandler struct {
	mu       sync.Mutex
	pressed  []keys.Event
	released []keys.Event
}

func (r *recordingHandler) OnPress(ev keys.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pressed = append(r.pressed, ev)
}

func (r *recordingHandler) OnRelease(ev keys.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, ev)
	return !ev.IsEscape()
}

func waitWithTimeout(t *testing.T, sub Subscription) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- sub.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription did not finish")
		return nil
	}
}

func TestScriptDeliversInOrderAndStopsOnEscape(t *testing.T) {
	script := NewScript(
		Press(keys.Char("h")),
		Press(keys.Char("i")),
		Release(keys.Char("i")),
		Release(keys.Named(keys.Esc)),
		Press(keys.Char("never")),
	)

	handler := &recordingHandler{}
	sub, err := script.Subscribe(handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := waitWithTimeout(t, sub); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if len(handler.pressed) != 2 {
		t.Fatalf("expected two presses before escape, got %v", handler.pressed)
	}
	if handler.pressed[0].Char != "h" || handler.pressed[1].Char != "i" {
		t.Fatalf("unexpected order: %v", handler.pressed)
	}
	if len(handler.released) != 2 {
		t.Fatalf("expected both releases to be observed, got %v", handler.released)
	}
}

func TestScriptNilHandlerIsInitError(t *testing.T) {
	if _, err := NewScript().Subscribe(nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestParseScript(t *testing.T) {
	input := "# greeting\npress h\ntype i!\n\npress ENTER\nrelease esc\n"
	script, err := ParseScript(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if script.Len() != 5 {
		t.Fatalf("expected 5 steps, got %d", script.Len())
	}
	if script.steps[2].Event.Char != "!" {
		t.Fatalf("expected type to expand per character, got %v", script.steps[2].Event)
	}
	if script.steps[3].Event.Key != keys.Enter {
		t.Fatalf("expected lower-cased key name, got %v", script.steps[3].Event)
	}
	if !script.steps[4].Release || !script.steps[4].Event.IsEscape() {
		t.Fatalf("expected trailing escape release, got %+v", script.steps[4])
	}
}

func TestParseScriptRejectsUnknownVerb(t *testing.T) {
	if _, err := ParseScript(strings.NewReader("tap a\n")); err == nil {
		t.Fatalf("expected error for unknown verb")
	}
	if _, err := ParseScript(strings.NewReader("press\n")); err == nil {
		t.Fatalf("expected error for missing argument")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	released := 0
	sub := NewSubscription(func(done <-chan struct{}) error {
		<-done
		return nil
	}, func() error {
		released++
		return nil
	})

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := waitWithTimeout(t, sub); err != nil {
		t.Fatalf("wait after close: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected release to run once, got %d", released)
	}
}
