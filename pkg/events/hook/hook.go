// Package hook adapts the libuiohook global keyboard hook (via gohook) to the
// events.Source contract. It needs cgo and, on Linux, an X11 display.
package hook

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	gohook "github.com/robotn/gohook"

	"github.com/offlinefirst/keylog/pkg/events"
	"github.com/offlinefirst/keylog/pkg/keys"
	"github.com/offlinefirst/keylog/pkg/permissions"
)

const charUndefined = 0xFFFF

// Options tunes the hook backend.
type Options struct {
	// ReadyTimeout bounds how long Subscribe waits for the hook to report it
	// is enabled.
	ReadyTimeout time.Duration
	Lookup       permissions.LookupEnvFunc
}

// Source subscribes to the process-wide libuiohook stream. Only one
// subscription may be active per process.
type Source struct {
	readyTimeout time.Duration
	lookup       permissions.LookupEnvFunc
}

// New constructs a hook source.
func New(opts Options) *Source {
	timeout := opts.ReadyTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Source{readyTimeout: timeout, lookup: opts.Lookup}
}

// Name identifies the backend in diagnostics.
func (s *Source) Name() string { return events.BackendHook }

// Subscribe probes permissions, starts the hook and waits for it to come up.
func (s *Source) Subscribe(h events.Handler) (events.Subscription, error) {
	probe := permissions.ProbeInputCapture(s.lookup)
	if !probe.Usable() {
		msg := probe.Message
		if probe.Guidance != "" {
			msg += " (" + probe.Guidance + ")"
		}
		return nil, events.NewInitError(s.Name(), errors.New(msg))
	}

	stream := gohook.Start()
	if err := awaitReady(stream, s.readyTimeout); err != nil {
		gohook.End()
		return nil, events.NewInitError(s.Name(), err)
	}

	return events.NewSubscription(func(done <-chan struct{}) error {
		for {
			select {
			case <-done:
				return nil
			case ev, ok := <-stream:
				if !ok {
					return nil
				}
				if !dispatch(ev, h) {
					return nil
				}
			}
		}
	}, func() error {
		gohook.End()
		return nil
	}), nil
}

func awaitReady(stream chan gohook.Event, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				return errors.New("hook stream closed before it was enabled")
			}
			if ev.Kind == gohook.HookEnabled {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("hook not enabled within %s", timeout)
		}
	}
}

// dispatch routes one raw hook event. It returns false when the handler
// asked to end the subscription.
func dispatch(ev gohook.Event, h events.Handler) bool {
	switch ev.Kind {
	case gohook.KeyHold:
		if key, ok := namedKey(ev.Keycode); ok {
			h.OnPress(keys.Named(key))
		}
	case gohook.KeyDown:
		if r, ok := typedRune(ev.Keychar); ok {
			h.OnPress(keys.Char(string(r)))
		}
	case gohook.KeyUp:
		return h.OnRelease(releaseEvent(ev.Keycode))
	case gohook.HookDisabled:
		return false
	}
	return true
}

// typedRune filters typed characters. Space and control characters are
// already reported by their pressed keycode.
func typedRune(r rune) (rune, bool) {
	if r == charUndefined || r == ' ' || !unicode.IsPrint(r) {
		return 0, false
	}
	return r, true
}

func releaseEvent(code uint16) keys.Event {
	if key, ok := namedKey(code); ok {
		return keys.Named(key)
	}
	return keys.Named(keys.Key(fmt.Sprintf("vc_%#04x", code)))
}
