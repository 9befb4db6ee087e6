package events

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/offlinefirst/keylog/pkg/keys"
)

// Step is one scripted notification.
type Step struct {
	Release bool
	Event   keys.Event
}

// Press builds a press step.
func Press(ev keys.Event) Step {
	return Step{Event: ev}
}

// Release builds a release step.
func Release(ev keys.Event) Step {
	return Step{Release: true, Event: ev}
}

// Script replays a fixed sequence of notifications in order.
type Script struct {
	steps []Step
}

// NewScript constructs a deterministic source from steps.
func NewScript(steps ...Step) *Script {
	return &Script{steps: append([]Step(nil), steps...)}
}

// Name identifies the backend in diagnostics.
func (s *Script) Name() string { return BackendScript }

// Len reports the number of scripted steps.
func (s *Script) Len() int { return len(s.steps) }

// Subscribe starts delivering the script to h.
func (s *Script) Subscribe(h Handler) (Subscription, error) {
	if h == nil {
		return nil, newInitError(s.Name(), fmt.Errorf("handler must not be nil"))
	}
	steps := s.steps
	return NewSubscription(func(done <-chan struct{}) error {
		for _, step := range steps {
			select {
			case <-done:
				return nil
			default:
			}
			if !step.Release {
				h.OnPress(step.Event)
				continue
			}
			if !h.OnRelease(step.Event) {
				return nil
			}
		}
		return nil
	}, nil), nil
}

// ParseScript reads a line-oriented key script:
//
//	press a
//	press space
//	type hello
//	release esc
//
// A single-character argument is a character event, anything longer is a
// symbolic key name. "type" expands to one press per character. Blank lines
// and lines starting with '#' are skipped.
func ParseScript(r io.Reader) (*Script, error) {
	scanner := bufio.NewScanner(r)
	var steps []Step

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil, fmt.Errorf("line %d: %q needs an argument", lineNo, verb)
		}

		switch strings.ToLower(verb) {
		case "press":
			steps = append(steps, Press(parseKeyToken(arg)))
		case "release":
			steps = append(steps, Release(parseKeyToken(arg)))
		case "type":
			for _, r := range arg {
				steps = append(steps, Press(keys.Char(string(r))))
			}
		default:
			return nil, fmt.Errorf("line %d: unknown verb %q", lineNo, verb)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return NewScript(steps...), nil
}

func parseKeyToken(token string) keys.Event {
	if utf8.RuneCountInString(token) == 1 {
		return keys.Char(token)
	}
	return keys.Named(keys.Key(strings.ToLower(token)))
}
