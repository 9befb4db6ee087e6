package events

import (
	"bytes"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/offlinefirst/keylog/pkg/keys"
)

func TestDecodeTerminal(t *testing.T) {
	cases := map[string]struct {
		input       string
		more        bool
		expected    []keys.Event
		tail        string
		interrupted bool
	}{
		"printable": {
			input:    "hé",
			expected: []keys.Event{keys.Char("h"), keys.Char("é")},
		},
		"whitespace": {
			input:    " \t\r",
			expected: []keys.Event{keys.Named(keys.Space), keys.Named(keys.Tab), keys.Named(keys.Enter)},
		},
		"lone escape": {
			input:    "\x1b",
			expected: []keys.Event{keys.Named(keys.Esc)},
		},
		"arrows and delete": {
			input:    "\x1b[A\x1bOB\x1b[3~",
			expected: []keys.Event{keys.Named(keys.Up), keys.Named(keys.Down), keys.Named(keys.Delete)},
		},
		"unknown csi skipped": {
			input:    "\x1b[1;5Ax",
			expected: []keys.Event{keys.Char("x")},
		},
		"backspace": {
			input:    "\x7f",
			expected: []keys.Event{keys.Named(keys.Backspace)},
		},
		"ctrl letter": {
			input:    "\x01",
			expected: []keys.Event{keys.Named(keys.Ctrl), keys.Char("a")},
		},
		"alt prefix": {
			input:    "\x1bx",
			expected: []keys.Event{keys.Named(keys.Alt), keys.Char("x")},
		},
		"partial utf8 kept": {
			input:    "ab\xc3",
			expected: []keys.Event{keys.Char("a"), keys.Char("b")},
			tail:     "\xc3",
		},
		"unterminated csi kept": {
			input:    "x\x1b[1;5",
			expected: []keys.Event{keys.Char("x")},
			tail:     "\x1b[1;5",
		},
		"trailing escape of a full read kept": {
			input:    "x\x1b",
			more:     true,
			expected: []keys.Event{keys.Char("x")},
			tail:     "\x1b",
		},
		"interrupt": {
			input:       "a\x03b",
			expected:    []keys.Event{keys.Char("a")},
			interrupted: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, tail, interrupted := decodeTerminal([]byte(tc.input), tc.more)
			if interrupted != tc.interrupted {
				t.Fatalf("expected interrupted=%t, got %t", tc.interrupted, interrupted)
			}
			if string(tail) != tc.tail {
				t.Fatalf("expected tail %q, got %q", tc.tail, tail)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestPumpTerminalStopsOnEscape(t *testing.T) {
	handler := &recordingHandler{}
	err := pumpTerminal(bytes.NewBufferString("ok\x1b"), handler, make(chan struct{}))
	if err != nil {
		t.Fatalf("pump: %v", err)
	}
	if len(handler.pressed) != 3 {
		t.Fatalf("expected o, k and esc presses, got %v", handler.pressed)
	}
}

// chunkedReader returns one chunk per Read, then io.EOF.
type chunkedReader struct {
	chunks []string
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if c.chunks[0] == "" {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func TestPumpTerminalJoinsSplitReads(t *testing.T) {
	cases := map[string]struct {
		chunks   []string
		expected []keys.Event
	}{
		"utf8 split across reads": {
			chunks:   []string{"ab\xc3", "\xa9c"},
			expected: []keys.Event{keys.Char("a"), keys.Char("b"), keys.Char("é"), keys.Char("c")},
		},
		"csi split across reads": {
			chunks:   []string{"x\x1b[", "Ay"},
			expected: []keys.Event{keys.Char("x"), keys.Named(keys.Up), keys.Char("y")},
		},
		"escape closing a full read": {
			chunks:   []string{strings.Repeat("z", terminalReadSize-1) + "\x1b", "[B"},
			expected: append(repeatChar("z", terminalReadSize-1), keys.Named(keys.Down)),
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := &recordingHandler{}
			reader := &chunkedReader{chunks: append([]string(nil), tc.chunks...)}
			if err := pumpTerminal(reader, handler, make(chan struct{})); err != nil {
				t.Fatalf("pump: %v", err)
			}
			if !reflect.DeepEqual(handler.pressed, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, handler.pressed)
			}
		})
	}
}

func TestPumpTerminalTrailingEscapeAtEOF(t *testing.T) {
	handler := &recordingHandler{}
	reader := &chunkedReader{chunks: []string{strings.Repeat("z", terminalReadSize-1) + "\x1b"}}
	if err := pumpTerminal(reader, handler, make(chan struct{})); err != nil {
		t.Fatalf("pump: %v", err)
	}
	if len(handler.pressed) != terminalReadSize || !handler.pressed[terminalReadSize-1].IsEscape() {
		t.Fatalf("expected the deferred escape to be delivered at EOF, got %v", handler.pressed)
	}
}

func repeatChar(s string, n int) []keys.Event {
	out := make([]keys.Event, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, keys.Char(s))
	}
	return out
}

func TestPumpTerminalReportsInterrupt(t *testing.T) {
	handler := &recordingHandler{}
	err := pumpTerminal(bytes.NewBufferString("a\x03"), handler, make(chan struct{}))
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected interrupt, got %v", err)
	}
}

func TestTerminalSubscribeRejectsNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer f.Close()

	_, err = NewTerminal(f).Subscribe(&recordingHandler{})
	if !errors.Is(err, ErrListenerInit) {
		t.Fatalf("expected listener init error, got %v", err)
	}
	var initErr *ListenerInitError
	if !errors.As(err, &initErr) || initErr.Backend != "terminal" {
		t.Fatalf("expected terminal backend in error, got %v", err)
	}
}
