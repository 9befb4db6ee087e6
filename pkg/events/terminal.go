package events

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/offlinefirst/keylog/pkg/keys"
)

// Terminal reads keystrokes typed into the controlling terminal in raw mode.
// Terminals only report presses, so every press is followed by a synthetic
// release of the same key.
type Terminal struct {
	in *os.File
}

// NewTerminal binds the source to a terminal file, usually os.Stdin.
func NewTerminal(in *os.File) *Terminal {
	return &Terminal{in: in}
}

// Name identifies the backend in diagnostics.
func (t *Terminal) Name() string { return BackendTerminal }

// Subscribe switches the terminal to raw mode and starts delivery.
func (t *Terminal) Subscribe(h Handler) (Subscription, error) {
	if t.in == nil {
		return nil, newInitError(t.Name(), errors.New("no input file"))
	}
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		return nil, newInitError(t.Name(), fmt.Errorf("%s is not a terminal", t.in.Name()))
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, newInitError(t.Name(), fmt.Errorf("enter raw mode: %w", err))
	}

	return NewSubscription(func(done <-chan struct{}) error {
		return pumpTerminal(t.in, h, done)
	}, func() error {
		return term.Restore(fd, state)
	}), nil
}

// terminalReadSize is the raw read size. A read that fills it may have cut
// an escape sequence short.
const terminalReadSize = 64

// maxPendingInput bounds bytes carried between reads; a longer unfinished
// sequence is discarded.
const maxPendingInput = 32

// pumpTerminal blocks in Read; after done closes, the pending Read is abandoned.
// Bytes left undecoded by one read are prepended to the next.
func pumpTerminal(r io.Reader, h Handler, done <-chan struct{}) error {
	buf := make([]byte, terminalReadSize)
	var pending []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append(pending, buf[:n]...)
			evs, tail, interrupted := decodeTerminal(chunk, n == len(buf))
			pending = append([]byte(nil), tail...)
			if len(pending) > maxPendingInput {
				pending = nil
			}
			if !deliverTerminal(evs, h, done) {
				return nil
			}
			if interrupted {
				return ErrInterrupted
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(pending) > 0 {
					evs, _, _ := decodeTerminal(pending, false)
					deliverTerminal(evs, h, done)
				}
				return nil
			}
			return fmt.Errorf("read terminal: %w", err)
		}
	}
}

// deliverTerminal reports false once the handler or done ends delivery.
func deliverTerminal(evs []keys.Event, h Handler, done <-chan struct{}) bool {
	for _, ev := range evs {
		select {
		case <-done:
			return false
		default:
		}
		h.OnPress(ev)
		if !h.OnRelease(ev) {
			return false
		}
	}
	return true
}

var csiFinal = map[string]keys.Key{
	"A":  keys.Up,
	"B":  keys.Down,
	"C":  keys.Right,
	"D":  keys.Left,
	"H":  "home",
	"F":  "end",
	"2~": "insert",
	"3~": keys.Delete,
	"5~": "page_up",
	"6~": "page_down",
}

// decodeTerminal turns raw input into key events and returns the trailing
// bytes that do not yet form a complete key: a partial UTF-8 character or an
// unterminated control sequence. A lone ESC at the end is the Escape key
// unless more is set, meaning the read filled its buffer and the rest of a
// sequence may follow. Ctrl+C reports an interrupt instead of an event.
func decodeTerminal(chunk []byte, more bool) ([]keys.Event, []byte, bool) {
	var out []keys.Event
	for i := 0; i < len(chunk); {
		b := chunk[i]
		switch {
		case b == 0x1b:
			if i+1 >= len(chunk) {
				if more {
					return out, chunk[i:], false
				}
				out = append(out, keys.Named(keys.Esc))
				i++
				continue
			}
			next := chunk[i+1]
			if next == '[' || next == 'O' {
				j := i + 2
				for j < len(chunk) && (chunk[j] < 0x40 || chunk[j] > 0x7e) {
					j++
				}
				if j >= len(chunk) {
					return out, chunk[i:], false
				}
				if key, ok := csiFinal[string(chunk[i+2:j+1])]; ok {
					out = append(out, keys.Named(key))
				}
				i = j + 1
				continue
			}
			out = append(out, keys.Named(keys.Alt))
			i++
		case b == 0x03:
			return out, nil, true
		case b == '\r' || b == '\n':
			out = append(out, keys.Named(keys.Enter))
			i++
		case b == '\t':
			out = append(out, keys.Named(keys.Tab))
			i++
		case b == 0x7f || b == 0x08:
			out = append(out, keys.Named(keys.Backspace))
			i++
		case b == ' ':
			out = append(out, keys.Named(keys.Space))
			i++
		case b >= 0x01 && b <= 0x1a:
			out = append(out, keys.Named(keys.Ctrl), keys.Char(string(rune('a'+b-1))))
			i++
		case b < 0x20:
			i++
		default:
			if !utf8.FullRune(chunk[i:]) {
				return out, chunk[i:], false
			}
			r, size := utf8.DecodeRune(chunk[i:])
			if r != utf8.RuneError || size > 1 {
				out = append(out, keys.Char(string(r)))
			}
			i += size
		}
	}
	return out, nil, false
}
