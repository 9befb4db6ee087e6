// Package keys defines the key event token delivered by input sources and the
// formatter that turns it into log text.
package keys

// Key is the symbolic identifier of a non-character key.
type Key string

// Symbolic identifiers understood by the formatter. Sources may emit other
// identifiers; they are rendered as an upper-cased tag.
const (
	Space     Key = "space"
	Enter     Key = "enter"
	Tab       Key = "tab"
	Backspace Key = "backspace"
	Shift     Key = "shift"
	ShiftL    Key = "shift_l"
	ShiftR    Key = "shift_r"
	Ctrl      Key = "ctrl"
	CtrlL     Key = "ctrl_l"
	CtrlR     Key = "ctrl_r"
	Alt       Key = "alt"
	AltL      Key = "alt_l"
	AltR      Key = "alt_r"
	AltGr     Key = "alt_gr"
	CapsLock  Key = "caps_lock"
	Esc       Key = "esc"
	Up        Key = "up"
	Down      Key = "down"
	Left      Key = "left"
	Right     Key = "right"
	Delete    Key = "delete"
)

// Event is one physical key action. Exactly one of Char or Key is meaningful:
// Char wins when it is set.
type Event struct {
	Char string
	Key  Key
}

// Char builds a character-bearing event.
func Char(s string) Event {
	return Event{Char: s}
}

// Named builds a symbolic event.
func Named(k Key) Event {
	return Event{Key: k}
}

// IsEscape reports whether the event is the Escape key on the symbolic path.
func (e Event) IsEscape() bool {
	return e.Char == "" && e.Key == Esc
}

// String renders the event for diagnostics.
func (e Event) String() string {
	if e.Char != "" {
		return "char(" + e.Char + ")"
	}
	return "key(" + string(e.Key) + ")"
}
