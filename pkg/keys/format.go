package keys

import "strings"

var symbolic = map[Key]string{
	Space:     " ",
	Enter:     "\n",
	Tab:       "\t",
	Backspace: "[BACKSPACE]",
	Shift:     "[SHIFT]",
	ShiftL:    "[SHIFT]",
	ShiftR:    "[SHIFT]",
	Ctrl:      "[CTRL]",
	CtrlL:     "[CTRL]",
	CtrlR:     "[CTRL]",
	Alt:       "[ALT]",
	AltL:      "[ALT]",
	AltR:      "[ALT]",
	AltGr:     "[ALT]",
	CapsLock:  "[CAPS]",
	Esc:       "[ESC]",
	Up:        "[UP]",
	Down:      "[DOWN]",
	Left:      "[LEFT]",
	Right:     "[RIGHT]",
	Delete:    "[DELETE]",
}

// Format maps an event to its log text. It never fails: unknown identifiers
// become "[NAME]".
func Format(e Event) string {
	if e.Char != "" {
		return e.Char
	}
	if text, ok := symbolic[e.Key]; ok {
		return text
	}
	return "[" + strings.ToUpper(string(e.Key)) + "]"
}
