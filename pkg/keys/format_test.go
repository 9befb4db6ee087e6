package keys

import "testing"

func TestFormatSymbolicTable(t *testing.T) {
	cases := map[Key]string{
		Space:     " ",
		Enter:     "\n",
		Tab:       "\t",
		Backspace: "[BACKSPACE]",
		Shift:     "[SHIFT]",
		ShiftL:    "[SHIFT]",
		ShiftR:    "[SHIFT]",
		CtrlL:     "[CTRL]",
		CtrlR:     "[CTRL]",
		AltL:      "[ALT]",
		AltR:      "[ALT]",
		CapsLock:  "[CAPS]",
		Esc:       "[ESC]",
		Up:        "[UP]",
		Down:      "[DOWN]",
		Left:      "[LEFT]",
		Right:     "[RIGHT]",
		Delete:    "[DELETE]",
	}
	for key, expected := range cases {
		t.Run(string(key), func(t *testing.T) {
			if got := Format(Named(key)); got != expected {
				t.Fatalf("expected %q, got %q", expected, got)
			}
		})
	}
}

func TestFormatUnmappedKeyIsUpperCasedTag(t *testing.T) {
	if got := Format(Named("menu")); got != "[MENU]" {
		t.Fatalf("expected [MENU], got %q", got)
	}
	if got := Format(Named("f12")); got != "[F12]" {
		t.Fatalf("expected [F12], got %q", got)
	}
}

func TestFormatCharacterPassThrough(t *testing.T) {
	for _, in := range []string{"a", "A", "é", "ß", "[", " "} {
		if got := Format(Char(in)); got != in {
			t.Fatalf("expected %q unchanged, got %q", in, got)
		}
	}
}

func TestFormatCharacterWinsOverKey(t *testing.T) {
	ev := Event{Char: "x", Key: Esc}
	if got := Format(ev); got != "x" {
		t.Fatalf("expected character path, got %q", got)
	}
	if ev.IsEscape() {
		t.Fatalf("character-bearing event must not count as escape")
	}
}

func TestEventIsEscape(t *testing.T) {
	if !Named(Esc).IsEscape() {
		t.Fatalf("expected esc to be escape")
	}
	if Char("a").IsEscape() {
		t.Fatalf("expected 'a' not to be escape")
	}
}
