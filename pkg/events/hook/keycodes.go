package hook

import "github.com/offlinefirst/keylog/pkg/keys"

// libuiohook virtual key codes for keys that do not produce a typed
// character. Character keys are reported through typed events instead.
var namedCodes = map[uint16]keys.Key{
	0x0001: keys.Esc,
	0x000E: keys.Backspace,
	0x000F: keys.Tab,
	0x001C: keys.Enter,
	0x0E1C: keys.Enter, // keypad
	0x0039: keys.Space,
	0x003A: keys.CapsLock,
	0x002A: keys.ShiftL,
	0x0036: keys.ShiftR,
	0x001D: keys.CtrlL,
	0x0E1D: keys.CtrlR,
	0x0038: keys.AltL,
	0x0E38: keys.AltR,
	0xE048: keys.Up,
	0xE050: keys.Down,
	0xE04B: keys.Left,
	0xE04D: keys.Right,
	0x0E53: keys.Delete,
	0x0E52: "insert",
	0x0E47: "home",
	0x0E4F: "end",
	0x0E49: "page_up",
	0x0E51: "page_down",
	0x0E5B: "cmd",
	0x0E5C: "cmd_r",
	0x0E5D: "menu",
	0x0045: "num_lock",
	0x0046: "scroll_lock",
	0x0E37: "print_screen",
	0x0E45: "pause",
	0x003B: "f1",
	0x003C: "f2",
	0x003D: "f3",
	0x003E: "f4",
	0x003F: "f5",
	0x0040: "f6",
	0x0041: "f7",
	0x0042: "f8",
	0x0043: "f9",
	0x0044: "f10",
	0x0057: "f11",
	0x0058: "f12",
}

// namedKey resolves a keycode to a symbolic key when it has one.
func namedKey(code uint16) (keys.Key, bool) {
	k, ok := namedCodes[code]
	return k, ok
}
