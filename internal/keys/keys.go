// Package keys maps the symbolic key and mouse button names used in
// profiles and macro files to the codes carried by input events. Keyboard
// codes are Linux input event codes.
package keys

import (
	"strings"
)

var keyCodes = map[string]int{
	"escape": 1, "esc": 1,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"minus": 12, "equal": 13, "backspace": 14, "tab": 15,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"bracketleft": 26, "bracketright": 27, "return": 28, "enter": 28,
	"control_l": 29, "leftctrl": 29,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"semicolon": 39, "apostrophe": 40, "grave": 41,
	"shift_l": 42, "leftshift": 42, "backslash": 43,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"comma": 51, "period": 52, "slash": 53,
	"shift_r": 54, "rightshift": 54, "kp_multiply": 55,
	"alt_l": 56, "leftalt": 56, "space": 57, "caps_lock": 58, "capslock": 58,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"num_lock": 69, "scroll_lock": 70,
	"kp_7": 71, "kp_8": 72, "kp_9": 73, "kp_subtract": 74,
	"kp_4": 75, "kp_5": 76, "kp_6": 77, "kp_add": 78,
	"kp_1": 79, "kp_2": 80, "kp_3": 81, "kp_0": 82, "kp_decimal": 83,
	"less": 86, "f11": 87, "f12": 88,
	"kp_enter": 96, "control_r": 97, "rightctrl": 97, "kp_divide": 98,
	"print": 99, "alt_r": 100, "rightalt": 100,
	"home": 102, "up": 103, "page_up": 104, "prior": 104,
	"left": 105, "right": 106, "end": 107,
	"down": 108, "page_down": 109, "next": 109, "insert": 110, "delete": 111,
	"pause": 119, "super_l": 125, "leftmeta": 125, "super_r": 126, "rightmeta": 126, "menu": 127,
}

var keyNames = func() map[int]string {
	names := make(map[int]string, len(keyCodes))
	for n, c := range keyCodes {
		if cur, ok := names[c]; !ok || len(n) < len(cur) || (len(n) == len(cur) && n < cur) {
			names[c] = n
		}
	}
	return names
}()

// Key returns the code of a key name. Names are case-insensitive.
func Key(name string) (int, bool) {
	c, ok := keyCodes[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// KeyName returns the shortest name of code, or "" when unknown.
func KeyName(code int) string {
	return keyNames[code]
}

// Mouse button codes. The wheel is reported as a pair of buttons.
const (
	ButtonLeft = iota
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
	WheelUp    = 8
	WheelDown  = 9
	WheelLeft  = 10
	WheelRight = 11
)

var mouseButtons = map[string]int{
	"button_left":   ButtonLeft,
	"left":          ButtonLeft,
	"button_right":  ButtonRight,
	"right":         ButtonRight,
	"button_middle": ButtonMiddle,
	"middle":        ButtonMiddle,
	"button_x1":     ButtonX1,
	"button_x2":     ButtonX2,
	"wheel_up":      WheelUp,
	"wheel_down":    WheelDown,
	"wheel_left":    WheelLeft,
	"wheel_right":   WheelRight,
}

// MouseButton returns the code of a mouse button name.
func MouseButton(name string) (int, bool) {
	c, ok := mouseButtons[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Mouse motion codes.
const (
	MotionX = 0
	MotionY = 1
)

// MouseAxis resolves "x" and "y".
func MouseAxis(name string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x":
		return MotionX, true
	case "y":
		return MotionY, true
	}
	return 0, false
}
