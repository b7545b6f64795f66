package controller

import (
	"errors"
	"fmt"
	"strings"
)

// Family is the console-side type a controller is presented as.
type Family int

const (
	Joystick Family = iota
	DS3
	DS4
	X360
	XOne
	GPP
)

var familyNames = map[Family]string{
	Joystick: "joystick",
	DS3:      "DS3",
	DS4:      "DS4",
	X360:     "360",
	XOne:     "XOne",
	GPP:      "GPP",
}

var familyAliases = map[string]Family{
	"joystick": Joystick,
	"ds3":      DS3,
	"sixaxis":  DS3,
	"ps3":      DS3,
	"ds4":      DS4,
	"ps4":      DS4,
	"360":      X360,
	"x360":     X360,
	"xbox360":  X360,
	"xone":     XOne,
	"xboxone":  XOne,
	"gpp":      GPP,
	"cronus":   GPP,
}

func (f Family) String() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return fmt.Sprintf("family(%d)", int(f))
}

var ErrUnknownFamily = errors.New("unknown controller family")

// ParseFamily accepts the family names used on the command line and in
// adapter replies, case-insensitively.
func ParseFamily(s string) (Family, error) {
	if f, ok := familyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

var ErrOutOfRange = errors.New("id out of range")

// ControllerIndex converts a 1-based controller id as written in profiles
// and configuration into a 0-based slot index.
func ControllerIndex(id int) (int, error) {
	if id < 1 || id > MaxControllers {
		return 0, fmt.Errorf("%w: controller %d not in [1,%d]", ErrOutOfRange, id, MaxControllers)
	}
	return id - 1, nil
}

// ConfigIndex converts a 1-based configuration id into a 0-based index.
func ConfigIndex(id int) (int, error) {
	if id < 1 || id > MaxConfigurations {
		return 0, fmt.Errorf("%w: configuration %d not in [1,%d]", ErrOutOfRange, id, MaxConfigurations)
	}
	return id - 1, nil
}
