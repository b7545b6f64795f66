// Package binding holds the immutable mapping model: which physical event
// drives which controller axis, per controller and configuration.
package binding

import (
	"fmt"
	"strings"
)

// DeviceType is the class of a physical input device.
type DeviceType uint8

const (
	NoDevice DeviceType = iota
	Keyboard
	Mouse
	Joystick
)

func (t DeviceType) String() string {
	switch t {
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	case Joystick:
		return "joystick"
	}
	return "none"
}

// ParseDeviceType reads the device type attribute of a profile.
func ParseDeviceType(s string) (DeviceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyboard":
		return Keyboard, true
	case "mouse":
		return Mouse, true
	case "joystick":
		return Joystick, true
	}
	return NoDevice, false
}

// DeviceID identifies one device. Keyboard and mouse ids are 0 in
// single-input mode; joystick ids are resolved at load time.
type DeviceID struct {
	Type DeviceType
	ID   int
}

func (d DeviceID) String() string {
	return fmt.Sprintf("%s:%d", d.Type, d.ID)
}

// EventKind distinguishes edges from motion and the two halves of an axis.
type EventKind uint8

const (
	Button EventKind = iota
	AxisIncreasing
	AxisDecreasing
	Axis
)

func (k EventKind) String() string {
	switch k {
	case AxisIncreasing:
		return "axis up"
	case AxisDecreasing:
		return "axis down"
	case Axis:
		return "axis"
	}
	return "button"
}

// ParseEventKind reads the event type attribute of a profile.
func ParseEventKind(s string) (EventKind, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "button":
		return Button, true
	case "axis":
		return Axis, true
	case "axis up":
		return AxisIncreasing, true
	case "axis down":
		return AxisDecreasing, true
	}
	return 0, false
}

// EventID is the lookup key of the binding table.
type EventID struct {
	Device DeviceID
	Kind   EventKind
	Code   int
}

func (e EventID) String() string {
	return fmt.Sprintf("%s/%s/%d", e.Device, e.Kind, e.Code)
}
