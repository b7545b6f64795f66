// Package event defines the normalized input events produced by the
// capture backends and consumed by the dispatcher.
package event

import (
	"fmt"
	"time"

	"github.com/soar/padmapper/internal/binding"
)

type Type uint8

const (
	KeyDown Type = iota + 1
	KeyUp
	MouseButtonDown
	MouseButtonUp
	// MouseMotion carries a relative delta; Code 0 is x, 1 is y.
	MouseMotion
	JoyButtonDown
	JoyButtonUp
	// JoyAxis carries an absolute value in the int16 range.
	JoyAxis
	// JoyHat carries the hat bitmask; Code is the hat index.
	JoyHat
)

var typeNames = map[Type]string{
	KeyDown:         "KeyDown",
	KeyUp:           "KeyUp",
	MouseButtonDown: "MouseButtonDown",
	MouseButtonUp:   "MouseButtonUp",
	MouseMotion:     "MouseMotion",
	JoyButtonDown:   "JoyButtonDown",
	JoyButtonUp:     "JoyButtonUp",
	JoyAxis:         "JoyAxis",
	JoyHat:          "JoyHat",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Hat direction bits.
const (
	HatUp    = 0x01
	HatRight = 0x02
	HatDown  = 0x04
	HatLeft  = 0x08
)

// AxisRange is the magnitude of a full joystick axis deflection.
const AxisRange = 32767

// Event is one input record. Device is the device index as enumerated by
// the capture backend. Synthetic marks events generated by macros.
type Event struct {
	Type      Type
	Device    int
	Code      int
	Value     int
	Time      time.Time
	Synthetic bool
}

func (e Event) String() string {
	return fmt.Sprintf("%s dev=%d code=%d value=%d", e.Type, e.Device, e.Code, e.Value)
}

// DeviceType is the class of device that produced e.
func (e Event) DeviceType() binding.DeviceType {
	switch e.Type {
	case KeyDown, KeyUp:
		return binding.Keyboard
	case MouseButtonDown, MouseButtonUp, MouseMotion:
		return binding.Mouse
	case JoyButtonDown, JoyButtonUp, JoyAxis, JoyHat:
		return binding.Joystick
	}
	return binding.NoDevice
}

// Pressed reports whether e is a press edge.
func (e Event) Pressed() bool {
	return e.Type == KeyDown || e.Type == MouseButtonDown || e.Type == JoyButtonDown
}

// IsButton reports whether e is a press or release edge.
func (e Event) IsButton() bool {
	switch e.Type {
	case KeyDown, KeyUp, MouseButtonDown, MouseButtonUp, JoyButtonDown, JoyButtonUp:
		return true
	}
	return false
}

// Button builds a press or release edge for a device type.
func Button(t binding.DeviceType, device, code int, pressed bool) Event {
	ev := Event{Device: device, Code: code}
	switch t {
	case binding.Keyboard:
		ev.Type = KeyUp
		if pressed {
			ev.Type = KeyDown
		}
	case binding.Mouse:
		ev.Type = MouseButtonUp
		if pressed {
			ev.Type = MouseButtonDown
		}
	default:
		ev.Type = JoyButtonUp
		if pressed {
			ev.Type = JoyButtonDown
		}
	}
	if pressed {
		ev.Value = 1
	}
	return ev
}
