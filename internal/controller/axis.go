// Package controller describes the emulated gamepad: its axes, the console
// families it can be presented as and the per-controller axis state.
package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxControllers    = 7
	MaxConfigurations = 8
)

// Axis indexes one slot of the controller axis state. Sticks and motion
// sensors are relative (centred, signed); buttons and pressure-sensitive
// controls are absolute.
type Axis int

const (
	LStickX Axis = iota
	LStickY
	RStickX
	RStickY
	AccX
	AccY
	AccZ
	Gyro
	Select
	Start
	PS
	Up
	Right
	Down
	Left
	Triangle
	Circle
	Cross
	Square
	L1
	R1
	L2
	R2
	L3
	R3
	Touchpad
	AxisMax
)

// first absolute axis
const absBase = Select

var axisNames = [AxisMax]string{
	"lstick x", "lstick y", "rstick x", "rstick y",
	"acc x", "acc y", "acc z", "gyro",
	"select", "start", "PS",
	"up", "right", "down", "left",
	"triangle", "circle", "cross", "square",
	"l1", "r1", "l2", "r2", "l3", "r3",
	"touchpad",
}

func (a Axis) String() string {
	if a < 0 || a >= AxisMax {
		return "axis(" + strconv.Itoa(int(a)) + ")"
	}
	return axisNames[a]
}

// Relative reports whether the axis is centred on zero.
func (a Axis) Relative() bool {
	return a >= 0 && a < absBase
}

// Valid reports whether a indexes a state slot.
func (a Axis) Valid() bool {
	return a >= 0 && a < AxisMax
}

// Direction selects one half of a relative axis.
type Direction int8

const (
	Centered Direction = iota
	Negative
	Positive
)

// Sign returns -1 for Negative and 1 otherwise.
func (d Direction) Sign() int {
	if d == Negative {
		return -1
	}
	return 1
}

// AxisRef names an axis and, for relative axes, optionally one of its halves.
type AxisRef struct {
	Axis      Axis
	Direction Direction
}

func (r AxisRef) String() string {
	switch r.Direction {
	case Negative:
		return r.Axis.String() + "-"
	case Positive:
		return r.Axis.String() + "+"
	}
	return r.Axis.String()
}

var ErrUnknownAxis = errors.New("unknown axis")

// ParseAxis resolves an axis name as written in profiles. Besides the
// canonical names it accepts the numbered forms rel_axis_N and abs_axis_N
// and a trailing "-" or "+" selecting one half of a relative axis.
func ParseAxis(name string) (AxisRef, error) {
	s := strings.TrimSpace(name)
	ref := AxisRef{}
	switch {
	case strings.HasSuffix(s, "-"):
		ref.Direction = Negative
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(s, "+"):
		ref.Direction = Positive
		s = strings.TrimSpace(s[:len(s)-1])
	}

	a, ok := lookupAxis(s)
	if !ok {
		return AxisRef{}, fmt.Errorf("%w: %q", ErrUnknownAxis, name)
	}
	if ref.Direction != Centered && !a.Relative() {
		return AxisRef{}, fmt.Errorf("%w: %q has no direction", ErrUnknownAxis, name)
	}
	ref.Axis = a
	return ref, nil
}

func lookupAxis(s string) (Axis, bool) {
	for i, n := range axisNames {
		if strings.EqualFold(n, s) {
			return Axis(i), true
		}
	}
	if n, ok := strings.CutPrefix(s, "rel_axis_"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= int(absBase) {
			return 0, false
		}
		return Axis(i), true
	}
	if n, ok := strings.CutPrefix(s, "abs_axis_"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 || i >= int(AxisMax-absBase) {
			return 0, false
		}
		return absBase + Axis(i), true
	}
	return 0, false
}

// StickPartner returns the other axis of a stick pair.
func StickPartner(a Axis) (Axis, bool) {
	switch a {
	case LStickX:
		return LStickY, true
	case LStickY:
		return LStickX, true
	case RStickX:
		return RStickY, true
	case RStickY:
		return RStickX, true
	}
	return 0, false
}

// StickOf returns the X axis of the stick a belongs to.
func StickOf(a Axis) (Axis, bool) {
	switch a {
	case LStickX, LStickY:
		return LStickX, true
	case RStickX, RStickY:
		return RStickX, true
	}
	return 0, false
}
