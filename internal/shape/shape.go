// Package shape implements the response curves applied to analog inputs
// before they reach the controller state.
package shape

import (
	"math"
	"strings"
)

// Shape selects how a stick pair combines its two axes.
type Shape uint8

const (
	Circle Shape = iota
	Rectangle
)

func (s Shape) String() string {
	if s == Rectangle {
		return "Rectangle"
	}
	return "Circle"
}

// Parse returns the shape named s. An empty name is Circle. Any other
// unknown name is also Circle but reported with ok=false.
func Parse(s string) (Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "circle":
		return Circle, true
	case "rectangle":
		return Rectangle, true
	}
	return Circle, false
}

// Params are the transform parameters of one axis binding. Zero Multiplier
// and Exponent mean 1.
type Params struct {
	DeadZone   int
	Multiplier float64
	Exponent   float64
	Shape      Shape
}

func (p Params) multiplier() float64 {
	if p.Multiplier == 0 {
		return 1
	}
	return p.Multiplier
}

func (p Params) exponent() float64 {
	if p.Exponent <= 0 {
		return 1
	}
	return p.Exponent
}

// WithGain returns p with its multiplier scaled by g.
func (p Params) WithGain(g float64) Params {
	p.Multiplier = p.multiplier() * g
	return p
}

// Gain is the effective multiplier.
func (p Params) Gain() float64 {
	return p.multiplier()
}

func (p Params) deadZone() float64 {
	switch {
	case p.DeadZone < 0:
		return 0
	case p.DeadZone > 99:
		return 99
	}
	return float64(p.DeadZone)
}

// Scale converts raw into a percentage of max, clamped to [-100,100].
func Scale(raw, max int) int {
	if max <= 0 {
		return 0
	}
	return clamp(raw * 100 / max)
}

// Apply scales raw against max and runs the result through Curve.
func Apply(raw, max int, p Params) int {
	return Curve(Scale(raw, max), p)
}

// Curve shapes a percentage: dead zone with rescale, exponent, multiplier,
// then a final clamp to [-100,100]. Curve(0, p) is 0 for every p.
func Curve(v int, p Params) int {
	if v == 0 {
		return 0
	}
	mag := curve(math.Abs(float64(clamp(v))), p)
	if v < 0 {
		mag = -mag
	}
	return clamp(int(math.Round(mag)))
}

// curve maps a magnitude in [0,100].
func curve(mag float64, p Params) float64 {
	dz := p.deadZone()
	if mag <= dz || mag <= float64(p.DeadZone) {
		return 0
	}
	m := (mag - dz) * 100 / (100 - dz)
	m = math.Pow(m/100, p.exponent()) * 100
	return m * p.multiplier()
}

// ApplyPair shapes the percentages of a stick pair. Circle computes the dead
// zone and clamp on the vector length and keeps the direction; Rectangle
// shapes each axis on its own.
func ApplyPair(x, y int, p Params) (int, int) {
	if p.Shape == Rectangle {
		return Curve(x, p), Curve(y, p)
	}
	fx, fy := float64(clamp(x)), float64(clamp(y))
	length := math.Hypot(fx, fy)
	if length == 0 {
		return 0, 0
	}
	out := curve(math.Min(length, 100), p)
	return clamp(int(math.Round(fx / length * out))), clamp(int(math.Round(fy / length * out)))
}

// Digital returns the magnitude of a stick axis driven by a button. When
// the other axis of the stick is held too and the shape is Circle the
// magnitude is scaled so the diagonal stays on the unit circle.
func Digital(level int, partnerHeld bool, s Shape) int {
	if partnerHeld && s == Circle {
		return int(math.Round(float64(level) * math.Sqrt2 / 2))
	}
	return level
}

// MouseCurve converts a mouse delta into a percentage:
// sign(d) * (dead_zone + multiplier * |d|^exponent), clamped.
func MouseCurve(delta float64, p Params) float64 {
	if delta == 0 {
		return 0
	}
	m := p.deadZone() + p.multiplier()*math.Pow(math.Abs(delta), p.exponent())
	m = math.Min(m, 100)
	if delta < 0 {
		return -m
	}
	return m
}

func clamp(v int) int {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
