package shape

import "math"

// Level is the runtime value of an intensity: the magnitude a
// button-driven axis is pushed to, adjusted in fixed steps between the
// dead zone and full scale.
type Level struct {
	deadZone float64
	step     float64
	value    float64
}

// NewLevel starts at full scale. steps below 1 count as 1.
func NewLevel(deadZone, steps int) *Level {
	if steps < 1 {
		steps = 1
	}
	dz := Params{DeadZone: deadZone}.deadZone()
	return &Level{
		deadZone: dz,
		step:     (100 - dz) / float64(steps),
		value:    100,
	}
}

func (l *Level) Up() {
	l.value = math.Min(l.value+l.step, 100)
}

// Down stops one step above the dead zone; a level at the dead zone itself
// would make the button a no-op.
func (l *Level) Down() {
	l.value = math.Max(l.value-l.step, l.deadZone+l.step)
}

// Cycle steps up and wraps to the first step above the dead zone once full
// scale has been passed. Used when one button drives both directions.
func (l *Level) Cycle() {
	if l.value >= 100-1e-9 {
		l.value = l.deadZone + l.step
		return
	}
	l.Up()
}

// Value is the current magnitude in percent.
func (l *Level) Value() int {
	return int(math.Round(l.value))
}
