package controller

import "sync/atomic"

// State holds the axis values of one controller in percent: relative axes
// in [-100,100], absolute axes in [0,100]. Every slot is written on its own,
// so a reader on another goroutine never observes a torn value.
type State struct {
	axes [AxisMax]atomic.Int32
}

// Set stores v for axis a, clamped to the axis range.
func (s *State) Set(a Axis, v int) {
	if !a.Valid() {
		return
	}
	s.axes[a].Store(int32(Clamp(a, v)))
}

func (s *State) Get(a Axis) int {
	if !a.Valid() {
		return 0
	}
	return int(s.axes[a].Load())
}

// Snapshot copies every slot.
func (s *State) Snapshot() [AxisMax]int32 {
	var out [AxisMax]int32
	for i := range s.axes {
		out[i] = s.axes[i].Load()
	}
	return out
}

// Reset zeroes all axes.
func (s *State) Reset() {
	for i := range s.axes {
		s.axes[i].Store(0)
	}
}

// Clamp limits v to the range of axis a.
func Clamp(a Axis, v int) int {
	lo := -100
	if !a.Relative() {
		lo = 0
	}
	if v < lo {
		return lo
	}
	if v > 100 {
		return 100
	}
	return v
}
