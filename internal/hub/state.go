package hub

import (
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/engine"
)

// ControllerState is the monitor view of one controller. Ids are 1-based.
type ControllerState struct {
	Controller int              `json:"controller"`
	Family     string           `json:"family"`
	Config     int              `json:"config"`
	Configured []int            `json:"configured"`
	Axes       map[string]int32 `json:"axes"`
}

// DeltaChanges holds the fields of a controller that changed since the
// previous message.
type DeltaChanges struct {
	Controller int              `json:"controller"`
	Family     *string          `json:"family,omitempty"`
	Config     *int             `json:"config,omitempty"`
	Configured []int            `json:"configured,omitempty"`
	Axes       map[string]int32 `json:"axes,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Family == nil &&
		d.Config == nil &&
		d.Configured == nil &&
		len(d.Axes) == 0
}

// frame is a snapshot kept in engine units for cheap comparison.
type frame struct {
	engine.Snapshot
	valid bool
}

// NewControllerState converts an engine snapshot.
func NewControllerState(s engine.Snapshot) ControllerState {
	st := ControllerState{
		Controller: s.Controller + 1,
		Family:     s.Family.String(),
		Config:     s.Config + 1,
		Configured: oneBased(s.Configured),
		Axes:       make(map[string]int32, controller.AxisMax),
	}
	for a := controller.Axis(0); a < controller.AxisMax; a++ {
		st.Axes[a.String()] = s.Axes[a]
	}
	return st
}

// ComputeDelta compares two snapshots of the same controller.
func ComputeDelta(old frame, new_ engine.Snapshot) *DeltaChanges {
	d := &DeltaChanges{Controller: new_.Controller + 1}
	if !old.valid || old.Family != new_.Family {
		f := new_.Family.String()
		d.Family = &f
	}
	if !old.valid || old.Config != new_.Config {
		c := new_.Config + 1
		d.Config = &c
	}
	if !old.valid || !equalInts(old.Configured, new_.Configured) {
		d.Configured = oneBased(new_.Configured)
		if d.Configured == nil {
			d.Configured = []int{}
		}
	}
	for a := controller.Axis(0); a < controller.AxisMax; a++ {
		if old.valid && old.Axes[a] == new_.Axes[a] {
			continue
		}
		if d.Axes == nil {
			d.Axes = make(map[string]int32)
		}
		d.Axes[a.String()] = new_.Axes[a]
	}
	return d
}

func oneBased(ids []int) []int {
	if ids == nil {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = id + 1
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
