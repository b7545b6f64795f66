package binding

import (
	"errors"
	"fmt"
	"math"

	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/shape"
)

// Binding is either a ButtonBinding or an AxisBinding.
type Binding interface {
	isBinding()
}

// ButtonBinding drives an axis from a discrete input. Value is the signed
// percentage written while pressed. Toggle bindings flip on each press and
// ignore releases. Threshold applies to joystick axis halves used as
// buttons: the half counts as pressed beyond it (raw units).
type ButtonBinding struct {
	Target    controller.AxisRef
	Value     int
	Toggle    bool
	Threshold int
}

// AxisBinding drives an axis from an analog input.
type AxisBinding struct {
	Target controller.AxisRef
	Params shape.Params
}

func (ButtonBinding) isBinding() {}
func (AxisBinding) isBinding()   {}

// Entry is one validated line of a binding table.
type Entry struct {
	Event   EventID
	Binding Binding
}

var ErrInvalidEntry = errors.New("invalid binding")

// Table maps event identities to bindings. It is never modified after
// NewTable returns.
type Table struct {
	m map[EventID]Binding
}

// NewTable inserts entries in order; a later entry for the same event
// replaces an earlier one. Any malformed entry fails the whole table.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{m: make(map[EventID]Binding, len(entries))}
	for i, e := range entries {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Event, err)
		}
		t.m[e.Event] = e.Binding
	}
	return t, nil
}

func validate(e Entry) error {
	if e.Event.Device.Type == NoDevice {
		return fmt.Errorf("%w: no device type", ErrInvalidEntry)
	}
	if e.Event.Device.ID < 0 || e.Event.Code < 0 {
		return fmt.Errorf("%w: negative id", ErrInvalidEntry)
	}
	switch b := e.Binding.(type) {
	case ButtonBinding:
		if !b.Target.Axis.Valid() {
			return fmt.Errorf("%w: target %d", ErrInvalidEntry, b.Target.Axis)
		}
		if b.Value < -100 || b.Value > 100 {
			return fmt.Errorf("%w: value %d", ErrInvalidEntry, b.Value)
		}
	case AxisBinding:
		if !b.Target.Axis.Valid() {
			return fmt.Errorf("%w: target %d", ErrInvalidEntry, b.Target.Axis)
		}
		if e.Event.Kind == Button {
			return fmt.Errorf("%w: axis binding on a button event", ErrInvalidEntry)
		}
		if b.Params.DeadZone < 0 || b.Params.DeadZone >= 100 {
			return fmt.Errorf("%w: dead zone %d", ErrInvalidEntry, b.Params.DeadZone)
		}
		if !finite(b.Params.Multiplier) {
			return fmt.Errorf("%w: multiplier %g", ErrInvalidEntry, b.Params.Multiplier)
		}
		if b.Params.Exponent < 0 || !finite(b.Params.Exponent) {
			return fmt.Errorf("%w: exponent %g", ErrInvalidEntry, b.Params.Exponent)
		}
	default:
		return fmt.Errorf("%w: no binding", ErrInvalidEntry)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Lookup is safe on a nil table.
func (t *Table) Lookup(id EventID) (Binding, bool) {
	if t == nil {
		return nil, false
	}
	b, ok := t.m[id]
	return b, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.m)
}
