package dispatch

import (
	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/shape"
)

// processAxis maps a joystick axis through its full-axis binding and the
// bindings of its two halves, then reports half edges to the inspectors.
func (d *Dispatcher) processAxis(ev event.Event) {
	dev := d.device(ev)
	full := binding.EventID{Device: dev, Kind: binding.Axis, Code: ev.Code}
	up := binding.EventID{Device: dev, Kind: binding.AxisIncreasing, Code: ev.Code}
	down := binding.EventID{Device: dev, Kind: binding.AxisDecreasing, Code: ev.Code}
	upValue, downValue := max(ev.Value, 0), max(-ev.Value, 0)

	for c := range d.ctrl {
		cfg := d.board.Config(c)
		if cfg == nil {
			continue
		}
		if b, ok := cfg.Bindings.Lookup(full); ok {
			if ab, ok := b.(binding.AxisBinding); ok {
				d.applyAxis(c, ab, ev.Value)
			}
		}
		if b, ok := cfg.Bindings.Lookup(up); ok {
			d.applyHalf(c, cfg, up, b, upValue)
		}
		if b, ok := cfg.Bindings.Lookup(down); ok {
			d.applyHalf(c, cfg, down, b, downValue)
		}
	}

	for _, h := range []struct {
		id    binding.EventID
		value int
	}{{up, upValue}, {down, downValue}} {
		pressed := h.value > halfThreshold
		if d.inspected[h.id] == pressed {
			continue
		}
		d.inspected[h.id] = pressed
		d.inspect(h.id, pressed, ev)
	}
}

// applyAxis maps a full joystick axis.
func (d *Dispatcher) applyAxis(c int, b binding.AxisBinding, raw int) {
	st := d.board.State(c)
	a := b.Target.Axis
	v := shape.Scale(raw, event.AxisRange)
	if b.Target.Direction == controller.Negative {
		v = -v
	}

	if !a.Relative() {
		// A centred axis spans the whole travel of a pressure control.
		st.Set(a, shape.Curve((v+100)/2, b.Params))
		return
	}
	if _, ok := controller.StickPartner(a); ok {
		d.ctrl[c].stick[a] = stickInput{value: v, params: b.Params, set: true}
		d.refreshStick(c, a)
		return
	}
	st.Set(a, shape.Curve(v, b.Params))
}

// refreshStick shapes a stick axis from the latest analog inputs of both
// axes of its pair. Circle needs the partner's input for the vector length,
// so the partner is recomputed too unless buttons are driving it.
func (d *Dispatcher) refreshStick(c int, a controller.Axis) {
	cs := d.ctrl[c]
	st := d.board.State(c)
	x, _ := controller.StickOf(a)
	y, _ := controller.StickPartner(x)
	in := [2]stickInput{cs.stick[x], cs.stick[y]}

	for i, ax := range []controller.Axis{x, y} {
		s := in[i]
		if !s.set || (ax != a && cs.isHeld(ax)) {
			continue
		}
		var out int
		if s.params.Shape == shape.Circle {
			ox, oy := shape.ApplyPair(in[0].value, in[1].value, s.params)
			out = ox
			if i == 1 {
				out = oy
			}
		} else {
			out = shape.Curve(s.value, s.params)
		}
		st.Set(ax, out)
	}
}

// applyHalf maps one half of a joystick axis, either as an analog source
// or as a button with a threshold.
func (d *Dispatcher) applyHalf(c int, cfg *binding.Configuration, id binding.EventID, b binding.Binding, value int) {
	switch b := b.(type) {
	case binding.AxisBinding:
		a := b.Target.Axis
		out := shape.Curve(shape.Scale(value, event.AxisRange), b.Params)
		if a.Relative() {
			out *= b.Target.Direction.Sign()
		}
		d.board.State(c).Set(a, out)
	case binding.ButtonBinding:
		cs := d.ctrl[c]
		pressed := value > b.Threshold
		if cs.halves[id] == pressed {
			return
		}
		cs.halves[id] = pressed
		d.applyButton(c, cfg, b, pressed)
	}
}
