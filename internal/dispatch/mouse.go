package dispatch

import (
	"math"
	"slices"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/shape"
)

const (
	// drivingDecay pulls the driving position back to centre each tick.
	drivingDecay = 0.9
	// below this a smoothed delta counts as no motion
	motionEpsilon = 0.01
)

// mouseState smooths the motion of one mouse for one controller.
type mouseState struct {
	opts     binding.MouseOptions
	ring     [2][]float64
	pos      int
	filtered [2]float64
	driving  [2]float64
	last     [2]int
}

func newMouseState(opts binding.MouseOptions) *mouseState {
	m := &mouseState{opts: opts}
	if n := opts.BufferSize; n > 1 {
		m.ring[0] = make([]float64, n)
		m.ring[1] = make([]float64, n)
	}
	return m
}

// smooth spreads a delta over the buffer and applies the exponential
// filter: out = in*(1-f) + previous*f.
func (m *mouseState) smooth(delta [2]float64) [2]float64 {
	out := delta
	if n := len(m.ring[0]); n > 0 {
		for axis := range 2 {
			m.ring[axis][m.pos] = delta[axis]
			sum := 0.0
			for _, v := range m.ring[axis] {
				sum += v
			}
			out[axis] = sum / float64(n)
		}
		m.pos = (m.pos + 1) % n
	}
	if f := m.opts.Filter; f > 0 && f <= 1 {
		for axis := range 2 {
			out[axis] = out[axis]*(1-f) + m.filtered[axis]*f
			m.filtered[axis] = out[axis]
		}
	}
	for axis := range 2 {
		if math.Abs(out[axis]) < motionEpsilon {
			out[axis] = 0
			m.filtered[axis] = 0
		}
	}
	return out
}

// drainMouse hands the motion accumulated since the last tick to every
// controller with a mouse binding, then clears the accumulators.
func (d *Dispatcher) drainMouse() {
	for c := range d.ctrl {
		cfg := d.board.Config(c)
		if cfg == nil {
			continue
		}
		cs := d.ctrl[c]
		for dev := range d.motion {
			if _, ok := cs.mice[dev]; !ok && d.mouseBound(cfg, dev) {
				cs.mice[dev] = newMouseState(cfg.MouseOptionsFor(dev))
			}
		}
		devs := make([]int, 0, len(cs.mice))
		for dev := range cs.mice {
			devs = append(devs, dev)
		}
		slices.Sort(devs)
		for _, dev := range devs {
			var delta [2]float64
			if acc := d.motion[dev]; acc != nil {
				delta = *acc
			}
			d.moveMouse(c, cfg, dev, delta)
		}
	}
	for _, acc := range d.motion {
		*acc = [2]float64{}
	}
}

func (d *Dispatcher) mouseBound(cfg *binding.Configuration, dev int) bool {
	for code := range 2 {
		if _, ok := cfg.Bindings.Lookup(mouseAxis(dev, code)); ok {
			return true
		}
	}
	return false
}

func mouseAxis(dev, code int) binding.EventID {
	return binding.EventID{Device: binding.DeviceID{Type: binding.Mouse, ID: dev}, Kind: binding.Axis, Code: code}
}

// moveMouse applies one tick of smoothed motion. Aiming forwards the delta
// through the mouse curve; Driving integrates it into a position that
// decays back to centre.
func (d *Dispatcher) moveMouse(c int, cfg *binding.Configuration, dev int, delta [2]float64) {
	ms := d.ctrl[c].mice[dev]
	v := ms.smooth(delta)
	st := d.board.State(c)

	for code := range 2 {
		b, ok := cfg.Bindings.Lookup(mouseAxis(dev, code))
		if !ok {
			continue
		}
		ab, ok := b.(binding.AxisBinding)
		if !ok {
			continue
		}
		p := ab.Params.WithGain(d.dpiGain(c, ab.Params))

		var out float64
		if ms.opts.Mode == binding.Driving {
			pos := ms.driving[code]*drivingDecay + v[code]*p.Gain()
			pos = math.Max(-100, math.Min(100, pos))
			if math.Abs(pos) < motionEpsilon {
				pos = 0
			}
			ms.driving[code] = pos
			out = drivingOutput(pos, p.DeadZone)
		} else {
			out = shape.MouseCurve(v[code], p)
		}

		o := int(math.Round(out)) * ab.Target.Direction.Sign()
		if o == 0 && ms.last[code] == 0 {
			continue
		}
		ms.last[code] = o
		st.Set(ab.Target.Axis, o)
	}
}

// drivingOutput offsets a driving position past the dead zone.
func drivingOutput(pos float64, deadZone int) float64 {
	if pos == 0 {
		return 0
	}
	dz := float64(max(0, min(deadZone, 99)))
	m := dz + math.Abs(pos)*(100-dz)/100
	if pos < 0 {
		return -m
	}
	return m
}

// dpiGain rescales a multiplier tuned at the profile's DPI to the mice in
// use: (profile/actual)^exponent.
func (d *Dispatcher) dpiGain(c int, p shape.Params) float64 {
	profile := d.board.DPI(c)
	if profile <= 0 || d.opts.MouseDPI <= 0 {
		return 1
	}
	exp := p.Exponent
	if exp <= 0 {
		exp = 1
	}
	return math.Pow(float64(profile)/float64(d.opts.MouseDPI), exp)
}
