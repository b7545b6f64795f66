// Package dispatch turns input events into controller state. It runs on a
// single goroutine; nothing on its path blocks or fails.
package dispatch

import (
	"log/slog"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/shape"
	"github.com/soar/padmapper/internal/switchboard"
)

// Triggers inspects every button edge after mapping.
type Triggers interface {
	Check(id binding.EventID, pressed bool, now time.Time)
	Poll(now time.Time)
}

// Macros inspects non-synthetic button edges after triggers.
type Macros interface {
	Lookup(id binding.EventID, pressed bool, now time.Time)
	Poll(now time.Time) []event.Event
}

type Options struct {
	// SingleInput collapses every keyboard and mouse to id 0.
	SingleInput bool
	// HatBase returns the button count of a joystick; hat directions are
	// numbered after it. Nil means 0.
	HatBase func(joystick int) int
	// MouseDPI is the resolution of the mice in use, 0 when unknown.
	MouseDPI int
	Triggers Triggers
	Macros   Macros
	Logger   *slog.Logger
}

// halfThreshold is where a joystick axis half counts as pressed for
// triggers and macros.
const halfThreshold = event.AxisRange / 2

type hatKey struct {
	joystick, hat int
}

type Dispatcher struct {
	board *switchboard.Board
	opts  Options
	log   *slog.Logger

	hats map[hatKey]uint8

	// inspected is the last half edge reported to the inspectors per axis
	// half, independent of any controller's binding state.
	inspected map[binding.EventID]bool
	motion    map[int]*[2]float64
	ctrl      [controller.MaxControllers]*ctrlState
}

func New(board *switchboard.Board, opts Options) *Dispatcher {
	d := &Dispatcher{
		board:     board,
		opts:      opts,
		log:       opts.Logger,
		hats:      make(map[hatKey]uint8),
		inspected: make(map[binding.EventID]bool),
		motion:    make(map[int]*[2]float64),
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	for c := range d.ctrl {
		d.ctrl[c] = newCtrlState()
	}
	board.OnSwitch(d.switched)
	return d
}

// switched drops everything derived from the previous configuration so no
// input stays stuck across a switch.
func (d *Dispatcher) switched(c, from, to int) {
	d.ctrl[c] = newCtrlState()
	d.board.State(c).Reset()
	d.log.Debug("controller state reset", "controller", c+1, "config", to+1)
}

// SetSingleInput changes the device id policy, used after a profile reload.
func (d *Dispatcher) SetSingleInput(v bool) {
	d.opts.SingleInput = v
}

func (d *Dispatcher) device(ev event.Event) binding.DeviceID {
	t := ev.DeviceType()
	id := ev.Device
	if d.opts.SingleInput && (t == binding.Keyboard || t == binding.Mouse) {
		id = 0
	}
	return binding.DeviceID{Type: t, ID: id}
}

// Process handles one event: mapping, then trigger check, then intensity
// and macro lookup. Hat changes are split into button edges first.
func (d *Dispatcher) Process(ev event.Event) {
	switch ev.Type {
	case event.JoyHat:
		d.processHat(ev)
		return
	case event.MouseMotion:
		if ev.Code == 0 || ev.Code == 1 {
			dev := d.device(ev).ID
			acc := d.motion[dev]
			if acc == nil {
				acc = new([2]float64)
				d.motion[dev] = acc
			}
			acc[ev.Code] += float64(ev.Value)
		}
		return
	case event.JoyAxis:
		d.processAxis(ev)
		return
	}
	if !ev.IsButton() {
		return
	}

	id := binding.EventID{Device: d.device(ev), Kind: binding.Button, Code: ev.Code}
	pressed := ev.Pressed()
	for c := range d.ctrl {
		cfg := d.board.Config(c)
		if cfg == nil {
			continue
		}
		if b, ok := cfg.Bindings.Lookup(id); ok {
			if bb, ok := b.(binding.ButtonBinding); ok {
				d.applyButton(c, cfg, bb, pressed)
			}
		}
	}
	d.inspect(id, pressed, ev)
}

// inspect runs the lookups that see every edge regardless of mapping.
func (d *Dispatcher) inspect(id binding.EventID, pressed bool, ev event.Event) {
	if d.opts.Triggers != nil {
		d.opts.Triggers.Check(id, pressed, ev.Time)
	}
	if pressed {
		d.intensity(id)
	}
	if d.opts.Macros != nil && !ev.Synthetic {
		d.opts.Macros.Lookup(id, pressed, ev.Time)
	}
}

func (d *Dispatcher) processHat(ev event.Event) {
	key := hatKey{joystick: ev.Device, hat: ev.Code}
	cur := uint8(ev.Value) & 0x0F
	prev := d.hats[key]
	d.hats[key] = cur

	base := 0
	if d.opts.HatBase != nil {
		base = d.opts.HatBase(ev.Device)
	}
	for _, e := range DecomposeHat(prev, cur, base, ev.Code) {
		sub := event.Button(binding.Joystick, ev.Device, e.Code, e.Pressed)
		sub.Time = ev.Time
		sub.Synthetic = ev.Synthetic
		d.Process(sub)
	}
}

// Tick drains mouse motion into the controllers, fires due trigger
// reverts and plays due macro steps.
func (d *Dispatcher) Tick(now time.Time) {
	d.drainMouse()
	if d.opts.Triggers != nil {
		d.opts.Triggers.Poll(now)
	}
	if d.opts.Macros != nil {
		for _, ev := range d.opts.Macros.Poll(now) {
			d.Process(ev)
		}
	}
}

// applyButton drives the target of a button binding from one edge.
func (d *Dispatcher) applyButton(c int, cfg *binding.Configuration, b binding.ButtonBinding, pressed bool) {
	cs := d.ctrl[c]
	st := d.board.State(c)
	a := b.Target.Axis

	if b.Toggle {
		if !pressed {
			return
		}
		cs.toggled[a] = !cs.toggled[a]
		v := 0
		if cs.toggled[a] {
			v = b.Value
		}
		st.Set(a, v)
		return
	}

	slot := dirPositive
	if b.Value < 0 {
		slot = dirNegative
	}
	if pressed {
		cs.held[a][slot]++
		cs.mag[a][slot] = abs(b.Value)
		cs.last[a] = slot
	} else if cs.held[a][slot] > 0 {
		cs.held[a][slot]--
	}

	if !a.Relative() {
		v := 0
		if cs.held[a][dirPositive] > 0 {
			v = cs.mag[a][dirPositive]
		}
		st.Set(a, v)
		return
	}
	d.refreshDigital(c, cfg, a)
	if p, ok := controller.StickPartner(a); ok && cs.isHeld(p) {
		d.refreshDigital(c, cfg, p)
	}
}

// refreshDigital recomputes a relative axis driven by buttons from the
// held directions, the intensity level and the partner axis.
func (d *Dispatcher) refreshDigital(c int, cfg *binding.Configuration, a controller.Axis) {
	cs := d.ctrl[c]
	st := d.board.State(c)

	slot, ok := cs.direction(a)
	if !ok {
		st.Set(a, 0)
		return
	}
	mag := cs.mag[a][slot]
	sh := shape.Rectangle
	if it, ok := cfg.IntensityFor(a); ok {
		mag = cs.level(it).Value() * mag / 100
		sh = it.Shape
	}
	partnerHeld := false
	if p, ok := controller.StickPartner(a); ok {
		partnerHeld = cs.isHeld(p)
	}
	v := shape.Digital(mag, partnerHeld, sh)
	if slot == dirNegative {
		v = -v
	}
	st.Set(a, v)
}

// intensity steps every intensity whose up or down event is id.
func (d *Dispatcher) intensity(id binding.EventID) {
	for c := range d.ctrl {
		cfg := d.board.Config(c)
		if cfg == nil {
			continue
		}
		for _, it := range cfg.Intensities {
			up := it.Up != nil && *it.Up == id
			down := it.Down != nil && *it.Down == id
			if !up && !down {
				continue
			}
			lvl := d.ctrl[c].level(it)
			switch {
			case up && down:
				lvl.Cycle()
			case up:
				lvl.Up()
			default:
				lvl.Down()
			}
			d.log.Debug("intensity changed", "controller", c+1, "axis", it.Axis.String(), "value", lvl.Value())
			d.refreshIntensity(c, cfg, it.Axis)
		}
	}
}

func (d *Dispatcher) refreshIntensity(c int, cfg *binding.Configuration, a controller.Axis) {
	axes := []controller.Axis{a}
	if p, ok := controller.StickPartner(a); ok {
		axes = append(axes, p)
	}
	for _, ax := range axes {
		if d.ctrl[c].isHeld(ax) {
			d.refreshDigital(c, cfg, ax)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
