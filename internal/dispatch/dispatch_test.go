package dispatch

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/shape"
	"github.com/soar/padmapper/internal/switchboard"
	"github.com/soar/padmapper/internal/trigger"
)

const (
	keyW  = 17
	keyS  = 31
	keyA  = 30
	keyD  = 32
	keyF1 = 59
	keyKP = 78
	keyKM = 74
)

var t0 = time.Unix(2000, 0)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kbd(code int) binding.EventID {
	return binding.EventID{Device: binding.DeviceID{Type: binding.Keyboard}, Kind: binding.Button, Code: code}
}

func button(a controller.Axis, value int) binding.ButtonBinding {
	return binding.ButtonBinding{Target: controller.AxisRef{Axis: a}, Value: value}
}

// setup builds controller 0 with one configuration from entries; mod may
// adjust the configuration or add more.
func setup(t *testing.T, entries []binding.Entry, mod func(cp *binding.ControllerProfile)) *switchboard.Board {
	t.Helper()
	tab, err := binding.NewTable(entries)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	cp := &binding.ControllerProfile{}
	cp.Configs[0] = &binding.Configuration{Bindings: tab}
	if mod != nil {
		mod(cp)
	}
	p := &binding.Profile{}
	p.Controllers[0] = cp
	return switchboard.New(p, nil)
}

func key(code int, down bool) event.Event {
	ev := event.Button(binding.Keyboard, 0, code, down)
	ev.Time = t0
	return ev
}

func TestKeyboardForwardBackward(t *testing.T) {
	b := setup(t, []binding.Entry{
		{Event: kbd(keyW), Binding: button(controller.LStickY, 100)},
		{Event: kbd(keyS), Binding: button(controller.LStickY, -100)},
	}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(key(keyW, true))
	if got := st.Get(controller.LStickY); got != 100 {
		t.Fatalf("after W down: %d, want 100", got)
	}
	d.Process(key(keyW, false))
	d.Process(key(keyS, true))
	if got := st.Get(controller.LStickY); got != -100 {
		t.Errorf("after W up, S down: %d, want -100", got)
	}
}

func TestOpposingKeysLastWins(t *testing.T) {
	b := setup(t, []binding.Entry{
		{Event: kbd(keyA), Binding: button(controller.LStickX, -100)},
		{Event: kbd(keyD), Binding: button(controller.LStickX, 100)},
	}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(key(keyA, true))
	d.Process(key(keyD, true))
	if got := st.Get(controller.LStickX); got != 100 {
		t.Errorf("A then D: %d, want 100", got)
	}
	d.Process(key(keyD, false))
	if got := st.Get(controller.LStickX); got != -100 {
		t.Errorf("D released with A held: %d, want -100", got)
	}
}

func TestUnboundEventDoesNothing(t *testing.T) {
	b := setup(t, []binding.Entry{{Event: kbd(keyW), Binding: button(controller.Cross, 100)}}, nil)
	d := New(b, Options{Logger: quiet()})
	before := b.State(0).Snapshot()

	d.Process(key(keyS, true))
	d.Process(event.Event{Type: event.JoyAxis, Device: 0, Code: 1, Value: 20000, Time: t0})
	d.Process(event.Event{Type: event.JoyButtonDown, Device: 3, Code: 0, Time: t0})
	if after := b.State(0).Snapshot(); after != before {
		t.Errorf("state changed: %v", after)
	}
}

func TestJoystickAxisDeadZone(t *testing.T) {
	axis := binding.EventID{Device: binding.DeviceID{Type: binding.Joystick}, Kind: binding.Axis, Code: 0}
	b := setup(t, []binding.Entry{{Event: axis, Binding: binding.AxisBinding{
		Target: controller.AxisRef{Axis: controller.RStickX},
		Params: shape.Params{DeadZone: 20, Multiplier: 1, Exponent: 1},
	}}}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(event.Event{Type: event.JoyAxis, Code: 0, Value: 3277, Time: t0})
	if got := st.Get(controller.RStickX); got != 0 {
		t.Errorf("scaled 10: %d, want 0", got)
	}
	d.Process(event.Event{Type: event.JoyAxis, Code: 0, Value: 19661, Time: t0})
	if got := st.Get(controller.RStickX); got != 50 {
		t.Errorf("scaled 60: %d, want 50", got)
	}
}

func TestCircleStickUsesBothAxes(t *testing.T) {
	joy := binding.DeviceID{Type: binding.Joystick}
	p := shape.Params{DeadZone: 20}
	b := setup(t, []binding.Entry{
		{Event: binding.EventID{Device: joy, Kind: binding.Axis, Code: 0}, Binding: binding.AxisBinding{Target: controller.AxisRef{Axis: controller.LStickX}, Params: p}},
		{Event: binding.EventID{Device: joy, Kind: binding.Axis, Code: 1}, Binding: binding.AxisBinding{Target: controller.AxisRef{Axis: controller.LStickY}, Params: p}},
	}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	// x alone is inside the dead zone
	d.Process(event.Event{Type: event.JoyAxis, Code: 0, Value: 4915, Time: t0})
	if got := st.Get(controller.LStickX); got != 0 {
		t.Fatalf("x alone: %d, want 0", got)
	}
	// with y the vector leaves the dead zone and x follows
	d.Process(event.Event{Type: event.JoyAxis, Code: 1, Value: 32767, Time: t0})
	if st.Get(controller.LStickX) == 0 || st.Get(controller.LStickY) == 0 {
		t.Errorf("pair = %d, %d; both should be non-zero", st.Get(controller.LStickX), st.Get(controller.LStickY))
	}
}

func TestAxisHalfAsButton(t *testing.T) {
	up := binding.EventID{Device: binding.DeviceID{Type: binding.Joystick}, Kind: binding.AxisIncreasing, Code: 2}
	down := up
	down.Kind = binding.AxisDecreasing
	b := setup(t, []binding.Entry{
		{Event: up, Binding: binding.ButtonBinding{Target: controller.AxisRef{Axis: controller.R2}, Value: 100, Threshold: 1000}},
		{Event: down, Binding: binding.AxisBinding{Target: controller.AxisRef{Axis: controller.L2}}},
	}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(event.Event{Type: event.JoyAxis, Code: 2, Value: 500, Time: t0})
	if st.Get(controller.R2) != 0 {
		t.Error("below threshold pressed the button")
	}
	d.Process(event.Event{Type: event.JoyAxis, Code: 2, Value: 1500, Time: t0})
	if st.Get(controller.R2) != 100 {
		t.Errorf("R2 = %d, want 100", st.Get(controller.R2))
	}
	d.Process(event.Event{Type: event.JoyAxis, Code: 2, Value: -32767, Time: t0})
	if st.Get(controller.R2) != 0 || st.Get(controller.L2) != 100 {
		t.Errorf("R2, L2 = %d, %d; want 0, 100", st.Get(controller.R2), st.Get(controller.L2))
	}
}

type recorder struct {
	log   []string
	board *switchboard.Board
	due   []event.Event
}

func (r *recorder) Check(id binding.EventID, pressed bool, now time.Time) {
	r.log = append(r.log, "trigger")
	if r.board != nil && r.board.State(0).Get(controller.Cross) != 100 {
		r.log = append(r.log, "state not yet mapped")
	}
}

func (r *recorder) Poll(now time.Time) {}

type macroRecorder struct {
	*recorder
}

func (m macroRecorder) Lookup(id binding.EventID, pressed bool, now time.Time) {
	m.log = append(m.log, "macro")
}

func (m macroRecorder) Poll(now time.Time) []event.Event {
	out := m.due
	m.due = nil
	return out
}

func TestInspectionOrder(t *testing.T) {
	b := setup(t, []binding.Entry{{Event: kbd(keyW), Binding: button(controller.Cross, 100)}}, nil)
	rec := &recorder{board: b}
	d := New(b, Options{Logger: quiet(), Triggers: rec, Macros: macroRecorder{rec}})

	d.Process(key(keyW, true))
	want := []string{"trigger", "macro"}
	if len(rec.log) != len(want) || rec.log[0] != want[0] || rec.log[1] != want[1] {
		t.Fatalf("order = %v, want %v", rec.log, want)
	}

	// synthetic events from macro playback skip macro lookup
	rec.log = nil
	syn := key(keyS, true)
	syn.Synthetic = true
	rec.due = []event.Event{syn}
	d.Tick(t0)
	if len(rec.log) != 1 || rec.log[0] != "trigger" {
		t.Errorf("synthetic event inspections = %v", rec.log)
	}
}

func TestHatEmitsOnlyChangedBits(t *testing.T) {
	edges := DecomposeHat(0b0001, 0b0011, 0, 0)
	if len(edges) != 1 || edges[0] != (HatEdge{Code: 1, Pressed: true}) {
		t.Fatalf("edges = %+v", edges)
	}
	edges = DecomposeHat(0b0011, 0, 10, 1)
	if len(edges) != 2 || edges[0] != (HatEdge{Code: 14, Pressed: false}) || edges[1] != (HatEdge{Code: 15, Pressed: false}) {
		t.Errorf("release edges = %+v", edges)
	}
	if edges := DecomposeHat(0b0100, 0b0100, 0, 0); edges != nil {
		t.Errorf("unchanged hat produced %+v", edges)
	}
}

func TestHatDrivesButtons(t *testing.T) {
	joy := binding.DeviceID{Type: binding.Joystick, ID: 1}
	b := setup(t, []binding.Entry{
		{Event: binding.EventID{Device: joy, Code: 12}, Binding: button(controller.Up, 100)},
		{Event: binding.EventID{Device: joy, Code: 13}, Binding: button(controller.Right, 100)},
	}, nil)
	d := New(b, Options{Logger: quiet(), HatBase: func(int) int { return 12 }})
	st := b.State(0)

	d.Process(event.Event{Type: event.JoyHat, Device: 1, Value: event.HatUp, Time: t0})
	d.Process(event.Event{Type: event.JoyHat, Device: 1, Value: event.HatUp | event.HatRight, Time: t0})
	if st.Get(controller.Up) != 100 || st.Get(controller.Right) != 100 {
		t.Errorf("up, right = %d, %d", st.Get(controller.Up), st.Get(controller.Right))
	}
	d.Process(event.Event{Type: event.JoyHat, Device: 1, Value: event.HatRight, Time: t0})
	if st.Get(controller.Up) != 0 || st.Get(controller.Right) != 100 {
		t.Errorf("after releasing up: %d, %d", st.Get(controller.Up), st.Get(controller.Right))
	}
}

func TestIntensitySteps(t *testing.T) {
	up, down := kbd(keyKP), kbd(keyKM)
	b := setup(t, []binding.Entry{
		{Event: kbd(keyA), Binding: button(controller.LStickX, -100)},
		{Event: kbd(keyW), Binding: button(controller.LStickY, -100)},
	}, func(cp *binding.ControllerProfile) {
		cp.Configs[0].Intensities = map[controller.Axis]binding.Intensity{
			controller.LStickX: {Axis: controller.LStickX, Steps: 4, Shape: shape.Circle, Up: &up, Down: &down},
		}
	})
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(key(keyA, true))
	if got := st.Get(controller.LStickX); got != -100 {
		t.Fatalf("A: %d, want -100", got)
	}
	d.Process(key(keyKM, true))
	d.Process(key(keyKM, false))
	if got := st.Get(controller.LStickX); got != -75 {
		t.Errorf("after intensity down: %d, want -75", got)
	}
	d.Process(key(keyW, true))
	if x, y := st.Get(controller.LStickX), st.Get(controller.LStickY); x != -53 || y != -53 {
		t.Errorf("diagonal = %d, %d; want -53, -53", x, y)
	}
}

func TestToggleButton(t *testing.T) {
	b := setup(t, []binding.Entry{{Event: kbd(keyA), Binding: binding.ButtonBinding{
		Target: controller.AxisRef{Axis: controller.L3}, Value: 100, Toggle: true,
	}}}, nil)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(key(keyA, true))
	d.Process(key(keyA, false))
	if st.Get(controller.L3) != 100 {
		t.Fatal("toggle did not latch")
	}
	d.Process(key(keyA, true))
	if st.Get(controller.L3) != 0 {
		t.Error("second press did not release the toggle")
	}
}

func mouseMotion(dx int) event.Event {
	return event.Event{Type: event.MouseMotion, Code: 0, Value: dx, Time: t0}
}

func mouseSetup(t *testing.T, opts binding.MouseOptions, dpi int) *switchboard.Board {
	ev := binding.EventID{Device: binding.DeviceID{Type: binding.Mouse}, Kind: binding.Axis, Code: 0}
	return setup(t, []binding.Entry{{Event: ev, Binding: binding.AxisBinding{
		Target: controller.AxisRef{Axis: controller.RStickX},
		Params: shape.Params{Multiplier: 1, Exponent: 1},
	}}}, func(cp *binding.ControllerProfile) {
		cp.DPI = dpi
		cp.Configs[0].Mouse = map[int]binding.MouseOptions{0: opts}
	})
}

func TestMouseAiming(t *testing.T) {
	b := mouseSetup(t, binding.MouseOptions{Mode: binding.Aiming, BufferSize: 1}, 0)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(mouseMotion(10))
	d.Process(mouseMotion(20))
	if st.Get(controller.RStickX) != 0 {
		t.Fatal("motion applied before the tick")
	}
	d.Tick(t0)
	if got := st.Get(controller.RStickX); got != 30 {
		t.Errorf("after tick: %d, want 30", got)
	}
	d.Tick(t0.Add(time.Millisecond))
	if got := st.Get(controller.RStickX); got != 0 {
		t.Errorf("idle tick: %d, want 0", got)
	}
}

func TestMouseBufferSpreadsDelta(t *testing.T) {
	b := mouseSetup(t, binding.MouseOptions{Mode: binding.Aiming, BufferSize: 2}, 0)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(mouseMotion(40))
	want := []int{20, 20, 0}
	for i, w := range want {
		d.Tick(t0)
		if got := st.Get(controller.RStickX); got != w {
			t.Errorf("tick %d: %d, want %d", i, got, w)
		}
	}
}

func TestMouseDPIScaling(t *testing.T) {
	b := mouseSetup(t, binding.MouseOptions{BufferSize: 1}, 800)
	d := New(b, Options{Logger: quiet(), MouseDPI: 1600})

	d.Process(mouseMotion(40))
	d.Tick(t0)
	if got := b.State(0).Get(controller.RStickX); got != 20 {
		t.Errorf("scaled delta = %d, want 20", got)
	}
}

func TestMouseDrivingDecays(t *testing.T) {
	b := mouseSetup(t, binding.MouseOptions{Mode: binding.Driving, BufferSize: 1}, 0)
	d := New(b, Options{Logger: quiet()})
	st := b.State(0)

	d.Process(mouseMotion(50))
	d.Tick(t0)
	if got := st.Get(controller.RStickX); got != 50 {
		t.Fatalf("first tick: %d, want 50", got)
	}
	d.Tick(t0)
	if got := st.Get(controller.RStickX); got != 45 {
		t.Errorf("decayed: %d, want 45", got)
	}
}

func TestSingleInputCollapsesIDs(t *testing.T) {
	b := setup(t, []binding.Entry{{Event: kbd(keyW), Binding: button(controller.Cross, 100)}}, nil)
	d := New(b, Options{Logger: quiet(), SingleInput: true})

	ev := key(keyW, true)
	ev.Device = 3
	d.Process(ev)
	if b.State(0).Get(controller.Cross) != 100 {
		t.Error("keyboard 3 not collapsed to 0")
	}
}

func TestConfigSwitchResetsState(t *testing.T) {
	b := setup(t, []binding.Entry{{Event: kbd(keyW), Binding: button(controller.LStickY, -100)}}, func(cp *binding.ControllerProfile) {
		cp.Configs[1] = &binding.Configuration{Trigger: &binding.TriggerSpec{Event: kbd(keyF1)}}
	})
	d := New(b, Options{Logger: quiet(), Triggers: trigger.New(b, quiet())})
	st := b.State(0)

	d.Process(key(keyW, true))
	if st.Get(controller.LStickY) != -100 {
		t.Fatal("W not mapped")
	}
	d.Process(key(keyF1, true))
	if b.Active(0) != 1 {
		t.Fatalf("active = %d, want 1", b.Active(0))
	}
	if st.Get(controller.LStickY) != 0 {
		t.Errorf("stick still deflected after switch: %d", st.Get(controller.LStickY))
	}
}

func TestDeterministic(t *testing.T) {
	run := func() [][controller.AxisMax]int32 {
		b := setup(t, []binding.Entry{
			{Event: kbd(keyW), Binding: button(controller.LStickY, -100)},
			{Event: kbd(keyD), Binding: button(controller.LStickX, 100)},
			{Event: binding.EventID{Device: binding.DeviceID{Type: binding.Mouse}, Kind: binding.Axis}, Binding: binding.AxisBinding{
				Target: controller.AxisRef{Axis: controller.RStickX},
				Params: shape.Params{DeadZone: 8, Multiplier: 0.4, Exponent: 0.8},
			}},
		}, func(cp *binding.ControllerProfile) {
			cp.Configs[0].Mouse = map[int]binding.MouseOptions{0: {BufferSize: 3, Filter: 0.5}}
		})
		d := New(b, Options{Logger: quiet()})
		var out [][controller.AxisMax]int32
		seq := []event.Event{key(keyW, true), mouseMotion(17), key(keyD, true), mouseMotion(-4), key(keyW, false)}
		for _, ev := range seq {
			d.Process(ev)
			d.Tick(t0)
			out = append(out, b.State(0).Snapshot())
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("step %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
