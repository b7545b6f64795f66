package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/keys"
	"github.com/soar/padmapper/internal/shape"
)

type devices map[binding.DeviceType]map[string]int

func (d devices) Resolve(t binding.DeviceType, name string, virtual int) (int, bool) {
	if virtual != 0 {
		return 0, false
	}
	id, ok := d[t][name]
	return id, ok
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func load(t *testing.T, doc string, r Resolver) (*binding.Profile, error) {
	t.Helper()
	return NewLoader(r, quiet()).Load(strings.NewReader(doc))
}

var plugged = devices{
	binding.Keyboard: {"Kbd": 0},
	binding.Mouse:    {"Mouse": 1},
	binding.Joystick: {"Pad": 2},
}

const full = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <controller id="1" dpi="800">
    <configuration id="1">
      <trigger type="keyboard" name="Kbd" id="0" button_id="F1" switch_back="yes" delay="250"/>
      <mouse_options_list>
        <mouse name="Mouse" id="0" mode="Driving" buffer_size="3" filter="0.5"/>
      </mouse_options_list>
      <intensity_list>
        <intensity control="left_stick" dead_zone="20" shape="Rectangle" steps="4">
          <up type="keyboard" name="Kbd" id="0" button_id="kp_add"/>
          <down type="keyboard" name="Kbd" id="0" button_id="kp_subtract"/>
        </intensity>
      </intensity_list>
      <button_map>
        <button id="cross">
          <device type="keyboard" name="Kbd" id="0"/>
          <event type="button" id="space"/>
        </button>
        <button id="circle" toggle="yes">
          <device type="joystick" name="Pad" id="0"/>
          <event type="axis up" id="3" threshold="-10000"/>
        </button>
      </button_map>
      <axis_map>
        <axis id="lstick y-">
          <device type="keyboard" name="Kbd" id="0"/>
          <event type="button" id="w"/>
        </axis>
        <axis id="rstick x">
          <device type="mouse" name="Mouse" id="0"/>
          <event type="axis" id="x" dead_zone="18" multiplier="0.25" exponent="0.9" shape="Rectangle"/>
        </axis>
      </axis_map>
    </configuration>
    <configuration id="3">
      <trigger type="" name="" id="" button_id=""/>
      <button_map/>
      <axis_map/>
    </configuration>
  </controller>
</root>`

func TestLoadFull(t *testing.T) {
	p, err := load(t, full, plugged)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.SingleInput {
		t.Error("named devices switched to single input")
	}
	cp := p.Controllers[0]
	if cp == nil || cp.DPI != 800 {
		t.Fatalf("controller 1 = %+v", cp)
	}
	if got := cp.Configured(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Configured = %v, want [0 2]", got)
	}

	cfg := cp.Configs[0]
	f1, _ := keys.Key("f1")
	wantTrigger := binding.TriggerSpec{
		Event:      binding.EventID{Device: binding.DeviceID{Type: binding.Keyboard}, Kind: binding.Button, Code: f1},
		SwitchBack: true,
		Delay:      250 * time.Millisecond,
	}
	if cfg.Trigger == nil || *cfg.Trigger != wantTrigger {
		t.Errorf("trigger = %+v, want %+v", cfg.Trigger, wantTrigger)
	}
	if o := cfg.MouseOptionsFor(1); o.Mode != binding.Driving || o.BufferSize != 3 || o.Filter != 0.5 {
		t.Errorf("mouse options = %+v", o)
	}

	it, ok := cfg.IntensityFor(controller.LStickY)
	if !ok || it.DeadZone != 20 || it.Steps != 4 || it.Shape != shape.Rectangle || it.Up == nil || it.Down == nil {
		t.Errorf("intensity = %+v, %v", it, ok)
	}

	space, _ := keys.Key("space")
	b, ok := cfg.Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Keyboard}, Kind: binding.Button, Code: space})
	if bb, _ := b.(binding.ButtonBinding); !ok || bb.Target.Axis != controller.Cross || bb.Value != 100 {
		t.Errorf("space binding = %+v", b)
	}

	w, _ := keys.Key("w")
	b, _ = cfg.Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Keyboard}, Kind: binding.Button, Code: w})
	if bb, _ := b.(binding.ButtonBinding); bb.Target.Axis != controller.LStickY || bb.Value != -100 {
		t.Errorf("w binding = %+v", b)
	}

	b, _ = cfg.Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Joystick, ID: 2}, Kind: binding.AxisIncreasing, Code: 3})
	if bb, _ := b.(binding.ButtonBinding); !bb.Toggle || bb.Threshold != 10000 {
		t.Errorf("axis half binding = %+v", b)
	}

	b, _ = cfg.Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Mouse, ID: 1}, Kind: binding.Axis, Code: keys.MotionX})
	ab, ok := b.(binding.AxisBinding)
	want := shape.Params{DeadZone: 18, Multiplier: 0.25, Exponent: 0.9, Shape: shape.Rectangle}
	if !ok || ab.Params != want {
		t.Errorf("mouse axis binding = %+v", b)
	}

	if cp.Configs[2].Trigger != nil {
		t.Errorf("empty trigger parsed as %+v", cp.Configs[2].Trigger)
	}
}

func TestLoadSingleInputRestart(t *testing.T) {
	doc := `<root><controller id="2"><configuration id="1">
  <trigger type="keyboard" name="Kbd" id="0" button_id="f2"/>
  <button_map>
    <button id="cross"><device type="keyboard" name="" id="0"/><event type="button" id="space"/></button>
  </button_map>
  <axis_map>
    <axis id="rstick x"><device type="mouse" name="Mouse" id="0"/><event type="axis" id="x"/></axis>
  </axis_map>
</configuration></controller></root>`

	p, err := load(t, doc, plugged)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.SingleInput {
		t.Fatal("empty device name did not switch to single input")
	}
	cfg := p.Controllers[1].Configs[0]
	if cfg.Trigger == nil || cfg.Trigger.Event.Device.ID != 0 {
		t.Errorf("trigger device = %+v", cfg.Trigger)
	}
	_, ok := cfg.Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Mouse, ID: 0}, Kind: binding.Axis, Code: keys.MotionX})
	if !ok {
		t.Error("mouse binding not collapsed to id 0")
	}
}

func TestLoadSkipsMissingDevice(t *testing.T) {
	doc := `<root><controller id="1"><configuration id="1">
  <trigger/>
  <button_map>
    <button id="cross"><device type="joystick" name="Gone" id="0"/><event type="button" id="1"/></button>
    <button id="square"><device type="joystick" name="Pad" id="0"/><event type="button" id="0"/></button>
  </button_map>
  <axis_map/>
</configuration></controller></root>`

	p, err := load(t, doc, plugged)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := p.Controllers[0].Configs[0].Bindings.Len(); n != 1 {
		t.Errorf("bindings = %d, want 1", n)
	}
}

func TestLoadErrors(t *testing.T) {
	axis := func(attrs string) string {
		return `<root><controller id="1"><configuration id="1"><trigger/><button_map/><axis_map>
			<axis id="lstick x"><device type="joystick" name="Pad" id="0"/><event type="axis" id="0" ` + attrs + `/></axis>
			</axis_map></configuration></controller></root>`
	}
	const axisEvent = "root/controller[1]/configuration[1]/axis_map[1]/axis[1]/event[1]"

	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"bad controller id", `<root><controller id="9"/></root>`, "root/controller[1]"},
		{"missing button_map", `<root><controller id="1"><configuration id="1"><trigger/><axis_map/></configuration></controller></root>`,
			"root/controller[1]/configuration[1]"},
		{"bad configuration id", `<root><controller id="1"><configuration id="0"><trigger/><button_map/><axis_map/></configuration></controller></root>`,
			"root/controller[1]/configuration[1]"},
		{"unknown element", `<root><gamepad/></root>`, "root/gamepad[1]"},
		{"wrong root", `<profile/>`, "profile"},
		{"unknown axis", `<root><controller id="1"><configuration id="1"><trigger/><button_map>
			<button id="turbo"><device type="joystick" name="Pad" id="0"/><event type="button" id="1"/></button>
			</button_map><axis_map/></configuration></controller></root>`,
			"root/controller[1]/configuration[1]/button_map[1]/button[1]"},
		{"unknown key", `<root><controller id="1"><configuration id="1"><trigger/><button_map>
			<button id="cross"><device type="keyboard" name="Kbd" id="0"/><event type="button" id="nokey"/></button>
			</button_map><axis_map/></configuration></controller></root>`,
			"root/controller[1]/configuration[1]/button_map[1]/button[1]/event[1]"},
		{"malformed", `<root><controller id="1">`, "document"},
		{"NaN multiplier", axis(`multiplier="NaN"`), axisEvent},
		{"infinite exponent", axis(`exponent="Inf"`), axisEvent},
		{"negative infinite multiplier", axis(`multiplier="-inf"`), axisEvent},
		{"zero multiplier", axis(`multiplier="0"`), axisEvent},
		{"full dead zone", axis(`dead_zone="100"`), axisEvent},
		{"negative dead zone", axis(`dead_zone="-1"`), axisEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.doc, plugged)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			var le *LoadError
			if !errors.As(err, &le) || le.Path != tt.path {
				t.Errorf("path = %v, want %q", err, tt.path)
			}
		})
	}
}

func TestLoadUnknownShapeFallsBack(t *testing.T) {
	doc := `<root><controller id="1"><configuration id="1"><trigger/><button_map/><axis_map>
  <axis id="lstick x"><device type="joystick" name="Pad" id="0"/><event type="axis" id="0" shape="Hexagon"/></axis>
</axis_map></configuration></controller></root>`

	p, err := load(t, doc, plugged)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, _ := p.Controllers[0].Configs[0].Bindings.Lookup(binding.EventID{Device: binding.DeviceID{Type: binding.Joystick, ID: 2}, Kind: binding.Axis})
	if ab, ok := b.(binding.AxisBinding); !ok || ab.Params.Shape != shape.Circle || ab.Params.Multiplier != 1 {
		t.Errorf("binding = %+v", b)
	}
}

func TestLoadLegacyMouseOptions(t *testing.T) {
	doc := `<root><controller id="1"><configuration id="1"><trigger/><button_map/><axis_map>
  <axis id="rstick y"><device type="mouse" name="Mouse" id="0"/><event type="axis" id="y" buffer_size="2" filter="0.25"/></axis>
</axis_map></configuration></controller></root>`

	p, err := load(t, doc, plugged)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	o := p.Controllers[0].Configs[0].MouseOptionsFor(1)
	if o.Mode != binding.Aiming || o.BufferSize != 2 || o.Filter != 0.25 {
		t.Errorf("options = %+v", o)
	}
}

func TestLoadLatin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<root><controller id=\"1\"><configuration id=\"1\"><trigger/><button_map>" +
		"<button id=\"cross\"><device type=\"joystick\" name=\"Man\xe9ttE\" id=\"0\"/><event type=\"button\" id=\"1\"/></button>" +
		"</button_map><axis_map/></configuration></controller></root>"
	r := devices{binding.Joystick: {"ManéttE": 0}}
	p, err := load(t, doc, r)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := p.Controllers[0].Configs[0].Bindings.Len(); n != 1 {
		t.Errorf("bindings = %d, want 1", n)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.xml")
	empty := `<root><controller id="1"><configuration id="1"><trigger/><button_map/><axis_map/></configuration></controller></root>`
	if err := os.WriteFile(path, []byte(empty), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *binding.Profile, 4)
	l := NewLoader(plugged, quiet())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx, path, func(p *binding.Profile) { got <- p }) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(strings.Replace(empty, `id="1"><trigger`, `id="2"><trigger`, 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-got:
		if p.Controllers[0].Configs[1] == nil {
			t.Errorf("reloaded profile = %+v", p.Controllers[0])
		}
	case <-time.After(3 * time.Second):
		t.Fatal("profile not reloaded")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}
