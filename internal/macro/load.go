// Package macro plays fixed sequences of synthetic input events started by
// a trigger event.
package macro

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/keys"
)

// File is the on-disk layout of a macro file, in YAML or TOML.
type File struct {
	Macros []Def `yaml:"macros" toml:"macros"`
}

type Def struct {
	Name    string     `yaml:"name" toml:"name"`
	Trigger TriggerDef `yaml:"trigger" toml:"trigger"`
	Toggle  bool       `yaml:"toggle" toml:"toggle"`
	Steps   []StepDef  `yaml:"steps" toml:"steps"`
}

type TriggerDef struct {
	Device string `yaml:"device" toml:"device"`
	ID     int    `yaml:"id" toml:"id"`
	Button string `yaml:"button" toml:"button"`
}

// StepDef sets exactly one action.
type StepDef struct {
	KeyDown   string    `yaml:"key_down,omitempty" toml:"key_down"`
	KeyUp     string    `yaml:"key_up,omitempty" toml:"key_up"`
	MouseDown string    `yaml:"mouse_down,omitempty" toml:"mouse_down"`
	MouseUp   string    `yaml:"mouse_up,omitempty" toml:"mouse_up"`
	JoyDown   *int      `yaml:"joy_down,omitempty" toml:"joy_down"`
	JoyUp     *int      `yaml:"joy_up,omitempty" toml:"joy_up"`
	JoyAxis   *AxisStep `yaml:"joy_axis,omitempty" toml:"joy_axis"`
	Delay     int       `yaml:"delay,omitempty" toml:"delay"`
	Device    int       `yaml:"device,omitempty" toml:"device"`
}

type AxisStep struct {
	Code  int `yaml:"code" toml:"code"`
	Value int `yaml:"value" toml:"value"`
}

// Step is an event preceded by a wait.
type Step struct {
	Wait  time.Duration
	Event event.Event
}

// Macro is a compiled definition. Tail is the wait after the last event.
type Macro struct {
	Name    string
	Trigger binding.EventID
	Toggle  bool
	Steps   []Step
	Tail    time.Duration
}

// Set is an ordered list of macros.
type Set struct {
	Macros []*Macro
}

var ErrInvalid = errors.New("invalid macro")

// Load reads macro files; files ending in .toml are TOML, others YAML.
func Load(paths ...string) (*Set, error) {
	set := &Set{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading macros: %w", err)
		}
		s, err := Parse(data, filepath.Ext(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set.Macros = append(set.Macros, s.Macros...)
	}
	return set, nil
}

// Parse decodes one macro file; ext selects the format.
func Parse(data []byte, ext string) (*Set, error) {
	var f File
	if strings.EqualFold(ext, ".toml") {
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}

	set := &Set{}
	for i, d := range f.Macros {
		m, err := compile(d)
		if err != nil {
			return nil, fmt.Errorf("macro %d (%s): %w", i, d.Name, err)
		}
		set.Macros = append(set.Macros, m)
	}
	return set, nil
}

func compile(d Def) (*Macro, error) {
	dev, ok := binding.ParseDeviceType(d.Trigger.Device)
	if !ok {
		return nil, fmt.Errorf("%w: trigger device %q", ErrInvalid, d.Trigger.Device)
	}
	code, err := buttonCode(dev, d.Trigger.Button)
	if err != nil {
		return nil, err
	}
	m := &Macro{
		Name:    d.Name,
		Trigger: binding.EventID{Device: binding.DeviceID{Type: dev, ID: d.Trigger.ID}, Kind: binding.Button, Code: code},
		Toggle:  d.Toggle,
	}

	var wait time.Duration
	for i, s := range d.Steps {
		if s.Delay < 0 {
			return nil, fmt.Errorf("%w: step %d: negative delay", ErrInvalid, i)
		}
		if s.Delay > 0 {
			wait += time.Duration(s.Delay) * time.Millisecond
		}
		ev, ok, err := stepEvent(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if !ok {
			continue
		}
		m.Steps = append(m.Steps, Step{Wait: wait, Event: ev})
		wait = 0
	}
	m.Tail = wait
	return m, nil
}

func stepEvent(s StepDef) (event.Event, bool, error) {
	var (
		ev    event.Event
		count int
	)
	set := func(e event.Event) {
		ev = e
		count++
	}
	for _, k := range []struct {
		name    string
		pressed bool
	}{{s.KeyDown, true}, {s.KeyUp, false}} {
		if k.name == "" {
			continue
		}
		code, ok := keys.Key(k.name)
		if !ok {
			return ev, false, fmt.Errorf("%w: unknown key %q", ErrInvalid, k.name)
		}
		set(event.Button(binding.Keyboard, s.Device, code, k.pressed))
	}
	for _, b := range []struct {
		name    string
		pressed bool
	}{{s.MouseDown, true}, {s.MouseUp, false}} {
		if b.name == "" {
			continue
		}
		code, ok := keys.MouseButton(b.name)
		if !ok {
			return ev, false, fmt.Errorf("%w: unknown mouse button %q", ErrInvalid, b.name)
		}
		set(event.Button(binding.Mouse, s.Device, code, b.pressed))
	}
	if s.JoyDown != nil {
		set(event.Button(binding.Joystick, s.Device, *s.JoyDown, true))
	}
	if s.JoyUp != nil {
		set(event.Button(binding.Joystick, s.Device, *s.JoyUp, false))
	}
	if s.JoyAxis != nil {
		set(event.Event{Type: event.JoyAxis, Device: s.Device, Code: s.JoyAxis.Code, Value: s.JoyAxis.Value})
	}
	if count > 1 {
		return ev, false, fmt.Errorf("%w: more than one action", ErrInvalid)
	}
	return ev, count == 1, nil
}

func buttonCode(dev binding.DeviceType, name string) (int, error) {
	var (
		code int
		ok   bool
	)
	switch dev {
	case binding.Keyboard:
		code, ok = keys.Key(name)
	case binding.Mouse:
		code, ok = keys.MouseButton(name)
	default:
		n, err := strconv.Atoi(strings.TrimSpace(name))
		code, ok = n, err == nil && n >= 0
	}
	if !ok {
		return 0, fmt.Errorf("%w: unknown %s button %q", ErrInvalid, dev, name)
	}
	return code, nil
}
