// Package profile loads the XML controller profiles into binding tables.
package profile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/keys"
	"github.com/soar/padmapper/internal/shape"
)

var ErrInvalid = errors.New("invalid profile")

// LoadError locates a profile error.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// Resolver maps a device name and virtual id to the id its events carry.
type Resolver interface {
	Resolve(t binding.DeviceType, name string, virtual int) (int, bool)
}

// Loader turns profile documents into binding profiles.
type Loader struct {
	resolver Resolver
	logger   *slog.Logger
}

func NewLoader(r Resolver, logger *slog.Logger) *Loader {
	return &Loader{resolver: r, logger: logger}
}

// errSingleInput restarts a load once a keyboard or mouse without a name
// shows up.
var errSingleInput = errors.New("single input mode")

// Load parses and validates a whole profile. Any structural error fails
// the load; bindings on devices that are not plugged in are skipped.
func (l *Loader) Load(r io.Reader) (*binding.Profile, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if err := validate(root); err != nil {
		return nil, err
	}
	b := &build{Loader: l}
	p, err := b.profile(root)
	if errors.Is(err, errSingleInput) {
		l.logger.Info("a device name is empty, multiple mice and keyboards are not managed")
		b = &build{Loader: l, singleInput: true}
		p, err = b.profile(root)
	}
	return p, err
}

// LoadFile loads the profile at path.
func (l *Loader) LoadFile(path string) (*binding.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	p, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// build is the state of one pass over a document.
type build struct {
	*Loader
	singleInput bool
}

func (b *build) profile(root *node) (*binding.Profile, error) {
	p := &binding.Profile{SingleInput: b.singleInput}
	for _, cn := range root.children {
		id, err := intAttr(cn, "id")
		if err != nil {
			return nil, err
		}
		c, err := controller.ControllerIndex(id)
		if err != nil {
			return nil, invalid(cn, "controller id %d", id)
		}
		cp := p.Controllers[c]
		if cp == nil {
			cp = &binding.ControllerProfile{ID: c}
			p.Controllers[c] = cp
		}
		if v, ok := cn.attr("dpi"); ok && v != "" {
			dpi, err := strconv.Atoi(v)
			if err != nil || dpi < 0 {
				return nil, invalid(cn, "dpi %q", v)
			}
			cp.DPI = dpi
		}
		for _, n := range cn.children {
			cfg, err := b.configuration(n)
			if err != nil {
				return nil, err
			}
			cp.Configs[cfg.ID] = cfg
		}
	}
	return p, nil
}

func (b *build) configuration(n *node) (*binding.Configuration, error) {
	id, err := intAttr(n, "id")
	if err != nil {
		return nil, err
	}
	idx, err := controller.ConfigIndex(id)
	if err != nil {
		return nil, invalid(n, "configuration id %d", id)
	}
	cfg := &binding.Configuration{
		ID:          idx,
		Mouse:       make(map[int]binding.MouseOptions),
		Intensities: make(map[controller.Axis]binding.Intensity),
	}
	var entries []binding.Entry
	for _, c := range n.children {
		switch c.name {
		case "trigger":
			if cfg.Trigger, err = b.trigger(c); err != nil {
				return nil, err
			}
		case "mouse_options_list":
			if err := b.mouseOptions(c, cfg.Mouse); err != nil {
				return nil, err
			}
		case "intensity_list":
			if err := b.intensities(c, cfg.Intensities); err != nil {
				return nil, err
			}
		case "button_map", "axis_map":
			for _, m := range c.children {
				e, ok, err := b.mapping(m, cfg.Mouse)
				if err != nil {
					return nil, err
				}
				if ok {
					entries = append(entries, e)
				}
			}
		}
	}
	if cfg.Bindings, err = binding.NewTable(entries); err != nil {
		return nil, invalid(n, "%v", err)
	}
	return cfg, nil
}

// device resolves the device described by the type, name and id
// attributes of n. ok is false when the device is not plugged in.
func (b *build) device(n *node, t binding.DeviceType) (id binding.DeviceID, ok bool, err error) {
	name := n.attrs["name"]
	virtual, err := intAttr(n, "id")
	if err != nil {
		return id, false, err
	}
	id.Type = t
	if t != binding.Joystick {
		if b.singleInput {
			return id, true, nil
		}
		if name == "" {
			return id, false, errSingleInput
		}
	}
	idx, found := b.resolver.Resolve(t, name, virtual)
	if !found {
		b.logger.Warn("device not found, bindings skipped", "type", t.String(), "name", name, "id", virtual, "element", n.path)
		return id, false, nil
	}
	id.ID = idx
	return id, true, nil
}

func (b *build) deviceElement(n *node) (binding.DeviceID, bool, error) {
	t, ok := binding.ParseDeviceType(n.attrs["type"])
	if !ok {
		return binding.DeviceID{}, false, invalid(n, "device type %q", n.attrs["type"])
	}
	return b.device(n, t)
}

// eventCode resolves the event named by attribute attr.
func eventCode(n *node, attr string, t binding.DeviceType, kind binding.EventKind) (int, error) {
	v, ok := n.attr(attr)
	if !ok {
		return 0, invalid(n, "missing attribute %q", attr)
	}
	var (
		code  int
		found bool
	)
	switch t {
	case binding.Keyboard:
		if kind == binding.Button {
			code, found = keys.Key(v)
		}
	case binding.Mouse:
		if kind == binding.Axis {
			code, found = keys.MouseAxis(v)
		} else {
			code, found = keys.MouseButton(v)
		}
	case binding.Joystick:
		c, err := strconv.Atoi(strings.TrimSpace(v))
		code, found = c, err == nil && c >= 0
	}
	if !found {
		return 0, invalid(n, "%s %s id %q", t, kind, v)
	}
	return code, nil
}

func (b *build) trigger(n *node) (*binding.TriggerSpec, error) {
	t, ok := binding.ParseDeviceType(n.attrs["type"])
	if !ok {
		return nil, nil
	}
	dev, ok, err := b.device(n, t)
	if err != nil || !ok {
		return nil, err
	}
	code, err := eventCode(n, "button_id", t, binding.Button)
	if err != nil {
		return nil, err
	}
	spec := &binding.TriggerSpec{
		Event:      binding.EventID{Device: dev, Kind: binding.Button, Code: code},
		SwitchBack: strings.EqualFold(n.attrs["switch_back"], "yes"),
	}
	if v := n.attrs["delay"]; v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, invalid(n, "delay %q", v)
		}
		spec.Delay = time.Duration(ms) * time.Millisecond
	}
	return spec, nil
}

func (b *build) mouseOptions(n *node, opts map[int]binding.MouseOptions) error {
	for _, m := range n.children {
		dev, ok, err := b.device(m, binding.Mouse)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		mode, known := binding.ParseMouseMode(m.attrs["mode"])
		if !known {
			b.logger.Warn("unknown mouse mode, using Aiming", "mode", m.attrs["mode"], "element", m.path)
		}
		size, err := intAttr(m, "buffer_size")
		if err != nil {
			return err
		}
		filter, err := floatAttr(m, "filter", 0)
		if err != nil {
			return err
		}
		if size < 1 || filter < 0 || filter > 1 {
			return invalid(m, "buffer_size %d filter %g", size, filter)
		}
		opts[dev.ID] = binding.MouseOptions{Mode: mode, BufferSize: size, Filter: filter}
	}
	return nil
}

func (b *build) intensities(n *node, out map[controller.Axis]binding.Intensity) error {
	for _, in := range n.children {
		axis, err := intensityAxis(in)
		if err != nil {
			return err
		}
		it := binding.Intensity{Axis: axis}
		for _, c := range in.children {
			id, err := b.upDown(c)
			if err != nil {
				return err
			}
			if c.name == "up" {
				it.Up = id
			} else {
				it.Down = id
			}
		}
		if it.Up == nil && it.Down == nil {
			continue
		}
		if it.DeadZone, err = intAttr(in, "dead_zone"); err != nil {
			return err
		}
		if it.Steps, err = intAttr(in, "steps"); err != nil {
			return err
		}
		if it.DeadZone < 0 || it.DeadZone >= 100 || it.Steps < 1 {
			return invalid(in, "dead_zone %d steps %d", it.DeadZone, it.Steps)
		}
		sv, ok := in.attr("shape")
		if !ok {
			return invalid(in, "missing attribute %q", "shape")
		}
		it.Shape = b.shape(in, sv)
		out[axis] = it
	}
	return nil
}

func intensityAxis(n *node) (controller.Axis, error) {
	switch c := n.attrs["control"]; c {
	case "left_stick", "lstick":
		return controller.LStickX, nil
	case "right_stick", "rstick":
		return controller.RStickX, nil
	default:
		ref, err := controller.ParseAxis(c)
		if err != nil {
			return 0, invalid(n, "%v", err)
		}
		return ref.Axis, nil
	}
}

func (b *build) upDown(n *node) (*binding.EventID, error) {
	t, ok := binding.ParseDeviceType(n.attrs["type"])
	if !ok {
		return nil, nil
	}
	dev, ok, err := b.device(n, t)
	if err != nil || !ok {
		return nil, err
	}
	code, err := eventCode(n, "button_id", t, binding.Button)
	if err != nil {
		return nil, err
	}
	return &binding.EventID{Device: dev, Kind: binding.Button, Code: code}, nil
}

func (b *build) shape(n *node, v string) shape.Shape {
	s, ok := shape.Parse(v)
	if !ok {
		b.logger.Warn("unknown shape, using Circle", "shape", v, "element", n.path)
	}
	return s
}

// mapping builds the binding of one button or axis element.
func (b *build) mapping(n *node, mice map[int]binding.MouseOptions) (binding.Entry, bool, error) {
	target, err := controller.ParseAxis(n.attrs["id"])
	if err != nil {
		return binding.Entry{}, false, invalid(n, "%v", err)
	}
	dn, en := n.children[0], n.children[1]
	dev, ok, err := b.deviceElement(dn)
	if err != nil || !ok {
		return binding.Entry{}, false, err
	}
	kind, ok := binding.ParseEventKind(en.attrs["type"])
	if !ok {
		return binding.Entry{}, false, invalid(en, "event type %q", en.attrs["type"])
	}
	code, err := eventCode(en, "id", dev.Type, kind)
	if err != nil {
		return binding.Entry{}, false, err
	}
	e := binding.Entry{Event: binding.EventID{Device: dev, Kind: kind, Code: code}}

	switch kind {
	case binding.Button:
		e.Binding = binding.ButtonBinding{
			Target: target,
			Value:  100 * target.Direction.Sign(),
			Toggle: strings.EqualFold(n.attrs["toggle"], "yes"),
		}
	case binding.AxisIncreasing, binding.AxisDecreasing:
		th, err := intAttr(en, "threshold")
		if err != nil {
			return e, false, err
		}
		e.Binding = binding.ButtonBinding{
			Target:    target,
			Value:     100 * target.Direction.Sign(),
			Threshold: abs(th),
			Toggle:    strings.EqualFold(n.attrs["toggle"], "yes"),
		}
	case binding.Axis:
		p := shape.Params{Shape: shape.Circle}
		if p.DeadZone, err = optIntAttr(en, "dead_zone", 0); err != nil {
			return e, false, err
		}
		if p.DeadZone < 0 || p.DeadZone >= 100 {
			return e, false, invalid(en, "dead_zone %d out of range", p.DeadZone)
		}
		if p.Multiplier, err = floatAttr(en, "multiplier", 1); err != nil {
			return e, false, err
		}
		if p.Multiplier == 0 {
			return e, false, invalid(en, "multiplier must not be 0")
		}
		if p.Exponent, err = floatAttr(en, "exponent", 1); err != nil {
			return e, false, err
		}
		if v, ok := en.attr("shape"); ok {
			p.Shape = b.shape(en, v)
		}
		e.Binding = binding.AxisBinding{Target: target, Params: p}
		if dev.Type == binding.Mouse {
			legacyMouseOptions(en, dev.ID, mice)
		}
	}
	return e, true, nil
}

// legacyMouseOptions honours buffer_size and filter written on the event
// by old profiles, unless the mouse already has options.
func legacyMouseOptions(n *node, mouse int, mice map[int]binding.MouseOptions) {
	if _, ok := mice[mouse]; ok {
		return
	}
	o := binding.DefaultMouseOptions()
	if v, err := optIntAttr(n, "buffer_size", 0); err == nil && v > 0 {
		o.BufferSize = v
		if f, err := floatAttr(n, "filter", 0); err == nil && f >= 0 && f <= 1 {
			o.Filter = f
		}
	}
	mice[mouse] = o
}

func intAttr(n *node, name string) (int, error) {
	v, ok := n.attr(name)
	if !ok {
		return 0, invalid(n, "missing attribute %q", name)
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, invalid(n, "attribute %s=%q is not an integer", name, v)
	}
	return i, nil
}

func optIntAttr(n *node, name string, def int) (int, error) {
	if v, ok := n.attr(name); !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	return intAttr(n, name)
}

func floatAttr(n *node, name string, def float64) (float64, error) {
	v, ok := n.attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid(n, "attribute %s=%q is not a finite number", name, v)
	}
	return f, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
