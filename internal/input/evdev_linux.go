//go:build linux

package input

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sync/errgroup"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/keys"
)

const devGlob = "/dev/input/event*"

type evdevDevice struct {
	dev   *evdev.InputDevice
	kind  binding.DeviceType
	index int
}

// EvdevReader reads keyboards and mice from /dev/input.
type EvdevReader struct {
	registry *Registry
	logger   *slog.Logger
	grab     bool
	devices  []evdevDevice
}

// NewEvdevReader returns a reader that takes exclusive access to its
// devices when grab is set.
func NewEvdevReader(registry *Registry, grab bool, logger *slog.Logger) *EvdevReader {
	return &EvdevReader{registry: registry, logger: logger, grab: grab}
}

// Open enumerates and registers the keyboards and mice.
func (r *EvdevReader) Open() error {
	devs, err := evdev.ListInputDevices(devGlob)
	if err != nil {
		return fmt.Errorf("list input devices: %w", err)
	}
	for _, d := range devs {
		kind, ok := classify(d.CapabilitiesFlat)
		if !ok {
			d.File.Close()
			continue
		}
		if r.grab {
			if err := d.Grab(); err != nil {
				r.logger.Warn("grab failed", "device", d.Fn, "error", err)
			}
		}
		reg := r.registry.Add(kind, d.Name, 0)
		r.devices = append(r.devices, evdevDevice{dev: d, kind: kind, index: reg.Index})
		r.logger.Info("input device opened",
			"type", kind.String(), "name", d.Name, "path", d.Fn,
			"index", reg.Index, "virtual_id", reg.Virtual)
	}
	return nil
}

func classify(caps map[int][]int) (binding.DeviceType, bool) {
	switch {
	case slices.Contains(caps[evdev.EV_REL], evdev.REL_X):
		return binding.Mouse, true
	case slices.Contains(caps[evdev.EV_KEY], evdev.KEY_A):
		return binding.Keyboard, true
	}
	return binding.NoDevice, false
}

// Run reads every opened device until ctx is cancelled.
func (r *EvdevReader) Run(ctx context.Context, out chan<- event.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, d := range r.devices {
		g.Go(func() error {
			<-ctx.Done()
			if r.grab {
				_ = d.dev.Release()
			}
			return d.dev.File.Close()
		})
		g.Go(func() error {
			return r.read(ctx, d, out)
		})
	}
	return g.Wait()
}

func (r *EvdevReader) read(ctx context.Context, d evdevDevice, out chan<- event.Event) error {
	for {
		ie, err := d.dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("input device lost", "name", d.dev.Name, "error", err)
			r.registry.Remove(d.kind, d.index)
			return nil
		}
		now := time.Now()
		for _, ev := range translate(d.kind, d.index, ie.Type, ie.Code, ie.Value) {
			ev.Time = now
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

var mouseButtons = map[uint16]int{
	evdev.BTN_LEFT:   keys.ButtonLeft,
	evdev.BTN_RIGHT:  keys.ButtonRight,
	evdev.BTN_MIDDLE: keys.ButtonMiddle,
	evdev.BTN_SIDE:   keys.ButtonX1,
	evdev.BTN_EXTRA:  keys.ButtonX2,
}

// translate turns one kernel event into zero or more events. A wheel notch
// becomes a press and release of the matching wheel button.
func translate(kind binding.DeviceType, index int, typ, code uint16, value int32) []event.Event {
	switch {
	case typ == evdev.EV_KEY && kind == binding.Keyboard:
		if value == 2 {
			return nil
		}
		return []event.Event{event.Button(binding.Keyboard, index, int(code), value != 0)}

	case typ == evdev.EV_KEY && kind == binding.Mouse:
		b, ok := mouseButtons[code]
		if !ok {
			return nil
		}
		return []event.Event{event.Button(binding.Mouse, index, b, value != 0)}

	case typ == evdev.EV_REL && kind == binding.Mouse:
		switch code {
		case evdev.REL_X:
			return []event.Event{{Type: event.MouseMotion, Device: index, Code: keys.MotionX, Value: int(value)}}
		case evdev.REL_Y:
			return []event.Event{{Type: event.MouseMotion, Device: index, Code: keys.MotionY, Value: int(value)}}
		case evdev.REL_WHEEL:
			return wheel(index, value, keys.WheelUp, keys.WheelDown)
		case evdev.REL_HWHEEL:
			return wheel(index, value, keys.WheelRight, keys.WheelLeft)
		}
	}
	return nil
}

func wheel(index int, value int32, pos, neg int) []event.Event {
	b := pos
	if value < 0 {
		b = neg
	} else if value == 0 {
		return nil
	}
	return []event.Event{
		event.Button(binding.Mouse, index, b, true),
		event.Button(binding.Mouse, index, b, false),
	}
}
