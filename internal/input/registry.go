// Package input captures keyboard, mouse and joystick events and keeps the
// registry of devices they come from.
package input

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/event"
)

var ErrUnsupported = errors.New("input backend not supported on this platform")

// Source produces events until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, out chan<- event.Event) error
}

// Device is one enumerated input device.
type Device struct {
	Type binding.DeviceType
	// Index is the enumeration order among devices of the same type and
	// the id carried by its events.
	Index int
	Name  string
	// Virtual tells apart devices sharing a name, counted in enumeration
	// order.
	Virtual int
	Buttons int
	Present bool
}

// Registry tracks the devices seen by every source.
type Registry struct {
	mu      sync.RWMutex
	devices map[binding.DeviceType][]Device
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		devices: make(map[binding.DeviceType][]Device),
		logger:  logger,
	}
}

// Add registers a device and returns it with its index and virtual id.
func (r *Registry) Add(t binding.DeviceType, name string, buttons int) Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.devices[t]
	d := Device{Type: t, Index: len(list), Name: name, Buttons: buttons, Present: true}
	for _, o := range list {
		if o.Name == name {
			d.Virtual++
		}
	}
	if d.Virtual > 0 {
		r.logger.Warn("several devices share a name, ids follow enumeration order",
			"type", t.String(), "name", name, "virtual_id", d.Virtual)
	}
	r.devices[t] = append(list, d)
	return d
}

// Remove marks a device as gone. Its index is not reused.
func (r *Registry) Remove(t binding.DeviceType, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if list := r.devices[t]; index >= 0 && index < len(list) {
		list[index].Present = false
	}
}

// Resolve finds the index of the device with the given name and virtual id.
func (r *Registry) Resolve(t binding.DeviceType, name string, virtual int) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices[t] {
		if d.Name == name && d.Virtual == virtual {
			return d.Index, true
		}
	}
	return 0, false
}

// HatBase returns the button count of joystick j; its hat directions are
// numbered after the buttons.
func (r *Registry) HatBase(j int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.devices[binding.Joystick]; j >= 0 && j < len(list) {
		return list[j].Buttons
	}
	return 0
}

// Devices lists every registered device, by type then index.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Device
	types := make([]binding.DeviceType, 0, len(r.devices))
	for t := range r.devices {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		out = append(out, r.devices[t]...)
	}
	return out
}
