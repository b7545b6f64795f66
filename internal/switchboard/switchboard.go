// Package switchboard owns the controllers: their configurations, the
// active configuration index and the axis state.
package switchboard

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
)

// SwitchFunc observes a configuration change of controller c.
type SwitchFunc func(c, from, to int)

type slot struct {
	profile atomic.Pointer[binding.ControllerProfile]
	active  atomic.Int32
	family  controller.Family
	state   controller.State
}

// Board holds every controller slot. Configurations are immutable, so the
// active index is the only value that changes while mapping; it is swapped
// atomically by a single writer.
type Board struct {
	slots [controller.MaxControllers]slot

	mu       sync.Mutex
	onSwitch []SwitchFunc
}

// New creates a board for p. families assigns the console family per
// 0-based controller index; controllers without an entry are Joystick.
func New(p *binding.Profile, families map[int]controller.Family) *Board {
	b := &Board{}
	for i := range b.slots {
		b.slots[i].family = families[i]
	}
	b.load(p)
	return b
}

func (b *Board) load(p *binding.Profile) {
	for i := range b.slots {
		var cp *binding.ControllerProfile
		if p != nil {
			cp = p.Controllers[i]
		}
		s := &b.slots[i]
		s.profile.Store(cp)
		first := 0
		if ids := cp.Configured(); len(ids) > 0 {
			first = ids[0]
		}
		s.active.Store(int32(first))
		s.state.Reset()
	}
}

// Replace installs a reloaded profile. Every controller returns to its first
// configuration with a zeroed state.
func (b *Board) Replace(p *binding.Profile) {
	b.load(p)
	for c := range b.slots {
		b.notify(c, -1, b.Active(c))
	}
}

// OnSwitch registers fn to run after every configuration change.
func (b *Board) OnSwitch(fn SwitchFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSwitch = append(b.onSwitch, fn)
}

func (b *Board) notify(c, from, to int) {
	b.mu.Lock()
	fns := slices.Clone(b.onSwitch)
	b.mu.Unlock()
	for _, fn := range fns {
		fn(c, from, to)
	}
}

func (b *Board) valid(c int) bool {
	return c >= 0 && c < controller.MaxControllers
}

// Active returns the 0-based index of the active configuration.
func (b *Board) Active(c int) int {
	if !b.valid(c) {
		return 0
	}
	return int(b.slots[c].active.Load())
}

// Config returns the active configuration, nil for an inert controller.
func (b *Board) Config(c int) *binding.Configuration {
	return b.ConfigAt(c, b.Active(c))
}

// ConfigAt returns configuration cfg of controller c, or nil.
func (b *Board) ConfigAt(c, cfg int) *binding.Configuration {
	if !b.valid(c) || cfg < 0 || cfg >= controller.MaxConfigurations {
		return nil
	}
	p := b.slots[c].profile.Load()
	if p == nil {
		return nil
	}
	return p.Configs[cfg]
}

// Configured lists the present configurations of controller c.
func (b *Board) Configured(c int) []int {
	if !b.valid(c) {
		return nil
	}
	return b.slots[c].profile.Load().Configured()
}

// Set activates configuration cfg of controller c. It reports whether the
// active configuration changed.
func (b *Board) Set(c, cfg int) bool {
	if b.ConfigAt(c, cfg) == nil {
		return false
	}
	from := int(b.slots[c].active.Swap(int32(cfg)))
	if from == cfg {
		return false
	}
	b.notify(c, from, cfg)
	return true
}

// State returns the axis state of controller c.
func (b *Board) State(c int) *controller.State {
	if !b.valid(c) {
		return nil
	}
	return &b.slots[c].state
}

func (b *Board) Family(c int) controller.Family {
	if !b.valid(c) {
		return controller.Joystick
	}
	return b.slots[c].family
}

// DPI returns the mouse resolution of controller c's profile.
func (b *Board) DPI(c int) int {
	if !b.valid(c) {
		return 0
	}
	if p := b.slots[c].profile.Load(); p != nil {
		return p.DPI
	}
	return 0
}

// Controllers lists the controllers that have at least one configuration.
func (b *Board) Controllers() []int {
	var ids []int
	for c := range b.slots {
		if len(b.Configured(c)) > 0 {
			ids = append(ids, c)
		}
	}
	return ids
}
