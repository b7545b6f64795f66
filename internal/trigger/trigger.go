// Package trigger switches the active configuration of a controller when
// the configured trigger event is seen.
package trigger

import (
	"log/slog"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
)

// Board is the part of the switchboard the engine drives.
type Board interface {
	Active(c int) int
	Set(c, cfg int) bool
	ConfigAt(c, cfg int) *binding.Configuration
	Configured(c int) []int
}

// revert is a pending switch back to the configuration that was active
// before a momentary trigger.
type revert struct {
	to       int
	event    binding.EventID
	deadline time.Time
	delay    time.Duration // zero: revert on release
	held     bool          // a delayed revert waits for the trigger to be let go
}

type controllerState struct {
	// previous is the configuration left by the last trigger, used by
	// single-configuration toggles.
	previous int
	pending  *revert
}

// Engine keeps per-controller trigger state. Controllers never share state.
type Engine struct {
	board Board
	log   *slog.Logger
	ctrl  [controller.MaxControllers]controllerState
}

func New(board Board, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{board: board, log: logger}
	for c := range e.ctrl {
		e.ctrl[c].previous = -1
	}
	return e
}

// Check inspects one event edge for every controller.
func (e *Engine) Check(id binding.EventID, pressed bool, now time.Time) {
	for c := range e.ctrl {
		if pressed {
			e.press(c, id, now)
		} else {
			e.release(c, id, now)
		}
	}
}

// owners lists the configurations of c whose trigger is id, in order.
func (e *Engine) owners(c int, id binding.EventID) []int {
	var ids []int
	for _, cfg := range e.board.Configured(c) {
		conf := e.board.ConfigAt(c, cfg)
		if conf != nil && conf.Trigger != nil && conf.Trigger.Event == id {
			ids = append(ids, cfg)
		}
	}
	return ids
}

func (e *Engine) press(c int, id binding.EventID, now time.Time) {
	owners := e.owners(c, id)
	if len(owners) == 0 {
		return
	}
	st := &e.ctrl[c]
	active := e.board.Active(c)

	// Repeating a momentary trigger keeps it engaged.
	if r := st.pending; r != nil && r.delay > 0 && r.event == id {
		r.held = true
		r.deadline = now.Add(r.delay)
		return
	}

	target := owners[0]
	for i, cfg := range owners {
		if cfg == active {
			target = owners[(i+1)%len(owners)]
			break
		}
	}
	if target == active {
		// A lone owner toggles back to where it came from.
		if st.previous < 0 || st.previous == active {
			return
		}
		target = st.previous
	}

	spec := e.board.ConfigAt(c, target).Trigger
	origin := active
	if st.pending != nil {
		origin = st.pending.to
		st.pending = nil
	}
	if !e.board.Set(c, target) {
		return
	}
	st.previous = active
	e.log.Info("configuration switched", "controller", c+1, "from", active+1, "to", target+1, "trigger", id.String())

	if spec != nil && spec.SwitchBack && origin != target {
		r := &revert{to: origin, event: id}
		if spec.Delay > 0 {
			r.delay = spec.Delay
			r.held = true
			r.deadline = now.Add(spec.Delay)
		}
		st.pending = r
	}
}

func (e *Engine) release(c int, id binding.EventID, now time.Time) {
	st := &e.ctrl[c]
	r := st.pending
	if r == nil || r.event != id {
		return
	}
	if r.delay > 0 {
		// The delay counts from the last release.
		r.held = false
		r.deadline = now.Add(r.delay)
		return
	}
	st.pending = nil
	e.switchBack(c, r.to)
}

// Poll performs delayed reverts whose deadline has passed. A revert whose
// trigger is still held waits for the release. Each pending revert fires
// once.
func (e *Engine) Poll(now time.Time) {
	for c := range e.ctrl {
		st := &e.ctrl[c]
		r := st.pending
		if r == nil || r.delay == 0 || r.held || now.Before(r.deadline) {
			continue
		}
		st.pending = nil
		e.switchBack(c, r.to)
	}
}

func (e *Engine) switchBack(c, to int) {
	from := e.board.Active(c)
	if e.board.Set(c, to) {
		e.ctrl[c].previous = from
		e.log.Info("configuration switched back", "controller", c+1, "from", from+1, "to", to+1)
	}
}

// Select forces configuration cfg of controller c and drops any pending
// revert.
func (e *Engine) Select(c, cfg int) bool {
	if c < 0 || c >= controller.MaxControllers {
		return false
	}
	from := e.board.Active(c)
	if !e.board.Set(c, cfg) {
		return false
	}
	e.ctrl[c].previous = from
	e.ctrl[c].pending = nil
	e.log.Info("configuration selected", "controller", c+1, "to", cfg+1)
	return true
}

// Reset forgets all trigger history, used after a profile reload.
func (e *Engine) Reset() {
	for c := range e.ctrl {
		e.ctrl[c] = controllerState{previous: -1}
	}
}
