package macro

import (
	"log/slog"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/event"
)

type run struct {
	m    *Macro
	next int
	due  time.Time
	// held lists the release of every input the run has pressed or
	// deflected and not yet let go.
	held []event.Event
}

// releaseType is the event type that lets go of an input touched by t.
func releaseType(t event.Type) (event.Type, bool) {
	switch t {
	case event.KeyDown, event.KeyUp:
		return event.KeyUp, true
	case event.MouseButtonDown, event.MouseButtonUp:
		return event.MouseButtonUp, true
	case event.JoyButtonDown, event.JoyButtonUp:
		return event.JoyButtonUp, true
	case event.JoyAxis:
		return event.JoyAxis, true
	}
	return 0, false
}

// track records ev against the inputs the run holds.
func (r *run) track(ev event.Event) {
	t, ok := releaseType(ev.Type)
	if !ok {
		return
	}
	up := event.Event{Type: t, Device: ev.Device, Code: ev.Code}
	for i, h := range r.held {
		if h == up {
			r.held = append(r.held[:i], r.held[i+1:]...)
			break
		}
	}
	if ev.Pressed() || ev.Type == event.JoyAxis && ev.Value != 0 {
		r.held = append(r.held, up)
	}
}

// Engine tracks running macros. Events are released by Poll, so playback
// always happens on the caller's tick.
type Engine struct {
	byTrigger map[binding.EventID][]*Macro
	running   []*run
	releases  []event.Event // owed by runs cut short, emitted by the next Poll
	log       *slog.Logger
}

func NewEngine(set *Set, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{byTrigger: make(map[binding.EventID][]*Macro), log: logger}
	if set != nil {
		for _, m := range set.Macros {
			e.byTrigger[m.Trigger] = append(e.byTrigger[m.Trigger], m)
		}
	}
	return e
}

// Lookup starts the macros triggered by a press of id. A running toggle
// macro is stopped instead; any other running macro restarts. Inputs a
// stopped or restarted run still holds are released on the next Poll.
func (e *Engine) Lookup(id binding.EventID, pressed bool, now time.Time) {
	if !pressed {
		return
	}
	for _, m := range e.byTrigger[id] {
		if i := e.index(m); i >= 0 {
			e.releases = append(e.releases, e.running[i].held...)
			if m.Toggle {
				e.running = append(e.running[:i], e.running[i+1:]...)
				e.log.Debug("macro stopped", "macro", m.Name)
				continue
			}
			e.running[i] = start(m, now)
			e.log.Debug("macro restarted", "macro", m.Name)
			continue
		}
		e.running = append(e.running, start(m, now))
		e.log.Debug("macro started", "macro", m.Name)
	}
}

func start(m *Macro, now time.Time) *run {
	r := &run{m: m, due: now.Add(m.Tail)}
	if len(m.Steps) > 0 {
		r.due = now.Add(m.Steps[0].Wait)
	}
	return r
}

func (e *Engine) index(m *Macro) int {
	for i, r := range e.running {
		if r.m == m {
			return i
		}
	}
	return -1
}

// Poll returns the steps due at now, in start order, marked synthetic.
// Releases owed by cut-short runs come first.
func (e *Engine) Poll(now time.Time) []event.Event {
	if len(e.running) == 0 && len(e.releases) == 0 {
		return nil
	}
	var out []event.Event
	for _, ev := range e.releases {
		ev.Time = now
		ev.Synthetic = true
		out = append(out, ev)
	}
	e.releases = e.releases[:0]
	kept := e.running[:0]
	for _, r := range e.running {
		steps := r.m.Steps
		for r.next < len(steps) && !now.Before(r.due) {
			ev := steps[r.next].Event
			ev.Time = now
			ev.Synthetic = true
			out = append(out, ev)
			r.track(ev)
			r.next++
			if r.next < len(steps) {
				r.due = r.due.Add(steps[r.next].Wait)
			} else {
				r.due = r.due.Add(r.m.Tail)
			}
		}
		if r.next == len(steps) && !now.Before(r.due) {
			e.log.Debug("macro finished", "macro", r.m.Name)
			continue
		}
		kept = append(kept, r)
	}
	clear(e.running[len(kept):])
	e.running = kept
	return out
}

// Running returns the number of macros in progress.
func (e *Engine) Running() int {
	return len(e.running)
}
