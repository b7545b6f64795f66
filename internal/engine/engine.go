// Package engine runs the processing loop: input events and commands are
// handled one at a time, and every refresh period the dispatcher ticks,
// reports go out and the monitor gets a snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/dispatch"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/keys"
	"github.com/soar/padmapper/internal/switchboard"
	"github.com/soar/padmapper/internal/trigger"
)

var ErrStopped = errors.New("engine stopped")

// Snapshot is the state of one controller after a tick.
type Snapshot struct {
	Controller int
	Family     controller.Family
	Config     int
	Configured []int
	Axes       [controller.AxisMax]int32
}

// Publisher receives a snapshot of every configured controller per tick.
type Publisher interface {
	Publish(snaps []Snapshot)
}

// Sender delivers the reports of one tick.
type Sender interface {
	Send(now time.Time)
}

// Macros is the part of the macro engine the loop watches.
type Macros interface {
	Running() int
}

type Options struct {
	Refresh   time.Duration
	Sender    Sender
	Publisher Publisher
	Macros    Macros
	// Keygen names a key pressed once when Run starts; Run then returns
	// as soon as no macro is running.
	Keygen string
	Logger *slog.Logger
}

type Engine struct {
	board    *switchboard.Board
	disp     *dispatch.Dispatcher
	triggers *trigger.Engine
	opts     Options
	log      *slog.Logger
	keygen   int

	events chan event.Event
	cmds   chan func()
	done   chan struct{}
}

const eventQueue = 256

func New(board *switchboard.Board, disp *dispatch.Dispatcher, triggers *trigger.Engine, opts Options) (*Engine, error) {
	if opts.Refresh <= 0 {
		return nil, fmt.Errorf("refresh period %s", opts.Refresh)
	}
	e := &Engine{
		board:    board,
		disp:     disp,
		triggers: triggers,
		opts:     opts,
		log:      opts.Logger,
		keygen:   -1,
		events:   make(chan event.Event, eventQueue),
		cmds:     make(chan func(), 8),
		done:     make(chan struct{}),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if opts.Keygen != "" {
		code, ok := keys.Key(opts.Keygen)
		if !ok {
			return nil, fmt.Errorf("keygen: unknown key %q", opts.Keygen)
		}
		e.keygen = code
	}
	return e, nil
}

// Events is where input sources deliver their events.
func (e *Engine) Events() chan<- event.Event {
	return e.events
}

// Run processes events until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	ticker := time.NewTicker(e.opts.Refresh)
	defer ticker.Stop()

	if e.keygen >= 0 {
		now := time.Now()
		for _, pressed := range []bool{true, false} {
			ev := event.Button(binding.Keyboard, 0, e.keygen, pressed)
			ev.Time = now
			e.disp.Process(ev)
		}
		e.log.Info("keygen", "key", e.opts.Keygen)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-e.events:
			e.disp.Process(ev)
		case fn := <-e.cmds:
			fn()
		case now := <-ticker.C:
			e.tick(now)
			if e.keygen >= 0 && (e.opts.Macros == nil || e.opts.Macros.Running() == 0) {
				e.log.Info("keygen macros done")
				return nil
			}
		}
	}
}

func (e *Engine) tick(now time.Time) {
	e.disp.Tick(now)
	if e.opts.Sender != nil {
		e.opts.Sender.Send(now)
	}
	if e.opts.Publisher != nil {
		e.opts.Publisher.Publish(e.snapshots())
	}
}

func (e *Engine) snapshots() []Snapshot {
	ids := e.board.Controllers()
	snaps := make([]Snapshot, 0, len(ids))
	for _, c := range ids {
		snaps = append(snaps, Snapshot{
			Controller: c,
			Family:     e.board.Family(c),
			Config:     e.board.Active(c),
			Configured: e.board.Configured(c),
			Axes:       e.board.State(c).Snapshot(),
		})
	}
	return snaps
}

// do runs fn on the loop goroutine.
func (e *Engine) do(fn func()) error {
	select {
	case e.cmds <- fn:
		return nil
	case <-e.done:
		return ErrStopped
	}
}

// SelectConfig activates configuration cfg (1-based) of controller c
// (1-based).
func (e *Engine) SelectConfig(c, cfg int) error {
	ci, err := controller.ControllerIndex(c)
	if err != nil {
		return err
	}
	ki, err := controller.ConfigIndex(cfg)
	if err != nil {
		return err
	}
	if e.board.ConfigAt(ci, ki) == nil {
		return fmt.Errorf("controller %d has no configuration %d", c, cfg)
	}
	return e.do(func() { e.triggers.Select(ci, ki) })
}

// Replace swaps in a reloaded profile. Every controller restarts on its
// first configuration.
func (e *Engine) Replace(p *binding.Profile) error {
	return e.do(func() {
		e.board.Replace(p)
		e.triggers.Reset()
		e.disp.SetSingleInput(p.SingleInput)
		e.log.Info("profile replaced", "controllers", len(e.board.Controllers()))
	})
}
