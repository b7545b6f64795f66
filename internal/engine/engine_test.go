package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/dispatch"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/keys"
	"github.com/soar/padmapper/internal/macro"
	"github.com/soar/padmapper/internal/switchboard"
	"github.com/soar/padmapper/internal/trigger"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func key(name string) binding.EventID {
	code, _ := keys.Key(name)
	return binding.EventID{Device: binding.DeviceID{Type: binding.Keyboard}, Kind: binding.Button, Code: code}
}

func press(name string, down bool) event.Event {
	code, _ := keys.Key(name)
	ev := event.Button(binding.Keyboard, 0, code, down)
	ev.Time = time.Now()
	return ev
}

// profile gives controller 1 one configuration per table.
func profile(t *testing.T, tables ...[]binding.Entry) *binding.Profile {
	t.Helper()
	cp := &binding.ControllerProfile{}
	for i, entries := range tables {
		tab, err := binding.NewTable(entries)
		if err != nil {
			t.Fatal(err)
		}
		cp.Configs[i] = &binding.Configuration{ID: i, Bindings: tab}
	}
	p := &binding.Profile{}
	p.Controllers[0] = cp
	return p
}

func toButton(a controller.Axis, v int) binding.ButtonBinding {
	return binding.ButtonBinding{Target: controller.AxisRef{Axis: a}, Value: v}
}

type counter struct{ n atomic.Int32 }

func (c *counter) Send(time.Time) { c.n.Add(1) }

type snaps chan []Snapshot

func (s snaps) Publish(x []Snapshot) {
	select {
	case s <- x:
	default:
	}
}

func waitFor(t *testing.T, ch snaps, ok func([]Snapshot) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if ok(s) {
				return
			}
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

type rig struct {
	eng    *Engine
	board  *switchboard.Board
	pub    snaps
	sent   *counter
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, p *binding.Profile, opts Options) *rig {
	t.Helper()
	board := switchboard.New(p, map[int]controller.Family{0: controller.DS4})
	trig := trigger.New(board, quiet())
	var macros dispatch.Macros
	if m, ok := opts.Macros.(*macro.Engine); ok {
		macros = m
	}
	disp := dispatch.New(board, dispatch.Options{Triggers: trig, Macros: macros, Logger: quiet()})

	r := &rig{board: board, pub: make(snaps, 1), sent: &counter{}, done: make(chan error, 1)}
	opts.Refresh = time.Millisecond
	opts.Sender = r.sent
	opts.Publisher = r.pub
	opts.Logger = quiet()
	eng, err := New(board, disp, trig, opts)
	if err != nil {
		t.Fatal(err)
	}
	r.eng = eng
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() { r.done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-r.done
	})
	return r
}

func TestEventsReachState(t *testing.T) {
	r := start(t, profile(t, []binding.Entry{{Event: key("w"), Binding: toButton(controller.LStickY, -100)}}), Options{})

	r.eng.Events() <- press("w", true)
	waitFor(t, r.pub, func(s []Snapshot) bool {
		return len(s) == 1 && s[0].Axes[controller.LStickY] == -100
	})
	if s := r.board.Family(0); s != controller.DS4 {
		t.Errorf("family = %v", s)
	}
	if r.sent.n.Load() == 0 {
		t.Error("no report sent")
	}
}

func TestSelectConfig(t *testing.T) {
	r := start(t, profile(t, nil, nil), Options{})

	if err := r.eng.SelectConfig(1, 2); err != nil {
		t.Fatalf("SelectConfig: %v", err)
	}
	waitFor(t, r.pub, func(s []Snapshot) bool { return len(s) == 1 && s[0].Config == 1 })

	for _, c := range [][2]int{{1, 3}, {1, 9}, {8, 1}} {
		if err := r.eng.SelectConfig(c[0], c[1]); err == nil {
			t.Errorf("SelectConfig(%d, %d) accepted", c[0], c[1])
		}
	}
}

func TestReplace(t *testing.T) {
	r := start(t, profile(t, []binding.Entry{{Event: key("w"), Binding: toButton(controller.Cross, 100)}}), Options{})

	next := profile(t, []binding.Entry{{Event: key("w"), Binding: toButton(controller.Square, 100)}})
	if err := r.eng.Replace(next); err != nil {
		t.Fatal(err)
	}
	r.eng.Events() <- press("w", true)
	waitFor(t, r.pub, func(s []Snapshot) bool {
		return len(s) == 1 && s[0].Axes[controller.Square] == 100 && s[0].Axes[controller.Cross] == 0
	})
}

func TestKeygenExitsWhenMacrosDone(t *testing.T) {
	set, err := macro.Parse([]byte(`
macros:
  - name: tap
    trigger: {device: keyboard, button: f5}
    steps:
      - key_down: a
      - delay: 20
      - key_up: a
`), ".yaml")
	if err != nil {
		t.Fatal(err)
	}
	m := macro.NewEngine(set, quiet())
	p := profile(t, []binding.Entry{{Event: key("a"), Binding: toButton(controller.Cross, 100)}})
	r := start(t, p, Options{Keygen: "f5", Macros: m})

	select {
	case err := <-r.done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
		r.done <- nil
	case <-time.After(2 * time.Second):
		t.Fatal("keygen run did not finish")
	}
	if err := r.eng.SelectConfig(1, 1); !errors.Is(err, ErrStopped) {
		t.Errorf("SelectConfig after stop = %v", err)
	}
}

func TestNewRejectsUnknownKeygen(t *testing.T) {
	board := switchboard.New(&binding.Profile{}, nil)
	trig := trigger.New(board, quiet())
	disp := dispatch.New(board, dispatch.Options{Logger: quiet()})
	if _, err := New(board, disp, trig, Options{Refresh: time.Millisecond, Keygen: "nokey"}); err == nil {
		t.Error("unknown keygen key accepted")
	}
}
