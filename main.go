package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/soar/padmapper/internal/adapter"
	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/config"
	"github.com/soar/padmapper/internal/console"
	"github.com/soar/padmapper/internal/controller"
	"github.com/soar/padmapper/internal/dispatch"
	"github.com/soar/padmapper/internal/engine"
	"github.com/soar/padmapper/internal/event"
	"github.com/soar/padmapper/internal/hub"
	"github.com/soar/padmapper/internal/input"
	"github.com/soar/padmapper/internal/macro"
	"github.com/soar/padmapper/internal/profile"
	"github.com/soar/padmapper/internal/server"
	"github.com/soar/padmapper/internal/switchboard"
	"github.com/soar/padmapper/internal/tray"
	"github.com/soar/padmapper/internal/trigger"
)

// os.Interrupt covers Ctrl+C on every platform.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const (
	// joysticks present at start-up must be registered before the
	// profile resolves device names
	enumerateTimeout = 3 * time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "padmapper:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fromConsole := console.IsRunningFromConsole()

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan struct{})
	reregister := console.SetupConsoleHandler(interrupt)
	go func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	// Sources deliver here until the engine exists.
	events := make(chan event.Event, 256)
	registry := input.NewRegistry(logger)
	startInputs(gctx, g, cfg, registry, events, logger)
	reregister()

	loader := profile.NewLoader(registry, logger)
	p, err := loader.LoadFile(cfg.Profile)
	if err != nil {
		cancel()
		g.Wait()
		return err
	}
	if cfg.Input.SingleInput {
		p.SingleInput = true
	}

	set, err := macro.Load(cfg.Macros...)
	if err != nil {
		cancel()
		g.Wait()
		return err
	}

	targets, families, err := openAdapters(cfg.Adapters, logger)
	if err != nil {
		cancel()
		g.Wait()
		return err
	}

	board := switchboard.New(p, families)
	triggers := trigger.New(board, logger)
	macros := macro.NewEngine(set, logger)
	disp := dispatch.New(board, dispatch.Options{
		SingleInput: p.SingleInput,
		HatBase:     registry.HatBase,
		MouseDPI:    cfg.Input.MouseDPI,
		Triggers:    triggers,
		Macros:      macros,
		Logger:      logger,
	})
	sender := adapter.NewSender(board, targets, cfg.Keepalive, logger)
	defer func() {
		if err := sender.Close(); err != nil {
			logger.Warn("closing adapters", "err", err)
		}
	}()

	h := hub.NewHub(logger)
	broadcaster := hub.NewBroadcaster(h)
	var publisher engine.Publisher
	if cfg.Monitor.Enabled {
		publisher = broadcaster
	}

	eng, err := engine.New(board, disp, triggers, engine.Options{
		Refresh:   cfg.Refresh,
		Sender:    sender,
		Publisher: publisher,
		Macros:    macros,
		Keygen:    cfg.Keygen,
		Logger:    logger,
	})
	if err != nil {
		cancel()
		g.Wait()
		return err
	}
	engine.RaisePriority(logger)

	g.Go(func() error {
		defer cancel()
		return eng.Run(gctx)
	})
	g.Go(func() error {
		return forward(gctx, events, eng.Events())
	})

	if cfg.Monitor.Enabled {
		assets, err := frontendFS()
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		srv, err := server.New(h, broadcaster, eng, assets, cfg.Monitor.Addr, logger)
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		g.Go(func() error {
			broadcaster.Run(gctx)
			return nil
		})
		g.Go(srv.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	if cfg.Watch {
		g.Go(func() error {
			return loader.Watch(gctx, cfg.Profile, func(p *binding.Profile) {
				if cfg.Input.SingleInput {
					p.SingleInput = true
				}
				if err := eng.Replace(p); err != nil {
					logger.Warn("profile reload dropped", "err", err)
				}
			})
		})
	}

	if cfg.Tray || !fromConsole {
		url := ""
		if cfg.Monitor.Enabled {
			url = monitorURL(cfg.Monitor.Addr)
		}
		t := tray.New(url, func() { cancel() }, logger)
		go t.Run()
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
	} else {
		logger.Info("press Ctrl+C to exit")
	}

	logger.Info("padmapper started", "controllers", len(board.Controllers()), "adapters", len(targets))
	err = g.Wait()
	logger.Info("padmapper stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startInputs launches the enabled input sources and waits until the
// joysticks present at start-up are known.
func startInputs(ctx context.Context, g *errgroup.Group, cfg *config.Config, registry *input.Registry, out chan<- event.Event, logger *slog.Logger) {
	if cfg.Input.Evdev {
		r := input.NewEvdevReader(registry, cfg.Input.Grab, logger)
		if err := r.Open(); err != nil {
			logger.Warn("keyboards and mice unavailable", "err", err)
		} else {
			g.Go(func() error { return r.Run(ctx, out) })
		}
	}
	if !cfg.Input.SDL {
		return
	}
	r := input.NewSDLReader(registry, logger)
	g.Go(func() error {
		if err := r.Run(ctx, out); err != nil {
			logger.Warn("joysticks unavailable", "err", err)
		}
		return nil
	})
	select {
	case <-r.Ready():
	case <-ctx.Done():
	case <-time.After(enumerateTimeout):
		logger.Warn("joystick enumeration is slow, loading the profile anyway")
	}
}

func openAdapters(list []config.AdapterConfig, logger *slog.Logger) ([]adapter.Target, map[int]controller.Family, error) {
	var targets []adapter.Target
	families := make(map[int]controller.Family)
	for _, a := range list {
		t, err := adapter.Open(a.Options(), logger)
		if err != nil {
			for _, t := range targets {
				t.Sink.Close()
			}
			return nil, nil, fmt.Errorf("adapter for controller %d: %w", a.Controller, err)
		}
		logger.Info("adapter ready", "controller", a.Controller, "family", t.Family.String(), "sink", a.Sink)
		targets = append(targets, t)
		families[t.Controller] = t.Family
	}
	return targets, families, nil
}

func forward(ctx context.Context, in <-chan event.Event, out chan<- event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-in:
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func monitorURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}
