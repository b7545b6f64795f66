package input

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/padmapper/internal/binding"
	"github.com/soar/padmapper/internal/event"
)

const pollDelayNS = 1_000_000

type joystickInfo struct {
	joystick *sdl.Joystick
	index    int
	name     string
}

// SDLReader reads joysticks through the SDL3 joystick API.
type SDLReader struct {
	registry  *Registry
	logger    *slog.Logger
	joysticks map[sdl.JoystickID]*joystickInfo
	ready     chan struct{}
}

func NewSDLReader(registry *Registry, logger *slog.Logger) *SDLReader {
	return &SDLReader{
		registry:  registry,
		logger:    logger,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the joysticks present at start-up are registered.
func (r *SDLReader) Ready() <-chan struct{} {
	return r.ready
}

// Run initialises SDL and pumps its events on a locked OS thread.
func (r *SDLReader) Run(ctx context.Context, out chan<- event.Event) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		close(r.ready)
		return fmt.Errorf("SDL init: %s", sdl.GetError())
	}
	defer sdl.Quit()
	r.logger.Info("SDL3 joystick subsystem initialized")

	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}
	close(r.ready)

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}
		r.processEvents(ctx, out)
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *SDLReader) processEvents(ctx context.Context, out chan<- event.Event) {
	var e sdl.Event
	for sdl.PollEvent(&e) {
		var ev event.Event
		switch e.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(e.JDevice().Which)
			continue
		case sdl.EventJoystickRemoved:
			r.removeJoystick(e.JDevice().Which)
			continue
		case sdl.EventJoystickButtonDown, sdl.EventJoystickButtonUp:
			be := e.JButton()
			info, ok := r.joysticks[be.Which]
			if !ok {
				continue
			}
			ev = event.Button(binding.Joystick, info.index, int(be.Button), e.Type() == sdl.EventJoystickButtonDown)
		case sdl.EventJoystickAxisMotion:
			ae := e.JAxis()
			info, ok := r.joysticks[ae.Which]
			if !ok {
				continue
			}
			ev = event.Event{Type: event.JoyAxis, Device: info.index, Code: int(ae.Axis), Value: int(ae.Value)}
		case sdl.EventJoystickHatMotion:
			he := e.JHat()
			info, ok := r.joysticks[he.Which]
			if !ok {
				continue
			}
			ev = event.Event{Type: event.JoyHat, Device: info.index, Code: int(he.Hat), Value: int(he.Value)}
		default:
			continue
		}
		ev.Time = time.Now()
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (r *SDLReader) openJoystick(id sdl.JoystickID) {
	if _, exists := r.joysticks[id]; exists {
		return
	}
	js := sdl.OpenJoystick(id)
	if js == nil {
		r.logger.Warn("failed to open joystick", "id", id, "error", sdl.GetError())
		return
	}
	name := sdl.GetJoystickName(js)
	d := r.registry.Add(binding.Joystick, name, int(sdl.GetNumJoystickButtons(js)))
	r.joysticks[id] = &joystickInfo{joystick: js, index: d.Index, name: name}

	r.logger.Info("joystick connected",
		"name", name,
		"index", d.Index,
		"virtual_id", d.Virtual,
		"vid", fmt.Sprintf("%04X", sdl.GetJoystickVendor(js)),
		"pid", fmt.Sprintf("%04X", sdl.GetJoystickProduct(js)),
		"axes", sdl.GetNumJoystickAxes(js),
		"buttons", d.Buttons,
		"hats", sdl.GetNumJoystickHats(js),
	)
}

func (r *SDLReader) removeJoystick(id sdl.JoystickID) {
	info, exists := r.joysticks[id]
	if !exists {
		return
	}
	r.logger.Info("joystick disconnected", "name", info.name, "index", info.index)
	sdl.CloseJoystick(info.joystick)
	r.registry.Remove(binding.Joystick, info.index)
	delete(r.joysticks, id)
}

func (r *SDLReader) closeAll() {
	for id, info := range r.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}
