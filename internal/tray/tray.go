// Package tray shows the system tray icon with links to the monitor.
package tray

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"github.com/pkg/browser"
)

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Tray manages the system tray icon and menu
type Tray struct {
	url          string
	shutdownFunc ShutdownFunc
	log          *slog.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a tray whose "Open monitor" item opens url.
func New(url string, shutdownFn ShutdownFunc, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		url:          url,
		shutdownFunc: shutdownFn,
		log:          logger,
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the icon; Run returns afterwards.
func (t *Tray) Quit() {
	t.shuttingDown.Store(true)
	systray.Quit()
}

func (t *Tray) onReady() {
	if icon, err := Icon(); err != nil {
		t.log.Warn("tray icon", "err", err)
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTitle("padmapper")
	systray.SetTooltip("padmapper - " + t.url)

	t.menuOpen = systray.AddMenuItem("Open monitor", "Open the controller monitor")
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")
	if t.url == "" {
		t.menuOpen.Disable()
	}

	go t.handleMenuClicks()

	t.log.Info("system tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.log.Debug("system tray exiting")
}

func (t *Tray) openBrowser() {
	if err := browser.OpenURL(t.url); err != nil {
		t.log.Warn("failed to open browser", "url", t.url, "err", err)
	}
}
