package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/session"
)

// DefaultFrameInterval caps redraws at roughly 30 per second.
const DefaultFrameInterval = 33 * time.Millisecond

// panStep is the camera move per arrow key, in degrees.
const panStep = 10.0

// App connects one session to a terminal: it draws the session's frames and
// turns key presses and mouse clicks into session events.
type App struct {
	screen        tcell.Screen
	session       *session.Session
	assembler     *layers.Assembler
	renderer      *Renderer
	frameInterval time.Duration
	logger        *slog.Logger
	pressed       tcell.ButtonMask
}

// New creates an App. The screen must already be initialised; the caller
// owns it and calls Fini.
func New(screen tcell.Screen, sess *session.Session, asm *layers.Assembler, logger *slog.Logger) *App {
	return &App{
		screen:        screen,
		session:       sess,
		assembler:     asm,
		renderer:      NewRenderer(screen),
		frameInterval: DefaultFrameInterval,
		logger:        logger.With("component", "tui"),
	}
}

// Draw assembles the current frame and renders it.
func (a *App) Draw(ctx context.Context) error {
	return a.renderer.Render(ctx, a.assembler.Assemble(a.session.Snapshot()))
}

// HandleEvent applies one terminal event and reports whether the app should quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return false
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	view := a.session.Snapshot().View
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		a.session.OnViewStateChange(session.ViewPatch{Longitude: ptr(view.Longitude - panStep)})
	case tcell.KeyRight:
		a.session.OnViewStateChange(session.ViewPatch{Longitude: ptr(view.Longitude + panStep)})
	case tcell.KeyUp:
		a.session.OnViewStateChange(session.ViewPatch{Latitude: ptr(min(view.Latitude+panStep, 90))})
	case tcell.KeyDown:
		a.session.OnViewStateChange(session.ViewPatch{Latitude: ptr(max(view.Latitude-panStep, -90))})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'p':
			a.session.TogglePanel()
		case '+':
			a.session.OnViewStateChange(session.ViewPatch{Zoom: ptr(view.Zoom + 1)})
		case '-':
			a.session.OnViewStateChange(session.ViewPatch{Zoom: ptr(view.Zoom - 1)})
		}
	}
	return false
}

// handleMouse acts on the press edge of the primary button only; tcell
// repeats the button state on every motion event.
func (a *App) handleMouse(ev *tcell.EventMouse) {
	buttons := ev.Buttons()
	down := buttons&tcell.Button1 != 0 && a.pressed&tcell.Button1 == 0
	a.pressed = buttons
	if !down {
		return
	}

	x, y := ev.Position()
	if a.renderer.OnButton(x, y) {
		a.session.TogglePanel()
		return
	}
	c := a.renderer.Unproject(x, y)
	a.session.OnGlobeClick(&c)
	a.logger.Debug("globe clicked", "x", x, "y", y, "longitude", c.Longitude, "latitude", c.Latitude)
}

// Run draws frames and processes input until the user quits or ctx is done.
// Redraws are coalesced to at most one per frame interval.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	changes, unsubscribe := a.session.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(a.frameInterval)
	defer ticker.Stop()

	if err := a.Draw(ctx); err != nil {
		return err
	}
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if a.HandleEvent(ev) {
				return nil
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				dirty = true
			}
		case <-changes:
			dirty = true
		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := a.Draw(ctx); err != nil {
				return err
			}
		}
	}
}

func ptr(v float64) *float64 { return &v }
