package tui

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

const (
	screenW = 80
	screenH = 24
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestApp(t *testing.T) (*App, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	screen.SetSize(screenW, screenH)
	t.Cleanup(screen.Fini)

	logger := testLogger()
	// A long tick keeps the view still while a latitude is selected.
	sess := session.New("tui-test", session.Config{TickInterval: time.Hour, InitialView: session.InitialView}, logger)
	t.Cleanup(sess.Close)

	static := layers.NewStatic(layers.StaticConfig{})
	asm := layers.NewAssembler(static, layers.DefaultLighting(time.Now()))
	return New(screen, sess, asm, logger), screen
}

func row(screen tcell.Screen, y int) string {
	var b strings.Builder
	w, _ := screen.Size()
	for x := 0; x < w; x++ {
		ch, _, _, width := screen.GetContent(x, y)
		if width == 0 {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func click(a *App, x, y int) {
	a.HandleEvent(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	a.HandleEvent(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
}

func TestInitialFrameShowsHint(t *testing.T) {
	a, screen := newTestApp(t)
	if err := a.Draw(context.Background()); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := row(screen, screenH-1); !strings.Contains(got, "Klicka") {
		t.Errorf("bottom row = %q, want hint text", got)
	}
	if a.renderer.button != (rect{}) {
		t.Errorf("toggle button drawn before any selection: %+v", a.renderer.button)
	}
}

func TestClickSelectsLatitude(t *testing.T) {
	a, screen := newTestApp(t)
	if err := a.Draw(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Row 3 of 24 is centred on 90 - 3.5*7.5 = 63.75°.
	click(a, 10, 3)

	snap := a.session.Snapshot()
	if !snap.Selected() || *snap.SelectedLatitude != 63.75 {
		t.Fatalf("selected latitude = %v, want 63.75", snap.SelectedLatitude)
	}
	if snap.HintVisible {
		t.Error("hint still visible after click")
	}

	if err := a.Draw(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ch, _, _, _ := screen.GetContent(0, 3); ch != markerRune {
		t.Errorf("cell (0,3) = %q, want marker %q", ch, markerRune)
	}
	if got := row(screen, 1); !strings.Contains(got, "Jordens rotation") {
		t.Errorf("panel title row = %q", got)
	}
	if strings.Contains(row(screen, screenH-1), "Klicka") {
		t.Error("hint drawn after selection")
	}
}

func TestMouseActsOnPressOnly(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Draw(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.HandleEvent(tcell.NewEventMouse(0, 12, tcell.Button1, tcell.ModNone))
	first := a.session.Snapshot().Version
	// Dragging with the button held must not re-select.
	a.HandleEvent(tcell.NewEventMouse(0, 2, tcell.Button1, tcell.ModNone))
	if v := a.session.Snapshot().Version; v != first {
		t.Errorf("version changed on drag: %d -> %d", first, v)
	}
}

func TestToggleButton(t *testing.T) {
	a, screen := newTestApp(t)
	click(a, 0, 12)
	if err := a.Draw(context.Background()); err != nil {
		t.Fatal(err)
	}

	b := a.renderer.button
	if b.w == 0 {
		t.Fatal("toggle button not drawn")
	}
	if got := row(screen, b.y); !strings.Contains(got, "Dölj panel") {
		t.Errorf("button row = %q", got)
	}

	click(a, b.x+1, b.y)
	if !a.session.Snapshot().PanelCollapsed {
		t.Fatal("button click did not collapse the panel")
	}
	if err := a.Draw(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.renderer.button.y != 0 {
		t.Errorf("collapsed button row = %d, want 0", a.renderer.button.y)
	}
	if got := row(screen, 0); !strings.Contains(got, "Visa panel") {
		t.Errorf("collapsed button row = %q", got)
	}
}

func TestKeys(t *testing.T) {
	a, _ := newTestApp(t)

	tests := []struct {
		name     string
		ev       *tcell.EventKey
		wantQuit bool
		check    func(session.Snapshot) bool
	}{
		{"right pans east", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), false,
			func(s session.Snapshot) bool { return s.View.Longitude == 10 }},
		{"up tilts north", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), false,
			func(s session.Snapshot) bool { return s.View.Latitude == 30 }},
		{"plus zooms", tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), false,
			func(s session.Snapshot) bool { return s.View.Zoom == 1 }},
		{"p toggles panel", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), false,
			func(s session.Snapshot) bool { return s.PanelCollapsed }},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true, nil},
		{"escape quits", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if quit := a.HandleEvent(tt.ev); quit != tt.wantQuit {
				t.Fatalf("quit = %v, want %v", quit, tt.wantQuit)
			}
			if tt.check != nil && !tt.check(a.session.Snapshot()) {
				t.Errorf("unexpected snapshot %+v", a.session.Snapshot())
			}
		})
	}
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(screenW, screenH)

	r := NewRenderer(screen)
	r.view.Longitude = 725 // accumulated spin, two turns plus 5°

	for _, cell := range [][2]int{{0, 0}, {40, 12}, {79, 23}, {17, 5}} {
		c := r.Unproject(cell[0], cell[1])
		x, y := r.project(rotation.Position{c.Longitude, c.Latitude})
		if x != cell[0] || y != cell[1] {
			t.Errorf("cell %v -> %+v -> (%d,%d)", cell, c, x, y)
		}
	}
}

func TestBlend(t *testing.T) {
	black := rotation.RGB{0, 0, 0}
	white := rotation.RGB{255, 255, 255}

	if got := blend(black, white, 0); got != black {
		t.Errorf("blend t=0 = %v", got)
	}
	if got := blend(black, white, 1); got != white {
		t.Errorf("blend t=1 = %v", got)
	}
	mid := blend(black, white, 0.5)
	if math.Abs(float64(mid[0])-127.5) > 1 {
		t.Errorf("blend t=0.5 = %v", mid)
	}
}

func TestRunQuitsOnContextCancel(t *testing.T) {
	a, _ := newTestApp(t)
	a.frameInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
