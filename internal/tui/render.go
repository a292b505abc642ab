// Package tui draws session frames on a terminal with tcell. The globe is
// shown as an equirectangular map centred on the view longitude, so the
// animation scrolls the map sideways the way the globe spins.
package tui

import (
	"context"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

// globeShade is how much of the mesh colour shows through on a dark terminal.
const globeShade = 0.12

const (
	bandRune     = '─'
	particleRune = '·'
	markerRune   = '═'
)

// rect is a screen region in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// Renderer draws frames onto a tcell screen. It remembers the last view and
// button position so clicks can be mapped back. Not safe for concurrent use.
type Renderer struct {
	screen tcell.Screen
	view   session.ViewState
	button rect
}

// NewRenderer returns a renderer for screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen, view: session.InitialView}
}

// Render draws f and shows the result.
func (r *Renderer) Render(ctx context.Context, f layers.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.view = f.View
	r.button = rect{}
	r.screen.Clear()

	var base rotation.RGB
	surface := tcell.StyleDefault
	for _, l := range f.Layers {
		switch l.Kind {
		case layers.KindSimpleMesh:
			base = blend(base, colorOr(l.Color, rotation.White), globeShade)
			surface = surface.Background(toColor(base))
			r.fill(surface)
		case layers.KindGeoJSON:
			if l.GeoJSON == nil {
				continue
			}
			// Without polygons the land tint washes over the whole surface.
			base = blend(base, l.GeoJSON.FillColor, l.GeoJSON.Opacity)
			surface = surface.Background(toColor(base))
			r.fill(surface)
		case layers.KindLine:
			r.drawLine(l, surface)
		case layers.KindText:
			r.drawHint(l.Overlay)
		case layers.KindPanel:
			r.drawPanel(l.Overlay)
		case layers.KindButton:
			r.drawButton(l.Overlay, f)
		}
	}

	r.screen.Show()
	return nil
}

// Unproject maps a cell back to the globe coordinate under its centre.
func (r *Renderer) Unproject(x, y int) session.Coordinate {
	w, h := r.screen.Size()
	lon := r.view.Longitude - 180 + (float64(x)+0.5)*360/float64(w)
	lat := 90 - (float64(y)+0.5)*180/float64(h)
	return session.Coordinate{Longitude: wrapLon(lon), Latitude: lat}
}

// OnButton reports whether (x, y) hits the panel toggle drawn last frame.
func (r *Renderer) OnButton(x, y int) bool {
	return r.button.contains(x, y)
}

// project maps a globe position to a cell.
func (r *Renderer) project(p rotation.Position) (int, int) {
	w, h := r.screen.Size()
	rel := math.Mod(p.Lon()-r.view.Longitude+180, 360)
	if rel < 0 {
		rel += 360
	}
	x := int(rel / 360 * float64(w))
	y := int((90 - p.Lat()) / 180 * float64(h))
	return clamp(x, 0, w-1), clamp(y, 0, h-1)
}

func (r *Renderer) fill(style tcell.Style) {
	w, h := r.screen.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func (r *Renderer) drawLine(l layers.Descriptor, surface tcell.Style) {
	ch := bandRune
	switch l.ID {
	case layers.IDParticles:
		ch = particleRune
	case layers.IDMarker:
		ch = markerRune
	}

	w, _ := r.screen.Size()
	cell := 360 / float64(w)

	for _, seg := range l.Segments {
		style := surface.Foreground(toColor(colorOr(l.Color, seg.Color)))
		if l.ID == layers.IDParticles {
			r.plot(seg.Source, ch, style)
			continue
		}
		// Sample along the segment so sparse points still draw a solid line.
		dlon := seg.Target.Lon() - seg.Source.Lon()
		n := int(math.Ceil(math.Abs(dlon) / cell))
		if n < 1 {
			n = 1
		}
		for i := 0; i <= n; i++ {
			t := float64(i) / float64(n)
			p := rotation.Position{
				seg.Source.Lon() + dlon*t,
				seg.Source.Lat() + (seg.Target.Lat()-seg.Source.Lat())*t,
			}
			r.plot(p, ch, style)
		}
	}
}

func (r *Renderer) plot(p rotation.Position, ch rune, style tcell.Style) {
	x, y := r.project(p)
	r.screen.SetContent(x, y, ch, nil, style)
}

func (r *Renderer) drawHint(o *layers.Overlay) {
	if o == nil {
		return
	}
	w, h := r.screen.Size()
	x := (w - runewidth.StringWidth(o.Text)) / 2
	r.text(max(x, 0), h-1, o.Text, tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack))
}

func (r *Renderer) drawPanel(o *layers.Overlay) {
	if o == nil {
		return
	}
	rows := append([]layers.PanelLine{{Text: o.Title, Style: "title"}}, o.Lines...)

	inner := 0
	for _, row := range rows {
		inner = max(inner, runewidth.StringWidth(row.Text))
	}
	w, _ := r.screen.Size()
	box := rect{x: max(w-inner-4, 0), y: 0, w: inner + 4, h: len(rows) + 2}

	frame := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	r.box(box, frame)
	for i, row := range rows {
		r.text(box.x+2, box.y+1+i, row.Text, lineStyle(row.Style).Background(tcell.ColorBlack))
	}
}

// drawButton places the toggle under the panel, or in the top-right corner
// when the panel is collapsed.
func (r *Renderer) drawButton(o *layers.Overlay, f layers.Frame) {
	if o == nil {
		return
	}
	label := "[ " + o.Text + " ]"
	y := 0
	for _, l := range f.Layers {
		if l.Kind == layers.KindPanel && l.Overlay != nil {
			y = len(l.Overlay.Lines) + 3
		}
	}
	w, _ := r.screen.Size()
	lw := runewidth.StringWidth(label)
	r.button = rect{x: max(w-lw, 0), y: y, w: lw, h: 1}
	r.text(r.button.x, y, label, tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver))
}

func (r *Renderer) box(b rect, style tcell.Style) {
	for y := b.y; y < b.y+b.h; y++ {
		for x := b.x; x < b.x+b.w; x++ {
			ch := ' '
			switch {
			case y == b.y && x == b.x:
				ch = tcell.RuneULCorner
			case y == b.y && x == b.x+b.w-1:
				ch = tcell.RuneURCorner
			case y == b.y+b.h-1 && x == b.x:
				ch = tcell.RuneLLCorner
			case y == b.y+b.h-1 && x == b.x+b.w-1:
				ch = tcell.RuneLRCorner
			case y == b.y || y == b.y+b.h-1:
				ch = tcell.RuneHLine
			case x == b.x || x == b.x+b.w-1:
				ch = tcell.RuneVLine
			}
			r.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

// text writes s starting at (x, y), advancing by each rune's display width.
func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x += runewidth.RuneWidth(ch)
	}
}

func lineStyle(name string) tcell.Style {
	s := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	switch name {
	case "title":
		return s.Bold(true)
	case "muted":
		return s.Foreground(tcell.ColorGray)
	case "earth":
		return s.Foreground(tcell.NewRGBColor(255, 140, 60)).Bold(true)
	case "washer":
		return s.Foreground(tcell.NewRGBColor(90, 170, 255)).Bold(true)
	case "ratio":
		return s.Foreground(tcell.ColorYellow)
	}
	return s
}

// blend mixes b over a with opacity t in RGB space.
func blend(a, b rotation.RGB, t float64) rotation.RGB {
	ca := colorful.Color{R: float64(a[0]) / 255, G: float64(a[1]) / 255, B: float64(a[2]) / 255}
	cb := colorful.Color{R: float64(b[0]) / 255, G: float64(b[1]) / 255, B: float64(b[2]) / 255}
	r, g, bl := ca.BlendRgb(cb, t).Clamped().RGB255()
	return rotation.RGB{r, g, bl}
}

func toColor(c rotation.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c[0]), int32(c[1]), int32(c[2]))
}

func colorOr(c *rotation.RGB, fallback rotation.RGB) rotation.RGB {
	if c != nil {
		return *c
	}
	return fallback
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
