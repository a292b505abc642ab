package layers

import (
	"fmt"
	"sync"

	"github.com/star/earthspin/internal/metrics"
	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

// Overlay text.
const (
	hintText       = "Klicka på jorden för att välja en latitud"
	panelTitle     = "🌍 Jordens rotation"
	washerLabel    = "🧼 Tvättmaskin"
	toggleHide     = "Dölj panel"
	toggleShow     = "Visa panel"
	toggleAction   = "toggle-panel"
	anchorTopRight = "top-right"
	anchorBottom   = "bottom-center"
)

// Assembler builds frames for one session. It reuses the shared static layers
// and keeps the marker ring until the selected latitude changes.
type Assembler struct {
	static  *Static
	effects Effects

	mu        sync.Mutex
	markerLat float64
	marker    *Descriptor
}

// NewAssembler creates an assembler over the shared static layers.
func NewAssembler(static *Static, effects Effects) *Assembler {
	return &Assembler{static: static, effects: effects}
}

// Effects returns the session's lighting configuration.
func (a *Assembler) Effects() Effects {
	return a.effects
}

// Assemble returns the full ordered layer set: globe mesh, land, bands,
// particles, then the marker and UI overlays that apply to snap.
func (a *Assembler) Assemble(snap session.Snapshot) Frame {
	static := a.static.Layers()
	dynamic := a.dynamic(snap)

	all := make([]Descriptor, 0, len(static)+len(dynamic))
	all = append(all, static...)
	all = append(all, dynamic...)

	metrics.IncLayerAssemblies()
	return Frame{Version: snap.Version, View: snap.View, Effects: a.effects, Layers: all}
}

// AssembleDynamic returns only the marker and overlays, for renderers that
// already hold the static layers.
func (a *Assembler) AssembleDynamic(snap session.Snapshot) Frame {
	metrics.IncLayerAssemblies()
	return Frame{Version: snap.Version, View: snap.View, Effects: a.effects, Layers: a.dynamic(snap)}
}

func (a *Assembler) dynamic(snap session.Snapshot) []Descriptor {
	var out []Descriptor
	if m := a.markerFor(snap); m != nil {
		out = append(out, *m)
	}
	return append(out, overlays(snap)...)
}

// markerFor returns the cached ring for snap's latitude, rebuilding it when
// the latitude differs from the cached one.
func (a *Assembler) markerFor(snap session.Snapshot) *Descriptor {
	if snap.SelectedLatitude == nil {
		return nil
	}
	lat := *snap.SelectedLatitude

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.marker != nil && a.markerLat == lat {
		return a.marker
	}

	color := rotation.MarkerColor
	a.marker = &Descriptor{
		ID:       IDMarker,
		Kind:     KindLine,
		Width:    MarkerWidth,
		Color:    &color,
		Segments: rotation.MarkerRing(lat),
	}
	a.markerLat = lat
	metrics.IncMarkerRebuilds()
	return a.marker
}

// overlays returns the hint, info panel and toggle button that apply.
func overlays(snap session.Snapshot) []Descriptor {
	var out []Descriptor

	if snap.HintVisible {
		out = append(out, Descriptor{
			ID:      IDHint,
			Kind:    KindText,
			Overlay: &Overlay{Anchor: anchorBottom, Text: hintText},
		})
	}

	if !snap.Selected() {
		return out
	}

	if !snap.PanelCollapsed {
		out = append(out, Descriptor{
			ID:   IDInfoPanel,
			Kind: KindPanel,
			Overlay: &Overlay{
				Anchor: anchorTopRight,
				Title:  panelTitle,
				Lines:  PanelLines(snap),
			},
		})
	}

	label := toggleHide
	if snap.PanelCollapsed {
		label = toggleShow
	}
	out = append(out, Descriptor{
		ID:      IDPanelToggle,
		Kind:    KindButton,
		Overlay: &Overlay{Anchor: anchorTopRight, Text: label, Action: toggleAction},
	})
	return out
}

// PanelLines formats the info panel rows for a selected latitude.
func PanelLines(snap session.Snapshot) []PanelLine {
	if !snap.Selected() {
		return nil
	}
	return []PanelLine{
		{Text: fmt.Sprintf("Latitud: %.2f°", *snap.SelectedLatitude), Style: "muted"},
		{Text: fmt.Sprintf("%.1f m/s", *snap.RotationSpeed), Style: "earth"},
		{Text: washerLabel},
		{Text: fmt.Sprintf("%.1f m/s", snap.WasherSpeed), Style: "washer"},
		{Text: fmt.Sprintf("Jorden är %.1f× snabbare", *snap.Ratio), Style: "ratio"},
	}
}
