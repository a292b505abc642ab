// Package layers turns session state into the ordered set of declarative
// layer descriptors an external renderer draws. The globe mesh, land overlay,
// latitude bands and particle field are built once in Static and shared by
// every frame; only the highlighted-latitude marker and the UI overlays are
// rebuilt when a session changes.
package layers

import (
	"context"

	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

// Kind tells the renderer which primitive a descriptor maps to.
type Kind string

const (
	KindSimpleMesh Kind = "simple-mesh"
	KindGeoJSON    Kind = "geojson"
	KindLine       Kind = "line"
	KindText       Kind = "text"
	KindPanel      Kind = "panel"
	KindButton     Kind = "button"
)

// Layer IDs.
const (
	IDEarth       = "earth-sphere"
	IDLand        = "land"
	IDParticles   = "particles"
	IDMarker      = "clicked-lat"
	IDHint        = "hint"
	IDInfoPanel   = "info-panel"
	IDPanelToggle = "panel-toggle"
)

// Descriptor is one declarative layer. Exactly one of the payload fields is
// set, matching Kind.
type Descriptor struct {
	ID       string             `json:"id"`
	Kind     Kind               `json:"kind"`
	Width    float64            `json:"width,omitempty"`
	Color    *rotation.RGB      `json:"color,omitempty"`
	Segments []rotation.Segment `json:"segments,omitempty"`
	Mesh     *Mesh              `json:"mesh,omitempty"`
	GeoJSON  *GeoJSON           `json:"geojson,omitempty"`
	Overlay  *Overlay           `json:"overlay,omitempty"`
}

// Mesh describes the sphere the renderer tessellates for the globe body.
type Mesh struct {
	Geometry         string     `json:"geometry"`
	Radius           float64    `json:"radius"`
	NLat             int        `json:"nlat"`
	NLong            int        `json:"nlong"`
	CoordinateSystem string     `json:"coordinate_system"`
	Position         [3]float64 `json:"position"`
}

// GeoJSON is a remote polygon overlay. The renderer fetches URL itself; a
// failed fetch just leaves the layer unpainted.
type GeoJSON struct {
	URL       string       `json:"url"`
	Filled    bool         `json:"filled"`
	Stroked   bool         `json:"stroked"`
	Opacity   float64      `json:"opacity"`
	FillColor rotation.RGB `json:"fill_color"`
}

// Overlay is a UI element drawn over the globe.
type Overlay struct {
	Anchor string      `json:"anchor"`
	Title  string      `json:"title,omitempty"`
	Text   string      `json:"text,omitempty"`
	Lines  []PanelLine `json:"lines,omitempty"`
	Action string      `json:"action,omitempty"`
}

// PanelLine is one row of the info panel.
type PanelLine struct {
	Text  string `json:"text"`
	Style string `json:"style,omitempty"`
}

// Frame is everything a renderer needs to draw one state of a session.
type Frame struct {
	Version uint64            `json:"version"`
	View    session.ViewState `json:"view_state"`
	Effects Effects           `json:"effects"`
	Layers  []Descriptor      `json:"layers"`
}

// Renderer is the external drawing collaborator. It reports picks and camera
// moves back through session.OnGlobeClick and session.OnViewStateChange.
type Renderer interface {
	Render(ctx context.Context, f Frame) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, f Frame) error

func (fn RenderFunc) Render(ctx context.Context, f Frame) error {
	return fn(ctx, f)
}
