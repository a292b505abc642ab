package session

import (
	"math"
	"time"
)

// ViewState is the camera orientation handed to the renderer.
type ViewState struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Zoom      float64 `json:"zoom"`
}

// InitialView is the camera a new session starts with.
var InitialView = ViewState{Longitude: 0, Latitude: 20, Zoom: 0}

// ViewPatch is a partial view-state update from a user drag, pan or zoom.
// Nil fields are left untouched.
type ViewPatch struct {
	Longitude *float64 `json:"longitude,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Zoom      *float64 `json:"zoom,omitempty"`
}

// apply merges p into v.
func (p ViewPatch) apply(v ViewState) ViewState {
	if p.Longitude != nil && finite(*p.Longitude) {
		v.Longitude = *p.Longitude
	}
	if p.Latitude != nil && finite(*p.Latitude) {
		v.Latitude = *p.Latitude
	}
	if p.Zoom != nil && finite(*p.Zoom) {
		v.Zoom = *p.Zoom
	}
	return v
}

// Empty reports whether the patch carries no fields.
func (p ViewPatch) Empty() bool {
	return p.Longitude == nil && p.Latitude == nil && p.Zoom == nil
}

// Coordinate is a picked point on the globe in degrees.
type Coordinate struct {
	Longitude float64
	Latitude  float64
}

func (c Coordinate) valid() bool {
	return finite(c.Longitude) && finite(c.Latitude)
}

// Snapshot is an immutable copy of a session's state and the values derived
// from it. Pointer fields are nil while no latitude is selected.
type Snapshot struct {
	ID               string    `json:"id"`
	Version          uint64    `json:"version"`
	View             ViewState `json:"view_state"`
	SelectedLatitude *float64  `json:"selected_latitude"`
	RotationSpeed    *float64  `json:"rotation_speed_mps"`
	WasherSpeed      float64   `json:"washer_speed_mps"`
	Ratio            *float64  `json:"ratio"`
	AnimationSpeed   float64   `json:"animation_speed"`
	Animating        bool      `json:"animating"`
	HintVisible      bool      `json:"hint_visible"`
	PanelCollapsed   bool      `json:"panel_collapsed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Selected reports whether a latitude has been picked.
func (s Snapshot) Selected() bool {
	return s.SelectedLatitude != nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 { return &v }
