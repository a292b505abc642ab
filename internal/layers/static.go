package layers

import (
	"fmt"

	"github.com/star/earthspin/internal/rotation"
)

// DefaultLandURL is the Natural Earth 1:50m land polygon dataset.
const DefaultLandURL = "https://d2ad6b4ur7yvpq.cloudfront.net/naturalearth-3.3.0/ne_50m_land.geojson"

// Land overlay styling.
const (
	LandOpacity = 0.15

	BandWidth     = 2
	ParticleWidth = 1
	MarkerWidth   = 3
)

// StaticConfig configures the layers that never change.
type StaticConfig struct {
	LandURL string
}

// Static holds the precomputed layers shared by all frames. It is immutable
// after NewStatic returns.
type Static struct {
	layers []Descriptor
	bands  int
}

// NewStatic builds the globe mesh, the land overlay, one band per 5° from
// -80 to 80 and the particle field.
func NewStatic(cfg StaticConfig) *Static {
	if cfg.LandURL == "" {
		cfg.LandURL = DefaultLandURL
	}

	bands := rotation.Bands(rotation.BandLatStep, rotation.BandLonStep)
	out := make([]Descriptor, 0, len(bands)+3)

	white := rotation.White
	out = append(out, Descriptor{
		ID:    IDEarth,
		Kind:  KindSimpleMesh,
		Color: &white,
		Mesh: &Mesh{
			Geometry:         "sphere",
			Radius:           rotation.EarthRadius,
			NLat:             18,
			NLong:            36,
			CoordinateSystem: "cartesian",
		},
	})

	out = append(out, Descriptor{
		ID:   IDLand,
		Kind: KindGeoJSON,
		GeoJSON: &GeoJSON{
			URL:       cfg.LandURL,
			Filled:    true,
			Stroked:   false,
			Opacity:   LandOpacity,
			FillColor: rotation.LandFill,
		},
	})

	for _, b := range bands {
		color := b.Color
		segs := rotation.ChainSegments(b.Points)
		v := rotation.SpeedAt(b.Latitude)
		for i := range segs {
			segs[i].Speed = v
			segs[i].Color = color
		}
		out = append(out, Descriptor{
			ID:       BandID(b.Latitude),
			Kind:     KindLine,
			Width:    BandWidth,
			Color:    &color,
			Segments: segs,
		})
	}

	out = append(out, Descriptor{
		ID:       IDParticles,
		Kind:     KindLine,
		Width:    ParticleWidth,
		Segments: rotation.ParticleSegments(rotation.ParticleLatStep, rotation.ParticleLonStep),
	})

	return &Static{layers: out, bands: len(bands)}
}

// Layers returns the shared descriptors. Callers must not modify them.
func (s *Static) Layers() []Descriptor {
	return s.layers
}

// Len returns the number of static layers.
func (s *Static) Len() int {
	return len(s.layers)
}

// BandCount returns the number of latitude bands.
func (s *Static) BandCount() int {
	return s.bands
}

// LandURL returns the geography dataset the land layer points at.
func (s *Static) LandURL() string {
	return s.layers[1].GeoJSON.URL
}

// BandID names the band layer for a latitude, e.g. "band--80" or "band-45".
func BandID(lat float64) string {
	return fmt.Sprintf("band-%g", lat)
}
