package layers

import (
	"time"

	"github.com/star/earthspin/internal/rotation"
)

// Light is a single light source.
type Light struct {
	Color     rotation.RGB `json:"color"`
	Intensity float64      `json:"intensity"`
	// Timestamp positions the sun, in Unix milliseconds. Zero for ambient light.
	Timestamp int64 `json:"timestamp,omitempty"`
	// SiderealDeg is Greenwich mean sidereal time at Timestamp.
	SiderealDeg float64 `json:"sidereal_deg,omitempty"`
}

// Lighting combines an ambient light with a sun light.
type Lighting struct {
	Ambient Light `json:"ambient"`
	Sun     Light `json:"sun"`
}

// Effects are the post-processing settings passed alongside the layers.
type Effects struct {
	Lighting Lighting `json:"lighting"`
}

// DefaultLighting returns white ambient light at 0.6 and a white sun at 2.0
// placed for the given instant, tagged with that instant's sidereal angle.
// Each session builds its own value.
func DefaultLighting(now time.Time) Effects {
	return Effects{
		Lighting: Lighting{
			Ambient: Light{Color: rotation.White, Intensity: 0.6},
			Sun: Light{
				Color:       rotation.White,
				Intensity:   2.0,
				Timestamp:   now.UnixMilli(),
				SiderealDeg: rotation.SiderealAngle(now),
			},
		},
	}
}
