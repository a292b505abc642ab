package rotation

import "math"

// RGB is an 8-bit color. It encodes to JSON as a three-element array.
type RGB [3]uint8

// Fixed palette.
var (
	White       = RGB{255, 255, 255}
	LandFill    = RGB{20, 80, 120}
	MarkerColor = RGB{255, 255, 255}
)

// BandColor maps a latitude to its band color: red grows with speed, green is
// fixed at 40 and blue falls off with speed. Blue reaches 180 - floor(v/2),
// which goes negative above 360 m/s (|lat| < ~39°) and is clamped to 0.
func BandColor(latDeg float64) RGB {
	v := SpeedAt(latDeg)
	return RGB{clampByte(v), 40, clampByte(180 - math.Floor(v/2))}
}

// ParticleColor maps a local speed to [v, 40, 255-v], clamped.
func ParticleColor(speed float64) RGB {
	return RGB{clampByte(speed), 40, clampByte(255 - speed)}
}

// clampByte truncates v into 0..255.
func clampByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
