// Package rotation provides the speed and geometry functions behind the globe
// visualization: surface linear speed caused by Earth's rotation, the fixed
// washing-machine drum reference speed, and the sampled point sequences used
// by the latitude bands, particle field and highlighted marker ring.
//
// Everything in this package is a pure function of its inputs and the
// constants below.
package rotation

import "math"

// EarthEquatorialSpeed is the surface linear speed at the equator in m/s
// (ω · R_equator ≈ 7.2921e-5 rad/s · 6378137 m, rounded).
const EarthEquatorialSpeed = 465.0

// Washing-machine drum reference.
const (
	DrumRadius = 0.125  // meters
	DrumRPM    = 1400.0 // revolutions per minute
)

// EarthRadius is the mean radius used for the globe mesh, in meters.
const EarthRadius = 6371000.0

// SpeedAt returns the rotational surface speed in m/s at the given latitude.
//
// The domain is -90..90 degrees. Values outside it are not clamped; they give
// a mathematically valid but physically meaningless result.
func SpeedAt(latDeg float64) float64 {
	return EarthEquatorialSpeed * cosDeg(latDeg)
}

// WasherSpeed returns the linear speed of the drum surface in m/s (≈ 18.33).
func WasherSpeed() float64 {
	return 2 * math.Pi * DrumRadius * DrumRPM / 60
}

// SpeedRatio returns how many times faster the ground moves at latDeg than
// the drum surface.
func SpeedRatio(latDeg float64) float64 {
	return SpeedAt(latDeg) / WasherSpeed()
}

// AnimationStep returns the per-tick longitude increment in degrees used to
// spin the globe for a selected latitude. It is the speed normalized to the
// equatorial maximum, so 1.0 at the equator and 0 at the poles. This is a
// visual effect, not an angular velocity.
func AnimationStep(latDeg float64) float64 {
	return SpeedAt(latDeg) / EarthEquatorialSpeed
}

// RoundTenth rounds v to one decimal place, the precision shown in the panel.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// cosDeg is cos(deg·π/180) with exact zeros at odd multiples of 90°.
// math.Cos(math.Pi/2) is 6.1e-17, and the animation halts only on exact zero.
func cosDeg(deg float64) float64 {
	if math.Mod(math.Abs(deg), 180) == 90 {
		return 0
	}
	return math.Cos(deg * math.Pi / 180)
}
