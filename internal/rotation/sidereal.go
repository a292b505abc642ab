package rotation

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// SiderealAngle returns Greenwich mean sidereal time at t in degrees,
// normalised to [0, 360). Sub-second precision is dropped.
func SiderealAngle(t time.Time) float64 {
	t = t.UTC()
	rad := satellite.GSTimeFromDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	deg := math.Mod(rad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// RotationRate returns Earth's angular speed in degrees per second, measured
// from the sidereal angle over the hour after t.
func RotationRate(t time.Time) float64 {
	d := SiderealAngle(t.Add(time.Hour)) - SiderealAngle(t)
	if d < 0 {
		d += 360
	}
	return d / 3600
}

// SiderealEquatorSpeed is the equatorial surface speed implied by the
// measured rotation rate, in m/s. It should agree with EarthEquatorialSpeed
// to within a metre per second.
func SiderealEquatorSpeed(t time.Time) float64 {
	return RotationRate(t) * math.Pi / 180 * EarthRadius
}
