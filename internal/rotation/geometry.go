package rotation

import "math"

// Sampling grids used by the visualization.
const (
	BandLatMin  = -80.0
	BandLatMax  = 80.0
	BandLatStep = 5.0
	BandLonStep = 5.0

	ParticleLatStep = 10.0
	ParticleLonStep = 10.0

	MarkerLonStep = 2.0

	// ParticleDriftDivisor converts a local speed in m/s into the particle's
	// longitude offset in degrees. The drift is exaggerated on purpose.
	ParticleDriftDivisor = 150.0
)

// Position is a (longitude, latitude) pair in degrees. It encodes to JSON as
// a two-element array, the form renderers expect.
type Position [2]float64

// Lon returns the longitude in degrees.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude in degrees.
func (p Position) Lat() float64 { return p[1] }

// Segment is a line from Source to Target. Speed is the local rotational
// speed at Source in m/s.
type Segment struct {
	Source Position `json:"source"`
	Target Position `json:"target"`
	Speed  float64  `json:"speed"`
	Color  RGB      `json:"color"`
}

// Band is a latitude circle sampled at a fixed longitude step.
type Band struct {
	Latitude float64
	Points   []Position
	Color    RGB
}

// steps returns how many samples fit in [from, to] at the given step,
// inclusive of both ends when the span is an exact multiple.
func steps(from, to, step float64) int {
	if step <= 0 || to < from {
		return 0
	}
	return int(math.Floor((to-from)/step+1e-9)) + 1
}

// BandPoints samples the latitude circle at latDeg from -180 to 180
// inclusive, every lonStepDeg degrees. Longitudes are computed by index so
// the last sample lands exactly on 180 when the step divides 360.
func BandPoints(latDeg, lonStepDeg float64) []Position {
	n := steps(-180, 180, lonStepDeg)
	pts := make([]Position, n)
	for i := range pts {
		pts[i] = Position{-180 + float64(i)*lonStepDeg, latDeg}
	}
	return pts
}

// ChainSegments links each point to the next one. The last point targets
// itself, so the final segment has zero length and the ring is left open at
// the antimeridian. Speed and color are left for the caller.
func ChainSegments(pts []Position) []Segment {
	segs := make([]Segment, len(pts))
	for i, p := range pts {
		next := p
		if i < len(pts)-1 {
			next = pts[i+1]
		}
		segs[i] = Segment{Source: p, Target: next}
	}
	return segs
}

// Bands returns one band per latStep from BandLatMin to BandLatMax, each
// sampled every lonStep degrees and colored by BandColor.
func Bands(latStep, lonStep float64) []Band {
	n := steps(BandLatMin, BandLatMax, latStep)
	bands := make([]Band, n)
	for i := range bands {
		lat := BandLatMin + float64(i)*latStep
		bands[i] = Band{
			Latitude: lat,
			Points:   BandPoints(lat, lonStep),
			Color:    BandColor(lat),
		}
	}
	return bands
}

// ParticleSegments scans a latStep × lonStep grid over latitudes -80..80 and
// longitudes -180..180 and returns one short eastward segment per cell. The
// target longitude is offset by speed/ParticleDriftDivisor degrees.
func ParticleSegments(latStep, lonStep float64) []Segment {
	nLat := steps(BandLatMin, BandLatMax, latStep)
	nLon := steps(-180, 180, lonStep)
	segs := make([]Segment, 0, nLat*nLon)
	for i := 0; i < nLat; i++ {
		lat := BandLatMin + float64(i)*latStep
		v := SpeedAt(lat)
		color := ParticleColor(v)
		for j := 0; j < nLon; j++ {
			lon := -180 + float64(j)*lonStep
			segs = append(segs, Segment{
				Source: Position{lon, lat},
				Target: Position{lon + v/ParticleDriftDivisor, lat},
				Speed:  v,
				Color:  color,
			})
		}
	}
	return segs
}

// MarkerRing returns the highlighted ring for a selected latitude as chained
// segments sampled every MarkerLonStep degrees.
func MarkerRing(latDeg float64) []Segment {
	segs := ChainSegments(BandPoints(latDeg, MarkerLonStep))
	v := SpeedAt(latDeg)
	for i := range segs {
		segs[i].Speed = v
		segs[i].Color = MarkerColor
	}
	return segs
}
