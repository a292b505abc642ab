package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/rotation"
)

func main() {
	step := flag.Float64("step", 10, "latitude step in degrees")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if *step <= 0 || *step > 90 {
		logger.Error("invalid step", "step", *step)
		os.Exit(1)
	}

	static := layers.NewStatic(layers.StaticConfig{})
	fmt.Printf("Static layers: %d (%d bands)\n", static.Len(), static.BandCount())
	fmt.Printf("Washer drum: r=%.3f m, %.0f rpm -> %.3f m/s\n", rotation.DrumRadius, rotation.DrumRPM, rotation.WasherSpeed())

	now := time.Now().UTC()
	fmt.Printf("Sidereal angle %s: %.4f°, rate %.5f°/h, equator %.2f m/s (constant %.0f)\n\n",
		now.Format(time.RFC3339),
		rotation.SiderealAngle(now),
		rotation.RotationRate(now)*3600,
		rotation.SiderealEquatorSpeed(now),
		rotation.EarthEquatorialSpeed,
	)

	fmt.Printf("%8s %10s %8s %10s %16s\n", "lat", "speed m/s", "ratio", "deg/tick", "band rgb")
	for lat := -90.0; lat <= 90+1e-9; lat += *step {
		c := rotation.BandColor(lat)
		fmt.Printf("%8.2f %10.2f %8.1f %10.4f %16s\n",
			lat,
			rotation.SpeedAt(lat),
			rotation.RoundTenth(rotation.SpeedRatio(lat)),
			rotation.AnimationStep(lat),
			fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2]),
		)
	}

	segs := rotation.ParticleSegments(rotation.ParticleLatStep, rotation.ParticleLonStep)
	maxDrift := 0.0
	for _, s := range segs {
		maxDrift = max(maxDrift, s.Target.Lon()-s.Source.Lon())
	}
	fmt.Printf("\nParticles: %d segments, max drift %.2f°\n", len(segs), maxDrift)
}
