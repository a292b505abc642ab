package rotation

import (
	"math"
	"testing"
)

func TestBandColor(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		want RGB
	}{
		// v = 465: red saturates, blue 180-232 underflows to 0.
		{"equator", 0, RGB{255, 40, 0}},
		// v = 232.5: blue 180-116 = 64.
		{"60N", 60, RGB{232, 40, 64}},
		// v ≈ 80.75: blue 180-40 = 140.
		{"80S", -80, RGB{80, 40, 140}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BandColor(tt.lat); got != tt.want {
				t.Errorf("BandColor(%v) = %v, want %v", tt.lat, got, tt.want)
			}
		})
	}
}

func TestBandColor_BlueNeverWraps(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 5 {
		v := SpeedAt(lat)
		c := BandColor(lat)
		if 180-math.Floor(v/2) < 0 && c[2] != 0 {
			t.Errorf("lat %v: blue = %d, want clamped 0", lat, c[2])
		}
	}
}

func TestParticleColor(t *testing.T) {
	tests := []struct {
		speed float64
		want  RGB
	}{
		{0, RGB{0, 40, 255}},
		{100, RGB{100, 40, 155}},
		{465, RGB{255, 40, 0}},
		{-10, RGB{0, 40, 255}},
	}
	for _, tt := range tests {
		if got := ParticleColor(tt.speed); got != tt.want {
			t.Errorf("ParticleColor(%v) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}
