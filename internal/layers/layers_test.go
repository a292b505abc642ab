package layers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New("layers", session.Config{TickInterval: time.Hour, InitialView: session.InitialView}, testLogger())
	t.Cleanup(s.Close)
	return s
}

func ids(layers []Descriptor) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

func TestNewStatic_Order(t *testing.T) {
	st := NewStatic(StaticConfig{})
	layers := st.Layers()

	if st.BandCount() != 33 {
		t.Fatalf("band count = %d, want 33", st.BandCount())
	}
	if len(layers) != 36 {
		t.Fatalf("static layers = %d, want 36", len(layers))
	}
	if layers[0].ID != IDEarth || layers[0].Mesh == nil {
		t.Errorf("layers[0] = %q, want earth mesh", layers[0].ID)
	}
	if layers[1].ID != IDLand || layers[1].GeoJSON == nil {
		t.Errorf("layers[1] = %q, want land", layers[1].ID)
	}
	if layers[2].ID != "band--80" || layers[34].ID != "band-80" {
		t.Errorf("band range = %q..%q", layers[2].ID, layers[34].ID)
	}
	if layers[35].ID != IDParticles {
		t.Errorf("last static layer = %q, want particles", layers[35].ID)
	}
}

func TestNewStatic_LandStyling(t *testing.T) {
	st := NewStatic(StaticConfig{})
	land := st.Layers()[1].GeoJSON

	if land.URL != DefaultLandURL {
		t.Errorf("url = %q, want default", land.URL)
	}
	if land.Opacity != 0.15 {
		t.Errorf("opacity = %v, want 0.15", land.Opacity)
	}
	if land.FillColor != (rotation.RGB{20, 80, 120}) {
		t.Errorf("fill = %v, want [20 80 120]", land.FillColor)
	}
	if !land.Filled || land.Stroked {
		t.Error("land should be filled and not stroked")
	}

	custom := NewStatic(StaticConfig{LandURL: "http://example.test/land.geojson"})
	if custom.LandURL() != "http://example.test/land.geojson" {
		t.Errorf("LandURL() = %q", custom.LandURL())
	}
}

func TestNewStatic_BandSegments(t *testing.T) {
	st := NewStatic(StaticConfig{})
	band := st.Layers()[2] // -80

	if len(band.Segments) != 73 {
		t.Fatalf("segments = %d, want 73", len(band.Segments))
	}
	last := band.Segments[72]
	if last.Source != last.Target {
		t.Error("last band segment should be zero length")
	}
	if *band.Color != rotation.BandColor(-80) {
		t.Errorf("color = %v, want %v", *band.Color, rotation.BandColor(-80))
	}
}

func TestAssemble_Idle(t *testing.T) {
	st := NewStatic(StaticConfig{})
	a := NewAssembler(st, DefaultLighting(time.Unix(0, 0)))
	s := testSession(t)

	f := a.Assemble(s.Snapshot())
	got := ids(f.Layers[st.Len():])
	if strings.Join(got, ",") != IDHint {
		t.Errorf("dynamic layers = %v, want [hint]", got)
	}
	if f.View != session.InitialView {
		t.Errorf("view = %+v", f.View)
	}
}

func TestAssemble_Selected(t *testing.T) {
	st := NewStatic(StaticConfig{})
	a := NewAssembler(st, DefaultLighting(time.Now()))
	s := testSession(t)
	s.OnGlobeClick(&session.Coordinate{Latitude: 60})

	f := a.AssembleDynamic(s.Snapshot())
	want := []string{IDMarker, IDInfoPanel, IDPanelToggle}
	if strings.Join(ids(f.Layers), ",") != strings.Join(want, ",") {
		t.Fatalf("dynamic layers = %v, want %v", ids(f.Layers), want)
	}

	panel := f.Layers[1].Overlay
	if panel.Lines[0].Text != "Latitud: 60.00°" {
		t.Errorf("latitude line = %q", panel.Lines[0].Text)
	}
	if panel.Lines[1].Text != "232.5 m/s" {
		t.Errorf("speed line = %q", panel.Lines[1].Text)
	}
	if panel.Lines[3].Text != "18.3 m/s" {
		t.Errorf("washer line = %q", panel.Lines[3].Text)
	}
	if panel.Lines[4].Text != "Jorden är 12.7× snabbare" {
		t.Errorf("ratio line = %q", panel.Lines[4].Text)
	}

	s.TogglePanel()
	f = a.AssembleDynamic(s.Snapshot())
	want = []string{IDMarker, IDPanelToggle}
	if strings.Join(ids(f.Layers), ",") != strings.Join(want, ",") {
		t.Fatalf("collapsed layers = %v, want %v", ids(f.Layers), want)
	}
	if f.Layers[1].Overlay.Text != toggleShow {
		t.Errorf("toggle label = %q, want %q", f.Layers[1].Overlay.Text, toggleShow)
	}
}

func TestAssemble_StaticLayersShared(t *testing.T) {
	st := NewStatic(StaticConfig{})
	a := NewAssembler(st, DefaultLighting(time.Now()))
	s := testSession(t)

	f1 := a.Assemble(s.Snapshot())
	s.OnGlobeClick(&session.Coordinate{Latitude: 10})
	f2 := a.Assemble(s.Snapshot())

	for i := 2; i < st.Len(); i++ {
		if &f1.Layers[i].Segments[0] != &f2.Layers[i].Segments[0] {
			t.Fatalf("layer %q segments were rebuilt", f1.Layers[i].ID)
		}
	}
}

func TestAssemble_MarkerMemoized(t *testing.T) {
	st := NewStatic(StaticConfig{})
	a := NewAssembler(st, DefaultLighting(time.Now()))
	s := testSession(t)

	s.OnGlobeClick(&session.Coordinate{Latitude: 45})
	m1 := a.AssembleDynamic(s.Snapshot()).Layers[0]

	s.TogglePanel()
	m2 := a.AssembleDynamic(s.Snapshot()).Layers[0]
	if &m1.Segments[0] != &m2.Segments[0] {
		t.Error("marker rebuilt although latitude did not change")
	}

	s.OnGlobeClick(&session.Coordinate{Latitude: -30})
	m3 := a.AssembleDynamic(s.Snapshot()).Layers[0]
	if &m1.Segments[0] == &m3.Segments[0] {
		t.Error("marker not rebuilt after latitude change")
	}
	if m3.Segments[0].Source.Lat() != -30 {
		t.Errorf("marker latitude = %v, want -30", m3.Segments[0].Source.Lat())
	}
}

func TestDefaultLighting(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	e := DefaultLighting(now)
	if e.Lighting.Ambient.Intensity != 0.6 || e.Lighting.Sun.Intensity != 2.0 {
		t.Errorf("intensities = %v/%v, want 0.6/2.0", e.Lighting.Ambient.Intensity, e.Lighting.Sun.Intensity)
	}
	if e.Lighting.Sun.Timestamp != 1700000000000 {
		t.Errorf("sun timestamp = %d", e.Lighting.Sun.Timestamp)
	}
	if got, want := e.Lighting.Sun.SiderealDeg, rotation.SiderealAngle(now); got != want || got == 0 {
		t.Errorf("sun sidereal angle = %v, want %v", got, want)
	}
	if e.Lighting.Ambient.SiderealDeg != 0 {
		t.Errorf("ambient light carries a sidereal angle: %v", e.Lighting.Ambient.SiderealDeg)
	}
}

func TestFrameJSON(t *testing.T) {
	st := NewStatic(StaticConfig{})
	a := NewAssembler(st, DefaultLighting(time.Now()))
	s := testSession(t)
	s.OnGlobeClick(&session.Coordinate{Latitude: 0})

	data, err := json.Marshal(a.AssembleDynamic(s.Snapshot()))
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	layers, ok := parsed["layers"].([]any)
	if !ok || len(layers) == 0 {
		t.Fatalf("layers = %v", parsed["layers"])
	}
	marker := layers[0].(map[string]any)
	segs := marker["segments"].([]any)
	first := segs[0].(map[string]any)
	src, ok := first["source"].([]any)
	if !ok || len(src) != 2 || src[0] != -180.0 {
		t.Errorf("source = %v, want [-180 0]", first["source"])
	}
	color, ok := first["color"].([]any)
	if !ok || len(color) != 3 {
		t.Errorf("color = %v, want 3-element array", first["color"])
	}
}

func TestRenderFunc(t *testing.T) {
	var got Frame
	var r Renderer = RenderFunc(func(_ context.Context, f Frame) error {
		got = f
		return nil
	})
	if err := r.Render(context.Background(), Frame{Version: 7}); err != nil {
		t.Fatal(err)
	}
	if got.Version != 7 {
		t.Errorf("version = %d, want 7", got.Version)
	}
}
