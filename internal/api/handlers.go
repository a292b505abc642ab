package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/star/earthspin/internal/layers"
	"github.com/star/earthspin/internal/registry"
	"github.com/star/earthspin/internal/rotation"
	"github.com/star/earthspin/internal/session"
)

// maxBodyBytes bounds request bodies; every payload is a few numbers.
const maxBodyBytes = 4 << 10

type handlers struct {
	registry *registry.Registry
	logger   *slog.Logger
}

type speedResponse struct {
	Latitude      float64 `json:"latitude"`
	RotationSpeed float64 `json:"rotation_speed_mps"`
	WasherSpeed   float64 `json:"washer_speed_mps"`
	Ratio         float64 `json:"ratio"`
	AnimationStep float64 `json:"animation_speed"`
}

type staticLayersResponse struct {
	Layers []layers.Descriptor `json:"layers"`
	Count  int                 `json:"count"`
}

// clickRequest carries the picked [lon, lat]; a null coordinate means the
// click missed the globe.
type clickRequest struct {
	Coordinate *[2]float64 `json:"coordinate"`
}

type clickResponse struct {
	Accepted bool             `json:"accepted"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// speed reports the rotational speed at ?lat= and its washer ratio.
// GET /api/v1/speed?lat=60
func (h *handlers) speed(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("lat")
	lat, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "invalid lat parameter, must be -90 to 90")
		return
	}

	writeJSON(w, http.StatusOK, speedResponse{
		Latitude:      lat,
		RotationSpeed: rotation.SpeedAt(lat),
		WasherSpeed:   rotation.WasherSpeed(),
		Ratio:         rotation.RoundTenth(rotation.SpeedRatio(lat)),
		AnimationStep: rotation.AnimationStep(lat),
	})
}

// staticLayers returns the shared mesh, land, band and particle layers.
func (h *handlers) staticLayers(w http.ResponseWriter, r *http.Request) {
	st := h.registry.Static()
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, staticLayersResponse{Layers: st.Layers(), Count: st.Len()})
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Create()
	if errors.Is(err, registry.ErrFull) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+e.Session.ID())
	writeJSON(w, http.StatusCreated, e.Session.Snapshot())
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// frame returns the dynamic layers, or every layer with ?full=true.
func (h *handlers) frame(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))

	snap := e.Session.Snapshot()
	if full {
		writeJSON(w, http.StatusOK, e.Assembler.Assemble(snap))
		return
	}
	writeJSON(w, http.StatusOK, e.Assembler.AssembleDynamic(snap))
}

func (h *handlers) click(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req clickRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var c *session.Coordinate
	if req.Coordinate != nil {
		c = &session.Coordinate{Longitude: req.Coordinate[0], Latitude: req.Coordinate[1]}
	}
	accepted := e.Session.OnGlobeClick(c)
	writeJSON(w, http.StatusOK, clickResponse{Accepted: accepted, Snapshot: e.Session.Snapshot()})
}

func (h *handlers) togglePanel(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.Session.TogglePanel()
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

func (h *handlers) updateView(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var patch session.ViewPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.Session.OnViewStateChange(patch)
	writeJSON(w, http.StatusOK, e.Session.Snapshot())
}

// lookup resolves {id} or writes a 404. Any request for a session counts
// as viewer activity.
func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) (*registry.Entry, bool) {
	e, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	e.Session.Touch()
	return e, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
