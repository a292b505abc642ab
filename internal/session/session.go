// Package session holds the interactive state of one globe viewer: the
// selected latitude, the camera view state and the UI flags, together with
// the animation ticker that spins the globe while a latitude is selected.
//
// States:
//
//	Idle                      no selection, hint visible
//	Selected(lat, speed)      after the first valid click
//
// crossed with the independent PanelCollapsed flag. There is no terminal
// state; Close only releases the ticker when the viewer goes away.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/star/earthspin/internal/metrics"
	"github.com/star/earthspin/internal/rotation"
)

// DefaultTickInterval is one display refresh at 60 Hz.
const DefaultTickInterval = 16 * time.Millisecond

// Config holds per-session settings.
type Config struct {
	TickInterval time.Duration
	InitialView  ViewState
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{TickInterval: DefaultTickInterval, InitialView: InitialView}
}

// Session is the state of a single interactive viewer. Safe for concurrent use.
type Session struct {
	id     string
	logger *slog.Logger

	mu             sync.Mutex
	view           ViewState
	selected       *float64
	animSpeed      float64
	hintVisible    bool
	panelCollapsed bool
	version        uint64
	updatedAt      time.Time
	lastInput      time.Time
	closed         bool

	subMu       sync.Mutex
	subscribers map[chan struct{}]struct{}

	animator *Animator
}

// New creates a session in the Idle state.
func New(id string, cfg Config, logger *slog.Logger) *Session {
	now := time.Now()
	s := &Session{
		id:          id,
		logger:      logger.With("component", "session", "session_id", id),
		view:        cfg.InitialView,
		hintVisible: true,
		updatedAt:   now,
		lastInput:   now,
		subscribers: make(map[chan struct{}]struct{}),
	}
	s.animator = NewAnimator(cfg.TickInterval, s.Tick)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnGlobeClick selects the clicked latitude. A nil or non-finite coordinate
// is ignored and the method returns false without touching any state.
func (s *Session) OnGlobeClick(c *Coordinate) bool {
	if c == nil || !c.valid() {
		metrics.IncClicks("ignored")
		s.Touch()
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	lat := c.Latitude
	s.lastInput = time.Now()
	s.selected = &lat
	s.hintVisible = false
	s.animSpeed = rotation.AnimationStep(lat)
	speed := s.animSpeed
	s.changedLocked()
	// Toggle the ticker under the lock so concurrent clicks cannot leave it
	// running for a zero speed. Stop never waits on the tick callback.
	if speed != 0 {
		s.animator.Start()
	} else {
		s.animator.Stop()
	}
	s.mu.Unlock()

	metrics.IncClicks("selected")
	s.logger.Debug("latitude selected",
		"latitude", lat,
		"rotation_speed_mps", rotation.SpeedAt(lat),
		"animation_speed", speed,
	)
	s.notify()
	return true
}

// TogglePanel flips the info panel between collapsed and expanded.
func (s *Session) TogglePanel() {
	s.mu.Lock()
	s.panelCollapsed = !s.panelCollapsed
	s.lastInput = time.Now()
	collapsed := s.panelCollapsed
	s.changedLocked()
	s.mu.Unlock()

	s.logger.Debug("panel toggled", "collapsed", collapsed)
	s.notify()
}

// OnViewStateChange merges a camera update from the renderer into the view
// state. Fields absent from the patch keep their current values.
func (s *Session) OnViewStateChange(p ViewPatch) {
	if p.Empty() {
		return
	}
	s.mu.Lock()
	s.view = p.apply(s.view)
	s.lastInput = time.Now()
	s.changedLocked()
	s.mu.Unlock()

	s.notify()
}

// Tick advances the view longitude by the animation speed. It is a no-op
// while the speed is zero.
func (s *Session) Tick() {
	s.mu.Lock()
	if s.animSpeed == 0 || s.closed {
		s.mu.Unlock()
		return
	}
	s.view.Longitude += s.animSpeed
	s.changedLocked()
	s.mu.Unlock()

	metrics.IncAnimationTicks()
	s.notify()
}

// Snapshot returns a copy of the current state with derived values.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Version:        s.version,
		View:           s.view,
		WasherSpeed:    rotation.WasherSpeed(),
		AnimationSpeed: s.animSpeed,
		Animating:      s.animator.Running(),
		HintVisible:    s.hintVisible,
		PanelCollapsed: s.panelCollapsed,
		UpdatedAt:      s.updatedAt,
	}
	if s.selected != nil {
		lat := *s.selected
		snap.SelectedLatitude = ptr(lat)
		snap.RotationSpeed = ptr(rotation.SpeedAt(lat))
		snap.Ratio = ptr(rotation.RoundTenth(rotation.SpeedRatio(lat)))
	}
	return snap
}

// LastActive returns the time of the last viewer input or Touch. Animation
// ticks change the state but do not count as activity.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInput
}

// Touch marks the viewer as present without changing any state, e.g. while
// a frame stream is connected.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastInput = time.Now()
	s.mu.Unlock()
}

// Subscribe registers for change notifications. The channel carries no data;
// callers read Snapshot after a receive. Notifications coalesce, so a slow
// reader sees the latest state rather than every change. The returned func
// unsubscribes and is safe to call more than once.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
		})
	}
}

// Close stops the animation and waits for the ticker goroutine to exit.
// Further clicks and ticks are ignored. Calling Close twice is harmless.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	done := s.animator.Stop()
	s.mu.Unlock()

	<-done
	s.logger.Debug("session closed")
	s.notify()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// changedLocked bumps the version. Caller must hold mu.
func (s *Session) changedLocked() {
	s.version++
	s.updatedAt = time.Now()
}

func (s *Session) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
