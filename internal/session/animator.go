package session

import (
	"sync"
	"time"
)

// Animator runs a tick callback on a fixed interval until stopped. Start and
// Stop are idempotent: at most one ticker goroutine exists at any time.
type Animator struct {
	interval time.Duration
	tick     func()

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewAnimator creates a stopped animator.
func NewAnimator(interval time.Duration, tick func()) *Animator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Animator{interval: interval, tick: tick}
}

// Start launches the ticker goroutine. It returns false if it was already running.
func (a *Animator) Start() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stop != nil {
		return false
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop, a.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// A stop may race with a fired tick; prefer the stop.
				select {
				case <-stop:
					return
				default:
				}
				a.tick()
			}
		}
	}()
	return true
}

// Stop deregisters the ticker. It does not wait for an in-flight tick to
// return, so it is safe to call while holding locks the tick callback needs.
// The returned channel is closed once the goroutine has exited.
func (a *Animator) Stop() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stop == nil {
		if a.done == nil {
			a.done = make(chan struct{})
			close(a.done)
		}
		return a.done
	}

	close(a.stop)
	a.stop = nil
	return a.done
}

// Running reports whether the ticker goroutine is registered.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}
