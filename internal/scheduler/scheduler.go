// Package scheduler owns a single pending timer at a time. Poll sessions and chat flows use it instead of
// scattering timers, and tests swap the clock for a fake one to move virtual time.
package scheduler

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

type Scheduler interface {
	// Schedule runs fn once after d. A pending callback is cancelled first.
	Schedule(d time.Duration, fn func())
	// Cancel drops the pending callback, if any. It is safe to call at any time.
	Cancel()
	// Pending reports whether a callback is waiting to fire.
	Pending() bool
}

type ClockScheduler struct {
	clock clock.Clock

	mu         sync.Mutex
	generation uint64
	timer      clock.Timer
	stop       chan struct{}
}

func New() *ClockScheduler {
	return NewWithClock(clock.RealClock{})
}

func NewWithClock(clk clock.Clock) *ClockScheduler {
	return &ClockScheduler{clock: clk}
}

func (s *ClockScheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	s.cancelLocked()
	s.generation++
	generation := s.generation
	timer := s.clock.NewTimer(d)
	stop := make(chan struct{})
	s.timer = timer
	s.stop = stop
	s.mu.Unlock()

	go func() {
		select {
		case <-timer.C():
			s.fire(generation, fn)
		case <-stop:
		}
	}()
}

func (s *ClockScheduler) fire(generation uint64, fn func()) {
	s.mu.Lock()
	if generation != s.generation || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.stop = nil
	s.mu.Unlock()

	fn()
}

func (s *ClockScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *ClockScheduler) cancelLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	close(s.stop)
	s.timer = nil
	s.stop = nil
}

func (s *ClockScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
