package engine

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// supervisor owns the single outstanding retry timer and the backoff curve
// behind it. Scheduling is single-flight: a new schedule replaces any pending
// timer, and a cancelled timer's callback never runs even if it already
// fired and is waiting on a lock.
type supervisor struct {
	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
	bo    *backoff.ExponentialBackOff
}

func newSupervisor(initial, max time.Duration, multiplier float64) *supervisor {
	bo := backoff.NewExponentialBackOff()
	if initial > 0 {
		bo.InitialInterval = initial
	}
	if max > 0 {
		bo.MaxInterval = max
	}
	if multiplier > 0 {
		bo.Multiplier = multiplier
	}
	bo.Reset()
	return &supervisor{bo: bo}
}

// next advances the backoff curve and returns the delay for the upcoming
// retry.
func (s *supervisor) next() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bo.NextBackOff()
}

// schedule arms the retry timer, replacing any pending one.
func (s *supervisor) schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if seq != s.seq {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
}

// cancel stops any pending retry and invalidates an already-fired callback
// that has not run yet.
func (s *supervisor) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// reset cancels pending work and rewinds the backoff curve, used after a
// successful connect and on manual connects.
func (s *supervisor) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.bo.Reset()
}

// pending reports whether a retry timer is armed.
func (s *supervisor) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
