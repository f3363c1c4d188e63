// internal/timer/timer.go
// Package timer abstracts deferred callbacks so that completion callbacks,
// auto-play delays and debounced saves can be driven by a manual clock in tests.
package timer

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending deferral.
type Timer interface {
	// Stop cancels the deferral. It returns false if the callback already ran
	// or was already stopped.
	Stop() bool
}

// Scheduler runs f after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules on the runtime timer. Callbacks run on their own goroutine.
type Real struct{}

// AfterFunc implements Scheduler.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a Scheduler whose time only moves when Advance is called.
// Callbacks run synchronously on the goroutine calling Advance, in due order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	owner *Manual
	due   time.Duration
	seq   int
	f     func()
	done  bool
}

// NewManual returns a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, due: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Stop implements Timer.
func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward by d and runs every callback that becomes due.
// Callbacks scheduled by a running callback run in the same call if they
// fall due within the advanced window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.due
		m.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of callbacks that have not run or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.done {
			n++
		}
	}
	return n
}

// Now returns the manual clock's elapsed time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// nextDue pops the earliest live timer due at or before target. Caller holds mu.
func (m *Manual) nextDue(target time.Duration) *manualTimer {
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.done {
			live = append(live, t)
		}
	}
	m.pending = live
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due == m.pending[j].due {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].due < m.pending[j].due
	})
	if len(m.pending) == 0 || m.pending[0].due > target {
		return nil
	}
	return m.pending[0]
}
