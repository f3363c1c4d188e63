// internal/tui/pump.go
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ColonelBlimp/kochtrainer/internal/events"
)

// Pump is an unbounded events.Sink. Emit never blocks, so the session can
// emit while holding its lock; the Bubble Tea program drains it through
// waitForEvent.
type Pump struct {
	mu     sync.Mutex
	queue  []events.Event
	ready  chan struct{}
	done   chan struct{}
	closer sync.Once
}

// NewPump returns an empty pump.
func NewPump() *Pump {
	return &Pump{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Emit implements events.Sink.
func (p *Pump) Emit(e events.Event) {
	p.mu.Lock()
	p.queue = append(p.queue, e)
	p.mu.Unlock()
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// Next blocks until an event is queued. It returns false once the pump is
// closed and drained.
func (p *Pump) Next() (events.Event, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			e := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return e, true
		}
		p.mu.Unlock()

		select {
		case <-p.ready:
		case <-p.done:
			p.mu.Lock()
			empty := len(p.queue) == 0
			p.mu.Unlock()
			if empty {
				return nil, false
			}
		}
	}
}

// Close wakes any waiting Next. Safe to call more than once.
func (p *Pump) Close() {
	p.closer.Do(func() { close(p.done) })
}

type eventMsg struct {
	event events.Event
}

func waitForEvent(p *Pump) tea.Cmd {
	return func() tea.Msg {
		e, ok := p.Next()
		if !ok {
			return nil
		}
		return eventMsg{event: e}
	}
}
