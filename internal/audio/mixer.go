// internal/audio/mixer.go
package audio

import (
	"math"
	"sync"
)

// Mixer renders scheduled tones into mono float32 frames. The number of
// frames rendered so far is the clock, so scheduling is sample-accurate.
// Render is called from the audio thread; everything else from the core.
type Mixer struct {
	mu         sync.Mutex
	sampleRate float64
	frame      uint64
	gains      []*mixGain
}

type mixGain struct {
	m *Mixer

	// value is the gain level outside a ramp
	value     float64
	ramping   bool
	rampFrom  float64
	rampTo    float64
	rampStart float64
	rampEnd   float64

	tones        []Tone
	disconnected bool
}

// NewMixer creates a mixer at the given sample rate.
func NewMixer(sampleRate uint32) *Mixer {
	return &Mixer{sampleRate: float64(sampleRate)}
}

// SampleRate returns the mixer sample rate in Hz.
func (m *Mixer) SampleRate() float64 {
	return m.sampleRate
}

// Now implements Clock.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

func (m *Mixer) now() float64 {
	return float64(m.frame) / m.sampleRate
}

// Resume implements Clock. A bare mixer advances only when rendered.
func (m *Mixer) Resume() error {
	return nil
}

// NewGain implements Clock.
func (m *Mixer) NewGain(level float64) (Gain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &mixGain{m: m, value: level}
	m.gains = append(m.gains, g)
	return g, nil
}

// Active returns the number of connected gains.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gains)
}

// Render fills out with the next len(out) frames and advances the clock.
func (m *Mixer) Render(out []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range out {
		t := float64(m.frame+uint64(i)) / m.sampleRate
		var sum float64
		for _, g := range m.gains {
			level := g.level(t)
			if level == 0 {
				continue
			}
			for _, tone := range g.tones {
				if t < tone.Start || t >= tone.End() {
					continue
				}
				elapsed := t - tone.Start
				sum += level * tone.Envelope.At(elapsed, tone.Duration) *
					math.Sin(2*math.Pi*tone.Frequency*elapsed)
			}
		}
		out[i] = float32(clip(sum))
	}
	m.frame += uint64(len(out))
	m.prune()
}

// prune drops finished tones. Caller holds m.mu.
func (m *Mixer) prune() {
	now := m.now()
	for _, g := range m.gains {
		kept := g.tones[:0]
		for _, tone := range g.tones {
			if tone.End() > now {
				kept = append(kept, tone)
			}
		}
		g.tones = kept
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// level returns the gain at time t. Caller holds m.mu.
func (g *mixGain) level(t float64) float64 {
	if !g.ramping {
		return g.value
	}
	switch {
	case t <= g.rampStart:
		return g.rampFrom
	case t >= g.rampEnd:
		return g.rampTo
	default:
		frac := (t - g.rampStart) / (g.rampEnd - g.rampStart)
		return g.rampFrom + (g.rampTo-g.rampFrom)*frac
	}
}

// Tone implements Gain.
func (g *mixGain) Tone(t Tone) {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if g.disconnected {
		return
	}
	g.tones = append(g.tones, t)
}

// RampTo implements Gain.
func (g *mixGain) RampTo(target, seconds float64) {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	now := g.m.now()
	from := g.level(now)
	if seconds <= 0 {
		g.ramping = false
		g.value = target
		return
	}
	g.ramping = true
	g.rampFrom = from
	g.rampTo = target
	g.rampStart = now
	g.rampEnd = now + seconds
	g.value = target
}

// Disconnect implements Gain. It is idempotent.
func (g *mixGain) Disconnect() {
	g.m.mu.Lock()
	defer g.m.mu.Unlock()
	if g.disconnected {
		return
	}
	g.disconnected = true
	g.tones = nil
	for i, other := range g.m.gains {
		if other == g {
			g.m.gains = append(g.m.gains[:i], g.m.gains[i+1:]...)
			break
		}
	}
}

// RenderOffline keys text into a fresh mixer and renders it without a
// device, with a short tail of silence after the last tone.
func RenderOffline(text string, p Params, sampleRate uint32) ([]float32, []Tone, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	tones, end, err := Schedule(text, p, StartDelay)
	if err != nil {
		return nil, nil, err
	}
	m := NewMixer(sampleRate)
	g, _ := m.NewGain(1)
	for _, t := range tones {
		g.Tone(t)
	}
	out := make([]float32, int(math.Ceil((end+StartDelay)*m.sampleRate)))
	m.Render(out)
	return out, tones, nil
}
