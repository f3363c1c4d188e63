// internal/audio/scheduler.go
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/cw"
	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
	"go.uber.org/zap"
)

const (
	// StartDelay is added before the first tone to avoid start-up glitches
	StartDelay = 0.1
	// RampTime is the envelope attack and release in seconds
	RampTime = 0.005
	// SessionGainRamp is the fade-out applied by Stop in seconds
	SessionGainRamp = 0.05
	// SessionGainDisconnect is how long after Stop the gain is disconnected
	SessionGainDisconnect = 60 * time.Millisecond
	// JingleNoteDuration is the length of each jingle note in seconds
	JingleNoteDuration = 0.15
)

// JingleNotes are C4, E4 and G4 in Hz.
var JingleNotes = [...]float64{261.63, 329.63, 392.00}

// Params describes how text is keyed.
type Params struct {
	WPM           int
	FarnsworthWPM int
	Frequency     float64
	Volume        float64
}

// Validate checks speeds, frequency and volume.
func (p Params) Validate() error {
	if _, err := cw.NewTiming(p.WPM, p.FarnsworthWPM); err != nil {
		return err
	}
	if p.Frequency <= 0 {
		return ErrInvalidFrequency
	}
	if p.Volume < 0 || p.Volume > 1 {
		return ErrInvalidVolume
	}
	return nil
}

// Schedule lays out the tones for text starting at start. Characters that
// are not in the Morse table are skipped. It returns the tones and the end
// of the last one (start when nothing was scheduled).
func Schedule(text string, p Params, start float64) ([]Tone, float64, error) {
	timing, err := cw.NewTiming(p.WPM, p.FarnsworthWPM)
	if err != nil {
		return nil, start, err
	}
	env := Envelope{Peak: p.Volume, Attack: RampTime, Release: RampTime}

	var tones []Tone
	at, end := start, start
	for _, r := range text {
		if r == ' ' {
			at += timing.WordGap - timing.CharGap
			continue
		}
		pattern, ok := cw.Lookup(r)
		if !ok {
			continue
		}
		for i := 0; i < len(pattern); i++ {
			if i > 0 {
				at += timing.SymbolGap
			}
			d := timing.Duration(cw.Symbol(pattern[i]))
			tones = append(tones, Tone{Start: at, Duration: d, Frequency: p.Frequency, Envelope: env})
			at += d
			end = at
		}
		at += timing.CharGap
	}
	return tones, end, nil
}

// Scheduler owns the session gain and the completion timer of the current
// playback. It is the only component that cancels them.
type Scheduler struct {
	mu     sync.Mutex
	clock  Clock
	timers timer.Scheduler
	log    *zap.Logger

	playing bool
	gain    Gain
	done    timer.Timer
	// token identifies the current playback; stale completions are ignored
	token uint64
}

// NewScheduler creates a scheduler. A nil clock makes every playback fail
// with ErrAudioUnavailable.
func NewScheduler(clock Clock, timers timer.Scheduler, log *zap.Logger) *Scheduler {
	if timers == nil {
		timers = timer.Real{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{clock: clock, timers: timers, log: log}
}

// Available reports whether a clock is configured.
func (s *Scheduler) Available() bool {
	return s.clock != nil
}

// Play schedules text and arms onComplete to run once the last tone ended.
// When a playback is running it is cancelled and ErrAlreadyPlaying is
// returned without starting a new one. onComplete runs on the timer
// goroutine without the scheduler lock held. It returns the total duration
// in seconds measured from now.
func (s *Scheduler) Play(text string, p Params, onComplete func()) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		s.stopLocked()
		return 0, ErrAlreadyPlaying
	}
	if s.clock == nil {
		return 0, ErrAudioUnavailable
	}
	if err := s.clock.Resume(); err != nil {
		return 0, fmt.Errorf("%w: resume: %v", ErrAudioUnavailable, err)
	}
	gain, err := s.clock.NewGain(1)
	if err != nil {
		return 0, fmt.Errorf("%w: gain: %v", ErrAudioUnavailable, err)
	}

	now := s.clock.Now()
	tones, end, err := Schedule(text, p, now+StartDelay)
	if err != nil {
		gain.Disconnect()
		return 0, err
	}
	for _, t := range tones {
		gain.Tone(t)
	}

	duration := end - now
	if duration < 0 {
		duration = 0
	}
	s.token++
	token := s.token
	s.playing = true
	s.gain = gain
	s.done = s.timers.AfterFunc(seconds(duration), func() {
		defer recovery.Guard(s.log, "playback completion")
		s.complete(token, onComplete)
	})

	s.log.Debug("playback scheduled",
		zap.String("text", text),
		zap.Int("tones", len(tones)),
		zap.Float64("duration", duration))
	return duration, nil
}

func (s *Scheduler) complete(token uint64, onComplete func()) {
	s.mu.Lock()
	if !s.playing || token != s.token {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.done = nil
	if s.gain != nil {
		s.gain.Disconnect()
		s.gain = nil
	}
	s.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
}

// Stop cancels the current playback: the completion callback is dropped,
// the session gain fades to zero and is disconnected shortly after. It is
// idempotent and reports whether a playback was cancelled.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Scheduler) stopLocked() bool {
	if !s.playing {
		return false
	}
	if s.done != nil {
		s.done.Stop()
		s.done = nil
	}
	s.token++
	s.playing = false
	s.releaseGain(s.gain)
	s.gain = nil
	s.log.Debug("playback cancelled")
	return true
}

// releaseGain fades g out and disconnects it later. Caller holds s.mu.
func (s *Scheduler) releaseGain(g Gain) {
	if g == nil {
		return
	}
	g.RampTo(0, SessionGainRamp)
	s.timers.AfterFunc(SessionGainDisconnect, func() {
		defer recovery.Guard(s.log, "gain disconnect")
		g.Disconnect()
	})
}

// IsPlaying reports whether a playback is in progress.
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// PlayJingle stops any current playback and plays the three-note level-up
// jingle on its own gain. The jingle does not count as a playback.
func (s *Scheduler) PlayJingle(volume float64) error {
	if volume < 0 || volume > 1 {
		return ErrInvalidVolume
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if s.clock == nil {
		return ErrAudioUnavailable
	}
	if err := s.clock.Resume(); err != nil {
		return fmt.Errorf("%w: resume: %v", ErrAudioUnavailable, err)
	}
	gain, err := s.clock.NewGain(1)
	if err != nil {
		return fmt.Errorf("%w: gain: %v", ErrAudioUnavailable, err)
	}

	env := Envelope{Peak: volume, Attack: RampTime, Release: RampTime}
	at := s.clock.Now() + StartDelay
	for _, f := range JingleNotes {
		gain.Tone(Tone{Start: at, Duration: JingleNoteDuration, Frequency: f, Envelope: env})
		at += JingleNoteDuration
	}
	total := StartDelay + JingleNoteDuration*float64(len(JingleNotes))
	s.timers.AfterFunc(seconds(total)+SessionGainDisconnect, func() {
		defer recovery.Guard(s.log, "jingle disconnect")
		gain.Disconnect()
	})
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
