// internal/audio/audio.go
// Package audio turns text into timed tone bursts on a monotonic,
// sample-accurate audio clock and plays them through the output device.
package audio

import "errors"

var (
	// ErrAudioUnavailable indicates no audio clock could be created or resumed
	ErrAudioUnavailable = errors.New("audio unavailable")
	// ErrAlreadyPlaying indicates Play was called during playback; the
	// running playback was cancelled and the caller may retry
	ErrAlreadyPlaying = errors.New("playback already in progress")
	// ErrInvalidFrequency indicates a tone frequency that is not positive
	ErrInvalidFrequency = errors.New("tone frequency must be positive")
	// ErrInvalidVolume indicates a volume outside 0.0..1.0
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")
)

// Clock is the monotonic audio clock collaborator. Times are seconds.
type Clock interface {
	// Now returns the current clock time
	Now() float64
	// Resume starts the clock if it is suspended
	Resume() error
	// NewGain allocates a gain stage routed to the output
	NewGain(level float64) (Gain, error)
}

// Gain is a gain stage owning scheduled tones.
type Gain interface {
	// Tone schedules one tone burst through this gain
	Tone(t Tone)
	// RampTo moves the gain linearly from its current value to target,
	// starting now and lasting seconds
	RampTo(target, seconds float64)
	// Disconnect removes the gain and its tones from the output
	Disconnect()
}

// Tone is one sine burst.
type Tone struct {
	Start     float64
	Duration  float64
	Frequency float64
	Envelope  Envelope
}

// End returns the time the tone stops sounding.
func (t Tone) End() float64 {
	return t.Start + t.Duration
}

// Envelope is a linear attack/hold/release amplitude shape.
type Envelope struct {
	Peak    float64
	Attack  float64
	Release float64
}

// At returns the amplitude elapsed seconds into a tone of the given
// duration. Attack and release shrink proportionally when they do not fit.
func (e Envelope) At(elapsed, duration float64) float64 {
	if elapsed < 0 || elapsed >= duration {
		return 0
	}
	attack, release := e.Attack, e.Release
	if sum := attack + release; sum > duration && sum > 0 {
		attack *= duration / sum
		release *= duration / sum
	}
	switch {
	case attack > 0 && elapsed < attack:
		return e.Peak * elapsed / attack
	case release > 0 && elapsed > duration-release:
		return e.Peak * (duration - elapsed) / release
	default:
		return e.Peak
	}
}
