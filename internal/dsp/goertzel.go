// internal/dsp/goertzel.go
// Package dsp measures synthesized tones. It is used to check that the
// mixer puts energy at the configured pitch for the expected duration.
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
	// ErrInvalidHop indicates a hop size that is not positive
	ErrInvalidHop = errors.New("hop size must be positive")
)

// GoertzelConfig holds configuration for the Goertzel filter.
type GoertzelConfig struct {
	// TargetFrequency is the tone pitch in Hz (learner setting: frequency)
	TargetFrequency float64
	// SampleRate is the mixer sample rate in Hz (config: sample_rate)
	SampleRate float64
	// BlockSize is the number of samples per analysis window
	BlockSize int
}

// Goertzel computes the DFT magnitude of a single frequency over a block.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(2π * f / fs)
	normalizer  float64 // 2 / blockSize, so a full-scale sine reads ~1.0
}

// NewGoertzel creates a new filter with the given configuration.
// Returns an error if the configuration is invalid.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= cfg.SampleRate/2.0 {
		return nil, ErrInvalidFrequency
	}

	omega := 2.0 * math.Pi * cfg.TargetFrequency / cfg.SampleRate
	return &Goertzel{
		config:      cfg,
		coefficient: 2.0 * math.Cos(omega),
		normalizer:  2.0 / float64(cfg.BlockSize),
	}, nil
}

// Magnitude returns the normalized magnitude of the target frequency in the
// first BlockSize samples. A full-scale sine at the target reads ~1.0.
func (g *Goertzel) Magnitude(samples []float32) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}
	return g.magnitude(samples), nil
}

// MagnitudeNoAlloc skips the bounds check.
// Caller MUST ensure samples has at least BlockSize elements.
func (g *Goertzel) MagnitudeNoAlloc(samples []float32) float64 {
	return g.magnitude(samples)
}

func (g *Goertzel) magnitude(samples []float32) float64 {
	var s0, s1, s2 float64
	coeff := g.coefficient
	for i := 0; i < g.config.BlockSize; i++ {
		s0 = float64(samples[i]) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	power := s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * g.normalizer
}

// Config returns the current configuration
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// Coefficient returns the pre-computed Goertzel coefficient
func (g *Goertzel) Coefficient() float64 {
	return g.coefficient
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.config.BlockSize
}

// ToneMeasurement summarizes where the target tone sounds in a buffer.
type ToneMeasurement struct {
	// Peak is the highest block magnitude
	Peak float64
	// Onset is the start of the first sounding block, in seconds
	Onset float64
	// Duration is the total time the tone was judged on, in seconds
	Duration float64
	// Bursts counts separate on periods
	Bursts int
}

// Measure slides the filter over samples in steps of hop. A window is on
// when its magnitude is at least threshold times the peak; windows that
// overlap a burst by more than half are on, so Duration approximates the
// real burst length to within one hop per edge.
func (g *Goertzel) Measure(samples []float32, hop int, threshold float64) (ToneMeasurement, error) {
	if hop <= 0 {
		return ToneMeasurement{}, ErrInvalidHop
	}
	n := g.config.BlockSize
	if len(samples) < n {
		return ToneMeasurement{}, ErrInsufficientSamples
	}

	mags := make([]float64, 0, (len(samples)-n)/hop+1)
	var m ToneMeasurement
	for i := 0; i+n <= len(samples); i += hop {
		mag := g.magnitude(samples[i:])
		mags = append(mags, mag)
		if mag > m.Peak {
			m.Peak = mag
		}
	}
	if m.Peak == 0 {
		return m, nil
	}

	rate := g.config.SampleRate
	on := false
	first := true
	for i, mag := range mags {
		sounding := mag >= threshold*m.Peak
		if sounding {
			if first {
				m.Onset = (float64(i*hop) + float64(n)/2) / rate
				first = false
			}
			m.Duration += float64(hop) / rate
			if !on {
				m.Bursts++
			}
		}
		on = sounding
	}
	return m, nil
}
