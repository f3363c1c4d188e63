// internal/audio/synth.go
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
)

var (
	ErrNotInitialized = errors.New("audio output not initialized")
	ErrAlreadyRunning = errors.New("audio output already running")
	ErrNotRunning     = errors.New("audio output not running")
)

// Config holds audio output configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 48000
	Channels    uint32 // 1 for mono, 2 for stereo
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns sensible defaults for tone playback
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  48000,
		Channels:    1,
		BufferSize:  512,
	}
}

// Synth plays the mixer through a malgo playback device. It implements
// Clock: time advances with every frame the device pulls, and Resume starts
// the device on first use.
type Synth struct {
	config  Config
	log     *zap.Logger
	mixer   *Mixer
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running atomic.Bool
	closed  atomic.Bool
	mu      sync.Mutex

	// scratch is the mono render buffer, reused by the audio thread
	scratch []float32
}

// NewSynth creates a new synthesizer instance
func NewSynth(cfg Config, log *zap.Logger) *Synth {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	return &Synth{
		config: cfg,
		log:    log,
		mixer:  NewMixer(cfg.SampleRate),
	}
}

// Mixer returns the mixer the device renders.
func (s *Synth) Mixer() *Mixer {
	return s.mixer
}

// Init initializes the audio backend
func (s *Synth) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	s.ctx = ctx
	return nil
}

// ListDevices returns available playback devices
func (s *Synth) ListDevices() ([]malgo.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDevices()
}

func (s *Synth) listDevices() ([]malgo.DeviceInfo, error) {
	if s.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := s.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start opens the playback device. The device is stopped when ctx is done.
func (s *Synth) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrAlreadyRunning
	}
	if s.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.SampleRate = s.config.SampleRate
	deviceConfig.PeriodSizeInFrames = s.config.BufferSize
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = s.config.Channels

	if s.config.DeviceIndex >= 0 {
		devices, err := s.listDevices()
		if err != nil {
			return err
		}
		if s.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				s.config.DeviceIndex, len(devices))
		}
		deviceConfig.Playback.DeviceID = devices[s.config.DeviceIndex].ID.Pointer()
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: s.onSendFrames,
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	s.device = device
	s.running.Store(true)
	s.log.Debug("audio output started",
		zap.Uint32("sample_rate", s.config.SampleRate),
		zap.Uint32("channels", s.config.Channels),
		zap.Int("device_index", s.config.DeviceIndex))

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	return nil
}

// onSendFrames runs on the audio thread. It must be non-blocking and fast.
func (s *Synth) onSendFrames(outputSamples, _ []byte, frameCount uint32) {
	defer recovery.Guard(s.log, "audio output")
	if s.closed.Load() {
		return
	}
	if cap(s.scratch) < int(frameCount) {
		s.scratch = make([]float32, frameCount)
	}
	mono := s.scratch[:frameCount]
	s.mixer.Render(mono)
	writeFrames(outputSamples, mono, int(s.config.Channels))
}

// writeFrames interleaves mono samples into little-endian float32 frames.
func writeFrames(dst []byte, mono []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	for i, v := range mono {
		bits := math.Float32bits(v)
		for c := 0; c < channels; c++ {
			offset := (i*channels + c) * 4
			if offset+4 > len(dst) {
				return
			}
			binary.LittleEndian.PutUint32(dst[offset:], bits)
		}
	}
}

// Stop stops the playback device
func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return ErrNotRunning
	}
	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	s.running.Store(false)
	return nil
}

// Close releases all audio resources. It is safe to call more than once.
func (s *Synth) Close() error {
	s.closed.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() && s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
		s.running.Store(false)
	}

	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

// IsRunning returns true if the device is playing
func (s *Synth) IsRunning() bool {
	return s.running.Load()
}

// Now implements Clock.
func (s *Synth) Now() float64 {
	return s.mixer.Now()
}

// Resume implements Clock. It initializes and starts the device if needed.
func (s *Synth) Resume() error {
	if s.closed.Load() {
		return ErrAudioUnavailable
	}
	if s.running.Load() {
		return nil
	}
	s.mu.Lock()
	needInit := s.ctx == nil
	s.mu.Unlock()
	if needInit {
		if err := s.Init(); err != nil {
			return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
		}
	}
	if err := s.Start(context.Background()); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	return nil
}

// NewGain implements Clock.
func (s *Synth) NewGain(level float64) (Gain, error) {
	return s.mixer.NewGain(level)
}
