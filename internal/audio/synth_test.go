package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("DefaultConfig().Channels = %d, want 1", cfg.Channels)
	}
	if cfg.BufferSize != 512 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 512", cfg.BufferSize)
	}
}

func TestNewSynth(t *testing.T) {
	cfg := Config{
		DeviceIndex: 2,
		SampleRate:  44100,
		Channels:    0,
		BufferSize:  1024,
	}

	synth := NewSynth(cfg, nil)

	if synth == nil {
		t.Fatal("NewSynth() returned nil")
	}
	if synth.config.DeviceIndex != 2 {
		t.Errorf("synth.config.DeviceIndex = %d, want 2", synth.config.DeviceIndex)
	}
	if synth.config.Channels != 1 {
		t.Errorf("synth.config.Channels = %d, want 1 for zero value", synth.config.Channels)
	}
	if synth.Mixer().SampleRate() != 44100 {
		t.Errorf("mixer sample rate = %v, want 44100", synth.Mixer().SampleRate())
	}
}

func TestSynth_IsRunning_InitialState(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	if synth.IsRunning() {
		t.Error("IsRunning() = true for new synth, want false")
	}
	if synth.Now() != 0 {
		t.Errorf("Now() = %v before any frame, want 0", synth.Now())
	}
}

func TestSynth_ListDevices_NotInitialized(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	_, err := synth.ListDevices()
	if err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
}

func TestSynth_Start_NotInitialized(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	err := synth.Start(context.Background())
	if err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestSynth_Start_AlreadyRunning(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	// Manually set running state to simulate already running
	synth.running.Store(true)

	err := synth.Start(context.Background())
	if err != ErrAlreadyRunning {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestSynth_Stop_NotRunning(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	err := synth.Stop()
	if err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestSynth_ResumeAfterClose(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)
	if err := synth.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := synth.Resume(); err != ErrAudioUnavailable {
		t.Errorf("Resume() after Close() error = %v, want ErrAudioUnavailable", err)
	}
	// Second close is safe
	if err := synth.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSynth_OnSendFrames_AdvancesClock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = 2
	synth := NewSynth(cfg, nil)

	g, _ := synth.NewGain(1)
	g.Tone(Tone{Start: 0, Duration: 1, Frequency: 1000, Envelope: Envelope{Peak: 1}})

	out := make([]byte, 480*2*4)
	synth.onSendFrames(out, nil, 480)

	if got := synth.Now(); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("Now() = %v after 480 frames at 48kHz, want 0.01", got)
	}
	// Both channels carry the same sample
	for i := 0; i < 480; i++ {
		l := binary.LittleEndian.Uint32(out[i*8:])
		r := binary.LittleEndian.Uint32(out[i*8+4:])
		if l != r {
			t.Fatalf("frame %d: left %08x != right %08x", i, l, r)
		}
	}
	if v := math.Float32frombits(binary.LittleEndian.Uint32(out[12*8:])); v <= 0 {
		t.Errorf("frame 12 = %v, want positive sine sample", v)
	}
}

func TestSynth_OnSendFrames_Closed(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)
	synth.closed.Store(true)

	synth.onSendFrames(make([]byte, 64*4), nil, 64)
	if synth.Now() != 0 {
		t.Errorf("Now() = %v, closed synth must not render", synth.Now())
	}
}

func TestWriteFrames(t *testing.T) {
	tests := []struct {
		name     string
		mono     []float32
		channels int
		size     int
		want     []float32
	}{
		{"mono", []float32{0.5, -1}, 1, 8, []float32{0.5, -1}},
		{"stereo", []float32{0.25}, 2, 8, []float32{0.25, 0.25}},
		{"zero channels as mono", []float32{1}, 0, 4, []float32{1}},
		{"short destination", []float32{1, 1}, 1, 4, []float32{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.size)
			writeFrames(dst, tt.mono, tt.channels)
			for i, want := range tt.want {
				got := math.Float32frombits(binary.LittleEndian.Uint32(dst[i*4:]))
				if got != want {
					t.Errorf("sample[%d] = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestErrors(t *testing.T) {
	if ErrNotInitialized.Error() != "audio output not initialized" {
		t.Errorf("ErrNotInitialized message wrong")
	}
	if ErrAlreadyRunning.Error() != "audio output already running" {
		t.Errorf("ErrAlreadyRunning message wrong")
	}
	if ErrNotRunning.Error() != "audio output not running" {
		t.Errorf("ErrNotRunning message wrong")
	}
}

func TestSynth_ConcurrentAccess(t *testing.T) {
	synth := NewSynth(DefaultConfig(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = synth.IsRunning()
			_ = synth.Now()
		}()
		go func() {
			defer wg.Done()
			synth.Mixer().Render(make([]float32, 32))
		}()
	}
	wg.Wait()

	if got, want := synth.Now(), 50*32/48000.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}
