// cmd/runtime.go
package cmd

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/config"
	"github.com/ColonelBlimp/kochtrainer/internal/content"
	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/logging"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
	"github.com/ColonelBlimp/kochtrainer/internal/textgen"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
)

// runtime holds what every command shares: app config, logger, the
// progress backend and the state store on top of it.
type runtime struct {
	cfg     *config.Settings
	log     *zap.Logger
	backend storage.Backend
	store   *state.Store
}

type runtimeOptions struct {
	// logToFile sends logs to the log file instead of stderr, for the TUI
	logToFile bool
	events    events.Sink
}

func openRuntime(opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = logging.DebugLevel
	}
	logOpts := logging.Options{Level: level, Format: cfg.LogFormat}
	if opts.logToFile {
		logOpts.Path = cfg.LogPath()
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(cfg.StorageBackend, cfg.DataPath())
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	store, err := state.New(state.Config{
		Sink:     backend,
		Timers:   timer.Real{},
		Log:      log.Named("state"),
		Events:   opts.events,
		Debounce: time.Duration(cfg.SettingsDebounceMs) * time.Millisecond,
	})
	if err != nil {
		_ = backend.Close()
		_ = log.Sync()
		return nil, err
	}

	log.Debug("runtime opened",
		zap.String("backend", cfg.StorageBackend),
		zap.String("data_dir", cfg.DataPath()))
	return &runtime{cfg: cfg, log: log, backend: backend, store: store}, nil
}

// Close flushes pending settings and releases the backend.
func (r *runtime) Close() error {
	var errs []error
	if err := r.store.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush settings: %w", err))
	}
	if err := r.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	_ = r.log.Sync()
	return errors.Join(errs...)
}

// archive returns the attempts archive when the backend keeps one.
func (r *runtime) archive() storage.Archive {
	if a, ok := r.backend.(storage.Archive); ok {
		return a
	}
	return nil
}

// generator builds the content generator over the built-in pools plus the
// user's content pack, if one exists.
func (r *runtime) generator() *content.Generator {
	pools := content.DefaultPools()
	path := config.PackPath()
	pack, err := content.LoadPack(path)
	if err != nil {
		r.log.Warn("content pack ignored", zap.String("path", path), zap.Error(err))
	} else if pack.Size() > 0 {
		pools = pack.Merge(pools)
		r.log.Info("content pack loaded", zap.String("path", path), zap.Int("entries", pack.Size()))
	}
	return content.NewGenerator(nil, pools)
}

// external wires the text generator; the API key is read from the learner
// settings on every request.
func (r *runtime) external() *content.External {
	client := textgen.New(textgen.Config{
		Endpoint: r.cfg.GeneratorEndpoint,
		Model:    r.cfg.GeneratorModel,
		APIKey:   func() string { return r.store.Settings().APIKey },
		Log:      r.log.Named("textgen"),
	})
	return content.NewExternal(client, time.Duration(r.cfg.GeneratorTimeoutMs)*time.Millisecond)
}

func (r *runtime) synth() *audio.Synth {
	return audio.NewSynth(audio.Config{
		DeviceIndex: r.cfg.DeviceIndex,
		SampleRate:  uint32(r.cfg.SampleRate),
		Channels:    1,
		BufferSize:  uint32(r.cfg.BufferSize),
	}, r.log.Named("audio"))
}

// params converts learner settings to keying parameters.
func params(s state.Settings) audio.Params {
	return audio.Params{
		WPM:           s.WPM,
		FarnsworthWPM: s.FarnsworthWPM,
		Frequency:     float64(s.Frequency),
		Volume:        s.Volume,
	}
}
