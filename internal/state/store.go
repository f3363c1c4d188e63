// internal/state/store.go
// Package state owns the learner's settings and stats and persists them
// through a storage sink.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/accuracy"
	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
	"github.com/ColonelBlimp/kochtrainer/internal/logging"
	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
)

// Persistence keys
const (
	SettingsKey = "morse-settings-v3"
	StatsKey    = "morse-stats-v2"
)

// DefaultDebounce is the delay between a settings change and its save
const DefaultDebounce = 500 * time.Millisecond

// ErrNoSink is returned when a store is built without a storage sink
var ErrNoSink = errors.New("storage sink is required")

// Config holds store dependencies. Timers defaults to timer.Real, Log to a
// no-op logger and Now to time.Now. Events may be nil.
type Config struct {
	Sink     storage.Sink
	Timers   timer.Scheduler
	Log      *zap.Logger
	Events   events.Sink
	Debounce time.Duration
	Now      func() time.Time
}

// Store is the single owner of Settings and Stats. Readers get copies;
// every mutation goes through a Store method.
type Store struct {
	mu       sync.Mutex
	sink     storage.Sink
	timers   timer.Scheduler
	log      *zap.Logger
	events   events.Sink
	debounce time.Duration
	now      func() time.Time

	settings Settings
	stats    Stats
	pending  timer.Timer
}

// New builds a store and loads both values from the sink. Load problems
// are reported as STORAGE_LOAD warnings and leave the defaults in place.
func New(cfg Config) (*Store, error) {
	if cfg.Sink == nil {
		return nil, ErrNoSink
	}
	s := &Store{
		sink:     cfg.Sink,
		timers:   cfg.Timers,
		log:      logging.OrNop(cfg.Log),
		events:   cfg.Events,
		debounce: cfg.Debounce,
		now:      cfg.Now,
		settings: DefaultSettings(),
		stats:    DefaultStats(),
	}
	if s.timers == nil {
		s.timers = timer.Real{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSettings()
	s.loadStats()
	return s, nil
}

func (s *Store) loadSettings() {
	raw, ok, err := s.sink.Get(SettingsKey)
	if err != nil {
		s.warn(events.StorageLoad, fmt.Errorf("read settings: %w", err))
		return
	}
	if !ok {
		return
	}
	loaded := DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.warn(events.StorageLoad, fmt.Errorf("decode settings: %w", err))
		return
	}
	if err := loaded.Validate(); err != nil {
		s.warn(events.StorageLoad, fmt.Errorf("settings out of range: %w", err))
		return
	}
	if loaded.ManualChars == nil {
		loaded.ManualChars = Chars{}
	}
	s.settings = loaded
}

func (s *Store) loadStats() {
	raw, ok, err := s.sink.Get(StatsKey)
	if err != nil {
		s.warn(events.StorageLoad, fmt.Errorf("read stats: %w", err))
		return
	}
	if !ok {
		return
	}
	st, err := decodeStats(raw)
	if err != nil {
		s.warn(events.StorageLoad, err)
		if !errors.Is(err, accuracy.ErrInvalidShape) {
			return
		}
	}
	s.stats = st
}

// warn logs a recoverable error and forwards it to the event sink. Caller
// holds mu.
func (s *Store) warn(kind events.Kind, err error) {
	s.log.Warn("state store", zap.String("kind", string(kind)), zap.Error(err))
	if s.events != nil {
		s.events.Emit(events.Warning{Kind: kind, Message: err.Error()})
	}
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Stats returns a deep copy of the current stats.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Clone()
}

// Accuracy returns a copy of the accuracy tracker.
func (s *Store) Accuracy() *accuracy.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Accuracy.Clone()
}

// WeakCharacters returns the current weak characters.
func (s *Store) WeakCharacters() []rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Accuracy.Weak()
}

// Unlocked returns the unlocked set of the current settings.
func (s *Store) Unlocked() koch.UnlockedSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Unlocked()
}

// UpdateSetting validates value for key and applies it. Invalid values are
// rejected with an INVALID_SETTING warning and the previous value is kept.
// Accepted changes are saved after the debounce delay.
func (s *Store) UpdateSetting(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.settings.apply(key, value)
	if err != nil {
		s.warn(events.InvalidSetting, err)
		return err
	}
	s.settings = next
	s.scheduleSaveLocked()
	return nil
}

// SetLevel moves the lesson level, clamped to the valid range, and drops
// manual characters the new level already covers.
func (s *Store) SetLevel(level int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	level = koch.ClampLevel(level)
	s.settings.LessonLevel = level
	s.settings.ManualChars = koch.PruneManual(level, s.settings.ManualChars)
	s.scheduleSaveLocked()
	return level
}

// scheduleSaveLocked restarts the debounce timer. Caller holds mu.
func (s *Store) scheduleSaveLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	if s.debounce <= 0 {
		_ = s.saveSettingsLocked()
		return
	}
	var t timer.Timer
	t = s.timers.AfterFunc(s.debounce, func() {
		defer recovery.Guard(s.log, "settings save")
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending != t {
			return
		}
		s.pending = nil
		_ = s.saveSettingsLocked()
	})
	s.pending = t
}

// SaveSettings writes the settings now, cancelling a pending debounced save.
func (s *Store) SaveSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	return s.saveSettingsLocked()
}

// Flush writes the settings if a debounced save is pending.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	s.pending.Stop()
	s.pending = nil
	return s.saveSettingsLocked()
}

func (s *Store) saveSettingsLocked() error {
	data, err := json.Marshal(s.settings)
	if err != nil {
		err = fmt.Errorf("encode settings: %w", err)
		s.warn(events.StorageSave, err)
		return err
	}
	if err := s.sink.Put(SettingsKey, string(data)); err != nil {
		err = fmt.Errorf("write settings: %w", err)
		s.warn(events.StorageSave, err)
		return err
	}
	return nil
}

// Record applies one submission to accuracy, history and session metrics.
// It does not persist; callers follow with SaveStats.
func (s *Store) Record(sub Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.At.IsZero() {
		sub.At = s.now()
	}
	s.stats.record(sub)
}

// SaveStats writes the stats synchronously.
func (s *Store) SaveStats() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStatsLocked()
}

func (s *Store) saveStatsLocked() error {
	data, err := json.Marshal(s.stats)
	if err != nil {
		err = fmt.Errorf("encode stats: %w", err)
		s.warn(events.StorageSave, err)
		return err
	}
	if err := s.sink.Put(StatsKey, string(data)); err != nil {
		err = fmt.Errorf("write stats: %w", err)
		s.warn(events.StorageSave, err)
		return err
	}
	return nil
}

// WipeStats clears accuracy records, history and session metrics and saves
// the empty stats.
func (s *Store) WipeStats() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = DefaultStats()
	return s.saveStatsLocked()
}
