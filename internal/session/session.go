// internal/session/session.go
// Package session runs the training loop: generate a challenge, play it,
// accept an answer, judge it and record the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/content"
	"github.com/ColonelBlimp/kochtrainer/internal/difficulty"
	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/level"
	"github.com/ColonelBlimp/kochtrainer/internal/logging"
	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
)

// DefaultAutoPlayDelay is the pause between a correct answer and the next
// challenge when auto-play is on
const DefaultAutoPlayDelay = 1500 * time.Millisecond

var (
	// ErrNoStore is returned when the controller is built without a state store
	ErrNoStore = errors.New("state store is required")
	// ErrNoEventSink is returned when the controller is built without an event sink
	ErrNoEventSink = errors.New("event sink is required")
	// ErrNoChallenge is returned by operations that need a current challenge
	ErrNoChallenge = errors.New("no current challenge")
	// ErrSuperseded is returned when a generation was overtaken by Stop or
	// another generation; its result was discarded
	ErrSuperseded = errors.New("generation superseded")
	// ErrUnknownMode is returned by ParseMode
	ErrUnknownMode = errors.New("unknown generation mode")
)

// Player plays Morse text. *audio.Scheduler implements it.
type Player interface {
	Available() bool
	Play(text string, p audio.Params, onComplete func()) (float64, error)
	Stop() bool
	PlayJingle(volume float64) error
}

// Config holds controller dependencies. Store and Events are required.
// A nil Player behaves as unavailable audio, a nil External disables the AI
// paths and a nil Archive skips attempt archiving. A negative AutoPlayDelay
// selects DefaultAutoPlayDelay.
type Config struct {
	Store         *state.Store
	Events        events.Sink
	Generator     *content.Generator
	External      *content.External
	Player        Player
	Archive       storage.Archive
	Timers        timer.Scheduler
	Log           *zap.Logger
	AutoPlayDelay time.Duration
	SessionID     string
	Mode          Mode
	Now           func() time.Time
}

// View is a read-only snapshot for a UI.
type View struct {
	State     State
	Mode      Mode
	Challenge content.Challenge
	// HasChallenge is false until the first generation
	HasChallenge bool
	HasPlayed    bool
	// CoachHasWeak reports whether the last coach drill focused on weak characters
	CoachHasWeak bool
	Queued       int
	Settings     state.Settings
	// WindowAccuracy is the percentage correct over the auto-level window
	WindowAccuracy float64
	// Recommended is the next difficulty suggested by the current preset
	Recommended float64
	SessionID   string
}

// Controller is the session state machine. All methods are safe for
// concurrent use; events are emitted in order while the controller lock is
// held.
type Controller struct {
	mu        sync.Mutex
	store     *state.Store
	events    events.Sink
	gen       *content.Generator
	ext       *content.External
	player    Player
	archive   storage.Archive
	timers    timer.Scheduler
	log       *zap.Logger
	delay     time.Duration
	sessionID string
	now       func() time.Time

	state        State
	mode         Mode
	current      content.Challenge
	hasCurrent   bool
	hasPlayed    bool
	coachHasWeak bool
	queue        []content.Challenge
	// lessonsSinceNewChar counts judged challenges since the last upward level change
	lessonsSinceNewChar int
	weak                []rune

	// epoch invalidates in-flight generations and pending auto-play
	epoch uint64
	// playSeq invalidates completion callbacks of cancelled playbacks
	playSeq   uint64
	autoTimer timer.Timer
	cancelGen context.CancelFunc
}

// New builds a controller in the IDLE state.
func New(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Events == nil {
		return nil, ErrNoEventSink
	}
	c := &Controller{
		store:               cfg.Store,
		events:              cfg.Events,
		gen:                 cfg.Generator,
		ext:                 cfg.External,
		player:              cfg.Player,
		archive:             cfg.Archive,
		timers:              cfg.Timers,
		log:                 logging.OrNop(cfg.Log),
		delay:               cfg.AutoPlayDelay,
		sessionID:           cfg.SessionID,
		now:                 cfg.Now,
		mode:                cfg.Mode,
		lessonsSinceNewChar: difficulty.NoNewChar,
	}
	if c.gen == nil {
		c.gen = content.NewGenerator(nil, nil)
	}
	if c.timers == nil {
		c.timers = timer.Real{}
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.delay < 0 {
		c.delay = DefaultAutoPlayDelay
	}
	c.weak = c.store.WeakCharacters()
	return c, nil
}

// SessionID identifies this run in the attempts archive.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// View returns a snapshot of the controller.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	settings := c.store.Settings()
	acc := level.WindowAccuracy(c.store.Stats().Flags())
	v := View{
		State:          c.state,
		Mode:           c.mode,
		Challenge:      c.current,
		HasChallenge:   c.hasCurrent,
		HasPlayed:      c.hasPlayed,
		CoachHasWeak:   c.coachHasWeak,
		Queued:         len(c.queue),
		Settings:       settings,
		WindowAccuracy: acc,
		SessionID:      c.sessionID,
	}
	if c.hasCurrent {
		calc := difficulty.NewCalculator(settings.Preset(), nil)
		v.Recommended = calc.Recommended(float64(c.current.Difficulty), acc)
	}
	return v
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetMode selects the generation mode and drops queued challenges.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
	c.queue = nil
}

// GenerateNext cancels any playback, produces the next challenge and plays
// it. When the external generator is consulted the lock is released while
// waiting; a Stop or newer generation in the meantime discards the result
// and ErrSuperseded is returned.
func (c *Controller) GenerateNext(ctx context.Context) error {
	return c.generate(ctx, nil)
}

// Skip abandons the current challenge and generates the next one.
func (c *Controller) Skip(ctx context.Context) error {
	return c.generate(ctx, nil)
}

// generate runs one generation. cond, when set, is checked under the lock
// before anything changes; false aborts with ErrSuperseded.
func (c *Controller) generate(ctx context.Context, cond func() bool) error {
	c.mu.Lock()
	if cond != nil && !cond() {
		c.mu.Unlock()
		return ErrSuperseded
	}
	epoch := c.resetLocked()
	settings := c.store.Settings()
	set := settings.Unlocked()

	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.presentLocked(next, settings)
		c.mu.Unlock()
		return nil
	}

	mode := c.mode
	if mode == ModeStandard {
		c.presentLocked(c.gen.Generate(set, settings.UserCallsign), settings)
		c.mu.Unlock()
		return nil
	}

	weak := c.weak
	ext := c.ext
	gctx, cancel := context.WithCancel(ctx)
	c.cancelGen = cancel
	c.mu.Unlock()

	var (
		batch   []content.Challenge
		hasWeak bool
		err     error
	)
	switch mode {
	case ModeBroadcast:
		batch, err = c.gen.AIBroadcast(gctx, ext, set, settings.UserCallsign)
	case ModeCoach:
		var ch content.Challenge
		ch, hasWeak, err = c.gen.AICoach(gctx, ext, set, weak)
		batch = []content.Challenge{ch}
	}
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return ErrSuperseded
	}
	c.cancelGen = nil
	if err != nil {
		c.warnLocked(externalKind(err), fmt.Errorf("AI failed, using fallback: %w", err))
	}
	if mode == ModeCoach {
		c.coachHasWeak = hasWeak
	}
	c.queue = append(c.queue, batch[1:]...)
	// Settings may have changed while waiting; re-read for playback.
	c.presentLocked(batch[0], c.store.Settings())
	return nil
}

func externalKind(err error) events.Kind {
	switch {
	case errors.Is(err, content.ErrExternalTimeout):
		return events.ExternalGenTimeout
	case errors.Is(err, content.ErrExternalInvalid):
		return events.ExternalGenInvalid
	default:
		return events.ExternalGenFailed
	}
}

// resetLocked cancels playback, pending auto-play and in-flight generation,
// enters IDLE and returns the new epoch. Caller holds mu.
func (c *Controller) resetLocked() uint64 {
	c.epoch++
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
	if c.cancelGen != nil {
		c.cancelGen()
		c.cancelGen = nil
	}
	c.stopAudioLocked()
	c.setStateLocked(Idle)
	return c.epoch
}

// stopAudioLocked cancels the current playback. Caller holds mu.
func (c *Controller) stopAudioLocked() {
	c.playSeq++
	if c.player == nil {
		return
	}
	if c.player.Stop() || c.state == Playing {
		c.emit(events.PlaybackEnded{Cancelled: true})
	}
}

// presentLocked makes ch current, scores it and starts playback. Caller holds mu.
func (c *Controller) presentLocked(ch content.Challenge, settings state.Settings) {
	calc := difficulty.NewCalculator(settings.Preset(), c.store.Accuracy())
	ch.Difficulty = calc.ChallengeDifficulty(ch.Text, settings.Unlocked(), c.lessonsSinceNewChar)

	c.current = ch
	c.hasCurrent = true
	c.hasPlayed = false
	c.emit(events.ChallengeGenerated{
		Text:       ch.Text,
		Meaning:    ch.Meaning,
		Difficulty: ch.Difficulty,
		Source:     ch.Source,
	})
	c.log.Debug("challenge generated",
		zap.String("text", ch.Text),
		zap.String("source", ch.Source),
		zap.Int("difficulty", ch.Difficulty))
	c.playLocked(settings)
}

// playLocked plays the current challenge. Caller holds mu.
func (c *Controller) playLocked(settings state.Settings) {
	if c.player == nil || !c.player.Available() {
		c.warnLocked(events.AudioUnavailable, audio.ErrAudioUnavailable)
		return
	}
	c.playSeq++
	seq := c.playSeq
	d, err := c.player.Play(c.current.Text, audioParams(settings), func() {
		c.playbackDone(seq)
	})
	if err != nil {
		c.warnLocked(events.AudioUnavailable, err)
		return
	}
	c.setStateLocked(Playing)
	c.emit(events.PlaybackStarted{Text: c.current.Text, Duration: d})
}

func audioParams(s state.Settings) audio.Params {
	return audio.Params{
		WPM:           s.WPM,
		FarnsworthWPM: s.FarnsworthWPM,
		Frequency:     float64(s.Frequency),
		Volume:        s.Volume,
	}
}

// playbackDone is the scheduler's completion callback.
func (c *Controller) playbackDone(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.playSeq || c.state != Playing {
		return
	}
	c.hasPlayed = true
	c.emit(events.PlaybackEnded{})
	c.setStateLocked(AwaitingInput)
}

// Replay plays the current challenge again.
func (c *Controller) Replay() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent {
		return ErrNoChallenge
	}
	if c.autoTimer != nil {
		c.autoTimer.Stop()
		c.autoTimer = nil
	}
	c.stopAudioLocked()
	c.playLocked(c.store.Settings())
	return nil
}

// MarkPlayed declares the current challenge heard without playback, for
// when audio is unavailable. It reports whether input is now accepted.
func (c *Controller) MarkPlayed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent || c.state == Playing {
		return false
	}
	if c.state == AwaitingInput {
		return true
	}
	c.hasPlayed = true
	c.setStateLocked(AwaitingInput)
	return true
}

// Stop cancels playback, pending auto-play and any in-flight generation and
// returns to IDLE. It is idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	from := c.state
	c.state = s
	c.emit(events.StateChanged{From: from.String(), To: s.String()})
}

func (c *Controller) emit(e events.Event) {
	c.events.Emit(e)
}

// warnLocked logs a recoverable error and emits it as a warning.
func (c *Controller) warnLocked(kind events.Kind, err error) {
	c.log.Warn("session", zap.String("kind", string(kind)), zap.Error(err))
	c.emit(events.Warning{Kind: kind, Message: err.Error()})
}

// armAutoPlayLocked schedules the next generation after a correct answer.
// Caller holds mu.
func (c *Controller) armAutoPlayLocked() {
	epoch := c.epoch
	c.autoTimer = c.timers.AfterFunc(c.delay, func() {
		defer recovery.Guard(c.log, "auto play")
		err := c.generate(context.Background(), func() bool {
			return c.epoch == epoch && c.state == Judged
		})
		if err != nil && !errors.Is(err, ErrSuperseded) {
			c.log.Warn("auto play", zap.Error(err))
		}
	})
}
