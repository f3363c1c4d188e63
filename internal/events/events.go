// internal/events/events.go
// Package events defines what the training core reports to a UI shell.
package events

import "fmt"

// Kind identifies a recoverable error condition surfaced as a warning.
type Kind string

// Recoverable error kinds
const (
	StorageLoad        Kind = "STORAGE_LOAD"
	StorageSave        Kind = "STORAGE_SAVE"
	AudioUnavailable   Kind = "AUDIO_UNAVAILABLE"
	ExternalGenFailed  Kind = "EXTERNAL_GEN_FAILED"
	ExternalGenTimeout Kind = "EXTERNAL_GEN_TIMEOUT"
	ExternalGenInvalid Kind = "EXTERNAL_GEN_INVALID"
	InvalidSetting     Kind = "INVALID_SETTING"
	NotEncodableChar   Kind = "NOT_ENCODABLE_CHAR"
)

// Event is any message emitted by the core.
type Event interface {
	event()
}

// ChallengeGenerated is emitted when a new challenge becomes current.
type ChallengeGenerated struct {
	Text       string
	Meaning    string
	Difficulty int
	Source     string
}

// PlaybackStarted is emitted when the scheduler accepted a playback.
type PlaybackStarted struct {
	Text     string
	Duration float64
}

// PlaybackEnded is emitted when playback completed or was cancelled.
type PlaybackEnded struct {
	Cancelled bool
}

// AnswerJudged is emitted after a submission was compared.
type AnswerJudged struct {
	IsCorrect     bool
	CorrectAnswer string
	UserAnswer    string
}

// LevelChanged is emitted on any lesson level change.
type LevelChanged struct {
	From int
	To   int
	Auto bool
}

// Up reports whether the level increased.
func (e LevelChanged) Up() bool {
	return e.To > e.From
}

// WeakCharsUpdated is emitted when the weak-character set changed.
type WeakCharsUpdated struct {
	Chars []rune
}

// JinglePlayed is emitted when the level-up jingle was scheduled.
type JinglePlayed struct{}

// StateChanged is emitted on every session state transition.
type StateChanged struct {
	From string
	To   string
}

// Warning reports a recoverable error the UI should surface.
type Warning struct {
	Kind    Kind
	Message string
}

func (ChallengeGenerated) event() {}
func (PlaybackStarted) event()    {}
func (PlaybackEnded) event()      {}
func (AnswerJudged) event()       {}
func (LevelChanged) event()       {}
func (WeakCharsUpdated) event()   {}
func (JinglePlayed) event()       {}
func (StateChanged) event()       {}
func (Warning) event()            {}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Sink receives events. Emit is called while the core holds its lock: it
// must be non-blocking and fast, and must not call back into the core.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) {
	f(e)
}
