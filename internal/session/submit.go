// internal/session/submit.go
package session

import (
	"context"
	"strings"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/difficulty"
	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
	"github.com/ColonelBlimp/kochtrainer/internal/level"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
)

// Judgement is the outcome of one submission.
type Judgement struct {
	IsCorrect     bool
	CorrectAnswer string
	UserAnswer    string
	// Level is set when the submission changed the lesson level
	Level *level.Change
}

// CheckAnswer judges input against the current challenge. It only acts in
// AWAITING_INPUT after the challenge was played; otherwise it returns false
// and changes nothing. The comparison ignores case and surrounding space.
func (c *Controller) CheckAnswer(input string) (Judgement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingInput || !c.hasPlayed || !c.hasCurrent {
		return Judgement{}, false
	}

	answer := strings.ToUpper(strings.TrimSpace(input))
	j := Judgement{
		IsCorrect:     answer == c.current.Text,
		CorrectAnswer: c.current.Text,
		UserAnswer:    answer,
	}
	at := c.now()

	c.store.Record(state.Submission{
		Challenge: j.CorrectAnswer,
		UserInput: j.UserAnswer,
		Correct:   j.IsCorrect,
		At:        at,
	})
	if c.lessonsSinceNewChar < difficulty.NoNewChar {
		c.lessonsSinceNewChar++
	}
	c.archiveLocked(j, at)

	settings := c.store.Settings()
	change, changed := level.Evaluate(level.Input{
		History:   c.store.Stats().Flags(),
		Level:     settings.LessonLevel,
		Manual:    settings.ManualChars,
		AutoLevel: settings.AutoLevel,
	})
	_ = c.store.SaveStats()

	c.setStateLocked(Judged)
	c.emit(events.AnswerJudged{
		IsCorrect:     j.IsCorrect,
		CorrectAnswer: j.CorrectAnswer,
		UserAnswer:    j.UserAnswer,
	})
	c.refreshWeakLocked()

	if changed {
		c.applyLevelLocked(change)
		j.Level = &change
		if change.Up() {
			c.jingleLocked(settings.Volume)
		}
	}

	if j.IsCorrect && settings.AutoPlay {
		c.armAutoPlayLocked()
	} else {
		c.setStateLocked(Idle)
	}
	return j, true
}

func (c *Controller) archiveLocked(j Judgement, at time.Time) {
	if c.archive == nil {
		return
	}
	err := c.archive.AppendAttempt(context.Background(), storage.Attempt{
		SessionID: c.sessionID,
		At:        at,
		Challenge: j.CorrectAnswer,
		Input:     j.UserAnswer,
		Correct:   j.IsCorrect,
		Level:     c.store.Settings().LessonLevel,
	})
	if err != nil {
		c.warnLocked(events.StorageSave, err)
	}
}

// refreshWeakLocked emits WeakCharsUpdated when the weak set changed.
// Caller holds mu.
func (c *Controller) refreshWeakLocked() {
	weak := c.store.WeakCharacters()
	if string(weak) == string(c.weak) {
		return
	}
	c.weak = weak
	c.emit(events.WeakCharsUpdated{Chars: append([]rune(nil), weak...)})
}

// applyLevelLocked stores a level change, drops queued challenges built for
// the old unlocked set and emits LevelChanged. Caller holds mu.
func (c *Controller) applyLevelLocked(change level.Change) {
	c.store.SetLevel(change.To)
	c.queue = nil
	if change.Up() {
		c.lessonsSinceNewChar = 0
	}
	c.emit(events.LevelChanged{From: change.From, To: change.To, Auto: change.Auto})
}

func (c *Controller) jingleLocked(volume float64) {
	if c.player == nil || !c.player.Available() {
		return
	}
	c.playSeq++
	if err := c.player.PlayJingle(volume); err != nil {
		c.warnLocked(events.AudioUnavailable, err)
		return
	}
	c.emit(events.JinglePlayed{})
}

// LevelNext raises the level by one manual step, skipping characters that
// are already forced on. It reports whether the level changed.
func (c *Controller) LevelNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.store.Settings()
	return c.manualLevelLocked(level.Next(s.LessonLevel, s.ManualChars))
}

// LevelPrev lowers the level by one. It reports whether the level changed.
func (c *Controller) LevelPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manualLevelLocked(level.Prev(c.store.Settings().LessonLevel))
}

func (c *Controller) manualLevelLocked(change level.Change) bool {
	if change.To == change.From {
		return false
	}
	c.applyLevelLocked(change)
	return true
}

// UpdateSetting forwards to the state store. Changes to the lesson level or
// manual characters reshape the unlocked set, so the queue is dropped.
func (c *Controller) UpdateSetting(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.store.Settings()
	if err := c.store.UpdateSetting(key, value); err != nil {
		return err
	}
	after := c.store.Settings()

	switch {
	case after.LessonLevel != before.LessonLevel:
		change := level.Change{From: before.LessonLevel, To: after.LessonLevel}
		c.applyLevelLocked(change)
	case string(after.ManualChars) != string(before.ManualChars):
		c.queue = nil
		if len(after.ManualChars) > len(before.ManualChars) {
			c.lessonsSinceNewChar = 0
		}
	}
	return nil
}

// WipeStats clears stats and the attempts archive.
func (c *Controller) WipeStats(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.WipeStats(); err != nil {
		return err
	}
	if c.archive != nil {
		if err := c.archive.ClearAttempts(ctx); err != nil {
			c.warnLocked(events.StorageSave, err)
			return err
		}
	}
	c.refreshWeakLocked()
	return nil
}

// Unlocked returns the current unlocked set.
func (c *Controller) Unlocked() koch.UnlockedSet {
	return c.store.Unlocked()
}
