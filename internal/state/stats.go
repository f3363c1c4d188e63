// internal/state/stats.go
package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/accuracy"
	"github.com/ColonelBlimp/kochtrainer/internal/cw"
)

// HistoryLimit is the maximum number of history entries kept
const HistoryLimit = 100

// DateLayout is the day bucket format of SessionMetrics.LastSessionDate
const DateLayout = "2006-01-02"

// HistoryEntry is one judged submission.
type HistoryEntry struct {
	Challenge   string `json:"challenge"`
	UserInput   string `json:"userInput"`
	Correct     bool   `json:"correct"`
	TimestampMs int64  `json:"timestamp"`
}

// SessionMetrics summarize the current day of practice.
type SessionMetrics struct {
	ChallengesInSession  int                `json:"challengesInSession"`
	LastSessionDate      string             `json:"lastSessionDate"`
	WeakCharsFocused     Chars              `json:"weakCharsFocused"`
	SessionStartAccuracy map[string]float64 `json:"sessionStartAccuracy"`
}

// Stats are the learner's persisted results.
type Stats struct {
	History        []HistoryEntry    `json:"history"`
	Accuracy       *accuracy.Tracker `json:"accuracy"`
	SessionMetrics SessionMetrics    `json:"sessionMetrics"`
}

// DefaultStats returns empty stats.
func DefaultStats() Stats {
	return Stats{
		History:  []HistoryEntry{},
		Accuracy: accuracy.NewTracker(),
		SessionMetrics: SessionMetrics{
			WeakCharsFocused:     Chars{},
			SessionStartAccuracy: map[string]float64{},
		},
	}
}

// Clone returns a deep copy.
func (s Stats) Clone() Stats {
	cp := Stats{
		History:        append([]HistoryEntry{}, s.History...),
		SessionMetrics: s.SessionMetrics,
	}
	if s.Accuracy != nil {
		cp.Accuracy = s.Accuracy.Clone()
	} else {
		cp.Accuracy = accuracy.NewTracker()
	}
	cp.SessionMetrics.WeakCharsFocused = append(Chars{}, s.SessionMetrics.WeakCharsFocused...)
	cp.SessionMetrics.SessionStartAccuracy = make(map[string]float64, len(s.SessionMetrics.SessionStartAccuracy))
	for k, v := range s.SessionMetrics.SessionStartAccuracy {
		cp.SessionMetrics.SessionStartAccuracy[k] = v
	}
	return cp
}

// Flags returns the correctness of each history entry, most recent first.
func (s Stats) Flags() []bool {
	out := make([]bool, len(s.History))
	for i, h := range s.History {
		out[i] = h.Correct
	}
	return out
}

// Submission is one judged answer to record.
type Submission struct {
	Challenge string
	UserInput string
	Correct   bool
	At        time.Time
}

// record applies the accuracy, history and session metric side effects of
// one submission.
func (s *Stats) record(sub Submission) {
	if s.Accuracy == nil {
		s.Accuracy = accuracy.NewTracker()
	}

	day := sub.At.Format(DateLayout)
	m := &s.SessionMetrics
	if m.LastSessionDate != day {
		m.LastSessionDate = day
		m.ChallengesInSession = 0
		m.WeakCharsFocused = Chars{}
		m.SessionStartAccuracy = s.Accuracy.Snapshot()
	}

	chars := scoredChars(sub.Challenge)
	for _, r := range chars {
		if s.Accuracy.IsWeak(r) && !containsRune(m.WeakCharsFocused, r) {
			m.WeakCharsFocused = append(m.WeakCharsFocused, r)
		}
	}
	for _, r := range chars {
		s.Accuracy.RecordAttempt(r, sub.Correct)
	}

	entry := HistoryEntry{
		Challenge:   sub.Challenge,
		UserInput:   sub.UserInput,
		Correct:     sub.Correct,
		TimestampMs: sub.At.UnixMilli(),
	}
	s.History = append([]HistoryEntry{entry}, s.History...)
	if len(s.History) > HistoryLimit {
		s.History = s.History[:HistoryLimit]
	}
	m.ChallengesInSession++
}

// scoredChars returns the distinct characters of text that have a Morse
// pattern, in order of first appearance.
func scoredChars(text string) []rune {
	var out []rune
	for _, r := range strings.ToUpper(text) {
		if cw.Encodable(r) && !containsRune(out, r) {
			out = append(out, r)
		}
	}
	return out
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

// decodeStats parses a persisted stats blob. An accuracy section of the
// wrong shape yields the remaining stats with an empty tracker and an error
// wrapping accuracy.ErrInvalidShape.
func decodeStats(raw string) (Stats, error) {
	var wire struct {
		History        []HistoryEntry  `json:"history"`
		Accuracy       json.RawMessage `json:"accuracy"`
		SessionMetrics SessionMetrics  `json:"sessionMetrics"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}

	st := DefaultStats()
	if wire.History != nil {
		st.History = wire.History
	}
	if len(st.History) > HistoryLimit {
		st.History = st.History[:HistoryLimit]
	}
	st.SessionMetrics = wire.SessionMetrics
	if st.SessionMetrics.WeakCharsFocused == nil {
		st.SessionMetrics.WeakCharsFocused = Chars{}
	}
	if st.SessionMetrics.SessionStartAccuracy == nil {
		st.SessionMetrics.SessionStartAccuracy = map[string]float64{}
	}

	if len(wire.Accuracy) > 0 && string(wire.Accuracy) != "null" {
		tracker := accuracy.NewTracker()
		if err := tracker.UnmarshalJSON(wire.Accuracy); err != nil {
			return st, fmt.Errorf("decode accuracy: %w", err)
		}
		st.Accuracy = tracker
	}
	return st, nil
}
