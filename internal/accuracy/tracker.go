// internal/accuracy/tracker.go
// Package accuracy tracks per-character copy accuracy and derives weak characters.
package accuracy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Weak-character and categorization thresholds
const (
	// WeakAccThreshold is the accuracy below which a character is weak
	WeakAccThreshold = 0.7
	// WeakMinAttempts is the attempt count a character must exceed before it can be weak
	WeakMinAttempts = 2

	// CategoryWeakBelow is the upper bound (exclusive) of the weak category
	CategoryWeakBelow = 0.60
	// CategoryModerateBelow is the upper bound (exclusive) of the moderate category
	CategoryModerateBelow = 0.85
	// StrongMinAttempts is the attempt count required for a strong classification
	StrongMinAttempts = 3
)

// ErrInvalidShape indicates a serialized tracker that does not decode into
// {char: {correct, total}} or breaks correct <= total.
var ErrInvalidShape = errors.New("invalid accuracy record shape")

// Record is the running tally for one character.
type Record struct {
	Correct uint32 `json:"correct"`
	Total   uint32 `json:"total"`
}

// Ratio returns Correct/Total, 0 when nothing was recorded.
func (r Record) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Tracker holds accuracy records keyed by character. Records are created
// lazily on first observation. Not safe for concurrent use; the state store
// serializes access.
type Tracker struct {
	records map[rune]Record
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[rune]Record)}
}

// RecordAttempt counts one attempt at char, and a correct copy if isCorrect.
func (t *Tracker) RecordAttempt(char rune, isCorrect bool) {
	rec := t.records[char]
	rec.Total++
	if isCorrect {
		rec.Correct++
	}
	t.records[char] = rec
}

// Get returns the record for char and whether it exists.
func (t *Tracker) Get(char rune) (Record, bool) {
	rec, ok := t.records[char]
	return rec, ok
}

// Len returns the number of tracked characters.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Chars returns the tracked characters in ascending order.
func (t *Tracker) Chars() []rune {
	out := make([]rune, 0, len(t.records))
	for r := range t.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccuracyPct returns round(correct/total*100), 0 when total is 0.
func (t *Tracker) AccuracyPct(char rune) int {
	rec, ok := t.records[char]
	if !ok || rec.Total == 0 {
		return 0
	}
	return int(math.Round(rec.Ratio() * 100))
}

// OverallAccuracyPct aggregates correct and total across every character.
func (t *Tracker) OverallAccuracyPct() int {
	var correct, total uint64
	for _, rec := range t.records {
		correct += uint64(rec.Correct)
		total += uint64(rec.Total)
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// WeakCharacters returns characters with total > minAttempts and accuracy
// below thresholdAcc, in ascending order.
func (t *Tracker) WeakCharacters(thresholdAcc float64, minAttempts uint32) []rune {
	var out []rune
	for _, r := range t.Chars() {
		rec := t.records[r]
		if rec.Total > minAttempts && rec.Ratio() < thresholdAcc {
			out = append(out, r)
		}
	}
	return out
}

// Weak returns WeakCharacters with the default thresholds.
func (t *Tracker) Weak() []rune {
	return t.WeakCharacters(WeakAccThreshold, WeakMinAttempts)
}

// IsWeak reports whether char is weak under the default thresholds.
func (t *Tracker) IsWeak(char rune) bool {
	rec, ok := t.records[char]
	return ok && rec.Total > WeakMinAttempts && rec.Ratio() < WeakAccThreshold
}

// Categories partitions characters by accuracy.
type Categories struct {
	Weak     []rune
	Moderate []rune
	Strong   []rune
}

// Categorize partitions chars into weak (<60%), moderate (<85%) and strong
// (>=85% with at least StrongMinAttempts attempts). Characters reaching the
// strong ratio with fewer attempts are reported as moderate; untracked
// characters count as 0% and land in weak.
func (t *Tracker) Categorize(chars []rune) Categories {
	var c Categories
	for _, r := range chars {
		rec := t.records[r]
		ratio := rec.Ratio()
		switch {
		case ratio < CategoryWeakBelow:
			c.Weak = append(c.Weak, r)
		case ratio < CategoryModerateBelow:
			c.Moderate = append(c.Moderate, r)
		case rec.Total >= StrongMinAttempts:
			c.Strong = append(c.Strong, r)
		default:
			c.Moderate = append(c.Moderate, r)
		}
	}
	return c
}

// Snapshot returns each character's ratio, used for session start snapshots.
func (t *Tracker) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(t.records))
	for r, rec := range t.records {
		out[string(r)] = rec.Ratio()
	}
	return out
}

// Reset wipes every record.
func (t *Tracker) Reset() {
	t.records = make(map[rune]Record)
}

// Clone returns a deep copy.
func (t *Tracker) Clone() *Tracker {
	cp := NewTracker()
	for r, rec := range t.records {
		cp.records[r] = rec
	}
	return cp
}

// Map returns the plain {char: record} mapping used for persistence.
func (t *Tracker) Map() map[string]Record {
	out := make(map[string]Record, len(t.records))
	for r, rec := range t.records {
		out[string(r)] = rec
	}
	return out
}

// FromMap restores a tracker from the persisted mapping. Keys must be a
// single character and every record must satisfy correct <= total.
func FromMap(m map[string]Record) (*Tracker, error) {
	t := NewTracker()
	for key, rec := range m {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			return nil, fmt.Errorf("%w: key %q", ErrInvalidShape, key)
		}
		if rec.Correct > rec.Total {
			return nil, fmt.Errorf("%w: %q correct %d > total %d", ErrInvalidShape, key, rec.Correct, rec.Total)
		}
		t.records[r] = rec
	}
	return t, nil
}

// MarshalJSON emits {char: {correct, total}}.
func (t *Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (t *Tracker) UnmarshalJSON(data []byte) error {
	var m map[string]Record
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	restored, err := FromMap(m)
	if err != nil {
		return err
	}
	t.records = restored.records
	return nil
}
