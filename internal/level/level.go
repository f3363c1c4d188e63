// internal/level/level.go
// Package level decides automatic lesson level changes from the recent
// submission history.
package level

import (
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
)

const (
	// AccuracyThreshold is the history length below which nothing is decided
	AccuracyThreshold = 15
	// HistoryWindow is the base window size; the evaluated window is HistoryWindow + 10
	HistoryWindow = 5
	// Window is the number of most recent entries evaluated
	Window = HistoryWindow + 10
	// LevelUpAccuracy is the window accuracy (percent) that raises the level
	LevelUpAccuracy = 90
	// LevelDownAccuracy is the window accuracy (percent) below which the level drops
	LevelDownAccuracy = 60
)

// Input is a read-only view of what the controller needs.
type Input struct {
	// History holds correctness flags, most recent first
	History   []bool
	Level     int
	Manual    []rune
	AutoLevel bool
}

// Change describes a level transition.
type Change struct {
	From int
	To   int
	Auto bool
}

// Up reports whether the change raises the level.
func (c Change) Up() bool {
	return c.To > c.From
}

// Evaluate is called once per submission, after the entry was added to
// History. Every call with autoLevel on and at least AccuracyThreshold
// entries judges the most recent Window entries. It returns the automatic
// change to apply, if any.
func Evaluate(in Input) (Change, bool) {
	if !in.AutoLevel || len(in.History) < AccuracyThreshold {
		return Change{}, false
	}

	pct := WindowAccuracy(in.History)
	level := koch.ClampLevel(in.Level)
	switch {
	case pct >= LevelUpAccuracy && level < koch.MaxLevel:
		return Change{From: level, To: koch.NextLevel(level, in.Manual), Auto: true}, true
	case pct < LevelDownAccuracy && level > koch.MinLevel:
		return Change{From: level, To: koch.PrevLevel(level), Auto: true}, true
	}
	return Change{}, false
}

// WindowAccuracy returns the percentage of correct entries among the most
// recent Window entries of history (most recent first).
func WindowAccuracy(history []bool) float64 {
	n := len(history)
	if n > Window {
		n = Window
	}
	if n == 0 {
		return 0
	}
	correct := 0
	for _, ok := range history[:n] {
		if ok {
			correct++
		}
	}
	return float64(correct*100) / float64(n)
}

// Next is the manual level:next control. It follows the same skip rule as
// automatic level-ups.
func Next(level int, manual []rune) Change {
	level = koch.ClampLevel(level)
	return Change{From: level, To: koch.NextLevel(level, manual)}
}

// Prev is the manual level:prev control.
func Prev(level int) Change {
	level = koch.ClampLevel(level)
	return Change{From: level, To: koch.PrevLevel(level)}
}
