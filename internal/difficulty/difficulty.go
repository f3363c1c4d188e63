// internal/difficulty/difficulty.go
// Package difficulty scores challenges on a 1-10 scale and recommends the
// next difficulty from recent accuracy.
package difficulty

import (
	"math"
	"strings"

	"github.com/ColonelBlimp/kochtrainer/internal/cw"
)

// Scale bounds and named levels
const (
	Min      = 1
	Max      = 10
	Moderate = 5
)

// Score contributions
const (
	// LongWordLength is the length of a single space-free word that counts as long
	LongWordLength = 8
	// ShortTextLength is the total length at or below which a challenge counts as short
	ShortTextLength = 3
	// ComplexPatternAvg is the average pattern length above which characters count as complex
	ComplexPatternAvg = 5.0
	// SimplePatternAvg is the average pattern length below which characters count as simple
	SimplePatternAvg = 3.0
)

// Recommendation thresholds that do not depend on the preset
const (
	// GoodThreshold is the accuracy ratio for a mild increase
	GoodThreshold = 0.75
	// FairThreshold is the accuracy ratio that keeps the current difficulty
	FairThreshold = 0.60
)

// NoNewChar is the lessonsSinceNewChar value meaning "no recent new character".
const NoNewChar = math.MaxInt

// WeakChecker reports whether a character is currently weak.
type WeakChecker interface {
	IsWeak(char rune) bool
}

// Allowed reports whether a character is unlocked.
type Allowed interface {
	Contains(r rune) bool
}

// Calculator scores challenges with the thresholds of one preset.
type Calculator struct {
	preset Preset
	weak   WeakChecker
}

// NewCalculator returns a calculator using preset and the weak-character source.
// weak may be nil, in which case no character counts as weak.
func NewCalculator(preset Preset, weak WeakChecker) *Calculator {
	return &Calculator{preset: preset, weak: weak}
}

// Preset returns the active preset.
func (c *Calculator) Preset() Preset {
	return c.preset
}

// ChallengeDifficulty scores text starting from Moderate and clamps to [Min, Max].
// Characters outside unlocked or without a Morse pattern are ignored by the
// complexity term. Pass NoNewChar when no character was introduced recently.
func (c *Calculator) ChallengeDifficulty(text string, unlocked Allowed, lessonsSinceNewChar int) int {
	score := Moderate
	score += shapeScore(text)
	score += c.weakScore(text)
	if lessonsSinceNewChar < c.preset.NewCharGrace {
		score -= 2
	}
	score += complexityScore(text, unlocked)
	return clamp(score)
}

func shapeScore(text string) int {
	words := strings.Fields(text)
	chars := 0
	for _, w := range words {
		chars += len([]rune(w))
	}
	switch {
	case len(words) == 1 && chars >= LongWordLength:
		return 2
	case len(words) > 1 || chars <= ShortTextLength:
		return -1
	default:
		return 0
	}
}

func (c *Calculator) weakScore(text string) int {
	if c.weak == nil {
		return 0
	}
	for _, r := range text {
		if r != ' ' && c.weak.IsWeak(r) {
			return -1
		}
	}
	return 0
}

func complexityScore(text string, unlocked Allowed) int {
	total, count := 0, 0
	for _, r := range text {
		n := cw.PatternLength(r)
		if n == 0 {
			continue
		}
		if unlocked != nil && !unlocked.Contains(r) {
			continue
		}
		total += n
		count++
	}
	if count == 0 {
		return 0
	}
	avg := float64(total) / float64(count)
	switch {
	case avg > ComplexPatternAvg:
		return 1
	case avg < SimplePatternAvg:
		return -1
	default:
		return 0
	}
}

// Recommended returns the next difficulty for currentDiff given accuracyPct
// (0-100). Thresholds compare with >=, so an accuracy exactly on a boundary
// takes the branch of that boundary. The result stays in [Min, Max].
func (c *Calculator) Recommended(currentDiff float64, accuracyPct float64) float64 {
	switch {
	case accuracyPct >= c.preset.ExcellentThreshold*100:
		return math.Min(Max, currentDiff*1.2)
	case accuracyPct >= GoodThreshold*100:
		return math.Min(Max, currentDiff*1.1)
	case accuracyPct >= FairThreshold*100:
		return currentDiff
	case accuracyPct >= c.preset.PoorThreshold*100:
		return currentDiff
	default:
		return math.Max(Min, currentDiff*0.8)
	}
}

func clamp(score int) int {
	if score < Min {
		return Min
	}
	if score > Max {
		return Max
	}
	return score
}
