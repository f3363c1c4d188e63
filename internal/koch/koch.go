// internal/koch/koch.go
// Package koch defines the Koch teaching order, lesson levels and the
// unlocked character set derived from them.
package koch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ColonelBlimp/kochtrainer/internal/cw"
)

// Sequence is the Koch teaching order. Position in the string is the
// character's Koch index.
const Sequence = "KMURESNAPTLWI.JZFOY,VG5/Q92H38B?47C1D60X"

const (
	// MinLevel is the smallest lesson level (two characters unlocked)
	MinLevel = 2
	// MaxLevel is the largest lesson level (whole sequence unlocked)
	MaxLevel = len(Sequence)
)

var (
	// ErrLevelOutOfRange indicates a lesson level outside [MinLevel, MaxLevel]
	ErrLevelOutOfRange = errors.New("lesson level out of range")
	// ErrNotInSequence indicates a character that is not part of the Koch sequence
	ErrNotInSequence = errors.New("character is not in the Koch sequence")
	// ErrAlreadyUnlocked indicates a manual character already covered by the lesson level
	ErrAlreadyUnlocked = errors.New("character is already unlocked by the lesson level")
)

// index maps an ASCII byte to its Koch index + 1 (0 = not in sequence).
var index [128]uint8

func init() {
	for i := 0; i < len(Sequence); i++ {
		index[Sequence[i]] = uint8(i + 1)
	}
	if len(Sequence) != len(cw.Alphabet) {
		panic("koch: sequence does not cover the Morse alphabet")
	}
}

// Index returns the Koch index of r, or -1 if r is not in the sequence.
func Index(r rune) int {
	if r < 0 || r >= rune(len(index)) {
		return -1
	}
	return int(index[r]) - 1
}

// ClampLevel forces level into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ValidLevel reports whether level is in range.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// CharAt returns the character at Koch position i (0-based).
func CharAt(i int) rune {
	return rune(Sequence[i])
}

// ByLevel returns the first level characters of the sequence.
func ByLevel(level int) []rune {
	level = ClampLevel(level)
	return []rune(Sequence[:level])
}

// ValidateManual checks that every manual character is in the sequence and
// not already unlocked by level.
func ValidateManual(level int, manual []rune) error {
	for _, r := range manual {
		idx := Index(r)
		if idx < 0 {
			return fmt.Errorf("%w: %q", ErrNotInSequence, r)
		}
		if idx < level {
			return fmt.Errorf("%w: %q at level %d", ErrAlreadyUnlocked, r, level)
		}
	}
	return nil
}

// PruneManual returns manual without characters that level already unlocks
// or that are not in the sequence. Order follows the Koch sequence and
// duplicates are removed.
func PruneManual(level int, manual []rune) []rune {
	var keep [len(Sequence)]bool
	for _, r := range manual {
		if idx := Index(r); idx >= level {
			keep[idx] = true
		}
	}
	out := make([]rune, 0, len(manual))
	for i, ok := range keep {
		if ok {
			out = append(out, CharAt(i))
		}
	}
	return out
}

// NextLevel returns the level reached by one upward step from level. Characters
// already forced on through manual are skipped: the step keeps advancing until
// the newly unlocked character is not in manual. The result never exceeds MaxLevel.
func NextLevel(level int, manual []rune) int {
	level = ClampLevel(level)
	if level >= MaxLevel {
		return MaxLevel
	}
	in := make(map[rune]bool, len(manual))
	for _, r := range manual {
		in[r] = true
	}
	next := level + 1
	for next < MaxLevel && in[CharAt(next-1)] {
		next++
	}
	return next
}

// PrevLevel returns the level reached by one downward step, never below MinLevel.
func PrevLevel(level int) int {
	return ClampLevel(level - 1)
}

// FormatRunes renders a rune set as a sorted string, used for logging and prompts.
func FormatRunes(rs []rune) string {
	cp := append([]rune(nil), rs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	var b strings.Builder
	for _, r := range cp {
		b.WriteRune(r)
	}
	return b.String()
}
