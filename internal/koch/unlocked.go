// internal/koch/unlocked.go
package koch

import "strings"

// UnlockedSet is the alphabet the content engine may emit: the first
// LessonLevel characters of the sequence plus the manual overrides.
// The zero value allows nothing.
type UnlockedSet struct {
	level   int
	allowed [len(Sequence)]bool
	runes   []rune
}

// Unlocked computes the unlocked set for level and manual overrides.
// Manual characters that are not in the sequence are ignored.
func Unlocked(level int, manual []rune) UnlockedSet {
	level = ClampLevel(level)
	set := UnlockedSet{level: level}
	for i := 0; i < level; i++ {
		set.allowed[i] = true
	}
	for _, r := range manual {
		if idx := Index(r); idx >= 0 {
			set.allowed[idx] = true
		}
	}
	for i, ok := range set.allowed {
		if ok {
			set.runes = append(set.runes, CharAt(i))
		}
	}
	return set
}

// Level returns the lesson level the set was built from.
func (u UnlockedSet) Level() int {
	return u.level
}

// Contains reports whether r may be emitted.
func (u UnlockedSet) Contains(r rune) bool {
	idx := Index(r)
	return idx >= 0 && u.allowed[idx]
}

// Runes returns the unlocked characters in Koch order. The slice is a copy.
func (u UnlockedSet) Runes() []rune {
	return append([]rune(nil), u.runes...)
}

// Len returns the number of unlocked characters.
func (u UnlockedSet) Len() int {
	return len(u.runes)
}

// Pick returns the i-th unlocked character in Koch order.
func (u UnlockedSet) Pick(i int) rune {
	return u.runes[i]
}

// Allows reports whether every non-space character of text is unlocked.
func (u UnlockedSet) Allows(text string) bool {
	for _, r := range text {
		if r == ' ' {
			continue
		}
		if !u.Contains(r) {
			return false
		}
	}
	return true
}

// String returns the unlocked characters in Koch order.
func (u UnlockedSet) String() string {
	var b strings.Builder
	for _, r := range u.runes {
		b.WriteRune(r)
	}
	return b.String()
}
