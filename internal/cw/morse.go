// internal/cw/morse.go
// Package cw holds the Morse code table and the ITU/Farnsworth timing model.
package cw

import (
	"errors"
	"strings"
)

// Morse code timing ratios (ITU standard)
// These are fixed ratios defined by the International Telecommunication Union
const (
	// DahDitRatio is the ratio of dah duration to dit duration (ITU: 3:1)
	DahDitRatio = 3.0
	// IntraCharSpaceRatio is the ratio of space between elements within a character to dit (ITU: 1:1)
	IntraCharSpaceRatio = 1.0
	// InterCharSpaceRatio is the ratio of space between characters to dit (ITU: 3:1)
	InterCharSpaceRatio = 3.0
	// WordSpaceRatio is the ratio of space between words to dit (ITU: 7:1)
	WordSpaceRatio = 7.0

	// SecondsPerDitAtOneWPM is the dit length in seconds at 1 WPM ("PARIS" = 50 dits per word)
	SecondsPerDitAtOneWPM = 1.2
)

var (
	// ErrInvalidWPM indicates WPM must be positive
	ErrInvalidWPM = errors.New("WPM must be positive")
	// ErrInvalidFarnsworthWPM indicates Farnsworth WPM must not exceed character WPM
	ErrInvalidFarnsworthWPM = errors.New("farnsworth WPM must be positive and not exceed character WPM")
)

// Symbol is a single Morse element.
type Symbol byte

const (
	// Dot is the short element (dit)
	Dot Symbol = '.'
	// Dash is the long element (dah)
	Dash Symbol = '-'
)

// Alphabet is the fixed set of encodable characters: 26 letters, 10 digits and . , / ?
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,/?"

// table maps an ASCII byte to its pattern. Empty string means not encodable.
// Indexed directly so Lookup is O(1) and allocation-free.
var table = [128]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'.': ".-.-.-", ',': "--..--", '/': "-..-.", '?': "..--..",
}

// Lookup returns the dot/dash pattern for r. The second result is false when
// r is not encodable (whitespace, lowercase, unknown punctuation).
func Lookup(r rune) (string, bool) {
	if r < 0 || r >= rune(len(table)) {
		return "", false
	}
	p := table[r]
	return p, p != ""
}

// Encodable reports whether r has a Morse pattern.
func Encodable(r rune) bool {
	_, ok := Lookup(r)
	return ok
}

// PatternLength returns the number of elements in r's pattern, 0 if not encodable.
func PatternLength(r rune) int {
	p, _ := Lookup(r)
	return len(p)
}

// Encode renders text as space-separated patterns with " / " between words.
// Characters without a pattern are dropped.
func Encode(text string) string {
	words := strings.Fields(strings.ToUpper(text))
	out := make([]string, 0, len(words))
	for _, word := range words {
		var codes []string
		for _, r := range word {
			if p, ok := Lookup(r); ok {
				codes = append(codes, p)
			}
		}
		if len(codes) > 0 {
			out = append(out, strings.Join(codes, " "))
		}
	}
	return strings.Join(out, " / ")
}
