// internal/content/item.go
// Package content produces training challenges that never leave the
// learner's unlocked character set.
package content

import (
	"strings"

	"github.com/ColonelBlimp/kochtrainer/internal/koch"
)

// ItemKind tags a curated content item.
type ItemKind int

const (
	// KindWord is a plain dictionary word without meaning
	KindWord ItemKind = iota
	// KindCoded is an abbreviation or Q-code carrying a meaning
	KindCoded
	// KindPhrase is a canned multi-word phrase
	KindPhrase
)

// Item is one curated content entry.
type Item struct {
	Kind    ItemKind
	Text    string
	Meaning string
}

// Word returns a word item.
func Word(text string) Item { return Item{Kind: KindWord, Text: text} }

// Coded returns an abbreviation or Q-code item.
func Coded(code, meaning string) Item { return Item{Kind: KindCoded, Text: code, Meaning: meaning} }

// Phrase returns a phrase item. Meaning is optional.
func Phrase(text, meaning string) Item { return Item{Kind: KindPhrase, Text: text, Meaning: meaning} }

// Pool names
const (
	PoolWords   = "words"
	PoolAbbrs   = "abbrs"
	PoolQCodes  = "qcodes"
	PoolPhrases = "phrases"
)

// CallPlaceholder is replaced by the learner's callsign in phrase templates.
const CallPlaceholder = "{CALL}"

// Pool is a named list of items.
type Pool struct {
	Name  string
	Items []Item
}

// Filter returns the items whose text is allowed by set. Phrase templates are
// expanded with callsign first; templates are dropped when callsign is empty.
func (p Pool) Filter(set koch.UnlockedSet, callsign string) []Item {
	var out []Item
	for _, it := range p.Items {
		text := it.Text
		if strings.Contains(text, CallPlaceholder) {
			if callsign == "" {
				continue
			}
			text = strings.ReplaceAll(text, CallPlaceholder, callsign)
		}
		text = Normalize(text)
		if text == "" || !set.Allows(text) {
			continue
		}
		it.Text = text
		out = append(out, it)
	}
	return out
}

// Challenge is one piece of content to copy.
type Challenge struct {
	// Text is uppercase, single-spaced and trimmed
	Text string `json:"text"`
	// Meaning explains coded content or labels its origin
	Meaning string `json:"meaning,omitempty"`
	// Difficulty is set by the session from the difficulty calculator (1..10)
	Difficulty int `json:"difficulty"`
	// Source names the generator path that produced the text
	Source string `json:"-"`
}

// Challenge sources
const (
	SourceCurated         = "curated"
	SourceSynthetic       = "synthetic"
	SourceBroadcast       = "broadcast"
	SourceCoach           = "coach"
	SourceExternal        = "external"
	SourceExternalCoach   = "external-coach"
	SourceBroadcastWeak   = "broadcast-synthetic"
	LabelWeakSignal       = "Weak Signal (Synthetic)"
	LabelCoachOffline     = "Smart Coach (Offline)"
	LabelBroadcastOffline = "Broadcast (Offline)"
	LabelAIBroadcast      = "AI Broadcast"
	LabelAICoach          = "Smart Coach (AI)"
)

// Normalize uppercases text, collapses whitespace runs to one space and trims.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToUpper(text)), " ")
}

// newChallenge is the only way the generator builds a Challenge. It refuses
// text that is empty or contains a character outside set.
func newChallenge(set koch.UnlockedSet, text, meaning, source string) (Challenge, bool) {
	text = Normalize(text)
	if text == "" || !set.Allows(text) {
		return Challenge{}, false
	}
	return Challenge{Text: text, Meaning: meaning, Source: source}, true
}
