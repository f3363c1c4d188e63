// internal/content/generator.go
package content

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/koch"
)

const (
	// RealContentProbability is the chance of drawing from the curated pools
	// when at least one of them is available
	RealContentProbability = 0.7
	// SyntheticMinGroups is the minimum number of random groups
	SyntheticMinGroups = 2
	// SyntheticMaxGroups is the maximum number of random groups
	SyntheticMaxGroups = 3
	// SyntheticMinGroupLength is the minimum length of a random group
	SyntheticMinGroupLength = 1
	// SyntheticMaxGroupLength is the maximum length of a random group
	SyntheticMaxGroupLength = 4
	// CoachDrillGroups is the number of groups in a coach drill
	CoachDrillGroups = 3
	// CoachDrillGroupLength is the length of each coach drill group
	CoachDrillGroupLength = 4
	// BroadcastPartProbability is the chance of adding the abbreviation
	// prefix and, independently, the Q-code suffix to a broadcast
	BroadcastPartProbability = 0.5
)

// Generator produces challenges from the curated pools or synthetically.
// It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	pools []Pool
}

// NewGenerator creates a generator. A nil rnd is seeded from the clock and
// nil pools mean DefaultPools.
func NewGenerator(rnd *rand.Rand, pools []Pool) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if pools == nil {
		pools = DefaultPools()
	}
	return &Generator{rnd: rnd, pools: pools}
}

// Pools returns the generator's pools.
func (g *Generator) Pools() []Pool {
	return g.pools
}

// GenerateChallenge computes the unlocked set for level and manual and
// returns one challenge from it.
func (g *Generator) GenerateChallenge(level int, manual []rune, callsign string) Challenge {
	return g.Generate(koch.Unlocked(level, manual), callsign)
}

// Generate returns one challenge whose characters all lie in set. With
// probability RealContentProbability, and only when a filtered pool is
// non-empty, a uniformly chosen pool supplies a uniformly chosen item.
// Otherwise the challenge is synthetic.
func (g *Generator) Generate(set koch.UnlockedSet, callsign string) Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()

	available := g.available(set, callsign)
	if len(available) > 0 && g.rnd.Float64() < RealContentProbability {
		items := available[g.rnd.Intn(len(available))]
		it := items[g.rnd.Intn(len(items))]
		meaning := it.Meaning
		if it.Kind == KindWord {
			meaning = ""
		}
		if c, ok := newChallenge(set, it.Text, meaning, SourceCurated); ok {
			return c
		}
	}
	return g.synthetic(set, "", SourceSynthetic)
}

// Synthetic returns a challenge of 2 to 3 random groups of 1 to 4 unlocked
// characters.
func (g *Generator) Synthetic(set koch.UnlockedSet) Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.synthetic(set, "", SourceSynthetic)
}

// OfflineBroadcast assembles an abbreviation prefix (half the time), a word
// and a Q-code suffix (half the time). Parts outside set are dropped; if
// nothing survives the result is synthetic and labelled LabelWeakSignal.
func (g *Generator) OfflineBroadcast(set koch.UnlockedSet, callsign string) Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()

	var parts, meanings []string
	if g.rnd.Float64() < BroadcastPartProbability {
		if it, ok := g.pick(PoolAbbrs); ok && set.Allows(Normalize(it.Text)) {
			parts = append(parts, it.Text)
			meanings = append(meanings, it.Meaning)
		}
	}
	if words := g.filtered(PoolWords, set, callsign); len(words) > 0 {
		parts = append(parts, words[g.rnd.Intn(len(words))].Text)
	}
	if g.rnd.Float64() < BroadcastPartProbability {
		if it, ok := g.pick(PoolQCodes); ok && set.Allows(Normalize(it.Text)) {
			parts = append(parts, it.Text)
			meanings = append(meanings, it.Meaning)
		}
	}

	meaning := LabelBroadcastOffline
	if len(meanings) > 0 {
		meaning += ": " + strings.Join(meanings, ", ")
	}
	if c, ok := newChallenge(set, strings.Join(parts, " "), meaning, SourceBroadcast); ok {
		return c
	}
	return g.synthetic(set, LabelWeakSignal, SourceBroadcastWeak)
}

// OfflineCoach drills the weak characters that are currently unlocked, or
// the whole unlocked set when there are none. The boolean reports whether
// the drill focuses on weak characters.
func (g *Generator) OfflineCoach(set koch.UnlockedSet, weak []rune) (Challenge, bool) {
	focus := CoachFocus(set, weak)
	hasWeak := len(focus) > 0
	if !hasWeak {
		focus = set.Runes()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	groups := make([]string, CoachDrillGroups)
	for i := range groups {
		groups[i] = g.group(focus, CoachDrillGroupLength)
	}
	c, _ := newChallenge(set, strings.Join(groups, " "), LabelCoachOffline, SourceCoach)
	return c, hasWeak
}

// CoachFocus returns the weak characters that are in set, in Koch order.
func CoachFocus(set koch.UnlockedSet, weak []rune) []rune {
	isWeak := make(map[rune]bool, len(weak))
	for _, r := range weak {
		isWeak[r] = true
	}
	var focus []rune
	for _, r := range set.Runes() {
		if isWeak[r] {
			focus = append(focus, r)
		}
	}
	return focus
}

// available returns the non-empty filtered pools. Caller holds g.mu.
func (g *Generator) available(set koch.UnlockedSet, callsign string) [][]Item {
	var out [][]Item
	for _, p := range g.pools {
		if items := p.Filter(set, callsign); len(items) > 0 {
			out = append(out, items)
		}
	}
	return out
}

// filtered returns the named pool filtered by set. Caller holds g.mu.
func (g *Generator) filtered(name string, set koch.UnlockedSet, callsign string) []Item {
	for _, p := range g.pools {
		if p.Name == name {
			return p.Filter(set, callsign)
		}
	}
	return nil
}

// pick returns a random unfiltered item of the named pool. Caller holds g.mu.
func (g *Generator) pick(name string) (Item, bool) {
	for _, p := range g.pools {
		if p.Name == name && len(p.Items) > 0 {
			return p.Items[g.rnd.Intn(len(p.Items))], true
		}
	}
	return Item{}, false
}

// synthetic builds random groups from set. Caller holds g.mu.
func (g *Generator) synthetic(set koch.UnlockedSet, meaning, source string) Challenge {
	chars := set.Runes()
	n := SyntheticMinGroups + g.rnd.Intn(SyntheticMaxGroups-SyntheticMinGroups+1)
	groups := make([]string, n)
	for i := range groups {
		length := SyntheticMinGroupLength + g.rnd.Intn(SyntheticMaxGroupLength-SyntheticMinGroupLength+1)
		groups[i] = g.group(chars, length)
	}
	c, _ := newChallenge(set, strings.Join(groups, " "), meaning, source)
	return c
}

func (g *Generator) group(chars []rune, length int) string {
	if len(chars) == 0 {
		return ""
	}
	b := make([]rune, length)
	for i := range b {
		b[i] = chars[g.rnd.Intn(len(chars))]
	}
	return string(b)
}
