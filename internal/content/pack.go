// internal/content/pack.go
package content

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// PackFile is the TOML layout of a user content pack:
//
//	[[words]]
//	text = "ANTENNA"
//
//	[[abbrs]]
//	text = "CQ"
//	meaning = "calling any station"
type PackFile struct {
	Words   []PackEntry `toml:"words"`
	Abbrs   []PackEntry `toml:"abbrs"`
	QCodes  []PackEntry `toml:"qcodes"`
	Phrases []PackEntry `toml:"phrases"`
}

// PackEntry is one pack line.
type PackEntry struct {
	Text    string `toml:"text"`
	Meaning string `toml:"meaning"`
}

// LoadPack reads a TOML content pack from path. A missing file is not an
// error and yields an empty pack.
func LoadPack(path string) (PackFile, error) {
	if path == "" {
		return PackFile{}, fmt.Errorf("content pack path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return PackFile{}, nil
		}
		return PackFile{}, fmt.Errorf("failed to stat content pack: %w", err)
	}
	var pack PackFile
	if _, err := toml.DecodeFile(path, &pack); err != nil {
		return PackFile{}, fmt.Errorf("failed to decode content pack: %w", err)
	}
	return pack, nil
}

// Merge appends the pack entries to the matching pools. Entries with empty
// text are skipped; text is normalized but not filtered, filtering happens
// per generation against the unlocked set.
func (p PackFile) Merge(pools []Pool) []Pool {
	out := make([]Pool, len(pools))
	copy(out, pools)
	add := func(name string, entries []PackEntry, mk func(PackEntry) Item) {
		for i := range out {
			if out[i].Name != name {
				continue
			}
			items := append([]Item(nil), out[i].Items...)
			for _, e := range entries {
				if Normalize(e.Text) == "" {
					continue
				}
				items = append(items, mk(e))
			}
			out[i].Items = items
		}
	}
	add(PoolWords, p.Words, func(e PackEntry) Item { return Word(Normalize(e.Text)) })
	add(PoolAbbrs, p.Abbrs, func(e PackEntry) Item { return Coded(Normalize(e.Text), e.Meaning) })
	add(PoolQCodes, p.QCodes, func(e PackEntry) Item { return Coded(Normalize(e.Text), e.Meaning) })
	add(PoolPhrases, p.Phrases, func(e PackEntry) Item { return Phrase(e.Text, e.Meaning) })
	return out
}

// Size returns the number of entries in the pack.
func (p PackFile) Size() int {
	return len(p.Words) + len(p.Abbrs) + len(p.QCodes) + len(p.Phrases)
}
