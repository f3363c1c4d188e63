// internal/difficulty/preset.go
package difficulty

import "errors"

// ErrUnknownPreset indicates a difficulty preference outside 1..5
var ErrUnknownPreset = errors.New("difficulty preference must be between 1 and 5")

// Preset overrides the grace period and the recommendation thresholds.
type Preset struct {
	// Preference is the persisted selector (1..5)
	Preference int
	// Label is shown by the UI
	Label string
	// NewCharGrace is the number of challenges after a new character during which scores drop by 2
	NewCharGrace int
	// ExcellentThreshold is the accuracy ratio for a large difficulty increase
	ExcellentThreshold float64
	// PoorThreshold is the accuracy ratio below which difficulty decreases
	PoorThreshold float64
}

// DefaultPreference is the preset used for new learners.
const DefaultPreference = 3

// Presets are ordered by strictness: shorter grace, higher excellence bar,
// earlier demotion as the preference grows.
var Presets = [5]Preset{
	{Preference: 1, Label: "Very Easy", NewCharGrace: 5, ExcellentThreshold: 0.80, PoorThreshold: 0.40},
	{Preference: 2, Label: "Easy", NewCharGrace: 4, ExcellentThreshold: 0.85, PoorThreshold: 0.45},
	{Preference: 3, Label: "Normal", NewCharGrace: 3, ExcellentThreshold: 0.90, PoorThreshold: 0.50},
	{Preference: 4, Label: "Hard", NewCharGrace: 2, ExcellentThreshold: 0.93, PoorThreshold: 0.55},
	{Preference: 5, Label: "Very Hard", NewCharGrace: 1, ExcellentThreshold: 0.95, PoorThreshold: 0.60},
}

// PresetFor returns the preset for preference.
func PresetFor(preference int) (Preset, error) {
	if preference < 1 || preference > len(Presets) {
		return Preset{}, ErrUnknownPreset
	}
	return Presets[preference-1], nil
}

// MustPreset returns the preset for preference, falling back to the default.
func MustPreset(preference int) Preset {
	p, err := PresetFor(preference)
	if err != nil {
		return Presets[DefaultPreference-1]
	}
	return p
}
