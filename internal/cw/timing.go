// internal/cw/timing.go
package cw

// Timing holds element and gap durations in seconds for a character speed
// and a Farnsworth (effective) speed.
type Timing struct {
	// Dot is the dit length: 1.2 / WPM
	Dot float64
	// Dash is DahDitRatio dots
	Dash float64
	// SymbolGap separates elements inside a character (one dot)
	SymbolGap float64
	// CharGap separates characters, stretched by Farnsworth spacing
	CharGap float64
	// WordGap separates words, stretched by Farnsworth spacing
	WordGap float64
}

// NewTiming computes the Farnsworth timing for character speed wpm and
// spacing speed farnsworthWPM. Characters are sent at wpm; the gaps are
// computed from farnsworthWPM, which must not exceed wpm.
func NewTiming(wpm, farnsworthWPM int) (Timing, error) {
	if wpm <= 0 {
		return Timing{}, ErrInvalidWPM
	}
	if farnsworthWPM <= 0 || farnsworthWPM > wpm {
		return Timing{}, ErrInvalidFarnsworthWPM
	}

	dot := SecondsPerDitAtOneWPM / float64(wpm)
	spacingUnit := SecondsPerDitAtOneWPM / float64(farnsworthWPM)

	return Timing{
		Dot:       dot,
		Dash:      dot * DahDitRatio,
		SymbolGap: dot * IntraCharSpaceRatio,
		CharGap:   spacingUnit * InterCharSpaceRatio,
		WordGap:   spacingUnit * WordSpaceRatio,
	}, nil
}

// Duration returns the length of element s.
func (t Timing) Duration(s Symbol) float64 {
	if s == Dash {
		return t.Dash
	}
	return t.Dot
}
