// internal/session/state.go
package session

import (
	"fmt"
	"strings"
)

// State is a session controller state.
type State int

// Session states
const (
	Idle State = iota
	Playing
	AwaitingInput
	Judged
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Playing:
		return "PLAYING"
	case AwaitingInput:
		return "AWAITING_INPUT"
	case Judged:
		return "JUDGED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mode selects how the next challenge is produced.
type Mode int

// Generation modes
const (
	// ModeStandard draws from the curated pools or synthesizes groups
	ModeStandard Mode = iota
	// ModeBroadcast asks the external generator for a batch of sentences,
	// falling back to an offline broadcast
	ModeBroadcast
	// ModeCoach drills weak characters through the external generator,
	// falling back to an offline drill
	ModeCoach
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeBroadcast:
		return "broadcast"
	case ModeCoach:
		return "coach"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return ModeStandard, nil
	case "broadcast":
		return ModeBroadcast, nil
	case "coach":
		return ModeCoach, nil
	}
	return ModeStandard, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
