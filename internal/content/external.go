// internal/content/external.go
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/koch"
)

const (
	// DefaultExternalTimeout bounds one call to the external text generator
	DefaultExternalTimeout = 10 * time.Second
	// BroadcastBatch is the number of sentences requested per AI broadcast
	BroadcastBatch = 5
)

var (
	// ErrExternalFailed indicates the external generator returned an error
	ErrExternalFailed = errors.New("external generator failed")
	// ErrExternalTimeout indicates the external generator did not answer in time
	ErrExternalTimeout = errors.New("external generator timed out")
	// ErrExternalInvalid indicates a response that left the unlocked set or was empty
	ErrExternalInvalid = errors.New("external generator response rejected")
)

// TextGenerator is the optional language-model collaborator.
type TextGenerator interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// External wraps a TextGenerator with a hard timeout and response validation.
type External struct {
	gen     TextGenerator
	timeout time.Duration
}

// NewExternal returns nil when gen is nil, which disables the AI paths.
// A non-positive timeout selects DefaultExternalTimeout.
func NewExternal(gen TextGenerator, timeout time.Duration) *External {
	if gen == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &External{gen: gen, timeout: timeout}
}

// BroadcastPrompt asks for n short sentences using only the unlocked characters.
func BroadcastPrompt(set koch.UnlockedSet, n int) string {
	return fmt.Sprintf(
		"Write %d short amateur radio style sentences for Morse code practice, one per line. "+
			"Use ONLY these characters: %s and spaces. Do not use any other letter, digit or punctuation. "+
			"Use at most 5 words per line. Reply with the sentences only.",
		n, allowedList(set))
}

// CoachPrompt asks for a drill line concentrating on focus.
func CoachPrompt(set koch.UnlockedSet, focus []rune) string {
	return fmt.Sprintf(
		"Write one line of Morse code practice text of 3 to 5 words or letter groups. "+
			"Concentrate on these characters: %s. "+
			"Use ONLY these characters: %s and spaces. Reply with the line only.",
		spaced(focus), allowedList(set))
}

func allowedList(set koch.UnlockedSet) string {
	return spaced(set.Runes())
}

func spaced(rs []rune) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// Validate uppercases response, strips everything outside [A-Z0-9 ] and
// accepts the normalized remainder only if it is non-empty and inside set.
func Validate(response string, set koch.UnlockedSet) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(response) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		}
	}
	text := Normalize(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty after cleanup", ErrExternalInvalid)
	}
	if !set.Allows(text) {
		return "", fmt.Errorf("%w: %q uses characters outside %s", ErrExternalInvalid, text, set)
	}
	return text, nil
}

// prompt runs one bounded call and classifies failures.
func (e *External) prompt(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.gen.Prompt(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrExternalTimeout, e.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrExternalFailed, err)
	}
	return resp, nil
}

// Broadcast requests a batch of sentences and returns every line that
// validates. It fails with ErrExternalInvalid when no line survives.
func (e *External) Broadcast(ctx context.Context, set koch.UnlockedSet) ([]Challenge, error) {
	resp, err := e.prompt(ctx, BroadcastPrompt(set, BroadcastBatch))
	if err != nil {
		return nil, err
	}
	var out []Challenge
	var lastErr error
	for _, line := range strings.Split(resp, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		text, err := Validate(line, set)
		if err != nil {
			lastErr = err
			continue
		}
		if c, ok := newChallenge(set, text, LabelAIBroadcast, SourceExternal); ok {
			out = append(out, c)
		}
		if len(out) == BroadcastBatch {
			break
		}
	}
	if len(out) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: empty response", ErrExternalInvalid)
		}
		return nil, lastErr
	}
	return out, nil
}

// Coach requests one drill line focused on the unlocked weak characters.
func (e *External) Coach(ctx context.Context, set koch.UnlockedSet, weak []rune) (Challenge, error) {
	focus := CoachFocus(set, weak)
	if len(focus) == 0 {
		focus = set.Runes()
	}
	resp, err := e.prompt(ctx, CoachPrompt(set, focus))
	if err != nil {
		return Challenge{}, err
	}
	text, err := Validate(resp, set)
	if err != nil {
		return Challenge{}, err
	}
	c, _ := newChallenge(set, text, LabelAICoach, SourceExternalCoach)
	return c, nil
}

// AIBroadcast tries ext and falls back to one offline broadcast. The
// returned slice is never empty; a non-nil error names why the fallback
// was taken. A nil ext goes straight to the offline path without error.
func (g *Generator) AIBroadcast(ctx context.Context, ext *External, set koch.UnlockedSet, callsign string) ([]Challenge, error) {
	if ext == nil {
		return []Challenge{g.OfflineBroadcast(set, callsign)}, nil
	}
	batch, err := ext.Broadcast(ctx, set)
	if err != nil {
		return []Challenge{g.OfflineBroadcast(set, callsign)}, err
	}
	return batch, nil
}

// AICoach tries ext and falls back to the offline coach drill, with the
// same error contract as AIBroadcast. The boolean reports whether the
// unlocked set holds weak characters.
func (g *Generator) AICoach(ctx context.Context, ext *External, set koch.UnlockedSet, weak []rune) (Challenge, bool, error) {
	hasWeak := len(CoachFocus(set, weak)) > 0
	if ext == nil {
		c, _ := g.OfflineCoach(set, weak)
		return c, hasWeak, nil
	}
	c, err := ext.Coach(ctx, set, weak)
	if err != nil {
		c, _ = g.OfflineCoach(set, weak)
		return c, hasWeak, err
	}
	return c, hasWeak, nil
}
