// internal/state/settings.go
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ColonelBlimp/kochtrainer/internal/difficulty"
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
)

// Setting keys, as persisted and accepted by UpdateSetting
const (
	KeyWPM                  = "wpm"
	KeyFarnsworthWPM        = "farnsworthWpm"
	KeyFrequency            = "frequency"
	KeyVolume               = "volume"
	KeyLessonLevel          = "lessonLevel"
	KeyAutoLevel            = "autoLevel"
	KeyAutoPlay             = "autoPlay"
	KeyManualChars          = "manualChars"
	KeyDifficultyPreference = "difficultyPreference"
	KeyAPIKey               = "apiKey"
	KeyUserCallsign         = "userCallsign"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyWPM, KeyFarnsworthWPM, KeyFrequency, KeyVolume, KeyLessonLevel,
	KeyAutoLevel, KeyAutoPlay, KeyManualChars, KeyDifficultyPreference,
	KeyAPIKey, KeyUserCallsign,
}

// Setting ranges
const (
	MinWPM           = 15
	MaxWPM           = 45
	MinFarnsworthWPM = 5
	MinFrequency     = 300
	MaxFrequency     = 1200
	FrequencyStep    = 50
	MaxCallsignLen   = 10
)

var (
	// ErrInvalidSetting is returned when a value is out of range for its key
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrUnknownSetting is returned for a key that is not a setting
	ErrUnknownSetting = errors.New("unknown setting")
)

// Chars is a character set persisted as an array of one-character strings.
type Chars []rune

// MarshalJSON implements json.Marshaler.
func (c Chars) MarshalJSON() ([]byte, error) {
	out := make([]string, len(c))
	for i, r := range c {
		out[i] = string(r)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Chars) UnmarshalJSON(data []byte) error {
	var in []string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Chars, 0, len(in))
	for _, s := range in {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || size != len(s) {
			return fmt.Errorf("not a single character: %q", s)
		}
		out = append(out, r)
	}
	*c = out
	return nil
}

// Settings are the learner's persisted preferences.
type Settings struct {
	WPM                  int     `json:"wpm"`
	FarnsworthWPM        int     `json:"farnsworthWpm"`
	Frequency            int     `json:"frequency"`
	Volume               float64 `json:"volume"`
	LessonLevel          int     `json:"lessonLevel"`
	AutoLevel            bool    `json:"autoLevel"`
	AutoPlay             bool    `json:"autoPlay"`
	ManualChars          Chars   `json:"manualChars"`
	DifficultyPreference int     `json:"difficultyPreference"`
	APIKey               string  `json:"apiKey"`
	UserCallsign         string  `json:"userCallsign"`
}

// DefaultSettings returns a fresh copy of the defaults.
func DefaultSettings() Settings {
	return Settings{
		WPM:                  20,
		FarnsworthWPM:        10,
		Frequency:            600,
		Volume:               0.5,
		LessonLevel:          koch.MinLevel,
		AutoLevel:            true,
		AutoPlay:             true,
		ManualChars:          Chars{},
		DifficultyPreference: difficulty.DefaultPreference,
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.ManualChars = append(Chars{}, s.ManualChars...)
	return s
}

// Unlocked returns the unlocked set these settings describe.
func (s Settings) Unlocked() koch.UnlockedSet {
	return koch.Unlocked(s.LessonLevel, s.ManualChars)
}

// Preset returns the difficulty preset selected by DifficultyPreference.
func (s Settings) Preset() difficulty.Preset {
	return difficulty.MustPreset(s.DifficultyPreference)
}

// Validate checks every setting against its range.
func (s Settings) Validate() error {
	var errs []error

	if s.WPM < MinWPM || s.WPM > MaxWPM {
		errs = append(errs, fmt.Errorf("wpm must be between %d and %d, got %d", MinWPM, MaxWPM, s.WPM))
	}
	if s.FarnsworthWPM < MinFarnsworthWPM || s.FarnsworthWPM > MaxWPM {
		errs = append(errs, fmt.Errorf("farnsworthWpm must be between %d and %d, got %d", MinFarnsworthWPM, MaxWPM, s.FarnsworthWPM))
	}
	if s.FarnsworthWPM > s.WPM {
		errs = append(errs, fmt.Errorf("farnsworthWpm (%d) must not exceed wpm (%d)", s.FarnsworthWPM, s.WPM))
	}
	if s.Frequency < MinFrequency || s.Frequency > MaxFrequency || s.Frequency%FrequencyStep != 0 {
		errs = append(errs, fmt.Errorf("frequency must be between %d and %d in steps of %d, got %d", MinFrequency, MaxFrequency, FrequencyStep, s.Frequency))
	}
	if math.IsNaN(s.Volume) || s.Volume < 0 || s.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume must be between 0.0 and 1.0, got %v", s.Volume))
	}
	if !koch.ValidLevel(s.LessonLevel) {
		errs = append(errs, fmt.Errorf("lessonLevel must be between %d and %d, got %d", koch.MinLevel, koch.MaxLevel, s.LessonLevel))
	} else if err := koch.ValidateManual(s.LessonLevel, s.ManualChars); err != nil {
		errs = append(errs, fmt.Errorf("manualChars: %w", err))
	}
	if _, err := difficulty.PresetFor(s.DifficultyPreference); err != nil {
		errs = append(errs, err)
	}
	if s.APIKey != strings.TrimSpace(s.APIKey) {
		errs = append(errs, errors.New("apiKey must be trimmed"))
	}
	if err := validCallsign(s.UserCallsign); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validCallsign(call string) error {
	if len(call) > MaxCallsignLen {
		return fmt.Errorf("userCallsign must be at most %d characters, got %d", MaxCallsignLen, len(call))
	}
	for _, r := range call {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("userCallsign must be uppercase letters and digits, got %q", call)
		}
	}
	return nil
}

// Value returns the display form of the setting named key.
func (s Settings) Value(key string) (string, error) {
	switch key {
	case KeyWPM:
		return strconv.Itoa(s.WPM), nil
	case KeyFarnsworthWPM:
		return strconv.Itoa(s.FarnsworthWPM), nil
	case KeyFrequency:
		return strconv.Itoa(s.Frequency), nil
	case KeyVolume:
		return strconv.FormatFloat(s.Volume, 'f', -1, 64), nil
	case KeyLessonLevel:
		return strconv.Itoa(s.LessonLevel), nil
	case KeyAutoLevel:
		return strconv.FormatBool(s.AutoLevel), nil
	case KeyAutoPlay:
		return strconv.FormatBool(s.AutoPlay), nil
	case KeyManualChars:
		return string(s.ManualChars), nil
	case KeyDifficultyPreference:
		return strconv.Itoa(s.DifficultyPreference), nil
	case KeyAPIKey:
		if s.APIKey == "" {
			return "", nil
		}
		return "(set)", nil
	case KeyUserCallsign:
		return s.UserCallsign, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSetting, key)
}

// apply returns s with key set to value, or an error wrapping
// ErrInvalidSetting. Values may be given in their native type or as strings.
func (s Settings) apply(key string, value any) (Settings, error) {
	invalid := func(format string, args ...any) (Settings, error) {
		return s, fmt.Errorf("%w: %s: %s", ErrInvalidSetting, key, fmt.Sprintf(format, args...))
	}

	switch key {
	case KeyWPM:
		n, err := toInt(value)
		if err != nil || n < MinWPM || n > MaxWPM {
			return invalid("must be an integer between %d and %d", MinWPM, MaxWPM)
		}
		s.WPM = n
		if s.FarnsworthWPM > n {
			s.FarnsworthWPM = n
		}
	case KeyFarnsworthWPM:
		n, err := toInt(value)
		if err != nil || n < MinFarnsworthWPM || n > MaxWPM {
			return invalid("must be an integer between %d and %d", MinFarnsworthWPM, MaxWPM)
		}
		if n > s.WPM {
			return invalid("%d exceeds wpm %d", n, s.WPM)
		}
		s.FarnsworthWPM = n
	case KeyFrequency:
		n, err := toInt(value)
		if err != nil || n < MinFrequency || n > MaxFrequency || n%FrequencyStep != 0 {
			return invalid("must be between %d and %d in steps of %d", MinFrequency, MaxFrequency, FrequencyStep)
		}
		s.Frequency = n
	case KeyVolume:
		f, err := toFloat(value)
		if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
			return invalid("must be between 0.0 and 1.0")
		}
		s.Volume = f
	case KeyLessonLevel:
		n, err := toInt(value)
		if err != nil || !koch.ValidLevel(n) {
			return invalid("must be between %d and %d", koch.MinLevel, koch.MaxLevel)
		}
		s.LessonLevel = n
		s.ManualChars = koch.PruneManual(n, s.ManualChars)
	case KeyAutoLevel, KeyAutoPlay:
		b, err := toBool(value)
		if err != nil {
			return invalid("must be true or false")
		}
		if key == KeyAutoLevel {
			s.AutoLevel = b
		} else {
			s.AutoPlay = b
		}
	case KeyManualChars:
		rs, err := toRunes(value)
		if err != nil {
			return invalid("%v", err)
		}
		if err := koch.ValidateManual(s.LessonLevel, rs); err != nil {
			return invalid("%v", err)
		}
		s.ManualChars = koch.PruneManual(s.LessonLevel, rs)
	case KeyDifficultyPreference:
		n, err := toInt(value)
		if err != nil {
			return invalid("must be an integer between 1 and 5")
		}
		if _, err := difficulty.PresetFor(n); err != nil {
			return invalid("%v", err)
		}
		s.DifficultyPreference = n
	case KeyAPIKey:
		str, ok := value.(string)
		if !ok {
			return invalid("must be a string")
		}
		s.APIKey = strings.TrimSpace(str)
	case KeyUserCallsign:
		str, ok := value.(string)
		if !ok {
			return invalid("must be a string")
		}
		call := strings.ToUpper(strings.TrimSpace(str))
		if err := validCallsign(call); err != nil {
			return invalid("%v", err)
		}
		s.UserCallsign = call
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	return s, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("not an integer: %v", v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("not a boolean: %v", v)
}

func toRunes(v any) ([]rune, error) {
	switch x := v.(type) {
	case []rune:
		return x, nil
	case Chars:
		return x, nil
	case string:
		var out []rune
		for _, r := range strings.ToUpper(x) {
			if r == ' ' {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a character set: %v", v)
}
