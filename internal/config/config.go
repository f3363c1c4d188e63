// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	AppName       = "kochtrainer"
	ConfigType    = "yaml"
	DefaultConfig = `# Koch Trainer Configuration
#
# Learner settings (speed, pitch, lesson level...) are not kept here; they
# are stored with your progress and changed with 'kochtrainer settings'.

# Storage
storage_backend: "sqlite"  # sqlite, file or memory
data_dir: ""               # empty = $XDG_DATA_HOME/kochtrainer

# Audio output
device_index: -1           # -1 for default playback device
sample_rate: 48000         # Playback sample rate in Hz
buffer_size: 512           # Playback period size in frames (power of 2)

# Text generator (OpenAI-compatible chat completions)
generator_endpoint: ""     # empty = https://api.openai.com/v1/chat/completions
generator_model: ""        # empty = gpt-4o-mini
generator_timeout_ms: 10000

# Session timing
auto_play_delay_ms: 1500   # Pause after a correct answer before the next challenge
settings_debounce_ms: 500  # Delay before settings changes are written

# Logging
log_level: "info"          # debug, info, warn, error
log_format: "console"      # console or json
log_file: ""               # empty = <data_dir>/kochtrainer.log

# Output
debug: false               # Enable debug output
`
)

// Storage backends accepted in storage_backend
var validBackends = map[string]bool{"sqlite": true, "file": true, "memory": true}

// Settings holds all application configuration
type Settings struct {
	// Storage
	StorageBackend string `mapstructure:"storage_backend"`
	DataDir        string `mapstructure:"data_dir"`

	// Audio output
	DeviceIndex int     `mapstructure:"device_index"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	BufferSize  int     `mapstructure:"buffer_size"`

	// Text generator
	GeneratorEndpoint  string `mapstructure:"generator_endpoint"`
	GeneratorModel     string `mapstructure:"generator_model"`
	GeneratorTimeoutMs int    `mapstructure:"generator_timeout_ms"`

	// Session timing
	AutoPlayDelayMs    int `mapstructure:"auto_play_delay_ms"`
	SettingsDebounceMs int `mapstructure:"settings_debounce_ms"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Output
	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then $XDG_CONFIG_HOME/kochtrainer/
func Init() error {
	// Set defaults
	viper.SetDefault("storage_backend", "sqlite")
	viper.SetDefault("data_dir", "")
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("buffer_size", 512)
	viper.SetDefault("generator_endpoint", "")
	viper.SetDefault("generator_model", "")
	viper.SetDefault("generator_timeout_ms", 10000)
	viper.SetDefault("auto_play_delay_ms", 1500)
	viper.SetDefault("settings_debounce_ms", 500)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
	viper.SetDefault("log_file", "")
	viper.SetDefault("debug", false)

	viper.SetEnvPrefix("KOCHTRAINER")
	viper.AutomaticEnv()

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir := filepath.Join(XDGConfigHome(), AppName)
	viper.AddConfigPath(configDir)

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	err := viper.ReadInConfig()
	if err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			if err = ensureConfigExists(configDir); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if !validBackends[s.StorageBackend] {
		errs = append(errs, fmt.Errorf("storage_backend must be one of sqlite, file, memory, got %q", s.StorageBackend))
	}

	// Audio output
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 8192, got %d", s.BufferSize))
	}
	if s.BufferSize&(s.BufferSize-1) != 0 {
		errs = append(errs, fmt.Errorf("buffer_size should be a power of 2, got %d", s.BufferSize))
	}
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device index, got %d", s.DeviceIndex))
	}

	// Text generator
	if s.GeneratorTimeoutMs < 1000 || s.GeneratorTimeoutMs > 60000 {
		errs = append(errs, fmt.Errorf("generator_timeout_ms must be between 1000 and 60000, got %d", s.GeneratorTimeoutMs))
	}

	// Session timing
	if s.AutoPlayDelayMs < 0 || s.AutoPlayDelayMs > 10000 {
		errs = append(errs, fmt.Errorf("auto_play_delay_ms must be between 0 and 10000, got %d", s.AutoPlayDelayMs))
	}
	if s.SettingsDebounceMs < 0 || s.SettingsDebounceMs > 5000 {
		errs = append(errs, fmt.Errorf("settings_debounce_ms must be between 0 and 5000, got %d", s.SettingsDebounceMs))
	}

	// Logging
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s.LogLevel))
	}
	if s.LogFormat != "console" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", s.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DataPath returns data_dir, or the XDG data directory when it is empty.
func (s *Settings) DataPath() string {
	if s.DataDir != "" {
		return s.DataDir
	}
	return DataDir()
}

// LogPath returns log_file, or kochtrainer.log in the data directory.
func (s *Settings) LogPath() string {
	if s.LogFile != "" {
		return s.LogFile
	}
	return filepath.Join(s.DataPath(), AppName+".log")
}
