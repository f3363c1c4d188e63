package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper() {
	viper.Reset()
}

// isolate points HOME and the XDG dirs at a temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	return tmpDir
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origDir, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Logf("failed to restore dir: %v", err)
		}
	})
}

func writeXDGConfig(t *testing.T, home, content string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func validSettings() *Settings {
	return &Settings{
		StorageBackend:     "sqlite",
		DeviceIndex:        -1,
		SampleRate:         48000,
		BufferSize:         512,
		GeneratorTimeoutMs: 10000,
		AutoPlayDelayMs:    1500,
		SettingsDebounceMs: 500,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeXDGConfig(t, tmpDir, DefaultConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"storage_backend", "sqlite"},
		{"data_dir", ""},
		{"device_index", -1},
		{"sample_rate", 48000},
		{"buffer_size", 512},
		{"generator_timeout_ms", 10000},
		{"auto_play_delay_ms", 1500},
		{"settings_debounce_ms", 500},
		{"log_level", "info"},
		{"log_format", "console"},
		{"debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := viper.Get(tt.key)
			if got != tt.expected {
				t.Errorf("viper.Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestInit_CreatesConfigIfMissing(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ".config", AppName, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Init() did not create config file at %s", configPath)
	}
}

func TestInit_HonoursXDGConfigHome(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	xdg := filepath.Join(tmpDir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(xdg, AppName, "config.yaml")); err != nil {
		t.Errorf("config not created under XDG_CONFIG_HOME: %v", err)
	}
}

func TestInit_ReadsLocalConfigFirst(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	writeXDGConfig(t, tmpDir, "auto_play_delay_ms: 2000")
	chdir(t, tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("auto_play_delay_ms: 2500"), 0644); err != nil {
		t.Fatalf("failed to write local config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetInt("auto_play_delay_ms"); got != 2500 {
		t.Errorf("viper.GetInt(auto_play_delay_ms) = %d, want 2500 (local config)", got)
	}
}

func TestInit_DotConfigTakesPrecedence(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, ".config.yaml"), []byte("storage_backend: file"), 0644); err != nil {
		t.Fatalf("failed to write .config.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("storage_backend: memory"), 0644); err != nil {
		t.Fatalf("failed to write config.yaml: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if got := viper.GetString("storage_backend"); got != "file" {
		t.Errorf("viper.GetString(storage_backend) = %q, want file (.config.yaml should take precedence)", got)
	}
}

func TestInit_InvalidConfigFile(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeXDGConfig(t, tmpDir, "invalid: yaml: content: [[[")

	if err := Init(); err == nil {
		t.Error("Init() should return error for invalid YAML")
	}
}

func TestInit_EnvOverride(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeXDGConfig(t, tmpDir, DefaultConfig)
	t.Setenv("KOCHTRAINER_LOG_LEVEL", "debug")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("Settings.LogLevel = %q, want debug", settings.LogLevel)
	}
}

func TestGet_AllFields(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)

	customConfig := `storage_backend: file
data_dir: /tmp/koch
device_index: 2
sample_rate: 44100
buffer_size: 1024
generator_endpoint: http://localhost:8080/v1/chat/completions
generator_model: local
generator_timeout_ms: 5000
auto_play_delay_ms: 0
settings_debounce_ms: 0
log_level: warn
log_format: json
log_file: /tmp/koch.log
debug: true
`
	writeXDGConfig(t, tmpDir, customConfig)

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	settings, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := Settings{
		StorageBackend:     "file",
		DataDir:            "/tmp/koch",
		DeviceIndex:        2,
		SampleRate:         44100,
		BufferSize:         1024,
		GeneratorEndpoint:  "http://localhost:8080/v1/chat/completions",
		GeneratorModel:     "local",
		GeneratorTimeoutMs: 5000,
		AutoPlayDelayMs:    0,
		SettingsDebounceMs: 0,
		LogLevel:           "warn",
		LogFormat:          "json",
		LogFile:            "/tmp/koch.log",
		Debug:              true,
	}
	if *settings != want {
		t.Errorf("Get() = %+v, want %+v", *settings, want)
	}
}

func TestGet_InvalidSettings(t *testing.T) {
	resetViper()
	tmpDir := isolate(t)
	chdir(t, tmpDir)
	writeXDGConfig(t, tmpDir, "storage_backend: cloud\nbuffer_size: 1000\n")

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	_, err := Get()
	if err == nil {
		t.Fatal("Get() error = nil, want validation error")
	}
	for _, want := range []string{"storage_backend", "buffer_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Get() error = %v, want mention of %s", err, want)
		}
	}
}

func TestEnsureConfigExists_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config")

	if err := ensureConfigExists(configPath); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(configPath, "config.yaml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != DefaultConfig {
		t.Errorf("config content does not match DefaultConfig")
	}
}

func TestEnsureConfigExists_DoesNotOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	existingContent := "existing: true"
	if err := os.WriteFile(configFile, []byte(existingContent), 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	if err := ensureConfigExists(tmpDir); err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("ensureConfigExists() overwrote existing config")
	}
}

func TestEnsureConfigExists_WriteError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping test when running as root")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "readonly")
	if err := os.MkdirAll(configPath, 0555); err != nil {
		t.Fatalf("failed to create readonly dir: %v", err)
	}
	defer func() {
		if err := os.Chmod(configPath, 0755); err != nil {
			t.Logf("failed to restore permissions: %v", err)
		}
	}()

	if err := ensureConfigExists(filepath.Join(configPath, "subdir")); err == nil {
		t.Error("ensureConfigExists() should return error for read-only directory")
	}
}

func TestConstants(t *testing.T) {
	if AppName != "kochtrainer" {
		t.Errorf("AppName = %q, want %q", AppName, "kochtrainer")
	}
	if ConfigType != "yaml" {
		t.Errorf("ConfigType = %q, want %q", ConfigType, "yaml")
	}
}

func TestDefaultConfig_ContainsExpectedKeys(t *testing.T) {
	expectedKeys := []string{
		"storage_backend",
		"data_dir",
		"device_index",
		"sample_rate",
		"buffer_size",
		"generator_endpoint",
		"generator_model",
		"generator_timeout_ms",
		"auto_play_delay_ms",
		"settings_debounce_ms",
		"log_level",
		"log_format",
		"log_file",
		"debug",
	}

	for _, key := range expectedKeys {
		if !strings.Contains(DefaultConfig, key+":") {
			t.Errorf("DefaultConfig missing key: %s", key)
		}
	}
}

func TestSettings_Validate_ValidSettings(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for valid settings", err)
	}
}

func TestSettings_Validate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr string
	}{
		{"unknown backend", func(s *Settings) { s.StorageBackend = "redis" }, "storage_backend"},
		{"sample rate low", func(s *Settings) { s.SampleRate = 4000 }, "sample_rate"},
		{"sample rate high", func(s *Settings) { s.SampleRate = 384000 }, "sample_rate"},
		{"buffer too small", func(s *Settings) { s.BufferSize = 32 }, "buffer_size"},
		{"buffer not power of 2", func(s *Settings) { s.BufferSize = 1000 }, "power of 2"},
		{"device index", func(s *Settings) { s.DeviceIndex = -2 }, "device_index"},
		{"generator timeout low", func(s *Settings) { s.GeneratorTimeoutMs = 500 }, "generator_timeout_ms"},
		{"generator timeout high", func(s *Settings) { s.GeneratorTimeoutMs = 120000 }, "generator_timeout_ms"},
		{"auto play negative", func(s *Settings) { s.AutoPlayDelayMs = -1 }, "auto_play_delay_ms"},
		{"debounce high", func(s *Settings) { s.SettingsDebounceMs = 6000 }, "settings_debounce_ms"},
		{"log level", func(s *Settings) { s.LogLevel = "trace" }, "log_level"},
		{"log format", func(s *Settings) { s.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.modify(s)
			err := s.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate_CollectsAll(t *testing.T) {
	s := validSettings()
	s.SampleRate = 0
	s.LogFormat = "xml"
	s.AutoPlayDelayMs = -5

	err := s.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	if n := len(strings.Split(err.Error(), "\n")); n != 3 {
		t.Errorf("Validate() reported %d errors, want 3: %v", n, err)
	}
}

func TestSettings_Paths(t *testing.T) {
	tmpDir := isolate(t)

	s := validSettings()
	wantData := filepath.Join(tmpDir, ".local", "share", AppName)
	if got := s.DataPath(); got != wantData {
		t.Errorf("DataPath() = %q, want %q", got, wantData)
	}
	if got := s.LogPath(); got != filepath.Join(wantData, "kochtrainer.log") {
		t.Errorf("LogPath() = %q", got)
	}

	s.DataDir = "/srv/koch"
	s.LogFile = "/var/log/koch.log"
	if got := s.DataPath(); got != "/srv/koch" {
		t.Errorf("DataPath() = %q, want /srv/koch", got)
	}
	if got := s.LogPath(); got != "/var/log/koch.log" {
		t.Errorf("LogPath() = %q, want /var/log/koch.log", got)
	}

	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DataDir(); got != filepath.Join("/data", AppName) {
		t.Errorf("DataDir() = %q", got)
	}
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got := PackPath(); got != filepath.Join("/cfg", AppName, "pack.toml") {
		t.Errorf("PackPath() = %q", got)
	}
}
