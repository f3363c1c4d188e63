package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/kochtrainer/internal/config"
)

func resetViperForTest() {
	viper.Reset()
	resetFlags(rootCmd)
	bindFlags()
}

// resetFlags puts every flag back to its default so values parsed by an
// earlier Execute do not leak into the next test.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points HOME and the XDG directories at a temp dir and makes it the
// working directory, so no real config or progress is touched.
func isolate(t *testing.T) string {
	t.Helper()
	resetViperForTest()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return tmpDir
}

func writeUserConfig(t *testing.T, home, body string) {
	t.Helper()
	configDir := filepath.Join(home, ".config", config.AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"device", "d"},
		{"backend", "b"},
		{"data-dir", ""},
		{"log-level", "l"},
		{"debug", "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Errorf("flag %q not found", tt.name)
				return
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "kochtrainer" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "kochtrainer")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"train", "play", "check", "stats", "reset", "settings"} {
		t.Run(name, func(t *testing.T) {
			c, _, err := rootCmd.Find([]string{name})
			if err != nil || c == rootCmd {
				t.Fatalf("subcommand %q not registered", name)
			}
			if c.Short == "" {
				t.Errorf("subcommand %q has no short description", name)
			}
		})
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	isolate(t)

	output, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}
	if !strings.Contains(output, "kochtrainer") {
		t.Errorf("help output should contain 'kochtrainer'")
	}
	if !strings.Contains(output, "--device") {
		t.Errorf("help output should contain '--device'")
	}
}

func TestRootCmd_FlagDefaults(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		defaultValue string
	}{
		{"device", "-1"},
		{"backend", "sqlite"},
		{"data-dir", ""},
		{"log-level", "info"},
		{"debug", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_FlagDescriptions(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	for _, name := range []string{"device", "backend", "data-dir", "log-level", "debug"} {
		t.Run(name, func(t *testing.T) {
			flag := flags.Lookup(name)
			if flag == nil {
				t.Fatalf("flag %q not found", name)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", name)
			}
		})
	}
}

func TestInitConfig(t *testing.T) {
	home := isolate(t)
	writeUserConfig(t, home, "sample_rate: 44100\n")

	// Should not exit
	initConfig()

	if viper.GetInt("sample_rate") != 44100 {
		t.Errorf("viper.GetInt(sample_rate) = %d, want 44100", viper.GetInt("sample_rate"))
	}
	if viper.GetString("storage_backend") != "sqlite" {
		t.Errorf("viper.GetString(storage_backend) = %q, want %q", viper.GetString("storage_backend"), "sqlite")
	}
}

func TestInitConfig_CreatesConfig(t *testing.T) {
	home := isolate(t)

	initConfig()

	path := filepath.Join(home, ".config", config.AppName, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created at %s: %v", path, err)
	}
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	home := isolate(t)
	writeUserConfig(t, home, "sample_rate: 1000000\n")

	_, err := execute(t, "settings", "--backend", "memory", "--data-dir", home)
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("expected config error, got: %v", err)
	}
}

func TestRootCmd_FlagOverridesConfig(t *testing.T) {
	home := isolate(t)
	writeUserConfig(t, home, "storage_backend: nosuch\n")

	// the flag wins over the invalid file value
	if _, err := execute(t, "settings", "--backend", "memory", "--data-dir", home); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}
