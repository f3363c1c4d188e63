// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/ColonelBlimp/kochtrainer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "kochtrainer",
	Short: "Koch method Morse code trainer",
	Long: `A Morse code trainer using the Koch method with Farnsworth timing.
Characters are introduced one at a time; the lesson level follows your
accuracy over the last few challenges.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio output device index (-1 for default)")
	rootCmd.PersistentFlags().StringP("backend", "b", "sqlite", "progress storage backend (sqlite, file, memory)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for progress and logs")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	bindFlags()
}

// bindFlags binds the global flags to viper keys so they override the
// config file.
func bindFlags() {
	viper.BindPFlag("device_index", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("storage_backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
