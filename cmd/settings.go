// cmd/settings.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/kochtrainer/internal/difficulty"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/tui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show learner settings",
	Long: `Shows the learner settings stored with your progress.
Use 'settings set <key> <value>' to change one.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a learner setting",
	Long: `Changes one learner setting. Keys:
  wpm, farnsworthWpm, frequency, volume, lessonLevel, autoLevel, autoPlay,
  manualChars, difficultyPreference, apiKey, userCallsign
manualChars takes the characters as one word, e.g. 'settings set manualChars QZ'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	return writeSettings(cmd.OutOrStdout(), rt.store.Settings())
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	key := args[0]
	value := strings.Join(args[1:], " ")
	if key == state.KeyManualChars {
		value = strings.Join(args[1:], "")
	}
	if err := rt.store.UpdateSetting(key, value); err != nil {
		return err
	}
	shown, _ := rt.store.Settings().Value(key)
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
	return nil
}

func writeSettings(out io.Writer, s state.Settings) error {
	rows := make([][]string, 0, len(state.Keys))
	for _, key := range state.Keys {
		v, err := s.Value(key)
		if err != nil {
			return err
		}
		if key == state.KeyDifficultyPreference {
			if p, err := difficulty.PresetFor(s.DifficultyPreference); err == nil {
				v += " (" + p.Label + ")"
			}
		}
		rows = append(rows, []string{key, v})
	}
	for _, line := range tui.FormatTable(nil, rows, nil) {
		fmt.Fprintln(out, line)
	}
	return nil
}
