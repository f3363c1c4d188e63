// cmd/reset.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/session"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe accuracy records, history and the attempts archive",
	Long: `Clears all per-character accuracy, the challenge history, today's session
metrics and the attempts archive. Learner settings and the lesson level are
kept.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		fmt.Fprint(cmd.OutOrStdout(), "Wipe all statistics? [y/N] ")
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	rec := &events.Recorder{}
	rt, err := openRuntime(runtimeOptions{events: rec})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := session.New(session.Config{
		Store:   rt.store,
		Events:  rec,
		Archive: rt.archive(),
		Log:     rt.log.Named("session"),
	})
	if err != nil {
		return err
	}
	if err := ctrl.WipeStats(cmd.Context()); err != nil {
		return fmt.Errorf("wipe stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "statistics wiped")
	return nil
}
