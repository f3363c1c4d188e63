// cmd/train.go
package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/recovery"
	"github.com/ColonelBlimp/kochtrainer/internal/session"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
	"github.com/ColonelBlimp/kochtrainer/internal/tui"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Start an interactive training session",
	Long: `Plays challenges built from the characters unlocked at your lesson level
and judges what you type. Logs go to the log file while the session runs.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringP("mode", "m", "standard", "generation mode (standard, broadcast, coach)")
	trainCmd.Flags().Bool("no-audio", false, "train without a playback device (mark challenges played by hand)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("mode")
	mode, err := session.ParseMode(name)
	if err != nil {
		return err
	}
	noAudio, _ := cmd.Flags().GetBool("no-audio")

	pump := tui.NewPump()
	rt, err := openRuntime(runtimeOptions{logToFile: true, events: pump})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			rt.log.Error("close runtime", zap.Error(cerr))
		}
	}()

	var (
		player     session.Player
		closeAudio = func() {}
	)
	if !noAudio {
		synth := rt.synth()
		closeAudio = func() {
			if cerr := synth.Close(); cerr != nil {
				rt.log.Warn("close audio", zap.Error(cerr))
			}
		}
		defer closeAudio()
		player = audio.NewScheduler(synth, timer.Real{}, rt.log.Named("scheduler"))
	}

	ctrl, err := session.New(session.Config{
		Store:         rt.store,
		Events:        pump,
		Generator:     rt.generator(),
		External:      rt.external(),
		Player:        player,
		Archive:       rt.archive(),
		Timers:        timer.Real{},
		Log:           rt.log.Named("session"),
		AutoPlayDelay: time.Duration(rt.cfg.AutoPlayDelayMs) * time.Millisecond,
		Mode:          mode,
	})
	if err != nil {
		return err
	}
	// a panic on this goroutine exits without running the defers above
	defer recovery.HandlePanicFunc(func() {
		ctrl.Stop()
		closeAudio()
		_ = rt.Close()
	})
	rt.log.Info("training session started",
		zap.String("session_id", ctrl.SessionID()),
		zap.String("mode", mode.String()),
		zap.Int("level", rt.store.Settings().LessonLevel))

	model := tui.New(tui.Config{
		Trainer:  ctrl,
		Events:   pump,
		Accuracy: rt.store.Accuracy,
		Log:      rt.log.Named("tui"),
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()

	ctrl.Stop()
	pump.Close()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	rt.log.Info("training session ended", zap.String("session_id", ctrl.SessionID()))
	return nil
}
