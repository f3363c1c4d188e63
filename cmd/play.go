// cmd/play.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/cw"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
)

var playCmd = &cobra.Command{
	Use:   "play [text...]",
	Short: "Play text as Morse code",
	Long: `Plays the given text through the audio scheduler. Speeds, pitch and
volume default to your learner settings. Characters without a Morse
pattern are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntP("wpm", "w", 0, "character speed (0 = learner setting)")
	playCmd.Flags().IntP("farnsworth", "F", 0, "effective speed (0 = learner setting)")
	playCmd.Flags().Float64P("frequency", "f", 0, "tone pitch in Hz (0 = learner setting)")
	playCmd.Flags().Float64("volume", -1, "volume 0..1 (-1 = learner setting)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	p := params(rt.store.Settings())
	if v, _ := cmd.Flags().GetInt("wpm"); v > 0 {
		p.WPM = v
		if p.FarnsworthWPM > v {
			p.FarnsworthWPM = v
		}
	}
	if v, _ := cmd.Flags().GetInt("farnsworth"); v > 0 {
		p.FarnsworthWPM = v
	}
	if v, _ := cmd.Flags().GetFloat64("frequency"); v > 0 {
		p.Frequency = v
	}
	if v, _ := cmd.Flags().GetFloat64("volume"); v >= 0 {
		p.Volume = v
	}

	text := strings.ToUpper(strings.Join(args, " "))
	synth := rt.synth()
	defer synth.Close()
	sched := audio.NewScheduler(synth, timer.Real{}, rt.log.Named("scheduler"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	duration, err := sched.Play(text, p, func() { close(done) })
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n", text, cw.Encode(text))
	fmt.Fprintf(out, "%d/%d wpm, %.0f Hz, %.1fs\n", p.WPM, p.FarnsworthWPM, p.Frequency, duration)
	rt.log.Debug("playing", zap.String("text", text), zap.Float64("seconds", duration))

	select {
	case <-done:
		// let the release ramp finish before the device closes
		time.Sleep(100 * time.Millisecond)
	case <-ctx.Done():
		sched.Stop()
	}
	return nil
}
