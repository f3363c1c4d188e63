// cmd/check.go
package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/dsp"
)

const (
	// checkBlock is the shortest Goertzel window in seconds; it is
	// stretched to a whole number of tone cycles
	checkBlock = 0.005
	// checkHop is the analysis step in seconds
	checkHop = 0.001
	// checkThreshold is the on level relative to the peak
	checkThreshold = 0.5
	// checkTolerance is the allowed keyed-time error in seconds
	checkTolerance = 0.004
)

// ErrCheckFailed is returned when the rendered tone does not match the keying
var ErrCheckFailed = errors.New("tone check failed")

var checkCmd = &cobra.Command{
	Use:   "check [text...]",
	Short: "Verify keying offline",
	Long: `Renders text through the mixer without an audio device and measures it
with a Goertzel filter at the configured pitch: every element must show up as
a separate burst of the right total length. Uses your learner settings.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// toneReport compares what was keyed with what the filter heard.
type toneReport struct {
	Elements     int
	Keyed        float64
	Measurement  dsp.ToneMeasurement
	ExpectedPeak float64
}

func (r toneReport) check() error {
	var errs []error
	if r.Measurement.Bursts != r.Elements {
		errs = append(errs, fmt.Errorf("heard %d bursts, keyed %d elements", r.Measurement.Bursts, r.Elements))
	}
	if diff := math.Abs(r.Measurement.Duration - r.Keyed); diff > checkTolerance*float64(r.Elements) {
		errs = append(errs, fmt.Errorf("heard %.3fs of tone, keyed %.3fs", r.Measurement.Duration, r.Keyed))
	}
	if r.Measurement.Peak < 0.9*r.ExpectedPeak {
		errs = append(errs, fmt.Errorf("peak level %.3f, want about %.3f", r.Measurement.Peak, r.ExpectedPeak))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCheckFailed, errors.Join(errs...))
	}
	return nil
}

func blockFor(freq, rate float64) int {
	cycles := math.Ceil(checkBlock * freq)
	return int(math.Round(cycles * rate / freq))
}

func measureKeying(text string, p audio.Params, sampleRate uint32) (toneReport, error) {
	samples, tones, err := audio.RenderOffline(text, p, sampleRate)
	if err != nil {
		return toneReport{}, err
	}
	rate := float64(sampleRate)
	gz, err := dsp.NewGoertzel(dsp.GoertzelConfig{
		TargetFrequency: p.Frequency,
		SampleRate:      rate,
		BlockSize:       blockFor(p.Frequency, rate),
	})
	if err != nil {
		return toneReport{}, err
	}
	m, err := gz.Measure(samples, int(checkHop*rate), checkThreshold)
	if err != nil {
		return toneReport{}, err
	}

	r := toneReport{Elements: len(tones), Measurement: m, ExpectedPeak: p.Volume}
	for _, t := range tones {
		r.Keyed += t.Duration
	}
	return r, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	text := "PARIS"
	if len(args) > 0 {
		text = strings.ToUpper(strings.Join(args, " "))
	}
	p := params(rt.store.Settings())

	r, err := measureKeying(text, p, uint32(rt.cfg.SampleRate))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %s\n", "text", text)
	fmt.Fprintf(out, "%-10s %d/%d wpm, %d Hz\n", "keying", p.WPM, p.FarnsworthWPM, int(p.Frequency))
	fmt.Fprintf(out, "%-10s %d keyed, %d heard\n", "elements", r.Elements, r.Measurement.Bursts)
	fmt.Fprintf(out, "%-10s %.3fs keyed, %.3fs heard\n", "tone time", r.Keyed, r.Measurement.Duration)
	fmt.Fprintf(out, "%-10s %.3f\n", "peak", r.Measurement.Peak)

	if err := r.check(); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}
