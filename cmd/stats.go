// cmd/stats.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ColonelBlimp/kochtrainer/internal/accuracy"
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
	"github.com/ColonelBlimp/kochtrainer/internal/tui"
)

const defaultStatsWidth = 80

var (
	headingStyle  = lipgloss.NewStyle().Bold(true)
	weakStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	moderateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	strongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-character accuracy and recent attempts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntP("last", "n", 10, "number of recent attempts to list")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	last, _ := cmd.Flags().GetInt("last")
	settings := rt.store.Settings()
	stats := rt.store.Stats()
	unlocked := koch.Unlocked(settings.LessonLevel, settings.ManualChars)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s level %d, %d characters: %s\n",
		headingStyle.Render("Lesson"), settings.LessonLevel, unlocked.Len(), unlocked)
	fmt.Fprintf(out, "%s %d%% overall, %d challenges today\n\n",
		headingStyle.Render("Accuracy"), stats.Accuracy.OverallAccuracyPct(), stats.SessionMetrics.ChallengesInSession)

	writeCharTable(out, stats.Accuracy, unlocked.Runes(), terminalWidth())
	fmt.Fprintln(out)
	writeCategories(out, stats.Accuracy.Categorize(unlocked.Runes()))

	if last > 0 {
		fmt.Fprintln(out)
		if err := writeRecent(cmd, out, rt.archive(), stats, last); err != nil {
			return err
		}
	}
	return nil
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultStatsWidth
	}
	return w
}

// writeCharTable lists tracked characters, unlocked ones first, with an
// accuracy bar sized to the terminal.
func writeCharTable(out io.Writer, tr *accuracy.Tracker, unlocked []rune, width int) {
	chars := tr.Chars()
	if len(chars) == 0 {
		fmt.Fprintln(out, "no attempts recorded yet")
		return
	}
	in := make(map[rune]bool, len(unlocked))
	for _, r := range unlocked {
		in[r] = true
	}
	sort.Slice(chars, func(i, j int) bool {
		if in[chars[i]] != in[chars[j]] {
			return in[chars[i]]
		}
		return koch.Index(chars[i]) < koch.Index(chars[j])
	})

	barWidth := width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 40 {
		barWidth = 40
	}

	rows := make([][]string, 0, len(chars))
	for _, r := range chars {
		rec, _ := tr.Get(r)
		pct := tr.AccuracyPct(r)
		filled := pct * barWidth / 100
		rows = append(rows, []string{
			string(r),
			strconv.Itoa(pct) + "%",
			fmt.Sprintf("%d/%d", rec.Correct, rec.Total),
			strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled),
		})
	}
	for _, line := range tui.FormatTable([]string{"char", "acc", "hits", ""}, rows, map[int]bool{1: true, 2: true}) {
		fmt.Fprintln(out, line)
	}
}

func writeCategories(out io.Writer, c accuracy.Categories) {
	write := func(label string, style lipgloss.Style, rs []rune) {
		if len(rs) == 0 {
			return
		}
		fmt.Fprintf(out, "%-9s %s\n", label, style.Render(string(rs)))
	}
	write("strong", strongStyle, c.Strong)
	write("moderate", moderateStyle, c.Moderate)
	write("weak", weakStyle, c.Weak)
}

// writeRecent prints the newest attempts from the archive, or from the
// stored history when the backend keeps no archive.
func writeRecent(cmd *cobra.Command, out io.Writer, archive storage.Archive, stats state.Stats, n int) error {
	var rows [][]string
	if archive != nil {
		attempts, err := archive.RecentAttempts(cmd.Context(), n)
		if err != nil {
			return fmt.Errorf("read attempts: %w", err)
		}
		for _, a := range attempts {
			rows = append(rows, attemptRow(a.At.Format("2006-01-02 15:04"), a.Challenge, a.Input, a.Correct))
		}
	} else {
		for i, h := range stats.History {
			if i == n {
				break
			}
			rows = append(rows, attemptRow("", h.Challenge, h.UserInput, h.Correct))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintln(out, headingStyle.Render("Recent"))
	for _, line := range tui.FormatTable([]string{"when", "sent", "copied", ""}, rows, nil) {
		fmt.Fprintln(out, line)
	}
	return nil
}

func attemptRow(when, challenge, input string, correct bool) []string {
	mark := "✗"
	if correct {
		mark = "✓"
	}
	return []string{when, challenge, input, mark}
}
