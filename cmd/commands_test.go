package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ColonelBlimp/kochtrainer/internal/audio"
	"github.com/ColonelBlimp/kochtrainer/internal/dsp"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
	"github.com/ColonelBlimp/kochtrainer/internal/storage"
	"github.com/ColonelBlimp/kochtrainer/internal/timer"
)

// seedFileStats records submissions into a file backend in dir.
func seedFileStats(t *testing.T, dir string, subs ...state.Submission) {
	t.Helper()
	f, err := storage.NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer f.Close()
	s, err := state.New(state.Config{Sink: f, Timers: timer.NewManual()})
	if err != nil {
		t.Fatalf("state.New() error = %v", err)
	}
	for _, sub := range subs {
		s.Record(sub)
	}
	if err := s.SaveStats(); err != nil {
		t.Fatalf("SaveStats() error = %v", err)
	}
}

func TestSettingsCmd_SetAndShow(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")

	out, err := execute(t, "settings", "set", "wpm", "25", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("settings set error = %v", err)
	}
	if !strings.Contains(out, "wpm = 25") {
		t.Errorf("settings set output = %q, want it to contain %q", out, "wpm = 25")
	}

	resetViperForTest()
	out, err = execute(t, "settings", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("settings error = %v", err)
	}
	for _, want := range []string{"wpm", "25", "difficultyPreference", "(Normal)"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings output missing %q:\n%s", want, out)
		}
	}
}

func TestSettingsCmd_ManualChars(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")

	out, err := execute(t, "settings", "set", "manualChars", "Q", "Z", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("settings set error = %v", err)
	}
	if !strings.Contains(out, "manualChars = QZ") {
		t.Errorf("settings set output = %q, want it to contain %q", out, "manualChars = QZ")
	}
}

func TestSettingsCmd_InvalidValue(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"out of range", []string{"wpm", "99"}},
		{"not a number", []string{"frequency", "loud"}},
		{"unknown key", []string{"colour", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest()
			args := append([]string{"settings", "set"}, tt.args...)
			args = append(args, "--backend", "memory", "--data-dir", home)
			if _, err := execute(t, args...); err == nil {
				t.Errorf("settings set %v error = nil, want error", tt.args)
			}
		})
	}
}

func TestWriteSettings(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSettings(&buf, state.DefaultSettings()); err != nil {
		t.Fatalf("writeSettings() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(state.Keys) {
		t.Fatalf("writeSettings() wrote %d lines, want %d", len(lines), len(state.Keys))
	}
	if !strings.HasPrefix(lines[0], state.KeyWPM) || !strings.HasSuffix(lines[0], "20") {
		t.Errorf("first line = %q, want wpm 20", lines[0])
	}
}

func TestCheckCmd(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "check", "--backend", "memory", "--data-dir", home)
	if err != nil {
		t.Fatalf("check error = %v\n%s", err, out)
	}
	for _, want := range []string{"PARIS", "OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestMeasureKeying(t *testing.T) {
	tests := []struct {
		text     string
		elements int
	}{
		{"E", 1},
		{"PARIS", 14},
		{"K M", 5},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p := audio.Params{WPM: 20, FarnsworthWPM: 10, Frequency: 600, Volume: 0.5}
			r, err := measureKeying(tt.text, p, 48000)
			if err != nil {
				t.Fatalf("measureKeying() error = %v", err)
			}
			if r.Elements != tt.elements {
				t.Errorf("Elements = %d, want %d", r.Elements, tt.elements)
			}
			if err := r.check(); err != nil {
				t.Errorf("check() error = %v", err)
			}
		})
	}
}

func TestMeasureKeying_InvalidParams(t *testing.T) {
	p := audio.Params{WPM: 0, FarnsworthWPM: 10, Frequency: 600, Volume: 0.5}
	if _, err := measureKeying("E", p, 48000); err == nil {
		t.Error("measureKeying() error = nil, want error")
	}
}

func TestToneReport_Check(t *testing.T) {
	good := toneReport{
		Elements:     3,
		Keyed:        0.3,
		Measurement:  dsp.ToneMeasurement{Bursts: 3, Duration: 0.305, Peak: 0.49},
		ExpectedPeak: 0.5,
	}

	tests := []struct {
		name    string
		modify  func(r *toneReport)
		wantErr bool
	}{
		{"matching", func(r *toneReport) {}, false},
		{"merged bursts", func(r *toneReport) { r.Measurement.Bursts = 2 }, true},
		{"too long", func(r *toneReport) { r.Measurement.Duration = 0.35 }, true},
		{"quiet", func(r *toneReport) { r.Measurement.Peak = 0.2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.modify(&r)
			err := r.check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrCheckFailed) {
				t.Errorf("check() error = %v, want ErrCheckFailed", err)
			}
		})
	}
}

func TestBlockFor(t *testing.T) {
	tests := []struct {
		freq, rate float64
		want       int
	}{
		{600, 48000, 240},
		{700, 48000, 274},
		{650, 44100, 271},
	}

	for _, tt := range tests {
		if got := blockFor(tt.freq, tt.rate); got != tt.want {
			t.Errorf("blockFor(%v, %v) = %d, want %d", tt.freq, tt.rate, got, tt.want)
		}
	}
}

func TestStatsCmd_FileBackend(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")
	seedFileStats(t, dir,
		state.Submission{Challenge: "KM", UserInput: "KM", Correct: true},
		state.Submission{Challenge: "KMU", UserInput: "KMR", Correct: false},
	)

	out, err := execute(t, "stats", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"char", "50%", "KMU", "KMR", "Recent"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCmd_Empty(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "stats", "--backend", "memory", "--data-dir", home)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if !strings.Contains(out, "no attempts recorded yet") {
		t.Errorf("stats output = %q, want empty notice", out)
	}
}

func TestStatsCmd_SQLiteArchive(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")

	db, err := storage.OpenSQLite(filepath.Join(dir, storage.DatabaseFile))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	err = db.AppendAttempt(context.Background(), storage.Attempt{
		SessionID: "test",
		At:        time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC),
		Challenge: "PARIS",
		Input:     "PARIS",
		Correct:   true,
		Level:     12,
	})
	if err != nil {
		t.Fatalf("AppendAttempt() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out, err := execute(t, "stats", "--backend", "sqlite", "--data-dir", dir, "--last", "5")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"PARIS", "2026-03-01 18:30", "✓"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestResetCmd_Yes(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")
	seedFileStats(t, dir, state.Submission{Challenge: "KM", UserInput: "KM", Correct: true})

	out, err := execute(t, "reset", "--yes", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "statistics wiped") {
		t.Errorf("reset output = %q, want confirmation", out)
	}

	resetViperForTest()
	out, err = execute(t, "stats", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if !strings.Contains(out, "no attempts recorded yet") {
		t.Errorf("stats after reset = %q, want empty notice", out)
	}
}

func TestResetCmd_Aborted(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, "data")
	seedFileStats(t, dir, state.Submission{Challenge: "KM", UserInput: "KM", Correct: true})

	// no answer on stdin
	out, err := execute(t, "reset", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "aborted") {
		t.Errorf("reset output = %q, want aborted", out)
	}

	resetViperForTest()
	out, err = execute(t, "stats", "--backend", "file", "--data-dir", dir)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if strings.Contains(out, "no attempts recorded yet") {
		t.Errorf("stats after aborted reset lost data:\n%s", out)
	}
}

func TestParams(t *testing.T) {
	s := state.DefaultSettings()
	p := params(s)
	if p.WPM != s.WPM || p.FarnsworthWPM != s.FarnsworthWPM {
		t.Errorf("params() speeds = %d/%d, want %d/%d", p.WPM, p.FarnsworthWPM, s.WPM, s.FarnsworthWPM)
	}
	if p.Frequency != float64(s.Frequency) || p.Volume != s.Volume {
		t.Errorf("params() tone = %v Hz %v, want %d Hz %v", p.Frequency, p.Volume, s.Frequency, s.Volume)
	}
}
