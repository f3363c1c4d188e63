// internal/tui/model.go
// Package tui is the Bubble Tea shell around a training session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/kochtrainer/internal/accuracy"
	"github.com/ColonelBlimp/kochtrainer/internal/events"
	"github.com/ColonelBlimp/kochtrainer/internal/koch"
	"github.com/ColonelBlimp/kochtrainer/internal/logging"
	"github.com/ColonelBlimp/kochtrainer/internal/session"
	"github.com/ColonelBlimp/kochtrainer/internal/state"
)

// Trainer is the part of *session.Controller the shell drives.
type Trainer interface {
	View() session.View
	GenerateNext(ctx context.Context) error
	Skip(ctx context.Context) error
	Replay() error
	MarkPlayed() bool
	Stop()
	CheckAnswer(input string) (session.Judgement, bool)
	LevelNext() bool
	LevelPrev() bool
	SetMode(m session.Mode)
	UpdateSetting(key string, value any) error
	Unlocked() koch.UnlockedSet
}

// Config holds the shell's collaborators. Accuracy may be nil.
type Config struct {
	Trainer  Trainer
	Events   *Pump
	Accuracy func() *accuracy.Tracker
	Log      *zap.Logger
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	hiddenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	correctStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#40A9FF"))
	weakStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	moderateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	strongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type generatedMsg struct {
	err error
}

// Model implements tea.Model.
type Model struct {
	trainer  Trainer
	pump     *Pump
	accuracy func() *accuracy.Tracker
	log      *zap.Logger

	input textinput.Model
	help  help.Model
	keys  keyMap

	view      session.View
	challenge events.ChallengeGenerated
	judged    *events.AnswerJudged
	weak      []rune
	warning   string
	notice    string
	busy      bool

	width  int
	height int
}

// New builds the shell model.
func New(cfg Config) *Model {
	ti := textinput.New()
	ti.Placeholder = "type what you heard"
	ti.CharLimit = 64
	ti.Prompt = "> "
	ti.Focus()

	m := &Model{
		trainer:  cfg.Trainer,
		pump:     cfg.Events,
		accuracy: cfg.Accuracy,
		log:      logging.OrNop(cfg.Log),
		input:    ti,
		help:     help.New(),
		keys:     defaultKeys(),
	}
	m.view = m.trainer.View()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.pump))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case eventMsg:
		m.handleEvent(msg.event)
		m.view = m.trainer.View()
		return m, waitForEvent(m.pump)
	case generatedMsg:
		m.busy = false
		if msg.err != nil && !errors.Is(msg.err, session.ErrSuperseded) {
			m.warning = msg.err.Error()
			m.log.Warn("generate", zap.Error(msg.err))
		}
		m.view = m.trainer.View()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.trainer.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.Skip):
		return m, m.generate(m.trainer.Skip)
	case key.Matches(msg, m.keys.Replay):
		if err := m.trainer.Replay(); err != nil {
			m.warning = err.Error()
		}
	case key.Matches(msg, m.keys.Stop):
		m.trainer.Stop()
	case key.Matches(msg, m.keys.Mode):
		next := session.Mode((int(m.view.Mode) + 1) % 3)
		m.trainer.SetMode(next)
		m.notice = "mode: " + next.String()
	case key.Matches(msg, m.keys.Played):
		m.trainer.MarkPlayed()
	case key.Matches(msg, m.keys.LevelUp):
		m.trainer.LevelNext()
	case key.Matches(msg, m.keys.LevelDown):
		m.trainer.LevelPrev()
	case key.Matches(msg, m.keys.AutoPlay):
		on := !m.view.Settings.AutoPlay
		if err := m.trainer.UpdateSetting(state.KeyAutoPlay, on); err != nil {
			m.warning = err.Error()
		} else {
			m.notice = fmt.Sprintf("auto-play: %t", on)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.view = m.trainer.View()
	return m, nil
}

// submit judges the typed answer when input is expected, otherwise it
// moves on to the next challenge.
func (m *Model) submit() tea.Cmd {
	m.view = m.trainer.View()
	if m.view.State == session.AwaitingInput {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return nil
		}
		if _, ok := m.trainer.CheckAnswer(text); ok {
			m.input.Reset()
		}
		m.view = m.trainer.View()
		return nil
	}
	if m.view.State == session.Playing {
		return nil
	}
	return m.generate(m.trainer.GenerateNext)
}

// generate runs fn off the update loop; the external generator may take
// seconds to answer.
func (m *Model) generate(fn func(context.Context) error) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.judged = nil
	m.warning = ""
	m.input.Reset()
	return func() tea.Msg {
		return generatedMsg{err: fn(context.Background())}
	}
}

func (m *Model) handleEvent(e events.Event) {
	switch e := e.(type) {
	case events.ChallengeGenerated:
		m.challenge = e
		m.judged = nil
	case events.AnswerJudged:
		j := e
		m.judged = &j
	case events.LevelChanged:
		dir := "down"
		if e.Up() {
			dir = "up"
		}
		how := "manual"
		if e.Auto {
			how = "auto"
		}
		m.notice = fmt.Sprintf("level %s: %d -> %d (%s)", dir, e.From, e.To, how)
	case events.WeakCharsUpdated:
		m.weak = e.Chars
	case events.Warning:
		m.warning = e.String()
	case events.JinglePlayed:
		m.notice += " *"
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	s := m.view.Settings
	b.WriteString(titleStyle.Render("Koch trainer"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  level %d  %d/%d wpm  %d Hz  mode %s  %s",
		s.LessonLevel, s.WPM, s.FarnsworthWPM, s.Frequency, m.view.Mode, m.view.State)))
	b.WriteString("\n\n")

	b.WriteString(m.renderChallenge())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(panelStyle.Render(m.renderStats()))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.warning != "" {
		b.WriteString(warnStyle.Render(m.warning))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderChallenge() string {
	if m.busy && !m.view.HasChallenge {
		return hiddenStyle.Render("generating...")
	}
	if !m.view.HasChallenge {
		return hiddenStyle.Render("press enter to start")
	}
	if m.judged == nil {
		hidden := strings.Map(func(r rune) rune {
			if r == ' ' {
				return ' '
			}
			return '•'
		}, m.challenge.Text)
		line := hiddenStyle.Render(hidden)
		if m.view.State == session.Idle && !m.view.HasPlayed {
			line += labelStyle.Render("  (ctrl+p when heard)")
		}
		return line
	}

	var line string
	if m.judged.IsCorrect {
		line = correctStyle.Render("✓ " + m.judged.CorrectAnswer)
	} else {
		line = wrongStyle.Render("✗ "+m.judged.CorrectAnswer) + labelStyle.Render("  you: "+m.judged.UserAnswer)
	}
	if m.challenge.Meaning != "" {
		line += labelStyle.Render("  " + m.challenge.Meaning)
	}
	line += labelStyle.Render(fmt.Sprintf("  difficulty %d", m.challenge.Difficulty))
	return line
}

func (m *Model) renderStats() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("window %.0f%%  next difficulty %.1f",
		m.view.WindowAccuracy, m.view.Recommended)))
	b.WriteString("\n")

	unlocked := m.trainer.Unlocked().Runes()
	if m.accuracy != nil {
		cats := m.accuracy().Categorize(unlocked)
		b.WriteString(renderChars(cats))
	} else {
		b.WriteString(koch.FormatRunes(unlocked))
	}
	if len(m.weak) > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("weak: ") + weakStyle.Render(koch.FormatRunes(m.weak)))
	}
	return b.String()
}

func renderChars(c accuracy.Categories) string {
	parts := make([]string, 0, 3)
	if len(c.Strong) > 0 {
		parts = append(parts, strongStyle.Render(string(c.Strong)))
	}
	if len(c.Moderate) > 0 {
		parts = append(parts, moderateStyle.Render(string(c.Moderate)))
	}
	if len(c.Weak) > 0 {
		parts = append(parts, weakStyle.Render(string(c.Weak)))
	}
	return strings.Join(parts, " ")
}
