// internal/tui/keys.go
package tui

import "github.com/charmbracelet/bubbles/key"

// Printable keys type into the answer field, so every binding uses a
// control or function key.
type keyMap struct {
	Submit    key.Binding
	Skip      key.Binding
	Replay    key.Binding
	Stop      key.Binding
	Mode      key.Binding
	Played    key.Binding
	LevelUp   key.Binding
	LevelDown key.Binding
	AutoPlay  key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit / next")),
		Skip:      key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "skip")),
		Replay:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "replay")),
		Stop:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "stop")),
		Mode:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "mode")),
		Played:    key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "mark played")),
		LevelUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "level +")),
		LevelDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "level -")),
		AutoPlay:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "auto-play")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Replay, k.Stop, k.Mode, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Skip, k.Replay, k.Stop},
		{k.Mode, k.Played, k.AutoPlay},
		{k.LevelUp, k.LevelDown, k.Help, k.Quit},
	}
}
