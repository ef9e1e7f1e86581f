package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Translate key.Binding
	NextPair  key.Binding
	PrevPair  key.Binding
	Swap      key.Binding
	Copy      key.Binding
	Speak     key.Binding
	Clear     key.Binding
	Refresh   key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Translate: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "translate")),
		NextPair:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pair")),
		PrevPair:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pair")),
		Swap:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "swap")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Speak:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "speak")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Refresh:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "refresh status")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Help:      key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Translate, k.NextPair, k.Swap, k.Copy, k.Speak, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Translate, k.Clear, k.Quit},
		{k.NextPair, k.PrevPair, k.Swap},
		{k.Copy, k.Speak},
		{k.Refresh, k.Dismiss, k.Help},
	}
}
