package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Cancel     key.Binding

	// Link and editor
	Submit       key.Binding
	NextField    key.Binding
	PrevField    key.Binding
	Download     key.Binding
	ToggleSource key.Binding
	GuessTitle   key.Binding

	// Complete
	Save    key.Binding
	SaveAs  key.Binding
	Restart key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel request"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Extract / load image"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Download: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Download"),
		),
		ToggleSource: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "Toggle cover source"),
		),
		GuessTitle: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "Split artist - title"),
		),

		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save to output dir"),
		),
		SaveAs: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Save to..."),
		),
		Restart: key.NewBinding(
			key.WithKeys("n", "ctrl+n"),
			key.WithHelp("n", "New link"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Cancel},
		{k.NextField, k.PrevField, k.Download, k.ToggleSource, k.GuessTitle},
		{k.Save, k.SaveAs, k.Restart},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
