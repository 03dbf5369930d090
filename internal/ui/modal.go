package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tagdeck/internal/workflow"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// saveModal asks for the directory to save the artifact into.
type saveModal struct {
	wf    *workflow.Workflow
	input textinput.Model
}

func newSaveModal(wf *workflow.Workflow, dir string) saveModal {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 1024
	in.Width = 48
	in.SetValue(dir)
	in.CursorEnd()
	in.Focus()
	return saveModal{wf: wf, input: in}
}

func (s saveModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Cancel):
			return s, nil, true
		case key.Matches(k, keys.Submit):
			dir := strings.TrimSpace(s.input.Value())
			if dir == "" {
				return s, nil, false
			}
			return s, saveCmd(s.wf, dir), true
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd, false
}

func (s saveModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	content := styles.Text.Bold(true).Render("Save to directory") + "\n\n" +
		s.input.View() + "\n\n" +
		styles.FaintText.Render("enter save · esc cancel")

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(56)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal.Render(content))
}
