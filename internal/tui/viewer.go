package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewerModel renders a finished report once and exits.
type ViewerModel struct {
	view string
}

func NewViewer(view string) ViewerModel {
	return ViewerModel{view: view}
}

func (model ViewerModel) Init() tea.Cmd {
	return tea.Quit
}

func (model ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return model, tea.Quit
}

func (model ViewerModel) View() string {
	return model.view + "\n"
}

// Show writes view through bubbletea when in and out are terminals, and
// falls back to fallback otherwise.
func Show(view string, quiet bool, in io.Reader, out io.Writer, fallback func(string)) error {
	if !ShouldUseTUI(quiet, in, out) {
		fallback(view)
		return nil
	}

	program := tea.NewProgram(NewViewer(view), ProgramOptions(in, out)...)
	_, err := program.Run()
	return err
}
