package cli

import (
	tea "github.com/charmbracelet/bubbletea"
)

// runTUI starts the interactive program. The base screen follows the
// flow state; a fatal auth failure aborts with the underlying error.
func runTUI(app *App) error {
	m := newAppModel(app)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(appModel); ok && fm.fatalErr != nil {
		return fm.fatalErr
	}
	return nil
}
