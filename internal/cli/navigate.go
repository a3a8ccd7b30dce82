package cli

import tea "github.com/charmbracelet/bubbletea"

// Navigation messages used by views to request view transitions.
// The appModel handles these in its Update method.

// pushViewMsg pushes a new view onto the navigation stack.
type pushViewMsg struct {
	view View
}

// popViewMsg pops the current view off the navigation stack,
// returning to the previous view.
type popViewMsg struct{}

// replaceViewMsg replaces the current top view with a new one.
type replaceViewMsg struct {
	view View
}

// refreshViewMsg tells every view on the stack to reload its data.
// Broadcast after any mutation so underlying views pick up the change.
type refreshViewMsg struct{}

// flowSyncMsg asks the appModel to re-fetch the period status and
// re-select the base screen.
type flowSyncMsg struct{}

// flowSyncedMsg reports the result of a period status refresh.
type flowSyncedMsg struct {
	err error
}

// noticeMsg carries a transient status line shown under the header.
type noticeMsg struct {
	text string
}

// wizardCompleteMsg is sent when a form view completes or is cancelled.
// The appModel handles it atomically: pop the form view, then run nextCmd.
type wizardCompleteMsg struct {
	nextCmd tea.Cmd
}

// quitMsg requests a clean exit.
type quitMsg struct{}

// pushView returns a tea.Cmd that pushes a view onto the stack.
func pushView(v View) tea.Cmd {
	return func() tea.Msg { return pushViewMsg{view: v} }
}

// popView returns a tea.Cmd that pops the current view.
func popView() tea.Cmd {
	return func() tea.Msg { return popViewMsg{} }
}

// replaceView returns a tea.Cmd that replaces the top view.
func replaceView(v View) tea.Cmd {
	return func() tea.Msg { return replaceViewMsg{view: v} }
}

// refreshViews returns a tea.Cmd that broadcasts a data reload.
func refreshViews() tea.Cmd {
	return func() tea.Msg { return refreshViewMsg{} }
}

// syncFlow returns a tea.Cmd that triggers a period status re-fetch.
func syncFlow() tea.Cmd {
	return func() tea.Msg { return flowSyncMsg{} }
}

// notice returns a tea.Cmd that shows a transient status line.
func notice(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{text: text} }
}
