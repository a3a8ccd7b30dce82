package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

// waitingView is shown before the first status fetch succeeds, and for
// any flow state this client does not know how to render.
type waitingView struct {
	state *SharedState
}

func newWaitingView(state *SharedState) *waitingView {
	return &waitingView{state: state}
}

func (v *waitingView) ID() ViewID    { return ViewWaiting }
func (v *waitingView) Title() string { return "" }
func (v *waitingView) ShortHelp() []key.Binding {
	return nil
}

func (v *waitingView) Init() tea.Cmd { return nil }

func (v *waitingView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return v, nil
}

func (v *waitingView) View() string {
	_, _, lastErr := v.state.Snapshot()
	if lastErr != nil {
		return "\n  " + formatter.StyleYellow.Render("Could not reach the server.") +
			"\n  " + formatter.Dim("Press r to retry.")
	}
	return "\n  " + formatter.Dim("Waiting for instructions…")
}

// notStartedView is shown when the firm has not opened the filing
// period for this driver yet.
type notStartedView struct {
	state *SharedState
}

func newNotStartedView(state *SharedState) *notStartedView {
	return &notStartedView{state: state}
}

func (v *notStartedView) ID() ViewID    { return ViewNotStarted }
func (v *notStartedView) Title() string { return "Not started" }
func (v *notStartedView) ShortHelp() []key.Binding {
	return nil
}

func (v *notStartedView) Init() tea.Cmd { return nil }

func (v *notStartedView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return v, nil
}

func (v *notStartedView) View() string {
	snap, _, _ := v.state.Snapshot()

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(formatter.Bold(fmt.Sprintf("Tax year %d has not started yet.", v.state.Flow.Year())))
	b.WriteString("\n")
	if snap != nil && snap.Message != "" {
		b.WriteString("  " + formatter.Dim(snap.Message) + "\n")
	}
	b.WriteString("\n  " + formatter.Dim("Your firm will open the season when it is ready. Press r to check again."))
	return b.String()
}

// reviewView is the terminal screen: everything is with the firm.
type reviewView struct {
	state *SharedState
}

func newReviewView(state *SharedState) *reviewView {
	return &reviewView{state: state}
}

func (v *reviewView) ID() ViewID    { return ViewReview }
func (v *reviewView) Title() string { return "In review" }
func (v *reviewView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chat with firm")),
	}
}

func (v *reviewView) Init() tea.Cmd { return nil }

func (v *reviewView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return v, nil
}

func (v *reviewView) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(formatter.StyleGreen.Render("✓ Your return is with the firm."))
	b.WriteString("\n\n  ")
	b.WriteString(formatter.Dim("They will reach out in chat if anything else is needed."))

	snap, _, _ := v.state.Snapshot()
	if snap != nil && snap.Stage != "" {
		b.WriteString("\n  " + formatter.Dim("Stage: "+snap.Stage))
	}
	return b.String()
}
