package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/avlasenko/taxikit/internal/checklist"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

// periodSubmittedMsg reports the submit-for-review call.
type periodSubmittedMsg struct {
	err error
}

// paymentView gates the final submission on a complete checklist.
type paymentView struct {
	state *SharedState
	busy  bool
	err   error
}

func newPaymentView(state *SharedState) *paymentView {
	return &paymentView{state: state}
}

func (v *paymentView) ID() ViewID    { return ViewPayment }
func (v *paymentView) Title() string { return "Payment" }

func (v *paymentView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit for review")),
	}
}

func (v *paymentView) Init() tea.Cmd { return nil }

func (v *paymentView) submit() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		err := app.Client.SubmitPeriod(context.Background(), app.Cfg.Year)
		return periodSubmittedMsg{err: err}
	}
}

func (v *paymentView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case periodSubmittedMsg:
		v.busy = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.state.Flow.MarkStale()
		return v, tea.Batch(
			notice(formatter.StyleGreen.Render("✓ Submitted for review")),
			syncFlow(),
		)

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		if msg.String() == "enter" && v.checklistComplete() {
			return v, pushView(v.newConfirmForm())
		}
	}
	return v, nil
}

func (v *paymentView) checklistComplete() bool {
	snap, _, _ := v.state.Snapshot()
	return snap != nil && snap.ChecklistComplete()
}

func (v *paymentView) newConfirmForm() View {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Submit for review?").
			Description("Your firm takes over from here. You can still chat with them afterwards.").
			Affirmative("Submit").
			Negative("Not yet").
			Value(&confirmed),
	))
	return newFormView(v.state, "Confirm", form, func() tea.Cmd {
		if !confirmed {
			return nil
		}
		v.busy = true
		v.err = nil
		return v.submit()
	})
}

func (v *paymentView) View() string {
	var b strings.Builder

	b.WriteString("\n" + formatter.Header("Payment and submission") + "\n\n")

	snap, _, _ := v.state.Snapshot()
	if snap != nil && len(snap.Checklist) > 0 {
		counts := checklist.Summarize(snap.Checklist)
		b.WriteString("  " + formatter.RenderProgress(doneFraction(counts), 24))
		b.WriteString(formatter.Dim("  documents in") + "\n\n")
	}

	if v.checklistComplete() {
		b.WriteString("  " + formatter.StyleGreen.Render("All documents are in."))
		b.WriteString("\n  " + formatter.Dim("Press enter to submit your return for review."))
	} else {
		b.WriteString("  " + formatter.StyleYellow.Render("Some documents are still missing."))
		b.WriteString("\n  " + formatter.Dim("The firm needs the full checklist before you can submit."))
	}

	if v.busy {
		b.WriteString("\n\n  " + formatter.Dim("Submitting…"))
	}
	if v.err != nil {
		b.WriteString("\n\n  " + formatter.StyleRed.Render(v.err.Error()))
	}

	return b.String()
}
