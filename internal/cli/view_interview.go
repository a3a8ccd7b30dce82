package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/avlasenko/taxikit/internal/wizard"
)

// expensesLoadedMsg carries the interview categories and the resolved
// business profile.
type expensesLoadedMsg struct {
	profileID int64
	cats      []domain.ExpenseCategory
	err       error
}

// stepSavedMsg reports an Advance call: the step may have persisted and
// moved, stayed on a validation error, or finished the interview.
type stepSavedMsg struct {
	outcome wizard.Outcome
	err     error
}

// interviewView walks the expense categories one question at a time.
type interviewView struct {
	state  *SharedState
	engine *wizard.Engine
	input  textinput.Model

	loading bool
	err     error  // load error
	stepErr string // inline validation or save error
}

func newInterviewView(state *SharedState) *interviewView {
	ti := textinput.New()
	ti.Prompt = "$ "
	ti.CharLimit = 12
	ti.Width = 14

	return &interviewView{
		state:   state,
		input:   ti,
		loading: true,
	}
}

func (v *interviewView) ID() ViewID    { return ViewInterview }
func (v *interviewView) Title() string { return "Expenses" }

func (v *interviewView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "yes/no")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "back")),
		key.NewBinding(key.WithKeys("up"), key.WithHelp("↑↓", "adjust")),
		key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "adjust more")),
	}
}

func (v *interviewView) Init() tea.Cmd {
	return tea.Batch(v.loadExpenses(), textinput.Blink)
}

func (v *interviewView) loadExpenses() tea.Cmd {
	app := v.state.App
	known := v.state.ProfileID
	return func() tea.Msg {
		ctx := context.Background()
		profileID, err := resolveProfileID(ctx, app, known)
		if err != nil {
			return expensesLoadedMsg{err: err}
		}
		cats, err := app.Client.GetExpenses(ctx, profileID, app.Cfg.Year)
		return expensesLoadedMsg{profileID: profileID, cats: cats, err: err}
	}
}

// advance runs the engine transition off the UI goroutine; the engine's
// busy flag keeps a second transition out while the save is in flight.
func (v *interviewView) advance(dir wizard.Direction) tea.Cmd {
	engine := v.engine
	return func() tea.Msg {
		outcome, err := engine.Advance(context.Background(), dir)
		return stepSavedMsg{outcome: outcome, err: err}
	}
}

// syncInput loads the current step's draft and answer into the text input.
func (v *interviewView) syncInput() {
	if v.engine == nil {
		return
	}
	_, answer, draft, ok := v.engine.Current()
	if !ok {
		return
	}
	v.input.SetValue(draft)
	v.input.CursorEnd()
	if answer == wizard.AnswerYes {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

func (v *interviewView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case expensesLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.state.ProfileID = msg.profileID
		if v.engine == nil {
			app := v.state.App
			profileID := msg.profileID
			save := func(ctx context.Context, code string, amount *float64) error {
				return app.Client.SaveExpense(ctx, profileID, app.Cfg.Year, api.ExpenseSave{Code: code, Amount: amount})
			}
			v.engine = wizard.New(msg.cats, save)
		} else {
			v.engine.SetCategories(msg.cats)
		}
		v.syncInput()
		return v, nil

	case stepSavedMsg:
		v.stepErr = ""
		if msg.err != nil {
			v.stepErr = msg.err.Error()
			return v, nil
		}
		if msg.outcome != wizard.OutcomeStayed {
			// The step persisted an answer, so the cached snapshot no
			// longer reflects the server until the next refresh.
			v.state.Flow.MarkStale()
		}
		v.syncInput()
		if msg.outcome == wizard.OutcomeFinished {
			return v, tea.Batch(
				notice(formatter.StyleGreen.Render("✓ Expense interview complete")),
				syncFlow(),
			)
		}
		return v, nil

	case refreshViewMsg:
		return v, v.loadExpenses()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *interviewView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.engine == nil {
		return v, nil
	}
	if v.engine.Saving() {
		return v, nil
	}

	_, answer, _, ok := v.engine.Current()
	if !ok {
		return v, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		v.stepErr = ""
		return v, v.advance(wizard.Forward)

	case tea.KeyShiftTab:
		v.stepErr = ""
		return v, v.advance(wizard.Backward)

	case tea.KeyTab:
		if answer == wizard.AnswerYes {
			v.engine.SetAnswer(wizard.AnswerNo)
		} else {
			v.engine.SetAnswer(wizard.AnswerYes)
		}
		v.syncInput()
		return v, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		if answer != wizard.AnswerYes {
			return v, nil
		}
		deltas := v.engine.QuickDeltas()
		delta := deltas[0]
		if msg.Type == tea.KeyPgUp || msg.Type == tea.KeyPgDown {
			delta = deltas[len(deltas)-1]
		}
		if msg.Type == tea.KeyDown || msg.Type == tea.KeyPgDown {
			delta = -delta
		}
		v.engine.QuickIncrement(delta)
		_, _, draft, _ := v.engine.Current()
		v.input.SetValue(draft)
		v.input.CursorEnd()
		return v, nil
	}

	if answer != wizard.AnswerYes {
		switch msg.String() {
		case "y":
			v.engine.SetAnswer(wizard.AnswerYes)
			v.syncInput()
			return v, nil
		case "n":
			v.engine.SetAnswer(wizard.AnswerNo)
			v.syncInput()
			return v, nil
		}
		return v, nil
	}

	// Answer is yes: the text input owns the keyboard.
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.engine.SetDraft(v.input.Value())
	return v, cmd
}

func (v *interviewView) View() string {
	var b strings.Builder

	b.WriteString("\n" + formatter.Header("Expense interview") + "\n\n")

	switch {
	case v.loading:
		b.WriteString("  " + formatter.Dim("Loading categories…"))
		return b.String()
	case v.err != nil:
		b.WriteString("  " + formatter.StyleRed.Render(v.err.Error()))
		b.WriteString("\n  " + formatter.Dim("Press r to retry."))
		return b.String()
	case v.engine == nil || v.engine.StepCount() == 0:
		b.WriteString("  " + formatter.Dim("No expense categories for this year."))
		return b.String()
	}

	cat, answer, _, _ := v.engine.Current()

	b.WriteString("  " + formatter.RenderProgress(v.engine.Progress(), 24))
	b.WriteString(formatter.Dim(fmt.Sprintf("  step %d of %d", v.engine.Step()+1, v.engine.StepCount())))
	b.WriteString("\n\n")

	b.WriteString("  " + formatter.Bold(fmt.Sprintf("Did you spend money on %s?", cat.Label)) + "\n")
	if cat.Hint != "" {
		b.WriteString("  " + formatter.Dim(cat.Hint) + "\n")
	}
	b.WriteString("\n")

	yes, no := "  yes", "  no"
	switch answer {
	case wizard.AnswerYes:
		yes = formatter.StyleGreen.Render("▸ yes")
	case wizard.AnswerNo:
		no = formatter.StyleRed.Render("▸ no")
	}
	b.WriteString("  " + yes + "   " + no + "\n")

	if answer == wizard.AnswerYes {
		b.WriteString("\n  " + v.input.View() + "\n")
		deltas := v.engine.QuickDeltas()
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("↑↓ ±%s  pgup/pgdn ±%s",
			wizard.FormatAmount(deltas[0]), wizard.FormatAmount(deltas[len(deltas)-1]))) + "\n")
	}

	if v.engine.Saving() {
		b.WriteString("\n  " + formatter.Dim("Saving…") + "\n")
	}
	if v.stepErr != "" {
		b.WriteString("\n  " + formatter.StyleRed.Render(v.stepErr) + "\n")
	}

	return b.String()
}
