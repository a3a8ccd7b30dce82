package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/domain"
)

// firmsLoadedMsg signals that the firm marketplace has been loaded.
type firmsLoadedMsg struct {
	firms []domain.Firm
	err   error
}

// firmSelectedMsg reports the result of a firm selection call.
type firmSelectedMsg struct {
	name string
	err  error
}

// firmSelectView lets the driver browse firms and pick one.
type firmSelectView struct {
	state   *SharedState
	firms   []domain.Firm
	cursor  int
	loading bool
	busy    bool
	err     error
}

func newFirmSelectView(state *SharedState) *firmSelectView {
	return &firmSelectView{state: state, loading: true}
}

func (v *firmSelectView) ID() ViewID    { return ViewFirmSelect }
func (v *firmSelectView) Title() string { return "Choose a firm" }

func (v *firmSelectView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select firm")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "move")),
	}
}

func (v *firmSelectView) Init() tea.Cmd {
	return v.loadFirms()
}

func (v *firmSelectView) loadFirms() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		firms, err := app.Client.ListFirms(context.Background())
		return firmsLoadedMsg{firms: firms, err: err}
	}
}

func (v *firmSelectView) selectFirm(firm domain.Firm) tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		err := app.Client.SelectFirm(context.Background(), firm.ID)
		return firmSelectedMsg{name: firm.Name, err: err}
	}
}

func (v *firmSelectView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case firmsLoadedMsg:
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.firms = msg.firms
			if v.cursor >= len(v.firms) {
				v.cursor = 0
			}
		}
		return v, nil

	case firmSelectedMsg:
		v.busy = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		// Selection moves the flow forward; the snapshot is out of date
		// until the refresh lands.
		v.state.Flow.MarkStale()
		return v, tea.Batch(
			notice(formatter.StyleGreen.Render("✓ Selected "+msg.name)),
			syncFlow(),
		)

	case refreshViewMsg:
		v.loading = true
		return v, v.loadFirms()

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(v.firms)-1 {
				v.cursor++
			}
		case "enter":
			if v.cursor < len(v.firms) {
				v.busy = true
				v.err = nil
				return v, v.selectFirm(v.firms[v.cursor])
			}
		}
	}
	return v, nil
}

func (v *firmSelectView) View() string {
	var b strings.Builder

	b.WriteString("\n" + formatter.Header("Choose a tax firm") + "\n\n")

	switch {
	case v.loading:
		b.WriteString("  " + formatter.Dim("Loading firms…"))
	case v.err != nil:
		b.WriteString("  " + formatter.StyleRed.Render(v.err.Error()))
	case len(v.firms) == 0:
		b.WriteString("  " + formatter.Dim("No firms available right now."))
	default:
		for i, f := range v.firms {
			marker := "  "
			name := f.Name
			if i == v.cursor {
				marker = formatter.StylePurple.Render("▸ ")
				name = formatter.Bold(name)
			}
			b.WriteString(fmt.Sprintf("%s%s  %s  %s\n",
				marker, name,
				formatter.StyleGreen.Render(f.DisplayPrice()),
				formatter.StyleYellow.Render(f.DisplayRating())))
			if f.Description != "" {
				b.WriteString("    " + formatter.Dim(f.Description) + "\n")
			}
		}
		if v.busy {
			b.WriteString("\n  " + formatter.Dim("Selecting…"))
		}
	}

	return b.String()
}
