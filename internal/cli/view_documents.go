package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/avlasenko/taxikit/internal/checklist"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

// documentUploadedMsg reports an upload attempt for one checklist item.
type documentUploadedMsg struct {
	code string
	err  error
}

// documentsView renders the grouped checklist and drives uploads.
type documentsView struct {
	state  *SharedState
	cursor int
	busy   bool
	err    error
}

func newDocumentsView(state *SharedState) *documentsView {
	return &documentsView{state: state}
}

func (v *documentsView) ID() ViewID    { return ViewDocuments }
func (v *documentsView) Title() string { return "Documents" }

func (v *documentsView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "move")),
	}
}

func (v *documentsView) Init() tea.Cmd { return nil }

// items returns the current checklist in display order.
func (v *documentsView) items() []checklist.Item {
	snap, _, _ := v.state.Snapshot()
	if snap == nil {
		return nil
	}
	return checklist.Build(snap.Checklist)
}

// actionableAt maps the cursor to the nth actionable item.
func (v *documentsView) actionableAt(n int) (checklist.Item, bool) {
	i := 0
	for _, item := range v.items() {
		if !item.Actionable {
			continue
		}
		if i == n {
			return item, true
		}
		i++
	}
	return checklist.Item{}, false
}

func (v *documentsView) actionableCount() int {
	n := 0
	for _, item := range v.items() {
		if item.Actionable {
			n++
		}
	}
	return n
}

// upload streams the file and optimistically promotes the item; the
// follow-up status fetch is authoritative and may undo the promotion.
func (v *documentsView) upload(code, path string) tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return documentUploadedMsg{code: code, err: err}
		}
		defer f.Close()

		err = app.Client.UploadDocument(context.Background(),
			app.Cfg.DriverID, app.Cfg.Year, code, filepath.Base(path), f)
		return documentUploadedMsg{code: code, err: err}
	}
}

func (v *documentsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case documentUploadedMsg:
		v.busy = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.state.Flow.PromoteUploaded(msg.code)
		return v, tea.Batch(
			notice(formatter.StyleGreen.Render("✓ Uploaded "+msg.code)),
			syncFlow(),
		)

	case refreshViewMsg:
		if v.cursor >= v.actionableCount() {
			v.cursor = 0
		}
		return v, nil

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
			if v.cursor < v.actionableCount()-1 {
				v.cursor++
			}
		case "enter", "u":
			if item, ok := v.actionableAt(v.cursor); ok {
				return v, pushView(v.newUploadForm(item))
			}
		}
	}
	return v, nil
}

// newUploadForm asks for a file path and kicks off the upload.
func (v *documentsView) newUploadForm(item checklist.Item) View {
	var path string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Upload " + item.DocumentCode).
			Description("Path to the file").
			Value(&path).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("enter a file path")
				}
				if _, err := os.Stat(strings.TrimSpace(s)); err != nil {
					return fmt.Errorf("file not found")
				}
				return nil
			}),
	))
	return newFormView(v.state, "Upload", form, func() tea.Cmd {
		v.busy = true
		return v.upload(item.DocumentCode, strings.TrimSpace(path))
	})
}

func (v *documentsView) View() string {
	var b strings.Builder

	b.WriteString("\n" + formatter.Header("Document checklist") + "\n\n")

	items := v.items()
	if len(items) == 0 {
		b.WriteString("  " + formatter.Dim("No documents requested yet."))
		return b.String()
	}

	snap, _, _ := v.state.Snapshot()
	counts := checklist.Summarize(snap.Checklist)
	b.WriteString(fmt.Sprintf("  %s %s\n\n",
		formatter.RenderProgress(doneFraction(counts), 24),
		formatter.Dim(fmt.Sprintf("%d of %d in", counts.Done, counts.Total))))

	actionableIdx := 0
	prev := checklist.Group(-1)
	for _, item := range items {
		if item.Group != prev {
			if prev != checklist.Group(-1) {
				b.WriteString("\n")
			}
			b.WriteString("  " + formatter.Bold(groupLabel(item.Group)) + "\n")
			prev = item.Group
		}

		marker := "    "
		name := item.DocumentCode
		if item.Actionable {
			if actionableIdx == v.cursor {
				marker = "  " + formatter.StylePurple.Render("▸ ")
				name = formatter.Bold(name)
			}
			actionableIdx++
		}
		b.WriteString(fmt.Sprintf("%s%-16s %s\n", marker, name, formatter.StatusPill(item.Status)))
	}

	if v.busy {
		b.WriteString("\n  " + formatter.Dim("Uploading…") + "\n")
	}
	if v.err != nil {
		b.WriteString("\n  " + formatter.StyleRed.Render(v.err.Error()) + "\n")
	}

	return b.String()
}

func groupLabel(g checklist.Group) string {
	if g == checklist.GroupPersonal {
		return "Personal"
	}
	return "Tax documents"
}

func doneFraction(c checklist.Counts) float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Done) / float64(c.Total)
}
