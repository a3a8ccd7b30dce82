package cli

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/flow"
)

// appModel is the root bubbletea Model for the TUI. The base of the
// view stack is always the screen dictated by the flow state; overlays
// (chat, forms) stack on top of it.
type appModel struct {
	state     *SharedState
	viewStack []View
	quitting  bool

	// noticeText is a transient line under the header, cleared on the
	// next screen change.
	noticeText string

	// fatalErr aborts the TUI, printed by the caller after Run.
	fatalErr error
}

func newAppModel(app *App) appModel {
	state := &SharedState{
		App:  app,
		Flow: app.Flow,
	}
	m := appModel{state: state}
	m.viewStack = []View{newWaitingView(state)}
	return m
}

// activeView returns the top view on the stack, or nil.
func (m *appModel) activeView() View {
	if len(m.viewStack) == 0 {
		return nil
	}
	return m.viewStack[len(m.viewStack)-1]
}

// setActiveView replaces the top of the view stack.
func (m *appModel) setActiveView(v View) {
	if len(m.viewStack) > 0 {
		m.viewStack[len(m.viewStack)-1] = v
	}
}

// syncFlowCmd fetches the period status off the UI goroutine and
// caches the fresh snapshot for offline rendering.
func (m *appModel) syncFlowCmd() tea.Cmd {
	app := m.state.App
	return func() tea.Msg {
		ctx := context.Background()
		status, err := app.Flow.Refresh(ctx)
		if err == nil {
			if cacheErr := app.Cache.SaveSnapshot(ctx, app.Cfg.DriverID, app.Cfg.Year, *status); cacheErr != nil {
				app.Log.Warn("caching snapshot failed", "error", cacheErr)
			}
		}
		return flowSyncedMsg{err: err}
	}
}

// baseViewFor builds the screen view for the current flow state.
func baseViewFor(state *SharedState) View {
	desc := state.Flow.Screen()
	switch desc.Screen {
	case flow.ScreenNotStarted:
		return newNotStartedView(state)
	case flow.ScreenFirmSelect:
		return newFirmSelectView(state)
	case flow.ScreenInterview:
		return newInterviewView(state)
	case flow.ScreenDocuments:
		return newDocumentsView(state)
	case flow.ScreenPayment:
		return newPaymentView(state)
	case flow.ScreenReview:
		return newReviewView(state)
	default:
		return newWaitingView(state)
	}
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m appModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, m.syncFlowCmd())
	if v := m.activeView(); v != nil {
		cmds = append(cmds, v.Init())
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		if v := m.activeView(); v != nil {
			updated, cmd := v.Update(msg)
			m.setActiveView(updated.(View))
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case flowSyncMsg:
		return m, m.syncFlowCmd()

	case flowSyncedMsg:
		if flow.SessionDead(msg.err) {
			m.fatalErr = msg.err
			m.quitting = true
			return m, tea.Quit
		}
		return m.applyScreen()

	case pushViewMsg:
		m.noticeText = ""
		m.viewStack = append(m.viewStack, msg.view)
		return m, msg.view.Init()

	case popViewMsg:
		if len(m.viewStack) > 1 {
			m.viewStack = m.viewStack[:len(m.viewStack)-1]
		}
		return m, nil

	case replaceViewMsg:
		m.noticeText = ""
		if len(m.viewStack) > 0 {
			m.viewStack[len(m.viewStack)-1] = msg.view
		} else {
			m.viewStack = append(m.viewStack, msg.view)
		}
		return m, msg.view.Init()

	case refreshViewMsg:
		// Broadcast to ALL views in the stack so underlying views reload
		// data after mutations made in views above them.
		var cmds []tea.Cmd
		for i, v := range m.viewStack {
			updated, cmd := v.Update(msg)
			m.viewStack[i] = updated.(View)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case noticeMsg:
		m.noticeText = msg.text
		return m, nil

	case wizardCompleteMsg:
		// Atomically pop the form view and execute the follow-up command.
		if len(m.viewStack) > 1 {
			m.viewStack = m.viewStack[:len(m.viewStack)-1]
		}
		return m, tea.Batch(msg.nextCmd, refreshViews())

	case quitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	// Forward other messages to the active view (spinners, loads, blinks).
	if v := m.activeView(); v != nil {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	return m, nil
}

// applyScreen re-selects the base view after a status refresh. When the
// flow state moved, the whole stack is rebuilt on the new base; any
// overlay is abandoned because its premise no longer holds.
func (m appModel) applyScreen() (tea.Model, tea.Cmd) {
	next := baseViewFor(m.state)
	if len(m.viewStack) > 0 && m.viewStack[0].ID() == next.ID() {
		// Same screen: let views refresh their data instead.
		return m.Update(refreshViewMsg{})
	}
	m.noticeText = ""
	m.viewStack = []View{next}
	return m, next.Init()
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	// Views with their own text input receive all printable keys.
	if v := m.activeView(); v != nil && viewCapturesInput(v) {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "c":
		// Chat overlay is reachable from every screen.
		if v := m.activeView(); v != nil && v.ID() == ViewChat {
			break
		}
		cv := newChatView(m.state)
		m.viewStack = append(m.viewStack, cv)
		return m, cv.Init()

	case "r":
		return m, m.syncFlowCmd()
	}

	if msg.Type == tea.KeyEsc {
		if len(m.viewStack) > 1 {
			m.viewStack = m.viewStack[:len(m.viewStack)-1]
			return m, nil
		}
		return m, nil
	}

	if v := m.activeView(); v != nil {
		updated, cmd := v.Update(msg)
		m.setActiveView(updated.(View))
		return m, cmd
	}

	return m, nil
}

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if m.noticeText != "" {
		sections = append(sections, m.noticeText)
	}

	if v := m.activeView(); v != nil {
		sections = append(sections, v.View())
	}

	sections = append(sections, m.renderStatusBar())

	result := strings.Join(sections, "\n")

	// Pad to terminal height to prevent stale line artifacts from
	// bubbletea's line-diff renderer in alt-screen mode.
	if m.state.Height > 0 {
		lines := strings.Count(result, "\n") + 1
		if lines < m.state.Height {
			result += strings.Repeat("\n", m.state.Height-lines)
		}
	}

	return result
}

// ── rendering helpers ────────────────────────────────────────────────────────

func (m *appModel) renderHeader() string {
	title := formatter.StylePurple.Render("taxikit")

	var crumbs []string
	for _, v := range m.viewStack {
		if t := v.Title(); t != "" {
			crumbs = append(crumbs, t)
		}
	}
	breadcrumb := ""
	if len(crumbs) > 0 {
		breadcrumb = " " + formatter.Dim("›") + " " + formatter.Dim(strings.Join(crumbs, " › "))
	}

	header := title + breadcrumb

	if _, stale, lastErr := m.state.Snapshot(); stale || lastErr != nil {
		header += "  " + formatter.StyleYellow.Render("⟳ out of date")
	}

	sep := formatter.Dim(strings.Repeat("─", max(m.state.Width, 20)))
	return header + "\n" + sep
}

func (m *appModel) renderStatusBar() string {
	var hints []string

	if v := m.activeView(); v != nil {
		for _, b := range v.ShortHelp() {
			hints = append(hints, formatter.Dim(b.Help().Key+": "+b.Help().Desc))
		}
	}
	if len(m.viewStack) > 1 {
		hints = append(hints, formatter.Dim("esc: back"))
	}
	if v := m.activeView(); v == nil || !viewCapturesInput(v) {
		if v == nil || v.ID() != ViewChat {
			hints = append(hints, formatter.Dim("c: chat"))
		}
		hints = append(hints, formatter.Dim("r: refresh"), formatter.Dim("q: quit"))
	}

	bar := strings.Join(hints, "  ")
	sep := formatter.Dim(strings.Repeat("─", max(m.state.Width, 20)))
	return sep + "\n" + bar
}

// viewCapturesInput reports whether the active view owns the keyboard
// (has its own text input) and should bypass global keybindings.
func viewCapturesInput(v View) bool {
	if v == nil {
		return false
	}
	switch v.ID() {
	case ViewChat, ViewInterview, ViewForm:
		return true
	}
	return false
}
