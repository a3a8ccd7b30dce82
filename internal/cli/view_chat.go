package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/avlasenko/taxikit/internal/chat"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/domain"
)

// chatOpenedMsg carries the dialed transport and loaded history.
type chatOpenedMsg struct {
	transport ChatTransport
	history   []domain.ChatMessage
	inbound   chan domain.ChatMessage
	err       error
}

// chatInboundMsg is one message from the read loop. ok is false when
// the connection closed.
type chatInboundMsg struct {
	msg     domain.ChatMessage
	inbound chan domain.ChatMessage
	ok      bool
}

// chatSentMsg reports a transmit attempt for the given text.
type chatSentMsg struct {
	text string
	err  error
}

// chatView is the live conversation overlay. An echo of an outbound
// message appears immediately as pending and is confirmed in place when
// the server copy arrives.
type chatView struct {
	state *SharedState
	input textinput.Model
	vp    viewport.Model

	recon      *chat.Reconciler
	transport  ChatTransport
	connected  bool
	connClosed bool
	loading    bool
	err        error
}

func newChatView(state *SharedState) *chatView {
	ti := textinput.New()
	ti.Placeholder = "Message your firm"
	ti.CharLimit = 2000
	ti.Focus()

	vp := viewport.New(0, 0)

	return &chatView{
		state:   state,
		input:   ti,
		vp:      vp,
		loading: true,
	}
}

func (v *chatView) ID() ViewID    { return ViewChat }
func (v *chatView) Title() string { return "Chat" }

func (v *chatView) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

func (v *chatView) Init() tea.Cmd {
	return tea.Batch(v.open(), textinput.Blink)
}

// open loads history and dials the socket. The read loop feeds the
// inbound channel and closes it when the connection dies, which is how
// the view learns the conversation went offline.
func (v *chatView) open() tea.Cmd {
	app := v.state.App
	return func() tea.Msg {
		ctx := context.Background()

		history, err := app.Client.ChatHistory(ctx, app.Cfg.DriverID)
		if err != nil {
			return chatOpenedMsg{err: err}
		}
		if cacheErr := app.Cache.SaveMessages(ctx, app.Cfg.DriverID, history); cacheErr != nil {
			app.Log.Warn("caching chat history failed", "error", cacheErr)
		}

		transport, err := app.DialChat(ctx)
		if err != nil {
			return chatOpenedMsg{history: history, err: err}
		}

		inbound := make(chan domain.ChatMessage, 16)
		go func() {
			defer close(inbound)
			if listenErr := transport.Listen(func(m domain.ChatMessage) {
				inbound <- m
			}); listenErr != nil {
				app.Log.Warn("chat read loop ended", "error", listenErr)
			}
		}()

		return chatOpenedMsg{transport: transport, history: history, inbound: inbound}
	}
}

// waitInbound blocks on the read loop's channel and re-arms itself
// after every message.
func waitInbound(inbound chan domain.ChatMessage) tea.Cmd {
	return func() tea.Msg {
		m, ok := <-inbound
		return chatInboundMsg{msg: m, inbound: inbound, ok: ok}
	}
}

func (v *chatView) send(text string) tea.Cmd {
	recon := v.recon
	return func() tea.Msg {
		_, err := recon.Send(context.Background(), text)
		return chatSentMsg{text: text, err: err}
	}
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chatOpenedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.transport = msg.transport
		v.connected = true
		v.recon = chat.NewReconciler(v.state.App.Cfg.DriverID, msg.transport)
		v.recon.SetHistory(msg.history)
		v.refreshTranscript()
		return v, waitInbound(msg.inbound)

	case chatInboundMsg:
		if !msg.ok {
			v.connected = false
			v.connClosed = true
			return v, nil
		}
		if v.recon != nil {
			v.recon.Receive(msg.msg)
			v.refreshTranscript()
		}
		if msg.inbound == nil {
			return v, nil
		}
		return v, waitInbound(msg.inbound)

	case chatSentMsg:
		if msg.err != nil {
			v.err = msg.err
			// Put the text back so a retry is a single keypress; the
			// pending echo stays in the transcript either way.
			if v.input.Value() == "" {
				v.input.SetValue(msg.text)
				v.input.CursorEnd()
			}
		}
		v.refreshTranscript()
		return v, nil

	case tea.WindowSizeMsg:
		v.resize()
		v.refreshTranscript()
		return v, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			v.closeTransport()
			return v, popView()
		case tea.KeyEnter:
			text := strings.TrimSpace(v.input.Value())
			if text == "" || v.recon == nil || !v.connected {
				return v, nil
			}
			v.input.Reset()
			v.err = nil
			cmd := v.send(text)
			v.refreshTranscript()
			return v, cmd
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			v.vp, cmd = v.vp.Update(msg)
			return v, cmd
		}

		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) closeTransport() {
	if v.transport != nil {
		if err := v.transport.Close(); err != nil {
			v.state.App.Log.Debug("closing chat socket", "error", err)
		}
		v.transport = nil
		v.connected = false
	}
}

func (v *chatView) resize() {
	v.vp.Width = max(v.state.Width, 20)
	h := v.state.ContentHeight() - 3
	if h < 3 {
		h = 3
	}
	v.vp.Height = h
}

// refreshTranscript re-renders the conversation into the viewport,
// pinned to the bottom.
func (v *chatView) refreshTranscript() {
	if v.recon == nil {
		return
	}
	if v.vp.Width == 0 {
		v.resize()
	}

	var b strings.Builder
	for _, m := range v.recon.Messages() {
		who := formatter.StyleBlue.Render("firm")
		if m.SenderID == v.state.App.Cfg.DriverID {
			who = formatter.StyleGreen.Render("you")
		}
		line := fmt.Sprintf("%s %s  %s", formatter.Dim(m.SentAt.Format("15:04")), who, m.Text)
		if m.State == domain.MessagePending {
			line += " " + formatter.Dim("…")
		}
		b.WriteString(line + "\n")
	}

	v.vp.SetContent(b.String())
	v.vp.GotoBottom()
}

func (v *chatView) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString("\n  " + formatter.Dim("Connecting…") + "\n")
	case v.err != nil && v.recon == nil:
		b.WriteString("\n  " + formatter.StyleRed.Render(v.err.Error()) + "\n")
		return b.String()
	default:
		b.WriteString(v.vp.View() + "\n")
	}

	if v.connClosed {
		b.WriteString("  " + formatter.StyleYellow.Render("Connection lost. Esc to close, reopen to reconnect.") + "\n")
	}
	if v.err != nil && v.recon != nil {
		b.WriteString("  " + formatter.StyleRed.Render(v.err.Error()) + "\n")
	}

	prompt := formatter.StylePurple.Render("chat") + formatter.Dim("> ")
	b.WriteString(prompt + v.input.View())

	return b.String()
}
