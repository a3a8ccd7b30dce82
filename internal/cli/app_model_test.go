package cli

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/config"
	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/avlasenko/taxikit/internal/flow"
	"github.com/avlasenko/taxikit/internal/store"
	"github.com/avlasenko/taxikit/internal/testutil"
	"github.com/avlasenko/taxikit/internal/wizard"
)

// fakeBackend is a programmable Backend for TUI tests.
type fakeBackend struct {
	mu sync.Mutex

	status    *domain.PeriodStatus
	statusErr error

	firms        []domain.Firm
	selectedFirm int64

	profiles []domain.BusinessProfile
	cats     []domain.ExpenseCategory
	saves    []api.ExpenseSave

	uploads   []string
	submitted bool

	history    []domain.ChatMessage
	historyErr error
}

func (f *fakeBackend) PeriodStatus(ctx context.Context, driverID int64, year int) (*domain.PeriodStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	s := *f.status
	return &s, nil
}

func (f *fakeBackend) SubmitPeriod(ctx context.Context, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = true
	return nil
}

func (f *fakeBackend) ListFirms(ctx context.Context) ([]domain.Firm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firms, nil
}

func (f *fakeBackend) SelectFirm(ctx context.Context, firmID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedFirm = firmID
	return nil
}

func (f *fakeBackend) ListBusinessProfiles(ctx context.Context, driverID int64) ([]domain.BusinessProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles, nil
}

func (f *fakeBackend) CreateBusinessProfile(ctx context.Context, p domain.BusinessProfile) (*domain.BusinessProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = 99
	f.profiles = append(f.profiles, p)
	return &p, nil
}

func (f *fakeBackend) GetExpenses(ctx context.Context, profileID int64, year int) ([]domain.ExpenseCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cats, nil
}

func (f *fakeBackend) SaveExpense(ctx context.Context, profileID int64, year int, save api.ExpenseSave) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, save)
	return nil
}

func (f *fakeBackend) SaveExpenses(ctx context.Context, profileID int64, year int, saves []api.ExpenseSave) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saves...)
	return nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, driverID int64, year int, documentCode, filename string, file io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, documentCode)
	return nil
}

func (f *fakeBackend) DocumentsByDriver(ctx context.Context, driverID int64) ([]domain.UploadedDocument, error) {
	return nil, nil
}

func (f *fakeBackend) ChatHistory(ctx context.Context, driverID int64) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeBackend) ChatSocketURL(driverID int64) string { return "ws://test/chat" }

func (f *fakeBackend) setStatus(s domain.PeriodStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = &s
	f.statusErr = nil
}

// fakeTransport is an in-memory ChatTransport.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	inbound chan domain.ChatMessage
	closed  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan domain.ChatMessage, 16)}
}

func (f *fakeTransport) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) Listen(receive func(domain.ChatMessage)) error {
	for m := range f.inbound {
		receive(m)
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testApp(t *testing.T, backend *fakeBackend) *App {
	t.Helper()

	db := testutil.NewTestDB(t)
	transport := newFakeTransport()
	t.Cleanup(func() { transport.Close() })

	app := &App{
		Cfg: config.Config{
			BaseURL:  "http://test",
			DriverID: 7,
			Year:     2025,
			Timeout:  time.Second,
		},
		Log:    testLogger(),
		Client: backend,
		Cache:  store.NewCache(db),
		Flow:   flow.New(backend, 7, 2025),
		DialChat: func(ctx context.Context) (ChatTransport, error) {
			return transport, nil
		},
	}
	return app
}

type stubView struct {
	id         ViewID
	title      string
	viewText   string
	updateSeen []tea.Msg
}

func (v *stubView) Init() tea.Cmd { return nil }

func (v *stubView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	v.updateSeen = append(v.updateSeen, msg)
	return v, nil
}

func (v *stubView) View() string             { return v.viewText }
func (v *stubView) ID() ViewID               { return v.id }
func (v *stubView) ShortHelp() []key.Binding { return nil }
func (v *stubView) Title() string            { return v.title }

func TestNewAppModelStartsWaiting(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	m := newAppModel(testApp(t, backend))

	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewWaiting, m.activeView().ID())
}

func TestAppModel_NavigationMessages(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	m := newAppModel(testApp(t, backend))
	v2 := &stubView{id: ViewDocuments, title: "Documents", viewText: "docs"}
	v3 := &stubView{id: ViewPayment, title: "Payment", viewText: "pay"}

	model, _ := m.Update(pushViewMsg{view: v2})
	m = model.(appModel)
	require.Len(t, m.viewStack, 2)
	assert.Equal(t, View(v2), m.activeView())

	model, _ = m.Update(replaceViewMsg{view: v3})
	m = model.(appModel)
	require.Len(t, m.viewStack, 2)
	assert.Equal(t, View(v3), m.activeView())

	model, cmd := m.Update(popViewMsg{})
	m = model.(appModel)
	require.Nil(t, cmd)
	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewWaiting, m.activeView().ID())
}

func TestAppModel_RefreshBroadcastsToAllViews(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	m := newAppModel(testApp(t, backend))
	bottom := &stubView{id: ViewDocuments}
	top := &stubView{id: ViewChat}
	m.viewStack = []View{bottom, top}

	model, _ := m.Update(refreshViewMsg{})
	_ = model.(appModel)

	require.Len(t, bottom.updateSeen, 1)
	require.Len(t, top.updateSeen, 1)
	assert.IsType(t, refreshViewMsg{}, bottom.updateSeen[0])
}

func TestAppModel_FlowSyncSelectsScreen(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	app := testApp(t, backend)
	m := newAppModel(app)

	_, err := app.Flow.Refresh(context.Background())
	require.NoError(t, err)

	model, _ := m.Update(flowSyncedMsg{})
	m = model.(appModel)
	assert.Equal(t, ViewFirmSelect, m.viewStack[0].ID())

	// The flow moved server-side; the base screen follows wholesale.
	backend.setStatus(domain.PeriodStatus{FlowState: domain.FlowNeedsPayment})
	_, err = app.Flow.Refresh(context.Background())
	require.NoError(t, err)

	model, _ = m.Update(flowSyncedMsg{})
	m = model.(appModel)
	require.Len(t, m.viewStack, 1)
	assert.Equal(t, ViewPayment, m.viewStack[0].ID())
}

func TestAppModel_SameScreenKeepsStack(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsDocuments}}
	app := testApp(t, backend)
	m := newAppModel(app)

	_, err := app.Flow.Refresh(context.Background())
	require.NoError(t, err)
	model, _ := m.Update(flowSyncedMsg{})
	m = model.(appModel)
	require.Equal(t, ViewDocuments, m.viewStack[0].ID())

	// Push an overlay, then refresh with the same flow state: the
	// overlay survives and only data reloads.
	overlay := &stubView{id: ViewChat}
	model, _ = m.Update(pushViewMsg{view: overlay})
	m = model.(appModel)

	_, err = app.Flow.Refresh(context.Background())
	require.NoError(t, err)
	model, _ = m.Update(flowSyncedMsg{})
	m = model.(appModel)

	require.Len(t, m.viewStack, 2)
	assert.Equal(t, ViewChat, m.activeView().ID())
}

func TestAppModel_AuthFailureQuits(t *testing.T) {
	backend := &fakeBackend{statusErr: api.ErrUnauthorized}
	app := testApp(t, backend)
	m := newAppModel(app)

	_, err := app.Flow.Refresh(context.Background())
	require.Error(t, err)

	model, cmd := m.Update(flowSyncedMsg{err: err})
	m = model.(appModel)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.ErrorIs(t, m.fatalErr, api.ErrUnauthorized)
}

func TestAppModel_QuitKeys(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	m := newAppModel(testApp(t, backend))

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = model.(appModel)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppModel_CapturingViewReceivesQ(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
	m := newAppModel(testApp(t, backend))
	v := &stubView{id: ViewChat}
	m.viewStack = []View{v}

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = model.(appModel)
	assert.False(t, m.quitting)
	require.Len(t, v.updateSeen, 1)
	assert.Equal(t, "q", v.updateSeen[0].(tea.KeyMsg).String())
}

func TestAppModel_ChatOverlayKey(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowInReview}}
	m := newAppModel(testApp(t, backend))
	m.viewStack = []View{&stubView{id: ViewReview, title: "In review"}}

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = model.(appModel)
	require.NotNil(t, cmd)
	require.Len(t, m.viewStack, 2)
	assert.Equal(t, ViewChat, m.activeView().ID())
}

func TestAppModel_StaleBannerInHeader(t *testing.T) {
	backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowInReview}}
	app := testApp(t, backend)
	m := newAppModel(app)
	m.state.Width = 60
	m.state.Height = 20

	_, err := app.Flow.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, m.View(), "out of date")

	app.Flow.MarkStale()
	assert.Contains(t, m.View(), "out of date")
}

func TestMutationSuccessMarksSnapshotStale(t *testing.T) {
	// Every mutating action leaves the snapshot flagged stale until the
	// follow-up refresh replaces it.
	newState := func(t *testing.T) *SharedState {
		backend := &fakeBackend{status: &domain.PeriodStatus{FlowState: domain.FlowNeedsFirm}}
		app := testApp(t, backend)
		_, err := app.Flow.Refresh(context.Background())
		require.NoError(t, err)
		return &SharedState{App: app, Flow: app.Flow, Width: 60, Height: 20}
	}

	t.Run("firm selection", func(t *testing.T) {
		state := newState(t)
		v := newFirmSelectView(state)
		v.Update(firmSelectedMsg{name: "Acme Tax"})

		_, stale, _ := state.Snapshot()
		assert.True(t, stale)
	})

	t.Run("expense step save", func(t *testing.T) {
		state := newState(t)
		v := newInterviewView(state)
		v.Update(stepSavedMsg{outcome: wizard.OutcomeAdvanced})

		_, stale, _ := state.Snapshot()
		assert.True(t, stale)
	})

	t.Run("blocked expense step stays fresh", func(t *testing.T) {
		state := newState(t)
		v := newInterviewView(state)
		v.Update(stepSavedMsg{outcome: wizard.OutcomeStayed})

		_, stale, _ := state.Snapshot()
		assert.False(t, stale, "a stayed step persisted nothing")
	})

	t.Run("period submit", func(t *testing.T) {
		state := newState(t)
		v := newPaymentView(state)
		v.Update(periodSubmittedMsg{})

		_, stale, _ := state.Snapshot()
		assert.True(t, stale)
	})
}
