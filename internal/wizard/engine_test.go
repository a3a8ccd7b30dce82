package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(v float64) *float64 { return &v }

type savedCall struct {
	code   string
	amount *float64
}

// recorder captures save calls and can be told to fail or block.
type recorder struct {
	mu      sync.Mutex
	calls   []savedCall
	failErr error
	block   chan struct{}
}

func (r *recorder) save(_ context.Context, code string, amount *float64) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.calls = append(r.calls, savedCall{code: code, amount: amount})
	return nil
}

func (r *recorder) saved() []savedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]savedCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func threeCats() []domain.ExpenseCategory {
	return []domain.ExpenseCategory{
		{Code: "CAR_PAYMENT", Label: "Car payment", Order: 1, HasOrder: true},
		{Code: "FUEL", Label: "Fuel", Order: 2, HasOrder: true},
		{Code: "TOLLS", Label: "Tolls", Order: 3, HasOrder: true},
	}
}

func TestAdvanceForward_SavesBeforeMoving(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerYes)
	e.SetDraft("120.50")
	out, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)
	assert.Equal(t, 1, e.Step())

	calls := rec.saved()
	require.Len(t, calls, 1)
	assert.Equal(t, "CAR_PAYMENT", calls[0].code, "save must carry the pre-transition step")
	require.NotNil(t, calls[0].amount)
	assert.Equal(t, 120.50, *calls[0].amount)
}

func TestAdvanceForward_NoPersistsNull(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	out, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)

	calls := rec.saved()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].amount)
}

func TestAdvanceForward_UnansweredBlocked(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	out, err := e.Advance(context.Background(), Forward)
	assert.ErrorIs(t, err, ErrNotAnswered)
	assert.Equal(t, OutcomeStayed, out)
	assert.Equal(t, 0, e.Step())
	assert.Empty(t, rec.saved(), "invalid step must not invoke save")
}

func TestAdvanceForward_YesWithEmptyDraftBlocked(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerYes)
	out, err := e.Advance(context.Background(), Forward)
	assert.ErrorIs(t, err, ErrAmountInvalid)
	assert.Equal(t, OutcomeStayed, out)
	assert.Equal(t, 0, e.Step())
	assert.Empty(t, rec.saved())
}

func TestAdvanceForward_SaveFailureFreezesPointer(t *testing.T) {
	rec := &recorder{failErr: errors.New("boom")}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerYes)
	e.SetDraft("50")
	out, err := e.Advance(context.Background(), Forward)
	require.Error(t, err)
	assert.Equal(t, OutcomeStayed, out)
	assert.Equal(t, 0, e.Step())
	assert.False(t, e.Saving(), "failure must leave the action re-invokable")

	// Same call succeeds once the backend recovers.
	rec.mu.Lock()
	rec.failErr = nil
	rec.mu.Unlock()
	out, err = e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)
}

func TestAdvanceBackward_PersistsCurrentAnswer(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)

	e.SetAnswer(AnswerYes)
	e.SetDraft("80")
	out, err := e.Advance(context.Background(), Backward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMovedBack, out)
	assert.Equal(t, 0, e.Step())

	calls := rec.saved()
	require.Len(t, calls, 2)
	assert.Equal(t, "FUEL", calls[1].code)
	require.NotNil(t, calls[1].amount)
	assert.Equal(t, 80.0, *calls[1].amount)
}

func TestAdvanceBackward_FromStepZeroIsNoop(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	out, err := e.Advance(context.Background(), Backward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStayed, out)
	assert.Empty(t, rec.saved())
}

func TestAdvanceBackward_UnansweredStepMovesWithoutSave(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)

	// Step 1 is untouched; going back has nothing to persist.
	out, err := e.Advance(context.Background(), Backward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMovedBack, out)
	assert.Len(t, rec.saved(), 1)
}

func TestAdvanceForward_LastStepFinishes(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	for i := 0; i < 2; i++ {
		e.SetAnswer(AnswerNo)
		_, err := e.Advance(context.Background(), Forward)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.Step())

	e.SetAnswer(AnswerYes)
	e.SetDraft("15")
	out, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinished, out)
	assert.Equal(t, 2, e.Step(), "pointer never walks past the last step")
	assert.Len(t, rec.saved(), 3)
}

func TestAdvance_BusyGateRejectsConcurrentCalls(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := e.Advance(context.Background(), Forward)
		assert.NoError(t, err)
	}()

	// Wait until the first advance is inside its save.
	require.Eventually(t, e.Saving, time.Second, time.Millisecond)

	_, err := e.Advance(context.Background(), Forward)
	assert.ErrorIs(t, err, ErrBusy, "second advance is rejected, not queued")

	close(rec.block)
	<-done
	assert.Equal(t, 1, e.Step())
}

func TestFlippingYesToNoClearsSavedAmount(t *testing.T) {
	rec := &recorder{}
	cats := threeCats()
	cats[0].Amount = amt(400)
	e := New(cats, rec.save)

	// Pre-filled from the saved amount.
	_, answer, draft, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, AnswerYes, answer)
	assert.Equal(t, "400", draft)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)

	calls := rec.saved()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].amount, "no persists an explicit null, clearing the old value")
}

func TestSetCategories_AmountRefreshKeepsPosition(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	e.SetAnswer(AnswerYes)
	e.SetDraft("33.3")

	// Same code set, fresh amounts: position and draft both survive.
	fresh := threeCats()
	fresh[0].Amount = amt(400)
	e.SetCategories(fresh)

	assert.Equal(t, 1, e.Step())
	_, answer, draft, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, AnswerYes, answer)
	assert.Equal(t, "33.3", draft)
}

func TestSetCategories_CodeSetChangeResets(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	require.Equal(t, 1, e.Step())

	e.SetCategories([]domain.ExpenseCategory{
		{Code: "PHONE", Label: "Phone"},
		{Code: "INSURANCE", Label: "Insurance"},
	})
	assert.Equal(t, 0, e.Step())
	assert.Equal(t, 2, e.StepCount())
}

func TestSetCategories_CodeSetChangeDuringSaveWinsOverAdvance(t *testing.T) {
	// A code-set change landing while a save is in flight starts a new
	// session; the completing Advance must not move its pointer or write
	// into the new list.
	entered := make(chan struct{})
	release := make(chan struct{})
	e := New(threeCats(), func(context.Context, string, *float64) error {
		close(entered)
		<-release
		return nil
	})

	e.SetAnswer(AnswerYes)
	e.SetDraft("120.50")

	done := make(chan struct{})
	var out Outcome
	var advErr error
	go func() {
		defer close(done)
		out, advErr = e.Advance(context.Background(), Forward)
	}()

	<-entered
	e.SetCategories([]domain.ExpenseCategory{
		{Code: "PHONE", Label: "Phone"},
		{Code: "INSURANCE", Label: "Insurance"},
	})
	close(release)
	<-done

	require.NoError(t, advErr)
	assert.Equal(t, OutcomeStayed, out)
	assert.Equal(t, 0, e.Step(), "new session must start at step 0")

	cat, answer, _, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "PHONE", cat.Code)
	assert.Equal(t, AnswerNone, answer, "old save must not leak into the new list")
	assert.InDelta(t, 0, e.Progress(), 0.001)
}

func TestSetCategories_AmountRefreshUpdatesValidation(t *testing.T) {
	rec := &recorder{}
	e := New(threeCats(), rec.save)

	// Same code set, but the server tightened the bounds.
	fresh := threeCats()
	fresh[0].Validation = &domain.AmountRule{Max: amt(100)}
	e.SetCategories(fresh)

	e.SetAnswer(AnswerYes)
	e.SetDraft("250")
	out, err := e.Advance(context.Background(), Forward)
	assert.ErrorIs(t, err, ErrAmountRange)
	assert.Equal(t, OutcomeStayed, out)
	assert.Empty(t, rec.saved())
}

func TestSessionStartsAtStepZeroEvenWhenAnswered(t *testing.T) {
	// A wizard with CAR_PAYMENT already saved still opens on step 0 with
	// the answer pre-filled, not on the first unanswered category.
	rec := &recorder{}
	cats := []domain.ExpenseCategory{
		{Code: "CAR_PAYMENT", Label: "Car payment", Order: 1, HasOrder: true, Amount: amt(400)},
		{Code: "FUEL", Label: "Fuel", Order: 2, HasOrder: true},
	}
	e := New(cats, rec.save)

	assert.Equal(t, 0, e.Step())
	cat, answer, draft, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "CAR_PAYMENT", cat.Code)
	assert.Equal(t, AnswerYes, answer)
	assert.Equal(t, "400", draft)
}

func TestProgress_CountsSavedAmountsAndLocalNo(t *testing.T) {
	rec := &recorder{}
	cats := threeCats()
	cats[2].Amount = amt(25)
	e := New(cats, rec.save)

	assert.InDelta(t, 1.0/3.0, e.Progress(), 0.001)

	e.SetAnswer(AnswerNo)
	_, err := e.Advance(context.Background(), Forward)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, e.Progress(), 0.001,
		"a local no counts toward progress even though it persists null")
}

func TestQuickIncrement_ClampsToBounds(t *testing.T) {
	rec := &recorder{}
	cats := []domain.ExpenseCategory{{
		Code:       "PARKING",
		Validation: &domain.AmountRule{Max: amt(300)},
	}}
	e := New(cats, rec.save)

	e.SetDraft("200")
	e.QuickIncrement(250)
	_, _, draft, _ := e.Current()
	assert.Equal(t, "300", draft)

	e.SetDraft("not a number")
	e.QuickIncrement(50)
	_, _, draft, _ = e.Current()
	assert.Equal(t, "50", draft, "garbage draft counts as zero")
}

func TestQuickDeltas_IntegerMode(t *testing.T) {
	rec := &recorder{}
	e := New([]domain.ExpenseCategory{{
		Code:       "MILES",
		Validation: &domain.AmountRule{Step: 1},
	}}, rec.save)
	assert.Equal(t, []float64{1, 5, 10}, e.QuickDeltas())

	e = New(threeCats(), rec.save)
	assert.Equal(t, []float64{50, 100, 250}, e.QuickDeltas())
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"120.50", 120.50, false},
		{"120,50", 120.50, false},
		{" 0 ", 0, false},
		{"", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := ParseAmount(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestAdvance_AmountOutOfRange(t *testing.T) {
	rec := &recorder{}
	e := New([]domain.ExpenseCategory{{
		Code:       "LEASE",
		Validation: &domain.AmountRule{Min: amt(100), Max: amt(2000)},
	}}, rec.save)

	e.SetAnswer(AnswerYes)
	e.SetDraft("50")
	_, err := e.Advance(context.Background(), Forward)
	assert.ErrorIs(t, err, ErrAmountRange)
	assert.Empty(t, rec.saved())
}
