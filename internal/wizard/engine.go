// Package wizard implements the expense interview state machine: one
// category per step, a yes/no answer plus a conditional amount, and a
// persist-before-advance rule that survives slow saves and re-renders.
package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/avlasenko/taxikit/internal/domain"
)

// Direction selects which way Advance moves the step pointer.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Answer is the per-step yes/no state. Unanswered steps never validate.
type Answer int

const (
	AnswerNone Answer = iota
	AnswerYes
	AnswerNo
)

// Outcome describes what Advance did with the step pointer.
type Outcome int

const (
	OutcomeStayed Outcome = iota
	OutcomeAdvanced
	OutcomeMovedBack
	OutcomeFinished
)

// SaveFunc persists exactly one answer. A nil amount means "answered no",
// which explicitly clears any previously saved value.
type SaveFunc func(ctx context.Context, code string, amount *float64) error

// stepState is the transient per-category answer. It survives re-renders
// and amount refreshes; it is discarded only when the category-code set
// changes.
type stepState struct {
	answer Answer
	draft  string
}

// Engine walks a driver through the sorted category list one step at a
// time. The step count is fixed for the life of one interview session.
type Engine struct {
	mu      sync.Mutex
	cats    []domain.ExpenseCategory
	states  map[string]*stepState
	localNo map[string]bool
	step    int
	saving  bool
	save    SaveFunc

	// gen increments whenever install replaces the session. An Advance
	// whose save was in flight across an install belongs to the old
	// session and must not touch the new one.
	gen int
}

// New creates an engine over the given categories. Categories are sorted
// for traversal and each step is pre-filled from its saved amount, so a
// previously answered category opens as "yes" with the amount in the
// draft. The session always starts at step 0.
func New(cats []domain.ExpenseCategory, save SaveFunc) *Engine {
	e := &Engine{
		save:    save,
		localNo: make(map[string]bool),
	}
	e.install(cats)
	return e
}

// install replaces the category list and rebuilds per-step state,
// starting a new session generation. Callers other than New hold e.mu.
func (e *Engine) install(cats []domain.ExpenseCategory) {
	e.cats = domain.SortCategories(cats)
	e.states = make(map[string]*stepState, len(e.cats))
	for i := range e.cats {
		c := &e.cats[i]
		st := &stepState{}
		if c.Amount != nil {
			st.answer = AnswerYes
			st.draft = FormatAmount(*c.Amount)
		}
		e.states[c.Code] = st
	}
	e.step = 0
	e.localNo = make(map[string]bool)
	e.gen++
}

// SetCategories feeds a fresh category fetch into the engine. When the
// code set is unchanged only the saved amounts are refreshed: the step
// pointer, answers, and in-progress drafts all survive. A different code
// set starts a new session at step 0.
func (e *Engine) SetCategories(cats []domain.ExpenseCategory) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !domain.SameCodeSet(e.cats, cats) {
		e.install(cats)
		return
	}

	byCode := make(map[string]*domain.ExpenseCategory, len(cats))
	for i := range cats {
		byCode[cats[i].Code] = &cats[i]
	}
	for i := range e.cats {
		if fresh, ok := byCode[e.cats[i].Code]; ok {
			e.cats[i].Amount = fresh.Amount
			e.cats[i].Label = fresh.Label
			e.cats[i].Hint = fresh.Hint
			e.cats[i].Validation = fresh.Validation
		}
	}
}

// StepCount returns N, the fixed number of interview steps.
func (e *Engine) StepCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cats)
}

// Step returns the current zero-based step index.
func (e *Engine) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// Saving reports whether a save is in flight.
func (e *Engine) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Current returns the category at the step pointer with its transient
// answer state. ok is false when there are no categories at all.
func (e *Engine) Current() (cat domain.ExpenseCategory, answer Answer, draft string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) == 0 {
		return domain.ExpenseCategory{}, AnswerNone, "", false
	}
	c := e.cats[e.step]
	st := e.states[c.Code]
	return c, st.answer, st.draft, true
}

// SetAnswer records the yes/no answer for the current step.
func (e *Engine) SetAnswer(a Answer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) == 0 {
		return
	}
	e.states[e.cats[e.step].Code].answer = a
}

// SetDraft replaces the current step's draft amount text.
func (e *Engine) SetDraft(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) == 0 {
		return
	}
	e.states[e.cats[e.step].Code].draft = s
}

// QuickDeltas returns the quick-increment amounts for the current step:
// small whole-unit deltas in integer mode, dollar chips otherwise.
func (e *Engine) QuickDeltas() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) > 0 && e.cats[e.step].IntegerMode() {
		return []float64{1, 5, 10}
	}
	return []float64{50, 100, 250}
}

// QuickIncrement adds delta to the current draft amount, clamping the
// result to the category's bounds. An unparseable draft counts as zero.
func (e *Engine) QuickIncrement(delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) == 0 {
		return
	}
	c := &e.cats[e.step]
	st := e.states[c.Code]

	base, err := ParseAmount(st.draft)
	if err != nil {
		base = 0
	}
	v := base + delta

	min, max, hasMax := c.Bounds()
	if v < min {
		v = min
	}
	if hasMax && v > max {
		v = max
	}
	st.draft = FormatAmount(v)
}

// validateLocked checks the current step under the engine lock and
// returns the value to persist: nil for "no", the parsed amount for
// "yes". Unanswered steps are never valid.
func (e *Engine) validateLocked() (*float64, error) {
	c := &e.cats[e.step]
	st := e.states[c.Code]

	switch st.answer {
	case AnswerNone:
		return nil, ErrNotAnswered
	case AnswerNo:
		return nil, nil
	}

	v, err := ParseAmount(st.draft)
	if err != nil {
		return nil, err
	}
	min, max, hasMax := c.Bounds()
	if v < min || (hasMax && v > max) {
		return nil, fmt.Errorf("%w (%s..%s)", ErrAmountRange,
			FormatAmount(min), boundLabel(max, hasMax))
	}
	return &v, nil
}

func boundLabel(max float64, hasMax bool) string {
	if !hasMax {
		return "∞"
	}
	return FormatAmount(max)
}

// Advance validates, persists, and only then moves the step pointer.
//
// Forward: an invalid step blocks with an inline error and no save call.
// On a valid step the answer is persisted first; the pointer moves only
// after the save succeeds, and forward from the last step reports
// OutcomeFinished instead of walking past the end. Backward: the current
// answer is persisted when it validates (so flipping back and forth never
// drops an edit), then the pointer steps back; backward from step 0 is a
// no-op. A second Advance while a save is in flight returns ErrBusy.
func (e *Engine) Advance(ctx context.Context, dir Direction) (Outcome, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return OutcomeStayed, ErrBusy
	}
	if len(e.cats) == 0 {
		e.mu.Unlock()
		return OutcomeFinished, nil
	}
	if dir == Backward && e.step == 0 {
		e.mu.Unlock()
		return OutcomeStayed, nil
	}

	code := e.cats[e.step].Code
	amount, err := e.validateLocked()
	if err != nil {
		if dir == Backward {
			// An incomplete answer has nothing to persist; going back
			// keeps the draft in memory instead of trapping the user.
			e.step--
			e.mu.Unlock()
			return OutcomeMovedBack, nil
		}
		e.mu.Unlock()
		return OutcomeStayed, err
	}

	isNo := amount == nil
	gen := e.gen
	e.saving = true
	e.mu.Unlock()

	saveErr := e.save(ctx, code, amount)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false

	if e.gen != gen {
		// A different category set was installed while the save was in
		// flight. The call itself may have landed, but the step it would
		// have annotated no longer exists: the new session keeps its
		// step 0 and its own per-step state.
		return OutcomeStayed, nil
	}

	if saveErr != nil {
		// The pointer never moves on a failed save; the action stays
		// re-invokable with the same draft.
		return OutcomeStayed, saveErr
	}

	// Reflect the persisted value locally so progress and pre-fill stay
	// consistent until the next authoritative fetch.
	for i := range e.cats {
		if e.cats[i].Code == code {
			e.cats[i].Amount = amount
			break
		}
	}
	if isNo {
		e.localNo[code] = true
	} else {
		delete(e.localNo, code)
	}

	if dir == Backward {
		e.step--
		return OutcomeMovedBack, nil
	}
	if e.step+1 >= len(e.cats) {
		return OutcomeFinished, nil
	}
	e.step++
	return OutcomeAdvanced, nil
}

// Progress returns answered/N for the session. Answered counts categories
// with a non-null saved amount plus the explicit "no" answers recorded
// locally this session, so progress moves even when "no" persists null.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cats) == 0 {
		return 0
	}
	answered := 0
	for i := range e.cats {
		if e.cats[i].Amount != nil || e.localNo[e.cats[i].Code] {
			answered++
		}
	}
	return float64(answered) / float64(len(e.cats))
}

// Categories returns a copy of the engine's current sorted categories.
func (e *Engine) Categories() []domain.ExpenseCategory {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ExpenseCategory, len(e.cats))
	copy(out, e.cats)
	return out
}
