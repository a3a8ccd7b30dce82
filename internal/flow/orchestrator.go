// Package flow owns the cached flow snapshot and the decision of which
// screen is visible now. Transitions are never computed here: every
// mutation is followed by a refresh, and whatever the backend returns
// (including no-ops and backward transitions) is accepted as-is.
package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/checklist"
	"github.com/avlasenko/taxikit/internal/domain"
)

// StatusFetcher fetches the authoritative flow snapshot. *api.Client
// satisfies it.
type StatusFetcher interface {
	PeriodStatus(ctx context.Context, driverID int64, year int) (*domain.PeriodStatus, error)
}

// Orchestrator is the single source of truth for the current snapshot.
// A failed refresh keeps the previous snapshot in place (stale but
// consistent); only an auth failure escalates to the sign-out path.
type Orchestrator struct {
	mu       sync.Mutex
	fetch    StatusFetcher
	driverID int64
	year     int

	snapshot *domain.PeriodStatus
	stale    bool
	lastErr  error
	gen      int
}

// New creates an orchestrator for one (driver, year) period.
func New(fetch StatusFetcher, driverID int64, year int) *Orchestrator {
	return &Orchestrator{fetch: fetch, driverID: driverID, year: year}
}

// Year returns the period year this orchestrator tracks.
func (o *Orchestrator) Year() int { return o.year }

// DriverID returns the subject driver.
func (o *Orchestrator) DriverID() int64 { return o.driverID }

// Refresh fetches the authoritative snapshot and replaces the cache
// wholesale, clearing the stale flag. ErrNotStarted is not a failure: it
// becomes a NotStarted snapshot so the caller renders the "not started"
// screen. On any other error the previous snapshot survives untouched;
// an ErrUnauthorized additionally tells the caller the session is dead.
func (o *Orchestrator) Refresh(ctx context.Context) (*domain.PeriodStatus, error) {
	snap, err := o.fetch.PeriodStatus(ctx, o.driverID, o.year)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		if errors.Is(err, api.ErrNotStarted) {
			o.snapshot = &domain.PeriodStatus{NotStarted: true}
			o.stale = false
			o.lastErr = nil
			o.gen++
			return o.snapshot, nil
		}
		o.lastErr = err
		return o.snapshot, err
	}

	o.snapshot = snap
	o.stale = false
	o.lastErr = nil
	o.gen++
	return snap, nil
}

// MarkStale flags the cache after any mutating action, pending the
// refresh that every mutation must trigger.
func (o *Orchestrator) MarkStale() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stale = true
}

// Snapshot returns the cached snapshot (nil before the first successful
// refresh), whether it is stale, and the last refresh error if any.
func (o *Orchestrator) Snapshot() (snap *domain.PeriodStatus, stale bool, lastErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot, o.stale, o.lastErr
}

// Generation returns a counter that increments on every applied refresh.
// Async continuations compare generations to drop results that belong to
// a discarded screen.
func (o *Orchestrator) Generation() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

// PromoteUploaded optimistically flips one checklist item to Uploaded in
// the cached snapshot, immediately after a successful upload call and
// before the confirming refresh lands. The write is provisional: the
// snapshot is marked stale and the next refresh replaces it entirely.
func (o *Orchestrator) PromoteUploaded(documentCode string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snapshot == nil {
		return
	}
	promoted := *o.snapshot
	promoted.Checklist = checklist.PromoteUploaded(o.snapshot.Checklist, documentCode)
	o.snapshot = &promoted
	o.stale = true
}

// Screen selects the screen for the cached snapshot: waiting before the
// first refresh, the not-started screen for a missing period, otherwise
// the flow state's descriptor.
func (o *Orchestrator) Screen() Descriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.snapshot == nil:
		return Descriptor{Screen: ScreenWaiting, Title: "Waiting for instructions"}
	case o.snapshot.NotStarted:
		return Descriptor{Screen: ScreenNotStarted, Title: "Not started"}
	default:
		return ScreenFor(o.snapshot.FlowState)
	}
}

// SessionDead reports whether err means the sign-out path must be taken.
func SessionDead(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}
