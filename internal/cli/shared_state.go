package cli

import (
	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/avlasenko/taxikit/internal/flow"
)

// SharedState holds context shared across all views via pointer.
type SharedState struct {
	App  *App
	Flow *flow.Orchestrator

	// Active business profile, resolved on first use.
	ProfileID int64

	// Terminal dimensions
	Width  int
	Height int
}

// Snapshot returns the current flow snapshot with its staleness facts.
func (s *SharedState) Snapshot() (*domain.PeriodStatus, bool, error) {
	return s.Flow.Snapshot()
}

// ContentHeight returns the available height for view content,
// accounting for header (2 lines), notice line, and status bar (2 lines).
func (s *SharedState) ContentHeight() int {
	h := s.Height - 5
	if h < 1 {
		return 1
	}
	return h
}
