package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avlasenko/taxikit/internal/domain"
)

// periodStatusDTO is the wire shape of GET /periods/status. The backend
// returns either a flow snapshot or a {"status": "not_started"} shape.
type periodStatusDTO struct {
	FlowState string `json:"flow_state"`
	Stage     string `json:"stage"`
	PeriodID  int64  `json:"period_id"`
	Checklist []struct {
		Document string `json:"document"`
		Status   string `json:"status"`
	} `json:"checklist"`

	Status  string `json:"status"`
	Message string `json:"message"`
}

// PeriodStatus fetches the authoritative flow snapshot for one driver and
// year. A missing period (404 or the explicit not_started shape) comes
// back as a NotStarted snapshot rather than an error, so the caller can
// render it; every other failure keeps the usual taxonomy.
func (c *Client) PeriodStatus(ctx context.Context, driverID int64, year int) (*domain.PeriodStatus, error) {
	var dto periodStatusDTO
	path := fmt.Sprintf("/api/v1/periods/status/%d/%d", driverID, year)
	if err := c.getJSON(ctx, path, &dto); err != nil {
		var srv *ServerError
		if errors.As(err, &srv) && srv.Status == http.StatusNotFound {
			return nil, ErrNotStarted
		}
		return nil, err
	}

	if dto.Status == "not_started" {
		return &domain.PeriodStatus{NotStarted: true, Message: dto.Message}, nil
	}

	status := &domain.PeriodStatus{
		FlowState: domain.FlowState(dto.FlowState),
		Stage:     dto.Stage,
		PeriodID:  dto.PeriodID,
	}
	for _, it := range dto.Checklist {
		status.Checklist = append(status.Checklist, domain.ChecklistItem{
			DocumentCode: it.Document,
			Status:       domain.ChecklistStatus(it.Status),
		})
	}
	return status, nil
}

// SubmitPeriod finishes the NEEDS_PAYMENT stage for the given year.
func (c *Client) SubmitPeriod(ctx context.Context, year int) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/v1/periods/submit/%d", year), nil, nil)
}
