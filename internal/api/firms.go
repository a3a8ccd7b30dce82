package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avlasenko/taxikit/internal/domain"
)

type firmDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Pricing     json.RawMessage `json:"services_pricing"`
	AvgRating   *float64        `json:"avg_rating"`
}

// ListFirms returns the accounting-firm marketplace.
func (c *Client) ListFirms(ctx context.Context) ([]domain.Firm, error) {
	var dtos []firmDTO
	if err := c.getJSON(ctx, "/api/v1/firms", &dtos); err != nil {
		return nil, err
	}
	firms := make([]domain.Firm, 0, len(dtos))
	for _, d := range dtos {
		firms = append(firms, domain.Firm{
			ID:              d.ID,
			Name:            d.Name,
			Description:     d.Description,
			ServicesPricing: rawPricing(d.Pricing),
			AvgRating:       d.AvgRating,
		})
	}
	return firms, nil
}

// SelectFirm assigns the driver to a firm. The backend may advance the
// flow state as a side effect; callers must refresh afterwards.
func (c *Client) SelectFirm(ctx context.Context, firmID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/v1/firms/select/%d", firmID), nil, nil)
}

// rawPricing flattens the pricing payload to a string: JSON strings lose
// their quotes, everything else keeps its raw encoding for DisplayPrice
// to interpret.
func rawPricing(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
