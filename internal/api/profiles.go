package api

import (
	"context"
	"fmt"

	"github.com/avlasenko/taxikit/internal/domain"
)

type businessProfileDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BusinessCode string `json:"business_code"`
	EIN          string `json:"ein"`
}

func (d businessProfileDTO) toDomain() domain.BusinessProfile {
	return domain.BusinessProfile{
		ID:           d.ID,
		Name:         d.Name,
		BusinessCode: d.BusinessCode,
		EIN:          d.EIN,
	}
}

// ListBusinessProfiles returns the driver's business profiles.
func (c *Client) ListBusinessProfiles(ctx context.Context, driverID int64) ([]domain.BusinessProfile, error) {
	var dtos []businessProfileDTO
	path := fmt.Sprintf("/api/v1/business/by-driver/%d", driverID)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	profiles := make([]domain.BusinessProfile, 0, len(dtos))
	for _, d := range dtos {
		profiles = append(profiles, d.toDomain())
	}
	return profiles, nil
}

// CreateBusinessProfile creates a business profile for the driver.
func (c *Client) CreateBusinessProfile(ctx context.Context, p domain.BusinessProfile) (*domain.BusinessProfile, error) {
	body := businessProfileDTO{
		Name:         p.Name,
		BusinessCode: p.BusinessCode,
		EIN:          p.EIN,
	}
	var out businessProfileDTO
	if err := c.postJSON(ctx, "/api/v1/business", body, &out); err != nil {
		return nil, err
	}
	created := out.toDomain()
	return &created, nil
}
