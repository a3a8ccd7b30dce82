package cli

import (
	"context"
	"fmt"

	"github.com/avlasenko/taxikit/internal/domain"
)

// defaultBusinessCode is the NAICS code for taxi and ride-hailing services.
const defaultBusinessCode = "485310"

// resolveProfileID returns the driver's business profile id, creating
// the default profile on first use. known short-circuits the lookup
// when a previous call already resolved it.
func resolveProfileID(ctx context.Context, app *App, known int64) (int64, error) {
	if known != 0 {
		return known, nil
	}

	profiles, err := app.Client.ListBusinessProfiles(ctx, app.Cfg.DriverID)
	if err != nil {
		return 0, err
	}
	if len(profiles) > 0 {
		return profiles[0].ID, nil
	}

	created, err := app.Client.CreateBusinessProfile(ctx, domain.BusinessProfile{
		Name:         "Taxi business",
		BusinessCode: defaultBusinessCode,
	})
	if err != nil {
		return 0, fmt.Errorf("creating business profile: %w", err)
	}
	return created.ID, nil
}
