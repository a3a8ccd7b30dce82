package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

func newStatusCmd(app *App) *cobra.Command {
	var showChecklist bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the filing period status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			status, err := app.Flow.Refresh(ctx)
			if err != nil {
				// Fall back to the cached snapshot when the backend is down.
				if errors.Is(err, api.ErrNetwork) {
					cached, fetchedAt, cacheErr := app.Cache.LoadSnapshot(ctx, app.Cfg.DriverID, app.Cfg.Year)
					if cacheErr == nil {
						fmt.Println(formatter.Dim(fmt.Sprintf("offline, showing data from %s", fetchedAt.Format("Jan 2 15:04"))))
						fmt.Print(formatter.FormatPeriodStatus(cached, app.Cfg.Year))
						return nil
					}
				}
				return err
			}

			if err := app.Cache.SaveSnapshot(ctx, app.Cfg.DriverID, app.Cfg.Year, *status); err != nil {
				app.Log.Warn("caching snapshot failed", "error", err)
			}

			fmt.Print(formatter.FormatPeriodStatus(*status, app.Cfg.Year))
			if showChecklist && len(status.Checklist) > 0 {
				fmt.Println()
				fmt.Print(formatter.FormatChecklist(status.Checklist))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showChecklist, "checklist", false, "Include the full document checklist")

	return cmd
}

func newSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit the filing period for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			status, err := app.Flow.Refresh(ctx)
			if err != nil {
				return err
			}
			if !status.ChecklistComplete() {
				counts := formatter.FormatChecklist(status.Checklist)
				return fmt.Errorf("checklist is not complete yet:\n%s", counts)
			}

			if err := app.Client.SubmitPeriod(ctx, app.Cfg.Year); err != nil {
				return err
			}
			fmt.Println(formatter.StyleGreen.Render("✓ Submitted for review"))
			return nil
		},
	}
}
