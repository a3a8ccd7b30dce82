package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/wizard"
)

func newExpensesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Show expense interview answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profileID, err := resolveProfileID(ctx, app, 0)
			if err != nil {
				return err
			}
			cats, err := app.Client.GetExpenses(ctx, profileID, app.Cfg.Year)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatExpenses(cats))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <category-code> <amount>",
		Short: "Record a single expense amount (use \"none\" to clear)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profileID, err := resolveProfileID(ctx, app, 0)
			if err != nil {
				return err
			}

			save := api.ExpenseSave{Code: args[0]}
			if args[1] != "none" {
				amount, err := wizard.ParseAmount(args[1])
				if err != nil {
					return fmt.Errorf("invalid amount %q", args[1])
				}
				save.Amount = &amount
			}

			if err := app.Client.SaveExpense(ctx, profileID, app.Cfg.Year, save); err != nil {
				return err
			}
			fmt.Println(formatter.StyleGreen.Render("✓ Saved"))
			return nil
		},
	})

	return cmd
}
