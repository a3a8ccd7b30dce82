package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

func newFirmsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firms",
		Short: "Browse and choose a tax firm",
		RunE: func(cmd *cobra.Command, args []string) error {
			firms, err := app.Client.ListFirms(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatFirms(firms))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "select <firm-id>",
		Short: "Select a firm to work with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			firmID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid firm id %q", args[0])
			}
			if err := app.Client.SelectFirm(cmd.Context(), firmID); err != nil {
				return err
			}
			fmt.Println(formatter.StyleGreen.Render("✓ Firm selected"))
			return nil
		},
	})

	return cmd
}
