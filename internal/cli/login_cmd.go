package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if email == "" || password == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email").Value(&email),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				))
				if err := form.Run(); err != nil {
					return err
				}
			}

			token, err := app.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}

			me, err := app.Auth.Me(ctx)
			if err != nil {
				return err
			}

			fmt.Println(formatter.StyleGreen.Render("✓ Signed in as " + me.Name))
			fmt.Println(formatter.Dim("Add to your config or environment:"))
			fmt.Printf("  TAXIKIT_API_TOKEN=%s\n", token)
			fmt.Printf("  TAXIKIT_DRIVER_ID=%d\n", me.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")

	return cmd
}
