package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/cli/formatter"
	"github.com/avlasenko/taxikit/internal/domain"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Print the conversation with your firm",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			history, err := app.Client.ChatHistory(ctx, app.Cfg.DriverID)
			if err != nil {
				// Fall back to the cached history when the backend is down.
				if errors.Is(err, api.ErrNetwork) {
					cached, cacheErr := app.Cache.LoadMessages(ctx, app.Cfg.DriverID)
					if cacheErr == nil && len(cached) > 0 {
						fmt.Println(formatter.Dim("offline, showing cached conversation"))
						printConversation(cached, app.Cfg.DriverID)
						return nil
					}
				}
				return err
			}
			if err := app.Cache.SaveMessages(ctx, app.Cfg.DriverID, history); err != nil {
				app.Log.Warn("caching chat history failed", "error", err)
			}

			if len(history) == 0 {
				fmt.Println(formatter.Dim("No messages yet."))
				return nil
			}
			printConversation(history, app.Cfg.DriverID)
			return nil
		},
	}
}

func printConversation(messages []domain.ChatMessage, selfID int64) {
	for _, m := range messages {
		who := formatter.StyleBlue.Render("firm")
		if m.SenderID == selfID {
			who = formatter.StyleGreen.Render("you")
		}
		fmt.Printf("%s %s %s\n", formatter.Dim(m.SentAt.Format("Jan 2 15:04")), who, m.Text)
	}
}
