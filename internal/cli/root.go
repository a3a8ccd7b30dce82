package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/chat"
	"github.com/avlasenko/taxikit/internal/chat/ws"
	"github.com/avlasenko/taxikit/internal/config"
	"github.com/avlasenko/taxikit/internal/domain"
	"github.com/avlasenko/taxikit/internal/flow"
	"github.com/avlasenko/taxikit/internal/store"
)

// Authenticator covers the credential operations of the API client.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (*api.Identity, error)
}

// ChatTransport is a live chat connection: an outbound channel plus a
// blocking inbound read loop.
type ChatTransport interface {
	chat.Channel
	Listen(receive func(domain.ChatMessage)) error
}

// App holds the wired dependencies used by CLI commands and the TUI.
type App struct {
	Cfg    config.Config
	Log    *slog.Logger
	Client Backend
	Auth   Authenticator
	Cache  *store.Cache
	Flow   *flow.Orchestrator

	// DialChat opens the live chat socket. Tests substitute a fake.
	DialChat func(ctx context.Context) (ChatTransport, error)

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	db *sql.DB
}

// NewRootCmd creates the top-level "taxikit" command and registers all
// subcommands against the provided App. Configuration is resolved in
// PersistentPreRunE so every subcommand sees a fully wired App.
func NewRootCmd(app *App) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "taxikit",
		Short: "Tax document intake for gig drivers",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.SetupLogging(cfg); err != nil {
				return err
			}
			return app.bootstrap(cfg)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return cmd.Help()
			}
			return runTUI(app)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/taxikit/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().Int64("driver", 0, "driver id")
	root.PersistentFlags().Int("year", 0, "tax year")

	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("driver.id", root.PersistentFlags().Lookup("driver"))
	_ = viper.BindPFlag("tax.year", root.PersistentFlags().Lookup("year"))

	root.AddCommand(
		newLoginCmd(app),
		newStatusCmd(app),
		newFirmsCmd(app),
		newExpensesCmd(app),
		newUploadCmd(app),
		newChatCmd(app),
		newSubmitCmd(app),
	)

	return root
}

// bootstrap wires the API client, local cache, and flow orchestrator
// from the resolved configuration. Safe to call once per process.
func (a *App) bootstrap(cfg config.Config) error {
	a.Cfg = cfg
	a.Log = slog.Default()

	client := api.New(api.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Logger:  a.Log,
	})
	a.Client = client
	a.Auth = client

	db, err := store.Open(cfg.CachePath)
	if err != nil {
		return fmt.Errorf("opening local cache: %w", err)
	}
	a.db = db
	a.Cache = store.NewCache(db)

	a.Flow = flow.New(a.Client, cfg.DriverID, cfg.Year)

	a.DialChat = func(ctx context.Context) (ChatTransport, error) {
		return ws.Dial(ctx, client.ChatSocketURL(cfg.DriverID), a.Log)
	}

	return nil
}

// Close releases the local cache handle.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
