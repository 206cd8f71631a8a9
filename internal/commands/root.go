// Package commands implements the fintrack command-line client.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmynk/fintrack/pkg/client"
)

const defaultServer = "http://localhost:5000"

// app carries state shared by every subcommand.
type app struct {
	server      string
	sessionPath string
	client      *client.Client
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Track deposits and withdrawals from the terminal",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	server := os.Getenv("FINTRACK_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&a.server, "server", server, "fintrack server URL (env FINTRACK_SERVER)")
	rootCmd.PersistentFlags().StringVar(&a.sessionPath, "session", defaultSessionPath(), "file the login session is kept in")

	rootCmd.AddCommand(
		newRegisterCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
		newAddCommand(a),
		newListCommand(a),
		newAnalyticsCommand(a),
		newBalanceCommand(a),
	)

	return rootCmd
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fintrack", "session.json")
	}
	return filepath.Join(home, ".fintrack", "session.json")
}

func (a *app) open() error {
	cache := client.NewSessionCache(client.FileStorage{Path: a.sessionPath})
	if _, err := cache.Rehydrate(); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	a.client = client.New(a.server, cache)
	return nil
}

// explain rewrites errors the user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return errors.New("not logged in; run 'fintrack login' first")
	case client.IsUnauthorized(err):
		return fmt.Errorf("%w; your session may have expired, run 'fintrack login' again", err)
	default:
		return err
	}
}
