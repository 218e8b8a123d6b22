package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "sandbag",
		Short: "CLI tool for the sandbag game API",
		Long: `sandbag is a CLI tool for interacting with the sandbag JSON API.

It supports room management, every game command from team assignment
through scoring, and real-time SSE event streaming.

Creating or joining a room remembers your player ID in the identity file,
so later commands act as you without passing --player.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadIdentity(); err != nil {
				return fmt.Errorf("failed to read identity file: %w", err)
			}

			client = NewClient(cfg.ServerURL, cfg.PlayerID)
			if cfg.Verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "server: %s player: %q\n", cfg.ServerURL, cfg.PlayerID)
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SANDBAG_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerID, "player", cfg.PlayerID, "Act as this player ID (env: SANDBAG_PLAYER)")
	rootCmd.PersistentFlags().StringVar(&cfg.IdentityFile, "identity-file", cfg.IdentityFile, "Identity file path (env: SANDBAG_IDENTITY_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
