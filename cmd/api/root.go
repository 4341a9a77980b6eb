package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Running it without a subcommand
// starts the HTTP server.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Credential service: registration, login and password recovery",
		PersistentPreRun: func(*cobra.Command, []string) {
			// best-effort: a missing .env means real env or defaults
			_ = godotenv.Load()
		},
		RunE:         serve.RunE,
		SilenceUsage: true,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}
