package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the PostgreSQL database named by DATABASE_URL.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cmd.Println("Connecting to database...")
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		return oops.Code("db_connect_failed").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := database.Migrate(cmd.Context(), db); err != nil {
		return oops.Code("migration_failed").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
