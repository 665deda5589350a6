package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"luminoso-backend/internal/config"
	"luminoso-backend/internal/database"
	"luminoso-backend/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.Environment, cfg.LogLevel)

		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required to run migrations")
		}

		migrator, err := database.NewMigrator(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer migrator.Close()

		if err := migrator.Run(cmd.Context()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations completed successfully")
		return nil
	},
}
