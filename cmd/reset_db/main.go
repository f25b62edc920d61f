// Command reset_db truncates the agents, markets, and surveys tables,
// following original_source/src/bin/reset_db.rs's sequential per-table
// deletion with progress logging. Unlike the original, this requires an
// explicit --yes flag before touching anything, since truncation here is
// irreversible against a shared Postgres instance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/config"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/logging"
)

func main() {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset_db",
		Short: "Delete every row from the agents, markets, and surveys tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to reset the database without --yes")
			}
			return run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive reset (required)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoadConfig()
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx = logging.WithLogger(ctx, log)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	for _, table := range []struct {
		name  string
		model interface{ TableName() string }
	}{
		{"agents", persistence.AgentModel{}},
		{"markets", persistence.MarketModel{}},
		{"surveys", persistence.SurveyModel{}},
	} {
		if err := deleteAll(db, table.model); err != nil {
			return fmt.Errorf("reset %s: %w", table.name, err)
		}
		log.Info().Str("table", table.name).Msg("table reset")
	}

	log.Info().Msg("database reset complete")
	return nil
}

// deleteAll removes every row of model's table. gorm's Delete requires a
// WHERE clause; "1 = 1" is the portable unconditional match across both
// Postgres and SQLite (SQLite has no TRUNCATE).
func deleteAll(db *gorm.DB, model interface{}) error {
	return db.Where("1 = 1").Delete(model).Error
}
