// Command register creates the configured agent on the SpaceTraders API and
// persists its bearer token, following original_source/src/bin/register.rs's
// single register() call.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forge-industries/fleet-miner/internal/adapters/api"
	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/domain/agent"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/config"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/logging"
)

func main() {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the configured agent and persist its bearer token",
		RunE:  run,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
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

	agents := persistence.NewAgentRepository(db)

	existing, err := agents.FindBySymbol(ctx, cfg.Agent.Callsign)
	if err != nil {
		return fmt.Errorf("check existing agent: %w", err)
	}
	if existing != nil {
		log.Info().Str("callsign", existing.Symbol).Msg("agent already registered")
		return nil
	}

	client := api.NewClientWithConfig(
		cfg.API.BaseURL,
		cfg.API.Retry.MaxAttempts,
		cfg.API.Retry.BackoffBase,
		cfg.API.CircuitBreaker.Threshold,
		cfg.API.CircuitBreaker.Timeout,
		nil,
	)

	result, err := client.Register(ctx, cfg.Agent.Callsign, cfg.Agent.Faction, cfg.Agent.Email)
	if err != nil {
		return fmt.Errorf("register agent: %w", err)
	}

	a, err := agent.NewAgent(result.Agent.Symbol, result.Agent.Faction, result.Agent.Headquarters, result.Token, result.Agent.Credits)
	if err != nil {
		return fmt.Errorf("construct agent: %w", err)
	}
	if err := agents.Save(ctx, a); err != nil {
		return fmt.Errorf("persist agent: %w", err)
	}

	log.Info().Str("callsign", a.Symbol).Str("headquarters", a.Headquarters).Msg("registered agent")
	return nil
}
