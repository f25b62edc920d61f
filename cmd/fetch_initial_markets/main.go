// Command fetch_initial_markets drives the fleet's first ship around its
// home system, visiting every marketplace waypoint to seed the markets
// table, following original_source/src/bin/fetch_initial_markets.rs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forge-industries/fleet-miner/internal/adapters/api"
	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/application/shipctrl"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/config"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/logging"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

func main() {
	cmd := &cobra.Command{
		Use:   "fetch_initial_markets",
		Short: "Visit every marketplace in the home system with the fleet's first ship",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoadConfig()
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	ctx = logging.WithLogger(ctx, log)
	clock := shared.NewRealClock()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	agents := persistence.NewAgentRepository(db)
	markets := persistence.NewMarketRepository(db)
	surveys := persistence.NewSurveyRepository(db)

	a, err := agents.FindBySymbol(ctx, cfg.Agent.Callsign)
	if err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	if a == nil {
		return fmt.Errorf("agent %s is not registered; run the register command first", cfg.Agent.Callsign)
	}

	client := api.NewClientWithConfig(
		cfg.API.BaseURL,
		cfg.API.Retry.MaxAttempts,
		cfg.API.Retry.BackoffBase,
		cfg.API.CircuitBreaker.Threshold,
		cfg.API.CircuitBreaker.Timeout,
		clock,
	)

	shipsData, err := client.ListShips(ctx, a.BearerToken)
	if err != nil {
		return fmt.Errorf("list ships: %w", err)
	}
	if len(shipsData) == 0 {
		return fmt.Errorf("agent %s has no ships", a.Symbol)
	}

	// The first ship in fleet order is the command frigate every new agent
	// starts with, matching the original's ship_controller(1).
	ship, err := api.ShipFromData(shipsData[0])
	if err != nil {
		return fmt.Errorf("reconstruct ship %s: %w", shipsData[0].Symbol, err)
	}

	state := fleet.NewState()
	state.SetAgent(a)
	state.LoadShip(ship)

	ctrl := shipctrl.NewController(ship, client, a.BearerToken, clock, state, surveys)

	if err := ctrl.FlightMode(ctx, shared.FlightModeCruise); err != nil {
		return fmt.Errorf("set flight mode: %w", err)
	}

	systemSymbol := a.SystemSymbol()
	waypoints, err := client.ListSystemWaypoints(ctx, systemSymbol, a.BearerToken)
	if err != nil {
		return fmt.Errorf("list system waypoints: %w", err)
	}

	for _, w := range waypoints {
		if !api.IsMarketWaypoint(w) {
			continue
		}
		if err := visitMarket(ctx, ctrl, client, markets, systemSymbol, w, a.BearerToken, clock); err != nil {
			log.Error().Str("waypoint", w.Symbol).Err(err).Msg("failed to fetch market")
			continue
		}
		log.Info().Str("waypoint", w.Symbol).Msg("fetched market")
	}

	return nil
}

func visitMarket(ctx context.Context, ctrl *shipctrl.Controller, client ports.APIClient, markets *persistence.MarketRepository, systemSymbol string, w *ports.WaypointData, token string, clock shared.Clock) error {
	waypoint, err := shared.NewWaypoint(w.Symbol, 0, 0)
	if err != nil {
		return err
	}

	if err := ctrl.Navigate(ctx, waypoint); err != nil {
		return err
	}
	if remaining, active := ctrl.NavigationCooldown(); active {
		clock.Sleep(remaining)
	}

	marketData, err := client.GetMarket(ctx, systemSymbol, w.Symbol, token)
	if err != nil {
		return err
	}
	m, err := api.MarketFromData(marketData)
	if err != nil {
		return err
	}
	if err := markets.Save(ctx, m); err != nil {
		return err
	}

	return ctrl.Refuel(ctx)
}
