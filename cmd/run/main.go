// Command run loads the fleet and drives every mining-configured ship
// through the bounded-concurrency scheduler until interrupted. Its top-level
// loop is spec.md §4.G's runtime, not original_source/src/bin/run.rs's
// incomplete executor-queue sketch: the Rust binary never finished its
// round-robin loop, so the scheduler this repo already implements is
// authoritative here.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forge-industries/fleet-miner/internal/adapters/api"
	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/application/executor"
	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/domain/mining"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/config"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/logging"
	"github.com/forge-industries/fleet-miner/internal/ports"
	"github.com/forge-industries/fleet-miner/internal/runtime"
)

func main() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the fleet's mining scheduler until interrupted",
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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	agentData, err := client.GetAgent(ctx, a.BearerToken)
	if err != nil {
		return fmt.Errorf("refresh agent: %w", err)
	}
	a = a.WithCredits(agentData.Credits)
	if err := agents.Save(ctx, a); err != nil {
		return fmt.Errorf("persist refreshed agent: %w", err)
	}

	state := fleet.NewState()
	state.SetAgent(a)

	shipsData, err := client.ListShips(ctx, a.BearerToken)
	if err != nil {
		return fmt.Errorf("list ships: %w", err)
	}
	if len(shipsData) == 0 {
		return fmt.Errorf("agent %s has no ships", a.Symbol)
	}

	ships := make([]*navigation.Ship, 0, len(shipsData))
	for _, sd := range shipsData {
		ship, err := api.ShipFromData(sd)
		if err != nil {
			return fmt.Errorf("reconstruct ship %s: %w", sd.Symbol, err)
		}
		state.LoadShip(ship)
		ships = append(ships, ship)
	}

	systemSymbol := a.SystemSymbol()

	systemMarkets, err := markets.ListInSystem(ctx, systemSymbol)
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}
	for _, m := range systemMarkets {
		state.SetMarket(m)
	}

	activeSurveys, err := surveys.LoadActive(ctx, clock.Now())
	if err != nil {
		return fmt.Errorf("load active surveys: %w", err)
	}
	for _, sv := range activeSurveys {
		state.AddSurveys(sv.AsteroidSymbol, sv)
	}

	waypoints, err := client.ListSystemWaypoints(ctx, systemSymbol, a.BearerToken)
	if err != nil {
		return fmt.Errorf("list system waypoints: %w", err)
	}

	// The fleet's first ship is the command frigate reserved for market
	// surveillance (see cmd/fetch_initial_markets); every other ship
	// carrying a mining laser works the system's asteroid field. Systems in
	// this game expose a single primary asteroid field, so every mining
	// ship shares it, matching the original's single static ShipConfig
	// asteroid target generalised across however many ships the fleet has.
	asteroidSymbol, asteroidTraits, ok := findAsteroid(waypoints)
	if !ok {
		log.Warn().Str("system", systemSymbol).Msg("no asteroid field found; nothing to mine")
	}

	ex := executor.NewExecutor(state, client, a.BearerToken, clock, surveys)

	var items []runtime.Item
	for i, ship := range ships {
		if i == 0 {
			continue
		}
		if ship.MiningStrength() <= 0 {
			continue
		}
		if !ok {
			continue
		}

		plan, err := mining.BuildPlan(asteroidSymbol, asteroidTraits, systemMarkets, ship.Mounts(), rand.New(rand.NewPCG(uint64(i)+1, 0x5350414345)))
		if err != nil {
			return fmt.Errorf("build mining plan for %s: %w", ship.ShipSymbol(), err)
		}

		shipSymbol := ship.ShipSymbol()
		items = append(items, runtime.Item{
			ID:       shipSymbol,
			Priority: 0,
			Step: func(ctx context.Context) (*time.Duration, error) {
				return ex.Step(ctx, shipSymbol, asteroidSymbol, plan)
			},
		})
	}

	if len(items) == 0 {
		log.Warn().Msg("no mining-configured ships found; nothing to run")
		return nil
	}

	// ErrFunc is left nil: the runtime's default already treats every step
	// error as fatal, which is correct here, since shipctrl.Controller
	// absorbs the only recoverable classes (cooldown, survey invalidation)
	// before they ever reach a step's return value. Anything that surfaces
	// this far is a PlannerMismatchError, LeaseTimeoutError, GraphShapeError,
	// or transport failure, all of which must terminate the process.
	rt := runtime.New(items, cfg.Runtime.Concurrency, clock)

	log.Info().Int("ships", len(items)).Str("asteroid", asteroidSymbol).Msg("starting scheduler")
	err = rt.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shutdown requested")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("fatal step error; terminating")
	}
	return err
}

func findAsteroid(waypoints []*ports.WaypointData) (string, []string, bool) {
	for _, w := range waypoints {
		if api.IsAsteroidWaypoint(w) {
			return w.Symbol, w.Traits, true
		}
	}
	return "", nil, false
}
