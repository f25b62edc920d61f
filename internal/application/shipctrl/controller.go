// Package shipctrl implements the per-ship action surface (§4.D): a
// short-lived handle over one already-leased ship that translates intent
// (navigate, survey, extract, sell) into API calls and local state updates.
package shipctrl

import (
	"context"
	"errors"
	"time"

	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/domain/survey"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

// SurveyStore is the persistence slice the controller needs: persisting new
// surveys and marking one exhausted after a 4221/4224 API error. Satisfied
// structurally by internal/adapters/persistence.SurveyRepository.
type SurveyStore interface {
	Create(ctx context.Context, s *survey.Survey) (*survey.Survey, error)
	MarkExhausted(ctx context.Context, id int64) error
}

// Controller is a short-lived handle over one leased ship. Every action is
// idempotent at the contract level per §4.D.
type Controller struct {
	Ship *navigation.Ship

	client ports.APIClient
	token  string
	clock  shared.Clock
	fleet  *fleet.State
	store  SurveyStore
}

// NewController builds a controller over an already-acquired ship.
func NewController(ship *navigation.Ship, client ports.APIClient, token string, clock shared.Clock, state *fleet.State, store SurveyStore) *Controller {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Controller{Ship: ship, client: client, token: token, clock: clock, fleet: state, store: store}
}

// FlightMode sets the ship's flight mode; no-op if already at target.
func (c *Controller) FlightMode(ctx context.Context, target shared.FlightMode) error {
	if c.Ship.FlightMode() == target {
		return nil
	}
	result, err := c.client.SetFlightMode(ctx, c.Ship.ShipSymbol(), target.Name(), c.token)
	if err != nil {
		return err
	}
	c.Ship.SetFlightMode(shared.ParseFlightMode(result.FlightMode))
	return nil
}

// OrbitStatus drives the ship to target (IN_ORBIT or DOCKED); no-op on
// match, asserting the returned status matches what was requested. A ship
// still marked IN_TRANSIT whose arrival time has passed is first moved to
// IN_ORBIT.
func (c *Controller) OrbitStatus(ctx context.Context, target navigation.NavStatus) error {
	if c.Ship.IsInTransit() {
		if _, active := c.Ship.NavigationCooldown(c.clock.Now()); !active {
			if err := c.Ship.Arrive(); err != nil {
				return err
			}
		}
	}
	switch target {
	case navigation.NavStatusInOrbit:
		if c.Ship.IsInOrbit() {
			return nil
		}
		result, err := c.client.OrbitShip(ctx, c.Ship.ShipSymbol(), c.token)
		if err != nil {
			return err
		}
		if result.NavStatus != string(navigation.NavStatusInOrbit) {
			return shared.NewPlannerMismatchError(c.Ship.ShipSymbol(), shared.NewAPIError(0, 0, "orbit did not return IN_ORBIT"))
		}
		_, err = c.Ship.EnsureInOrbit()
		return err

	case navigation.NavStatusDocked:
		if c.Ship.IsDocked() {
			return nil
		}
		result, err := c.client.DockShip(ctx, c.Ship.ShipSymbol(), c.token)
		if err != nil {
			return err
		}
		if result.NavStatus != string(navigation.NavStatusDocked) {
			return shared.NewPlannerMismatchError(c.Ship.ShipSymbol(), shared.NewAPIError(0, 0, "dock did not return DOCKED"))
		}
		_, err = c.Ship.EnsureDocked()
		return err

	default:
		return shared.NewShipError("orbit_status target must be IN_ORBIT or DOCKED")
	}
}

// Navigate forces IN_ORBIT, then sends the ship toward waypoint; no-op if
// already there.
func (c *Controller) Navigate(ctx context.Context, waypoint *shared.Waypoint) error {
	if c.Ship.IsAtWaypoint(waypoint.Symbol) {
		return nil
	}
	if err := c.OrbitStatus(ctx, navigation.NavStatusInOrbit); err != nil {
		return err
	}

	result, err := c.client.NavigateShip(ctx, c.Ship.ShipSymbol(), waypoint.Symbol, c.token)
	if err != nil {
		return err
	}

	if err := c.Ship.StartTransit(waypoint, result.ArrivalTime); err != nil {
		return err
	}
	c.Ship.SetFuel(result.FuelCurrent, result.FuelCapacity)
	return nil
}

// Refuel buys fuel up to the next 100-unit boundary below capacity; a no-op
// when the rounded amount is zero.
func (c *Controller) Refuel(ctx context.Context) error {
	units := c.Ship.RefuelUnits()
	if units == 0 {
		return nil
	}
	if err := c.OrbitStatus(ctx, navigation.NavStatusDocked); err != nil {
		return err
	}

	result, err := c.client.RefuelShip(ctx, c.Ship.ShipSymbol(), c.token, units)
	if err != nil {
		return err
	}
	c.Ship.SetFuel(result.FuelCurrent, result.FuelCapacity)
	return nil
}

// Survey forces IN_ORBIT, waits out the reactor cooldown, samples a survey,
// persists it, and appends it to fleet state.
func (c *Controller) Survey(ctx context.Context) error {
	if err := c.OrbitStatus(ctx, navigation.NavStatusInOrbit); err != nil {
		return err
	}
	if remaining, active := c.Ship.ReactorCooldown(c.clock.Now()); active {
		c.clock.Sleep(remaining)
	}

	result, err := c.client.Survey(ctx, c.Ship.ShipSymbol(), c.token)
	if err != nil {
		return err
	}
	c.Ship.SetReactorCooldown(result.CooldownExpiration)

	asteroidSymbol := c.Ship.CurrentLocation().Symbol
	for _, sd := range result.Surveys {
		sv, err := survey.NewSurvey(sd.Signature, sd.AsteroidSymbol, sd.Deposits, sd.ExpiresAt)
		if err != nil {
			continue
		}
		saved, err := c.store.Create(ctx, sv)
		if err != nil {
			continue
		}
		c.fleet.AddSurveys(asteroidSymbol, saved)
	}
	return nil
}

// ExtractSurvey waits out the reactor cooldown and extracts against one
// survey, recognising the domain error codes §4.D names.
func (c *Controller) ExtractSurvey(ctx context.Context, sv *survey.Survey) error {
	if remaining, active := c.Ship.ReactorCooldown(c.clock.Now()); active {
		c.clock.Sleep(remaining)
	}

	result, err := c.client.Extract(ctx, c.Ship.ShipSymbol(), c.token, sv.Signature, sv.Deposits)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			if apiErr.IsSurveyInvalidated() {
				_ = c.store.MarkExhausted(ctx, sv.ID)
				c.fleet.RemoveSurvey(sv.AsteroidSymbol, sv.ID)
				return nil
			}
			if apiErr.IsCooldown() {
				c.clock.Sleep(15 * time.Second)
				return nil
			}
			return shared.NewPlannerMismatchError(c.Ship.ShipSymbol(), apiErr)
		}
		return err
	}

	c.Ship.SetReactorCooldown(result.CooldownExpiration)
	c.applyCargo(result.CargoUnits, result.CargoCapacity, result.CargoInventory)
	return nil
}

// Extract performs an un-surveyed extraction.
func (c *Controller) Extract(ctx context.Context) error {
	if remaining, active := c.Ship.ReactorCooldown(c.clock.Now()); active {
		c.clock.Sleep(remaining)
	}

	result, err := c.client.Extract(ctx, c.Ship.ShipSymbol(), c.token, "", nil)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			if apiErr.IsCooldown() {
				c.clock.Sleep(15 * time.Second)
				return nil
			}
			return shared.NewPlannerMismatchError(c.Ship.ShipSymbol(), apiErr)
		}
		return err
	}

	c.Ship.SetReactorCooldown(result.CooldownExpiration)
	c.applyCargo(result.CargoUnits, result.CargoCapacity, result.CargoInventory)
	return nil
}

// Sell forces DOCKED and sells units of one cargo good.
func (c *Controller) Sell(ctx context.Context, symbol string, units int) error {
	if err := c.OrbitStatus(ctx, navigation.NavStatusDocked); err != nil {
		return err
	}

	result, err := c.client.SellCargo(ctx, c.Ship.ShipSymbol(), symbol, units, c.token)
	if err != nil {
		return err
	}
	c.applyCargo(result.CargoUnits, result.CargoCapacity, result.CargoInventory)
	return nil
}

func (c *Controller) applyCargo(units, capacity int, inventory []ports.CargoItemData) {
	items := make([]*shared.CargoItem, 0, len(inventory))
	for _, item := range inventory {
		ci, err := shared.NewCargoItem(item.Symbol, "", "", item.Units)
		if err != nil {
			continue
		}
		items = append(items, ci)
	}
	cargo, err := shared.NewCargo(capacity, units, items)
	if err != nil {
		return
	}
	c.Ship.SetCargo(cargo)
}

// NavigationCooldown reports the remaining transit time, or false if past.
func (c *Controller) NavigationCooldown() (time.Duration, bool) {
	return c.Ship.NavigationCooldown(c.clock.Now())
}

// ReactorCooldown reports the remaining reactor cooldown, or false if past.
func (c *Controller) ReactorCooldown() (time.Duration, bool) {
	return c.Ship.ReactorCooldown(c.clock.Now())
}

func asAPIError(err error) (*shared.APIError, bool) {
	var apiErr *shared.APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
