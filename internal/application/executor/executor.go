// Package executor drives one ship through a single logical mining step:
// classify its current cargo/survey state against a precomputed policy,
// then dispatch the chosen action through the ship controller.
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/application/shipctrl"
	"github.com/forge-industries/fleet-miner/internal/domain/mining"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/domain/survey"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

// Executor holds what every step needs to build a short-lived controller
// over whichever ship it is asked to step.
type Executor struct {
	state  *fleet.State
	client ports.APIClient
	token  string
	clock  shared.Clock
	store  shipctrl.SurveyStore
}

// NewExecutor builds an Executor shared across every mining-configured ship.
func NewExecutor(state *fleet.State, client ports.APIClient, token string, clock shared.Clock, store shipctrl.SurveyStore) *Executor {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Executor{state: state, client: client, token: token, clock: clock, store: store}
}

// Step performs one logical pass for shipSymbol against plan, the asteroid's
// precomputed mining policy. A nil *time.Duration return means the ship is
// done and should not be re-enqueued; this executor never returns that, as
// a mining ship's work is never finished outright, matching §4.F.
func (e *Executor) Step(ctx context.Context, shipSymbol, asteroidSymbol string, plan *mining.Plan) (*time.Duration, error) {
	ship, release, err := e.state.AcquireShip(ctx, shipSymbol)
	if err != nil {
		return nil, err
	}
	defer release()

	ctrl := shipctrl.NewController(ship, e.client, e.token, e.clock, e.state, e.store)

	asteroidWaypoint, err := shared.NewWaypoint(asteroidSymbol, 0, 0)
	if err != nil {
		return nil, err
	}

	if ship.IsCargoEmpty() {
		if usable := e.usableSurveys(asteroidSymbol, plan); len(usable) > 0 {
			return e.dispatchMining(ctx, ctrl, asteroidWaypoint, usable[0])
		}

		successor, ok := plan.StartSuccessor()
		if !ok {
			return nil, shared.NewGraphShapeError("start node has no successor")
		}
		return e.dispatchMining(ctx, ctrl, asteroidWaypoint, successorSurvey(successor))
	}

	item := ship.FirstCargoItem()
	stripped := item.Units < int(plan.MiningStrength)
	label := mining.CargoNode(item.Symbol, stripped)

	successor, ok := plan.NodeSuccessor(label)
	if !ok {
		zero := time.Duration(0)
		return &zero, nil
	}

	if successor == "finish" {
		// jettison is out of scope; leave the cargo item in place and let the
		// scheduler re-plan next tick.
		zero := time.Duration(0)
		return &zero, nil
	}

	if marketSymbol, ok := strings.CutPrefix(successor, "sell_"); ok {
		return e.dispatchSell(ctx, ctrl, marketSymbol, item.Symbol, item.Units)
	}

	zero := time.Duration(0)
	return &zero, nil
}

// successorSurvey wraps the start node's choice: "extract" dispatches an
// un-surveyed extraction, "survey" dispatches a new survey.
type successorSurvey string

func (e *Executor) usableSurveys(asteroidSymbol string, plan *mining.Plan) []*survey.Survey {
	now := e.clock.Now()
	var usable []*survey.Survey
	for _, sv := range e.state.Surveys(asteroidSymbol) {
		if sv.IsExpired(now) {
			continue
		}
		if plan.JudgeSurvey(sv.Deposits) {
			usable = append(usable, sv)
		}
	}
	return usable
}

func (e *Executor) dispatchMining(ctx context.Context, ctrl *shipctrl.Controller, asteroidWaypoint *shared.Waypoint, target interface{}) (*time.Duration, error) {
	if err := ctrl.Navigate(ctx, asteroidWaypoint); err != nil {
		return nil, err
	}
	if remaining, active := ctrl.NavigationCooldown(); active {
		return &remaining, nil
	}
	if remaining, active := ctrl.ReactorCooldown(); active {
		return &remaining, nil
	}

	switch v := target.(type) {
	case *survey.Survey:
		if err := ctrl.ExtractSurvey(ctx, v); err != nil {
			return nil, err
		}
	case successorSurvey:
		var err error
		switch string(v) {
		case "survey":
			err = ctrl.Survey(ctx)
		case "extract":
			err = ctrl.Extract(ctx)
		}
		if err != nil {
			return nil, err
		}
	}

	zero := time.Duration(0)
	return &zero, nil
}

func (e *Executor) dispatchSell(ctx context.Context, ctrl *shipctrl.Controller, marketSymbol, goodSymbol string, units int) (*time.Duration, error) {
	marketWaypoint, err := shared.NewWaypoint(marketSymbol, 0, 0)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Navigate(ctx, marketWaypoint); err != nil {
		return nil, err
	}
	if remaining, active := ctrl.NavigationCooldown(); active {
		return &remaining, nil
	}

	if err := ctrl.Sell(ctx, goodSymbol, units); err != nil {
		return nil, err
	}

	zero := time.Duration(0)
	return &zero, nil
}
