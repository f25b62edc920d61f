package executor

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/domain/mining"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/domain/survey"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

const testAsteroid = "X1-DK53-AST"

type fakeClient struct {
	orbitCalls, surveyCalls, extractCalls int
	extractFn                             func() (*ports.ExtractResult, error)
}

var _ ports.APIClient = (*fakeClient)(nil)

func (f *fakeClient) Register(ctx context.Context, callsign, faction, email string) (*ports.RegisterResult, error) {
	return nil, nil
}
func (f *fakeClient) GetAgent(ctx context.Context, token string) (*ports.AgentData, error) {
	return nil, nil
}
func (f *fakeClient) GetShip(ctx context.Context, symbol, token string) (*ports.ShipData, error) {
	return nil, nil
}
func (f *fakeClient) ListShips(ctx context.Context, token string) ([]*ports.ShipData, error) {
	return nil, nil
}
func (f *fakeClient) OrbitShip(ctx context.Context, symbol, token string) (*ports.NavResult, error) {
	f.orbitCalls++
	return &ports.NavResult{NavStatus: "IN_ORBIT"}, nil
}
func (f *fakeClient) DockShip(ctx context.Context, symbol, token string) (*ports.NavResult, error) {
	return &ports.NavResult{NavStatus: "DOCKED"}, nil
}
func (f *fakeClient) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigateResult, error) {
	return &ports.NavigateResult{NavStatus: "IN_TRANSIT", ArrivalTime: time.Now().Add(time.Second), FuelCurrent: 90, FuelCapacity: 100}, nil
}
func (f *fakeClient) SetFlightMode(ctx context.Context, symbol, flightMode, token string) (*ports.NavResult, error) {
	return &ports.NavResult{}, nil
}
func (f *fakeClient) RefuelShip(ctx context.Context, symbol, token string, units int) (*ports.RefuelResult, error) {
	return &ports.RefuelResult{}, nil
}
func (f *fakeClient) Survey(ctx context.Context, symbol, token string) (*ports.SurveyResult, error) {
	f.surveyCalls++
	return &ports.SurveyResult{CooldownExpiration: time.Now().Add(60 * time.Second)}, nil
}
func (f *fakeClient) Extract(ctx context.Context, symbol, token, surveySignature string, surveyDeposits []string) (*ports.ExtractResult, error) {
	f.extractCalls++
	if f.extractFn != nil {
		return f.extractFn()
	}
	return &ports.ExtractResult{CooldownExpiration: time.Now().Add(60 * time.Second)}, nil
}
func (f *fakeClient) SellCargo(ctx context.Context, symbol, goodSymbol string, units int, token string) (*ports.SellResult, error) {
	return &ports.SellResult{}, nil
}
func (f *fakeClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.MarketData, error) {
	return nil, nil
}
func (f *fakeClient) ListSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*ports.WaypointData, error) {
	return nil, nil
}

type fakeSurveyStore struct {
	exhausted []int64
}

func (s *fakeSurveyStore) Create(ctx context.Context, sv *survey.Survey) (*survey.Survey, error) {
	return sv, nil
}
func (s *fakeSurveyStore) MarkExhausted(ctx context.Context, id int64) error {
	s.exhausted = append(s.exhausted, id)
	return nil
}

func newTradeGood(t *testing.T, symbol string, sellPrice int) market.TradeGood {
	t.Helper()
	g, err := market.NewTradeGood(symbol, "ABUNDANT", "STRONG", sellPrice/2, sellPrice, 100)
	require.NoError(t, err)
	return *g
}

func simplePlan(t *testing.T) *mining.Plan {
	t.Helper()
	goods := []market.TradeGood{
		newTradeGood(t, "IRON_ORE", 500),
		newTradeGood(t, "ICE_WATER", 20),
		newTradeGood(t, "QUARTZ_SAND", 20),
		newTradeGood(t, "SILICON_CRYSTALS", 20),
		newTradeGood(t, "AMMONIA_ICE", 20),
		newTradeGood(t, "PRECIOUS_STONES", 20),
		newTradeGood(t, "DIAMONDS", 20),
	}
	m, err := market.NewMarket(testAsteroid, nil, nil, []string{"IRON_ORE"}, goods)
	require.NoError(t, err)

	laser := navigation.NewMount("MOUNT_MINING_LASER_II", 2, 25, nil)
	plan, err := mining.BuildPlan(testAsteroid, []string{"COMMON_METAL_DEPOSITS"}, []*market.Market{m}, []*navigation.Mount{laser}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return plan
}

func newShipAt(t *testing.T, status navigation.NavStatus) *navigation.Ship {
	t.Helper()
	fuel, err := shared.NewFuel(100, 100)
	require.NoError(t, err)
	cargo, err := shared.NewCargo(40, 0, nil)
	require.NoError(t, err)
	loc, err := shared.NewWaypoint(testAsteroid, 0, 0)
	require.NoError(t, err)
	laser := navigation.NewMount("MOUNT_MINING_LASER_II", 2, 25, nil)
	s, err := navigation.NewShip("MINER-1", loc, fuel, 40, cargo, []*navigation.Mount{laser}, status)
	require.NoError(t, err)
	return s
}

// TestStepRespectsReactorCooldown exercises the §8 "cooldown respected"
// scenario: a ship on a 30s reactor cooldown with no navigation cooldown
// returns that remaining duration without extracting or surveying.
func TestStepRespectsReactorCooldown(t *testing.T) {
	ship := newShipAt(t, navigation.NavStatusInOrbit)
	ship.SetReactorCooldown(time.Now().Add(30 * time.Second))

	state := fleet.NewState()
	state.LoadShip(ship)

	client := &fakeClient{}
	store := &fakeSurveyStore{}
	ex := NewExecutor(state, client, "test-token", shared.NewRealClock(), store)

	plan := simplePlan(t)
	delay, err := ex.Step(context.Background(), "MINER-1", testAsteroid, plan)
	require.NoError(t, err)
	require.NotNil(t, delay)
	assert.Greater(t, *delay, 29*time.Second)
	assert.LessOrEqual(t, *delay, 30*time.Second)
	assert.Equal(t, 0, client.extractCalls)
	assert.Equal(t, 0, client.surveyCalls)
}

// TestStepHandlesSurveyInvalidation exercises the §8 "survey invalidation"
// scenario: extract returns 4224, the survey is marked exhausted in the
// store and removed from the in-memory asteroid list.
func TestStepHandlesSurveyInvalidation(t *testing.T) {
	ship := newShipAt(t, navigation.NavStatusInOrbit)

	state := fleet.NewState()
	state.LoadShip(ship)

	sv, err := survey.NewSurvey("SIG-1", testAsteroid, []string{"IRON_ORE"}, time.Now().Add(10*time.Minute))
	require.NoError(t, err)
	sv.ID = 42
	state.AddSurveys(testAsteroid, sv)

	client := &fakeClient{extractFn: func() (*ports.ExtractResult, error) {
		return nil, shared.NewAPIError(4224, 400, "survey exhausted")
	}}
	store := &fakeSurveyStore{}
	ex := NewExecutor(state, client, "test-token", shared.NewRealClock(), store)

	plan := simplePlan(t)
	delay, err := ex.Step(context.Background(), "MINER-1", testAsteroid, plan)
	require.NoError(t, err)
	require.NotNil(t, delay)
	assert.Equal(t, time.Duration(0), *delay)
	assert.Equal(t, []int64{42}, store.exhausted)
	assert.Empty(t, state.Surveys(testAsteroid))
}
