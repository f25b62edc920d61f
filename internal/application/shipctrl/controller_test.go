package shipctrl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-industries/fleet-miner/internal/application/fleet"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/domain/survey"
	"github.com/forge-industries/fleet-miner/internal/ports"
)

// fakeClient is a minimal, fully-scripted ports.APIClient stand-in; each
// field is invoked if non-nil and the call is counted.
type fakeClient struct {
	orbitCalls, dockCalls, navigateCalls, refuelCalls, surveyCalls, extractCalls, sellCalls int

	extractFn func() (*ports.ExtractResult, error)
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
	f.dockCalls++
	return &ports.NavResult{NavStatus: "DOCKED"}, nil
}
func (f *fakeClient) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigateResult, error) {
	f.navigateCalls++
	return &ports.NavigateResult{
		NavStatus:    "IN_TRANSIT",
		ArrivalTime:  time.Now().Add(10 * time.Second),
		FuelCurrent:  80,
		FuelCapacity: 100,
	}, nil
}
func (f *fakeClient) SetFlightMode(ctx context.Context, symbol, flightMode, token string) (*ports.NavResult, error) {
	return &ports.NavResult{NavStatus: "IN_ORBIT", FlightMode: flightMode}, nil
}
func (f *fakeClient) RefuelShip(ctx context.Context, symbol, token string, units int) (*ports.RefuelResult, error) {
	f.refuelCalls++
	return &ports.RefuelResult{FuelCurrent: 100, FuelCapacity: 100}, nil
}
func (f *fakeClient) Survey(ctx context.Context, symbol, token string) (*ports.SurveyResult, error) {
	f.surveyCalls++
	return &ports.SurveyResult{
		CooldownExpiration: time.Now().Add(60 * time.Second),
		Surveys: []ports.SurveyData{
			{Signature: "SIG-1", AsteroidSymbol: "X1-DK53-AST", Deposits: []string{"IRON_ORE"}, ExpiresAt: time.Now().Add(600 * time.Second)},
		},
	}, nil
}
func (f *fakeClient) Extract(ctx context.Context, symbol, token, surveySignature string, surveyDeposits []string) (*ports.ExtractResult, error) {
	f.extractCalls++
	if f.extractFn != nil {
		return f.extractFn()
	}
	return &ports.ExtractResult{
		CooldownExpiration: time.Now().Add(60 * time.Second),
		YieldSymbol:        "IRON_ORE",
		YieldUnits:         10,
		CargoUnits:         10,
		CargoCapacity:      40,
		CargoInventory:     []ports.CargoItemData{{Symbol: "IRON_ORE", Units: 10}},
	}, nil
}
func (f *fakeClient) SellCargo(ctx context.Context, symbol, goodSymbol string, units int, token string) (*ports.SellResult, error) {
	f.sellCalls++
	return &ports.SellResult{TotalRevenue: 500, CargoUnits: 0, CargoCapacity: 40}, nil
}
func (f *fakeClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.MarketData, error) {
	return nil, nil
}
func (f *fakeClient) ListSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*ports.WaypointData, error) {
	return nil, nil
}

// fakeSurveyStore records Create/MarkExhausted calls.
type fakeSurveyStore struct {
	created   []*survey.Survey
	exhausted []int64
}

func (s *fakeSurveyStore) Create(ctx context.Context, sv *survey.Survey) (*survey.Survey, error) {
	sv.ID = int64(len(s.created) + 1)
	s.created = append(s.created, sv)
	return sv, nil
}

func (s *fakeSurveyStore) MarkExhausted(ctx context.Context, id int64) error {
	s.exhausted = append(s.exhausted, id)
	return nil
}

func newTestShip(t *testing.T, status navigation.NavStatus, fuelCurrent, fuelCapacity int) *navigation.Ship {
	t.Helper()
	fuel, err := shared.NewFuel(fuelCurrent, fuelCapacity)
	require.NoError(t, err)
	cargo, err := shared.NewCargo(40, 0, nil)
	require.NoError(t, err)
	loc, err := shared.NewWaypoint("X1-DK53-AST", 0, 0)
	require.NoError(t, err)
	laser := navigation.NewMount("MOUNT_MINING_LASER_II", 2, 25, nil)
	s, err := navigation.NewShip("TEST-1", loc, fuel, 40, cargo, []*navigation.Mount{laser}, status)
	require.NoError(t, err)
	return s
}

func newController(t *testing.T, ship *navigation.Ship, client ports.APIClient, clock shared.Clock, store SurveyStore) *Controller {
	t.Helper()
	state := fleet.NewState()
	return NewController(ship, client, "test-token", clock, state, store)
}

// TestOrbitStatusNoOpOnMatch exercises the no-op-on-match boundary of
// orbit_status: already IN_ORBIT must not call the API.
func TestOrbitStatusNoOpOnMatch(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	err := ctrl.OrbitStatus(context.Background(), navigation.NavStatusInOrbit)
	require.NoError(t, err)
	assert.Equal(t, 0, client.orbitCalls)
}

// TestOrbitStatusTransitions exercises the DOCKED <-> IN_ORBIT state machine.
func TestOrbitStatusTransitions(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusDocked, 100, 100)
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	require.NoError(t, ctrl.OrbitStatus(context.Background(), navigation.NavStatusInOrbit))
	assert.Equal(t, 1, client.orbitCalls)
	assert.True(t, ship.IsInOrbit())

	require.NoError(t, ctrl.OrbitStatus(context.Background(), navigation.NavStatusDocked))
	assert.Equal(t, 1, client.dockCalls)
	assert.True(t, ship.IsDocked())
}

// TestRefuelNoOpBoundary exercises the refuel no-op boundary: when
// capacity-current < 100, RefuelUnits rounds to 0 and the API is not called.
func TestRefuelNoOpBoundary(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusDocked, 50, 100) // 50 short, rounds to 0
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	require.NoError(t, ctrl.Refuel(context.Background()))
	assert.Equal(t, 0, client.refuelCalls)
}

// TestRefuelRoundsDownToHundred exercises the normal refuel path.
func TestRefuelRoundsDownToHundred(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusDocked, 0, 250) // needs 250, rounds to 200
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	require.NoError(t, ctrl.Refuel(context.Background()))
	assert.Equal(t, 1, client.refuelCalls)
}

// TestExtractSurveyHandlesExhaustion exercises the 4221/4224 survey
// exhaustion path: the survey is marked exhausted in the store and removed
// from fleet state, with no error surfaced.
func TestExtractSurveyHandlesExhaustion(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{extractFn: func() (*ports.ExtractResult, error) {
		return nil, shared.NewAPIError(4221, 400, "survey expired")
	}}
	store := &fakeSurveyStore{}
	clock := shared.NewMockClock(time.Now())

	state := fleet.NewState()
	ctrl := NewController(ship, client, "test-token", clock, state, store)

	sv, err := survey.NewSurvey("SIG-1", "X1-DK53-AST", []string{"IRON_ORE"}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	sv.ID = 7
	state.AddSurveys("X1-DK53-AST", sv)

	err = ctrl.ExtractSurvey(context.Background(), sv)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, store.exhausted)
	assert.Empty(t, state.Surveys("X1-DK53-AST"))
}

// TestExtractSurveyHandlesCooldown exercises the 4000 ship-on-cooldown path:
// the controller sleeps 15s on the mock clock and returns no error.
func TestExtractSurveyHandlesCooldown(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{extractFn: func() (*ports.ExtractResult, error) {
		return nil, shared.NewAPIError(4000, 409, "ship on cooldown")
	}}
	clock := shared.NewMockClock(time.Now())
	start := clock.Now()
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	sv, err := survey.NewSurvey("SIG-1", "X1-DK53-AST", []string{"IRON_ORE"}, time.Now().Add(time.Minute))
	require.NoError(t, err)

	err = ctrl.ExtractSurvey(context.Background(), sv)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, clock.Now().Sub(start))
}

// TestNavigateNoOpAtDestination exercises the navigate no-op boundary.
func TestNavigateNoOpAtDestination(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	dest, err := shared.NewWaypoint("X1-DK53-AST", 0, 0)
	require.NoError(t, err)

	require.NoError(t, ctrl.Navigate(context.Background(), dest))
	assert.Equal(t, 0, client.navigateCalls)
}

// TestNavigateDrivesStateMachine exercises the full navigate path: forcing
// IN_ORBIT, then transitioning to IN_TRANSIT.
func TestNavigateDrivesStateMachine(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusDocked, 100, 100)
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	dest, err := shared.NewWaypoint("X1-DK54-AST", 1, 1)
	require.NoError(t, err)

	require.NoError(t, ctrl.Navigate(context.Background(), dest))
	assert.Equal(t, 1, client.orbitCalls)
	assert.Equal(t, 1, client.navigateCalls)
	assert.True(t, ship.IsInTransit())
	assert.Equal(t, 80, ship.Fuel().Current)
}

// TestSurveyPersistsAndAppendsToFleetState exercises the survey action's
// persistence side effect.
func TestSurveyPersistsAndAppendsToFleetState(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{}
	store := &fakeSurveyStore{}
	clock := shared.NewMockClock(time.Now())
	state := fleet.NewState()
	ctrl := NewController(ship, client, "test-token", clock, state, store)

	require.NoError(t, ctrl.Survey(context.Background()))
	assert.Len(t, store.created, 1)
	assert.Len(t, state.Surveys("X1-DK53-AST"), 1)
}

// TestSellForcesDocked exercises the sell action's implicit dock.
func TestSellForcesDocked(t *testing.T) {
	ship := newTestShip(t, navigation.NavStatusInOrbit, 100, 100)
	client := &fakeClient{}
	clock := shared.NewMockClock(time.Now())
	ctrl := newController(t, ship, client, clock, &fakeSurveyStore{})

	require.NoError(t, ctrl.Sell(context.Background(), "IRON_ORE", 10))
	assert.Equal(t, 1, client.dockCalls)
	assert.Equal(t, 1, client.sellCalls)
}
