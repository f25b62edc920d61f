// Package ports defines the domain's interface onto the SpaceTraders API,
// following the teacher's hexagonal "domain port, infrastructure adapter"
// split: this interface lives beside the domain, concrete HTTP plumbing
// lives in internal/adapters/api. Tests replace it with an in-memory fake.
package ports

import (
	"context"
	"time"
)

// APIClient is the capability the core consumes: orbit, dock, navigate,
// flight_mode, refuel, survey, extract, sell, fetch_market,
// fetch_system_waypoints, register. Every operation returns parsed domain
// values, never raw JSON.
type APIClient interface {
	Register(ctx context.Context, callsign, faction, email string) (*RegisterResult, error)
	GetAgent(ctx context.Context, token string) (*AgentData, error)

	GetShip(ctx context.Context, symbol, token string) (*ShipData, error)
	ListShips(ctx context.Context, token string) ([]*ShipData, error)

	OrbitShip(ctx context.Context, symbol, token string) (*NavResult, error)
	DockShip(ctx context.Context, symbol, token string) (*NavResult, error)
	NavigateShip(ctx context.Context, symbol, destination, token string) (*NavigateResult, error)
	SetFlightMode(ctx context.Context, symbol, flightMode, token string) (*NavResult, error)
	RefuelShip(ctx context.Context, symbol, token string, units int) (*RefuelResult, error)

	Survey(ctx context.Context, symbol, token string) (*SurveyResult, error)
	Extract(ctx context.Context, symbol, token string, surveySignature string, surveyDeposits []string) (*ExtractResult, error)
	SellCargo(ctx context.Context, symbol, goodSymbol string, units int, token string) (*SellResult, error)

	GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*MarketData, error)
	ListSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*WaypointData, error)
}

// RegisterResult is the response to POST /v2/register.
type RegisterResult struct {
	Token string
	Agent *AgentData
}

// AgentData is the parsed response of GET /v2/my/agent.
type AgentData struct {
	Symbol       string
	Faction      string
	Credits      int64
	Headquarters string
}

// ShipData is the parsed response shape of GET /v2/my/ships/{s}.
type ShipData struct {
	Symbol             string
	WaypointSymbol     string
	NavStatus          string
	FlightMode         string
	ArrivalTime        *time.Time
	CooldownExpiration *time.Time
	FuelCurrent        int
	FuelCapacity       int
	CargoCapacity      int
	CargoUnits         int
	CargoInventory     []CargoItemData
	Mounts             []MountData
}

// CargoItemData is one inventory slot.
type CargoItemData struct {
	Symbol string
	Units  int
}

// MountData is one installed mount.
type MountData struct {
	Symbol   string
	Power    int
	Strength int
	Deposits []string
}

// NavResult is returned by orbit/dock/flight-mode calls that only touch nav.
type NavResult struct {
	NavStatus  string
	FlightMode string
}

// NavigateResult additionally carries the new arrival time and the ship's
// fuel after departure.
type NavigateResult struct {
	NavStatus    string
	ArrivalTime  time.Time
	FuelCurrent  int
	FuelCapacity int
}

// RefuelResult reports the ship's fuel after refuelling.
type RefuelResult struct {
	FuelCurrent  int
	FuelCapacity int
}

// SurveyResult is the response to a survey action: a cooldown plus one or
// more new surveys.
type SurveyResult struct {
	CooldownExpiration time.Time
	Surveys            []SurveyData
}

// SurveyData is a single survey ticket returned by the API.
type SurveyData struct {
	Signature      string
	AsteroidSymbol string
	Deposits       []string
	ExpiresAt      time.Time
}

// ExtractResult is the response to an extract action.
type ExtractResult struct {
	CooldownExpiration time.Time
	YieldSymbol        string
	YieldUnits         int
	CargoUnits         int
	CargoCapacity      int
	CargoInventory     []CargoItemData
}

// SellResult is the response to a sell action.
type SellResult struct {
	TotalRevenue   int
	CargoUnits     int
	CargoCapacity  int
	CargoInventory []CargoItemData
}

// MarketData is the parsed response of GET .../market.
type MarketData struct {
	Symbol     string
	Exports    []string
	Imports    []string
	Exchanges  []string
	TradeGoods []TradeGoodData
}

// TradeGoodData is one entry of a market's trade goods list.
type TradeGoodData struct {
	Symbol        string
	Supply        string
	Activity      string
	SellPrice     int
	PurchasePrice int
	TradeVolume   int
	TradeType     string
}

// WaypointData is one entry of a system waypoints listing.
type WaypointData struct {
	Symbol string
	Type   string
	Traits []string
}
