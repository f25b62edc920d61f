package navigation

import (
	"fmt"
	"time"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
)

// NavStatus represents ship navigation status.
type NavStatus string

const (
	NavStatusDocked    NavStatus = "DOCKED"
	NavStatusInOrbit   NavStatus = "IN_ORBIT"
	NavStatusInTransit NavStatus = "IN_TRANSIT"
)

var validNavStatuses = map[NavStatus]bool{
	NavStatusDocked:    true,
	NavStatusInOrbit:   true,
	NavStatusInTransit: true,
}

// Ship entity — a player's spacecraft, identified by a string symbol.
//
// Invariants:
//   - ShipSymbol must be non-empty
//   - NavStatus must be one of DOCKED, IN_ORBIT, IN_TRANSIT
//   - cargo.Units <= cargo.Capacity, fuel.Current <= fuel.Capacity
//
// A ship's record is created once at fleet load and owned exclusively by the
// fleet-state map thereafter; all mutation is mediated by an exclusive-write
// handle (see application/fleet).
type Ship struct {
	shipSymbol      string
	currentLocation *shared.Waypoint
	fuel            *shared.Fuel
	cargoCapacity   int
	cargo           *shared.Cargo
	mounts          []*Mount
	navStatus       NavStatus
	flightMode      shared.FlightMode

	arrivalTime        *time.Time // set while IN_TRANSIT
	cooldownExpiration *time.Time // reactor cooldown
}

// NewShip creates a new Ship entity with validation.
func NewShip(
	shipSymbol string,
	currentLocation *shared.Waypoint,
	fuel *shared.Fuel,
	cargoCapacity int,
	cargo *shared.Cargo,
	mounts []*Mount,
	navStatus NavStatus,
) (*Ship, error) {
	s := &Ship{
		shipSymbol:      shipSymbol,
		currentLocation: currentLocation,
		fuel:            fuel,
		cargoCapacity:   cargoCapacity,
		cargo:           cargo,
		mounts:          mounts,
		navStatus:       navStatus,
		flightMode:      shared.FlightModeCruise,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReconstructShip rebuilds a Ship from API ship data, including the arrival
// time and reactor cooldown expiration.
func ReconstructShip(
	shipSymbol string,
	currentLocation *shared.Waypoint,
	fuel *shared.Fuel,
	cargoCapacity int,
	cargo *shared.Cargo,
	mounts []*Mount,
	navStatus NavStatus,
	flightMode shared.FlightMode,
	arrivalTime *time.Time,
	cooldownExpiration *time.Time,
) (*Ship, error) {
	s := &Ship{
		shipSymbol:         shipSymbol,
		currentLocation:    currentLocation,
		fuel:               fuel,
		cargoCapacity:      cargoCapacity,
		cargo:              cargo,
		mounts:             mounts,
		navStatus:          navStatus,
		flightMode:         flightMode,
		arrivalTime:        arrivalTime,
		cooldownExpiration: cooldownExpiration,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Ship) validate() error {
	if s.shipSymbol == "" {
		return shared.NewInvalidShipDataError("ship_symbol cannot be empty")
	}
	if s.fuel == nil {
		return shared.NewInvalidShipDataError("fuel cannot be nil")
	}
	if s.cargo == nil {
		return shared.NewInvalidShipDataError("cargo cannot be nil")
	}
	if s.cargoCapacity < 0 {
		return shared.NewInvalidShipDataError("cargo_capacity cannot be negative")
	}
	if s.cargo.Units > s.cargoCapacity {
		return shared.NewInvalidShipDataError("cargo_units cannot exceed cargo_capacity")
	}
	if !validNavStatuses[s.navStatus] {
		return shared.NewInvalidShipDataError(fmt.Sprintf("invalid nav_status: %s", s.navStatus))
	}
	return nil
}

// Getters

func (s *Ship) ShipSymbol() string                { return s.shipSymbol }
func (s *Ship) CurrentLocation() *shared.Waypoint { return s.currentLocation }
func (s *Ship) Fuel() *shared.Fuel                { return s.fuel }
func (s *Ship) CargoCapacity() int                { return s.cargoCapacity }
func (s *Ship) Cargo() *shared.Cargo              { return s.cargo }
func (s *Ship) Mounts() []*Mount                  { return s.mounts }
func (s *Ship) NavStatus() NavStatus              { return s.navStatus }
func (s *Ship) FlightMode() shared.FlightMode     { return s.flightMode }

func (s *Ship) IsAtWaypoint(symbol string) bool {
	return s.currentLocation != nil && s.currentLocation.Symbol == symbol
}

// MiningStrength sums the strength of installed mining lasers.
func (s *Ship) MiningStrength() int {
	total := 0
	for _, m := range s.mounts {
		if m.IsMiningLaser() {
			total += m.Strength()
		}
	}
	return total
}

// Surveyors returns the installed surveyor mounts.
func (s *Ship) Surveyors() []*Mount {
	var out []*Mount
	for _, m := range s.mounts {
		if m.IsSurveyor() {
			out = append(out, m)
		}
	}
	return out
}

// ExtractCooldown computes 60 + 10*sum(mining laser power) per spec §4.C.
func (s *Ship) ExtractCooldown() time.Duration {
	power := 0
	for _, m := range s.mounts {
		if m.IsMiningLaser() {
			power += m.Power()
		}
	}
	return time.Duration(60+10*power) * time.Second
}

// SurveyorCooldown computes 60 + 10*sum(surveyor power) per spec §4.C.
func (s *Ship) SurveyorCooldown() time.Duration {
	power := 0
	for _, m := range s.mounts {
		if m.IsSurveyor() {
			power += m.Power()
		}
	}
	return time.Duration(60+10*power) * time.Second
}

// Navigation state machine
//
//	DOCKED --dock/orbit-- IN_ORBIT --navigate-- IN_TRANSIT --arrival-- IN_ORBIT

// EnsureInOrbit transitions DOCKED -> IN_ORBIT (no-op if already there).
// Errors if IN_TRANSIT.
func (s *Ship) EnsureInOrbit() (bool, error) {
	switch s.navStatus {
	case NavStatusInOrbit:
		return false, nil
	case NavStatusInTransit:
		return false, shared.NewInvalidNavStatusError("cannot orbit while in transit")
	}
	s.navStatus = NavStatusInOrbit
	return true, nil
}

// EnsureDocked transitions IN_ORBIT -> DOCKED (no-op if already there).
// Errors if IN_TRANSIT.
func (s *Ship) EnsureDocked() (bool, error) {
	switch s.navStatus {
	case NavStatusDocked:
		return false, nil
	case NavStatusInTransit:
		return false, shared.NewInvalidNavStatusError("cannot dock while in transit")
	}
	s.navStatus = NavStatusDocked
	return true, nil
}

// StartTransit begins transit to destination; must be IN_ORBIT.
func (s *Ship) StartTransit(destination *shared.Waypoint, arrival time.Time) error {
	if s.navStatus != NavStatusInOrbit {
		return shared.NewInvalidNavStatusError(fmt.Sprintf("ship must be in orbit to start transit, currently: %s", s.navStatus))
	}
	s.navStatus = NavStatusInTransit
	s.currentLocation = destination
	s.arrivalTime = &arrival
	return nil
}

// Arrive transitions IN_TRANSIT -> IN_ORBIT.
func (s *Ship) Arrive() error {
	if s.navStatus != NavStatusInTransit {
		return shared.NewInvalidNavStatusError(fmt.Sprintf("ship must be in transit to arrive, currently: %s", s.navStatus))
	}
	s.navStatus = NavStatusInOrbit
	s.arrivalTime = nil
	return nil
}

// SetFlightMode records a flight-mode change already applied via the API.
func (s *Ship) SetFlightMode(mode shared.FlightMode) {
	s.flightMode = mode
}

// Fuel management

func (s *Ship) ConsumeFuel(amount int) error {
	if amount < 0 {
		return fmt.Errorf("fuel amount cannot be negative")
	}
	if s.fuel.Current < amount {
		return shared.NewInsufficientFuelError(amount, s.fuel.Current)
	}
	newFuel, err := s.fuel.Consume(amount)
	if err != nil {
		return err
	}
	s.fuel = newFuel
	return nil
}

func (s *Ship) SetFuel(current, capacity int) {
	if fuel, err := shared.NewFuel(current, capacity); err == nil {
		s.fuel = fuel
	}
}

// RefuelUnits computes the spec's integer refuel amount:
// floor((capacity - current) / 100) * 100.
func (s *Ship) RefuelUnits() int {
	return (s.fuel.Capacity - s.fuel.Current) / 100 * 100
}

func (s *Ship) ApplyRefuel(units int) error {
	newFuel, err := s.fuel.Add(units)
	if err != nil {
		return err
	}
	s.fuel = newFuel
	return nil
}

// Cargo management

func (s *Ship) HasCargoSpace(units int) bool {
	return s.cargo.Units+units <= s.cargoCapacity
}

func (s *Ship) AvailableCargoSpace() int {
	return s.cargo.AvailableCapacity()
}

func (s *Ship) IsCargoEmpty() bool {
	return s.cargo.IsEmpty()
}

func (s *Ship) IsCargoFull() bool {
	return s.cargo.Units >= s.cargoCapacity
}

// FirstCargoItem returns the first inventory slot, or nil if cargo is empty.
func (s *Ship) FirstCargoItem() *shared.CargoItem {
	if len(s.cargo.Inventory) == 0 {
		return nil
	}
	return s.cargo.Inventory[0]
}

func (s *Ship) SetCargo(c *shared.Cargo) {
	s.cargo = c
}

// State queries

func (s *Ship) IsDocked() bool    { return s.navStatus == NavStatusDocked }
func (s *Ship) IsInOrbit() bool   { return s.navStatus == NavStatusInOrbit }
func (s *Ship) IsInTransit() bool { return s.navStatus == NavStatusInTransit }

func (s *Ship) SetLocation(w *shared.Waypoint) { s.currentLocation = w }
func (s *Ship) SetNavStatus(status NavStatus)  { s.navStatus = status }

// Cooldowns: "None if past, else the positive remaining duration".

func (s *Ship) NavigationCooldown(now time.Time) (time.Duration, bool) {
	return shared.Remaining(s.arrivalTime, now)
}

func (s *Ship) ReactorCooldown(now time.Time) (time.Duration, bool) {
	return shared.Remaining(s.cooldownExpiration, now)
}

func (s *Ship) SetReactorCooldown(t time.Time) {
	s.cooldownExpiration = &t
}

func (s *Ship) ArrivalTime() *time.Time {
	return s.arrivalTime
}

func (s *Ship) String() string {
	return fmt.Sprintf("Ship(symbol=%s, location=%s, status=%s, fuel=%s)",
		s.shipSymbol, s.currentLocation.Symbol, s.navStatus, s.fuel)
}
