// Package fleet holds the process-wide, cheaply cloneable facade over
// live agent/ship/market/survey state, following the teacher's in-memory
// state pattern generalised to the spec's exclusive-write ship lease.
package fleet

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forge-industries/fleet-miner/internal/domain/agent"
	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
	"github.com/forge-industries/fleet-miner/internal/domain/shared"
	"github.com/forge-industries/fleet-miner/internal/domain/survey"
)

// leaseTimeout is the §4.E lease-acquisition deadline; exceeding it is
// treated as a deadlock and aborts with shared.LeaseTimeoutError.
const leaseTimeout = 5 * time.Second

// shipCell is a single-writer, multi-reader-when-free cell: acquiring the
// lease takes the one token out of a buffered channel; releasing puts it
// back. Readers that only need a momentary snapshot also go through the
// lease, matching the spec's "readers may inspect only when no writer holds
// the lease" wording.
type shipCell struct {
	token chan struct{}
	ship  *navigation.Ship
}

func newShipCell(ship *navigation.Ship) *shipCell {
	c := &shipCell{token: make(chan struct{}, 1), ship: ship}
	c.token <- struct{}{}
	return c
}

// Release returns the lease token, unblocking the next acquirer.
type Release func()

func (c *shipCell) acquire(ctx context.Context) (*navigation.Ship, Release, error) {
	ctx, cancel := context.WithTimeout(ctx, leaseTimeout)
	defer cancel()

	select {
	case <-c.token:
		return c.ship, func() { c.token <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, nil, shared.NewLeaseTimeoutError(c.ship.ShipSymbol())
	}
}

// State is the process-wide fleet facade: atomic agent, concurrent ship
// leases, concurrent market snapshots, per-asteroid survey lists, and the
// accepted-contracts list.
type State struct {
	agent atomic.Pointer[agent.Agent]

	shipsMu sync.RWMutex
	ships   map[string]*shipCell

	marketsMu sync.RWMutex
	markets   map[string]*market.Market

	surveysMu sync.Mutex
	surveys   map[string][]*survey.Survey

	contractsMu sync.Mutex
	contracts   []string
}

// NewState creates an empty fleet facade.
func NewState() *State {
	return &State{
		ships:   make(map[string]*shipCell),
		markets: make(map[string]*market.Market),
		surveys: make(map[string][]*survey.Survey),
	}
}

// Agent returns the current agent snapshot, or nil if never set.
func (s *State) Agent() *agent.Agent {
	return s.agent.Load()
}

// SetAgent atomically replaces the agent snapshot, e.g. after an API refresh.
func (s *State) SetAgent(a *agent.Agent) {
	s.agent.Store(a)
}

// LoadShip registers a ship's cell at fleet load time; not safe to call
// concurrently with AcquireShip on the same symbol.
func (s *State) LoadShip(ship *navigation.Ship) {
	s.shipsMu.Lock()
	defer s.shipsMu.Unlock()
	s.ships[ship.ShipSymbol()] = newShipCell(ship)
}

// AcquireShip blocks (up to the 5s lease timeout) for exclusive write access
// to one ship's cell, returning the ship and a Release to call when done.
func (s *State) AcquireShip(ctx context.Context, symbol string) (*navigation.Ship, Release, error) {
	s.shipsMu.RLock()
	cell, ok := s.ships[symbol]
	s.shipsMu.RUnlock()
	if !ok {
		return nil, nil, shared.NewShipError("unknown ship: " + symbol)
	}
	return cell.acquire(ctx)
}

// ShipSymbols lists every ship symbol currently loaded.
func (s *State) ShipSymbols() []string {
	s.shipsMu.RLock()
	defer s.shipsMu.RUnlock()
	out := make([]string, 0, len(s.ships))
	for symbol := range s.ships {
		out = append(out, symbol)
	}
	return out
}

// Market returns the cached market snapshot for a waypoint, or nil.
func (s *State) Market(waypointSymbol string) *market.Market {
	s.marketsMu.RLock()
	defer s.marketsMu.RUnlock()
	return s.markets[waypointSymbol]
}

// SetMarket replaces the cached snapshot for a waypoint.
func (s *State) SetMarket(m *market.Market) {
	s.marketsMu.Lock()
	defer s.marketsMu.Unlock()
	s.markets[m.WaypointSymbol] = m
}

// MarketsInSystem returns every cached market whose waypoint belongs to the
// given system.
func (s *State) MarketsInSystem(systemSymbol string) []*market.Market {
	s.marketsMu.RLock()
	defer s.marketsMu.RUnlock()
	var out []*market.Market
	for _, m := range s.markets {
		if m.SystemSymbol() == systemSymbol {
			out = append(out, m)
		}
	}
	return out
}

// Surveys returns the current survey list for an asteroid waypoint.
func (s *State) Surveys(asteroidSymbol string) []*survey.Survey {
	s.surveysMu.Lock()
	defer s.surveysMu.Unlock()
	out := make([]*survey.Survey, len(s.surveys[asteroidSymbol]))
	copy(out, s.surveys[asteroidSymbol])
	return out
}

// AddSurveys appends newly captured surveys to an asteroid's list.
func (s *State) AddSurveys(asteroidSymbol string, surveys ...*survey.Survey) {
	s.surveysMu.Lock()
	defer s.surveysMu.Unlock()
	s.surveys[asteroidSymbol] = append(s.surveys[asteroidSymbol], surveys...)
}

// RemoveSurvey drops a survey from an asteroid's in-memory list by id,
// used after the API reports it exhausted or expired (4221/4224).
func (s *State) RemoveSurvey(asteroidSymbol string, id int64) {
	s.surveysMu.Lock()
	defer s.surveysMu.Unlock()
	list := s.surveys[asteroidSymbol]
	for i, sv := range list {
		if sv.ID == id {
			s.surveys[asteroidSymbol] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// AcceptContract records an accepted contract id; fulfilment is out of scope.
func (s *State) AcceptContract(id string) {
	s.contractsMu.Lock()
	defer s.contractsMu.Unlock()
	s.contracts = append(s.contracts, id)
}

// AcceptedContracts lists every contract id accepted so far.
func (s *State) AcceptedContracts() []string {
	s.contractsMu.Lock()
	defer s.contractsMu.Unlock()
	out := make([]string, len(s.contracts))
	copy(out, s.contracts)
	return out
}
