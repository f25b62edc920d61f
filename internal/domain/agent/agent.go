// Package agent models the registered SpaceTraders agent: callsign,
// faction, credits, headquarters, and bearer credential.
package agent

import "github.com/forge-industries/fleet-miner/internal/domain/shared"

// Agent is mutated atomically whenever the API returns a fresh view; the
// bearer token never changes after registration.
type Agent struct {
	Symbol       string
	Faction      string
	Credits      int64
	Headquarters string
	BearerToken  string
}

// NewAgent validates and constructs an Agent.
func NewAgent(symbol, faction, headquarters, bearerToken string, credits int64) (*Agent, error) {
	if symbol == "" {
		return nil, shared.NewValidationError("symbol", "cannot be empty")
	}
	if bearerToken == "" {
		return nil, shared.NewValidationError("bearer_token", "cannot be empty")
	}
	return &Agent{
		Symbol:       symbol,
		Faction:      faction,
		Credits:      credits,
		Headquarters: headquarters,
		BearerToken:  bearerToken,
	}, nil
}

// WithCredits returns a copy of the agent with credits refreshed from a new
// API view, preserving the bearer token.
func (a *Agent) WithCredits(credits int64) *Agent {
	cp := *a
	cp.Credits = credits
	return &cp
}

// SystemSymbol returns the system the agent's headquarters belongs to.
func (a *Agent) SystemSymbol() string {
	return shared.SystemSymbol(a.Headquarters)
}
