// Package survey models the SpaceTraders survey ticket: an immutable value
// exchangeable for a biased extract, consumed on use and exhausted or
// expired by the server.
package survey

import (
	"time"

	"github.com/forge-industries/fleet-miner/internal/domain/shared"
)

// State is the lifecycle of a survey row in the relational store.
type State int

const (
	StateActive State = iota
	StateReserved
	StateExhausted
)

// Survey is immutable; its database-assigned id is zero until persisted.
type Survey struct {
	ID             int64
	Signature      string
	AsteroidSymbol string
	Deposits       []string
	ExpiresAt      time.Time
	ExtractState   State
}

// NewSurvey validates and constructs a Survey.
func NewSurvey(signature, asteroidSymbol string, deposits []string, expiresAt time.Time) (*Survey, error) {
	if signature == "" {
		return nil, shared.NewValidationError("signature", "cannot be empty")
	}
	if asteroidSymbol == "" {
		return nil, shared.NewValidationError("asteroid_symbol", "cannot be empty")
	}
	if len(deposits) == 0 {
		return nil, shared.NewValidationError("deposits", "must contain at least one deposit")
	}
	return &Survey{
		Signature:      signature,
		AsteroidSymbol: asteroidSymbol,
		Deposits:       deposits,
		ExpiresAt:      expiresAt,
		ExtractState:   StateActive,
	}, nil
}

// IsExpired reports whether the survey's expiration has passed.
func (s *Survey) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsActive reports the loadable condition the store query enforces:
// extract_state = 0 AND expires_at > now().
func (s *Survey) IsActive(now time.Time) bool {
	return s.ExtractState == StateActive && now.Before(s.ExpiresAt)
}

// WithExhausted returns a copy marked exhausted, used after a 4221/4224 error.
func (s *Survey) WithExhausted() *Survey {
	cp := *s
	cp.ExtractState = StateExhausted
	return &cp
}
