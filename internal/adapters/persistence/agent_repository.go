package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/forge-industries/fleet-miner/internal/domain/agent"
)

// AgentRepository persists the registered agent's bearer token and last-seen
// view, following the teacher's GormPlayerRepository upsert-by-Save pattern.
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new GORM-backed agent repository.
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

type agentJSON struct {
	Faction      string `json:"faction"`
	Credits      int64  `json:"credits"`
	Headquarters string `json:"headquarters"`
}

// FindBySymbol loads the agent row for the given callsign, or nil if none
// exists yet.
func (r *AgentRepository) FindBySymbol(ctx context.Context, symbol string) (*agent.Agent, error) {
	var model AgentModel
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}
	return modelToAgent(&model)
}

// Save upserts the agent row by symbol.
func (r *AgentRepository) Save(ctx context.Context, a *agent.Agent) error {
	model, err := agentToModel(a)
	if err != nil {
		return fmt.Errorf("failed to convert agent to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	return nil
}

func modelToAgent(model *AgentModel) (*agent.Agent, error) {
	var body agentJSON
	if err := json.Unmarshal([]byte(model.Agent), &body); err != nil {
		return nil, fmt.Errorf("invalid agent json in database: %w", err)
	}
	return agent.NewAgent(model.Symbol, body.Faction, body.Headquarters, model.BearerToken, body.Credits)
}

func agentToModel(a *agent.Agent) (*AgentModel, error) {
	body, err := json.Marshal(agentJSON{Faction: a.Faction, Credits: a.Credits, Headquarters: a.Headquarters})
	if err != nil {
		return nil, err
	}
	return &AgentModel{
		Symbol:      a.Symbol,
		BearerToken: a.BearerToken,
		Agent:       string(body),
	}, nil
}
