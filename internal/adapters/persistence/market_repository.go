package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/forge-industries/fleet-miner/internal/domain/market"
)

// MarketRepository persists market snapshots as one JSON row per waypoint,
// upserted by symbol whenever a ship docks there.
type MarketRepository struct {
	db *gorm.DB
}

// NewMarketRepository creates a new GORM-backed market repository.
func NewMarketRepository(db *gorm.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Save upserts a market snapshot by waypoint symbol.
func (r *MarketRepository) Save(ctx context.Context, m *market.Market) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal market: %w", err)
	}
	model := &MarketModel{Symbol: m.WaypointSymbol, Market: string(body)}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save market: %w", err)
	}
	return nil
}

// FindBySymbol loads a market snapshot, or nil if none has been captured yet.
func (r *MarketRepository) FindBySymbol(ctx context.Context, symbol string) (*market.Market, error) {
	var model MarketModel
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find market: %w", err)
	}
	var m market.Market
	if err := json.Unmarshal([]byte(model.Market), &m); err != nil {
		return nil, fmt.Errorf("invalid market json in database: %w", err)
	}
	return &m, nil
}

// ListInSystem loads every market snapshot whose waypoint belongs to the
// given system.
func (r *MarketRepository) ListInSystem(ctx context.Context, systemSymbol string) ([]*market.Market, error) {
	var models []MarketModel
	if err := r.db.WithContext(ctx).Where("symbol LIKE ?", systemSymbol+"-%").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	out := make([]*market.Market, 0, len(models))
	for _, model := range models {
		var m market.Market
		if err := json.Unmarshal([]byte(model.Market), &m); err != nil {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}
