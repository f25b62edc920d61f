package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
)

func TestMarketRepositorySaveAndFind(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewMarketRepository(db)

	good, err := market.NewTradeGood("IRON_ORE", "ABUNDANT", "STRONG", 10, 20, 100)
	require.NoError(t, err)
	m, err := market.NewMarket("X1-DK53-66197A", []string{"IRON_ORE"}, nil, nil, []market.TradeGood{*good})
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), m))

	found, err := repo.FindBySymbol(context.Background(), "X1-DK53-66197A")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, m.WaypointSymbol, found.WaypointSymbol)
	assert.Equal(t, m.Exports, found.Exports)
	require.Len(t, found.TradeGoods, 1)
	assert.Equal(t, "IRON_ORE", found.TradeGoods[0].Symbol)
}

func TestMarketRepositoryListInSystemFiltersByPrefix(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewMarketRepository(db)

	inSystem, err := market.NewMarket("X1-DK53-66197A", nil, nil, nil, nil)
	require.NoError(t, err)
	otherSystem, err := market.NewMarket("X1-AB12-11111A", nil, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), inSystem))
	require.NoError(t, repo.Save(context.Background(), otherSystem))

	found, err := repo.ListInSystem(context.Background(), "X1-DK53")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "X1-DK53-66197A", found[0].WaypointSymbol)
}
