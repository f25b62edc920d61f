package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-industries/fleet-miner/internal/adapters/persistence"
	"github.com/forge-industries/fleet-miner/internal/domain/agent"
	"github.com/forge-industries/fleet-miner/internal/infrastructure/database"
)

func TestAgentRepositorySaveAndFind(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewAgentRepository(db)

	a, err := agent.NewAgent("TEST-AGENT", "COSMIC", "X1-DK53-A1", "bearer-token", 100000)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), a))

	found, err := repo.FindBySymbol(context.Background(), "TEST-AGENT")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.Symbol, found.Symbol)
	assert.Equal(t, a.Faction, found.Faction)
	assert.Equal(t, a.Credits, found.Credits)
	assert.Equal(t, a.BearerToken, found.BearerToken)
}

func TestAgentRepositoryFindMissingReturnsNil(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewAgentRepository(db)

	found, err := repo.FindBySymbol(context.Background(), "NOBODY")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAgentRepositorySaveUpserts(t *testing.T) {
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	repo := persistence.NewAgentRepository(db)

	a, err := agent.NewAgent("TEST-AGENT", "COSMIC", "X1-DK53-A1", "bearer-token", 100000)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), a))

	refreshed := a.WithCredits(250000)
	require.NoError(t, repo.Save(context.Background(), refreshed))

	found, err := repo.FindBySymbol(context.Background(), "TEST-AGENT")
	require.NoError(t, err)
	assert.Equal(t, int64(250000), found.Credits)
}
