package mining

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-industries/fleet-miner/internal/domain/market"
	"github.com/forge-industries/fleet-miner/internal/domain/navigation"
)

func smallRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newTradeGood(t *testing.T, symbol string, sellPrice int) market.TradeGood {
	t.Helper()
	g, err := market.NewTradeGood(symbol, "ABUNDANT", "STRONG", sellPrice/2, sellPrice, 100)
	require.NoError(t, err)
	return *g
}

// TestExtractOnlyPlanning exercises the §8 "extract-only planning" scenario:
// no surveyor mount, one mining laser, a single co-located market — the
// planner should prefer extract over survey, and sell over jettison.
func TestExtractOnlyPlanning(t *testing.T) {
	const asteroid = "X1-DK53-AST"

	goods := []market.TradeGood{
		newTradeGood(t, "IRON_ORE", 50),
		newTradeGood(t, "ICE_WATER", 20),
		newTradeGood(t, "QUARTZ_SAND", 20),
		newTradeGood(t, "SILICON_CRYSTALS", 20),
		newTradeGood(t, "AMMONIA_ICE", 20),
		newTradeGood(t, "PRECIOUS_STONES", 20),
		newTradeGood(t, "DIAMONDS", 20),
		newTradeGood(t, "COPPER_ORE", 20),
		newTradeGood(t, "ALUMINUM_ORE", 20),
	}
	m, err := market.NewMarket(asteroid, nil, nil, []string{"IRON_ORE"}, goods)
	require.NoError(t, err)

	laser := navigation.NewMount("MOUNT_MINING_LASER_II", 2, 25, nil)

	plan, err := BuildPlan(asteroid, []string{"COMMON_METAL_DEPOSITS"}, []*market.Market{m}, []*navigation.Mount{laser}, smallRand())
	require.NoError(t, err)

	successor, ok := plan.StartSuccessor()
	require.True(t, ok)
	assert.Equal(t, "extract", successor)

	for symbol := range AsteroidYields([]string{"COMMON_METAL_DEPOSITS"}) {
		node := cargoNode(symbol, false)
		if _, found := plan.Graph.NodeID(node); !found {
			continue
		}
		succ, ok := plan.NodeSuccessor(node)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(succ, "sell_"), "expected cargo_%s to prefer selling, got %s", symbol, succ)
	}
}

// TestSurveyJudgeDiscardsLowValueSurvey exercises the §8 "survey judge
// discards a single-low-value deposit" scenario.
func TestSurveyJudgeDiscardsLowValueSurvey(t *testing.T) {
	const asteroid = "X1-DK53-AST"

	goods := []market.TradeGood{
		newTradeGood(t, "QUARTZ_SAND", 1),
		newTradeGood(t, "ICE_WATER", 500),
		newTradeGood(t, "SILICON_CRYSTALS", 500),
		newTradeGood(t, "AMMONIA_ICE", 500),
		newTradeGood(t, "IRON_ORE", 500),
		newTradeGood(t, "PRECIOUS_STONES", 500),
		newTradeGood(t, "DIAMONDS", 500),
	}
	m, err := market.NewMarket(asteroid, nil, nil, []string{"QUARTZ_SAND", "ICE_WATER", "SILICON_CRYSTALS", "AMMONIA_ICE", "IRON_ORE", "PRECIOUS_STONES", "DIAMONDS"}, goods)
	require.NoError(t, err)

	laser := navigation.NewMount("MOUNT_MINING_LASER_II", 2, 25, nil)
	surveyor := navigation.NewMount("MOUNT_SURVEYOR_II", 4, 2, []string{
		"QUARTZ_SAND", "SILICON_CRYSTALS", "PRECIOUS_STONES", "ICE_WATER",
		"AMMONIA_ICE", "IRON_ORE", "DIAMONDS",
	})

	plan, err := BuildPlan(asteroid, []string{"MINERAL_DEPOSITS"}, []*market.Market{m}, []*navigation.Mount{laser, surveyor}, smallRand())
	require.NoError(t, err)

	keep := plan.JudgeSurvey([]string{"QUARTZ_SAND"})
	assert.False(t, keep)
}
