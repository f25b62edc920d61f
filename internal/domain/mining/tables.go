// Package mining builds the decision/probability graph of §4.C over an
// asteroid's deposits, nearby markets, and a ship's mounts, and answers the
// "usable survey?" question for surveys drawn outside the sample.
package mining

// YieldWeights is the static sampling weight per deposit symbol, grounded on
// mining.rs's YIELD_WEIGHTS.
var YieldWeights = map[string]int{
	"ICE_WATER":        200,
	"SILICON_CRYSTALS": 100,
	"AMMONIA_ICE":      100,
	"QUARTZ_SAND":      100,
	"LIQUID_NITROGEN":  100,
	"LIQUID_HYDROGEN":  100,
	"HYDROCARBON":      50,
	"IRON_ORE":         50,
	"ALUMINUM_ORE":     50,
	"COPPER_ORE":       50,
	"SILVER_ORE":       50,
	"PRECIOUS_STONES":  50,
	"GOLD_ORE":         20,
	"PLATINUM_ORE":     20,
	"URANITE_ORE":      20,
	"MERITIUM_ORE":     5,
	"DIAMONDS":         1,
}

// TraitYields maps an asteroid waypoint trait to the deposit symbols it
// contributes, grounded on mining.rs's TRAIT_YIELDS.
var TraitYields = map[string][]string{
	"MINERAL_DEPOSITS": {
		"ICE_WATER", "QUARTZ_SAND", "SILICON_CRYSTALS", "AMMONIA_ICE",
		"IRON_ORE", "PRECIOUS_STONES", "DIAMONDS",
	},
	"ICE_CRYSTALS": {
		"ICE_WATER",
	},
	"COMMON_METAL_DEPOSITS": {
		"ICE_WATER", "QUARTZ_SAND", "SILICON_CRYSTALS", "IRON_ORE",
		"COPPER_ORE", "ALUMINUM_ORE",
	},
	"PRECIOUS_METAL_DEPOSITS": {
		"ICE_WATER", "QUARTZ_SAND", "SILICON_CRYSTALS", "IRON_ORE",
		"COPPER_ORE", "ALUMINUM_ORE", "SILVER_ORE", "GOLD_ORE", "PLATINUM_ORE",
	},
	"RARE_METAL_DEPOSITS": {
		"ICE_WATER", "QUARTZ_SAND", "SILICON_CRYSTALS", "COPPER_ORE",
		"ALUMINUM_ORE", "GOLD_ORE", "PLATINUM_ORE", "URANITE_ORE", "MERITIUM_ORE",
	},
	"METHANE_POOLS": {
		"HYDROCARBON",
	},
	"EXPLOSIVE_GASES": {
		"HYDROCARBON", "LIQUID_NITROGEN", "LIQUID_HYDROGEN",
	},
}

// AsteroidYields unions TraitYields over the given waypoint traits and
// projects onto YieldWeights, returning the deposit->weight mapping an
// asteroid samples extractions from.
func AsteroidYields(traits []string) map[string]int {
	seen := make(map[string]bool)
	for _, t := range traits {
		for _, symbol := range TraitYields[t] {
			seen[symbol] = true
		}
	}
	out := make(map[string]int, len(seen))
	for symbol := range seen {
		out[symbol] = YieldWeights[symbol]
	}
	return out
}

const (
	// expectedNumExtracts is the repeat count on survey_i -> extract_survey_i,
	// modelling an expected 10 extractions per accepted survey.
	expectedNumExtracts = 10

	baseExtractCooldown  = 60.0
	baseSurveyorCooldown = 60.0
	offSiteTravelTime    = 10.0
	offSiteFuelCost      = 50.0
)
