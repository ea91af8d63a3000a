package adjust

import (
	"strings"
	"time"

	"github.com/mgrant808/homeworth/api/internal/models"
)

// Per-dimension adjustment rates. These are domain heuristics carried over
// from appraisal practice, not values derived from data; treat them as
// tunable configuration defaults.
const (
	bathroomRate    = 0.035
	carSpaceRate    = 0.025
	conditionWeight = 0.2
	styleRate       = 0.03
	wallsRate       = 0.02

	linearAgeRate = 0.003
	modernAgeRate = 0.005
	modernAgeCap  = 0.10
	modernEraCut  = 2010
	recentEraCut  = 1990
	characterCut  = 1950

	typeMismatchMultiplier = 0.9
	diffSuburbMultiplier   = 0.95
	diffCityMultiplier     = 0.9

	// Fallback monthly growth (~5% annual) used when no market statistics
	// are available for the recency adjustment.
	defaultMonthlyGrowth = 0.004
)

// bedroomSteps gives the diminishing marginal value of each added or
// removed bedroom: first 5%, second 4%, third and beyond 3%.
var bedroomSteps = [...]float64{0.05, 0.04, 0.03}

// conditionQuality maps condition levels onto a 0.3-1.0 quality scale in
// 0.1 steps. Unknown labels fall back to the average score.
var conditionQuality = map[models.Condition]float64{
	models.ConditionExcellent: 1.0,
	models.ConditionVeryGood:  0.9,
	models.ConditionGood:      0.8,
	models.ConditionAverage:   0.7,
	models.ConditionFair:      0.6,
	models.ConditionPoor:      0.5,
	models.ConditionVeryPoor:  0.4,
	models.ConditionDerelict:  0.3,
}

const defaultConditionScore = 0.7

func conditionScore(c models.Condition) float64 {
	if s, ok := conditionQuality[c]; ok {
		return s
	}
	return defaultConditionScore
}

// seasonalFactors is a Southern-Hemisphere monthly price factor table:
// spring/summer (Oct-Feb) sells at a premium, winter (May-Aug) at a
// discount. Indexed by time.Month.
var seasonalFactors = map[time.Month]float64{
	time.January:   0.02,
	time.February:  0.015,
	time.March:     0.005,
	time.April:     -0.005,
	time.May:       -0.02,
	time.June:      -0.03,
	time.July:      -0.03,
	time.August:    -0.02,
	time.September: 0.0,
	time.October:   0.01,
	time.November:  0.02,
	time.December:  0.02,
}

// premiumStyleKeywords mark architectural styles that command a premium.
// Matching is case-insensitive substring.
var premiumStyleKeywords = []string{"character", "heritage", "architect designed"}

// premiumWallKeywords mark wall construction materials that command a
// premium over lightweight cladding.
var premiumWallKeywords = []string{"brick", "stone", "concrete", "solid"}

func containsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// landSizeFactors scales the land-size ratio adjustment by how much of the
// value of each property type sits in the land itself.
var landSizeFactors = map[models.PropertyType]float64{
	models.PropertyTypeApartment: 0.05,
	models.PropertyTypeLand:      0.8,
	models.PropertyTypeHouse:     0.15,
}

const defaultLandSizeFactor = 0.10

func landSizeFactor(t models.PropertyType) float64 {
	if f, ok := landSizeFactors[t]; ok {
		return f
	}
	return defaultLandSizeFactor
}

// floorAreaFactors scales the floor-area ratio adjustment per property type.
var floorAreaFactors = map[models.PropertyType]float64{
	models.PropertyTypeApartment: 0.25,
	models.PropertyTypeLand:      0.01,
}

const defaultFloorAreaFactor = 0.15

func floorAreaFactor(t models.PropertyType) float64 {
	if f, ok := floorAreaFactors[t]; ok {
		return f
	}
	return defaultFloorAreaFactor
}
