// Package adjust normalizes comparable sale prices onto the subject
// property by applying multi-factor adjustments: structural differences,
// condition, style, construction, age, sale recency, seasonality and
// location. A dimension is skipped entirely when either side lacks the
// attribute it needs; missing data is never substituted with a default.
package adjust

import (
	"math"
	"time"

	"github.com/mgrant808/homeworth/api/internal/models"
	"github.com/mgrant808/homeworth/api/internal/stats"
)

// Options toggles the optional adjustment dimensions. Structural
// dimensions (bedrooms, bathrooms, areas, car spaces, age, property type)
// are always applied when the data is present.
type Options struct {
	Condition   bool
	Style       bool
	Materials   bool
	Location    bool
	MarketTrend bool
	Seasonal    bool

	// Now anchors recency and seasonality; the zero value means the wall
	// clock, overridable for reproducible runs.
	Now time.Time

	// DefaultMonthlyGrowth overrides the built-in fallback growth rate
	// used when no market statistics are available; 0 keeps the default.
	DefaultMonthlyGrowth float64
}

// DefaultOptions enables every adjustment dimension.
func DefaultOptions() Options {
	return Options{
		Condition:   true,
		Style:       true,
		Materials:   true,
		Location:    true,
		MarketTrend: true,
		Seasonal:    true,
	}
}

// avgDaysPerMonth converts a sale-date age into fractional months.
const avgDaysPerMonth = 30.44

// Adjust returns a new slice of comparables annotated with an
// AdjustmentFactor and AdjustedPrice, plus an approximate per-dimension
// dollar-impact summary for explanation. Comparables without a sale price
// keep factor 1.0 and a nil adjusted price. The input is not mutated.
func Adjust(comps []models.ComparableSale, subject models.SubjectProperty, market *models.MarketStatistics, opts Options) ([]models.ComparableSale, *models.AdjustmentSummary) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	monthlyRate := monthlyGrowthRate(market, opts.DefaultMonthlyGrowth)

	out := make([]models.ComparableSale, len(comps))
	copy(out, comps)

	prices := make([]float64, 0, len(comps))
	for i := range out {
		out[i].AdjustmentFactor = 1.0
		out[i].AdjustedPrice = nil
		if !out[i].HasPrice() {
			continue
		}
		prices = append(prices, *out[i].SalePrice)

		factor := adjustmentFactor(&out[i], subject, monthlyRate, now, opts)
		adjusted := *out[i].SalePrice * factor
		out[i].AdjustmentFactor = factor
		out[i].AdjustedPrice = &adjusted
	}

	return out, summarize(prices, monthlyRate)
}

// adjustmentFactor computes the single multiplicative factor for one
// priced comparable: additive per-dimension deltas accumulate onto 1.0,
// then the property-type and location multipliers apply on top.
func adjustmentFactor(comp *models.ComparableSale, subject models.SubjectProperty, monthlyRate float64, now time.Time, opts Options) float64 {
	var delta float64

	if subject.Bedrooms != nil && comp.Bedrooms != nil {
		delta += bedroomDelta(*subject.Bedrooms - *comp.Bedrooms)
	}
	if subject.Bathrooms != nil && comp.Bathrooms != nil {
		delta += float64(*subject.Bathrooms-*comp.Bathrooms) * bathroomRate
	}
	if subject.LandSizeSqm != nil && comp.LandSizeSqm != nil && *comp.LandSizeSqm > 0 {
		ratio := *subject.LandSizeSqm / *comp.LandSizeSqm
		delta += (ratio - 1) * landSizeFactor(subject.PropertyType)
	}
	if subject.FloorAreaSqm != nil && comp.FloorAreaSqm != nil && *comp.FloorAreaSqm > 0 {
		ratio := *subject.FloorAreaSqm / *comp.FloorAreaSqm
		delta += (ratio - 1) * floorAreaFactor(subject.PropertyType)
	}
	if subject.CarSpaces != nil && comp.CarSpaces != nil {
		delta += float64(*subject.CarSpaces-*comp.CarSpaces) * carSpaceRate
	}
	if opts.Condition && subject.Condition != nil && comp.Condition != nil {
		delta += (conditionScore(*subject.Condition) - conditionScore(*comp.Condition)) * conditionWeight
	}
	if opts.Style && subject.ArchitecturalStyle != nil && comp.ArchitecturalStyle != nil {
		delta += premiumKeywordDelta(*subject.ArchitecturalStyle, *comp.ArchitecturalStyle, premiumStyleKeywords, styleRate)
	}
	if opts.Materials && hasWalls(subject.Materials) && hasWalls(comp.Materials) {
		delta += premiumKeywordDelta(*subject.Materials.Walls, *comp.Materials.Walls, premiumWallKeywords, wallsRate)
	}
	if subject.YearBuilt != nil && comp.YearBuilt != nil {
		delta += yearBuiltDelta(*subject.YearBuilt, *comp.YearBuilt)
	}
	if opts.MarketTrend {
		delta += monthsSince(comp.SaleDate, now) * monthlyRate
	}
	if opts.Seasonal {
		delta += seasonalFactors[now.Month()] - seasonalFactors[comp.SaleDate.Month()]
	}

	factor := 1.0 + delta
	if comp.PropertyType != subject.PropertyType {
		factor *= typeMismatchMultiplier
	}
	if opts.Location {
		factor *= locationMultiplier(subject, comp)
	}

	// Floors at 0.1 so pathological attribute gaps cannot drive an
	// adjusted price to zero or negative.
	return math.Max(0.1, factor)
}

// bedroomDelta sums the diminishing marginal value of each bedroom of
// difference, signed by direction.
func bedroomDelta(diff int) float64 {
	if diff == 0 {
		return 0
	}
	sign := 1.0
	if diff < 0 {
		sign = -1.0
		diff = -diff
	}
	var total float64
	for i := 0; i < diff; i++ {
		step := i
		if step >= len(bedroomSteps) {
			step = len(bedroomSteps) - 1
		}
		total += bedroomSteps[step]
	}
	return sign * total
}

// premiumKeywordDelta applies +-rate when exactly one of the two sides
// matches a premium keyword list.
func premiumKeywordDelta(subjectValue, compValue string, keywords []string, rate float64) float64 {
	subjectPremium := containsAny(subjectValue, keywords)
	compPremium := containsAny(compValue, keywords)
	switch {
	case subjectPremium && !compPremium:
		return rate
	case compPremium && !subjectPremium:
		return -rate
	default:
		return 0
	}
}

// yearBuiltDelta applies a non-linear age curve. Modern subjects compare
// on a capped per-year basis, character-era subjects carry a scarcity
// premium over mid-century stock, and everything else falls back to a
// linear per-year rate.
func yearBuiltDelta(subjectYear, compYear int) float64 {
	diff := subjectYear - compYear

	switch {
	case subjectYear >= modernEraCut:
		if diff > 0 {
			return math.Min(float64(diff)*modernAgeRate, modernAgeCap)
		}
		return -math.Min(float64(-diff)*modernAgeRate, modernAgeCap)

	case subjectYear >= recentEraCut:
		if compYear >= modernEraCut {
			return -0.05
		}
		if diff > 0 {
			return math.Min(float64(diff)*modernAgeRate, modernAgeCap)
		}
		return -math.Min(float64(-diff)*modernAgeRate, 0.05)

	case subjectYear < characterCut:
		if compYear >= characterCut && compYear < 2000 {
			return 0.05
		}
		return 0

	default:
		return float64(diff) * linearAgeRate
	}
}

// monthlyGrowthRate converts the market's annual growth into a
// compounding monthly rate, falling back to the default assumption when
// no statistics are supplied.
func monthlyGrowthRate(market *models.MarketStatistics, fallback float64) float64 {
	if market == nil || market.AnnualGrowth == nil {
		if fallback != 0 {
			return fallback
		}
		return defaultMonthlyGrowth
	}
	return math.Pow(1+*market.AnnualGrowth, 1.0/12.0) - 1
}

func monthsSince(saleDate, now time.Time) float64 {
	months := now.Sub(saleDate).Hours() / 24 / avgDaysPerMonth
	return math.Max(0, months)
}

func locationMultiplier(subject models.SubjectProperty, comp *models.ComparableSale) float64 {
	m := 1.0
	if subject.Suburb != nil && comp.Suburb != nil && *subject.Suburb != *comp.Suburb {
		m *= diffSuburbMultiplier
	}
	if subject.City != nil && comp.City != nil && *subject.City != *comp.City {
		m *= diffCityMultiplier
	}
	return m
}

func hasWalls(m *models.ConstructionMaterials) bool {
	return m != nil && m.Walls != nil
}

// summarize converts the dimension rates into approximate dollar impacts
// per unit of difference, anchored on the median priced comparable. Used
// for explanation only, never fed back into the computation.
func summarize(prices []float64, monthlyRate float64) *models.AdjustmentSummary {
	if len(prices) == 0 {
		return nil
	}
	median := stats.Median(prices)

	perBedroom := median * bedroomSteps[0]
	perBathroom := median * bathroomRate
	perCarSpace := median * carSpaceRate
	perCondition := median * 0.1 * conditionWeight
	perYear := median * linearAgeRate
	style := median * styleRate
	materials := median * wallsRate
	perMonth := median * monthlyRate

	return &models.AdjustmentSummary{
		PerBedroom:        &perBedroom,
		PerBathroom:       &perBathroom,
		PerCarSpace:       &perCarSpace,
		PerConditionLevel: &perCondition,
		PerYearOfAge:      &perYear,
		PremiumStyle:      &style,
		PremiumMaterials:  &materials,
		PerMonthSinceSale: &perMonth,
	}
}
