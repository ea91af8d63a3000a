// Package valuation composes the outlier detector, price adjuster and
// statistics kernel into a single market-value estimate with a confidence
// breakdown. It is a pure, synchronous computation over in-memory inputs;
// concurrent valuations share no state.
package valuation

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mgrant808/homeworth/api/internal/adjust"
	"github.com/mgrant808/homeworth/api/internal/models"
	"github.com/mgrant808/homeworth/api/internal/outlier"
	"github.com/mgrant808/homeworth/api/internal/stats"
)

// ErrInsufficientEvidence is returned when there are no priced comparables
// and no usable AVM estimate. A valuation without any evidentiary basis is
// never fabricated.
var ErrInsufficientEvidence = errors.New("insufficient evidence: no priced comparables and no usable AVM estimate")

// Options tunes one valuation run.
type Options struct {
	// UseAVM enables blending a supplied AVM estimate into the range.
	UseAVM bool
	// AVMWeight caps the AVM's effective confidence when set (0-1).
	AVMWeight *float64
	// OutlierMethod selects the detection strategy; empty means combined.
	OutlierMethod outlier.Method
	// ConfidenceThreshold is the minimum AVM confidence worth blending.
	ConfidenceThreshold float64
	// MinimumSpread is the smallest half-range applied around the point
	// estimate, as a fraction of it.
	MinimumSpread float64
	// DefaultAnnualGrowth overrides the adjuster's fallback growth
	// assumption when no market statistics are available; nil keeps the
	// built-in ~5% annual default.
	DefaultAnnualGrowth *float64
	// Now anchors recency computation; zero means the wall clock.
	Now time.Time
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		UseAVM:              true,
		OutlierMethod:       outlier.MethodCombined,
		ConfidenceThreshold: 0.5,
		MinimumSpread:       0.05,
	}
}

// Request carries the full input set for one valuation.
type Request struct {
	Subject     models.SubjectProperty
	Comparables []models.ComparableSale
	AVM         *models.AVMEstimate
	Market      *models.MarketStatistics
	Options     Options
}

// Factor weights for combining the confidence breakdown into the overall
// score. Only factors present in a given run contribute; weights are
// renormalized over those present.
const (
	weightDataQuality = 0.15
	weightCompCount   = 0.20
	weightSimilarity  = 0.25
	weightOutlier     = 0.15
	weightRecency     = 0.10
	weightVolatility  = 0.05
	weightAVM         = 0.10
)

// Valuate produces a ValuationResult from the request, or
// ErrInsufficientEvidence when neither comparable nor AVM evidence is
// usable. All other degenerate inputs degrade confidence and widen the
// range rather than failing.
func Valuate(req Request) (*models.ValuationResult, error) {
	opts := req.Options
	if opts.MinimumSpread <= 0 {
		opts.MinimumSpread = 0.05
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.5
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	detectorOpts := outlier.DefaultOptions()
	if opts.OutlierMethod != "" {
		detectorOpts.Method = opts.OutlierMethod
	}
	scored := outlier.Score(req.Comparables, req.Subject, detectorOpts)

	adjusterOpts := adjust.DefaultOptions()
	adjusterOpts.Now = now
	if opts.DefaultAnnualGrowth != nil {
		adjusterOpts.DefaultMonthlyGrowth = math.Pow(1+*opts.DefaultAnnualGrowth, 1.0/12.0) - 1
	}
	adjusted, summary := adjust.Adjust(scored, req.Subject, req.Market, adjusterOpts)

	details, included := weigh(adjusted)

	compRange, compPoint, compUsable := comparableEstimate(adjusted, included, opts)
	avmRange, avmConf, avmUsable := avmEstimate(req.AVM, opts)

	if !compUsable && !avmUsable {
		return nil, ErrInsufficientEvidence
	}

	breakdown := buildBreakdown(adjusted, included, req.Market, now)

	result := &models.ValuationResult{
		ID:          uuid.New().String(),
		Comparables: details,
		Adjustments: summary,
	}

	switch {
	case compUsable && avmUsable:
		compRange.Confidence = combineConfidence(breakdown, nil)
		blended := stats.ConfidenceRangeBlend(compRange, avmRange)
		result.Approach = models.ApproachHybrid
		result.Low = blended.Low
		result.High = blended.High
		result.Point = stats.ConfidenceBlend(compPoint, compRange.Confidence, req.AVM.Value, avmConf)
		total := compRange.Confidence + avmConf
		result.Weights = &models.BlendWeights{
			Comparable: compRange.Confidence / total,
			AVM:        avmConf / total,
		}
		breakdown.AVMConfidence = &avmConf

	case compUsable:
		result.Approach = models.ApproachComparableOnly
		result.Low = compRange.Low
		result.High = compRange.High
		result.Point = compPoint

	default:
		result.Approach = models.ApproachAVMOnly
		result.Low = avmRange.Low
		result.High = avmRange.High
		result.Point = req.AVM.Value
		breakdown.AVMConfidence = &avmConf
	}

	result.Breakdown = breakdown
	result.Confidence = combineConfidence(breakdown, hasComparables(req.Comparables))
	result.ConfidenceLevel = models.ConfidenceLevelFor(result.Confidence)

	normalize(result)
	return result, nil
}

func hasComparables(comps []models.ComparableSale) *bool {
	present := len(comps) > 0
	return &present
}

// weigh computes each comparable's evidence weight, similarity scaled down
// by the outlier score, and marks zero-weight or unpriced comparables as
// excluded. Every comparable stays in the detail list for transparency.
func weigh(comps []models.ComparableSale) ([]models.ComparableDetail, []int) {
	details := make([]models.ComparableDetail, len(comps))
	var included []int
	for i := range comps {
		c := &comps[i]
		d := models.ComparableDetail{
			Address:          c.Address,
			SalePrice:        c.SalePrice,
			AdjustedPrice:    c.AdjustedPrice,
			AdjustmentFactor: c.AdjustmentFactor,
			OutlierScore:     c.OutlierScore,
			OutlierMethod:    c.OutlierMethod,
		}
		if c.HasPrice() {
			d.Weight = math.Max(0, c.SimilarityScore*(1-c.OutlierScore))
		}
		d.IsExcluded = !c.HasPrice() || d.Weight == 0
		if !d.IsExcluded {
			included = append(included, i)
		}
		details[i] = d
	}
	return details, included
}

// comparableEstimate builds the evidence range from the weighted average
// of adjusted prices, spread by the sample's coefficient of variation or
// the configured minimum, whichever is wider.
func comparableEstimate(comps []models.ComparableSale, included []int, opts Options) (stats.Range, float64, bool) {
	if len(included) == 0 {
		return stats.Range{}, 0, false
	}

	values := make([]float64, len(included))
	weights := make([]float64, len(included))
	for j, i := range included {
		values[j] = *comps[i].AdjustedPrice
		weights[j] = math.Max(0, comps[i].SimilarityScore*(1-comps[i].OutlierScore))
	}

	point := stats.WeightedAverage(values, weights)
	if point <= 0 {
		return stats.Range{}, 0, false
	}

	spread := math.Max(stats.CoefficientOfVariation(values), opts.MinimumSpread)
	return stats.Range{
		Low:  point * (1 - spread),
		High: point * (1 + spread),
	}, point, true
}

// avmEstimate decides whether the AVM is usable and derives its range.
// The AVM's confidence is capped by the configured weight when one is set.
func avmEstimate(avm *models.AVMEstimate, opts Options) (stats.Range, float64, bool) {
	if avm == nil || !opts.UseAVM || avm.Value <= 0 {
		return stats.Range{}, 0, false
	}
	if avm.Confidence < opts.ConfidenceThreshold {
		return stats.Range{}, 0, false
	}

	conf := avm.Confidence
	if opts.AVMWeight != nil {
		conf = math.Min(conf, *opts.AVMWeight)
	}

	r := stats.Range{
		Low:        avm.Value * (1 - opts.MinimumSpread),
		High:       avm.Value * (1 + opts.MinimumSpread),
		Confidence: conf,
	}
	if avm.Low != nil && *avm.Low > 0 && *avm.Low <= avm.Value {
		r.Low = *avm.Low
	}
	if avm.High != nil && *avm.High >= avm.Value {
		r.High = *avm.High
	}
	return r, conf, true
}

// buildBreakdown derives the confidence factors from the annotated
// comparable set and optional market statistics.
func buildBreakdown(comps []models.ComparableSale, included []int, market *models.MarketStatistics, now time.Time) models.ConfidenceBreakdown {
	b := models.ConfidenceBreakdown{}
	total := len(comps)
	if total == 0 {
		return b
	}

	priced := 0
	for i := range comps {
		if comps[i].HasPrice() {
			priced++
		}
	}
	b.DataQuality = float64(priced) / float64(total)
	b.ComparableCount = float64(len(included)) / float64(total)

	if len(included) > 0 {
		var simSum, outlierSum, monthsSum float64
		adjustedValues := make([]float64, 0, len(included))
		for _, i := range included {
			simSum += comps[i].SimilarityScore
			outlierSum += 1 - comps[i].OutlierScore
			monthsSum += math.Max(0, now.Sub(comps[i].SaleDate).Hours()/24/30.44)
			adjustedValues = append(adjustedValues, *comps[i].AdjustedPrice)
		}
		n := float64(len(included))
		b.ComparableSimilarity = simSum / n
		b.OutlierImpact = outlierSum / n
		b.DataRecency = 1 / (1 + (monthsSum/n)/12)

		if market != nil {
			var cv float64
			if market.PriceVariability != nil {
				cv = *market.PriceVariability
			} else {
				cv = stats.CoefficientOfVariation(adjustedValues)
			}
			vol := 1 / (1 + cv)
			b.MarketVolatility = &vol
		}
	}
	return b
}

// combineConfidence folds the breakdown into one score, renormalizing the
// factor weights over the factors actually present. When no comparables
// were supplied at all, the comparable-derived factors are treated as
// absent rather than zero so a pure-AVM run is not penalized for evidence
// it was never given. compsSupplied==nil means "comparable factors always
// count" (used for the pre-blend comparable confidence).
func combineConfidence(b models.ConfidenceBreakdown, compsSupplied *bool) float64 {
	includeComps := compsSupplied == nil || *compsSupplied

	var sum, weightSum float64
	if includeComps {
		sum += b.DataQuality*weightDataQuality +
			b.ComparableCount*weightCompCount +
			b.ComparableSimilarity*weightSimilarity +
			b.OutlierImpact*weightOutlier +
			b.DataRecency*weightRecency
		weightSum += weightDataQuality + weightCompCount + weightSimilarity + weightOutlier + weightRecency
	}
	if b.MarketVolatility != nil {
		sum += *b.MarketVolatility * weightVolatility
		weightSum += weightVolatility
	}
	if b.AVMConfidence != nil {
		sum += *b.AVMConfidence * weightAVM
		weightSum += weightAVM
	}
	if weightSum == 0 {
		return 0
	}
	return clamp01(sum / weightSum)
}

// normalize enforces the output invariants low <= point <= high and
// 0 <= confidence <= 1.
func normalize(r *models.ValuationResult) {
	if r.Low > r.High {
		r.Low, r.High = r.High, r.Low
	}
	r.Point = math.Max(r.Low, math.Min(r.High, r.Point))
	r.Confidence = clamp01(r.Confidence)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
