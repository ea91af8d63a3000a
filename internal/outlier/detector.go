// Package outlier scores comparable sales for statistical abnormality.
// Scores are continuous in [0,1] rather than boolean flags so the
// valuation layer can downweight borderline evidence instead of discarding
// it outright.
package outlier

import (
	"fmt"
	"math"

	"github.com/mgrant808/homeworth/api/internal/models"
	"github.com/mgrant808/homeworth/api/internal/stats"
)

// Method selects the outlier detection strategy.
type Method string

const (
	MethodIQR       Method = "iqr"
	MethodModifiedZ Method = "modified_z"
	MethodChauvenet Method = "chauvenet"
	MethodCombined  Method = "combined"

	// MethodNone marks comparables that no detector flagged, including
	// those without a sale price.
	MethodNone = "none"
)

// ParseMethod converts a request string into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodIQR, MethodModifiedZ, MethodChauvenet, MethodCombined:
		return Method(s), nil
	case "":
		return MethodCombined, nil
	default:
		return "", fmt.Errorf("unknown outlier method %q", s)
	}
}

// minPricedSample is the smallest priced-comparable count any method will
// score; below it every score is 0.
const minPricedSample = 4

// IQR fence defaults. The base multiplier is scaled by the sensitivity
// factor, so sensitivity 1.0 gives the classic 1.5*IQR fence.
const (
	baseFenceMultiplier     = 1.5
	subjectGroupSensitivity = 1.5
	otherGroupSensitivity   = 1.2
)

// Options controls a detection run. The context-blend weights and the
// subject-group score reduction are heuristics, exposed here for
// calibration rather than fixed in the implementation.
type Options struct {
	Method                     Method
	Threshold                  float64
	SensitivityFactor          float64
	ConsiderPropertyAttributes bool
	CombinedContextWeight      float64
	SingleContextWeight        float64
	SubjectGroupReduction      float64
}

// DefaultOptions returns the standard detection configuration: combined
// method, 3.5 modified-Z threshold, attribute-aware grouping enabled.
func DefaultOptions() Options {
	return Options{
		Method:                     MethodCombined,
		Threshold:                  stats.DefaultModifiedZThreshold,
		SensitivityFactor:          1.0,
		ConsiderPropertyAttributes: true,
		CombinedContextWeight:      0.7,
		SingleContextWeight:        0.5,
		SubjectGroupReduction:      0.1,
	}
}

func (o Options) normalized() Options {
	if o.Method == "" {
		o.Method = MethodCombined
	}
	if o.Threshold <= 0 {
		o.Threshold = stats.DefaultModifiedZThreshold
	}
	if o.SensitivityFactor <= 0 {
		o.SensitivityFactor = 1.0
	}
	if o.CombinedContextWeight <= 0 {
		o.CombinedContextWeight = 0.7
	}
	if o.SingleContextWeight <= 0 {
		o.SingleContextWeight = 0.5
	}
	return o
}

// scored pairs a continuous outlier score with the method that produced it.
type scored struct {
	score  float64
	method Method
}

// Score annotates each comparable with an outlier score in [0,1] and the
// method that flagged it. Comparables without a sale price always receive
// score 0 and method "none" but remain in the returned slice. The input is
// never mutated.
func Score(comps []models.ComparableSale, subject models.SubjectProperty, opts Options) []models.ComparableSale {
	opts = opts.normalized()

	out := make([]models.ComparableSale, len(comps))
	copy(out, comps)

	// Pool of priced comparables, with index mapping back to the full list.
	prices := make([]float64, 0, len(comps))
	pricedIdx := make([]int, 0, len(comps))
	for i := range comps {
		out[i].OutlierScore = 0
		out[i].OutlierMethod = MethodNone
		if comps[i].HasPrice() {
			prices = append(prices, *comps[i].SalePrice)
			pricedIdx = append(pricedIdx, i)
		}
	}
	if len(prices) < minPricedSample {
		return out
	}

	primary := scorePrimary(prices, opts)

	if opts.ConsiderPropertyAttributes {
		contextual := scoreContextual(out, pricedIdx, prices, subject, opts)
		contextWeight := opts.SingleContextWeight
		if opts.Method == MethodCombined {
			contextWeight = opts.CombinedContextWeight
		}
		for i := range primary {
			blended := primary[i].score*(1-contextWeight) + contextual[i]*contextWeight
			method := primary[i].method
			if primary[i].score == 0 && contextual[i] > 0 {
				method = MethodIQR
			}
			primary[i] = scored{score: clamp01(blended), method: method}
		}
	}

	for j, idx := range pricedIdx {
		out[idx].OutlierScore = primary[j].score
		if primary[j].score > 0 {
			out[idx].OutlierMethod = string(primary[j].method)
		}
	}
	return out
}

// scorePrimary runs the configured method over the priced pool. For the
// combined method the maximum score per value wins, with ties broken in
// evaluation order IQR, modified-Z, Chauvenet.
func scorePrimary(prices []float64, opts Options) []scored {
	switch opts.Method {
	case MethodIQR:
		return labelScores(scoreIQR(prices, opts.SensitivityFactor), MethodIQR)
	case MethodModifiedZ:
		return labelScores(scoreModifiedZ(prices, opts.Threshold), MethodModifiedZ)
	case MethodChauvenet:
		return labelScores(scoreChauvenet(prices), MethodChauvenet)
	default:
		iqr := scoreIQR(prices, opts.SensitivityFactor)
		modZ := scoreModifiedZ(prices, opts.Threshold)
		chauv := scoreChauvenet(prices)

		combined := make([]scored, len(prices))
		for i := range prices {
			combined[i] = scored{score: iqr[i], method: MethodIQR}
			if modZ[i] > combined[i].score {
				combined[i] = scored{score: modZ[i], method: MethodModifiedZ}
			}
			if chauv[i] > combined[i].score {
				combined[i] = scored{score: chauv[i], method: MethodChauvenet}
			}
		}
		return combined
	}
}

func labelScores(scores []float64, method Method) []scored {
	out := make([]scored, len(scores))
	for i, s := range scores {
		out[i] = scored{score: s, method: method}
	}
	return out
}

// scoreIQR fences the pool at [Q1-k*IQR, Q3+k*IQR] with k = sensitivity *
// 1.5 and scores by distance outside the fence relative to half its width.
func scoreIQR(prices []float64, sensitivity float64) []float64 {
	scores := make([]float64, len(prices))
	q := stats.InterquartileRange(prices)
	if q.IQR == 0 {
		return scores
	}

	k := sensitivity * baseFenceMultiplier
	lower := q.Q1 - k*q.IQR
	upper := q.Q3 + k*q.IQR
	halfWidth := (upper - lower) / 2
	if halfWidth <= 0 {
		return scores
	}

	for i, p := range prices {
		var distance float64
		switch {
		case p < lower:
			distance = lower - p
		case p > upper:
			distance = p - upper
		default:
			continue
		}
		scores[i] = math.Min(1, distance/halfWidth)
	}
	return scores
}

// scoreModifiedZ scores by how far the absolute modified Z-score exceeds
// the threshold, normalized by the threshold itself.
func scoreModifiedZ(prices []float64, threshold float64) []float64 {
	scores := make([]float64, len(prices))
	zs := stats.ModifiedZScores(prices)
	for i, z := range zs {
		abs := math.Abs(z)
		if abs > threshold {
			scores[i] = math.Min(1, (abs-threshold)/threshold)
		}
	}
	return scores
}

// scoreChauvenet scores by how far the tail probability falls below the
// 1/(2n) rejection threshold.
func scoreChauvenet(prices []float64) []float64 {
	scores := make([]float64, len(prices))
	res := stats.DetectOutliersChauvenet(prices)
	if res.Threshold == 0 {
		return scores
	}
	for i, p := range res.Probabilities {
		if p < res.Threshold {
			scores[i] = math.Min(1, (res.Threshold-p)/res.Threshold)
		}
	}
	return scores
}

// groupKey partitions comparables by structural similarity to the subject:
// property type, bedroom count clamped to 1-5, and a coarse land bucket.
type groupKey struct {
	propertyType models.PropertyType
	bedrooms     int
	landBucket   string
}

func keyFor(propertyType models.PropertyType, bedrooms *int, landSize *float64) groupKey {
	key := groupKey{propertyType: propertyType}
	if bedrooms != nil {
		key.bedrooms = clampInt(*bedrooms, 1, 5)
	}
	key.landBucket = landBucket(landSize)
	return key
}

func landBucket(landSize *float64) string {
	switch {
	case landSize == nil:
		return "unknown"
	case *landSize < 500:
		return "small"
	case *landSize < 1000:
		return "medium"
	default:
		return "large"
	}
}

// scoreContextual runs the IQR method independently within each attribute
// group, more leniently for the group matching the subject's own key. The
// returned slice is indexed like the priced pool.
func scoreContextual(comps []models.ComparableSale, pricedIdx []int, prices []float64, subject models.SubjectProperty, opts Options) []float64 {
	subjectKey := keyFor(subject.PropertyType, subject.Bedrooms, subject.LandSizeSqm)

	groups := make(map[groupKey][]int) // positions within the priced pool
	for j, idx := range pricedIdx {
		c := &comps[idx]
		key := keyFor(c.PropertyType, c.Bedrooms, c.LandSizeSqm)
		groups[key] = append(groups[key], j)
	}

	scores := make([]float64, len(prices))
	for key, members := range groups {
		groupPrices := make([]float64, len(members))
		for i, j := range members {
			groupPrices[i] = prices[j]
		}

		sensitivity := otherGroupSensitivity
		matchesSubject := key == subjectKey
		if matchesSubject {
			sensitivity = subjectGroupSensitivity
		}

		groupScores := scoreIQR(groupPrices, sensitivity)
		for i, j := range members {
			s := groupScores[i]
			if matchesSubject {
				s = math.Max(0, s-opts.SubjectGroupReduction)
			}
			scores[j] = s
		}
	}
	return scores
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
