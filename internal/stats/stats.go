// Package stats provides the pure numeric primitives underpinning the
// valuation pipeline: central tendency, robust dispersion, outlier scoring
// and confidence-weighted blending.
//
// Every function is total over its numeric domain. Empty or degenerate
// input yields a defined neutral result (0, or "no outliers") rather than
// an error, because production comparable sets are frequently tiny (3-8
// records) and downstream arithmetic must stay total.
package stats

import (
	"math"
	"sort"
)

// madNormalization makes the MAD comparable to the standard deviation
// under a normal distribution.
const madNormalization = 0.6745

// DefaultModifiedZThreshold is the conventional cutoff for flagging a
// modified Z-score as an outlier.
const DefaultModifiedZThreshold = 3.5

// Mean returns the arithmetic mean of values, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of the sorted input, averaging the two
// central values for even-length input. Returns 0 for empty input.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev returns the standard deviation of values. With sample=true the
// Bessel-corrected (n-1) estimator is used. Returns 0 when the input has
// fewer than two values (sample) or is empty (population).
func StdDev(values []float64, sample bool) float64 {
	n := len(values)
	if n == 0 || (sample && n < 2) {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	div := float64(n)
	if sample {
		div = float64(n - 1)
	}
	return math.Sqrt(sumSq / div)
}

// MedianAbsoluteDeviation returns the median of absolute deviations from
// the median, a robust scale estimate.
func MedianAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	med := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	return Median(deviations)
}

// ModifiedZScores returns the MAD-based standardized score for each value.
// When the MAD is 0 (all values identical) every score is 0 rather than
// dividing by zero.
func ModifiedZScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	if len(values) == 0 {
		return scores
	}
	med := Median(values)
	mad := MedianAbsoluteDeviation(values)
	if mad == 0 {
		return scores
	}
	for i, v := range values {
		scores[i] = madNormalization * (v - med) / mad
	}
	return scores
}

// ModifiedZResult splits indices into outliers and inliers by modified
// Z-score magnitude, keeping the per-value scores for continuous use.
type ModifiedZResult struct {
	Scores   []float64
	Outliers []int
	Inliers  []int
}

// DetectOutliersModifiedZ flags values whose absolute modified Z-score
// exceeds threshold. A threshold <= 0 falls back to the conventional 3.5.
func DetectOutliersModifiedZ(values []float64, threshold float64) ModifiedZResult {
	if threshold <= 0 {
		threshold = DefaultModifiedZThreshold
	}
	scores := ModifiedZScores(values)
	res := ModifiedZResult{Scores: scores}
	for i, s := range scores {
		if math.Abs(s) > threshold {
			res.Outliers = append(res.Outliers, i)
		} else {
			res.Inliers = append(res.Inliers, i)
		}
	}
	return res
}

// Quartiles holds the 25th and 75th percentile values and their spread.
type Quartiles struct {
	Q1  float64
	Q3  float64
	IQR float64
}

// InterquartileRange returns Q1, Q3 and their difference using percentile
// indices floor(n*0.25) and floor(n*0.75) of the sorted input. With fewer
// than 4 values the sample is too small to fence and all fields are 0.
func InterquartileRange(values []float64) Quartiles {
	n := len(values)
	if n < 4 {
		return Quartiles{}
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	q1 := sorted[int(float64(n)*0.25)]
	q3 := sorted[int(float64(n)*0.75)]
	return Quartiles{Q1: q1, Q3: q3, IQR: q3 - q1}
}

// Erf approximates the Gauss error function using the Abramowitz-Stegun
// rational approximation (maximum error ~1.5e-7).
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}

// ChauvenetResult carries the per-value normal-tail probabilities along
// with the rejection threshold 1/(2n) used to flag outliers.
type ChauvenetResult struct {
	Probabilities []float64
	Threshold     float64
	Outliers      []int
}

// DetectOutliersChauvenet applies Chauvenet's criterion: a value is
// rejected when the probability of observing a deviation at least as large
// is below 1/(2n). Degenerate samples (n < 4 or zero variance) report no
// outliers and probability 1 for all values.
func DetectOutliersChauvenet(values []float64) ChauvenetResult {
	n := len(values)
	res := ChauvenetResult{Probabilities: make([]float64, n)}
	if n == 0 {
		return res
	}
	res.Threshold = 1.0 / (2.0 * float64(n))

	sd := StdDev(values, true)
	if n < 4 || sd == 0 {
		for i := range res.Probabilities {
			res.Probabilities[i] = 1
		}
		return res
	}

	mean := Mean(values)
	for i, v := range values {
		z := math.Abs(v-mean) / sd
		p := 1.0 - Erf(z/math.Sqrt2)
		res.Probabilities[i] = p
		if p < res.Threshold {
			res.Outliers = append(res.Outliers, i)
		}
	}
	return res
}

// WeightedAverage returns sum(value*weight)/sum(weight) over the paired
// slices, ignoring any trailing excess in the longer slice. Returns 0 when
// the total weight is 0.
func WeightedAverage(values, weights []float64) float64 {
	n := len(values)
	if len(weights) < n {
		n = len(weights)
	}
	var sum, totalWeight float64
	for i := 0; i < n; i++ {
		sum += values[i] * weights[i]
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// CoefficientOfVariation returns the population standard deviation divided
// by the mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values, false) / mean
}

// ConfidenceBlend returns the confidence-weighted average of two point
// estimates. If one confidence is 0 the other value is returned unmodified.
func ConfidenceBlend(v1, c1, v2, c2 float64) float64 {
	if c1 <= 0 && c2 <= 0 {
		return (v1 + v2) / 2
	}
	if c1 <= 0 {
		return v2
	}
	if c2 <= 0 {
		return v1
	}
	return (v1*c1 + v2*c2) / (c1 + c2)
}

// Range is a bounded estimate with an associated confidence.
type Range struct {
	Low        float64
	High       float64
	Confidence float64
}

// ConfidenceRangeBlend blends the low and high bounds of two ranges
// independently via ConfidenceBlend. The combined confidence treats the two
// estimates as independent evidence, so it is monotonically at least either
// input and capped at 1.
func ConfidenceRangeBlend(r1, r2 Range) Range {
	return Range{
		Low:        ConfidenceBlend(r1.Low, r1.Confidence, r2.Low, r2.Confidence),
		High:       ConfidenceBlend(r1.High, r1.Confidence, r2.High, r2.Confidence),
		Confidence: math.Min(1, r1.Confidence+r2.Confidence*(1-r1.Confidence)),
	}
}
