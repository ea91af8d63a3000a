package models

// ConfidenceLevel is the discretized form of the overall confidence score.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceVeryLow  ConfidenceLevel = "very_low"
)

// ConfidenceLevelFor maps an overall confidence score onto the five levels.
func ConfidenceLevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.85:
		return ConfidenceVeryHigh
	case score >= 0.7:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceModerate
	case score >= 0.3:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// ValuationApproach records which evidence the final range was built from.
type ValuationApproach string

const (
	ApproachComparableOnly ValuationApproach = "comparable_only"
	ApproachAVMOnly        ValuationApproach = "avm_only"
	ApproachHybrid         ValuationApproach = "hybrid"
)

// ConfidenceBreakdown explains the factors contributing to the overall
// confidence score. AVMConfidence is only present when an AVM estimate was
// blended in; MarketVolatility only when market statistics were available.
type ConfidenceBreakdown struct {
	DataQuality          float64  `json:"dataQuality"`
	ComparableCount      float64  `json:"comparableCount"`
	ComparableSimilarity float64  `json:"comparableSimilarity"`
	OutlierImpact        float64  `json:"outlierImpact"`
	DataRecency          float64  `json:"dataRecency"`
	MarketVolatility     *float64 `json:"marketVolatility,omitempty"`
	AVMConfidence        *float64 `json:"avmConfidence,omitempty"`
}

// ComparableDetail is the per-comparable audit trail included with every
// valuation result.
type ComparableDetail struct {
	Address          string   `json:"address"`
	SalePrice        *float64 `json:"salePrice,omitempty"`
	AdjustedPrice    *float64 `json:"adjustedPrice,omitempty"`
	AdjustmentFactor float64  `json:"adjustmentFactor"`
	Weight           float64  `json:"weight"`
	OutlierScore     float64  `json:"outlierScore"`
	OutlierMethod    string   `json:"outlierMethod"`
	IsExcluded       bool     `json:"isExcluded"`
}

// AdjustmentSummary gives an approximate per-dimension dollar impact for
// explanation purposes. Values are per unit of difference where a unit
// applies (per bedroom, per bathroom, per car space, per year of age, per
// condition level); nil when the dimension could not be computed.
type AdjustmentSummary struct {
	PerBedroom        *float64 `json:"perBedroom,omitempty"`
	PerBathroom       *float64 `json:"perBathroom,omitempty"`
	PerCarSpace       *float64 `json:"perCarSpace,omitempty"`
	PerConditionLevel *float64 `json:"perConditionLevel,omitempty"`
	PerYearOfAge      *float64 `json:"perYearOfAge,omitempty"`
	PremiumStyle      *float64 `json:"premiumStyle,omitempty"`
	PremiumMaterials  *float64 `json:"premiumMaterials,omitempty"`
	PerMonthSinceSale *float64 `json:"perMonthSinceSale,omitempty"`
}

// BlendWeights records the relative weights used when blending comparable
// and AVM evidence under the hybrid approach.
type BlendWeights struct {
	Comparable float64 `json:"comparable"`
	AVM        float64 `json:"avm"`
}

// ValuationResult is the output of one valuation run.
// Invariants: Low <= Point <= High and 0 <= Confidence <= 1.
type ValuationResult struct {
	ID              string              `json:"id"`
	Low             float64             `json:"low"`
	Point           float64             `json:"point"`
	High            float64             `json:"high"`
	Confidence      float64             `json:"confidence"`
	ConfidenceLevel ConfidenceLevel     `json:"confidenceLevel"`
	Breakdown       ConfidenceBreakdown `json:"confidenceBreakdown"`
	Approach        ValuationApproach   `json:"approach"`
	Weights         *BlendWeights       `json:"blendWeights,omitempty"`
	Comparables     []ComparableDetail  `json:"comparables"`
	Adjustments     *AdjustmentSummary  `json:"adjustmentSummary,omitempty"`
}
