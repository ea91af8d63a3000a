package models

import (
	"time"
)

// PropertyType enumerates the supported property categories.
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeTownhouse  PropertyType = "townhouse"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeOther      PropertyType = "other"
)

// Condition enumerates the quality levels a property can be reported in.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionVeryGood  Condition = "very_good"
	ConditionGood      Condition = "good"
	ConditionAverage   Condition = "average"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionVeryPoor  Condition = "very_poor"
	ConditionDerelict  Condition = "derelict"
)

// ConstructionMaterials describes what a property is built from.
// All fields are optional free-text descriptions.
type ConstructionMaterials struct {
	Walls  *string `json:"walls,omitempty"`
	Roof   *string `json:"roof,omitempty"`
	Floors *string `json:"floors,omitempty"`
}

// SubjectProperty is the property being valued.
// All nullable fields use pointers to distinguish between zero values and
// missing data; an absent attribute means the corresponding adjustment
// dimension is skipped, never treated as zero.
type SubjectProperty struct {
	Address            string                 `json:"address" binding:"required"`
	Suburb             *string                `json:"suburb,omitempty"`
	City               *string                `json:"city,omitempty"`
	PropertyType       PropertyType           `json:"propertyType" binding:"required,oneof=house apartment townhouse land commercial other"`
	Bedrooms           *int                   `json:"bedrooms,omitempty"`
	Bathrooms          *int                   `json:"bathrooms,omitempty"`
	LandSizeSqm        *float64               `json:"landSizeSqm,omitempty"`
	FloorAreaSqm       *float64               `json:"floorAreaSqm,omitempty"`
	YearBuilt          *int                   `json:"yearBuilt,omitempty"`
	CarSpaces          *int                   `json:"carSpaces,omitempty"`
	Condition          *Condition             `json:"condition,omitempty"`
	ArchitecturalStyle *string                `json:"architecturalStyle,omitempty"`
	Materials          *ConstructionMaterials `json:"materials,omitempty"`
	Zoning             *string                `json:"zoning,omitempty"`
	Features           []string               `json:"features,omitempty"`
}

// ComparableSale is a previously sold property used as evidence for valuing
// the subject. SalePrice is optional; a comparable without a price is
// excluded from all price-based computation but is never dropped from the
// input list. OutlierScore, OutlierMethod, AdjustmentFactor and
// AdjustedPrice are populated by the valuation pipeline; each stage returns
// a new annotated collection rather than mutating its input.
type ComparableSale struct {
	Address            string                 `json:"address"`
	Suburb             *string                `json:"suburb,omitempty"`
	City               *string                `json:"city,omitempty"`
	PropertyType       PropertyType           `json:"propertyType"`
	Bedrooms           *int                   `json:"bedrooms,omitempty"`
	Bathrooms          *int                   `json:"bathrooms,omitempty"`
	LandSizeSqm        *float64               `json:"landSizeSqm,omitempty"`
	FloorAreaSqm       *float64               `json:"floorAreaSqm,omitempty"`
	YearBuilt          *int                   `json:"yearBuilt,omitempty"`
	CarSpaces          *int                   `json:"carSpaces,omitempty"`
	Condition          *Condition             `json:"condition,omitempty"`
	ArchitecturalStyle *string                `json:"architecturalStyle,omitempty"`
	Materials          *ConstructionMaterials `json:"materials,omitempty"`
	Zoning             *string                `json:"zoning,omitempty"`
	Features           []string               `json:"features,omitempty"`

	SaleDate        time.Time `json:"saleDate"`
	SalePrice       *float64  `json:"salePrice,omitempty"`
	SimilarityScore float64   `json:"similarityScore"`

	OutlierScore     float64  `json:"outlierScore"`
	OutlierMethod    string   `json:"outlierMethod"`
	AdjustmentFactor float64  `json:"adjustmentFactor"`
	AdjustedPrice    *float64 `json:"adjustedPrice,omitempty"`
}

// HasPrice reports whether the comparable carries a usable sale price.
func (c *ComparableSale) HasPrice() bool {
	return c.SalePrice != nil && *c.SalePrice > 0
}

// MarketStatistics holds suburb or city level aggregates used for recency
// and trend adjustments. When absent, a fixed default growth assumption is
// used instead.
type MarketStatistics struct {
	Suburb           *string  `json:"suburb,omitempty"`
	City             *string  `json:"city,omitempty"`
	MedianPrice      *float64 `json:"medianPrice,omitempty"`
	AnnualGrowth     *float64 `json:"annualGrowth,omitempty"`
	QuarterlyGrowth  *float64 `json:"quarterlyGrowth,omitempty"`
	SalesVolume      *int     `json:"salesVolume,omitempty"`
	DaysOnMarket     *float64 `json:"daysOnMarket,omitempty"`
	PriceVariability *float64 `json:"priceVariability,omitempty"`
	Source           string   `json:"source"`
}

// AVMEstimate is an external automated valuation supplied by a third-party
// model. Low and High are optional; when absent, a band is derived from the
// point value.
type AVMEstimate struct {
	Value      float64  `json:"value" binding:"required,gt=0"`
	Low        *float64 `json:"low,omitempty"`
	High       *float64 `json:"high,omitempty"`
	Confidence float64  `json:"confidence" binding:"min=0,max=1"`
	Source     string   `json:"source"`
}
