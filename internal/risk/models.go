// Package risk scores flood ponding risk over a terrain grid. It
// derives static per-pixel factors from elevation and flow accumulation
// once, then combines them with rainfall scenarios into point
// assessments, whole-grid risk surfaces, summary statistics and
// contiguous risk regions.
package risk

import (
	"errors"
)

// Engine errors.
var (
	// ErrInsufficientData means the terrain grid holds no usable cells.
	ErrInsufficientData = errors.New("insufficient terrain data for risk model")

	// ErrNotReady means background data preparation has not finished.
	ErrNotReady = errors.New("risk engine not ready")
)

// LatLon is a geographic coordinate pair in decimal degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Factors holds the three per-query contributions to a composite score.
type Factors struct {
	ElevationRisk  float64
	FlowAccumRisk  float64
	RainfallFactor float64
}

// Assessment is the full risk breakdown for a single point.
type Assessment struct {
	Location         LatLon
	ElevationM       float64
	FlowAccumulation float64
	Score            float64
	Severity         Severity
	PotentialDepthMM float64
	IsDepression     bool
	Factors          Factors
	Scenario         ResolvedScenario
}

// BulkItemError reports one failed location inside a bulk assessment.
type BulkItemError struct {
	Index    int
	Location LatLon
	Err      error
}

// BulkSummary aggregates the successful results of a bulk assessment.
// The risk aggregates are only meaningful when Assessed > 0.
type BulkSummary struct {
	TotalPoints int
	Assessed    int
	Failed      int
	MeanRisk    float64
	MaxRisk     float64
	MinRisk     float64
}

// BulkReport is the outcome of a bulk assessment. Individual failures
// land in Errors; they never abort the batch.
type BulkReport struct {
	Results []Assessment
	Errors  []BulkItemError
	Summary BulkSummary
}

// Statistics summarizes a risk surface. Counts and Percentages are
// indexed by Severity; cells with no data are excluded from every
// figure.
type Statistics struct {
	TotalPixels int
	AreaKM2     float64

	Counts      [severityLevels]int
	Percentages [severityLevels]float64

	MeanRisk float64
	MaxRisk  float64
	StdRisk  float64

	DepressionPixels     int
	DepressionPercentage float64

	DrainagePixels     int
	DrainagePercentage float64

	Scenario ResolvedScenario
}

// TieredRegions groups extracted regions by severity tier under the
// scenario that produced them. Every tier key is present; empty tiers
// map to empty slices.
type TieredRegions struct {
	Tiers    map[Tier][]Region
	Scenario ResolvedScenario
}

// Count returns the number of regions extracted for a tier.
func (t *TieredRegions) Count(tier Tier) int {
	return len(t.Tiers[tier])
}
