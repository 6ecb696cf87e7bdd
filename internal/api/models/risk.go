package models

// AppliedScenario echoes the rainfall scenario a result was computed
// under.
type AppliedScenario struct {
	RainfallMMPerHour float64 `json:"rainfall_mm_per_hour"`
	DurationHours     float64 `json:"duration_hours"`
	TotalRainfallMM   float64 `json:"total_rainfall_mm"`
}

// RiskFactors holds the three contributions to a composite score.
type RiskFactors struct {
	ElevationRisk  float64 `json:"elevation_risk"`
	FlowAccumRisk  float64 `json:"flow_accum_risk"`
	RainfallFactor float64 `json:"rainfall_factor"`
}

// RiskPointRequest asks for an assessment at a single coordinate. Lat
// and Lon are pointers so an absent field is told apart from a zero
// coordinate. The rainfall override fields and the scenario preset name
// are mutually exclusive; rainfall and duration must be given together.
type RiskPointRequest struct {
	Lat               *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon               *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	RainfallMMPerHour *float64 `json:"rainfall_mm_per_hour,omitempty"`
	DurationHours     *float64 `json:"duration_hours,omitempty"`
	Scenario          *string  `json:"scenario,omitempty"`
}

// RiskAssessment is the full risk breakdown for a single point.
type RiskAssessment struct {
	Location         Point           `json:"location"`
	ElevationM       float64         `json:"elevation_m"`
	FlowAccumulation float64         `json:"flow_accumulation"`
	RiskScore        float64         `json:"risk_score"`
	Severity         RiskSeverity    `json:"severity"`
	SeverityLevel    int             `json:"severity_level"`
	PotentialDepthMM float64         `json:"potential_depth_mm"`
	IsDepression     bool            `json:"is_depression"`
	Factors          RiskFactors     `json:"factors"`
	Scenario         AppliedScenario `json:"scenario"`
}

// RiskBulkRequest asks for assessments at up to 100 coordinates.
type RiskBulkRequest struct {
	Locations         []Point  `json:"locations" validate:"required,min=1,max=100,dive"`
	RainfallMMPerHour *float64 `json:"rainfall_mm_per_hour,omitempty"`
	DurationHours     *float64 `json:"duration_hours,omitempty"`
	Scenario          *string  `json:"scenario,omitempty"`
}

// BulkError reports one failed location inside a bulk assessment.
type BulkError struct {
	Index    int    `json:"index"`
	Location Point  `json:"location"`
	Error    string `json:"error"`
}

// BulkSummary aggregates the successful results of a bulk assessment.
type BulkSummary struct {
	TotalPoints int     `json:"total_points"`
	Assessed    int     `json:"assessed"`
	Failed      int     `json:"failed"`
	MeanRisk    float64 `json:"mean_risk"`
	MaxRisk     float64 `json:"max_risk"`
	MinRisk     float64 `json:"min_risk"`
}

// RiskBulkResponse carries per-point results, per-point failures and an
// aggregate summary. Failures never abort the batch.
type RiskBulkResponse struct {
	Results []RiskAssessment `json:"results"`
	Errors  []BulkError      `json:"errors"`
	Summary BulkSummary      `json:"summary"`
}

// AreaRiskStats summarizes composite scores over an area.
type AreaRiskStats struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// AreaElevationStats summarizes terrain height over an area.
type AreaElevationStats struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// RiskArea is one contiguous cluster of cells extracted from the risk
// surface.
type RiskArea struct {
	Label      int                `json:"label"`
	Tier       RiskTier           `json:"tier,omitempty"`
	PixelCount int                `json:"pixel_count"`
	AreaM2     float64            `json:"area_m2"`
	Centroid   Point              `json:"centroid"`
	Risk       AreaRiskStats      `json:"risk"`
	Elevation  AreaElevationStats `json:"elevation"`
}

// RiskStatistics summarizes the risk surface over all valid cells.
type RiskStatistics struct {
	TotalPixels          int                      `json:"total_pixels"`
	AreaKM2              float64                  `json:"area_km2"`
	SeverityCounts       map[RiskSeverity]int     `json:"severity_counts"`
	SeverityPercentages  map[RiskSeverity]float64 `json:"severity_percentages"`
	MeanRisk             float64                  `json:"mean_risk"`
	MaxRisk              float64                  `json:"max_risk"`
	StdRisk              float64                  `json:"std_risk"`
	DepressionPixels     int                      `json:"depression_pixels"`
	DepressionPercentage float64                  `json:"depression_percentage"`
	DrainagePixels       int                      `json:"drainage_pixels"`
	DrainagePercentage   float64                  `json:"drainage_percentage"`
}

// GridRiskResponse reports surface statistics plus the contiguous areas
// at or above the requested score threshold.
type GridRiskResponse struct {
	Statistics    RiskStatistics  `json:"statistics"`
	Threshold     float64         `json:"threshold"`
	HighRiskAreas []RiskArea      `json:"high_risk_areas"`
	Scenario      AppliedScenario `json:"scenario"`
}

// TieredRiskResponse groups extracted areas by severity tier.
type TieredRiskResponse struct {
	Tiers           map[RiskTier][]RiskArea `json:"tiers"`
	MaxAreasPerTier int                     `json:"max_areas_per_tier"`
	Scenario        AppliedScenario         `json:"scenario"`
}

// RiskConfig mirrors the full risk model configuration. It is both the
// GET response and the PUT request body; updates replace every field.
type RiskConfig struct {
	RainfallMMPerHour   float64 `json:"rainfall_mm_per_hour"`
	DurationHours       float64 `json:"duration_hours"`
	DrainageCoefficient float64 `json:"drainage_coefficient"`
	PondingThresholdMM  float64 `json:"ponding_threshold_mm"`
	FlowAccumThreshold  float64 `json:"high_flow_accum_threshold"`
	ElevationWeight     float64 `json:"elevation_weight"`
	FlowAccumWeight     float64 `json:"flow_accum_weight"`
	RainfallWeight      float64 `json:"rainfall_weight"`
}
