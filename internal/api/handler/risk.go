package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/api/response"
	"github.com/pondwatch/pondwatch/internal/geogrid"
	"github.com/pondwatch/pondwatch/internal/risk"
	"github.com/pondwatch/pondwatch/internal/scenario"
)

// defaultRiskThreshold selects high and very high cells when a grid
// query carries no explicit threshold.
const defaultRiskThreshold = 0.6

// Bounds for the tiered area query.
const (
	defaultMaxAreasPerTier = 50
	maxAreasPerTierLimit   = 200
)

// defaultReportTiers are the bands returned when a tiered query does
// not select tiers explicitly.
var defaultReportTiers = []models.RiskTier{models.TierVeryHigh, models.TierHigh}

// RiskHandler handles risk assessment endpoints.
type RiskHandler struct {
	loader    *risk.Loader
	scenarios *scenario.Service
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(loader *risk.Loader, scenarios *scenario.Service) *RiskHandler {
	return &RiskHandler{loader: loader, scenarios: scenarios}
}

// AssessPoint handles POST /v1/risk/point - score ponding risk at one
// coordinate.
func (h *RiskHandler) AssessPoint(w http.ResponseWriter, r *http.Request) {
	var input models.RiskPointRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, r, "invalid request", fieldErrors(err))
		return
	}

	override, ok := h.scenarioOverride(w, r, input.RainfallMMPerHour, input.DurationHours, input.Scenario)
	if !ok {
		return
	}
	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	assessment, err := engine.AssessPoint(*input.Lat, *input.Lon, override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRiskAssessment(assessment))
}

// AssessBulk handles POST /v1/risk/bulk - score up to 100 coordinates
// in one request. Failed points are reported alongside the results and
// never abort the batch.
func (h *RiskHandler) AssessBulk(w http.ResponseWriter, r *http.Request) {
	var input models.RiskBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, r, "invalid request", fieldErrors(err))
		return
	}

	override, ok := h.scenarioOverride(w, r, input.RainfallMMPerHour, input.DurationHours, input.Scenario)
	if !ok {
		return
	}
	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	locations := make([]risk.LatLon, len(input.Locations))
	for i, p := range input.Locations {
		locations[i] = risk.LatLon{Lat: p.Lat, Lon: p.Lon}
	}

	report, err := engine.AssessBulk(locations, override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toRiskBulkResponse(report))
}

// GridRisk handles GET /v1/risk/grid - whole-grid statistics plus the
// contiguous areas at or above the score threshold.
func (h *RiskHandler) GridRisk(w http.ResponseWriter, r *http.Request) {
	threshold := defaultRiskThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			response.BadRequest(w, r, "invalid query parameters", []models.FieldError{
				{Field: "threshold", Message: "must be a number between 0 and 1"},
			})
			return
		}
		threshold = v
	}

	override, ok := h.queryScenarioOverride(w, r)
	if !ok {
		return
	}
	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	stats, err := engine.Statistics(override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	regions, err := engine.HighRiskAreas(threshold, override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GridRiskResponse{
		Statistics:    toRiskStatistics(stats),
		Threshold:     threshold,
		HighRiskAreas: toRiskAreas(regions),
		Scenario:      toAppliedScenario(stats.Scenario),
	})
}

// TieredRisk handles GET /v1/risk/tiered - contiguous areas grouped by
// severity tier. By default only the two most severe tiers are
// returned; tiers=... selects others.
func (h *RiskHandler) TieredRisk(w http.ResponseWriter, r *http.Request) {
	maxPerTier := defaultMaxAreasPerTier
	if raw := r.URL.Query().Get("max_areas_per_tier"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxAreasPerTierLimit {
			response.BadRequest(w, r, "invalid query parameters", []models.FieldError{
				{Field: "max_areas_per_tier", Message: fmt.Sprintf("must be an integer between 1 and %d", maxAreasPerTierLimit)},
			})
			return
		}
		maxPerTier = v
	}

	tiers, ferr := queryTiers(r)
	if ferr != nil {
		response.BadRequest(w, r, "invalid query parameters", []models.FieldError{*ferr})
		return
	}

	override, ok := h.queryScenarioOverride(w, r)
	if !ok {
		return
	}
	engine, err := h.loader.Engine()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tiered, err := engine.TieredRiskAreas(maxPerTier, override)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := models.TieredRiskResponse{
		Tiers:           make(map[models.RiskTier][]models.RiskArea, len(tiers)),
		MaxAreasPerTier: maxPerTier,
		Scenario:        toAppliedScenario(tiered.Scenario),
	}
	for _, tier := range tiers {
		out.Tiers[tier] = toRiskAreas(tiered.Tiers[risk.Tier(tier)])
	}
	response.JSON(w, r, http.StatusOK, out)
}

// scenarioOverride builds the per-query rainfall override from the
// explicit override fields or a stored preset name. It writes the error
// response and reports false when the combination is invalid.
func (h *RiskHandler) scenarioOverride(w http.ResponseWriter, r *http.Request, rainfall, duration *float64, preset *string) (*risk.Scenario, bool) {
	if preset != nil && (rainfall != nil || duration != nil) {
		response.BadRequest(w, r, "invalid request", []models.FieldError{
			{Field: "scenario", Message: "cannot be combined with rainfall_mm_per_hour or duration_hours"},
		})
		return nil, false
	}
	if (rainfall != nil) != (duration != nil) {
		response.BadRequest(w, r, "invalid request", []models.FieldError{
			{Field: "rainfall_mm_per_hour", Message: "must be given together with duration_hours"},
		})
		return nil, false
	}
	if preset != nil {
		override, err := h.scenarios.Resolve(r.Context(), *preset)
		if err != nil {
			writeDomainError(w, r, err)
			return nil, false
		}
		return override, true
	}
	if rainfall != nil {
		return &risk.Scenario{RainfallMMPerHour: *rainfall, DurationHours: *duration}, true
	}
	return nil, true
}

// queryScenarioOverride is scenarioOverride for GET endpoints, reading
// the override from query parameters.
func (h *RiskHandler) queryScenarioOverride(w http.ResponseWriter, r *http.Request) (*risk.Scenario, bool) {
	var errs []models.FieldError
	rainfall, ferr := queryFloat(r, "rainfall_mm_per_hour")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	duration, ferr := queryFloat(r, "duration_hours")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return nil, false
	}

	var preset *string
	if raw := r.URL.Query().Get("scenario"); raw != "" {
		preset = &raw
	}
	return h.scenarioOverride(w, r, rainfall, duration, preset)
}

// writeDomainError maps engine, grid and preset errors onto problem
// responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *risk.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, "invalid risk parameters", []models.FieldError{
			{Field: verr.Field, Message: verr.Reason},
		})
	case errors.Is(err, scenario.ErrPresetNotFound):
		response.NotFound(w, r, "scenario preset not found")
	case errors.Is(err, geogrid.ErrOutOfBounds):
		response.OutOfBounds(w, r, "coordinate outside grid coverage")
	case errors.Is(err, geogrid.ErrSampleUnavailable):
		response.NoData(w, r, "no valid terrain data at coordinate")
	case errors.Is(err, geogrid.ErrTransformUnavailable):
		response.ServiceUnavailable(w, r, "coordinate transform unavailable")
	case errors.Is(err, risk.ErrNotReady):
		response.ServiceUnavailable(w, r, "risk engine not ready")
	default:
		response.InternalError(w, r, "an unexpected error occurred")
	}
}

func toRiskAssessment(a *risk.Assessment) models.RiskAssessment {
	return models.RiskAssessment{
		Location:         models.Point{Lat: a.Location.Lat, Lon: a.Location.Lon},
		ElevationM:       round2(a.ElevationM),
		FlowAccumulation: round2(a.FlowAccumulation),
		RiskScore:        round3(a.Score),
		Severity:         models.RiskSeverity(a.Severity.String()),
		SeverityLevel:    a.Severity.Level(),
		PotentialDepthMM: round1(a.PotentialDepthMM),
		IsDepression:     a.IsDepression,
		Factors: models.RiskFactors{
			ElevationRisk:  round3(a.Factors.ElevationRisk),
			FlowAccumRisk:  round3(a.Factors.FlowAccumRisk),
			RainfallFactor: round3(a.Factors.RainfallFactor),
		},
		Scenario: toAppliedScenario(a.Scenario),
	}
}

func toRiskBulkResponse(report *risk.BulkReport) models.RiskBulkResponse {
	out := models.RiskBulkResponse{
		Results: make([]models.RiskAssessment, 0, len(report.Results)),
		Errors:  make([]models.BulkError, 0, len(report.Errors)),
		Summary: models.BulkSummary{
			TotalPoints: report.Summary.TotalPoints,
			Assessed:    report.Summary.Assessed,
			Failed:      report.Summary.Failed,
			MeanRisk:    round3(report.Summary.MeanRisk),
			MaxRisk:     round3(report.Summary.MaxRisk),
			MinRisk:     round3(report.Summary.MinRisk),
		},
	}
	for i := range report.Results {
		out.Results = append(out.Results, toRiskAssessment(&report.Results[i]))
	}
	for _, e := range report.Errors {
		out.Errors = append(out.Errors, models.BulkError{
			Index:    e.Index,
			Location: models.Point{Lat: e.Location.Lat, Lon: e.Location.Lon},
			Error:    e.Err.Error(),
		})
	}
	return out
}

func toRiskStatistics(stats *risk.Statistics) models.RiskStatistics {
	counts := make(map[models.RiskSeverity]int, len(stats.Counts))
	percentages := make(map[models.RiskSeverity]float64, len(stats.Percentages))
	for i := range stats.Counts {
		severity := models.RiskSeverity(risk.Severity(i).String())
		counts[severity] = stats.Counts[i]
		percentages[severity] = round2(stats.Percentages[i])
	}
	return models.RiskStatistics{
		TotalPixels:          stats.TotalPixels,
		AreaKM2:              round4(stats.AreaKM2),
		SeverityCounts:       counts,
		SeverityPercentages:  percentages,
		MeanRisk:             round3(stats.MeanRisk),
		MaxRisk:              round3(stats.MaxRisk),
		StdRisk:              round3(stats.StdRisk),
		DepressionPixels:     stats.DepressionPixels,
		DepressionPercentage: round2(stats.DepressionPercentage),
		DrainagePixels:       stats.DrainagePixels,
		DrainagePercentage:   round2(stats.DrainagePercentage),
	}
}

func toRiskAreas(regions []risk.Region) []models.RiskArea {
	out := make([]models.RiskArea, 0, len(regions))
	for _, region := range regions {
		out = append(out, models.RiskArea{
			Label:      region.Label,
			Tier:       models.RiskTier(region.Tier),
			PixelCount: region.PixelCount,
			AreaM2:     round1(region.AreaM2),
			Centroid: models.Point{
				Lat: round6(region.Centroid.Lat),
				Lon: round6(region.Centroid.Lon),
			},
			Risk: models.AreaRiskStats{
				Mean: round3(region.Risk.Mean),
				Max:  round3(region.Risk.Max),
				Min:  round3(region.Risk.Min),
			},
			Elevation: models.AreaElevationStats{
				Mean: round2(region.Elevation.Mean),
				Min:  round2(region.Elevation.Min),
				Max:  round2(region.Elevation.Max),
			},
		})
	}
	return out
}

func toAppliedScenario(s risk.ResolvedScenario) models.AppliedScenario {
	return models.AppliedScenario{
		RainfallMMPerHour: s.RainfallMMPerHour,
		DurationHours:     s.DurationHours,
		TotalRainfallMM:   round1(s.TotalRainfallMM),
	}
}

// queryFloat parses an optional float query parameter. Absence is not
// an error.
func queryFloat(r *http.Request, name string) (*float64, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &models.FieldError{Field: name, Message: "must be a number"}
	}
	return &v, nil
}

// queryTiers parses the tier selection, defaulting to the two most
// severe bands.
func queryTiers(r *http.Request) ([]models.RiskTier, *models.FieldError) {
	raw := r.URL.Query().Get("tiers")
	if raw == "" {
		return defaultReportTiers, nil
	}

	parts := strings.Split(raw, ",")
	tiers := make([]models.RiskTier, 0, len(parts))
	for _, part := range parts {
		tier := models.RiskTier(strings.TrimSpace(part))
		switch tier {
		case models.TierVeryHigh, models.TierHigh, models.TierModerate, models.TierLow:
			tiers = append(tiers, tier)
		default:
			return nil, &models.FieldError{Field: "tiers", Message: fmt.Sprintf("unknown tier %q", part)}
		}
	}
	return tiers, nil
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func round1(v float64) float64 { return roundTo(v, 1) }
func round2(v float64) float64 { return roundTo(v, 2) }
func round3(v float64) float64 { return roundTo(v, 3) }
func round4(v float64) float64 { return roundTo(v, 4) }
func round6(v float64) float64 { return roundTo(v, 6) }
