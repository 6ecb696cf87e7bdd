package risk

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

// MaxBulkLocations bounds a single bulk assessment request.
const MaxBulkLocations = 100

// DefaultMaxAreasPerTier bounds tiered region queries when the caller
// does not say otherwise.
const DefaultMaxAreasPerTier = 50

// depressionBonus scales the composite score on depression cells,
// capped at 1.
const depressionBonus = 1.2

// neutralFactor stands in for a static factor when a point resolves
// outside the precomputed factor arrays.
const neutralFactor = 0.5

// Config holds dependencies for the risk engine.
type Config struct {
	// Grid is the loaded terrain grid. Required.
	Grid *geogrid.Grid

	// Params is the initial model configuration. The zero value means
	// DefaultParameters.
	Params Parameters

	// Logger for engine operations.
	Logger zerolog.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *Metrics
}

// Engine scores ponding risk over a terrain grid. It is safe for
// concurrent use: the static factors are immutable after construction,
// and parameter swaps are serialized against cached surface reads.
type Engine struct {
	grid    *geogrid.Grid
	logger  zerolog.Logger
	metrics *Metrics
	factors *staticFactors

	mu     sync.RWMutex
	params Parameters
	cache  *surfaceCache
}

// surfaceCache pairs one computed risk surface with the scenario that
// produced it.
type surfaceCache struct {
	scenario Scenario
	surface  *mat.Dense
}

// NewEngine validates the parameters, derives the static risk factors
// and returns a ready engine. It fails with ErrInsufficientData when
// the grid is missing or either raster holds no valid cells.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Grid == nil {
		return nil, ErrInsufficientData
	}
	if cfg.Params == (Parameters{}) {
		cfg.Params = DefaultParameters()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if !hasValidCells(cfg.Grid.Elevation()) || !hasValidCells(cfg.Grid.FlowAccumulation()) {
		return nil, ErrInsufficientData
	}

	start := time.Now()
	factors := computeStaticFactors(cfg.Grid.Elevation(), cfg.Grid.FlowAccumulation())

	depressionCells := 0
	for _, row := range factors.depressions {
		for _, flagged := range row {
			if flagged {
				depressionCells++
			}
		}
	}
	cfg.Logger.Info().
		Int("depression_cells", depressionCells).
		Dur("elapsed", time.Since(start)).
		Msg("static risk factors computed")

	return &Engine{
		grid:    cfg.Grid,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		factors: factors,
		params:  cfg.Params,
	}, nil
}

func hasValidCells(m *mat.Dense) bool {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !math.IsNaN(m.At(r, c)) {
				return true
			}
		}
	}
	return false
}

// Grid returns the terrain grid the engine scores against.
func (e *Engine) Grid() *geogrid.Grid {
	return e.grid
}

// Parameters returns the current model configuration.
func (e *Engine) Parameters() Parameters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// SetParameters replaces the model configuration and drops any cached
// risk surface. Validation happens before any state changes; a rejected
// set leaves the engine untouched. The static factors survive the swap
// since they do not depend on rainfall parameters.
func (e *Engine) SetParameters(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.params = p
	e.cache = nil
	e.mu.Unlock()

	e.logger.Info().
		Float64("rainfall_mm_per_hour", p.RainfallMMPerHour).
		Float64("duration_hours", p.DurationHours).
		Float64("elevation_weight", p.ElevationWeight).
		Float64("flow_accum_weight", p.FlowAccumWeight).
		Float64("rainfall_weight", p.RainfallWeight).
		Msg("risk parameters replaced")
	return nil
}

// InvalidateCache drops the cached risk surface.
func (e *Engine) InvalidateCache() {
	e.mu.Lock()
	e.cache = nil
	e.mu.Unlock()
}

// potentialDepthMM is the net water depth for a scenario: total
// rainfall minus what the ground sheds over the duration, floored at
// zero. The drainage coefficient converts from m/s to mm over the
// duration.
func potentialDepthMM(p Parameters, s Scenario) float64 {
	total := s.RainfallMMPerHour * s.DurationHours
	drained := p.DrainageCoefficient * s.DurationHours * 3600 * 1000
	return math.Max(0, total-drained)
}

// rainfallFactor saturates at 1 once the net depth reaches the ponding
// threshold.
func rainfallFactor(p Parameters, s Scenario) float64 {
	return math.Min(1, potentialDepthMM(p, s)/p.PondingThresholdMM)
}

func validateOverride(scenario *Scenario) error {
	if scenario == nil {
		return nil
	}
	return scenario.Validate()
}

// AssessPoint scores ponding risk at a geographic point. A nil scenario
// uses the engine's default rainfall parameters. The point must fall
// inside the grid and sample cleanly; assessments never read or write
// the surface cache.
func (e *Engine) AssessPoint(lat, lon float64, scenario *Scenario) (_ *Assessment, err error) {
	defer func() { e.metrics.RecordAssessment("point", err) }()

	if err = validateOverride(scenario); err != nil {
		return nil, err
	}

	params := e.Parameters()
	s := resolveScenario(params, scenario)

	elevation, err := e.grid.ElevationAt(lat, lon)
	if err != nil {
		return nil, err
	}
	flowAccum, err := e.grid.FlowAccumulationAt(lat, lon)
	if err != nil {
		return nil, err
	}
	row, col, err := e.grid.LatLonToPixel(lat, lon)
	if err != nil {
		return nil, err
	}

	elevationRisk, flowRisk, isDepression := e.factorsAt(row, col)

	depth := potentialDepthMM(params, s)
	rain := rainfallFactor(params, s)

	score := params.ElevationWeight*elevationRisk +
		params.FlowAccumWeight*flowRisk +
		params.RainfallWeight*rain
	if isDepression {
		score = math.Min(1, score*depressionBonus)
	}

	return &Assessment{
		Location:         LatLon{Lat: lat, Lon: lon},
		ElevationM:       elevation,
		FlowAccumulation: flowAccum,
		Score:            score,
		Severity:         ClassifySeverity(score),
		PotentialDepthMM: depth,
		IsDepression:     isDepression,
		Factors: Factors{
			ElevationRisk:  elevationRisk,
			FlowAccumRisk:  flowRisk,
			RainfallFactor: rain,
		},
		Scenario: s.resolved(),
	}, nil
}

// factorsAt reads the static factors for the cell containing the
// fractional pixel position. Positions resolving outside the factor
// arrays fall back to neutral factors with no depression flag.
func (e *Engine) factorsAt(row, col float64) (elevationRisk, flowRisk float64, isDepression bool) {
	r := int(math.Round(row))
	c := int(math.Round(col))
	rows, cols := e.factors.elevationRisk.Dims()
	if r < 0 || r >= rows || c < 0 || c >= cols {
		return neutralFactor, neutralFactor, false
	}
	return e.factors.elevationRisk.At(r, c), e.factors.flowRisk.At(r, c), e.factors.depressions[r][c]
}

// DepressionAt reports whether the cell containing the point sits in a
// local depression.
func (e *Engine) DepressionAt(lat, lon float64) (bool, error) {
	row, col, err := e.grid.LatLonToPixel(lat, lon)
	if err != nil {
		return false, err
	}
	_, _, isDepression := e.factorsAt(row, col)
	return isDepression, nil
}

// AssessBulk scores up to MaxBulkLocations points in one call. A failed
// point lands in the report's Errors and never aborts the batch.
func (e *Engine) AssessBulk(locations []LatLon, scenario *Scenario) (*BulkReport, error) {
	if len(locations) > MaxBulkLocations {
		return nil, &ValidationError{
			Field:  "locations",
			Reason: fmt.Sprintf("at most %d locations per request", MaxBulkLocations),
		}
	}
	if err := validateOverride(scenario); err != nil {
		return nil, err
	}

	report := &BulkReport{
		Results: make([]Assessment, 0, len(locations)),
		Summary: BulkSummary{TotalPoints: len(locations)},
	}
	for i, loc := range locations {
		a, err := e.AssessPoint(loc.Lat, loc.Lon, scenario)
		if err != nil {
			report.Errors = append(report.Errors, BulkItemError{Index: i, Location: loc, Err: err})
			continue
		}
		report.Results = append(report.Results, *a)
	}

	report.Summary.Assessed = len(report.Results)
	report.Summary.Failed = len(report.Errors)
	if len(report.Results) > 0 {
		minRisk, maxRisk := math.Inf(1), math.Inf(-1)
		var sum float64
		for _, a := range report.Results {
			sum += a.Score
			minRisk = min(minRisk, a.Score)
			maxRisk = max(maxRisk, a.Score)
		}
		report.Summary.MeanRisk = sum / float64(len(report.Results))
		report.Summary.MaxRisk = maxRisk
		report.Summary.MinRisk = minRisk
	}
	return report, nil
}

// ComputeGrid evaluates the composite formula over every cell and
// returns a fresh risk surface. Cells with no data stay NaN. The cache
// is never consulted or written here.
func (e *Engine) ComputeGrid(scenario *Scenario) *mat.Dense {
	params := e.Parameters()
	return e.computeSurface(params, resolveScenario(params, scenario))
}

func (e *Engine) computeSurface(params Parameters, s Scenario) *mat.Dense {
	start := time.Now()
	rain := rainfallFactor(params, s)

	rows, cols := e.factors.elevationRisk.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			score := params.ElevationWeight*e.factors.elevationRisk.At(r, c) +
				params.FlowAccumWeight*e.factors.flowRisk.At(r, c) +
				params.RainfallWeight*rain
			if e.factors.depressions[r][c] {
				score = math.Min(1, score*depressionBonus)
			}
			out.Set(r, c, score)
		}
	}

	e.metrics.RecordSurfaceCompute(time.Since(start))
	e.logger.Debug().
		Float64("rainfall_mm_per_hour", s.RainfallMMPerHour).
		Float64("duration_hours", s.DurationHours).
		Dur("elapsed", time.Since(start)).
		Msg("risk surface computed")
	return out
}

// riskSurface returns the risk surface for a scenario together with the
// scenario it resolved to, reusing the cached surface when the scenario
// matches and recomputing otherwise. Returned surfaces are shared and
// must be treated as read-only.
func (e *Engine) riskSurface(scenario *Scenario) (*mat.Dense, Scenario) {
	e.mu.RLock()
	s := resolveScenario(e.params, scenario)
	if e.cache != nil && e.cache.scenario == s {
		surface := e.cache.surface
		e.mu.RUnlock()
		e.metrics.RecordCacheHit()
		return surface, s
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Another goroutine may have filled the cache while we waited, and
	// the parameters may have changed under us.
	params := e.params
	s = resolveScenario(params, scenario)
	if e.cache != nil && e.cache.scenario == s {
		e.metrics.RecordCacheHit()
		return e.cache.surface, s
	}

	e.metrics.RecordCacheMiss()
	surface := e.computeSurface(params, s)
	e.cache = &surfaceCache{scenario: s, surface: surface}
	return surface, s
}

// HighRiskAreas thresholds the risk surface at minScore and returns the
// connected regions of at least five cells, largest first.
func (e *Engine) HighRiskAreas(minScore float64, scenario *Scenario) ([]Region, error) {
	if err := validateOverride(scenario); err != nil {
		return nil, err
	}

	surface, _ := e.riskSurface(scenario)
	return e.extractRegions(thresholdMask(surface, minScore), surface, minRegionPixels, 0)
}

// TieredRiskAreas extracts regions for all four tiers. Within a tier the
// candidate components are capped at twice maxPerTier by size before
// the final ordering, so a fragmented surface cannot blow up the query.
// Each tier holds at most maxPerTier regions sorted by mean risk
// descending.
func (e *Engine) TieredRiskAreas(maxPerTier int, scenario *Scenario) (*TieredRegions, error) {
	if err := validateOverride(scenario); err != nil {
		return nil, err
	}
	if maxPerTier <= 0 {
		maxPerTier = DefaultMaxAreasPerTier
	}

	surface, s := e.riskSurface(scenario)

	out := &TieredRegions{
		Tiers:    make(map[Tier][]Region, len(AllTiers)),
		Scenario: s.resolved(),
	}
	for _, tier := range AllTiers {
		regions, err := e.extractRegions(tierMask(surface, tier), surface, minRegionPixels, 2*maxPerTier)
		if err != nil {
			return nil, err
		}

		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Risk.Mean > regions[j].Risk.Mean
		})
		if len(regions) > maxPerTier {
			regions = regions[:maxPerTier]
		}
		for i := range regions {
			regions[i].Tier = tier
		}
		if regions == nil {
			regions = []Region{}
		}
		out.Tiers[tier] = regions
	}
	return out, nil
}

// Statistics summarizes the risk surface for a scenario: severity
// histogram, NaN-aware aggregate scores, and the depression and
// drainage network shares. Percentages are taken over valid cells only.
func (e *Engine) Statistics(scenario *Scenario) (*Statistics, error) {
	if err := validateOverride(scenario); err != nil {
		return nil, err
	}

	surface, s := e.riskSurface(scenario)
	params := e.Parameters()

	stats := &Statistics{Scenario: s.resolved()}

	rows, cols := surface.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := surface.At(r, c)
			if math.IsNaN(v) {
				continue
			}
			stats.Counts[ClassifySeverity(v)]++
			stats.TotalPixels++
		}
	}

	pixelSizeX, _ := e.grid.PixelSize()
	stats.AreaKM2 = float64(stats.TotalPixels) * pixelSizeX * pixelSizeX / 1e6

	surfaceStats := geogrid.SummarizeRaster(surface)
	stats.MeanRisk = surfaceStats.Mean
	stats.MaxRisk = surfaceStats.Max
	stats.StdRisk = surfaceStats.Std

	for _, row := range e.factors.depressions {
		for _, flagged := range row {
			if flagged {
				stats.DepressionPixels++
			}
		}
	}
	for _, row := range e.grid.DrainageNetworkMask(params.FlowAccumThreshold) {
		for _, flagged := range row {
			if flagged {
				stats.DrainagePixels++
			}
		}
	}

	if stats.TotalPixels > 0 {
		total := float64(stats.TotalPixels)
		for level, count := range stats.Counts {
			stats.Percentages[level] = float64(count) / total * 100
		}
		stats.DepressionPercentage = float64(stats.DepressionPixels) / total * 100
		stats.DrainagePercentage = float64(stats.DrainagePixels) / total * 100
	}
	return stats, nil
}
