package risk

import (
	"fmt"
	"math"
)

// Parameter bounds enforced by Validate. They bound physically
// plausible inputs, not model capability.
const (
	MaxRainfallMMPerHour   = 200.0
	MinDurationHours       = 0.1
	MaxDurationHours       = 24.0
	MaxDrainageCoefficient = 0.01
	MaxPondingThresholdMM  = 500.0
	MinFlowAccumThreshold  = 1.0
	MaxFlowAccumThreshold  = 100000.0

	weightSumTolerance = 0.001
)

// ValidationError reports a rejected parameter value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Parameters control the risk model. RainfallMMPerHour and
// DurationHours are the default scenario used when a query carries no
// override.
type Parameters struct {
	RainfallMMPerHour float64
	DurationHours     float64

	// DrainageCoefficient is the assumed steady surface removal rate
	// in m/s.
	DrainageCoefficient float64

	// PondingThresholdMM is the net water depth at which an area is
	// considered fully at risk.
	PondingThresholdMM float64

	// FlowAccumThreshold is the upstream cell count above which a cell
	// counts as part of the drainage network.
	FlowAccumThreshold float64

	// The three factor weights must sum to 1.0 within tolerance 0.001.
	ElevationWeight float64
	FlowAccumWeight float64
	RainfallWeight  float64
}

// DefaultParameters returns the standard model configuration: moderate
// rain for one hour over slowly draining ground.
func DefaultParameters() Parameters {
	return Parameters{
		RainfallMMPerHour:   25.0,
		DurationHours:       1.0,
		DrainageCoefficient: 0.000001,
		PondingThresholdMM:  50.0,
		FlowAccumThreshold:  1000,
		ElevationWeight:     0.4,
		FlowAccumWeight:     0.3,
		RainfallWeight:      0.3,
	}
}

// Validate checks every parameter against its bounds. It returns a
// *ValidationError naming the first offending field.
func (p Parameters) Validate() error {
	if p.RainfallMMPerHour < 0 || p.RainfallMMPerHour > MaxRainfallMMPerHour {
		return &ValidationError{
			Field:  "rainfall_mm_per_hour",
			Reason: fmt.Sprintf("must be between 0 and %g", MaxRainfallMMPerHour),
		}
	}
	if p.DurationHours < MinDurationHours || p.DurationHours > MaxDurationHours {
		return &ValidationError{
			Field:  "duration_hours",
			Reason: fmt.Sprintf("must be between %g and %g", MinDurationHours, MaxDurationHours),
		}
	}
	if p.DrainageCoefficient < 0 || p.DrainageCoefficient > MaxDrainageCoefficient {
		return &ValidationError{
			Field:  "drainage_coefficient",
			Reason: fmt.Sprintf("must be between 0 and %g", MaxDrainageCoefficient),
		}
	}
	if p.PondingThresholdMM <= 0 || p.PondingThresholdMM > MaxPondingThresholdMM {
		return &ValidationError{
			Field:  "ponding_threshold_mm",
			Reason: fmt.Sprintf("must be greater than 0 and at most %g", MaxPondingThresholdMM),
		}
	}
	if p.FlowAccumThreshold < MinFlowAccumThreshold || p.FlowAccumThreshold > MaxFlowAccumThreshold {
		return &ValidationError{
			Field:  "high_flow_accum_threshold",
			Reason: fmt.Sprintf("must be between %g and %g", MinFlowAccumThreshold, MaxFlowAccumThreshold),
		}
	}

	for _, w := range []struct {
		name  string
		value float64
	}{
		{"elevation_weight", p.ElevationWeight},
		{"flow_accum_weight", p.FlowAccumWeight},
		{"rainfall_weight", p.RainfallWeight},
	} {
		if w.value < 0 || w.value > 1 {
			return &ValidationError{Field: w.name, Reason: "must be between 0 and 1"}
		}
	}

	sum := p.ElevationWeight + p.FlowAccumWeight + p.RainfallWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return &ValidationError{
			Field:  "weights",
			Reason: fmt.Sprintf("must sum to 1.0, got %g", sum),
		}
	}
	return nil
}

// Scenario overrides rainfall intensity and duration for a single query
// without touching the engine parameters.
type Scenario struct {
	RainfallMMPerHour float64
	DurationHours     float64
}

// Validate checks the override against the same bounds as Parameters.
func (s Scenario) Validate() error {
	if s.RainfallMMPerHour < 0 || s.RainfallMMPerHour > MaxRainfallMMPerHour {
		return &ValidationError{
			Field:  "rainfall_mm_per_hour",
			Reason: fmt.Sprintf("must be between 0 and %g", MaxRainfallMMPerHour),
		}
	}
	if s.DurationHours < MinDurationHours || s.DurationHours > MaxDurationHours {
		return &ValidationError{
			Field:  "duration_hours",
			Reason: fmt.Sprintf("must be between %g and %g", MinDurationHours, MaxDurationHours),
		}
	}
	return nil
}

// ResolvedScenario echoes the scenario a result was computed under.
type ResolvedScenario struct {
	RainfallMMPerHour float64
	DurationHours     float64
	TotalRainfallMM   float64
}

// resolveScenario picks the override when present, the parameter
// defaults otherwise.
func resolveScenario(p Parameters, override *Scenario) Scenario {
	if override != nil {
		return *override
	}
	return Scenario{
		RainfallMMPerHour: p.RainfallMMPerHour,
		DurationHours:     p.DurationHours,
	}
}

// resolved converts a scenario into its response echo.
func (s Scenario) resolved() ResolvedScenario {
	return ResolvedScenario{
		RainfallMMPerHour: s.RainfallMMPerHour,
		DurationHours:     s.DurationHours,
		TotalRainfallMM:   s.RainfallMMPerHour * s.DurationHours,
	}
}
