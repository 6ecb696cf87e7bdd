package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

// depressionKernelRadius is the half-width of the neighborhood window
// used for depression detection (a 5x5 footprint).
const depressionKernelRadius = 2

// staticFactors holds the rainfall-independent per-pixel risk inputs.
// They depend only on the terrain and are computed once per grid.
type staticFactors struct {
	elevationRisk *mat.Dense
	flowRisk      *mat.Dense
	depressions   [][]bool
}

func computeStaticFactors(elevation, flowAccum *mat.Dense) *staticFactors {
	return &staticFactors{
		elevationRisk: elevationRiskSurface(elevation),
		flowRisk:      flowRiskSurface(flowAccum),
		depressions:   depressionMask(elevation),
	}
}

// normalizeMinMax rescales valid cells to [0, 1]. NaN cells stay NaN,
// and a constant raster normalizes to the neutral value 0.5.
func normalizeMinMax(m *mat.Dense) *mat.Dense {
	stats := geogrid.SummarizeRaster(m)
	span := stats.Max - stats.Min

	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			switch {
			case math.IsNaN(v):
				out.Set(r, c, math.NaN())
			case span == 0:
				out.Set(r, c, 0.5)
			default:
				out.Set(r, c, (v-stats.Min)/span)
			}
		}
	}
	return out
}

// elevationRiskSurface inverts normalized elevation so low ground
// scores high.
func elevationRiskSurface(elevation *mat.Dense) *mat.Dense {
	out := normalizeMinMax(elevation)
	rows, cols := out.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := out.At(r, c)
			if !math.IsNaN(v) {
				out.Set(r, c, 1-v)
			}
		}
	}
	return out
}

// flowRiskSurface normalizes log-compressed flow accumulation. The
// log(1+x) transform keeps zero-flow cells finite while flattening the
// exponential spread of accumulation counts.
func flowRiskSurface(flowAccum *mat.Dense) *mat.Dense {
	rows, cols := flowAccum.Dims()
	logged := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			logged.Set(r, c, math.Log1p(flowAccum.At(r, c)))
		}
	}
	return normalizeMinMax(logged)
}

// depressionMask flags cells sitting significantly below their
// neighborhood: the mean of the surrounding 5x5 window (center cell and
// no-data cells excluded, window clipped at the grid edge) must exceed
// the cell's own elevation by more than half the standard deviation of
// that difference surface. Cells with no data, or with an empty
// neighborhood, are never flagged.
func depressionMask(elevation *mat.Dense) [][]bool {
	rows, cols := elevation.Dims()
	diff := mat.NewDense(rows, cols, nil)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			center := elevation.At(r, c)
			if math.IsNaN(center) {
				diff.Set(r, c, math.NaN())
				continue
			}

			var sum float64
			var n int
			for dr := -depressionKernelRadius; dr <= depressionKernelRadius; dr++ {
				for dc := -depressionKernelRadius; dc <= depressionKernelRadius; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					v := elevation.At(rr, cc)
					if math.IsNaN(v) {
						continue
					}
					sum += v
					n++
				}
			}
			if n == 0 {
				diff.Set(r, c, math.NaN())
				continue
			}
			diff.Set(r, c, sum/float64(n)-center)
		}
	}

	threshold := 0.5 * geogrid.SummarizeRaster(diff).Std

	mask := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			d := diff.At(r, c)
			mask[r][c] = !math.IsNaN(d) && d > threshold
		}
	}
	return mask
}
