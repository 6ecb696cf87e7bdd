package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// minRegionPixels is the smallest component worth reporting; anything
// smaller is noise at raster resolution.
const minRegionPixels = 5

// Tier identifies one of the four severity bands used for region
// reporting.
type Tier string

const (
	TierVeryHigh Tier = "very_high"
	TierHigh     Tier = "high"
	TierModerate Tier = "moderate"
	TierLow      Tier = "low"
)

// AllTiers lists the reporting tiers from most to least severe.
var AllTiers = []Tier{TierVeryHigh, TierHigh, TierModerate, TierLow}

// RiskStats summarizes composite scores over a region.
type RiskStats struct {
	Mean float64
	Max  float64
	Min  float64
}

// ElevationStats summarizes terrain height over a region.
type ElevationStats struct {
	Mean float64
	Min  float64
	Max  float64
}

// Region is one contiguous cluster of cells extracted from a risk
// surface. Label numbers components within a single extraction and is
// unique per query, not globally.
type Region struct {
	Label      int
	Tier       Tier
	PixelCount int
	AreaM2     float64
	Centroid   LatLon
	Risk       RiskStats
	Elevation  ElevationStats
}

// tierMask selects the cells whose score falls inside the tier's band.
// The very_high band is closed above so a saturated score of 1.0 is
// kept. Cells with no data fall in no band.
func tierMask(riskGrid *mat.Dense, tier Tier) [][]bool {
	var lo, hi float64
	switch tier {
	case TierVeryHigh:
		lo, hi = severityVeryHighMin, math.Inf(1)
	case TierHigh:
		lo, hi = severityHighMin, severityVeryHighMin
	case TierModerate:
		lo, hi = severityModerateMin, severityHighMin
	case TierLow:
		lo, hi = severityLowMin, severityModerateMin
	}

	rows, cols := riskGrid.Dims()
	mask := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			v := riskGrid.At(r, c)
			mask[r][c] = v >= lo && v < hi
		}
	}
	return mask
}

// thresholdMask selects the cells whose score is at least minScore.
func thresholdMask(riskGrid *mat.Dense, minScore float64) [][]bool {
	rows, cols := riskGrid.Dims()
	mask := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			mask[r][c] = riskGrid.At(r, c) >= minScore
		}
	}
	return mask
}

// labelComponents assigns consecutive labels starting at 1 to the
// 4-connected true regions of mask, returning the label grid and the
// component count.
func labelComponents(mask [][]bool) ([][]int, int) {
	rows := len(mask)
	if rows == 0 {
		return nil, 0
	}
	cols := len(mask[0])

	labels := make([][]int, rows)
	for r := range labels {
		labels[r] = make([]int, cols)
	}

	var stack [][2]int
	count := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !mask[r][c] || labels[r][c] != 0 {
				continue
			}
			count++
			labels[r][c] = count
			stack = append(stack[:0], [2]int{r, c})

			for len(stack) > 0 {
				cell := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					rr, cc := cell[0]+d[0], cell[1]+d[1]
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols {
						continue
					}
					if !mask[rr][cc] || labels[rr][cc] != 0 {
						continue
					}
					labels[rr][cc] = count
					stack = append(stack, [2]int{rr, cc})
				}
			}
		}
	}
	return labels, count
}

// regionAccum gathers per-component statistics in a single pass over
// the label grid.
type regionAccum struct {
	label   int
	count   int
	sumRow  float64
	sumCol  float64
	sumRisk float64
	minRisk float64
	maxRisk float64
	sumElev float64
	minElev float64
	maxElev float64
}

// extractRegions labels the mask and summarizes every component of at
// least minSize cells. Regions come back largest first, ties broken by
// label order so extraction is deterministic. When maxCandidates > 0
// only the largest maxCandidates components are summarized.
func (e *Engine) extractRegions(mask [][]bool, riskGrid *mat.Dense, minSize, maxCandidates int) ([]Region, error) {
	labels, n := labelComponents(mask)
	if n == 0 {
		return nil, nil
	}

	accums := make([]regionAccum, n+1)
	elevation := e.grid.Elevation()
	rows, cols := riskGrid.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			label := labels[r][c]
			if label == 0 {
				continue
			}

			a := &accums[label]
			score := riskGrid.At(r, c)
			elev := elevation.At(r, c)
			if a.count == 0 {
				a.label = label
				a.minRisk, a.maxRisk = score, score
				a.minElev, a.maxElev = elev, elev
			}
			a.count++
			a.sumRow += float64(r)
			a.sumCol += float64(c)
			a.sumRisk += score
			a.minRisk = min(a.minRisk, score)
			a.maxRisk = max(a.maxRisk, score)
			a.sumElev += elev
			a.minElev = min(a.minElev, elev)
			a.maxElev = max(a.maxElev, elev)
		}
	}

	kept := make([]regionAccum, 0, n)
	for _, a := range accums[1:] {
		if a.count >= minSize {
			kept = append(kept, a)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].count != kept[j].count {
			return kept[i].count > kept[j].count
		}
		return kept[i].label < kept[j].label
	})
	if maxCandidates > 0 && len(kept) > maxCandidates {
		kept = kept[:maxCandidates]
	}

	pixelSizeX, _ := e.grid.PixelSize()
	regions := make([]Region, 0, len(kept))
	for _, a := range kept {
		centroidRow := a.sumRow / float64(a.count)
		centroidCol := a.sumCol / float64(a.count)
		lat, lon, err := e.grid.PixelToLatLon(centroidRow, centroidCol)
		if err != nil {
			return nil, err
		}

		regions = append(regions, Region{
			Label:      a.label,
			PixelCount: a.count,
			AreaM2:     float64(a.count) * pixelSizeX * pixelSizeX,
			Centroid:   LatLon{Lat: lat, Lon: lon},
			Risk: RiskStats{
				Mean: a.sumRisk / float64(a.count),
				Max:  a.maxRisk,
				Min:  a.minRisk,
			},
			Elevation: ElevationStats{
				Mean: a.sumElev / float64(a.count),
				Min:  a.minElev,
				Max:  a.maxElev,
			},
		})
	}
	return regions, nil
}
