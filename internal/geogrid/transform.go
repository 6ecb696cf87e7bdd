package geogrid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/im7mortal/UTM"
)

// utmZone identifies the UTM zone a grid is projected in.
type utmZone struct {
	Number   int
	Northern bool
}

// parseUTMCRS extracts the UTM zone from an EPSG identifier. It
// recognizes the WGS84 (326xx/327xx), NAD83 (269xx) and ETRS89 (258xx)
// projected code ranges; anything else reports false and disables
// lat/lon queries for the grid.
func parseUTMCRS(crs string) (utmZone, bool) {
	s := strings.TrimSpace(strings.ToUpper(crs))
	if !strings.HasPrefix(s, "EPSG:") {
		return utmZone{}, false
	}
	code, err := strconv.Atoi(strings.TrimPrefix(s, "EPSG:"))
	if err != nil {
		return utmZone{}, false
	}

	switch {
	case code >= 32601 && code <= 32660:
		return utmZone{Number: code - 32600, Northern: true}, true
	case code >= 32701 && code <= 32760:
		return utmZone{Number: code - 32700, Northern: false}, true
	case code >= 26901 && code <= 26923:
		return utmZone{Number: code - 26900, Northern: true}, true
	case code >= 25828 && code <= 25838:
		return utmZone{Number: code - 25800, Northern: true}, true
	}
	return utmZone{}, false
}

// LatLonBounds is the geographic extent of a grid.
type LatLonBounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// PixelToProjected converts fractional pixel indices to projected
// coordinates at the pixel center. Row and column may be fractional;
// integer values address cell centers.
func (g *Grid) PixelToProjected(row, col float64) (x, y float64) {
	return g.forward.Apply(col+0.5, row+0.5)
}

// ProjectedToPixel converts projected coordinates to fractional pixel
// indices. It is the exact inverse of PixelToProjected: a projected
// point at a cell center maps back to integer row and column.
func (g *Grid) ProjectedToPixel(x, y float64) (row, col float64) {
	cf, rf := g.inverse.Apply(x, y)
	return rf - 0.5, cf - 0.5
}

// LatLonToPixel converts a geographic point to fractional pixel indices.
// Points that project into a different UTM zone than the grid's are
// reported as out of bounds.
func (g *Grid) LatLonToPixel(lat, lon float64) (row, col float64, err error) {
	if !g.hasZone {
		return 0, 0, ErrTransformUnavailable
	}

	easting, northing, zone, _, err := UTM.FromLatLon(lat, lon, g.zone.Northern)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrOutOfBounds, err)
	}
	if zone != g.zone.Number {
		return 0, 0, ErrOutOfBounds
	}

	row, col = g.ProjectedToPixel(easting, northing)
	return row, col, nil
}

// PixelToLatLon converts fractional pixel indices to a geographic point
// at the pixel center.
func (g *Grid) PixelToLatLon(row, col float64) (lat, lon float64, err error) {
	if !g.hasZone {
		return 0, 0, ErrTransformUnavailable
	}

	x, y := g.PixelToProjected(row, col)
	lat, lon, err = UTM.ToLatLon(x, y, g.zone.Number, "", g.zone.Northern)
	if err != nil {
		return 0, 0, fmt.Errorf("pixel (%g, %g) outside projectable range: %w", row, col, err)
	}
	return lat, lon, nil
}

// BoundsLatLon returns the grid's geographic extent. It fails with
// ErrTransformUnavailable when the CRS is unsupported.
func (g *Grid) BoundsLatLon() (LatLonBounds, error) {
	if g.bounds == nil {
		return LatLonBounds{}, ErrTransformUnavailable
	}
	return *g.bounds, nil
}

// Contains reports whether a geographic point falls inside the grid's
// extent. It reports false when no coordinate transform is available.
func (g *Grid) Contains(lat, lon float64) bool {
	if g.bounds == nil {
		return false
	}
	return lat >= g.bounds.South && lat <= g.bounds.North &&
		lon >= g.bounds.West && lon <= g.bounds.East
}

// boundsLatLon converts the projected bounds corners to a geographic
// envelope. All four corners are transformed because a projected
// rectangle is not axis-aligned in lat/lon.
func boundsLatLon(bounds []float64, zone utmZone) (*LatLonBounds, error) {
	corners := [4][2]float64{
		{bounds[0], bounds[1]},
		{bounds[0], bounds[3]},
		{bounds[2], bounds[1]},
		{bounds[2], bounds[3]},
	}

	var out *LatLonBounds
	for _, c := range corners {
		lat, lon, err := UTM.ToLatLon(c[0], c[1], zone.Number, "", zone.Northern)
		if err != nil {
			return nil, fmt.Errorf("bounds corner (%g, %g): %w", c[0], c[1], err)
		}
		if out == nil {
			out = &LatLonBounds{North: lat, South: lat, East: lon, West: lon}
			continue
		}
		out.North = max(out.North, lat)
		out.South = min(out.South, lat)
		out.East = max(out.East, lon)
		out.West = min(out.West, lon)
	}
	return out, nil
}
