// Package geogrid loads the terrain raster pair (elevation and flow
// accumulation) with its georeference sidecar and answers coordinate
// and sampling queries against it.
package geogrid

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/pondwatch/pondwatch/pkg/affine"
)

// Grid errors.
var (
	ErrDataUnavailable      = errors.New("grid data unavailable")
	ErrOutOfBounds          = errors.New("point outside grid bounds")
	ErrSampleUnavailable    = errors.New("no valid sample at location")
	ErrTransformUnavailable = errors.New("coordinate transform unavailable")
)

// Raster file names within the data directory.
const (
	ElevationFile = "Z.npy"
	FlowAccumFile = "ACC.npy"
	GeorefFile    = "georef.json"
)

// Config holds configuration for loading a grid.
type Config struct {
	// DataDir is the directory containing the raster pair and
	// georeference sidecar.
	DataDir string

	// Logger for load diagnostics.
	Logger zerolog.Logger
}

// Grid is an immutable in-memory terrain grid. All methods are safe for
// concurrent use once Load returns.
type Grid struct {
	elevation *mat.Dense
	flowAccum *mat.Dense
	georef    *Georef

	forward affine.Transform
	inverse affine.Transform

	zone    utmZone
	hasZone bool
	bounds  *LatLonBounds

	logger zerolog.Logger
}

// Load reads the raster pair and georeference from cfg.DataDir. Missing
// files fail with ErrDataUnavailable. An unsupported CRS does not fail
// the load; it disables lat/lon queries while pixel and projected
// queries stay usable.
func Load(cfg Config) (*Grid, error) {
	georef, err := loadGeoref(filepath.Join(cfg.DataDir, GeorefFile))
	if err != nil {
		return nil, err
	}

	elevation, err := loadRaster(filepath.Join(cfg.DataDir, ElevationFile))
	if err != nil {
		return nil, err
	}
	flowAccum, err := loadRaster(filepath.Join(cfg.DataDir, FlowAccumFile))
	if err != nil {
		return nil, err
	}

	if err := checkShape(elevation, georef, ElevationFile); err != nil {
		return nil, err
	}
	if err := checkShape(flowAccum, georef, FlowAccumFile); err != nil {
		return nil, err
	}

	if georef.NoData != nil {
		maskNoData(elevation, *georef.NoData)
		maskNoData(flowAccum, *georef.NoData)
	}

	forward := georef.affineTransform()
	inverse, err := forward.Invert()
	if err != nil {
		return nil, fmt.Errorf("invalid georeference: %w", err)
	}

	g := &Grid{
		elevation: elevation,
		flowAccum: flowAccum,
		georef:    georef,
		forward:   forward,
		inverse:   inverse,
		logger:    cfg.Logger,
	}

	zone, ok := parseUTMCRS(georef.CRS)
	if !ok {
		cfg.Logger.Warn().
			Str("crs", georef.CRS).
			Msg("unsupported coordinate system, lat/lon queries disabled")
		return g, nil
	}
	g.zone = zone
	g.hasZone = true

	bounds, err := boundsLatLon(georef.Bounds, zone)
	if err != nil {
		cfg.Logger.Warn().
			Err(err).
			Str("crs", georef.CRS).
			Msg("bounds not projectable, lat/lon queries disabled")
		g.hasZone = false
		return g, nil
	}
	g.bounds = bounds

	cfg.Logger.Info().
		Int("rows", georef.Height).
		Int("cols", georef.Width).
		Str("crs", georef.CRS).
		Float64("pixel_size_x", georef.PixelSizeX).
		Float64("pixel_size_y", georef.PixelSizeY).
		Msg("terrain grid loaded")

	return g, nil
}

// loadRaster reads a 2-D numpy array into a dense matrix. Any numeric
// element type is converted to float64.
func loadRaster(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("raster %s: %w", filepath.Base(path), ErrDataUnavailable)
		}
		return nil, fmt.Errorf("open raster %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("decode raster %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// checkShape verifies a raster matches the georeferenced dimensions.
func checkShape(m *mat.Dense, georef *Georef, name string) error {
	rows, cols := m.Dims()
	if rows != georef.Height || cols != georef.Width {
		return fmt.Errorf("raster %s is %dx%d, georeference says %dx%d: %w",
			name, rows, cols, georef.Height, georef.Width, ErrDataUnavailable)
	}
	return nil
}

// maskNoData replaces the no-data marker with NaN so downstream math
// can treat missing cells uniformly.
func maskNoData(m *mat.Dense, nodata float64) {
	data := m.RawMatrix().Data
	for i, v := range data {
		if v == nodata {
			data[i] = math.NaN()
		}
	}
}

// Shape returns the grid dimensions in pixels.
func (g *Grid) Shape() (rows, cols int) {
	return g.georef.Height, g.georef.Width
}

// Elevation returns the elevation raster in meters. Callers must not
// mutate it.
func (g *Grid) Elevation() *mat.Dense {
	return g.elevation
}

// FlowAccumulation returns the flow accumulation raster in upstream
// cell counts. Callers must not mutate it.
func (g *Grid) FlowAccumulation() *mat.Dense {
	return g.flowAccum
}

// PixelSize returns the pixel dimensions in projected units.
func (g *Grid) PixelSize() (x, y float64) {
	return g.georef.PixelSizeX, g.georef.PixelSizeY
}

// CRS returns the grid's coordinate reference system identifier.
func (g *Grid) CRS() string {
	return g.georef.CRS
}

// ElevationAt samples the elevation in meters at a geographic point.
func (g *Grid) ElevationAt(lat, lon float64) (float64, error) {
	return g.sampleAt(g.elevation, lat, lon)
}

// FlowAccumulationAt samples the flow accumulation at a geographic point.
func (g *Grid) FlowAccumulationAt(lat, lon float64) (float64, error) {
	return g.sampleAt(g.flowAccum, lat, lon)
}

func (g *Grid) sampleAt(m *mat.Dense, lat, lon float64) (float64, error) {
	if !g.hasZone {
		return 0, ErrTransformUnavailable
	}
	if !g.Contains(lat, lon) {
		return 0, ErrOutOfBounds
	}

	row, col, err := g.LatLonToPixel(lat, lon)
	if err != nil {
		return 0, err
	}

	v, ok := SampleBilinear(m, row, col)
	if !ok {
		return 0, ErrSampleUnavailable
	}
	return v, nil
}

// SampleBilinear reads a value at fractional pixel coordinates using
// bilinear interpolation over the four surrounding cell centers. It
// reports false when the location falls outside the interpolable
// interior or any of the four cells holds no data.
func SampleBilinear(m *mat.Dense, row, col float64) (float64, bool) {
	rows, cols := m.Dims()
	if row < 0 || col < 0 || row >= float64(rows-1) || col >= float64(cols-1) {
		return 0, false
	}

	r0, c0 := int(row), int(col)
	dr, dc := row-float64(r0), col-float64(c0)

	v00 := m.At(r0, c0)
	v01 := m.At(r0, c0+1)
	v10 := m.At(r0+1, c0)
	v11 := m.At(r0+1, c0+1)
	if math.IsNaN(v00) || math.IsNaN(v01) || math.IsNaN(v10) || math.IsNaN(v11) {
		return 0, false
	}

	top := v00*(1-dc) + v01*dc
	bottom := v10*(1-dc) + v11*dc
	return top*(1-dr) + bottom*dr, true
}

// DrainageNetworkMask flags cells whose flow accumulation meets or
// exceeds minAccumulation. No-data cells are never flagged.
func (g *Grid) DrainageNetworkMask(minAccumulation float64) [][]bool {
	rows, cols := g.flowAccum.Dims()
	mask := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			v := g.flowAccum.At(r, c)
			mask[r][c] = !math.IsNaN(v) && v >= minAccumulation
		}
	}
	return mask
}

// RasterStats summarizes a raster band ignoring no-data cells.
type RasterStats struct {
	Min  float64
	Max  float64
	Mean float64
	Std  float64
}

// SummarizeRaster computes summary statistics over the valid cells of a
// raster. All fields are NaN when the raster holds no valid cells.
func SummarizeRaster(m *mat.Dense) RasterStats {
	rows, cols := m.Dims()
	minV, maxV := math.Inf(1), math.Inf(-1)
	var sum float64
	var n int

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) {
				continue
			}
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		nan := math.NaN()
		return RasterStats{Min: nan, Max: nan, Mean: nan, Std: nan}
	}

	mean := sum / float64(n)
	var ss float64
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) {
				continue
			}
			d := v - mean
			ss += d * d
		}
	}

	return RasterStats{
		Min:  minV,
		Max:  maxV,
		Mean: mean,
		Std:  math.Sqrt(ss / float64(n)),
	}
}

// Metadata describes a loaded grid.
type Metadata struct {
	Rows             int
	Cols             int
	PixelSizeX       float64
	PixelSizeY       float64
	CoordinateSystem string
	Bounds           []float64
	BoundsLatLon     *LatLonBounds
	ElevationStats   RasterStats
	FlowAccumStats   RasterStats
}

// Metadata returns descriptive information about the grid.
func (g *Grid) Metadata() Metadata {
	bounds := make([]float64, len(g.georef.Bounds))
	copy(bounds, g.georef.Bounds)

	md := Metadata{
		Rows:             g.georef.Height,
		Cols:             g.georef.Width,
		PixelSizeX:       g.georef.PixelSizeX,
		PixelSizeY:       g.georef.PixelSizeY,
		CoordinateSystem: g.georef.CRS,
		Bounds:           bounds,
		ElevationStats:   SummarizeRaster(g.elevation),
		FlowAccumStats:   SummarizeRaster(g.flowAccum),
	}
	if g.bounds != nil {
		b := *g.bounds
		md.BoundsLatLon = &b
	}
	return md
}
