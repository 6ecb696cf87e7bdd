package geogrid_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

// rampRaster builds a raster with value base + row + 0.5*col. The field
// is linear in both axes, so bilinear sampling reproduces it exactly.
func rampRaster(rows, cols int, base float64) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Set(r, c, base+float64(r)+0.5*float64(c))
		}
	}
	return m
}

func writeRaster(t *testing.T, path string, m *mat.Dense) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, npyio.Write(f, m))
}

// defaultGeoref describes a 10x10 grid of 5 m pixels in UTM zone 15N
// with its top-left corner at (272497, 3297503), near Houston.
func defaultGeoref() map[string]any {
	return map[string]any{
		"crs":          "EPSG:26915",
		"transform":    []float64{5, 0, 272497, 0, -5, 3297503},
		"bounds":       []float64{272497, 3297453, 272547, 3297503},
		"width":        10,
		"height":       10,
		"nodata":       -9999.0,
		"pixel_size_x": 5.0,
		"pixel_size_y": 5.0,
	}
}

func writeGeoref(t *testing.T, dir string, georef map[string]any) {
	t.Helper()
	raw, err := json.Marshal(georef)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, geogrid.GeorefFile), raw, 0o644))
}

func writeTestData(t *testing.T, dir string) {
	t.Helper()
	writeRaster(t, filepath.Join(dir, geogrid.ElevationFile), rampRaster(10, 10, 10))
	writeRaster(t, filepath.Join(dir, geogrid.FlowAccumFile), rampRaster(10, 10, 100))
	writeGeoref(t, dir, defaultGeoref())
}

func mustLoad(t *testing.T, dir string) *geogrid.Grid {
	t.Helper()
	g, err := geogrid.Load(geogrid.Config{DataDir: dir, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return g
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)

	g := mustLoad(t, dir)

	rows, cols := g.Shape()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 10, cols)
	assert.Equal(t, "EPSG:26915", g.CRS())

	px, py := g.PixelSize()
	assert.Equal(t, 5.0, px)
	assert.Equal(t, 5.0, py)

	assert.Equal(t, 10.0, g.Elevation().At(0, 0))
	assert.Equal(t, 100.0, g.FlowAccumulation().At(0, 0))
}

func TestLoadMissingData(t *testing.T) {
	_, err := geogrid.Load(geogrid.Config{DataDir: t.TempDir(), Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, geogrid.ErrDataUnavailable)
}

func TestLoadMissingRaster(t *testing.T) {
	dir := t.TempDir()
	writeGeoref(t, dir, defaultGeoref())
	writeRaster(t, filepath.Join(dir, geogrid.ElevationFile), rampRaster(10, 10, 10))

	_, err := geogrid.Load(geogrid.Config{DataDir: dir, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, geogrid.ErrDataUnavailable)
	assert.Contains(t, err.Error(), geogrid.FlowAccumFile)
}

func TestLoadShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	writeRaster(t, filepath.Join(dir, geogrid.FlowAccumFile), rampRaster(5, 5, 100))

	_, err := geogrid.Load(geogrid.Config{DataDir: dir, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.ErrorIs(t, err, geogrid.ErrDataUnavailable)
}

func TestLoadReplacesNoData(t *testing.T) {
	dir := t.TempDir()
	elevation := rampRaster(10, 10, 10)
	elevation.Set(2, 3, -9999)
	writeRaster(t, filepath.Join(dir, geogrid.ElevationFile), elevation)
	writeRaster(t, filepath.Join(dir, geogrid.FlowAccumFile), rampRaster(10, 10, 100))
	writeGeoref(t, dir, defaultGeoref())

	g := mustLoad(t, dir)

	assert.True(t, math.IsNaN(g.Elevation().At(2, 3)))
	assert.False(t, math.IsNaN(g.Elevation().At(2, 4)))
}

func TestSampleBilinear(t *testing.T) {
	m := rampRaster(10, 10, 10)

	tests := []struct {
		name string
		row  float64
		col  float64
		want float64
		ok   bool
	}{
		{"exact cell", 5, 5, 17.5, true},
		{"row midpoint", 5.5, 5, 18, true},
		{"col midpoint", 5, 5.5, 17.75, true},
		{"both fractional", 2.25, 3.75, 14.125, true},
		{"negative row", -0.5, 5, 0, false},
		{"negative col", 5, -0.5, 0, false},
		{"row at last interpolable edge", 9, 5, 0, false},
		{"col beyond grid", 5, 15, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := geogrid.SampleBilinear(m, tt.row, tt.col)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestSampleBilinearNoData(t *testing.T) {
	m := rampRaster(10, 10, 10)
	m.Set(5, 5, math.NaN())

	// Any sample whose 2x2 neighborhood touches the missing cell is
	// unavailable, including the cell itself.
	for _, pos := range [][2]float64{{5, 5}, {4.5, 4.5}, {4, 4}, {5, 4.5}} {
		_, ok := geogrid.SampleBilinear(m, pos[0], pos[1])
		assert.False(t, ok, "sample at (%g, %g)", pos[0], pos[1])
	}

	// Neighborhoods clear of the missing cell still sample.
	v, ok := geogrid.SampleBilinear(m, 3, 3)
	require.True(t, ok)
	assert.InDelta(t, 14.5, v, 1e-9)
}

func TestElevationAt(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	g := mustLoad(t, dir)

	lat, lon, err := g.PixelToLatLon(5, 5)
	require.NoError(t, err)

	v, err := g.ElevationAt(lat, lon)
	require.NoError(t, err)
	assert.InDelta(t, 17.5, v, 1e-6)
}

func TestFlowAccumulationAt(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	g := mustLoad(t, dir)

	lat, lon, err := g.PixelToLatLon(3, 7)
	require.NoError(t, err)

	v, err := g.FlowAccumulationAt(lat, lon)
	require.NoError(t, err)
	assert.InDelta(t, 106.5, v, 1e-6)
}

func TestElevationAtOutOfBounds(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	g := mustLoad(t, dir)

	_, err := g.ElevationAt(52.37, 4.89)
	assert.ErrorIs(t, err, geogrid.ErrOutOfBounds)
}

func TestElevationAtNoData(t *testing.T) {
	dir := t.TempDir()
	elevation := rampRaster(10, 10, 10)
	for r := 4; r <= 6; r++ {
		for c := 4; c <= 6; c++ {
			elevation.Set(r, c, -9999)
		}
	}
	writeRaster(t, filepath.Join(dir, geogrid.ElevationFile), elevation)
	writeRaster(t, filepath.Join(dir, geogrid.FlowAccumFile), rampRaster(10, 10, 100))
	writeGeoref(t, dir, defaultGeoref())
	g := mustLoad(t, dir)

	lat, lon, err := g.PixelToLatLon(5, 5)
	require.NoError(t, err)

	_, err = g.ElevationAt(lat, lon)
	assert.ErrorIs(t, err, geogrid.ErrSampleUnavailable)
}

func TestUnsupportedCRS(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	georef := defaultGeoref()
	georef["crs"] = "EPSG:4326"
	writeGeoref(t, dir, georef)

	g := mustLoad(t, dir)

	_, err := g.ElevationAt(29.8, -95.35)
	assert.ErrorIs(t, err, geogrid.ErrTransformUnavailable)

	_, err = g.BoundsLatLon()
	assert.ErrorIs(t, err, geogrid.ErrTransformUnavailable)

	assert.False(t, g.Contains(29.8, -95.35))

	// Pixel and projected queries stay usable.
	x, y := g.PixelToProjected(0, 0)
	assert.InDelta(t, 272499.5, x, 1e-9)
	assert.InDelta(t, 3297500.5, y, 1e-9)
}

func TestDrainageNetworkMask(t *testing.T) {
	dir := t.TempDir()
	flow := rampRaster(10, 10, 100)
	flow.Set(9, 9, -9999)
	writeRaster(t, filepath.Join(dir, geogrid.ElevationFile), rampRaster(10, 10, 10))
	writeRaster(t, filepath.Join(dir, geogrid.FlowAccumFile), flow)
	writeGeoref(t, dir, defaultGeoref())
	g := mustLoad(t, dir)

	mask := g.DrainageNetworkMask(105)

	require.Len(t, mask, 10)
	assert.False(t, mask[0][0])  // 100
	assert.False(t, mask[4][1])  // 104.5
	assert.True(t, mask[5][0])   // 105
	assert.True(t, mask[9][0])   // 109
	assert.False(t, mask[9][9])  // no data
}

func TestSummarizeRaster(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, math.NaN(), 6})

	stats := geogrid.SummarizeRaster(m)

	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 6.0, stats.Max)
	assert.InDelta(t, 3.2, stats.Mean, 1e-9)
	assert.InDelta(t, 1.72046505340853, stats.Std, 1e-9)
}

func TestSummarizeRasterAllNoData(t *testing.T) {
	nan := math.NaN()
	m := mat.NewDense(2, 2, []float64{nan, nan, nan, nan})

	stats := geogrid.SummarizeRaster(m)

	assert.True(t, math.IsNaN(stats.Min))
	assert.True(t, math.IsNaN(stats.Max))
	assert.True(t, math.IsNaN(stats.Mean))
	assert.True(t, math.IsNaN(stats.Std))
}

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	g := mustLoad(t, dir)

	md := g.Metadata()

	assert.Equal(t, 10, md.Rows)
	assert.Equal(t, 10, md.Cols)
	assert.Equal(t, 5.0, md.PixelSizeX)
	assert.Equal(t, 5.0, md.PixelSizeY)
	assert.Equal(t, "EPSG:26915", md.CoordinateSystem)
	assert.Equal(t, []float64{272497, 3297453, 272547, 3297503}, md.Bounds)

	require.NotNil(t, md.BoundsLatLon)
	assert.Greater(t, md.BoundsLatLon.North, md.BoundsLatLon.South)
	assert.Greater(t, md.BoundsLatLon.East, md.BoundsLatLon.West)

	// Ramp rasters: min at (0,0), max at (9,9).
	assert.InDelta(t, 10.0, md.ElevationStats.Min, 1e-9)
	assert.InDelta(t, 23.5, md.ElevationStats.Max, 1e-9)
	assert.InDelta(t, 100.0, md.FlowAccumStats.Min, 1e-9)
	assert.InDelta(t, 113.5, md.FlowAccumStats.Max, 1e-9)
}
