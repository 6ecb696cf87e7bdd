package geogrid_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

func TestLoadRejectsBadGeoref(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(georef map[string]any)
	}{
		{
			"short transform",
			func(g map[string]any) { g["transform"] = []float64{5, 0, 272497} },
		},
		{
			"singular transform",
			func(g map[string]any) { g["transform"] = []float64{1, 2, 0, 2, 4, 0} },
		},
		{
			"zero width",
			func(g map[string]any) { g["width"] = 0 },
		},
		{
			"negative pixel size",
			func(g map[string]any) { g["pixel_size_y"] = -5.0 },
		},
		{
			"short bounds",
			func(g map[string]any) { g["bounds"] = []float64{272497, 3297453} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTestData(t, dir)
			georef := defaultGeoref()
			tt.mutate(georef)
			writeGeoref(t, dir, georef)

			_, err := geogrid.Load(geogrid.Config{DataDir: dir, Logger: zerolog.Nop()})
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedGeorefJSON(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	path := filepath.Join(dir, geogrid.GeorefFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := geogrid.Load(geogrid.Config{DataDir: dir, Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse georeference")
}

func TestLoadAllowsNullNoData(t *testing.T) {
	dir := t.TempDir()
	writeTestData(t, dir)
	georef := defaultGeoref()
	georef["nodata"] = nil
	writeGeoref(t, dir, georef)

	g := mustLoad(t, dir)

	v, err := g.ElevationAt(mustCenterLatLon(t, g))
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}

// mustCenterLatLon returns the geographic position of the grid's
// central cell.
func mustCenterLatLon(t *testing.T, g *geogrid.Grid) (float64, float64) {
	t.Helper()
	rows, cols := g.Shape()
	lat, lon, err := g.PixelToLatLon(float64(rows/2), float64(cols/2))
	require.NoError(t, err)
	return lat, lon
}
