package geogrid

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pondwatch/pondwatch/pkg/affine"
)

// Georef mirrors the georef.json sidecar written by the preprocessing
// pipeline. It describes how raster pixel indices map onto projected map
// coordinates.
type Georef struct {
	// CRS is the coordinate reference system identifier (e.g. "EPSG:26915").
	CRS string `json:"crs"`

	// Transform holds the six affine parameters in rasterio order
	// [a, b, c, d, e, f].
	Transform []float64 `json:"transform"`

	// Bounds is the projected extent [minx, miny, maxx, maxy].
	Bounds []float64 `json:"bounds"`

	// Width and Height are the raster dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// NoData is the raster value marking missing cells, if any.
	NoData *float64 `json:"nodata"`

	// PixelSizeX and PixelSizeY are the pixel dimensions in projected units.
	PixelSizeX float64 `json:"pixel_size_x"`
	PixelSizeY float64 `json:"pixel_size_y"`
}

// loadGeoref reads and validates a georef.json file.
func loadGeoref(path string) (*Georef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("georeference %s: %w", path, ErrDataUnavailable)
		}
		return nil, fmt.Errorf("read georeference: %w", err)
	}

	var g Georef
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse georeference: %w", err)
	}
	if err := g.validate(); err != nil {
		return nil, fmt.Errorf("invalid georeference: %w", err)
	}
	return &g, nil
}

// validate checks the georeference for internal consistency.
func (g *Georef) validate() error {
	if len(g.Transform) != 6 {
		return fmt.Errorf("transform has %d parameters, want 6", len(g.Transform))
	}
	if len(g.Bounds) != 4 {
		return fmt.Errorf("bounds has %d values, want 4", len(g.Bounds))
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("raster dimensions %dx%d must be positive", g.Width, g.Height)
	}
	if g.PixelSizeX <= 0 || g.PixelSizeY <= 0 {
		return fmt.Errorf("pixel size %gx%g must be positive", g.PixelSizeX, g.PixelSizeY)
	}

	t, err := affine.FromSlice(g.Transform)
	if err != nil {
		return err
	}
	if _, err := t.Invert(); err != nil {
		return err
	}
	return nil
}

// affineTransform returns the parsed forward transform. validate must
// have succeeded before calling.
func (g *Georef) affineTransform() affine.Transform {
	t, _ := affine.FromSlice(g.Transform)
	return t
}
