package models

// RasterSummary describes the value distribution of one raster layer.
type RasterSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// GridMetadata describes the loaded terrain grid.
type GridMetadata struct {
	Rows             int           `json:"rows"`
	Cols             int           `json:"cols"`
	PixelSizeX       float64       `json:"pixel_size_x"`
	PixelSizeY       float64       `json:"pixel_size_y"`
	CRS              string        `json:"crs"`
	BoundsProjected  []float64     `json:"bounds_projected"`
	BoundsWGS84      *GeoBox       `json:"bounds_wgs84,omitempty"`
	Elevation        RasterSummary `json:"elevation"`
	FlowAccumulation RasterSummary `json:"flow_accumulation"`
}

// GridPointSample is the terrain reading at a single coordinate.
// IsDepression is omitted until factor preprocessing has finished.
type GridPointSample struct {
	Location         Point   `json:"location"`
	ElevationM       float64 `json:"elevation_m"`
	FlowAccumulation float64 `json:"flow_accumulation"`
	IsDepression     *bool   `json:"is_depression,omitempty"`
}
