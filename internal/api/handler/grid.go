package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/pondwatch/pondwatch/internal/api/models"
	"github.com/pondwatch/pondwatch/internal/api/response"
	"github.com/pondwatch/pondwatch/internal/geogrid"
	"github.com/pondwatch/pondwatch/internal/risk"
)

// GridHandler handles terrain grid endpoints. These serve as soon as
// the rasters are loaded, so terrain can be inspected while risk factor
// preprocessing is still running.
type GridHandler struct {
	loader *risk.Loader
}

// NewGridHandler creates a new GridHandler.
func NewGridHandler(loader *risk.Loader) *GridHandler {
	return &GridHandler{loader: loader}
}

// GetMetadata handles GET /v1/grid/metadata - describe the loaded grid.
func (h *GridHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	grid, err := h.loader.Grid()
	if err != nil {
		response.ServiceUnavailable(w, r, "terrain grid not loaded")
		return
	}
	response.JSON(w, r, http.StatusOK, toGridMetadata(grid.Metadata()))
}

// GetPoint handles GET /v1/grid/point - sample the terrain rasters at a
// coordinate. The depression flag appears once factor preprocessing has
// finished.
func (h *GridHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	var errs []models.FieldError
	lat, ferr := queryCoordinate(r, "lat", 90)
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	lon, ferr := queryCoordinate(r, "lon", 180)
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid coordinates", errs)
		return
	}

	grid, err := h.loader.Grid()
	if err != nil {
		response.ServiceUnavailable(w, r, "terrain grid not loaded")
		return
	}

	elevation, err := grid.ElevationAt(lat, lon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	flowAccum, err := grid.FlowAccumulationAt(lat, lon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	sample := models.GridPointSample{
		Location:         models.Point{Lat: lat, Lon: lon},
		ElevationM:       round2(elevation),
		FlowAccumulation: round2(flowAccum),
	}
	if engine, err := h.loader.Engine(); err == nil {
		if isDepression, err := engine.DepressionAt(lat, lon); err == nil {
			sample.IsDepression = &isDepression
		}
	}
	response.JSON(w, r, http.StatusOK, sample)
}

func toGridMetadata(md geogrid.Metadata) models.GridMetadata {
	out := models.GridMetadata{
		Rows:             md.Rows,
		Cols:             md.Cols,
		PixelSizeX:       md.PixelSizeX,
		PixelSizeY:       md.PixelSizeY,
		CRS:              md.CoordinateSystem,
		BoundsProjected:  md.Bounds,
		Elevation:        toRasterSummary(md.ElevationStats),
		FlowAccumulation: toRasterSummary(md.FlowAccumStats),
	}
	if md.BoundsLatLon != nil {
		out.BoundsWGS84 = &models.GeoBox{
			MinLat: md.BoundsLatLon.South,
			MinLon: md.BoundsLatLon.West,
			MaxLat: md.BoundsLatLon.North,
			MaxLon: md.BoundsLatLon.East,
		}
	}
	return out
}

func toRasterSummary(s geogrid.RasterStats) models.RasterSummary {
	return models.RasterSummary{
		Min:  round2(s.Min),
		Max:  round2(s.Max),
		Mean: round2(s.Mean),
		Std:  round2(s.Std),
	}
}

// queryCoordinate parses a required coordinate query parameter, checking
// it against the symmetric bound for its axis.
func queryCoordinate(r *http.Request, name string, bound float64) (float64, *models.FieldError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, &models.FieldError{Field: name, Message: "is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &models.FieldError{Field: name, Message: "must be a number"}
	}
	if v < -bound || v > bound {
		return 0, &models.FieldError{
			Field:   name,
			Message: fmt.Sprintf("must be between %g and %g", -bound, bound),
		}
	}
	return v, nil
}
