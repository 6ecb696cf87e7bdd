// Package affine provides the 6-parameter affine transform used to map raster
// pixel indices to projected map coordinates, in the rasterio/GDAL convention:
//
//	x = a*col + b*row + c
//	y = d*col + e*row + f
//
// where (c, f) is the projected position of the upper-left pixel center and
// (a, e) are the pixel sizes along x and y (e is typically negative for
// north-up rasters).
package affine

import "errors"

// ErrNotInvertible is returned when the transform's determinant is zero.
var ErrNotInvertible = errors.New("affine transform is not invertible")

// Transform is a 2-D affine transform over (col, row) pixel coordinates.
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// FromSlice builds a Transform from the [a, b, c, d, e, f] parameter order
// used in georeference files.
func FromSlice(params []float64) (Transform, error) {
	if len(params) != 6 {
		return Transform{}, errors.New("affine transform requires exactly 6 parameters")
	}
	return Transform{
		A: params[0], B: params[1], C: params[2],
		D: params[3], E: params[4], F: params[5],
	}, nil
}

// Slice returns the parameters in [a, b, c, d, e, f] order.
func (t Transform) Slice() []float64 {
	return []float64{t.A, t.B, t.C, t.D, t.E, t.F}
}

// Apply maps a (col, row) pixel coordinate to a projected (x, y) coordinate.
func (t Transform) Apply(col, row float64) (x, y float64) {
	x = t.A*col + t.B*row + t.C
	y = t.D*col + t.E*row + t.F
	return x, y
}

// Determinant returns the determinant of the linear part of the transform.
func (t Transform) Determinant() float64 {
	return t.A*t.E - t.B*t.D
}

// Invert returns the inverse transform, which maps projected (x, y)
// coordinates back to (col, row) pixel coordinates.
func (t Transform) Invert() (Transform, error) {
	det := t.Determinant()
	if det == 0 {
		return Transform{}, ErrNotInvertible
	}

	return Transform{
		A: t.E / det,
		B: -t.B / det,
		C: (t.B*t.F - t.E*t.C) / det,
		D: -t.D / det,
		E: t.A / det,
		F: (t.D*t.C - t.A*t.F) / det,
	}, nil
}
