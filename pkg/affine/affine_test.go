package affine

import (
	"math"
	"testing"
)

// utm15n is the transform of a 5m north-up raster anchored in UTM zone 15N.
var utm15n = Transform{A: 5, B: 0, C: 272497, D: 0, E: -5, F: 3297503}

func TestFromSlice(t *testing.T) {
	tr, err := FromSlice([]float64{5, 0, 272497, 0, -5, 3297503})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr != utm15n {
		t.Errorf("expected %+v, got %+v", utm15n, tr)
	}
}

func TestFromSlice_WrongLength(t *testing.T) {
	if _, err := FromSlice([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for 3-element slice")
	}
	if _, err := FromSlice(nil); err == nil {
		t.Error("expected error for nil slice")
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		col, row float64
		x, y     float64
	}{
		{name: "origin", col: 0, row: 0, x: 272497, y: 3297503},
		{name: "one pixel east", col: 1, row: 0, x: 272502, y: 3297503},
		{name: "one pixel south", col: 0, row: 1, x: 272497, y: 3297498},
		{name: "fractional", col: 5.5, row: 5.5, x: 272497 + 5*5.5, y: 3297503 - 5*5.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := utm15n.Apply(tt.col, tt.row)
			if x != tt.x || y != tt.y {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.x, tt.y, x, y)
			}
		})
	}
}

func TestInvert_RoundTrip(t *testing.T) {
	transforms := []Transform{
		utm15n,
		{A: 1, B: 0, C: 0, D: 0, E: 1, F: 0},
		{A: 2.5, B: 0.1, C: -100, D: -0.1, E: 2.5, F: 400},
	}

	for _, tr := range transforms {
		inv, err := tr.Invert()
		if err != nil {
			t.Fatalf("unexpected error inverting %+v: %v", tr, err)
		}

		for _, p := range [][2]float64{{0, 0}, {10, 3}, {7.25, 99.5}} {
			x, y := tr.Apply(p[0], p[1])
			col, row := inv.Apply(x, y)
			if math.Abs(col-p[0]) > 1e-9 || math.Abs(row-p[1]) > 1e-9 {
				t.Errorf("round trip of (%v, %v) through %+v gave (%v, %v)", p[0], p[1], tr, col, row)
			}
		}
	}
}

func TestInvert_Singular(t *testing.T) {
	singular := Transform{A: 1, B: 2, C: 0, D: 2, E: 4, F: 0}
	if _, err := singular.Invert(); err != ErrNotInvertible {
		t.Errorf("expected ErrNotInvertible, got %v", err)
	}
}

func TestDeterminant(t *testing.T) {
	if det := utm15n.Determinant(); det != -25 {
		t.Errorf("expected determinant -25, got %v", det)
	}
}
