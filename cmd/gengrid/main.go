// Command gengrid writes a synthetic terrain fixture for local
// development: an elevation raster with two carved depressions, a flow
// accumulation raster concentrated in those depressions, and the
// matching georeference sidecar.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/pondwatch/pondwatch/internal/geogrid"
)

const (
	pixelSize = 5.0
	originX   = 272497.0
	originY   = 3297503.0
	noData    = -9999.0
)

func main() {
	size := flag.Int("size", 100, "grid size in pixels per side (min 10)")
	seed := flag.Int64("seed", 42, "random seed")
	out := flag.String("out", "data", "output directory")
	flag.Parse()

	if *size < 10 {
		fmt.Fprintln(os.Stderr, "gengrid: size must be at least 10")
		os.Exit(1)
	}

	if err := run(*size, *seed, *out); err != nil {
		fmt.Fprintln(os.Stderr, "gengrid:", err)
		os.Exit(1)
	}
}

func run(size int, seed int64, out string) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	elevation := genElevation(rng, size)
	flow := genFlow(rng, size)

	if err := writeRaster(filepath.Join(out, geogrid.ElevationFile), elevation); err != nil {
		return err
	}
	if err := writeRaster(filepath.Join(out, geogrid.FlowAccumFile), flow); err != nil {
		return err
	}
	if err := writeGeoref(filepath.Join(out, geogrid.GeorefFile), size); err != nil {
		return err
	}

	fmt.Printf("wrote %dx%d fixture to %s (elevation %.2f m to %.2f m)\n",
		size, size, out, mat.Min(elevation), mat.Max(elevation))
	return nil
}

// genElevation draws a gently varying surface around 15 m and carves two
// depressions so the derived risk factors have structure to find.
func genElevation(rng *rand.Rand, size int) *mat.Dense {
	m := mat.NewDense(size, size, nil)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			m.Set(r, c, 15+2*rng.NormFloat64())
		}
	}
	applyWindow(m, size, 2, 3, func(v float64) float64 { return v - 5 })
	applyWindow(m, size, 7, 8, func(v float64) float64 { return v - 3 })
	return m
}

// genFlow draws exponentially distributed flow accumulation (mean 100
// cells) and boosts it inside the depressions where water collects.
func genFlow(rng *rand.Rand, size int) *mat.Dense {
	m := mat.NewDense(size, size, nil)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			m.Set(r, c, math.Floor(100*rng.ExpFloat64()))
		}
	}
	applyWindow(m, size, 2, 3, func(v float64) float64 { return v * 10 })
	applyWindow(m, size, 7, 8, func(v float64) float64 { return v * 5 })
	return m
}

// applyWindow rewrites the square window spanning rows and columns
// [size*lo/10, size*hi/10) in place.
func applyWindow(m *mat.Dense, size, lo, hi int, f func(float64) float64) {
	for r := size * lo / 10; r < size*hi/10; r++ {
		for c := size * lo / 10; c < size*hi/10; c++ {
			m.Set(r, c, f(m.At(r, c)))
		}
	}
}

func writeRaster(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, m); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeGeoref(path string, size int) error {
	nd := noData
	extent := pixelSize * float64(size)
	g := geogrid.Georef{
		CRS:        "EPSG:26915",
		Transform:  []float64{pixelSize, 0, originX, 0, -pixelSize, originY},
		Bounds:     []float64{originX, originY - extent, originX + extent, originY},
		Width:      size,
		Height:     size,
		NoData:     &nd,
		PixelSizeX: pixelSize,
		PixelSizeY: pixelSize,
	}

	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
