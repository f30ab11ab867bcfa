package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Grid holds the fixed quadrature node set for a given truncation degree:
// n+1 Gauss-Legendre colatitude nodes (ordered north to south) crossed with
// 2n equally spaced longitude nodes. Immutable once built.
type Grid struct {
	N    int       // truncation degree
	Nlat int       // n+1
	Nlon int       // 2n
	X    []float64 // cos(colatitude) at the Gauss-Legendre abscissae, descending (north first)
	W    []float64 // quadrature weights, sum to 2
	Th   []float64 // colatitudes [rad]
	Lon  []float64 // longitudes [rad], [0,2pi)
}

// New builds the native Gauss-Legendre grid for truncation degree n.
func New(n int) (*Grid, error) {
	if n < 1 {
		return nil, fmt.Errorf("grid.New: truncation degree must be >= 1, got %d", n)
	}
	nlat, nlon := n+1, 2*n
	x, w := make([]float64, nlat), make([]float64, nlat)
	quad.Legendre{}.FixedLocations(x, w, -1., 1.) // descending in x: north pole first
	th := make([]float64, nlat)
	for i, xi := range x {
		th[i] = math.Acos(xi)
	}
	lon := make([]float64, nlon)
	for j := range lon {
		lon[j] = 2. * math.Pi * float64(j) / float64(nlon)
	}
	return &Grid{N: n, Nlat: nlat, Nlon: nlon, X: x, W: w, Th: th, Lon: lon}, nil
}

// Uniform builds an equal-angle companion grid (cell-centred), used for
// high-resolution masks that are later sampled back to the native grid.
// It carries area weights sin(th)*dth so indicator integrals remain meaningful.
func Uniform(nlat, nlon int) (*Grid, error) {
	if nlat < 2 || nlon < 2 {
		return nil, fmt.Errorf("grid.Uniform: need at least 2x2 nodes, got %dx%d", nlat, nlon)
	}
	dth := math.Pi / float64(nlat)
	x, w, th := make([]float64, nlat), make([]float64, nlat), make([]float64, nlat)
	for i := range th {
		th[i] = (float64(i) + .5) * dth
		x[i] = math.Cos(th[i])
		w[i] = math.Sin(th[i]) * dth
	}
	lon := make([]float64, nlon)
	for j := range lon {
		lon[j] = 2. * math.Pi * float64(j) / float64(nlon)
	}
	return &Grid{N: nlat - 1, Nlat: nlat, Nlon: nlon, X: x, W: w, Th: th, Lon: lon}, nil
}

// NewField allocates a zeroed spatial field on the grid.
func (g *Grid) NewField() [][]float64 {
	f := make([][]float64, g.Nlat)
	for i := range f {
		f[i] = make([]float64, g.Nlon)
	}
	return f
}

// CopyField returns a deep copy of f.
func (g *Grid) CopyField(f [][]float64) [][]float64 {
	o := make([][]float64, g.Nlat)
	for i := range o {
		o[i] = make([]float64, g.Nlon)
		copy(o[i], f[i])
	}
	return o
}
