// Package sht implements the spherical-harmonic analysis and synthesis pair
// on the native Gauss-Legendre grid, with coefficients held in the triangular
// (l,m) packing. The normalization is chosen so the degree-0 coefficient of a
// field is its integral over the unit sphere (an indicator field's degree-0
// term is the area it covers).
package sht

import (
	"math"

	"github.com/bangerth/SLcode/grid"
)

// Transform carries the precomputed Legendre tables and longitude basis for a
// fixed grid. Safe for concurrent use once built (all state is read-only).
type Transform struct {
	G    *grid.Grid
	P    *Packing
	plm  [][]float64 // [packed idx][lat node]
	cosc [][]float64 // cos(m*lon) [order][lon node]
	sins [][]float64 // sin(m*lon)
	dlon float64
}

// New precomputes the transform tables for g at the grid's own truncation.
func New(g *grid.Grid) *Transform {
	n := g.N
	t := &Transform{
		G:    g,
		P:    NewPacking(n),
		plm:  Plm(n, g.X),
		cosc: make([][]float64, n+1),
		sins: make([][]float64, n+1),
		dlon: 2. * math.Pi / float64(g.Nlon),
	}
	for m := 0; m <= n; m++ {
		t.cosc[m] = make([]float64, g.Nlon)
		t.sins[m] = make([]float64, g.Nlon)
		for j, lam := range g.Lon {
			t.cosc[m][j] = math.Cos(float64(m) * lam)
			t.sins[m][j] = math.Sin(float64(m) * lam)
		}
	}
	return t
}

// Analyze computes the packed spectral coefficients of a real spatial field:
// a(l,m) = sum_i w_i Plm(x_i) sum_j f_ij exp(-i m lon_j) dlon.
func (t *Transform) Analyze(f [][]float64) []complex128 {
	n := t.P.MaxDeg()
	a := make([]complex128, t.P.Len())
	gm := make([]complex128, t.G.Nlat)
	for m := 0; m <= n; m++ {
		w := t.dlon
		if m > 0 && 2*m == t.G.Nlon {
			// the Nyquist order aliases its own conjugate on the sampled
			// longitudes, doubling the accumulated cosine term
			w *= .5
		}
		for i := 0; i < t.G.Nlat; i++ {
			var re, im float64
			fi := f[i]
			for j := 0; j < t.G.Nlon; j++ {
				re += fi[j] * t.cosc[m][j]
				im -= fi[j] * t.sins[m][j]
			}
			gm[i] = complex(re*w, im*w)
		}
		for l := m; l <= n; l++ {
			idx := t.P.Pack(l, m)
			var s complex128
			for i := 0; i < t.G.Nlat; i++ {
				s += complex(t.G.W[i]*t.plm[idx][i], 0) * gm[i]
			}
			a[idx] = s
		}
	}
	return a
}

// Synthesize evaluates the packed spectral vector on the native grid:
// f_ij = 1/(4pi) sum_l [ a(l,0) Pl0 + sum_{m>=1} 2 Re(a(l,m) exp(i m lon_j)) Plm ].
// Orders >= 1 are doubled and the real part taken, exploiting the conjugate
// symmetry of real fields.
func (t *Transform) Synthesize(a []complex128) [][]float64 {
	return t.synth(a, t.plm, t.cosc, t.sins, t.G.Nlat, t.G.Nlon)
}

// SynthesizeAt evaluates a on a foreign node set: plm are Legendre tables from
// Plm(maxdeg, x) for the target colatitudes and lon the target longitudes.
func (t *Transform) SynthesizeAt(a []complex128, plm [][]float64, lon []float64) [][]float64 {
	n := t.P.MaxDeg()
	cosc, sins := make([][]float64, n+1), make([][]float64, n+1)
	for m := 0; m <= n; m++ {
		cosc[m] = make([]float64, len(lon))
		sins[m] = make([]float64, len(lon))
		for j, lam := range lon {
			cosc[m][j] = math.Cos(float64(m) * lam)
			sins[m][j] = math.Sin(float64(m) * lam)
		}
	}
	return t.synth(a, plm, cosc, sins, len(plm[0]), len(lon))
}

func (t *Transform) synth(a []complex128, plm, cosc, sins [][]float64, nlat, nlon int) [][]float64 {
	n := t.P.MaxDeg()
	f := make([][]float64, nlat)
	hre, him := make([]float64, n+1), make([]float64, n+1)
	for i := 0; i < nlat; i++ {
		f[i] = make([]float64, nlon)
		for m := 0; m <= n; m++ {
			hre[m], him[m] = 0., 0.
			for l := m; l <= n; l++ {
				idx := t.P.Pack(l, m)
				hre[m] += real(a[idx]) * plm[idx][i]
				him[m] += imag(a[idx]) * plm[idx][i]
			}
		}
		for j := 0; j < nlon; j++ {
			v := hre[0]
			for m := 1; m <= n; m++ {
				v += 2. * (hre[m]*cosc[m][j] - him[m]*sins[m][j])
			}
			f[i][j] = v / (4. * math.Pi)
		}
	}
	return f
}

// Area returns the degree-0 coefficient of f without forming the full
// spectrum: the quadrature-weighted integral over the sphere.
func (t *Transform) Area(f [][]float64) float64 {
	var s float64
	for i := 0; i < t.G.Nlat; i++ {
		var r float64
		for j := 0; j < t.G.Nlon; j++ {
			r += f[i][j]
		}
		s += t.G.W[i] * r
	}
	return s * t.dlon
}
