// Package love holds the Love-number description of the solid Earth: elastic
// surface-load and tidal coefficients per degree, the viscous normal-mode
// spectrum of a chosen rheology, and the precomputed time-convolution (beta)
// kernels the solver dots against its incremental load history.
package love

import (
	"fmt"
	"math"
)

const (
	aEarth = 6.371e6   // mean radius [m]
	mEarth = 5.9721e24 // mass [kg]

	minRate = 1e-12 // decay rates below this are an invalid rheology
)

// Numbers is the per-degree Love-number set for degrees 0..N. Viscous normal
// modes are ragged per degree (a purely elastic model carries none).
type Numbers struct {
	N int

	// elastic: surface-load h,k and tidal analogues
	H, K, HT, KT []float64

	// viscous normal modes per degree: residue amplitudes and decay rates [1/ka]
	HAmp, KAmp   [][]float64
	HAmpT, KAmpT [][]float64
	S            [][]float64

	// derived response coefficients
	E  []float64 // 1 + k - h
	ET []float64 // 1 + kt - ht
	T  []float64 // load-to-sea-level transfer; T[0] = T[1] = 0
}

// New validates the tables and derives E, ET and T. Every slice must span
// degrees 0..n; mode slices must agree in length per degree and no decay rate
// may vanish (the residue-theorem weights divide by it).
func New(n int, h, k, ht, kt []float64, hamp, kamp, hampt, kampt, s [][]float64) (*Numbers, error) {
	if n < 1 {
		return nil, fmt.Errorf("love.New: truncation degree must be >= 1, got %d", n)
	}
	for _, v := range [][]float64{h, k, ht, kt} {
		if len(v) != n+1 {
			return nil, fmt.Errorf("love.New: elastic tables must span degrees 0..%d (need %d values, got %d)", n, n+1, len(v))
		}
	}
	for _, v := range [][][]float64{hamp, kamp, hampt, kampt, s} {
		if len(v) != n+1 {
			return nil, fmt.Errorf("love.New: viscous tables must span degrees 0..%d", n)
		}
	}
	for l := 0; l <= n; l++ {
		nm := len(s[l])
		if len(hamp[l]) != nm || len(kamp[l]) != nm || len(hampt[l]) != nm || len(kampt[l]) != nm {
			return nil, fmt.Errorf("love.New: degree %d mode tables disagree in length", l)
		}
		for j, sj := range s[l] {
			if math.Abs(sj) < minRate {
				return nil, fmt.Errorf("love.New: degree %d mode %d has a zero decay rate; rheology rejected", l, j)
			}
		}
	}

	ln := &Numbers{
		N: n,
		H: h, K: k, HT: ht, KT: kt,
		HAmp: hamp, KAmp: kamp, HAmpT: hampt, KAmpT: kampt, S: s,
		E:  make([]float64, n+1),
		ET: make([]float64, n+1),
		T:  make([]float64, n+1),
	}
	for l := 0; l <= n; l++ {
		ln.E[l] = 1. + k[l] - h[l]
		ln.ET[l] = 1. + kt[l] - ht[l]
		if l > 1 { // degrees 0-1 are handled by explicit mass/centre-of-mass conservation
			ln.T[l] = 4. * math.Pi * aEarth * aEarth * aEarth / (mEarth * (2.*float64(l) + 1.))
		}
	}
	return ln, nil
}

// Elastic returns a purely elastic (no viscous modes) table set, commonly used
// for short-timescale runs and regression baselines.
func Elastic(n int, h, k, ht, kt []float64) (*Numbers, error) {
	empty := make([][]float64, n+1)
	for l := range empty {
		empty[l] = nil
	}
	return New(n, h, k, ht, kt, empty, empty, empty, empty, empty)
}

// Rigid returns the table set of a non-deforming Earth (all Love numbers
// zero): E = ET = 1 per degree. Useful in tests isolating the water-
// redistribution bookkeeping from solid-Earth response.
func Rigid(n int) *Numbers {
	z := make([]float64, n+1)
	ln, err := Elastic(n, z, append([]float64(nil), z...), append([]float64(nil), z...), append([]float64(nil), z...))
	if err != nil {
		panic(err) // n >= 1 guaranteed by callers
	}
	return ln
}
