package love

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Beta holds the discretized viscous time-convolution kernels for a fixed
// ice-history time grid, truncated to the solver's degree (the Love tables
// may span higher degrees). For each current step t (0-based, t >= 1) the
// load kernel is a (deg+1) x t matrix whose column n-1 weights the load
// increment committed at step n (1 <= n <= t):
//
//	beta(t,n,l) = sum_modes (kamp-hamp)/s * (1 - exp(-s*(time[t]-time[n])))
//
// The zero-lag column (n = t) vanishes, so the current step's own increment
// enters the response only elastically. Degree-2-only rows (k-amplitude load
// and tidal analogues) drive the rotational feedback. Built once per run,
// reused across topography passes.
type Beta struct {
	Times []float64
	L     []*mat.Dense // L[t], nil for t == 0
	K2    [][]float64  // degree-2, k load amplitudes only
	KT2   [][]float64  // degree-2, k tidal amplitudes
}

// NewBeta precomputes the kernels for ln, truncated to degree deg, on the
// given monotonic time grid (same units as the decay rates' inverse;
// conventionally ka).
func NewBeta(ln *Numbers, deg int, times []float64) (*Beta, error) {
	if deg < 1 || deg > ln.N {
		return nil, fmt.Errorf("love.NewBeta: truncation degree %d outside the table span 1..%d", deg, ln.N)
	}
	nt := len(times)
	if nt < 2 {
		return nil, fmt.Errorf("love.NewBeta: need at least 2 time samples, got %d", nt)
	}
	for i := 1; i < nt; i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("love.NewBeta: time grid must be strictly increasing at index %d", i)
		}
	}
	b := &Beta{
		Times: append([]float64(nil), times...),
		L:     make([]*mat.Dense, nt),
		K2:    make([][]float64, nt),
		KT2:   make([][]float64, nt),
	}
	for t := 1; t < nt; t++ {
		d := mat.NewDense(deg+1, t, nil)
		k2, kt2 := make([]float64, t), make([]float64, t)
		for n := 1; n <= t; n++ {
			lag := times[t] - times[n]
			for l := 0; l <= deg; l++ {
				var v float64
				for j, s := range ln.S[l] {
					v += (ln.KAmp[l][j] - ln.HAmp[l][j]) / s * (1. - math.Exp(-s*lag))
				}
				d.Set(l, n-1, v)
			}
			if deg >= 2 {
				for j, s := range ln.S[2] {
					k2[n-1] += ln.KAmp[2][j] / s * (1. - math.Exp(-s*lag))
					kt2[n-1] += ln.KAmpT[2][j] / s * (1. - math.Exp(-s*lag))
				}
			}
		}
		b.L[t] = d
		b.K2[t] = k2
		b.KT2[t] = kt2
	}
	return b, nil
}

// Convolve forms the viscous response at step t as the kernel-matrix product
// against the incremental load history: histRe/histIm hold one packed spectral
// increment per column (column n-1 is the increment committed at step n). The
// returned vector is in the same packing; degrees share a kernel row, so each
// degree's contiguous packed block is one small matrix-vector product.
func (b *Beta) Convolve(t int, histRe, histIm *mat.Dense) []complex128 {
	nd, _ := b.L[1].Dims()
	n := nd - 1 // truncation degree
	v := make([]complex128, (n+1)*(n+2)/2)
	if t < 1 {
		return v
	}
	var re, im mat.VecDense
	for l := 0; l <= n; l++ {
		r0 := l * (l + 1) / 2
		kl := b.L[t].RowView(l)
		re.Reset()
		im.Reset()
		re.MulVec(histRe.Slice(r0, r0+l+1, 0, t).(*mat.Dense), kl)
		im.MulVec(histIm.Slice(r0, r0+l+1, 0, t).(*mat.Dense), kl)
		for m := 0; m <= l; m++ {
			v[r0+m] = complex(re.AtVec(m), im.AtVec(m))
		}
	}
	return v
}

// ConvolveK2 dots the degree-2 load kernel against a scalar increment history
// (first t entries of hist are used).
func (b *Beta) ConvolveK2(t int, hist []float64) float64 {
	if t < 1 {
		return 0.
	}
	return floats.Dot(b.K2[t], hist[:t])
}

// ConvolveKT2 is ConvolveK2 for the tidal degree-2 kernel.
func (b *Beta) ConvolveKT2(t int, hist []float64) float64 {
	if t < 1 {
		return 0.
	}
	return floats.Dot(b.KT2[t], hist[:t])
}
