package sht

import "math"

// Plm evaluates the fully normalized associated Legendre functions
// sqrt((2l+1)(l-m)!/(l+m)!)*Plm(x) (no Condon-Shortley phase) for all
// 0 <= m <= l <= n at every node in x. The result is indexed
// [Packing.Pack(l,m)][node]. Stable to high degree via the standard
// normalized recurrences (sectoral seed, then upward in l).
func Plm(n int, x []float64) [][]float64 {
	p := NewPacking(n)
	out := make([][]float64, p.Len())
	for i := range out {
		out[i] = make([]float64, len(x))
	}
	for i, xi := range x {
		s := math.Sqrt(1. - xi*xi) // sin(colat)

		// sectoral P(m,m)
		out[0][i] = 1.
		for m := 1; m <= n; m++ {
			fm := float64(m)
			out[p.Pack(m, m)][i] = math.Sqrt((2.*fm+1.)/(2.*fm)) * s * out[p.Pack(m-1, m-1)][i]
		}
		// first off-diagonal P(m+1,m)
		for m := 0; m < n; m++ {
			out[p.Pack(m+1, m)][i] = math.Sqrt(2.*float64(m)+3.) * xi * out[p.Pack(m, m)][i]
		}
		// upward recurrence in degree
		for m := 0; m <= n; m++ {
			for l := m + 2; l <= n; l++ {
				fl, fm := float64(l), float64(m)
				a := math.Sqrt((2.*fl - 1.) * (2.*fl + 1.) / ((fl - fm) * (fl + fm)))
				b := math.Sqrt((2.*fl + 1.) * (fl + fm - 1.) * (fl - fm - 1.) / ((fl - fm) * (fl + fm) * (2.*fl - 3.)))
				out[p.Pack(l, m)][i] = a*xi*out[p.Pack(l-1, m)][i] - b*out[p.Pack(l-2, m)][i]
			}
		}
	}
	return out
}
