package sht

// Packing is the triangular (degree, order) layout used for spectral
// coefficient vectors: index of (l,m) is l(l+1)/2+m, so each degree's orders
// occupy a contiguous block and index 0 holds the degree-0 (total-area) term.
type Packing struct {
	n   int
	deg []int // degree by packed index
}

// NewPacking builds the bijection for truncation degree n.
func NewPacking(n int) *Packing {
	p := &Packing{n: n, deg: make([]int, (n+1)*(n+2)/2)}
	for l := 0; l <= n; l++ {
		for m := 0; m <= l; m++ {
			p.deg[l*(l+1)/2+m] = l
		}
	}
	return p
}

// MaxDeg returns the truncation degree.
func (p *Packing) MaxDeg() int { return p.n }

// Len returns the packed vector length, (n+1)(n+2)/2.
func (p *Packing) Len() int { return len(p.deg) }

// Pack returns the index of (l,m), 0 <= m <= l <= MaxDeg.
func (p *Packing) Pack(l, m int) int { return l*(l+1)/2 + m }

// Deg returns the degree of a packed index.
func (p *Packing) Deg(i int) int { return p.deg[i] }
