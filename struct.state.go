package slcode

import (
	"gonum.org/v1/gonum/mat"
)

// state is the evolving solver state for one run, threaded explicitly through
// the topography, time and inner loops (nothing module-level). Step index 0 is
// the oldest/reference state.
type state struct {
	nt, nlm int

	// per-step fields, rebuilt each topography pass
	topo   [][][]float64 // solved topography
	ice    [][][]float64 // floating-corrected ice thickness
	oc     [][][]float64 // ocean function (strict 0/1)
	lake   [][][]float64 // lake water-column depth (nil when disabled)
	lakeHi [][][]float64
	plmHi  [][]float64 // Legendre tables on the high-resolution grid's nodes

	ocLM [][]complex128 // ocean-function spectra per committed step
	dSLM [][]complex128 // committed ocean-height-change spectra per step
	toLM [][]complex128 // committed shoreline (topography-correction) spectra

	prevL []complex128 // total load spectrum at the last committed step

	// viscous memory: one packed incremental-load column per committed step
	histRe, histIm *mat.Dense

	// rotation memory
	dI    [][3]float64    // per-step inertia-perturbation increments (13,23,33)
	dm    [][3]float64    // per-step polar-motion increments
	dLa   [][4]complex128 // per-step potential-perturbation increments (00,20,21,22)
	sdelI [3]float64      // running accumulations, updated once per time step
	sdelm [3]float64
	sdLa  [4]complex128

	topo0 [][]float64 // initial-topography guess for the current pass

	// per-step scalars/diagnostics
	ivol                       []float64 // corrected-ice volume (unit sphere)
	esl, gmsl, ocArea, lakeVol []float64
	iters                      []int
	chi                        []float64
	chiTrace                   [][]float64 // chi per inner iteration, per step
	unconv                     []bool
}

func (s *Solver) newState(nt int) *state {
	nlm := s.Tr.P.Len()
	st := &state{
		nt: nt, nlm: nlm,
		topo:    make([][][]float64, nt),
		ice:     make([][][]float64, nt),
		oc:      make([][][]float64, nt),
		lake:    make([][][]float64, nt),
		lakeHi:  make([][][]float64, nt),
		ocLM:    make([][]complex128, nt),
		dSLM:    make([][]complex128, nt),
		toLM:    make([][]complex128, nt),
		prevL:   make([]complex128, nlm),
		histRe:  mat.NewDense(nlm, nt, nil),
		histIm:  mat.NewDense(nlm, nt, nil),
		dI:      make([][3]float64, nt),
		dm:      make([][3]float64, nt),
		dLa:     make([][4]complex128, nt),
		ivol:     make([]float64, nt),
		esl:      make([]float64, nt),
		gmsl:     make([]float64, nt),
		ocArea:   make([]float64, nt),
		lakeVol:  make([]float64, nt),
		iters:    make([]int, nt),
		chi:      make([]float64, nt),
		chiTrace: make([][]float64, nt),
		unconv:   make([]bool, nt),
	}
	for t := 0; t < nt; t++ {
		st.dSLM[t] = make([]complex128, nlm)
		st.toLM[t] = make([]complex128, nlm)
	}
	return st
}

// resetPass clears the memory accumulated during a time-loop pass so the next
// topography pass starts clean; the committed dSLM spectra are kept as warm
// starts for the inner iterations.
func (st *state) resetPass() {
	st.histRe.Zero()
	st.histIm.Zero()
	for i := range st.prevL {
		st.prevL[i] = 0
	}
	st.sdelI, st.sdelm, st.sdLa = [3]float64{}, [3]float64{}, [4]complex128{}
	for t := 0; t < st.nt; t++ {
		st.dI[t], st.dm[t], st.dLa[t] = [3]float64{}, [3]float64{}, [4]complex128{}
		for i := range st.toLM[t] {
			st.toLM[t][i] = 0
		}
	}
}
