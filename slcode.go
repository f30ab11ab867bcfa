// Package slcode solves the generalized sea-level equation: the
// gravitationally self-consistent redistribution of ocean water on a rotating,
// viscoelastic planet driven by a prescribed ice-sheet history, optionally
// coupled to transient proglacial lakes. Three nested loops run to
// self-consistency: an inner fixed-point iteration per time step, the time
// loop over the ice history, and an outer topography-consistency loop.
package slcode

import (
	"fmt"
	"math/cmplx"
)

// OceanAreaError is the fatal per-step failure of a (near-)dry ocean: the
// eustatic correction divides by the degree-0 ocean-function coefficient.
// Distinct from ordinary non-convergence, which is reported, not fatal.
type OceanAreaError struct {
	Step int
	Area float64
}

func (e *OceanAreaError) Error() string {
	return fmt.Sprintf("time step %d: ocean area %.3e below floor; cannot normalize eustatic correction", e.Step, e.Area)
}

// converge runs the inner fixed-point iteration for time step t: solve for
// the incremental sea-surface-height field and the topography/ocean mask it
// implies, until the relative change of the spectral L1 norm drops below
// tolerance or the iteration budget runs out (recorded, not fatal). On exit
// the step is committed: final topography, masks, the incremental load column
// of the viscous history, and the rotational state.
func (s *Solver) converge(in *Inputs, st *state, t int, coldStart bool) error {
	tr, p := s.Tr, s.Tr.P
	nlm := p.Len()
	ri, rw := complex(rhoIce, 0), complex(rhoWater, 0)

	// change fields relative to the reference (oldest) step
	di := s.Gd.NewField()
	for i := range di {
		for j := range di[i] {
			di[i][j] = st.ice[t][i][j] - st.ice[0][i][j]
		}
	}
	diLM := tr.Analyze(di)

	// viscous memory is fixed for the whole step
	v := s.Bt.Convolve(t, st.histRe, st.histIm)

	// working masks start from the previous step (first pass) or from this
	// step's previous-pass solution
	if st.oc[t] == nil {
		st.topo[t] = s.Gd.CopyField(st.topo[t-1])
		st.oc[t] = s.Gd.CopyField(st.oc[t-1])
		st.ocLM[t] = append([]complex128(nil), st.ocLM[t-1]...)
		if s.Cfg.Lakes {
			st.lake[t] = s.Gd.CopyField(st.lake[t-1])
			st.lakeHi[t] = st.lakeHi[t-1]
		}
	}
	var dlakeLM []complex128
	lakeVol := 0.
	updLake := func() {
		dlakeLM = make([]complex128, nlm)
		if !s.Cfg.Lakes {
			return
		}
		dl := s.Gd.NewField()
		for i := range dl {
			for j := range dl[i] {
				dl[i][j] = st.lake[t][i][j] - st.lake[0][i][j]
			}
		}
		dlakeLM = tr.Analyze(dl)
		lakeVol = tr.Area(st.lake[t])
	}
	updLake()

	// shoreline (topography-correction) term for the current mask
	to := s.Gd.NewField()
	toLM := make([]complex128, nlm)
	updTO := func() {
		for i := range to {
			for j := range to[i] {
				to[i][j] = st.topo0[i][j] * (st.oc[t][i][j] - st.oc[0][i][j])
			}
		}
		toLM = tr.Analyze(to)
	}
	updTO()

	// current estimate of the ocean-height change; on the very first inner
	// iteration of the very first pass, redistribute the step's ice and lake
	// increments uniformly over the previous ocean function
	cur := st.dSLM[t]
	if coldStart {
		aPrev := real(st.ocLM[t-1][0])
		if aPrev < minOceanArea {
			return &OceanAreaError{Step: t, Area: aPrev}
		}
		dphi0 := (-(rhoIce/rhoWater)*(st.ivol[t]-st.ivol[t-1]) - (lakeVol - st.lakeVol[t-1]) +
			real(toLM[0]) - real(st.toLM[t-1][0])) / aPrev
		cur = append([]complex128(nil), st.dSLM[t-1]...)
		for i := range cur {
			cur[i] += complex(dphi0, 0) * st.ocLM[t-1][i]
		}
	}

	var curl [][]float64
	var dphi float64
	var chi float64
	var trace []float64
	converged := false
	iters := 0

	var dI, dm [3]float64
	var dLa [4]complex128

	for k := 0; k < s.Cfg.InnerMax; k++ {
		iters = k + 1

		// total load change and its spectral sea-level response
		dL := make([]complex128, nlm)
		for i := range dL {
			dL[i] = ri*diLM[i] + rw*(cur[i]+dlakeLM[i])
		}
		var rot []complex128
		if s.Cfg.Rotation {
			incr := make([]complex128, nlm)
			for i := range incr {
				incr[i] = dL[i] - st.prevL[i]
			}
			dI, dm, dLa, rot = s.rotFeedback(st, t, incr)
		}
		curlLM := make([]complex128, nlm)
		for i := range curlLM {
			l := p.Deg(i)
			el, tl := complex(s.Ln.E[l], 0), complex(s.Ln.T[l], 0)
			curlLM[i] = el*tl*dL[i] + tl*v[i]
			if rot != nil {
				curlLM[i] += rot[i]
			}
		}

		// spatial sea-level change, ocean-restricted
		curl = tr.Synthesize(curlLM)
		for i := range curl {
			for j := range curl[i] {
				curl[i][j] -= di[i][j]
			}
		}
		ro := s.Gd.NewField()
		for i := range ro {
			for j := range ro[i] {
				ro[i][j] = curl[i][j] * st.oc[t][i][j]
			}
		}
		roLM := tr.Analyze(ro)

		// eustatic correction from mass conservation
		a := real(st.ocLM[t][0])
		if a < minOceanArea {
			return &OceanAreaError{Step: t, Area: a}
		}
		dphi = (-(rhoIce/rhoWater)*real(diLM[0]) - real(roLM[0]) + real(toLM[0]) - (lakeVol - st.lakeVol[0])) / a

		// new ocean-height estimate
		nxt := s.Gd.NewField()
		for i := range nxt {
			for j := range nxt[i] {
				nxt[i][j] = ro[i][j] + dphi*st.oc[t][i][j] - to[i][j]
			}
		}
		nxtLM := tr.Analyze(nxt)

		l0, l1 := l1norm(cur), l1norm(nxtLM)
		if l0 < nearzero {
			chi = l1
		} else {
			chi = abs(l1-l0) / l0
		}
		cur = nxtLM
		trace = append(trace, chi)

		if chi < s.Cfg.InnerTol {
			converged = true
			break
		}

		// not converged: rebuild topography and masks, re-detect lakes
		s.updateStep(in, st, t, curl, dphi)
		updLake()
		updTO()
	}

	// commit the final field into this step's topography and masks
	s.updateStep(in, st, t, curl, dphi)
	updLake()
	updTO()

	st.dSLM[t] = cur
	copy(st.toLM[t], toLM)
	st.iters[t], st.chi[t], st.unconv[t] = iters, chi, !converged
	st.chiTrace[t] = trace
	if !converged {
		fmt.Printf("  time step %d: inner iteration budget (%d) exhausted, chi=%.2e\n", t, s.Cfg.InnerMax, chi)
	}

	// advance the viscous and rotational memory
	dL := make([]complex128, nlm)
	for i := range dL {
		dL[i] = ri*diLM[i] + rw*(cur[i]+dlakeLM[i])
		d := dL[i] - st.prevL[i]
		st.histRe.Set(i, t-1, real(d))
		st.histIm.Set(i, t-1, imag(d))
	}
	copy(st.prevL, dL)
	if s.Cfg.Rotation {
		st.dI[t], st.dm[t], st.dLa[t] = dI, dm, dLa
		for c := 0; c < 3; c++ {
			st.sdelI[c] += dI[c]
			st.sdelm[c] += dm[c]
		}
		for c := 0; c < 4; c++ {
			st.sdLa[c] += dLa[c]
		}
	}

	// per-step scalars
	a := real(st.ocLM[t][0])
	st.esl[t] = -(rhoIce / rhoWater) * real(diLM[0]) / a
	st.ocArea[t] = a
	st.lakeVol[t] = lakeVol
	return nil
}

// updateStep recomputes the step's topography from the solved field and the
// eustatic correction, then rederives the ocean function, its spectrum and
// the lake state from the new surface.
func (s *Solver) updateStep(in *Inputs, st *state, t int, curl [][]float64, dphi float64) {
	for i := range st.topo[t] {
		for j := range st.topo[t][i] {
			st.topo[t][i][j] = -(curl[i][j] + dphi) + st.topo[0][i][j]
		}
	}
	if s.Cfg.Lakes {
		anom := s.Gd.NewField()
		for i := range anom {
			for j := range anom[i] {
				anom[i][j] = st.topo[t][i][j] - in.Topo[i][j]
			}
		}
		st.lake[t], st.lakeHi[t] = s.Lk.Detect(in.IceHi[t], s.hiAnomaly(in, st, anom), s.Gd, in.HiGrid, in.Sampling)
	}
	st.oc[t] = s.oceanFunc(st.topo[t], st.ice[t], st.lake[t])
	st.ocLM[t] = s.Tr.Analyze(st.oc[t])
}

func l1norm(a []complex128) float64 {
	var s float64
	for _, v := range a {
		s += cmplx.Abs(v)
	}
	return s
}

func abs(v float64) float64 {
	if v < 0. {
		return -v
	}
	return v
}
