package slcode

// Results holds the per-step output of a run. Fields indexed by time sample,
// oldest first.
type Results struct {
	Times []float64

	Topo  [][][]float64 // solved topography [m]
	Ocean [][][]float64 // ocean function (0/1)
	RSL   [][][]float64 // relative sea level vs. present, zeroed under grounded ice [m]
	Ice   [][][]float64 // floating-corrected ice thickness [m]

	Lake   [][][]float64 // lake water column [m], nil when disabled
	LakeHi [][][]float64

	Esl       []float64 // eustatic sea-level equivalent of the ice change [m]
	Gmsl      []float64 // global-mean sea level vs. present [m]
	OceanArea []float64 // degree-0 ocean-function coefficient (unit sphere)
	LakeVol   []float64 // lake volume on the unit sphere [m·sr]

	// convergence diagnostics
	Iters       []int
	Chi         []float64 // final relative L1-norm change per step
	ChiTrace    [][]float64
	Unconverged []bool

	dSLM [][]complex128 // committed ocean-height-change spectra (kept for closure checks)

	TopoPasses    int
	TopoConverged bool
	TopoMisfit    float64 // max |solved present topo - target| at the last pass [m]
}

func (st *state) results(times []float64, misfit float64, passes int, converged bool) *Results {
	nt := st.nt
	r := &Results{
		Times:         append([]float64(nil), times...),
		Topo:          st.topo,
		Ocean:         st.oc,
		Ice:           st.ice,
		Lake:          st.lake,
		LakeHi:        st.lakeHi,
		Esl:           st.esl,
		Gmsl:          st.gmsl,
		OceanArea:     st.ocArea,
		LakeVol:       st.lakeVol,
		Iters:         st.iters,
		Chi:           st.chi,
		ChiTrace:      st.chiTrace,
		Unconverged:   st.unconv,
		dSLM:          st.dSLM,
		TopoPasses:    passes,
		TopoConverged: converged,
		TopoMisfit:    misfit,
	}
	// relative sea level against the final (present) solved topography,
	// excluded where ice is grounded
	r.RSL = make([][][]float64, nt)
	last := st.topo[nt-1]
	for t := 0; t < nt; t++ {
		f := make([][]float64, len(last))
		for i := range last {
			f[i] = make([]float64, len(last[i]))
			for j := range last[i] {
				if st.ice[t][i][j] > 0. {
					continue
				}
				f[i][j] = last[i][j] - st.topo[t][i][j]
			}
		}
		r.RSL[t] = f
	}
	return r
}
