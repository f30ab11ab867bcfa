package slcode

// correctIce derives the working ice model for a topography pass. With the
// buoyancy check enabled, ice is removed where the water column filling the
// depressed bed outweighs the ice column (the margin cannot stay grounded);
// the check is re-applied every pass against that pass's best topography.
func (s *Solver) correctIce(in *Inputs, st *state, pass int) {
	for t := 0; t < st.nt; t++ {
		ice := s.Gd.CopyField(in.Ice[t])
		if s.Cfg.CheckFloating {
			base := st.topo[t] // previous pass's solution
			if pass == 0 || base == nil {
				base = st.topo0
			}
			for i := range ice {
				for j, h := range ice[i] {
					if h <= 0. {
						continue
					}
					if b := base[i][j]; b < 0. && rhoIce*h < rhoWater*(-b) {
						ice[i][j] = 0. // floating
					}
				}
			}
		}
		st.ice[t] = ice
		st.ivol[t] = s.Tr.Area(ice)
	}
}

// oceanFunc builds the strict 0/1 ocean indicator: below sea level, free of
// grounded ice, and not impounded as a lake.
func (s *Solver) oceanFunc(topo, ice, lake [][]float64) [][]float64 {
	oc := s.Gd.NewField()
	for i := range topo {
		for j := range topo[i] {
			if topo[i][j] >= 0. || ice[i][j] > 0. {
				continue
			}
			if lake != nil && lake[i][j] > 0. {
				continue
			}
			oc[i][j] = 1.
		}
	}
	return oc
}
