package slcode

import (
	"fmt"

	"github.com/gosuri/uiprogress"
)

// initReference sets up the oldest (reference) time step for a topography
// pass from the current initial-topography guess. Step 0 is never iterated.
func (s *Solver) initReference(in *Inputs, st *state) error {
	st.topo[0] = s.Gd.CopyField(st.topo0)
	st.lake[0], st.lakeHi[0] = nil, nil
	st.lakeVol[0] = 0.
	if s.Cfg.Lakes {
		anom := s.Gd.NewField()
		for i := range anom {
			for j := range anom[i] {
				anom[i][j] = st.topo[0][i][j] - in.Topo[i][j]
			}
		}
		st.lake[0], st.lakeHi[0] = s.Lk.Detect(in.IceHi[0], s.hiAnomaly(in, st, anom), s.Gd, in.HiGrid, in.Sampling)
		st.lakeVol[0] = s.Tr.Area(st.lake[0])
	}
	st.oc[0] = s.oceanFunc(st.topo[0], st.ice[0], st.lake[0])
	st.ocLM[0] = s.Tr.Analyze(st.oc[0])
	a := real(st.ocLM[0][0])
	if a < minOceanArea {
		return &OceanAreaError{Step: 0, Area: a}
	}
	st.ocArea[0] = a
	for i := range st.dSLM[0] {
		st.dSLM[0][i] = 0
	}
	st.esl[0], st.iters[0], st.chi[0], st.unconv[0] = 0., 0, 0., false
	return nil
}

// evaluate runs one full old-to-young pass of the time loop. The viscous
// convolution at step t needs the committed incremental-load history of every
// earlier step, so the walk is strictly sequential.
func (s *Solver) evaluate(in *Inputs, st *state, coldStart bool) error {
	if !s.Cfg.Verbose {
		for t := 1; t < st.nt; t++ {
			if err := s.converge(in, st, t, coldStart); err != nil {
				return err
			}
		}
		return nil
	}

	uiprogress.Start()
	defer uiprogress.Stop()
	lbl := ""
	bar := uiprogress.AddBar(st.nt - 1).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string { return lbl })
	for t := 1; t < st.nt; t++ {
		lbl = fmt.Sprintf("%8.2f", s.Cfg.Times[t])
		if err := s.converge(in, st, t, coldStart); err != nil {
			return err
		}
		bar.Incr()
	}
	return nil
}
