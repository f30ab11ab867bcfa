package slcode

import (
	"fmt"

	"github.com/bangerth/SLcode/sht"
)

// Solve runs the full nested scheme: topography-consistency passes around the
// time loop, each pass re-deriving the corrected ice model, resetting the
// reference topography from the current guess and walking the whole ice
// history. Non-convergence of either iterative loop is reported and the best
// available solution returned; structural failures (bad inputs, dry ocean)
// are fatal.
func (s *Solver) Solve(in *Inputs) (*Results, error) {
	if err := s.checkInputs(in); err != nil {
		return nil, err
	}
	st := s.newState(len(s.Cfg.Times))
	st.topo0 = s.Gd.CopyField(in.Topo)
	if s.Cfg.Lakes {
		st.plmHi = sht.Plm(s.Cfg.MaxDeg, in.HiGrid.X)
	}

	var misfit float64
	passes, conv := 0, false
	for pass := 0; pass < s.Cfg.TopoMax; pass++ {
		passes = pass + 1
		if s.Cfg.Verbose {
			fmt.Printf(" topography pass %d/%d\n", passes, s.Cfg.TopoMax)
		}
		st.resetPass()
		s.correctIce(in, st, pass)
		if err := s.initReference(in, st); err != nil {
			return nil, err
		}
		if err := s.evaluate(in, st, pass == 0); err != nil {
			return nil, err
		}

		misfit = 0.
		last := st.topo[st.nt-1]
		for i := range last {
			for j := range last[i] {
				if d := abs(last[i][j] - in.Topo[i][j]); d > misfit {
					misfit = d
				}
			}
		}
		if s.Cfg.Verbose {
			fmt.Printf("   present-day topography misfit: %.3f m\n", misfit)
		}
		if misfit < s.Cfg.TopoTol {
			conv = true
			break
		}

		// next pass's initial-topography guess: target minus the solved change
		for i := range st.topo0 {
			for j := range st.topo0[i] {
				st.topo0[i][j] = in.Topo[i][j] - (last[i][j] - st.topo[0][i][j])
			}
		}
	}
	if !conv && s.Cfg.TopoMax > 1 {
		fmt.Printf(" topography loop: %d passes exhausted, misfit %.3f m; returning best available\n", passes, misfit)
	}

	s.globalMeans(st)
	return st.results(s.Cfg.Times, misfit, passes, conv), nil
}

// globalMeans fills the global-mean sea-level series: incremental ice-volume
// contributions over the time-varying ocean area, accumulated present-to-past
// (present = 0) and then flipped back to the history's old-to-young order.
func (s *Solver) globalMeans(st *state) {
	rev := make([]float64, st.nt) // index 0 = present
	for k := 1; k < st.nt; k++ {
		j := st.nt - k // contribution of the interval (j-1, j]
		rev[k] = rev[k-1] - rhoIce/rhoWater*(st.ivol[j-1]-st.ivol[j])/st.ocArea[j]
	}
	for t := 0; t < st.nt; t++ {
		st.gmsl[t] = rev[st.nt-1-t]
	}
}
