package slcode

import "github.com/bangerth/SLcode/grid"

// LakeDetector locates proglacial lakes from the ice geometry and the evolving
// topography anomaly relative to present, the latter synthesized onto the
// high-resolution companion grid. Implementations must be deterministic for
// identical inputs; the solver calls Detect once per inner iteration when
// lakes are enabled. It returns the lake water column on the native grid and
// the lake mask on the high-resolution grid.
type LakeDetector interface {
	Detect(iceHi, topoAnom [][]float64, gd, hd *grid.Grid, sampling int) (lake [][]float64, lakeHi [][]float64)
}

// hiAnomaly carries the native topography anomaly onto the detector's grid.
func (s *Solver) hiAnomaly(in *Inputs, st *state, anom [][]float64) [][]float64 {
	return s.Tr.SynthesizeAt(s.Tr.Analyze(anom), st.plmHi, in.HiGrid.Lon)
}

// NoLakes is the trivial detector: no lakes, ever. Used when the coupling is
// disabled but a detector value is still wanted (e.g. the demo driver).
type NoLakes struct{}

// Detect returns zeroed fields of the expected shapes.
func (NoLakes) Detect(_, _ [][]float64, gd, hd *grid.Grid, _ int) ([][]float64, [][]float64) {
	if hd == nil {
		return gd.NewField(), nil
	}
	return gd.NewField(), hd.NewField()
}
