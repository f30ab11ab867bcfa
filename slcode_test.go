package slcode

import (
	"errors"
	"math"
	"testing"

	"github.com/bangerth/SLcode/grid"
	"github.com/bangerth/SLcode/love"
	"github.com/maseology/objfunc"
)

const capth = 0.35 // test polar-cap colatitude [rad]

func elasticLove(t *testing.T, n int) *love.Numbers {
	h, k := make([]float64, n+1), make([]float64, n+1)
	ht, kt := make([]float64, n+1), make([]float64, n+1)
	for l := 1; l <= n; l++ {
		fl := float64(l)
		h[l] = -0.6 * fl / (1. + fl)
		k[l] = -0.3 / (1. + fl)
		ht[l] = 0.6 / (1. + fl)
		kt[l] = 0.3 / (1. + fl)
	}
	ln, err := love.Elastic(n, h, k, ht, kt)
	if err != nil {
		t.Fatal(err)
	}
	return ln
}

// polarScenario: an ice disk of the given thickness over the polar cap,
// melting linearly to zero across the time samples; flat bedrock at -500 m
// except the (land) cap.
func polarScenario(s *Solver, hice float64) *Inputs {
	nt := len(s.Cfg.Times)
	in := &Inputs{Ice: make([][][]float64, nt), Topo: s.Gd.NewField()}
	for i, th := range s.Gd.Th {
		for j := range s.Gd.Lon {
			if th < capth {
				in.Topo[i][j] = 200.
			} else {
				in.Topo[i][j] = -500.
			}
		}
	}
	for t := 0; t < nt; t++ {
		f := s.Gd.NewField()
		frac := 1. - float64(t)/float64(nt-1)
		for i, th := range s.Gd.Th {
			if th >= capth {
				continue
			}
			for j := range s.Gd.Lon {
				f[i][j] = hice * frac
			}
		}
		in.Ice[t] = f
	}
	return in
}

func newTestSolver(t *testing.T, cfg Config, ln *love.Numbers) *Solver {
	t.Helper()
	if cfg.InnerTol == 0. {
		cfg.InnerTol = 1e-6
	}
	if cfg.InnerMax == 0 {
		cfg.InnerMax = 10
	}
	s, err := New(cfg, ln, NoLakes{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// end-to-end: melting the polar disk raises sea level by the eustatic
// estimate, with the far field rising more than the near-margin ocean
func TestEustaticMelt(t *testing.T) {
	const n = 8
	s := newTestSolver(t, Config{MaxDeg: n, Times: []float64{0., 1.}}, elasticLove(t, n))
	in := polarScenario(s, 1000.)
	r, err := s.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Unconverged[1] {
		t.Fatalf("melt step did not converge (chi %v)", r.Chi[1])
	}

	// eustatic value against the melted ice volume
	want := rhoIce / rhoWater * s.Tr.Area(r.Ice[0]) / r.OceanArea[1]
	if math.Abs(r.Esl[1]-want)/want > 1e-9 {
		t.Fatalf("eustatic rise %v, melted-volume estimate %v", r.Esl[1], want)
	}

	// sea-level change = -(topo(1)-topo(0)); levering: near-margin ocean
	// rises less than the antipodal far field
	slcNear, slcFar := 0., 0.
	iNear := -1
	for i, th := range s.Gd.Th {
		if th >= capth {
			iNear = i
			break
		}
	}
	for j := range s.Gd.Lon {
		slcNear += -(r.Topo[1][iNear][j] - r.Topo[0][iNear][j])
		slcFar += -(r.Topo[1][s.Gd.Nlat-1][j] - r.Topo[0][s.Gd.Nlat-1][j])
	}
	slcNear /= float64(s.Gd.Nlon)
	slcFar /= float64(s.Gd.Nlon)
	if slcFar <= slcNear {
		t.Fatalf("expected far-field rise (%v) above near-margin rise (%v)", slcFar, slcNear)
	}
	if math.Abs(slcFar-r.Esl[1])/r.Esl[1] > 0.25 {
		t.Fatalf("far-field rise %v, eustatic %v", slcFar, r.Esl[1])
	}
}

// closed system: density-weighted ice and ocean volume changes cancel at
// every converged step (lakes and rotation disabled)
func TestMassConservation(t *testing.T) {
	const n = 8
	s := newTestSolver(t, Config{MaxDeg: n, Times: []float64{0., 1., 2., 3.}}, elasticLove(t, n))
	in := polarScenario(s, 1000.)
	r, err := s.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	iv0 := s.Tr.Area(r.Ice[0])
	for ts := 1; ts < len(r.Times); ts++ {
		if r.Unconverged[ts] {
			continue
		}
		di := s.Tr.Area(r.Ice[ts]) - iv0
		bal := rhoWater*real(r.dSLM[ts][0]) + rhoIce*di
		if math.Abs(bal) > 1e-6*rhoIce*math.Abs(di) {
			t.Fatalf("step %d: mass balance residual %v", ts, bal)
		}
	}
}

// one extra inner iteration on a converged state moves the solution by less
// than the convergence tolerance
func TestConvergedStepIdempotent(t *testing.T) {
	const n = 8
	const tol = 1e-9
	base := Config{MaxDeg: n, Times: []float64{0., 1.}, InnerTol: tol, InnerMax: 20}
	s := newTestSolver(t, base, elasticLove(t, n))
	in := polarScenario(s, 1000.)
	r, err := s.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	kk := r.Iters[1]
	if r.Unconverged[1] || kk < 2 {
		t.Fatalf("scenario should need a few iterations to converge (got %d, unconverged %v)", kk, r.Unconverged[1])
	}

	short := base
	short.InnerMax = kk - 1
	sA := newTestSolver(t, short, elasticLove(t, n))
	rA, err := sA.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if !rA.Unconverged[1] {
		t.Fatal("budget-limited run must report the exhausted iteration budget")
	}

	full := base
	full.InnerMax = kk
	sB := newTestSolver(t, full, elasticLove(t, n))
	rB, err := sB.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	var num, den float64
	for i := range rA.dSLM[1] {
		num += cabs(rA.dSLM[1][i] - rB.dSLM[1][i])
		den += cabs(rB.dSLM[1][i])
	}
	if num/den > 1e-5 {
		t.Fatalf("one extra iteration moved the solution by %v (relative L1)", num/den)
	}
}

// the convergence metric shrinks across inner iterations (statistically: no
// more than one uptick, and the trace ends far below where it starts)
func TestChiDecreases(t *testing.T) {
	const n = 8
	cfg := Config{MaxDeg: n, Times: []float64{0., 1.}, InnerTol: 1e-14, InnerMax: 8}
	s := newTestSolver(t, cfg, elasticLove(t, n))
	r, err := s.Solve(polarScenario(s, 1000.))
	if err != nil {
		t.Fatal(err)
	}
	tr := r.ChiTrace[1]
	if len(tr) < 4 {
		t.Fatalf("expected a multi-iteration trace, got %d", len(tr))
	}
	ups := 0
	for k := 2; k < len(tr); k++ {
		if tr[k] > tr[k-1] {
			ups++
		}
	}
	if ups > 1 {
		t.Fatalf("chi rose %d times: %v", ups, tr)
	}
	if tr[len(tr)-1] > tr[1]/10. {
		t.Fatalf("chi did not shrink: %v", tr)
	}
}

// global-mean sea level tracks the eustatic series once both are referenced
// to present
func TestGlobalMeanTracksEustatic(t *testing.T) {
	const n = 8
	s := newTestSolver(t, Config{MaxDeg: n, Times: []float64{0., 1., 2., 3., 4.}}, elasticLove(t, n))
	r, err := s.Solve(polarScenario(s, 1000.))
	if err != nil {
		t.Fatal(err)
	}
	nt := len(r.Times)
	obs := make([]float64, nt)
	for ts := 0; ts < nt; ts++ {
		obs[ts] = r.Esl[ts] - r.Esl[nt-1]
	}
	if nse := objfunc.NSE(obs, r.Gmsl); nse < 0.9 {
		t.Fatalf("NSE(gmsl vs eustatic) = %v\n gmsl %v\n esl  %v", nse, r.Gmsl, obs)
	}
	if r.Gmsl[nt-1] != 0. {
		t.Fatalf("present-day global mean must be 0, got %v", r.Gmsl[nt-1])
	}
	if r.Gmsl[0] >= 0. {
		t.Fatalf("full-glacial global mean must sit below present, got %v", r.Gmsl[0])
	}
}

func viscousLove(t *testing.T, n int) *love.Numbers {
	t.Helper()
	h, k := make([]float64, n+1), make([]float64, n+1)
	ht, kt := make([]float64, n+1), make([]float64, n+1)
	for l := 1; l <= n; l++ {
		fl := float64(l)
		h[l] = -0.6 * fl / (1. + fl)
		k[l] = -0.3 / (1. + fl)
		ht[l] = 0.6 / (1. + fl)
		kt[l] = 0.3 / (1. + fl)
	}
	// one normal mode per degree, 2 ka relaxation time
	hamp, kamp := make([][]float64, n+1), make([][]float64, n+1)
	hampt, kampt, s := make([][]float64, n+1), make([][]float64, n+1), make([][]float64, n+1)
	for l := 0; l <= n; l++ {
		hamp[l], kamp[l] = []float64{-0.1}, []float64{0.1}
		hampt[l], kampt[l] = []float64{-0.05}, []float64{0.05}
		s[l] = []float64{0.5}
	}
	ln, err := love.New(n, h, k, ht, kt, hamp, kamp, hampt, kampt, s)
	if err != nil {
		t.Fatal(err)
	}
	return ln
}

func relL1(a, b []complex128) float64 {
	var num, den float64
	for i := range a {
		num += cabs(a[i] - b[i])
		den += cabs(b[i])
	}
	return num / den
}

// after the melt stops the elastic solution is static, but a viscous mantle
// keeps relaxing; the run carries rotation and a second topography pass so
// the committed history is rebuilt and reconvolved
func TestViscousRelaxation(t *testing.T) {
	const n = 8
	times := []float64{0., 1., 2., 3.}
	mkInputs := func(s *Solver) *Inputs {
		in := polarScenario(s, 1000.)
		in.Ice[1] = s.Gd.NewField() // melt completes in the first interval
		in.Ice[2] = s.Gd.NewField()
		return in
	}

	sv := newTestSolver(t, Config{MaxDeg: n, Times: times, InnerTol: 1e-7, InnerMax: 15,
		Rotation: true, TopoTol: 1e-6, TopoMax: 2}, viscousLove(t, n))
	rv, err := sv.Solve(mkInputs(sv))
	if err != nil {
		t.Fatal(err)
	}
	if rv.TopoPasses != 2 {
		t.Fatalf("expected both topography passes to run, got %d", rv.TopoPasses)
	}
	for ts := 1; ts < len(times); ts++ {
		if rv.Unconverged[ts] {
			t.Fatalf("viscous run unconverged at step %d (chi %v)", ts, rv.Chi[ts])
		}
	}
	if d := relL1(rv.dSLM[3], rv.dSLM[2]); d < 1e-3 {
		t.Fatalf("no delayed relaxation after the melt stopped (relative L1 change %v)", d)
	}

	se := newTestSolver(t, Config{MaxDeg: n, Times: times, InnerTol: 1e-7, InnerMax: 15}, elasticLove(t, n))
	re, err := se.Solve(mkInputs(se))
	if err != nil {
		t.Fatal(err)
	}
	if d := relL1(re.dSLM[3], re.dSLM[2]); d > 1e-5 {
		t.Fatalf("elastic response must be static once the load is static (relative L1 change %v)", d)
	}

	// delayed relaxation never opens the mass budget
	iv0 := sv.Tr.Area(rv.Ice[0])
	for ts := 1; ts < len(times); ts++ {
		di := sv.Tr.Area(rv.Ice[ts]) - iv0
		bal := rhoWater*real(rv.dSLM[ts][0]) + rhoIce*di
		if math.Abs(bal) > 1e-6*rhoIce*math.Abs(di) {
			t.Fatalf("step %d: mass balance residual %v", ts, bal)
		}
	}
}

// a low-lying plain floods as the melt proceeds: the ocean function gains
// cells mid-run and the shoreline term keeps the budget closed
func TestShorelineMigration(t *testing.T) {
	const n = 8
	s := newTestSolver(t, Config{MaxDeg: n, Times: []float64{0., 1., 2.}}, elasticLove(t, n))
	in := polarScenario(s, 1500.)
	iP := -1
	for i, th := range s.Gd.Th {
		if th > 1.2 && th < 1.45 {
			iP = i
			break
		}
	}
	if iP < 0 {
		t.Fatal("no mid-latitude ring on the grid")
	}
	for j := range s.Gd.Lon {
		in.Topo[iP][j] = 15. // drowned by the ~50 m eustatic rise
	}

	r, err := s.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.Ocean[0][iP][0] != 0. {
		t.Fatal("the plain must start dry")
	}
	if r.Ocean[2][iP][0] != 1. {
		t.Fatal("the plain must be flooded once the melt completes")
	}
	iv0 := s.Tr.Area(r.Ice[0])
	for ts := 1; ts < len(r.Times); ts++ {
		if r.Unconverged[ts] {
			continue
		}
		di := s.Tr.Area(r.Ice[ts]) - iv0
		bal := rhoWater*real(r.dSLM[ts][0]) + rhoIce*di
		if math.Abs(bal) > 1e-6*rhoIce*math.Abs(di) {
			t.Fatalf("step %d: mass balance residual %v", ts, bal)
		}
	}
}

// elastic tables spanning degrees beyond the truncation are valid input and
// must solve identically to exact-span tables
func TestLoveTablesWiderThanTruncation(t *testing.T) {
	const n = 8
	times := []float64{0., 1.}
	sw := newTestSolver(t, Config{MaxDeg: n, Times: times}, elasticLove(t, n+4))
	rw, err := sw.Solve(polarScenario(sw, 1000.))
	if err != nil {
		t.Fatal(err)
	}
	if rw.Unconverged[1] {
		t.Fatal("wide-table run did not converge")
	}
	se := newTestSolver(t, Config{MaxDeg: n, Times: times}, elasticLove(t, n))
	re, err := se.Solve(polarScenario(se, 1000.))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rw.Esl[1]-re.Esl[1]) > 1e-12*math.Abs(re.Esl[1]) {
		t.Fatalf("table span changed the solution: %v vs %v", rw.Esl[1], re.Esl[1])
	}
	if d := relL1(rw.dSLM[1], re.dSLM[1]); d > 1e-12 {
		t.Fatalf("table span changed the committed spectra (relative L1 %v)", d)
	}
}

func TestBoundaryRejections(t *testing.T) {
	ln := elasticLove(t, 4)
	if _, err := New(Config{MaxDeg: 0, Times: []float64{0., 1.}}, ln, nil); err == nil {
		t.Fatal("degree 0 must be rejected")
	}
	if _, err := New(Config{MaxDeg: 4, Times: []float64{0.}}, ln, nil); err == nil {
		t.Fatal("a single-sample ice history must be rejected")
	}
	if _, err := New(Config{MaxDeg: 4, Times: []float64{0., 1., 1.}}, ln, nil); err == nil {
		t.Fatal("a non-increasing time grid must be rejected")
	}
	if _, err := New(Config{MaxDeg: 8, Times: []float64{0., 1.}}, ln, nil); err == nil {
		t.Fatal("love tables shorter than the truncation must be rejected")
	}
	if _, err := New(Config{MaxDeg: 1, Times: []float64{0., 1.}, Rotation: true}, elasticLove(t, 1), nil); err == nil {
		t.Fatal("rotational feedback below degree 2 must be rejected")
	}
}

// a dry planet cannot normalize the eustatic correction; the failure is a
// distinct, typed error
func TestDryOceanFatal(t *testing.T) {
	const n = 8
	s := newTestSolver(t, Config{MaxDeg: n, Times: []float64{0., 1.}}, elasticLove(t, n))
	in := polarScenario(s, 1000.)
	for i := range in.Topo {
		for j := range in.Topo[i] {
			in.Topo[i][j] = 100.
		}
	}
	_, err := s.Solve(in)
	var oae *OceanAreaError
	if !errors.As(err, &oae) {
		t.Fatalf("expected OceanAreaError, got %v", err)
	}
}

// bandLake impounds a proglacial lake in a fixed colatitude band whose depth
// grows as the polar ice thins; deterministic in its inputs. It records the
// shape of the anomaly field it is handed.
type bandLake struct {
	hice     float64
	anomRows *int
}

func (b bandLake) Detect(iceHi, topoAnom [][]float64, gd, hd *grid.Grid, _ int) ([][]float64, [][]float64) {
	if b.anomRows != nil {
		*b.anomRows = len(topoAnom)
	}
	var hmax float64
	for i := range iceHi {
		for j := range iceHi[i] {
			if iceHi[i][j] > hmax {
				hmax = iceHi[i][j]
			}
		}
	}
	depth := 20. * (1. - hmax/b.hice)
	lake := gd.NewField()
	for i, th := range gd.Th {
		if th < capth || th > capth+0.25 {
			continue
		}
		for j := range lake[i] {
			lake[i][j] = depth
		}
	}
	if hd == nil {
		return lake, nil
	}
	return lake, hd.NewField()
}

func TestLakeCoupling(t *testing.T) {
	const n = 8
	cfg := Config{MaxDeg: n, Times: []float64{0., 1., 2.}, Lakes: true, InnerTol: 1e-6, InnerMax: 10}
	anomRows := 0
	s, err := New(cfg, elasticLove(t, n), bandLake{hice: 1000., anomRows: &anomRows})
	if err != nil {
		t.Fatal(err)
	}
	in := polarScenario(s, 1000.)
	in.HiGrid, _ = grid.Uniform(20, 40)
	in.TopoHi = in.HiGrid.NewField()
	in.IceHi = in.Ice // detector only reads the ice geometry
	in.Sampling = 2

	r, err := s.Solve(in)
	if err != nil {
		t.Fatal(err)
	}
	if r.LakeVol[0] != 0. {
		t.Fatalf("full-glacial lake volume should be 0, got %v", r.LakeVol[0])
	}
	if anomRows != in.HiGrid.Nlat {
		t.Fatalf("detector received a %d-row anomaly, expected the %d-row high-resolution grid", anomRows, in.HiGrid.Nlat)
	}
	if r.LakeVol[2] <= r.LakeVol[1] || r.LakeVol[1] <= 0. {
		t.Fatalf("lake volume should grow with the melt: %v", r.LakeVol)
	}
	// closure now carries the impounded water
	iv0 := s.Tr.Area(r.Ice[0])
	for ts := 1; ts < len(r.Times); ts++ {
		if r.Unconverged[ts] {
			continue
		}
		di := s.Tr.Area(r.Ice[ts]) - iv0
		bal := rhoWater*(real(r.dSLM[ts][0])+r.LakeVol[ts]-r.LakeVol[0]) + rhoIce*di
		if math.Abs(bal) > 1e-6*rhoIce*math.Abs(di) {
			t.Fatalf("step %d: mass balance residual %v", ts, bal)
		}
	}
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
