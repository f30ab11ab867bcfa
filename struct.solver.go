package slcode

import (
	"fmt"

	"github.com/bangerth/SLcode/grid"
	"github.com/bangerth/SLcode/love"
	"github.com/bangerth/SLcode/sht"
)

// Config sets the numerical controls of a run. Zero values take defaults from
// check().
type Config struct {
	MaxDeg int       // spherical-harmonic truncation degree
	Times  []float64 // ice-history time grid, strictly increasing, oldest first [ka]

	InnerTol float64 // per-step fixed-point tolerance on the relative L1-norm change
	InnerMax int     // per-step iteration ceiling
	TopoTol  float64 // outer topography-consistency tolerance [m]
	TopoMax  int     // outer pass ceiling

	Rotation      bool // rotational feedback
	Lakes         bool // proglacial-lake coupling (requires a detector and hi-res inputs)
	CheckFloating bool // buoyancy-based floating-ice removal each outer pass

	Verbose bool
}

func (c *Config) check() error {
	if c.MaxDeg < 1 {
		return fmt.Errorf("config: truncation degree must be >= 1, got %d", c.MaxDeg)
	}
	if len(c.Times) < 2 {
		return fmt.Errorf("config: an ice history needs at least 2 time samples to form an incremental change, got %d", len(c.Times))
	}
	for i := 1; i < len(c.Times); i++ {
		if c.Times[i] <= c.Times[i-1] {
			return fmt.Errorf("config: time grid must be strictly increasing (index %d)", i)
		}
	}
	if c.InnerTol <= 0. {
		c.InnerTol = 1e-4
	}
	if c.InnerMax <= 0 {
		c.InnerMax = 10
	}
	if c.TopoTol <= 0. {
		c.TopoTol = 1.
	}
	if c.TopoMax <= 0 {
		c.TopoMax = 1
	}
	return nil
}

// Inputs are the externally produced fields consumed by the solver: the ice
// thickness history on the native grid (one field per time sample) and the
// present-day, ice-corrected bedrock topography. The optional high-resolution
// companions are passed through opaquely to the lake detector.
type Inputs struct {
	Ice  [][][]float64 // [time][lat][lon] thickness [m]
	Topo [][]float64   // present-day topography [m], positive above sea level

	HiGrid   *grid.Grid
	IceHi    [][][]float64
	TopoHi   [][]float64
	Sampling int // hi-res nodes per native node (lake detector contract)
}

// Solver owns the immutable machinery of a run: grid, transform, Love-number
// tables and their beta kernels, plus the configuration and the lake
// collaborator. Build one with New, then call Solve.
type Solver struct {
	Cfg Config
	Gd  *grid.Grid
	Tr  *sht.Transform
	Ln  *love.Numbers
	Bt  *love.Beta
	Lk  LakeDetector
}

// New validates cfg against the Love tables and precomputes the grid,
// transform and beta kernels.
func New(cfg Config, ln *love.Numbers, lk LakeDetector) (*Solver, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if ln == nil {
		return nil, fmt.Errorf("slcode.New: nil Love-number tables")
	}
	if ln.N < cfg.MaxDeg {
		return nil, fmt.Errorf("slcode.New: Love tables span degree %d < truncation %d", ln.N, cfg.MaxDeg)
	}
	if cfg.Rotation && cfg.MaxDeg < 2 {
		return nil, fmt.Errorf("slcode.New: rotational feedback needs truncation degree >= 2, got %d", cfg.MaxDeg)
	}
	if cfg.Lakes && lk == nil {
		return nil, fmt.Errorf("slcode.New: lakes enabled without a detector")
	}
	gd, err := grid.New(cfg.MaxDeg)
	if err != nil {
		return nil, err
	}
	bt, err := love.NewBeta(ln, cfg.MaxDeg, cfg.Times)
	if err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg, Gd: gd, Tr: sht.New(gd), Ln: ln, Bt: bt, Lk: lk}, nil
}

func (s *Solver) checkInputs(in *Inputs) error {
	nt := len(s.Cfg.Times)
	if len(in.Ice) != nt {
		return fmt.Errorf("inputs: ice history has %d fields for %d time samples", len(in.Ice), nt)
	}
	for t, f := range in.Ice {
		if len(f) != s.Gd.Nlat || len(f[0]) != s.Gd.Nlon {
			return fmt.Errorf("inputs: ice field %d is %dx%d, grid is %dx%d", t, len(f), len(f[0]), s.Gd.Nlat, s.Gd.Nlon)
		}
	}
	if len(in.Topo) != s.Gd.Nlat || len(in.Topo[0]) != s.Gd.Nlon {
		return fmt.Errorf("inputs: topography is %dx%d, grid is %dx%d", len(in.Topo), len(in.Topo[0]), s.Gd.Nlat, s.Gd.Nlon)
	}
	if s.Cfg.Lakes && (in.HiGrid == nil || in.IceHi == nil || in.TopoHi == nil) {
		return fmt.Errorf("inputs: lakes enabled without high-resolution companion grids")
	}
	return nil
}
