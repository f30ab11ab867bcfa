package main

import (
	"fmt"
	"log"
	"runtime"

	slcode "github.com/bangerth/SLcode"
	"github.com/bangerth/SLcode/love"
	"github.com/maseology/mmio"
)

func main() {

	const (
		maxdeg = 64
		outdir = "out/"
		capth  = 0.26  // polar-cap colatitude [rad]
		hice   = 1500. // initial cap thickness [m]
	)

	fmt.Println("")
	tt := mmio.NewTimer()
	defer tt.Lap(fmt.Sprintf("\nRun complete. n processes: %v", runtime.GOMAXPROCS(0)))

	// schematic elastic surface-load and tidal Love numbers
	h, k := make([]float64, maxdeg+1), make([]float64, maxdeg+1)
	ht, kt := make([]float64, maxdeg+1), make([]float64, maxdeg+1)
	for l := 1; l <= maxdeg; l++ {
		fl := float64(l)
		h[l] = -0.6 * (1. - 1./(1.+fl/2.))
		k[l] = -0.3 / (1. + fl/2.)
		ht[l] = 0.6 / (1. + fl/3.)
		kt[l] = 0.3 / (1. + fl/3.)
	}
	ln, err := love.Elastic(maxdeg, h, k, ht, kt)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := slcode.Config{
		MaxDeg:        maxdeg,
		Times:         []float64{0., 1., 2., 3., 4., 5.}, // ka
		TopoMax:       3,
		TopoTol:       .5,
		CheckFloating: true,
		Rotation:      true,
		Verbose:       true,
	}
	s, err := slcode.New(cfg, ln, slcode.NoLakes{})
	if err != nil {
		log.Fatalf("%v", err)
	}
	tt.Print("solver built")

	// synthetic deglaciation: a polar ice cap over a polar landmass melts
	// linearly to nothing; everywhere else a -3000 m ocean floor
	nt := len(cfg.Times)
	in := &slcode.Inputs{Ice: make([][][]float64, nt), Topo: s.Gd.NewField()}
	for i, th := range s.Gd.Th {
		for j := range s.Gd.Lon {
			if th < capth {
				in.Topo[i][j] = 500.
			} else {
				in.Topo[i][j] = -3000.
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

	r, err := s.Solve(in)
	if err != nil {
		log.Fatalf("%v", err)
	}
	tt.Print("solve complete")

	if err := r.Write(outdir); err != nil {
		log.Fatalf("%v", err)
	}
	for t := range r.Times {
		fmt.Printf(" %6.2f ka  esl %8.3f m  gmsl %8.3f m  ocean %.4f sr  iters %d\n",
			r.Times[t], r.Esl[t], r.Gmsl[t], r.OceanArea[t], r.Iters[t])
	}
	if !r.TopoConverged {
		fmt.Printf(" note: topography loop unconverged (misfit %.3f m)\n", r.TopoMisfit)
	}
}
