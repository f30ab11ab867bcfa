package slcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"

	"github.com/maseology/mmio"
)

// Write dumps the run output under dir: per-step topography, ocean-function
// and relative-sea-level rasters as little-endian float32 grids, and the
// scalar series as CSV.
func (r *Results) Write(dir string) error {
	mmio.MakeDir(dir)
	for t := range r.Times {
		if err := writeField(fmt.Sprintf("%s/topo.%03d.bin", dir, t), r.Topo[t]); err != nil {
			return err
		}
		if err := writeField(fmt.Sprintf("%s/ocean.%03d.bin", dir, t), r.Ocean[t]); err != nil {
			return err
		}
		if err := writeField(fmt.Sprintf("%s/rsl.%03d.bin", dir, t), r.RSL[t]); err != nil {
			return err
		}
		if r.Lake[t] != nil {
			if err := writeField(fmt.Sprintf("%s/lake.%03d.bin", dir, t), r.Lake[t]); err != nil {
				return err
			}
		}
	}

	n := len(r.Times)
	ct, ce, cg, ca, cv, ci := make([]interface{}, n), make([]interface{}, n), make([]interface{}, n), make([]interface{}, n), make([]interface{}, n), make([]interface{}, n)
	for t := 0; t < n; t++ {
		ct[t] = r.Times[t]
		ce[t] = r.Esl[t]
		cg[t] = r.Gmsl[t]
		ca[t] = r.OceanArea[t]
		cv[t] = r.LakeVol[t]
		ci[t] = r.Iters[t]
	}
	mmio.WriteCSV(dir+"/series.csv", "time,esl,gmsl,oceanarea,lakevol,iters", ct, ce, cg, ca, cv, ci)
	return nil
}

func writeField(fp string, f [][]float64) error {
	f32 := make([]float32, 0, len(f)*len(f[0]))
	for i := range f {
		for j := range f[i] {
			f32 = append(f32, float32(f[i][j]))
		}
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, f32); err != nil {
		return fmt.Errorf("writeField failed: %v", err)
	}
	if err := ioutil.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writeField failed: %v", err)
	}
	return nil
}
