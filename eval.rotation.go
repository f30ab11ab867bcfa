package slcode

import "math"

// Rotational feedback: the degree-2 components of the load perturb the inertia
// tensor, the rotation vector wanders, and the shifted centrifugal potential
// perturbs sea level. The increments accumulate across the whole ice history
// (sdelI, sdelm, sdLa are never rebuilt from scratch) and are committed once
// per time step by the caller; within a step the current load only supplies a
// candidate increment.

// rotFeedback returns the candidate per-step increments for step t given the
// current intra-step load increment dL (change since the last committed step),
// along with the spectral sea-level feedback term (1/g)*(ET*La + viscous),
// nonzero only at the packed (0,0) and degree-2 slots.
func (s *Solver) rotFeedback(st *state, t int, dL []complex128) (dI, dm [3]float64, dLa [4]complex128, rot []complex128) {
	p := s.Tr.P
	i00, i20, i21 := p.Pack(0, 0), p.Pack(2, 0), p.Pack(2, 1)

	// inertia perturbation increment from the degree-2 (and degree-0) load
	a4 := aEarth * aEarth * aEarth * aEarth
	c14 := a4 * math.Sqrt(2./15.)
	dI[0] = -c14 * real(dL[i21])
	dI[1] = c14 * imag(dL[i21])
	dI[2] = a4 * (2./3.*real(dL[i00]) - 2./(3.*math.Sqrt(5.))*real(dL[i20]))

	// effective inertia: elastic degree-2 load response plus the viscous
	// convolution over the committed increment history
	var hist [3][]float64
	for c := 0; c < 3; c++ {
		hist[c] = make([]float64, t)
		for n := 1; n < t; n++ {
			hist[c][n-1] = st.dI[n][c]
		}
	}
	k2 := s.Ln.K[2]
	bt := 1. / (1. - s.Ln.KT[2]/kf)
	var m [3]float64
	for c := 0; c < 2; c++ {
		ie := (1.+k2)*(st.sdelI[c]+dI[c]) + s.Bt.ConvolveK2(t, hist[c])
		mvisc := make([]float64, t)
		for n := 1; n < t; n++ {
			mvisc[n-1] = st.dm[n][c]
		}
		m[c] = bt * (ie/ccmA + s.Bt.ConvolveKT2(t, mvisc)/kf)
	}
	m[2] = -((1.+k2)*(st.sdelI[2]+dI[2]) + s.Bt.ConvolveK2(t, hist[2])) / cmi
	for c := 0; c < 3; c++ {
		dm[c] = m[c] - st.sdelm[c]
	}

	// centrifugal potential perturbation at (0,0) and the degree-2 orders;
	// coefficients carry the 4pi of the transform's spectral convention
	w2a2 := 4. * math.Pi * omega * omega * aEarth * aEarth
	m1, m2, m3 := m[0], m[1], m[2]
	la := [4]complex128{
		complex(w2a2/3.*(m1*m1+m2*m2+m3*m3+2.*m3), 0),
		complex(w2a2/(6.*math.Sqrt(5.))*(m1*m1+m2*m2-2.*m3*m3-4.*m3), 0),
		complex(w2a2/math.Sqrt(15.)*m1*(1.+m3), -w2a2/math.Sqrt(15.)*m2*(1.+m3)),
		complex(w2a2*math.Sqrt(1./60.)*(m2*m2-m1*m1), w2a2*math.Sqrt(1./60.)*2.*m1*m2),
	}
	for c := 0; c < 4; c++ {
		dLa[c] = la[c] - st.sdLa[c]
	}

	// sea-level feedback: tidal-effective response to the total potential
	// perturbation plus the tidal viscous convolution over committed steps
	rot = make([]complex128, p.Len())
	var vr [4]complex128
	if t >= 1 {
		for n := 1; n < t; n++ {
			w := complex(s.Bt.KT2[t][n-1], 0)
			for c := 1; c < 4; c++ {
				vr[c] += w * st.dLa[n][c]
			}
		}
	}
	et2 := complex(s.Ln.ET[2], 0)
	g := complex(gSurf, 0)
	rot[i00] = la[0] / g
	for c, idx := 1, i20; c < 4; c, idx = c+1, idx+1 {
		rot[idx] = (et2*la[c] + vr[c]) / g
	}
	return dI, dm, dLa, rot
}
