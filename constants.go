package slcode

import "math"

const (
	rhoIce   = 916.7  // [kg/m³]
	rhoWater = 1000.  // [kg/m³]
	gSurf    = 9.81   // surface gravity [m/s²]
	aEarth   = 6.371e6
	omega    = 7.292e-5 // sidereal rotation rate [rad/s]

	kf   = 0.942    // fluid tidal Love number
	ccmA = 2.634e35 // C - A, equatorial-polar moment difference [kg m²]
	cmi  = 8.034e37 // polar moment of inertia C [kg m²]

	nearzero = 1e-8

	// ocean area (degree-0 ocean-function coefficient, unit sphere) below
	// which the eustatic correction cannot be normalized
	minOceanArea = 1e-3 * 4. * math.Pi
)
