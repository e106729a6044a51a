package svpwm

import "math"

// dutySelect holds the per-sector on-fraction assignment for the
// symmetric center-aligned sequence. Entry [s][p] gives the (T1, T2)
// coefficients for phase p (A, B, C); every phase additionally carries
// the shared T0/2 margin at both ends of the period. Row 0 is the
// sentinel.
//
// Example, sector 1 (000 → 100 → 110 → 111 and back): phase A is high
// during both active vectors plus the 111 margin, phase B during the
// second active vector plus the margin, phase C only during the margin.
var dutySelect = [7][3][2]float64{
	{},
	{{1, 1}, {0, 1}, {0, 0}}, // sector 1
	{{1, 0}, {1, 1}, {0, 0}}, // sector 2
	{{0, 0}, {1, 1}, {0, 1}}, // sector 3
	{{0, 0}, {1, 0}, {1, 1}}, // sector 4
	{{0, 1}, {0, 0}, {1, 1}}, // sector 5
	{{1, 1}, {0, 0}, {1, 0}}, // sector 6
}

// Duties maps the switching-time fractions of a sector to the three
// phase on-fractions. The sentinel sector yields a safe symmetric 50%
// on all phases (zero average output voltage).
func Duties(sector Sector, t1, t2, t0 float64) (a, b, c float64) {
	if sector < 1 || sector > 6 {
		return 0.5, 0.5, 0.5
	}
	half := t0 * 0.5
	sel := &dutySelect[sector]
	a = sel[0][0]*t1 + sel[0][1]*t2 + half
	b = sel[1][0]*t1 + sel[1][1]*t2 + half
	c = sel[2][0]*t1 + sel[2][1]*t2 + half
	return a, b, c
}

// Quantize converts a duty fraction to a timer compare value in
// [0, periodTicks]. Rounding at duty 1.0 can land one past the counter
// period, so the result is clamped to the ceiling.
func Quantize(duty float64, periodTicks uint32) uint32 {
	v := int64(math.Round(duty * float64(periodTicks+1)))
	if v < 0 {
		return 0
	}
	if v > int64(periodTicks) {
		return periodTicks
	}
	return uint32(v)
}
