package svpwm

// timeSelect picks the two active-vector durations per sector as
// coefficient rows over the common intermediates (X, Y, Z):
//
//	X = √3·β
//	Y = 1.5·α + (√3/2)·β
//	Z = −1.5·α + (√3/2)·β
//
// Row [s][0] yields T1, row [s][1] yields T2. Row 0 is the sentinel.
var timeSelect = [7][2][3]float64{
	{},
	{{0, 1, 0}, {1, 0, 0}},   // sector 1: T1 = Y,  T2 = X
	{{0, 0, -1}, {0, 1, 0}},  // sector 2: T1 = −Z, T2 = Y
	{{1, 0, 0}, {0, 0, 1}},   // sector 3: T1 = X,  T2 = Z
	{{0, -1, 0}, {-1, 0, 0}}, // sector 4: T1 = −Y, T2 = −X
	{{0, 0, 1}, {0, -1, 0}},  // sector 5: T1 = Z,  T2 = −Y
	{{-1, 0, 0}, {0, 0, -1}}, // sector 6: T1 = −X, T2 = −Z
}

// CalcTimes derives the fractional on-times of the two active vectors
// bounding the given sector and the remaining zero-vector time, all as
// fractions of one switching period.
//
// Negative T1/T2 from rounding near a sector boundary are clamped to
// zero. If T1+T2 exceeds the period the pair is rescaled by its sum,
// which clips the commanded magnitude to the hexagon boundary while
// preserving the T1:T2 ratio, and the zero vector is suppressed.
// The sentinel sector yields (0, 0, 1).
func CalcTimes(alpha, beta float64, sector Sector) (t1, t2, t0 float64) {
	if sector < 1 || sector > 6 {
		return 0, 0, 1
	}

	x := Sqrt3 * beta
	y := 1.5*alpha + Sqrt3Half*beta
	z := -1.5*alpha + Sqrt3Half*beta

	sel := &timeSelect[sector]
	t1 = sel[0][0]*x + sel[0][1]*y + sel[0][2]*z
	t2 = sel[1][0]*x + sel[1][1]*y + sel[1][2]*z

	if t1 < 0 {
		t1 = 0
	}
	if t2 < 0 {
		t2 = 0
	}

	sum := t1 + t2
	if sum > 1 {
		t1 /= sum
		t2 /= sum
		return t1, t2, 0
	}
	return t1, t2, 1 - sum
}
