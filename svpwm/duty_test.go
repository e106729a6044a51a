package svpwm

import (
	"math"
	"testing"
)

func TestDutiesPerSector(t *testing.T) {
	const t1, t2, t0 = 0.3, 0.2, 0.5
	cases := []struct {
		sector  Sector
		a, b, c float64
	}{
		{1, 0.75, 0.45, 0.25},
		{2, 0.55, 0.75, 0.25},
		{3, 0.25, 0.75, 0.45},
		{4, 0.25, 0.55, 0.75},
		{5, 0.45, 0.25, 0.75},
		{6, 0.75, 0.25, 0.55},
	}
	for _, tc := range cases {
		a, b, c := Duties(tc.sector, t1, t2, t0)
		if math.Abs(a-tc.a) > eps || math.Abs(b-tc.b) > eps || math.Abs(c-tc.c) > eps {
			t.Errorf("sector %d: got (%v,%v,%v) want (%v,%v,%v)",
				tc.sector, a, b, c, tc.a, tc.b, tc.c)
		}
	}
}

func TestDutiesSentinelFallback(t *testing.T) {
	a, b, c := Duties(SectorNone, 0.3, 0.2, 0.5)
	if a != 0.5 || b != 0.5 || c != 0.5 {
		t.Errorf("sentinel: got (%v,%v,%v) want symmetric 0.5", a, b, c)
	}
}

func TestDutiesBounded(t *testing.T) {
	for deg := 0; deg < 360; deg++ {
		theta := float64(deg) * math.Pi / 180
		for _, m := range []float64{0.2, 1.0, 1.5} {
			alpha := m * math.Cos(theta)
			beta := m * math.Sin(theta)
			sector := Classify(alpha, beta)
			t1, t2, t0 := CalcTimes(alpha, beta, sector)
			a, b, c := Duties(sector, t1, t2, t0)
			for _, d := range []float64{a, b, c} {
				if d < 0 || d > 1+1e-9 {
					t.Fatalf("theta=%d m=%v: duty %v out of range", deg, m, d)
				}
			}
		}
	}
}

// TestDutyReconstruction inverts the duty synthesis back to the
// commanded vector. The per-sector maps are linear, so wherever no
// clamp or rescale fires the original (α, β) must come back exactly.
// Sectors 2 and 5 clamp their first active time over the whole wedge
// and are covered by TestCalcTimesNegativeClamp instead.
func TestDutyReconstruction(t *testing.T) {
	const m = 0.2
	cases := []struct {
		sector Sector
		theta  float64 // mid-wedge angle, radians
	}{
		{1, 30 * math.Pi / 180},
		{3, 150 * math.Pi / 180},
		{4, 210 * math.Pi / 180},
		{6, 330 * math.Pi / 180},
	}

	for _, tc := range cases {
		alpha := m * math.Cos(tc.theta)
		beta := m * math.Sin(tc.theta)

		sector := Classify(alpha, beta)
		if sector != tc.sector {
			t.Fatalf("theta=%v: sector=%d want %d", tc.theta, sector, tc.sector)
		}
		t1c, t2c, t0c := CalcTimes(alpha, beta, sector)
		a, b, c := Duties(sector, t1c, t2c, t0c)

		// Recover the active times from the duty pattern, then the
		// vector from the sector's projection pair.
		var t1, t2, ar, br float64
		switch sector {
		case 1: // t1=Y t2=X
			t1, t2 = a-b, b-c
			br = t2 / Sqrt3
			ar = (t1 - Sqrt3Half*br) / 1.5
		case 3: // t1=X t2=Z
			t1, t2 = b-c, c-a
			br = t1 / Sqrt3
			ar = (Sqrt3Half*br - t2) / 1.5
		case 4: // t1=−Y t2=−X
			t1, t2 = b-a, c-b
			br = -t2 / Sqrt3
			ar = (-t1 - Sqrt3Half*br) / 1.5
		case 6: // t1=−X t2=−Z
			t1, t2 = c-b, a-c
			br = -t1 / Sqrt3
			ar = (t2 + Sqrt3Half*br) / 1.5
		}

		if math.Abs(ar-alpha) > 1e-12 || math.Abs(br-beta) > 1e-12 {
			t.Errorf("sector %d: reconstructed (%v,%v) want (%v,%v)",
				sector, ar, br, alpha, beta)
		}
	}
}

func TestQuantize(t *testing.T) {
	const period = 8499
	cases := []struct {
		duty float64
		want uint32
	}{
		{0, 0},
		{0.5, 4250},
		{0.75, 6375},
		{0.9999, 8499},
		{1.0, period}, // round lands at period+1, clamped
		{-0.1, 0},
		{1.2, period},
	}
	for _, tc := range cases {
		if got := Quantize(tc.duty, period); got != tc.want {
			t.Errorf("Quantize(%v)=%d want %d", tc.duty, got, tc.want)
		}
	}
}
