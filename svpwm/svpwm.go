// Package svpwm implements the space-vector modulation core of an
// open-loop three-phase drive: sector classification of the commanded
// voltage vector, switching-time derivation with overmodulation
// handling, and center-aligned duty synthesis quantized to timer
// compare units.
package svpwm

const (
	Sqrt3     = 1.7320508075688772 // √3
	Sqrt3Half = 0.8660254037844386 // √3/2
)

// Sector identifies one of the six 60° wedges of the voltage-vector
// hexagon. SectorNone is the sentinel for the degenerate all-low /
// all-high projection patterns (only reachable at the exact origin).
type Sector uint8

const SectorNone Sector = 0

// sectorTable maps the projection sign pattern A + 2B + 4C to a
// geometric sector. Indices 0 and 7 cannot occur for a nonzero vector.
var sectorTable = [8]Sector{0, 2, 6, 1, 4, 3, 5, 0}

// Classify maps a stationary-frame voltage vector to its hexagon
// sector by testing its projections onto three axes spaced 120° apart.
// The tests are strictly greater-than-zero, so a vector lying exactly
// on a sector boundary lands in the sector selected by the boundary
// bit pattern. This keeps boundary classification deterministic.
func Classify(alpha, beta float64) Sector {
	vref1 := beta
	vref2 := Sqrt3Half*alpha - 0.5*beta
	vref3 := -Sqrt3Half*alpha - 0.5*beta

	idx := 0
	if vref1 > 0 {
		idx |= 1
	}
	if vref2 > 0 {
		idx |= 2
	}
	if vref3 > 0 {
		idx |= 4
	}
	return sectorTable[idx]
}
