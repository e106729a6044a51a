// Package openloop generates the rotating voltage-vector reference for
// an open-loop V/f drive: a commanded electrical frequency is
// integrated into an electrical angle once per control tick.
package openloop

import "math"

const twoPi = 2 * math.Pi

// VoltageVector is the commanded stator voltage in the stationary
// orthogonal frame, components normalized to roughly [-1, +1].
type VoltageVector struct {
	Alpha float64
	Beta  float64
}

// Reference integrates a commanded angular speed into an electrical
// angle and produces the rotating voltage vector each tick.
//
// Tick runs on the periodic driver goroutine. SetCommand may be called
// from one lower-priority command source; the individual field writes
// race benignly with the next Tick, but concurrent SetCommand callers
// must serialize among themselves (single-writer contract, no internal
// locking).
type Reference struct {
	angle     float64 // electrical angle, kept in [0, 2π)
	omega     float64 // angular speed [rad/s], signed
	magnitude float64 // voltage magnitude, clamped to [0, 1]
}

func NewReference() *Reference {
	return &Reference{}
}

// SetCommand stores the angular speed 2π·freqHz (negative frequency
// reverses rotation) and the voltage magnitude clamped to [0, 1].
// Out-of-range magnitudes are clamped silently; this runs against a
// timing-critical consumer and has no failure path.
func (r *Reference) SetCommand(freqHz, voltage float64) {
	r.omega = twoPi * freqHz
	if voltage > 1 {
		voltage = 1
	} else if voltage < 0 {
		voltage = 0
	}
	r.magnitude = voltage
}

// Tick advances the electrical angle by ω·dt and returns the rotated
// voltage vector. The angle is wrapped with a single conditional
// add/subtract, which assumes |ω·dt| < 2π per tick.
func (r *Reference) Tick(dt float64) VoltageVector {
	r.angle += r.omega * dt
	if r.angle >= twoPi {
		r.angle -= twoPi
	} else if r.angle < 0 {
		r.angle += twoPi
	}
	return VoltageVector{
		Alpha: r.magnitude * math.Cos(r.angle),
		Beta:  r.magnitude * math.Sin(r.angle),
	}
}

// Angle returns the current electrical angle in [0, 2π).
func (r *Reference) Angle() float64 { return r.angle }

// AngularSpeed returns the commanded angular speed in rad/s.
func (r *Reference) AngularSpeed() float64 { return r.omega }

// Magnitude returns the clamped voltage magnitude.
func (r *Reference) Magnitude() float64 { return r.magnitude }
