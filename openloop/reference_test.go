package openloop

import (
	"math"
	"testing"
)

func TestSetCommandClamping(t *testing.T) {
	r := NewReference()

	r.SetCommand(50, 1.5)
	if r.Magnitude() != 1 {
		t.Errorf("magnitude=%v want clamp to 1", r.Magnitude())
	}
	r.SetCommand(50, -0.2)
	if r.Magnitude() != 0 {
		t.Errorf("magnitude=%v want clamp to 0", r.Magnitude())
	}

	r.SetCommand(-50, 0.5)
	if want := -2 * math.Pi * 50; r.AngularSpeed() != want {
		t.Errorf("omega=%v want %v (reverse rotation is legal)", r.AngularSpeed(), want)
	}
}

func TestTickVector(t *testing.T) {
	r := NewReference()
	r.SetCommand(50, 0.5)

	v := r.Tick(1e-3)
	if got := math.Hypot(v.Alpha, v.Beta); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("vector magnitude=%v want 0.5", got)
	}
	want := 2 * math.Pi * 50 * 1e-3
	if math.Abs(r.Angle()-want) > 1e-12 {
		t.Errorf("angle=%v want %v", r.Angle(), want)
	}
}

func TestTickFullRevolution(t *testing.T) {
	// 1 kHz electrical at a 100 µs tick: ten ticks make exactly one
	// revolution and the wrapped angle must land back at zero.
	r := NewReference()
	r.SetCommand(1000, 1)

	var v VoltageVector
	for i := 0; i < 10; i++ {
		v = r.Tick(1e-4)
	}

	angle := r.Angle()
	dist := math.Min(angle, 2*math.Pi-angle)
	if dist > 1e-9 {
		t.Errorf("angle after full revolution=%v want ~0", angle)
	}
	if math.Abs(v.Alpha-1) > 1e-9 || math.Abs(v.Beta) > 1e-9 {
		t.Errorf("vector after full revolution=(%v,%v) want (1,0)", v.Alpha, v.Beta)
	}
}

func TestTickReverseWrap(t *testing.T) {
	r := NewReference()
	r.SetCommand(-1000, 1)

	r.Tick(1e-4)
	step := 2 * math.Pi * 1000 * 1e-4
	want := 2*math.Pi - step
	if math.Abs(r.Angle()-want) > 1e-12 {
		t.Errorf("angle=%v want %v after negative wrap", r.Angle(), want)
	}
	if r.Angle() < 0 || r.Angle() >= 2*math.Pi {
		t.Errorf("angle %v escaped [0, 2π)", r.Angle())
	}
}

func TestTickZeroSpeedHoldsAngle(t *testing.T) {
	r := NewReference()
	r.SetCommand(0, 0.8)

	r.Tick(1e-4)
	v := r.Tick(1e-4)
	if r.Angle() != 0 {
		t.Errorf("angle drifted to %v at zero speed", r.Angle())
	}
	if v.Alpha != 0.8 || v.Beta != 0 {
		t.Errorf("vector=(%v,%v) want (0.8,0)", v.Alpha, v.Beta)
	}
}
