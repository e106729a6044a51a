package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validProfile = `{
  "meta": {"name": "test", "version": 1},
  "timing": {"control_freq_hz": 1000, "duration_s": 30, "telemetry_hz": 10},
  "pwm": {"period_ticks": 8499},
  "defaults": {"frequency_hz": 0, "voltage": 0},
  "segments": [
    {"t0": 0, "t1": 10, "frequency_hz": 50, "voltage": 0.8, "ramp": true},
    {"t0": 10, "t1": 20, "frequency_hz": 50, "voltage": 0.8},
    {"t0": 20, "t1": -1, "frequency_hz": -25, "voltage": 0.4}
  ]
}`

func TestLoadProfileDefaultsMode(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, validProfile))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Meta.ControlMode != "open_loop" {
		t.Errorf("control_mode=%q want open_loop default", p.Meta.ControlMode)
	}
	if len(p.Segments) != 3 {
		t.Errorf("segments=%d", len(p.Segments))
	}
}

func TestLoadProfileValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero duration", `{"timing": {"control_freq_hz": 1000, "duration_s": 0}, "pwm": {"period_ticks": 100}}`},
		{"zero control freq", `{"timing": {"control_freq_hz": 0, "duration_s": 10}, "pwm": {"period_ticks": 100}}`},
		{"zero period", `{"timing": {"control_freq_hz": 1000, "duration_s": 10}, "pwm": {"period_ticks": 0}}`},
		{"vf without config", `{"meta": {"control_mode": "vf"}, "timing": {"control_freq_hz": 1000, "duration_s": 10}, "pwm": {"period_ticks": 100}}`},
		{"unknown mode", `{"meta": {"control_mode": "sensorless_foc"}, "timing": {"control_freq_hz": 1000, "duration_s": 10}, "pwm": {"period_ticks": 100}}`},
		{"telemetry above control rate", `{"timing": {"control_freq_hz": 100, "duration_s": 10, "telemetry_hz": 1000}, "pwm": {"period_ticks": 100}}`},
	}
	for _, tc := range cases {
		if _, err := LoadProfile(writeProfile(t, tc.body)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestEvalCommandStepAndHold(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, validProfile))
	if err != nil {
		t.Fatal(err)
	}

	// Step segment.
	cmd := EvalCommand(&p, 15)
	if cmd.FrequencyHz != 50 || cmd.Voltage != 0.8 {
		t.Errorf("t=15: %+v", cmd)
	}

	// Open-ended final segment (t1 < 0 extends to the duration).
	cmd = EvalCommand(&p, 25)
	if cmd.FrequencyHz != -25 || cmd.Voltage != 0.4 {
		t.Errorf("t=25: %+v", cmd)
	}

	// Past the duration nothing matches; defaults apply.
	cmd = EvalCommand(&p, 31)
	if cmd.FrequencyHz != 0 || cmd.Voltage != 0 {
		t.Errorf("t=31: %+v", cmd)
	}
}

func TestEvalCommandRamp(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, validProfile))
	if err != nil {
		t.Fatal(err)
	}

	// Halfway up the first ramp: defaults (0,0) toward (50, 0.8).
	cmd := EvalCommand(&p, 5)
	if math.Abs(cmd.FrequencyHz-25) > 1e-9 || math.Abs(cmd.Voltage-0.4) > 1e-9 {
		t.Errorf("t=5: %+v want ramp midpoint (25, 0.4)", cmd)
	}

	// Ramp start matches the previous target exactly.
	cmd = EvalCommand(&p, 0)
	if cmd.FrequencyHz != 0 || cmd.Voltage != 0 {
		t.Errorf("t=0: %+v want ramp origin", cmd)
	}
}

func TestEvalCommandVoltsPerHertz(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, `{
	  "meta": {"control_mode": "vf"},
	  "timing": {"control_freq_hz": 1000, "duration_s": 10},
	  "pwm": {"period_ticks": 8499},
	  "vf_config": {"volts_per_hertz": 0.016, "boost_voltage": 0.05},
	  "segments": [
	    {"t0": 0, "t1": 5, "frequency_hz": 25, "voltage": 0.99},
	    {"t0": 5, "t1": -1, "frequency_hz": -100, "voltage": 0.99}
	  ]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	// Voltage is derived from |f|, the segment voltage is ignored.
	cmd := EvalCommand(&p, 1)
	if math.Abs(cmd.Voltage-(0.05+0.016*25)) > 1e-9 {
		t.Errorf("t=1: voltage=%v want boost + vph*25", cmd.Voltage)
	}

	// Reverse rotation uses |f| and clamps at 1.0.
	cmd = EvalCommand(&p, 6)
	if cmd.FrequencyHz != -100 {
		t.Errorf("t=6: freq=%v", cmd.FrequencyHz)
	}
	if cmd.Voltage != 1 {
		t.Errorf("t=6: voltage=%v want clamp to 1", cmd.Voltage)
	}
}
