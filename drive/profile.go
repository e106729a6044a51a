package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Profile defines a complete open-loop drive run: timing, PWM scaling,
// and a schedule of frequency/voltage targets.
type Profile struct {
	Meta     ProfileMeta      `json:"meta"`
	Timing   ProfileTiming    `json:"timing"`
	PWM      PWMSettings      `json:"pwm"`
	Defaults DriveCommand     `json:"defaults"`
	Segments []ProfileSegment `json:"segments"`
	VF       *VFConfig        `json:"vf_config,omitempty"` // required in "vf" mode
}

type ProfileMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
	ControlMode string `json:"control_mode,omitempty"` // "open_loop" or "vf"
}

type ProfileTiming struct {
	ControlFreqHz float64 `json:"control_freq_hz"`
	DurationS     float64 `json:"duration_s"`
	TelemetryHz   float64 `json:"telemetry_hz"`
}

type PWMSettings struct {
	PeriodTicks uint32 `json:"period_ticks"`
}

// DriveCommand is one (frequency, voltage) target pair.
type DriveCommand struct {
	FrequencyHz float64 `json:"frequency_hz"`
	Voltage     float64 `json:"voltage"`
}

// ProfileSegment holds a target over [t0, t1). A negative t1 extends
// the segment to the profile duration. With ramp set, frequency and
// voltage are interpolated linearly from the previous segment's target
// (or the defaults) to this segment's target.
type ProfileSegment struct {
	T0          float64 `json:"t0"`
	T1          float64 `json:"t1"`
	FrequencyHz float64 `json:"frequency_hz,omitempty"`
	Voltage     float64 `json:"voltage,omitempty"`
	Ramp        bool    `json:"ramp,omitempty"`
	Comment     string  `json:"comment,omitempty"`
}

// VFConfig derives the voltage command from the frequency command with
// a constant volts-per-hertz ratio plus a low-speed boost floor, in
// normalized units.
type VFConfig struct {
	VoltsPerHertz float64 `json:"volts_per_hertz"`
	BoostVoltage  float64 `json:"boost_voltage"`
}

// LoadProfile loads and validates a drive profile from a JSON file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read file: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("unmarshal: %w", err)
	}

	if p.Timing.DurationS <= 0 {
		return Profile{}, fmt.Errorf("invalid duration_s: %f", p.Timing.DurationS)
	}
	if p.Timing.ControlFreqHz <= 0 {
		return Profile{}, fmt.Errorf("invalid control_freq_hz: %f", p.Timing.ControlFreqHz)
	}
	if p.PWM.PeriodTicks == 0 {
		return Profile{}, fmt.Errorf("invalid period_ticks: 0")
	}
	if p.Timing.TelemetryHz < 0 || p.Timing.TelemetryHz > p.Timing.ControlFreqHz {
		return Profile{}, fmt.Errorf("invalid telemetry_hz: %f", p.Timing.TelemetryHz)
	}

	if p.Meta.ControlMode == "" {
		p.Meta.ControlMode = "open_loop"
	}
	switch p.Meta.ControlMode {
	case "open_loop":
	case "vf":
		if p.VF == nil {
			return Profile{}, fmt.Errorf("vf mode requires vf_config")
		}
		if p.VF.VoltsPerHertz <= 0 {
			return Profile{}, fmt.Errorf("invalid volts_per_hertz: %f", p.VF.VoltsPerHertz)
		}
	default:
		return Profile{}, fmt.Errorf("unknown control_mode %q", p.Meta.ControlMode)
	}

	return p, nil
}

// EvalCommand evaluates the profile at time t. Outside any segment the
// defaults apply. In "vf" mode the voltage is re-derived from the
// evaluated frequency.
func EvalCommand(p *Profile, t float64) DriveCommand {
	cmd := p.Defaults
	from := p.Defaults

	for _, seg := range p.Segments {
		end := seg.T1
		if end < 0 {
			end = p.Timing.DurationS
		}
		target := DriveCommand{FrequencyHz: seg.FrequencyHz, Voltage: seg.Voltage}

		if t >= seg.T0 && t < end {
			if seg.Ramp && end > seg.T0 {
				u := (t - seg.T0) / (end - seg.T0)
				cmd.FrequencyHz = from.FrequencyHz + u*(target.FrequencyHz-from.FrequencyHz)
				cmd.Voltage = from.Voltage + u*(target.Voltage-from.Voltage)
			} else {
				cmd = target
			}
			break
		}
		from = target
	}

	if p.Meta.ControlMode == "vf" && p.VF != nil {
		v := p.VF.BoostVoltage + p.VF.VoltsPerHertz*math.Abs(cmd.FrequencyHz)
		if v > 1 {
			v = 1
		} else if v < 0 {
			v = 0
		}
		cmd.Voltage = v
	}
	return cmd
}
