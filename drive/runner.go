package main

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"svpwm-drive-core/openloop"
	"svpwm-drive-core/svpwm"
	"svpwm-drive-core/utils"
)

type RunnerConfig struct {
	Interface    string // SocketCAN interface, "" disables the bus
	MapPath      string
	ProfilePath  string
	SerialDevice string // gate-driver UART, "" selects the log sink
	SerialBaud   int
	MQTTBroker   string // "" disables the MQTT mirror
	MQTTTopic    string
}

// RemoteCommand is a decoded DRIVE_CMD frame. While a remote source is
// enabled it overrides the profile schedule; enable low forces the
// outputs off.
type RemoteCommand struct {
	Enable bool
	Cmd    DriveCommand
}

// Runner owns the periodic control loop: profile evaluation, reference
// integration, modulation, compare output and telemetry. It is the
// timing driver of the core; the svpwm pipeline itself stays a plain
// synchronous call.
type Runner struct {
	cfg  RunnerConfig
	log  *utils.Logger
	prof Profile

	ref *openloop.Reference
	mod *svpwm.Modulator

	sink CompareSink

	smap  *utils.SignalMap
	busTx utils.FrameWriter
	busRx utils.FrameReader
	mqttC mqtt.Client
}

func NewRunner(ctx context.Context, cfg RunnerConfig, log *utils.Logger) (*Runner, error) {
	prof, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	r := &Runner{
		cfg:  cfg,
		log:  log,
		prof: prof,
		ref:  openloop.NewReference(),
		mod: svpwm.New(svpwm.Config{
			ControlPeriodS: 1 / prof.Timing.ControlFreqHz,
			PeriodTicks:    prof.PWM.PeriodTicks,
		}),
	}

	if cfg.SerialDevice != "" {
		sink, err := NewSerialSink(cfg.SerialDevice, cfg.SerialBaud)
		if err != nil {
			return nil, err
		}
		r.sink = sink
	} else {
		r.sink = NewLogSink(log)
	}

	if cfg.Interface != "" {
		smap, err := utils.LoadSignalMap(cfg.MapPath)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("load signal map: %w", err)
		}
		r.smap = smap

		tx, err := utils.NewBusWriter(ctx, cfg.Interface)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.busTx = tx

		rx, err := utils.NewBusReader(ctx, cfg.Interface)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.busRx = rx
	}

	if cfg.MQTTBroker != "" {
		client, err := newMQTTClient(cfg.MQTTBroker, log)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.mqttC = client
	}

	return r, nil
}

func (r *Runner) Close() {
	if r.busRx != nil {
		_ = r.busRx.Close()
	}
	if r.busTx != nil {
		_ = r.busTx.Close()
	}
	if r.mqttC != nil {
		r.mqttC.Disconnect(250)
	}
	if r.sink != nil {
		_ = r.sink.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting drive: profile=%s mode=%s duration=%.1fs control=%.0fHz pwm_period=%d iface=%s",
		r.prof.Meta.Name, r.prof.Meta.ControlMode, r.prof.Timing.DurationS,
		r.prof.Timing.ControlFreqHz, r.prof.PWM.PeriodTicks, r.cfg.Interface)

	dt := 1 / r.prof.Timing.ControlFreqHz
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	// Telemetry decimation relative to the control rate.
	telemetryEvery := 0
	if r.prof.Timing.TelemetryHz > 0 {
		telemetryEvery = int(r.prof.Timing.ControlFreqHz / r.prof.Timing.TelemetryHz)
		if telemetryEvery < 1 {
			telemetryEvery = 1
		}
	}

	cmdCh := make(chan RemoteCommand, 16)
	if r.busRx != nil {
		go r.receiveLoop(ctx, cmdCh)
	}

	var (
		start   = time.Now()
		ticks   uint64
		enabled = true
		remote  *RemoteCommand
	)

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			r.log.Warn("Context canceled; outputs forced low after %d ticks", ticks)
			return ctx.Err()

		case rc := <-cmdCh:
			if rc.Enable != enabled {
				r.log.Info("Remote enable=%v freq=%.2fHz voltage=%.3f", rc.Enable, rc.Cmd.FrequencyHz, rc.Cmd.Voltage)
			}
			enabled = rc.Enable
			if rc.Enable {
				remote = &rc
			} else {
				remote = nil
			}

		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			if t > r.prof.Timing.DurationS {
				r.shutdown()
				r.log.Info("Profile complete after %d ticks", ticks)
				return nil
			}

			var cmd DriveCommand
			if remote != nil {
				cmd = remote.Cmd
			} else {
				cmd = EvalCommand(&r.prof, t)
			}
			r.ref.SetCommand(cmd.FrequencyHz, cmd.Voltage)
			v := r.ref.Tick(dt)

			var st svpwm.State
			if enabled {
				st = r.mod.RunTick(v.Alpha, v.Beta)
			} else {
				st = r.mod.Stop()
			}
			if err := r.sink.WriteCompares(st.CompareA, st.CompareB, st.CompareC); err != nil {
				r.log.Critical("Compare write failed at t=%.3f: %v", t, err)
				return err
			}

			ticks++
			if telemetryEvery > 0 && ticks%uint64(telemetryEvery) == 0 {
				r.publish(ctx, t, st, cmd)
			}
		}
	}
}

// shutdown forces the bridge outputs low on the way out.
func (r *Runner) shutdown() {
	st := r.mod.Stop()
	if err := r.sink.WriteCompares(st.CompareA, st.CompareB, st.CompareC); err != nil {
		r.log.Error("Final compare write failed: %v", err)
	}
}

func (r *Runner) publish(ctx context.Context, t float64, st svpwm.State, cmd DriveCommand) {
	tel := makeTelemetry(t, st, r.ref, cmd)

	if r.busTx != nil {
		if err := publishCAN(ctx, r.busTx, r.smap, tel); err != nil {
			r.log.Error("CAN telemetry failed at t=%.3f: %v", t, err)
		}
	}
	if r.mqttC != nil {
		if err := publishMQTT(r.mqttC, r.cfg.MQTTTopic, tel); err != nil {
			r.log.Error("MQTT telemetry failed at t=%.3f: %v", t, err)
		}
	}
	r.log.Debug("t=%.3f sector=%d t1=%.4f t2=%.4f t0=%.4f ccr=(%d,%d,%d) angle=%.4f",
		t, tel.Sector, tel.T1, tel.T2, tel.T0, tel.CompareA, tel.CompareB, tel.CompareC, tel.AngleRad)
}

// receiveLoop decodes DRIVE_CMD frames and hands them to the tick loop
// over the channel, keeping the reference single-writer.
func (r *Runner) receiveLoop(ctx context.Context, out chan<- RemoteCommand) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		frame, err := r.busRx.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error("RX error: %v", err)
			continue
		}

		fd, err := r.smap.FrameByID(frame.ID)
		if err != nil || fd.Name != "DRIVE_CMD" {
			r.log.Trace("RX ignored id=0x%X len=%d", frame.ID, frame.Length)
			continue
		}

		vals, err := r.smap.Decode(frame)
		if err != nil {
			r.log.Error("RX decode failed: %v", err)
			continue
		}

		rc := RemoteCommand{
			Enable: vals["drive_enable"] > 0.5,
			Cmd: DriveCommand{
				FrequencyHz: vals["freq_cmd_hz"],
				Voltage:     vals["voltage_cmd"],
			},
		}
		select {
		case out <- rc:
		default:
			// Tick loop is behind; the next frame supersedes this one.
		}
	}
}
