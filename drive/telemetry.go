package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"svpwm-drive-core/openloop"
	"svpwm-drive-core/svpwm"
	"svpwm-drive-core/utils"
)

// Telemetry is the JSON diagnostic record mirrored to MQTT.
type Telemetry struct {
	Timestamp   float64 `json:"timestamp"`
	Sector      int     `json:"sector"`
	T1          float64 `json:"t1"`
	T2          float64 `json:"t2"`
	T0          float64 `json:"t0"`
	CompareA    uint32  `json:"ccr_a"`
	CompareB    uint32  `json:"ccr_b"`
	CompareC    uint32  `json:"ccr_c"`
	AngleRad    float64 `json:"elec_angle_rad"`
	FrequencyHz float64 `json:"freq_cmd_hz"`
	Voltage     float64 `json:"voltage_cmd"`
}

func makeTelemetry(t float64, st svpwm.State, ref *openloop.Reference, cmd DriveCommand) Telemetry {
	return Telemetry{
		Timestamp:   t,
		Sector:      int(st.Sector),
		T1:          st.T1,
		T2:          st.T2,
		T0:          st.T0,
		CompareA:    st.CompareA,
		CompareB:    st.CompareB,
		CompareC:    st.CompareC,
		AngleRad:    ref.Angle(),
		FrequencyHz: cmd.FrequencyHz,
		Voltage:     cmd.Voltage,
	}
}

// publishCAN encodes the modulator state into the two telemetry frames
// and transmits them.
func publishCAN(ctx context.Context, w utils.FrameWriter, m *utils.SignalMap, tel Telemetry) error {
	f1, err := m.Encode("MODULATOR_STATE_1", map[string]float64{
		"sector": float64(tel.Sector),
		"ccr_a":  float64(tel.CompareA),
		"ccr_b":  float64(tel.CompareB),
		"ccr_c":  float64(tel.CompareC),
	})
	if err != nil {
		return err
	}
	if err := w.WriteFrame(ctx, f1); err != nil {
		return err
	}

	f2, err := m.Encode("MODULATOR_STATE_2", map[string]float64{
		"t1_frac":        tel.T1,
		"t2_frac":        tel.T2,
		"t0_frac":        tel.T0,
		"elec_angle_rad": tel.AngleRad,
	})
	if err != nil {
		return err
	}
	return w.WriteFrame(ctx, f2)
}

// newMQTTClient connects a telemetry mirror client with auto-reconnect.
func newMQTTClient(broker string, log *utils.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("svpwm-drive")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info("MQTT connected to %s", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, tok.Error())
	}
	return client, nil
}

func publishMQTT(client mqtt.Client, topic string, tel Telemetry) error {
	payload, err := json.Marshal(tel)
	if err != nil {
		return err
	}
	client.Publish(topic, 0, false, payload)
	return nil
}
