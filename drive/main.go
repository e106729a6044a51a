package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"svpwm-drive-core/utils"
)

func main() {
	var (
		iface    = flag.String("iface", "", "SocketCAN interface for telemetry/commands (empty disables)")
		mapPath  = flag.String("map", "config/can/svpwm_map.csv", "Path to the CAN signal map")
		profPath = flag.String("profile", "drive/profiles/ramp_50hz.json", "Drive profile JSON file")
		device   = flag.String("port", "", "Gate-driver serial device (empty logs compares instead)")
		baud     = flag.Int("baud", 115200, "Gate-driver serial baud rate")
		broker   = flag.String("mqtt", "", "MQTT broker URL for the telemetry mirror (empty disables)")
		topic    = flag.String("topic", "drive/svpwm/state", "MQTT telemetry topic")
		logLevel = flag.String("log", "info", "trace|debug|info|warn|error|critical")
	)
	flag.Parse()

	log, err := utils.NewFileLogger("drive.log", utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open drive.log: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	cfg := RunnerConfig{
		Interface:    *iface,
		MapPath:      *mapPath,
		ProfilePath:  *profPath,
		SerialDevice: *device,
		SerialBaud:   *baud,
		MQTTBroker:   *broker,
		MQTTTopic:    *topic,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}
