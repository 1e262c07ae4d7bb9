// Command monitor subscribes to the flight computer's telemetry MQTT
// sink and renders each snapshot as a colorized console line.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/mon"
)

func main() {
	broker := flag.String("broker", "", "MQTT broker address (defaults to the flight config)")
	topic := flag.String("topic", "", "MQTT telemetry topic (defaults to the flight config)")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Defaults()
	brokerAddr := cfg.MQTTBroker
	if *broker != "" {
		brokerAddr = *broker
	}
	topicName := cfg.TopicTelemetry
	if *topic != "" {
		topicName = *topic
	}

	client, err := mon.SubscribeWireRecords(brokerAddr, cfg.MQTTClientIDMonitor, topicName, func(rec mon.WireRecord) {
		state := fc.State(rec.FcState)
		logger.Info("telemetry",
			"ts_ms", rec.TimestampMs,
			"fc_state", state.String(),
			"cmd_deg", rec.CmdDeg,
			"agl_fused", rec.AglFused,
			"vz_fused", rec.VzFused,
			"tilt_deg", rec.TiltDeg,
			"mach_cons", rec.MachCons,
			"apogee_agl_m", rec.ApogeeAglM,
			"t_to_apogee_s", rec.TToApogeeS,
		)
	})
	if err != nil {
		logger.Error("monitor startup failed", "error", err)
		os.Exit(1)
	}
	defer client.Disconnect(250)

	logger.Info("monitor connected", "broker", brokerAddr, "topic", topicName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("monitor shutting down")
}
