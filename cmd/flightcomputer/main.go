// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command flightcomputer wires sensor producers through the fusion
// engine, the FC state machine, the telemetry aggregator, and the
// servo controller as cooperative periodic tasks. It runs bench-mode
// by default: mock producers, no bus I/O. The core treats sensor
// reads as opaque producers, so a real driver plugs in at the same
// seam.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/leo-herrera29/srad-flight-computer/internal/clock"
	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/mon"
	"github.com/leo-herrera29/srad-flight-computer/internal/reset"
	"github.com/leo-herrera29/srad-flight-computer/internal/sensors"
	"github.com/leo-herrera29/srad-flight-computer/internal/servo"
	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=VALUE config file overlaying the flight defaults")
	serialPort := flag.String("monitor-serial", "", "serial port for the monitoring link (empty disables it)")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	} else {
		cfg = config.Defaults()
	}
	config.InitGlobalWith(cfg)

	log.Printf("flightcomputer starting, telemetry period %d ms", cfg.TelemPeriodMs)

	resetGroup := reset.NewGroup(2)
	fusionEngine := fusion.NewEngine(cfg, resetGroup.Signal(0))
	fcContext := fc.NewContext(cfg, resetGroup.Signal(1))
	aggregator := telemetry.NewAggregator(cfg.TelemetryCRC, cfg.TelemetrySinkDepth)
	servoController := servo.NewController(cfg)

	imuA := sensors.NewMockIMUA(20 * time.Millisecond)
	imuB := sensors.NewMockIMUB(20 * time.Millisecond)
	bmp := sensors.NewMockBaro(100*time.Millisecond, cfg.SeaLevelPressurePa)

	var mqttSink *mon.MQTTSink
	if sink, err := mon.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTClientIDProducer, cfg.TopicTelemetry); err != nil {
		log.Printf("MQTT telemetry sink disabled: %v", err)
	} else {
		mqttSink = sink
		defer mqttSink.Close()
	}

	broadcaster := mon.NewBroadcaster()
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", broadcaster.HandleWS)
	go func() {
		if err := http.ListenAndServe(cfg.MonitorWSAddr, wsMux); err != nil {
			log.Printf("monitor websocket server stopped: %v", err)
		}
	}()

	if *serialPort != "" {
		link, err := mon.OpenSerial(*serialPort, cfg.MonitorSerialBaud)
		if err != nil {
			log.Printf("monitoring serial link disabled: %v", err)
		} else {
			defer link.Close()
			go link.ReadCommands(func(cmd mon.Command) {
				switch cmd {
				case mon.CommandSoftReset:
					// Request() only. fcContext.SoftReset() must not be
					// called directly from this goroutine: Context is
					// owned by the tick loop below and isn't safe to
					// mutate concurrently with Tick.
					resetGroup.Request()
					link.WriteLine(mon.SoftResetEvent)
				case mon.CommandHardReset:
					log.Fatal("hard reset requested over monitoring link")
				}
			})
		}
	}

	start := time.Now()
	ticker := clock.NewTicker(time.Duration(cfg.TelemPeriodMs) * time.Millisecond)

	for {
		dt := ticker.WaitNext()
		nowMs := time.Since(start).Milliseconds()

		bmpReading := bmp.Latest()
		imuAReading := imuA.Latest()
		imuBReading := imuB.Latest()

		snap := fusionEngine.Tick(dt, nowMs, bmpReading, imuAReading, imuBReading)

		status := fcContext.Tick(int(dt.Milliseconds()), nowMs, fc.Inputs{
			ImuAValid: imuAReading.Valid,
			ImuBValid: imuBReading.Valid,
			BaroValid: bmpReading.Valid,
			AglBmp:    snap.AglBmp,
			AglImu:    snap.AglImu,
			Fused:     snap,
		})

		rec := aggregator.Publish(nowMs, bmpReading, imuAReading, imuBReading, status, snap)
		servoController.Tick(rec)
		broadcaster.Broadcast(rec)

		if mqttSink != nil {
			for _, drained := range aggregator.DrainSink() {
				mqttSink.Publish(drained)
			}
		}
	}
}
