// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mon

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

// MQTTSink publishes coalesced telemetry snapshots to a broker topic
// for ground-station consumers.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to broker and returns a sink publishing to
// topic under clientID.
func NewMQTTSink(broker, clientID, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}
	return &MQTTSink{client: client, topic: topic}, nil
}

// WireRecord is the JSON-friendly projection of telemetry.Record
// published over MQTT. MQTT consumers (dashboards, logging) get JSON
// rather than the packed binary layout of telemetry.Record.Encode.
type WireRecord struct {
	Seq           uint32  `json:"seq"`
	TimestampMs   uint32  `json:"timestamp_ms"`
	FcState       uint8   `json:"fc_state"`
	FcFlags       uint32  `json:"fc_flags"`
	CmdDeg        float32 `json:"cmd_deg"`
	AglFused      float32 `json:"agl_fused"`
	VzFused       float32 `json:"vz_fused"`
	TiltDeg       float32 `json:"tilt_deg"`
	MachCons      float32 `json:"mach_cons"`
	ApogeeAglM    float32 `json:"apogee_agl_m"`
	TSinceLaunchS float32 `json:"t_since_launch_s"`
	TToApogeeS    float32 `json:"t_to_apogee_s"`
}

// Publish sends one telemetry record as JSON.
func (s *MQTTSink) Publish(rec telemetry.Record) {
	payload := WireRecord{
		Seq:           rec.Seq,
		TimestampMs:   rec.TimestampMs,
		FcState:       rec.Sys.FcState,
		FcFlags:       rec.Sys.FcFlags,
		CmdDeg:        rec.Ctrl.AirbrakeCmdDeg,
		AglFused:      rec.Fused.AglFused,
		VzFused:       rec.Fused.VzFused,
		TiltDeg:       rec.Fused.TiltDeg,
		MachCons:      rec.Fused.MachConservative,
		ApogeeAglM:    rec.Fused.ApogeeAglM,
		TSinceLaunchS: rec.Sys.TSinceLaunchS,
		TToApogeeS:    rec.Sys.TToApogeeS,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("monitoring MQTT sink: marshal error: %v", err)
		return
	}
	s.client.Publish(s.topic, 0, false, data)
}

// Close disconnects the underlying MQTT client.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
