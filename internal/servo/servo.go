// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package servo implements the airbrake actuator controller: it reads
// the latest telemetry record, derives a should-be-open boolean from
// the FC state and gate flags, and transitions the commanded pulse
// width only on that boolean's edge.
package servo

import (
	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

// Controller owns the actuator's commanded position and the stall
// watchdog state.
type Controller struct {
	cfg *config.Config

	lastTimestampMs uint32
	haveLast        bool

	isOpen   bool
	pulseUs  int
}

// NewController creates a servo controller, commanded fully retracted.
func NewController(cfg *config.Config) *Controller {
	return &Controller{cfg: cfg, pulseUs: cfg.ServoMinPulseUs}
}

// Tick reads rec and updates the commanded pulse width. If
// rec.TimestampMs has not advanced since the previous tick — the
// stall watchdog — it forces fully retracted and skips the rest of
// the logic.
func (c *Controller) Tick(rec telemetry.Record) {
	if c.haveLast && rec.TimestampMs == c.lastTimestampMs {
		c.command(false)
		return
	}
	c.haveLast = true
	c.lastTimestampMs = rec.TimestampMs

	c.command(c.shouldBeOpen(rec))
}

func (c *Controller) shouldBeOpen(rec telemetry.Record) bool {
	state := fc.State(rec.Sys.FcState)
	flags := fc.Flags(rec.Sys.FcFlags)

	if state == fc.StateAbortLockout || state == fc.StateLocked || state == fc.StateBoost {
		return false
	}
	if flags&fc.FlagTiltLatch != 0 {
		return false
	}
	if rec.Sys.TToApogeeS <= float32(c.cfg.ServoTtaAbortS) {
		return false
	}

	requiredOK := flags&fc.FlagSensImuAOK != 0 &&
		flags&fc.FlagSensBaroOK != 0 &&
		flags&fc.FlagSensImuBOK != 0 &&
		flags&fc.FlagTiltOK != 0 &&
		rec.Sys.AglReady

	return state == fc.StateWindow &&
		requiredOK &&
		float64(rec.Fused.MachConservative) < c.cfg.ServoMachGateMax
}

func (c *Controller) command(open bool) {
	if open == c.isOpen {
		return
	}
	c.isOpen = open
	if open {
		c.pulseUs = c.cfg.ServoMaxPulseUs
	} else {
		c.pulseUs = c.cfg.ServoMinPulseUs
	}
}

// PulseUs reports the currently commanded pulse width.
func (c *Controller) PulseUs() int { return c.pulseUs }

// IsOpen reports whether the airbrake is currently commanded open.
func (c *Controller) IsOpen() bool { return c.isOpen }
