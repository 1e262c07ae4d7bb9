// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fc implements the flight-controller finite-state machine:
// debounced sensor-validity gates, tilt-abort latch, liftoff/burnout
// detection, baro-agreement gate, conservative Mach gate with
// hysteresis and dwell, and the monotone mission FSM with absorbing
// abort and locked-out states. The FSM is a sum type over state
// labels; transitions are a pure function of (state, context, inputs).
package fc

import (
	"math"

	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/reset"
)

// State is the mission FSM's tagged state.
type State int

const (
	StateSafe State = iota
	StatePreflight
	StateArmedWait // reserved, currently unreachable
	StateBoost
	StatePostBurnHold
	StateWindow
	StateDeployed
	StateRetracting
	StateLocked
	StateAbortLockout
)

func (s State) String() string {
	switch s {
	case StateSafe:
		return "SAFE"
	case StatePreflight:
		return "PREFLIGHT"
	case StateArmedWait:
		return "ARMED_WAIT"
	case StateBoost:
		return "BOOST"
	case StatePostBurnHold:
		return "POST_BURN_HOLD"
	case StateWindow:
		return "WINDOW"
	case StateDeployed:
		return "DEPLOYED"
	case StateRetracting:
		return "RETRACTING"
	case StateLocked:
		return "LOCKED"
	case StateAbortLockout:
		return "ABORT_LOCKOUT"
	default:
		return "UNKNOWN"
	}
}

// Flags is the FC status bitmask. Every bit reflects debounced or
// latched state, except FlagTiltOK, which additionally requires the
// current tilt sample to be within the abort threshold.
type Flags uint32

const (
	FlagSensImuAOK Flags = 1 << iota
	FlagSensBaroOK
	FlagSensImuBOK
	FlagTiltOK
	FlagTiltLatch
	FlagMachOK
	FlagBaroAgree
	FlagLiftoffDet
	FlagBurnoutDet
)

// Status is the FcStatus snapshot published once per tick.
type Status struct {
	State            State
	Flags            Flags
	AirbrakeCmdDeg   float64
	TSinceLaunchS    float64
	TToApogeeS       float64
	MachConservative float64
	TiltDeg          float64
}

// Inputs is everything the FC reads on a tick: the three raw validity
// flags the fusion engine doesn't otherwise surface, the per-sensor
// AGLs used by the baro-agreement gate, and the fused snapshot.
type Inputs struct {
	ImuAValid  bool
	ImuBValid  bool
	BaroValid  bool
	AglBmp     float64
	AglImu     float64
	Fused      fusion.Snapshot
}

// debounceGate tracks good/bad accumulated milliseconds for one
// binary-validity sensor signal. Recovery takes longer than loss.
type debounceGate struct {
	ok       bool
	goodMs   int
	badMs    int
}

func (g *debounceGate) update(valid bool, dtMs int, invalidMs, recoveryMs int) {
	if valid {
		g.goodMs += dtMs
		g.badMs = 0
	} else {
		g.badMs += dtMs
		g.goodMs = 0
	}
	if g.ok && g.badMs >= invalidMs {
		g.ok = false
	} else if !g.ok && g.goodMs >= recoveryMs {
		g.ok = true
	}
}

// Context holds all FC persistent state: debounce accumulators,
// latches, and state-entry timestamps. Gate state lives here rather
// than in the update helpers so SoftReset clears it completely.
type Context struct {
	cfg   *config.Config
	reset *reset.Signal

	state        State
	stateEnterMs int64

	imuAGate  debounceGate
	baroGate  debounceGate
	imuBGate  debounceGate

	tiltLatch    bool
	tiltOverMs   int

	machOK      bool
	machOnMs    int

	baroAgree   bool
	baroAgreeMs int

	liftoffLatched bool
	liftoffDwellMs int
	tLaunchMs      int64

	burnoutLatched bool
	burnoutDwellMs int
}

// NewContext creates an FC context in its power-on state: PREFLIGHT,
// all gates clear.
func NewContext(cfg *config.Config, resetSignal *reset.Signal) *Context {
	c := &Context{cfg: cfg, reset: resetSignal}
	c.resetToPreflight()
	return c
}

func (c *Context) resetToPreflight() {
	*c = Context{cfg: c.cfg, reset: c.reset, state: StatePreflight}
}

// SoftReset clears context to power-on defaults; the next Tick
// re-initializes from PREFLIGHT.
func (c *Context) SoftReset() {
	c.resetToPreflight()
}

// Tick consumes dtMs/nowMs and the tick's inputs, advances all
// debounce gates and the mission FSM, and returns the published
// status.
func (c *Context) Tick(dtMs int, nowMs int64, in Inputs) Status {
	if c.reset.Consume() {
		c.resetToPreflight()
	}
	if c.stateEnterMs == 0 && c.state == StatePreflight {
		c.stateEnterMs = nowMs
	}

	c.imuAGate.update(in.ImuAValid, dtMs, c.cfg.FcSensorInvalidMs, c.cfg.FcSensorRecoveryMs)
	c.baroGate.update(in.BaroValid, dtMs, c.cfg.FcSensorInvalidMs, c.cfg.FcSensorRecoveryMs)
	c.imuBGate.update(in.ImuBValid, dtMs, c.cfg.FcSensorInvalidMs, c.cfg.FcSensorRecoveryMs)

	c.updateTiltGate(in.Fused.Tilt, dtMs)
	c.updateMachGate(in.Fused.MachConservative, dtMs)
	c.updateBaroAgreement(in.AglBmp, in.AglImu, dtMs)
	c.updateLiftoff(in.Fused, dtMs, nowMs)
	c.updateBurnout(in.Fused, dtMs)

	c.advance(in.Fused, nowMs)

	return c.status(in.Fused, nowMs)
}

func (c *Context) updateTiltGate(tiltDeg float64, dtMs int) {
	if math.IsNaN(tiltDeg) {
		c.tiltOverMs = 0
		return
	}
	if tiltDeg >= c.cfg.FcTiltAbortDeg {
		c.tiltOverMs += dtMs
		if c.tiltOverMs >= c.cfg.FcTiltAbortDwellMs {
			c.tiltLatch = true
		}
	} else {
		c.tiltOverMs = 0
	}
}

func (c *Context) tiltOK(tiltDeg float64) bool {
	if c.tiltLatch {
		return false
	}
	if math.IsNaN(tiltDeg) {
		return false
	}
	return tiltDeg <= c.cfg.FcTiltAbortDeg
}

func (c *Context) updateMachGate(mach float64, dtMs int) {
	if math.IsNaN(mach) {
		c.machOnMs = 0
		return
	}
	if mach > c.cfg.FcMachMaxForDeploy+c.cfg.FcMachHyst {
		c.machOK = false
		c.machOnMs = 0
		return
	}
	if mach < c.cfg.FcMachMaxForDeploy {
		c.machOnMs += dtMs
		if c.machOnMs >= c.cfg.FcMachDwellMs {
			c.machOK = true
		}
	} else {
		c.machOnMs = 0
	}
}

func (c *Context) updateBaroAgreement(aglBmp, aglImu float64, dtMs int) {
	if math.IsNaN(aglBmp) || math.IsNaN(aglImu) {
		c.baroAgree = false
		c.baroAgreeMs = 0
		return
	}
	if math.Abs(aglBmp-aglImu) <= c.cfg.FcBaroAgreeM {
		c.baroAgreeMs += dtMs
		if c.baroAgreeMs >= c.cfg.FcBaroAgreeMs {
			c.baroAgree = true
		}
	} else {
		c.baroAgree = false
		c.baroAgreeMs = 0
	}
}

func (c *Context) updateLiftoff(s fusion.Snapshot, dtMs int, nowMs int64) {
	if c.liftoffLatched {
		return
	}
	cond := (!math.IsNaN(s.VzFused) && s.VzFused > c.cfg.FcVzLiftoffMps) ||
		(!math.IsNaN(s.AzEarth) && s.AzEarth > c.cfg.FcAzLiftoffMps2) ||
		(!math.IsNaN(s.AglFused) && s.AglFused >= c.cfg.FcLiftoffMinAglM)
	if cond {
		c.liftoffDwellMs += dtMs
		if c.liftoffDwellMs >= c.cfg.FcLiftoffDwellMs {
			c.liftoffLatched = true
			c.tLaunchMs = nowMs
		}
	} else {
		c.liftoffDwellMs = 0
	}
}

func (c *Context) updateBurnout(s fusion.Snapshot, dtMs int) {
	if !c.liftoffLatched || c.burnoutLatched {
		return
	}
	if !math.IsNaN(s.AzEarth) && s.AzEarth <= c.cfg.FcBurnoutAzDoneMps2 {
		c.burnoutDwellMs += dtMs
		if c.burnoutDwellMs >= c.cfg.FcBurnoutDwellMs {
			c.burnoutLatched = true
		}
	} else {
		c.burnoutDwellMs = 0
	}
}

// advance applies the mission FSM transition table. A tilt latch at
// any non-terminal state transitions immediately to ABORT_LOCKOUT,
// checked first since it is absorbing and takes priority over every
// other transition.
func (c *Context) advance(s fusion.Snapshot, nowMs int64) {
	if c.tiltLatch && c.state != StateLocked && c.state != StateAbortLockout {
		c.enter(StateAbortLockout, nowMs)
		return
	}

	switch c.state {
	case StatePreflight:
		if c.liftoffLatched {
			c.enter(StateBoost, nowMs)
		}
	case StateBoost:
		if c.burnoutLatched {
			c.enter(StatePostBurnHold, nowMs)
		}
	case StatePostBurnHold:
		if nowMs-c.stateEnterMs >= int64(c.cfg.FcBurnoutHoldMs) {
			c.enter(StateWindow, nowMs)
		}
	case StateWindow:
		if c.deployConditionsMet(s) {
			c.enter(StateDeployed, nowMs)
		} else if c.windowTimedOut(nowMs) {
			// A trajectory that never qualifies for deploy (too low to
			// ever clear FcTargetApogeeAglM) would otherwise park in
			// WINDOW for the rest of the flight. The same expected-TTA
			// timeout that forces DEPLOYED to retract also forces a
			// stuck WINDOW straight to RETRACTING, so the mission still
			// reaches LOCKED.
			c.enter(StateRetracting, nowMs)
		}
	case StateDeployed:
		if (!math.IsNaN(s.TToApogeeS) && s.TToApogeeS <= c.cfg.FcRetractBeforeApogeeS) ||
			c.windowTimedOut(nowMs) {
			c.enter(StateRetracting, nowMs)
		}
	case StateRetracting:
		c.enter(StateLocked, nowMs)
	case StateLocked, StateAbortLockout:
		// absorbing
	}
}

func (c *Context) windowTimedOut(nowMs int64) bool {
	if !c.liftoffLatched {
		return false
	}
	tSinceLaunch := float64(nowMs-c.tLaunchMs) / 1000.0
	return tSinceLaunch > c.cfg.FcExpectedTtaS*c.cfg.FcExpectedTtaScaleTimeout
}

func (c *Context) deployConditionsMet(s fusion.Snapshot) bool {
	if math.IsNaN(s.AglFused) || math.IsNaN(s.ApogeeAglM) {
		return false
	}
	return s.AglFused >= c.cfg.FcMinDeployAglM &&
		s.ApogeeAglM >= c.cfg.FcTargetApogeeAglM+c.cfg.FcApogeeHighMarginM &&
		c.imuAGate.ok && c.baroGate.ok && c.tiltOK(s.Tilt) && c.machOK
}

func (c *Context) enter(s State, nowMs int64) {
	c.state = s
	c.stateEnterMs = nowMs
}

func (c *Context) status(s fusion.Snapshot, nowMs int64) Status {
	var flags Flags
	if c.imuAGate.ok {
		flags |= FlagSensImuAOK
	}
	if c.baroGate.ok {
		flags |= FlagSensBaroOK
	}
	if c.imuBGate.ok {
		flags |= FlagSensImuBOK
	}
	if c.tiltOK(s.Tilt) {
		flags |= FlagTiltOK
	}
	if c.tiltLatch {
		flags |= FlagTiltLatch
	}
	if c.machOK {
		flags |= FlagMachOK
	}
	if c.baroAgree {
		flags |= FlagBaroAgree
	}
	if c.liftoffLatched {
		flags |= FlagLiftoffDet
	}
	if c.burnoutLatched {
		flags |= FlagBurnoutDet
	}

	cmdDeg := 0.0
	if c.state == StateDeployed {
		cmdDeg = c.cfg.FcDeployCmdDeg
	}

	tSinceLaunch := math.NaN()
	if c.liftoffLatched {
		tSinceLaunch = float64(nowMs-c.tLaunchMs) / 1000.0
	}

	return Status{
		State:            c.state,
		Flags:            flags,
		AirbrakeCmdDeg:   cmdDeg,
		TSinceLaunchS:    tSinceLaunch,
		TToApogeeS:       s.TToApogeeS,
		MachConservative: s.MachConservative,
		TiltDeg:          s.Tilt,
	}
}
