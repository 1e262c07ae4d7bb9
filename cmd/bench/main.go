// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/bench/main.go
//
// Scripted scenario runner for the fusion engine and flight
// controller. Drives the core through the literal input sequences
// used to validate it (clean nominal flight, tilt abort during boost,
// low-trajectory rejection, barometer loss mid-boost, mid-flight soft
// reset) and prints the resulting FSM trajectory, one line per state
// transition.
//
// Run:
//
//	go run ./cmd/bench -scenario s1
//
// Notes:
//   - Uses BenchDefaults() (short warm-up, scaled apogee target) so a
//     scenario plays out in well under a second of wall-clock time.
//   - Sensor producers here are internal/sensors.Replay*, driven by
//     Set calls from the scenario script, not real cadence goroutines.
//   - The scripted vehicle sits nose-up on the pad: the attitude
//     quaternion rotates body +X onto earth +Z, and thrust reads as
//     body +X acceleration.
package main

import (
	"flag"
	"fmt"
	"math"
	"time"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
	"github.com/leo-herrera29/srad-flight-computer/internal/reset"
	"github.com/leo-herrera29/srad-flight-computer/internal/sensors"
)

const tickMs = 20

// noseUp rotates body +X onto earth +Z: a -90 degree rotation about
// body Y, so the nose points straight up and tilt reads 0.
var noseUp = quatAboutY(-90)

// quatAboutY builds the wxyz quaternion for a rotation of deg degrees
// about the body Y axis.
func quatAboutY(deg float64) [4]float32 {
	half := deg * math.Pi / 360
	return [4]float32{float32(math.Cos(half)), 0, float32(math.Sin(half)), 0}
}

// rig bundles the three replay producers and the running scenario
// clock/state shared by every script.
type rig struct {
	engine *fusion.Engine
	fcCtx  *fc.Context
	imuA   *sensors.ReplayIMUA
	imuB   *sensors.ReplayIMUB
	bmp    *sensors.ReplayBaro

	cfg       *config.Config
	nowMs     int64
	lastState fc.State
}

func newRig(cfg *config.Config, engine *fusion.Engine, fcCtx *fc.Context) *rig {
	return &rig{
		engine: engine,
		fcCtx:  fcCtx,
		imuA:   sensors.NewReplayIMUA(),
		imuB:   sensors.NewReplayIMUB(),
		bmp:    sensors.NewReplayBaro(),
		cfg:    cfg,
		lastState: fc.State(-1),
	}
}

// set installs a consistent nose-up reading triple: the vehicle at agl
// meters with axialG of specific force along body +X (1.0 when
// supported or coasting in the script's simplified model).
func (r *rig) set(quat [4]float32, agl, axialG float64) {
	pressurePa := r.cfg.SeaLevelPressurePa - agl*12
	r.bmp.Set(baro.Reading{TemperatureC: 15, PressurePa: float32(pressurePa), AltitudeMMSL: float32(agl), Valid: true})
	r.imuA.Set(imu.ReadingA{QuatWXYZ: quat, AccelBodyG: [3]float32{float32(axialG), 0, 0}, PressurePa: float32(pressurePa), AltitudeMMSL: float32(agl), Valid: true})
	r.imuB.Set(imu.ReadingB{AccelBodyG: [3]float32{float32(axialG), 0, 0}, Valid: true})
}

// tick advances one telemetry period and prints any FSM transition.
func (r *rig) tick() {
	r.nowMs += tickMs
	bmpReading := r.bmp.Latest()
	imuAReading := r.imuA.Latest()
	imuBReading := r.imuB.Latest()

	snap := r.engine.Tick(tickMs*time.Millisecond, r.nowMs, bmpReading, imuAReading, imuBReading)
	status := r.fcCtx.Tick(tickMs, r.nowMs, fc.Inputs{
		ImuAValid: imuAReading.Valid,
		ImuBValid: imuBReading.Valid,
		BaroValid: bmpReading.Valid,
		AglBmp:    snap.AglBmp,
		AglImu:    snap.AglImu,
		Fused:     snap,
	})

	if status.State != r.lastState {
		fmt.Printf("t=%6dms  %-14s  agl=%8.1f  vz=%7.2f  tilt=%5.1f  apogee_agl=%8.1f  cmd=%.0f\n",
			r.nowMs, status.State.String(), snap.AglFused, snap.VzFused, snap.Tilt, snap.ApogeeAglM, status.AirbrakeCmdDeg)
		r.lastState = status.State
	}
}

// warmup sits on the pad until baselines capture and the sensor
// debounce gates recover.
func (r *rig) warmup() {
	// Pad time must cover both the AGL warm-up and the 1500ms sensor
	// recovery debounce, or the deploy gates would still be blocked.
	padTicks := r.cfg.ZeroAGLAfterMs/tickMs + r.cfg.FcSensorRecoveryMs/tickMs + 5
	for i := 0; i < padTicks; i++ {
		r.set(noseUp, 0, 1.0)
		r.tick()
	}
}

// boost fires the liftoff pulse and the post-burn tail: 250ms at
// about 40 m/s^2 net, then 600ms of coasting climb.
func (r *rig) boost(agl *float64) {
	for i := 0; i < 250/tickMs; i++ {
		*agl += 0.5
		r.set(noseUp, *agl, 5.08) // (40+g)/g of specific force along the nose
		r.tick()
	}
	for i := 0; i < 600/tickMs; i++ {
		*agl += 2
		r.set(noseUp, *agl, 1.0)
		r.tick()
	}
}

func main() {
	scenario := flag.String("scenario", "s1", "scenario to replay: s1 (clean nominal flight), s2 (tilt abort), "+
		"s3 (low-trajectory rejection), s4 (barometer loss mid-boost), s5 (soft reset mid-flight)")
	flag.Parse()

	cfg := config.BenchDefaults()
	config.InitGlobalWith(cfg)

	resetGroup := reset.NewGroup(2)
	engine := fusion.NewEngine(cfg, resetGroup.Signal(0))
	fcCtx := fc.NewContext(cfg, resetGroup.Signal(1))
	r := newRig(cfg, engine, fcCtx)

	switch *scenario {
	case "s2":
		runS2(r)
	case "s3":
		runS3(r)
	case "s4":
		runS4(r)
	case "s5":
		runS5(r, resetGroup)
	default:
		runS1(r)
	}
}

// runS1 replays a clean nominal flight: warm-up, liftoff pulse,
// burnout, then a coast whose climb rate decays linearly from 80 m/s
// to zero over ten seconds. The FSM must walk PREFLIGHT, BOOST,
// POST_BURN_HOLD, WINDOW, DEPLOYED, RETRACTING, LOCKED in order, with
// cmd=30 only while DEPLOYED.
func runS1(r *rig) {
	r.warmup()

	agl := 0.0
	r.boost(&agl)

	const totalTicks = 10000 / tickMs
	for i := 0; i < totalTicks; i++ {
		frac := float64(i) / float64(totalTicks)
		vz := 80 * (1 - frac)
		agl += vz * (tickMs / 1000.0)
		r.set(noseUp, agl, 1.0)
		r.tick()
	}

	fmt.Println("scenario s1 complete")
}

// runS2 replays a tilt abort during boost: identical to s1 through
// liftoff, then a sustained 45-degree lean that must latch the tilt
// abort and drive the FSM to ABORT_LOCKOUT within one tick.
func runS2(r *rig) {
	r.warmup()

	agl := 0.0
	for i := 0; i < 250/tickMs; i++ {
		agl += 0.5
		r.set(noseUp, agl, 5.08)
		r.tick()
	}

	// Lean 45 degrees off vertical for 250ms, past the 200ms dwell.
	leaned := quatAboutY(-45)
	for i := 0; i < 250/tickMs; i++ {
		agl += 2
		r.set(leaned, agl, 1.0)
		r.tick()
	}

	// Recovering attitude afterwards must not clear the latch.
	for i := 0; i < 10; i++ {
		agl += 1
		r.set(noseUp, agl, 1.0)
		r.tick()
	}

	fmt.Println("scenario s2 complete")
}

// runS3 replays a low-trajectory rejection: identical boost to s1, but
// the coast only climbs at 30 m/s decaying over six seconds, far short
// of the deploy target. The FSM reaches WINDOW and stays there until
// the expected-time-to-apogee timeout forces it straight to
// RETRACTING, without ever DEPLOYED.
func runS3(r *rig) {
	r.warmup()

	agl := 0.0
	r.boost(&agl)

	const decayTicks = 6000 / tickMs
	for i := 0; i < decayTicks; i++ {
		frac := float64(i) / float64(decayTicks)
		agl += 30 * (1 - frac) * (tickMs / 1000.0)
		r.set(noseUp, agl, 1.0)
		r.tick()
	}

	// Hover at the (low) apex well past the expected-TTA timeout so
	// the stuck WINDOW exits through RETRACTING to LOCKED.
	for i := 0; i < 22000/tickMs; i++ {
		r.set(noseUp, agl, 1.0)
		r.tick()
	}

	fmt.Println("scenario s3 complete")
}

// runS4 replays a barometer loss mid-ascent: identical boost and
// ascent shape to s1, but the external barometer drops out for 300ms
// early in the coast. 150ms of bad samples must trip the baro gate,
// agl_fused falls back entirely to the IMU-A AGL for the gap, and
// 1500ms of continuous good samples must elapse before the gate (and
// the deploy window it gates) recovers.
func runS4(r *rig) {
	r.warmup()

	agl := 0.0
	r.boost(&agl)

	const totalTicks = 18000 / tickMs
	const lossStartMs, lossDurationMs = int64(3000), int64(300)
	var elapsedMs int64
	for i := 0; i < totalTicks; i++ {
		frac := float64(i) / float64(totalTicks)
		vz := 80 * (1 - frac)
		agl += vz * (tickMs / 1000.0)
		elapsedMs += tickMs

		if elapsedMs >= lossStartMs && elapsedMs < lossStartMs+lossDurationMs {
			pressurePa := r.cfg.SeaLevelPressurePa - agl*12
			r.bmp.Set(baro.Reading{Valid: false})
			r.imuA.Set(imu.ReadingA{QuatWXYZ: noseUp, AccelBodyG: [3]float32{1, 0, 0},
				PressurePa: float32(pressurePa), AltitudeMMSL: float32(agl), Valid: true})
			r.imuB.Set(imu.ReadingB{AccelBodyG: [3]float32{1, 0, 0}, Valid: true})
		} else {
			r.set(noseUp, agl, 1.0)
		}
		r.tick()
	}

	fmt.Println("scenario s4 complete")
}

// runS5 replays a mid-flight soft reset: identical boost and ascent to
// s1, then a !cmd:soft_reset lands mid-coast. Both the fusion engine
// and the FC share one internal/reset.Group, so each must
// independently observe the same edge and return to power-on state:
// agl_ready clears, baselines clear, and the FSM re-enters PREFLIGHT
// with airbrake_cmd_deg back at 0. The continuing climb then re-arms
// warm-up, re-baselines at altitude, and flies the FSM forward again.
func runS5(r *rig, resetGroup *reset.Group) {
	r.warmup()

	agl := 0.0
	r.boost(&agl)

	const resetAtMs = int64(4000)
	var elapsedMs int64
	requested := false
	for i := 0; i < 20000/tickMs; i++ {
		agl += 80 * (tickMs / 1000.0)
		r.set(noseUp, agl, 1.0)
		elapsedMs += tickMs
		if !requested && elapsedMs >= resetAtMs {
			resetGroup.Request()
			requested = true
			fmt.Printf("t=%6dms  soft reset requested\n", r.nowMs+tickMs)
		}
		r.tick()
	}

	fmt.Println("scenario s5 complete")
}
