// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fusion implements the altitude/kinematics/atmospherics
// derivation engine: baseline capture, complementary-filtered
// vertical speed, quaternion-driven tilt and azimuth, conservative
// atmospheric bounding, and apogee prediction.
package fusion

import (
	"math"
	"time"

	"github.com/leo-herrera29/srad-flight-computer/internal/attitude"
	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
	"github.com/leo-herrera29/srad-flight-computer/internal/reset"
)

const localGravity = 9.80665

// Snapshot is the FusedAlt value published once per tick. All floats
// are the explicit "unknown" sentinel NaN when not derivable.
type Snapshot struct {
	TimestampMs int64
	AglReady    bool

	BmpAlt  float64
	ImuAlt  float64
	AglBmp  float64
	AglImu  float64
	AglFused float64

	VzBaro  float64
	VzAcc   float64
	VzFused float64
	AzEarth float64

	TempC        float64
	PressHPa     float64
	SosDynamic   float64
	SosGround    float64
	Sos10kft     float64
	SosMin       float64
	MachDynamic  float64
	MachConservative float64

	Yaw, Pitch, Roll float64
	Tilt             float64
	TiltAz           float64
	TiltAz360        float64
	TiltAzUnwrapped  float64

	TToApogeeS float64
	ApogeeAglM float64
}

// Engine owns all fusion filter state across ticks: baselines,
// complementary-filter accumulators, the azimuth unwrap accumulator,
// and the warm-up timer. One Engine per vehicle; Tick is not
// reentrant.
type Engine struct {
	cfg   *config.Config
	reset *reset.Signal

	startMs     int64
	haveStartMs bool
	aglReady    bool
	bmpBaseline float64
	imuBaseline float64
	haveBmpBase bool
	haveImuBase bool

	vzBaroPrimed bool
	vzBaro       float64
	vzAcc        float64
	lastAgl      float64
	haveLastAgl  bool

	azUnitX, azUnitY float64
	haveAzUnit       bool
	azUnwrapped      float64
	haveAzUnwrapped  bool

	groundSos    float64
	haveGroundSos bool
	sos10kft     float64
}

// NewEngine creates a fusion engine bound to cfg. resetSignal is the
// engine's own member of a reset.Group, so one group request clears
// both the engine and the FC.
func NewEngine(cfg *config.Config, resetSignal *reset.Signal) *Engine {
	return &Engine{cfg: cfg, reset: resetSignal}
}

// softReset clears all filter state, baselines, and accumulators, and
// restarts the warm-up timer. Edge-triggered, applied at the top of
// the next tick.
func (e *Engine) softReset() {
	*e = Engine{cfg: e.cfg, reset: e.reset}
}

// Tick recomputes the entire snapshot from the latest sensor reads.
// dt is the elapsed time since the previous tick; nowMs is the
// monotonic millisecond clock used for the published timestamp.
func (e *Engine) Tick(dt time.Duration, nowMs int64, bmpReading baro.Reading, imuA imu.ReadingA, imuB imu.ReadingB) Snapshot {
	if e.reset.Consume() {
		e.softReset()
	}
	if !e.haveStartMs {
		e.startMs = nowMs
		e.haveStartMs = true
	}

	dtMs := clampDtMs(dt, e.cfg.FusionVzMaxDtMs)
	dtS := float64(dtMs) / 1000.0

	snap := Snapshot{TimestampMs: nowMs}

	e.updateBaselines(nowMs, bmpReading, imuA)
	snap.AglReady = e.aglReady

	snap.BmpAlt = valueOrNaN(float64(bmpReading.AltitudeMMSL), bmpReading.Valid)
	snap.ImuAlt = valueOrNaN(float64(imuA.AltitudeMMSL), imuA.Valid)

	if e.haveBmpBase && bmpReading.Valid {
		snap.AglBmp = snap.BmpAlt - e.bmpBaseline
	} else {
		snap.AglBmp = math.NaN()
	}
	if e.haveImuBase && imuA.Valid {
		snap.AglImu = snap.ImuAlt - e.imuBaseline
	} else {
		snap.AglImu = math.NaN()
	}
	snap.AglFused = fuseAgl(snap.AglBmp, snap.AglImu, e.cfg.FusionWBmp1)

	e.updateVzBaro(snap.AglFused, dtS)
	q := attitude.FromWXYZ(imuA.QuatWXYZ)
	snap.AzEarth = e.updateAzEarth(q, imuA, dtS)
	// Until the baro-derivative chain primes, both vz channels are
	// unknown, not zero.
	if e.vzBaroPrimed {
		snap.VzBaro = e.vzBaro
		snap.VzAcc = e.vzAcc
	} else {
		snap.VzBaro = math.NaN()
		snap.VzAcc = math.NaN()
	}
	snap.VzFused = fuseVz(snap.VzBaro, snap.VzAcc, e.cfg.FusionVzFuseBeta)

	snap.Yaw, snap.Pitch, snap.Roll = q.Euler()
	snap.Tilt = q.Tilt()
	e.updateAzimuth(q, snap.Tilt)
	snap.TiltAz = azimuthDegrees(e.azUnitX, e.azUnitY)
	snap.TiltAz360 = math.Mod(snap.TiltAz+360, 360)
	if e.haveAzUnwrapped {
		snap.TiltAzUnwrapped = e.azUnwrapped
	} else {
		snap.TiltAzUnwrapped = math.NaN()
	}

	e.updateAtmospherics(bmpReading, &snap)
	e.updateApogee(&snap)

	return snap
}

func clampDtMs(dt time.Duration, maxMs int) int64 {
	ms := dt.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if int(ms) > maxMs {
		ms = int64(maxMs)
	}
	return ms
}

func valueOrNaN(v float64, valid bool) float64 {
	if !valid {
		return math.NaN()
	}
	return v
}

// updateBaselines arms each sensor's baseline independently once the
// warm-up timer elapses. The timer runs on the tick clock, not wall
// time, so scripted replays behave identically to live runs. aglReady
// itself only ever flips false→true, the first time either baseline
// latches, but that flip must not stop the other sensor from capturing
// its own baseline on a later tick if it only becomes valid after the
// first one did.
func (e *Engine) updateBaselines(nowMs int64, bmpReading baro.Reading, imuA imu.ReadingA) {
	if nowMs-e.startMs < int64(e.cfg.ZeroAGLAfterMs) {
		return
	}
	if !e.haveBmpBase && bmpReading.Valid {
		e.bmpBaseline = float64(bmpReading.AltitudeMMSL)
		e.haveBmpBase = true
	}
	if !e.haveImuBase && imuA.Valid {
		e.imuBaseline = float64(imuA.AltitudeMMSL)
		e.haveImuBase = true
	}
	if !e.aglReady && (e.haveBmpBase || e.haveImuBase) {
		e.aglReady = true
	}
}

func fuseAgl(aglBmp, aglImu, w float64) float64 {
	bmpOK := !math.IsNaN(aglBmp)
	imuOK := !math.IsNaN(aglImu)
	switch {
	case bmpOK && imuOK:
		return w*aglBmp + (1-w)*aglImu
	case bmpOK:
		return aglBmp
	case imuOK:
		return aglImu
	default:
		return math.NaN()
	}
}

func (e *Engine) updateVzBaro(aglFused, dtS float64) {
	if math.IsNaN(aglFused) {
		return
	}
	if !e.haveLastAgl {
		e.lastAgl = aglFused
		e.haveLastAgl = true
		return
	}
	if dtS <= 0 {
		return
	}
	inst := (aglFused - e.lastAgl) / dtS
	e.lastAgl = aglFused

	if !e.vzBaroPrimed {
		e.vzBaro = inst
		e.vzBaroPrimed = true
	} else {
		alpha := e.cfg.FusionVzAlpha
		e.vzBaro = alpha*e.vzBaro + (1-alpha)*inst
	}
}

func (e *Engine) updateAzEarth(q attitude.Quat, imuA imu.ReadingA, dtS float64) float64 {
	if !e.vzBaroPrimed {
		e.vzAcc = 0
	}
	if !imuA.Valid {
		return math.NaN()
	}
	bodyMps2 := [3]float64{
		float64(imuA.AccelBodyG[0]) * localGravity,
		float64(imuA.AccelBodyG[1]) * localGravity,
		float64(imuA.AccelBodyG[2]) * localGravity,
	}
	earth := q.RotateVector(bodyMps2)
	azEarth := earth[2] - localGravity
	if math.IsNaN(azEarth) {
		return math.NaN()
	}
	if e.vzBaroPrimed {
		leak := e.cfg.FusionVzLeak
		e.vzAcc = (1-leak)*e.vzAcc + azEarth*dtS
	}
	return azEarth
}

func fuseVz(vzBaro, vzAcc, beta float64) float64 {
	baroOK := !math.IsNaN(vzBaro)
	accOK := !math.IsNaN(vzAcc)
	switch {
	case baroOK && accOK:
		return beta*vzBaro + (1-beta)*vzAcc
	case baroOK:
		return vzBaro
	case accOK:
		return vzAcc
	default:
		return math.NaN()
	}
}

func (e *Engine) updateAzimuth(q attitude.Quat, tiltDeg float64) {
	if math.IsNaN(tiltDeg) || tiltDeg < e.cfg.FusionTiltAzMinTiltDeg {
		return
	}
	hx, hy := q.HorizontalAxis()
	norm := math.Hypot(hx, hy)
	if norm <= 1e-4 {
		return
	}
	hx /= norm
	hy /= norm

	alpha := e.cfg.FusionTiltAzAlpha
	if !e.haveAzUnit {
		e.azUnitX, e.azUnitY = hx, hy
		e.haveAzUnit = true
	} else {
		e.azUnitX = alpha*e.azUnitX + (1-alpha)*hx
		e.azUnitY = alpha*e.azUnitY + (1-alpha)*hy
		n := math.Hypot(e.azUnitX, e.azUnitY)
		if n > 1e-9 {
			e.azUnitX /= n
			e.azUnitY /= n
		}
	}

	angle := azimuthDegrees(e.azUnitX, e.azUnitY)
	if !e.haveAzUnwrapped {
		e.azUnwrapped = angle
		e.haveAzUnwrapped = true
		return
	}
	delta := math.Mod(angle-math.Mod(e.azUnwrapped, 360)+540, 360) - 180
	e.azUnwrapped += delta
}

func azimuthDegrees(x, y float64) float64 {
	if x == 0 && y == 0 {
		return math.NaN()
	}
	return math.Atan2(y, x) * 180 / math.Pi
}

func (e *Engine) updateAtmospherics(bmpReading baro.Reading, snap *Snapshot) {
	snap.PressHPa = valueOrNaN(float64(bmpReading.PressurePa)/100.0, bmpReading.Valid)

	if !bmpReading.Valid {
		snap.TempC = math.NaN()
		snap.SosDynamic = math.NaN()
	} else {
		snap.TempC = float64(bmpReading.TemperatureC)
		snap.SosDynamic = speedOfSound(snap.TempC)

		if !e.haveGroundSos {
			e.groundSos = snap.SosDynamic
			tk := snap.TempC + 273.15 - e.cfg.Sos10kftDeltaK
			if tk < 150 {
				tk = 150
			}
			e.sos10kft = math.Sqrt(1.4 * 287.05 * tk)
			e.haveGroundSos = true
		}
	}

	if e.haveGroundSos {
		snap.SosGround = e.groundSos
		snap.Sos10kft = e.sos10kft
		snap.SosMin = math.Max(e.cfg.SosMinFloorMps, math.Min(e.groundSos, e.sos10kft))
	} else {
		snap.SosGround = math.NaN()
		snap.Sos10kft = math.NaN()
		snap.SosMin = e.cfg.SosMinFloorMps
	}

	if !math.IsNaN(snap.VzFused) && !math.IsNaN(snap.SosDynamic) && snap.SosDynamic > 0 {
		snap.MachDynamic = math.Abs(snap.VzFused) / snap.SosDynamic
	} else {
		snap.MachDynamic = math.NaN()
	}

	if math.IsNaN(snap.VzFused) || math.IsNaN(snap.SosMin) {
		snap.MachConservative = math.NaN()
		return
	}
	cosFloor := math.Cos(e.cfg.TiltMaxDeployDeg * math.Pi / 180)
	if cosFloor < 0.1 {
		cosFloor = 0.1
	}
	snap.MachConservative = (math.Abs(snap.VzFused) / cosFloor) / snap.SosMin
}

func speedOfSound(tempC float64) float64 {
	tk := tempC + 273.15
	if tk < 150 {
		tk = 150
	}
	return math.Sqrt(1.4 * 287.05 * tk)
}

func (e *Engine) updateApogee(snap *Snapshot) {
	if math.IsNaN(snap.VzFused) || math.IsNaN(snap.AglFused) {
		snap.TToApogeeS = math.NaN()
		snap.ApogeeAglM = math.NaN()
		return
	}
	if snap.VzFused > 0 {
		snap.TToApogeeS = e.cfg.FusionSafeTapxFactor * snap.VzFused / localGravity
		snap.ApogeeAglM = snap.AglFused + e.cfg.FusionSafeZapxFactor*snap.VzFused*snap.VzFused/(2*localGravity)
	} else {
		snap.TToApogeeS = 0
		snap.ApogeeAglM = snap.AglFused
	}
}
