// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"sync"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
)

// Aggregator is the sole writer of the live telemetry record. Each
// tick it composes a fresh Record from the current sensor snapshots,
// FC status, and fused snapshot, then publishes it atomically under a
// dedicated mutex. Getters take the same mutex and return a copy.
// The live snapshot is never dropped; only the optional downstream
// sink may coalesce.
type Aggregator struct {
	mu        sync.Mutex
	seq       uint32
	current   Record
	crcEnabled bool

	sinkMu sync.Mutex
	sink   []Record
	sinkCap int
}

// NewAggregator creates an aggregator; sinkDepth bounds the optional
// downstream sink queue (0 disables it entirely).
func NewAggregator(crcEnabled bool, sinkDepth int) *Aggregator {
	return &Aggregator{crcEnabled: crcEnabled, sinkCap: sinkDepth}
}

// Publish composes and atomically stores a new Record from the tick's
// inputs, incrementing the monotonic sequence number. nowMs is the
// local monotonic millisecond clock used for timestamp_ms.
func (a *Aggregator) Publish(nowMs int64, bmp baro.Reading, imuA imu.ReadingA, imuB imu.ReadingB, st fc.Status, snap fusion.Snapshot) Record {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	rec := Record{
		Seq:          seq,
		TimestampMs:  uint32(nowMs),
		PresentFlags: presentBMP | presentIMU1 | presentSYS | presentCTRL | presentIMU2,
		Baro: BaroSection{
			TemperatureC: bmp.TemperatureC,
			PressurePa:   bmp.PressurePa,
			AltitudeMMSL: bmp.AltitudeMMSL,
			Valid:        bmp.Valid,
		},
		ImuA: ImuASection{
			QuatWXYZ:     imuA.QuatWXYZ,
			AccelBodyG:   imuA.AccelBodyG,
			PressurePa:   imuA.PressurePa,
			AltitudeMMSL: imuA.AltitudeMMSL,
			Valid:        imuA.Valid,
		},
		ImuB: ImuBSection{
			AccelBodyG: imuB.AccelBodyG,
			GyroDps:    imuB.GyroDps,
			TempC:      imuB.TempC,
			Valid:      imuB.Valid,
		},
		Sys: SysSection{
			FcState:       uint8(st.State),
			FcFlags:       uint32(st.Flags),
			AglReady:      snap.AglReady,
			TSinceLaunchS: float32(st.TSinceLaunchS),
			TToApogeeS:    float32(st.TToApogeeS),
		},
		Ctrl: CtrlSection{
			AirbrakeCmdDeg:    float32(st.AirbrakeCmdDeg),
			AirbrakeActualDeg: 0, // no position feedback path
		},
		Fused: FusedSection{
			AglFused:         float32(snap.AglFused),
			VzFused:          float32(snap.VzFused),
			AzEarth:          float32(snap.AzEarth),
			TiltDeg:          float32(snap.Tilt),
			TiltAz360:        float32(snap.TiltAz360),
			MachConservative: float32(snap.MachConservative),
			ApogeeAglM:       float32(snap.ApogeeAglM),
		},
		CRCEnabled: a.crcEnabled,
	}

	a.mu.Lock()
	a.current = rec
	a.mu.Unlock()

	a.offerSink(rec)
	return rec
}

// Latest returns a copy of the live telemetry record.
func (a *Aggregator) Latest() Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// offerSink pushes into the bounded downstream queue, dropping the
// oldest entry on overflow. The live record published above is never
// affected by this; only the optional sink coalesces.
func (a *Aggregator) offerSink(rec Record) {
	if a.sinkCap <= 0 {
		return
	}
	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()
	if len(a.sink) >= a.sinkCap {
		a.sink = a.sink[1:]
	}
	a.sink = append(a.sink, rec)
}

// DrainSink removes and returns every record currently queued in the
// downstream sink, oldest first.
func (a *Aggregator) DrainSink() []Record {
	a.sinkMu.Lock()
	defer a.sinkMu.Unlock()
	drained := a.sink
	a.sink = nil
	return drained
}
