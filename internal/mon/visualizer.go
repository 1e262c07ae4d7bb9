// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mon

import (
	"fmt"
	"strings"

	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

// FormatVisualizerLine renders one telemetry record as a single
// `key:value, key:value, ...` visualizer line.
func FormatVisualizerLine(rec telemetry.Record) string {
	state := fc.State(rec.Sys.FcState)
	flags := fc.Flags(rec.Sys.FcFlags)

	fields := []string{
		fmt.Sprintf("ts_ms:%d", rec.TimestampMs),
		fmt.Sprintf("vbat_v:%.2f", float64(rec.Sys.VbatMv)/1000.0),
		fmt.Sprintf("bus_err:%d", rec.Sys.BusErrorCount),
		fmt.Sprintf("fc_state_str:%s", state.String()),
		fmt.Sprintf("fc_state:%d", rec.Sys.FcState),
		fmt.Sprintf("fc_flags:0x%08x", rec.Sys.FcFlags),
		fmt.Sprintf("agl_ready:%t", rec.Sys.AglReady),
		fmt.Sprintf("imu_a_ok:%t", flags&fc.FlagSensImuAOK != 0),
		fmt.Sprintf("baro_ok:%t", flags&fc.FlagSensBaroOK != 0),
		fmt.Sprintf("imu_b_ok:%t", flags&fc.FlagSensImuBOK != 0),
		fmt.Sprintf("tilt_ok:%t", flags&fc.FlagTiltOK != 0),
		fmt.Sprintf("tilt_latch:%t", flags&fc.FlagTiltLatch != 0),
		fmt.Sprintf("mach_ok:%t", flags&fc.FlagMachOK != 0),
		fmt.Sprintf("t_since_launch_s:%.2f", rec.Sys.TSinceLaunchS),
		fmt.Sprintf("t_to_apogee_s:%.2f", rec.Sys.TToApogeeS),
		fmt.Sprintf("cmd_deg:%.1f", rec.Ctrl.AirbrakeCmdDeg),
		fmt.Sprintf("act_deg:%.1f", rec.Ctrl.AirbrakeActualDeg),
		fmt.Sprintf("agl_fused:%.1f", rec.Fused.AglFused),
		fmt.Sprintf("vz_fused:%.2f", rec.Fused.VzFused),
		fmt.Sprintf("tilt_deg:%.1f", rec.Fused.TiltDeg),
		fmt.Sprintf("mach_cons:%.3f", rec.Fused.MachConservative),
		fmt.Sprintf("apogee_agl_m:%.1f", rec.Fused.ApogeeAglM),
	}
	return strings.Join(fields, ", ")
}
