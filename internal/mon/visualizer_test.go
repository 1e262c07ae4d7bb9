package mon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

func TestFormatVisualizerLineIncludesStateAndGates(t *testing.T) {
	rec := telemetry.Record{
		TimestampMs: 4200,
		Sys: telemetry.SysSection{
			FcState: uint8(fc.StateWindow),
			FcFlags: uint32(fc.FlagSensImuAOK | fc.FlagMachOK),
		},
		Fused: telemetry.FusedSection{AglFused: 812.3, VzFused: 42.1},
	}

	line := FormatVisualizerLine(rec)
	require.Contains(t, line, "ts_ms:4200")
	require.Contains(t, line, "fc_state_str:WINDOW")
	require.Contains(t, line, "imu_a_ok:true")
	require.Contains(t, line, "baro_ok:false")
	require.Contains(t, line, "mach_ok:true")
	require.Contains(t, line, "agl_fused:812.3")
}
