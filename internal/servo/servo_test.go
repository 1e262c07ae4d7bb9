package servo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fc"
	"github.com/leo-herrera29/srad-flight-computer/internal/telemetry"
)

func windowRecord(cfg *config.Config, timestampMs uint32) telemetry.Record {
	flags := fc.FlagSensImuAOK | fc.FlagSensBaroOK | fc.FlagSensImuBOK | fc.FlagTiltOK
	return telemetry.Record{
		TimestampMs: timestampMs,
		Sys: telemetry.SysSection{
			FcState:       uint8(fc.StateWindow),
			FcFlags:       uint32(flags),
			AglReady:      true,
			TToApogeeS:    10,
		},
		Fused: telemetry.FusedSection{MachConservative: 0.1},
	}
}

func TestServoOpensInWindowWithGatesClear(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	c.Tick(windowRecord(cfg, 100))
	require.True(t, c.IsOpen())
	require.Equal(t, cfg.ServoMaxPulseUs, c.PulseUs())
}

func TestServoClosesOnTiltLatch(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	c.Tick(rec)
	require.True(t, c.IsOpen())

	rec.Sys.FcFlags |= uint32(fc.FlagTiltLatch)
	rec.TimestampMs = 120
	c.Tick(rec)
	require.False(t, c.IsOpen())
}

func TestServoClosesNearApogeeRetractGate(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	rec.Sys.TToApogeeS = float32(cfg.ServoTtaAbortS)
	c.Tick(rec)
	require.False(t, c.IsOpen())
}

func TestServoClosesOutsideWindowState(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	rec.Sys.FcState = uint8(fc.StateBoost)
	c.Tick(rec)
	require.False(t, c.IsOpen())
}

func TestServoClosesAboveMachGate(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	rec.Fused.MachConservative = float32(cfg.ServoMachGateMax) + 0.1
	c.Tick(rec)
	require.False(t, c.IsOpen())
}

func TestServoClosesWithoutAglReady(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	rec.Sys.AglReady = false
	c.Tick(rec)
	require.False(t, c.IsOpen())
}

// Stall watchdog: an unchanged timestamp_ms forces fully retracted
// even if the prior command was open.
func TestServoStallWatchdogForcesRetract(t *testing.T) {
	cfg := config.BenchDefaults()
	c := NewController(cfg)
	rec := windowRecord(cfg, 100)
	c.Tick(rec)
	require.True(t, c.IsOpen())

	c.Tick(rec) // same TimestampMs again
	require.False(t, c.IsOpen())
	require.Equal(t, cfg.ServoMinPulseUs, c.PulseUs())
}
