package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsPassValidation(t *testing.T) {
	require.NoError(t, Defaults().validate())
}

func TestBenchDefaultsKeepGatingLogicIdentical(t *testing.T) {
	d := Defaults()
	b := BenchDefaults()
	require.NotEqual(t, d.ZeroAGLAfterMs, b.ZeroAGLAfterMs)
	require.NotEqual(t, d.FcTargetApogeeAglM, b.FcTargetApogeeAglM)
	require.NotEqual(t, d.TopicTelemetry, b.TopicTelemetry)
	// Filter coefficients and debounce timing are profile-invariant.
	require.Equal(t, d.FusionWBmp1, b.FusionWBmp1)
	require.Equal(t, d.FcSensorRecoveryMs, b.FcSensorRecoveryMs)
	require.Equal(t, d.FcTiltAbortDeg, b.FcTiltAbortDeg)
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flight.conf")
	contents := "# comment\nZERO_AGL_AFTER_MS=500\nFC_TILT_ABORT_DEG=25\n\nMQTT_BROKER=tcp://rocket:1883\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.ZeroAGLAfterMs)
	require.Equal(t, 25.0, cfg.FcTiltAbortDeg)
	require.Equal(t, "tcp://rocket:1883", cfg.MQTTBroker)
	// Unmentioned keys keep the flight default.
	require.Equal(t, Defaults().FusionWBmp1, cfg.FusionWBmp1)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.conf")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_REAL_KEY=1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.conf")
	require.NoError(t, os.WriteFile(path, []byte("not_a_key_value_pair\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsInvertedServoPulseRange(t *testing.T) {
	cfg := Defaults()
	cfg.ServoMinPulseUs = 2000
	cfg.ServoMaxPulseUs = 1000
	require.Error(t, cfg.validate())
}

func TestValidateRejectsOutOfRangeAlpha(t *testing.T) {
	cfg := Defaults()
	cfg.FusionVzAlpha = 1.5
	require.Error(t, cfg.validate())
}

func TestInitGlobalWithAndGet(t *testing.T) {
	cfg := BenchDefaults()
	InitGlobalWith(cfg)
	require.Same(t, cfg, Get())
}
