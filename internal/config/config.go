// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config holds the flight computer's tunable parameters: the
// fusion engine's filter coefficients, the FC's gate thresholds and
// dwell times, the telemetry cadence, and the monitoring link's
// transport settings. Everything tunable is a field here; nothing is
// a build-time macro.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all flight-computer configuration values.
type Config struct {
	// Fusion: baseline capture and AGL
	ZeroAGLAfterMs int     // ZERO_AGL_AFTER_MS: warm-up before baselines arm
	FusionWBmp1    float64 // FUSION_W_BMP1: external-baro weight in AGL fusion

	// Fusion: vertical speed
	FusionVzAlpha    float64 // FUSION_VZ_ALPHA: baro-derivative EMA smoothing
	FusionVzMaxDtMs  int     // FUSION_VZ_MAX_DT_MS: Δt clamp for the baro derivative
	FusionVzFuseBeta float64 // FUSION_VZ_FUSE_BETA: baro share in vz_fused
	FusionVzLeak     float64 // per-tick leak applied to the accel-integrated vz

	// Fusion: tilt azimuth
	FusionTiltAzAlpha      float64 // FUSION_TILT_AZ_ALPHA: azimuth unit-vector EMA
	FusionTiltAzMinTiltDeg float64 // FUSION_TILT_AZ_MIN_TILT_DEG: azimuth update threshold

	// Fusion: conservative apogee prediction bias
	FusionSafeTapxFactor float64 // FUSION_SAFE_TAPX_FACTOR
	FusionSafeZapxFactor float64 // FUSION_SAFE_ZAPX_FACTOR

	// Fusion: atmospherics / Mach
	TiltMaxDeployDeg float64 // TILT_MAX_DEPLOY_DEG: worst-case tilt for the conservative Mach proxy
	Sos10kftDeltaK   float64 // SOS_10KFT_DELTA_K: lapse used for the +10kft SoS estimate
	SosMinFloorMps   float64 // SOS_MIN_FLOOR_MPS

	// Barometric reference
	SeaLevelPressurePa float64 // sea-level reference for the barometric altitude formula

	// FC: sensor validity debounce
	FcSensorInvalidMs  int // FC_SENSOR_INVALID_MS
	FcSensorRecoveryMs int // FC_SENSOR_RECOVERY_MS

	// FC: tilt gate/latch
	FcTiltAbortDeg     float64 // FC_TILT_ABORT_DEG
	FcTiltAbortDwellMs int     // FC_TILT_ABORT_DWELL_MS

	// FC: conservative Mach gate
	FcMachMaxForDeploy float64 // FC_MACH_MAX_FOR_DEPLOY
	FcMachDwellMs      int     // FC_MACH_DWELL_MS
	FcMachHyst         float64 // FC_MACH_HYST

	// FC: baro-agreement gate
	FcBaroAgreeM  float64 // FC_BARO_AGREE_M
	FcBaroAgreeMs int     // FC_BARO_AGREE_MS

	// FC: liftoff detection
	FcLiftoffDwellMs int     // FC_LIFTOFF_DWELL_MS
	FcVzLiftoffMps   float64 // FC_VZ_LIFTOFF_MPS
	FcAzLiftoffMps2  float64 // FC_AZ_LIFTOFF_MPS2
	FcLiftoffMinAglM float64 // FC_LIFTOFF_MIN_AGL_M

	// FC: burnout detection
	FcBurnoutAzDoneMps2 float64 // FC_BURNOUT_AZ_DONE_MPS2
	FcBurnoutDwellMs    int     // FC_BURNOUT_DWELL_MS
	FcBurnoutHoldMs     int     // FC_BURNOUT_HOLD_MS

	// FC: deploy window gates (see DESIGN.md for the two open-question defaults)
	FcMinDeployAglM     float64 // FC_MIN_DEPLOY_AGL_M
	FcTargetApogeeAglM  float64 // FC_TARGET_APOGEE_AGL_M
	FcApogeeHighMarginM float64 // FC_APOGEE_HIGH_MARGIN_M

	// FC: retract timing
	FcRetractBeforeApogeeS    float64 // FC_RETRACT_BEFORE_APOGEE_S
	FcExpectedTtaS            float64 // FC_EXPECTED_TTA_S
	FcExpectedTtaScaleTimeout float64 // FC_EXPECTED_TTA_SCALE_TIMEOUT

	// FC: airbrake command
	FcDeployCmdDeg float64 // FC_DEPLOY_CMD_DEG

	// Servo
	ServoMachGateMax float64 // mach_cons gate used by the servo controller's own check
	ServoTtaAbortS   float64 // t_to_apogee_s disqualifier threshold
	ServoMinPulseUs  int     // fully-retracted pulse width
	ServoMaxPulseUs  int     // fully-open pulse width

	// Telemetry
	TelemPeriodMs      int  // TELEM_PERIOD_MS: telemetry/FC/fusion cadence
	TelemetryCRC       bool // enable/disable the trailing CRC-32
	TelemetrySinkDepth int  // bounded SPSC sink queue depth

	// Monitoring link
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDMonitor  string
	TopicTelemetry       string
	MonitorSerialPort    string
	MonitorSerialBaud    int
	MonitorWSAddr        string
}

// Package-level state for the singleton pattern: globalConfig is
// unexported so other packages cannot mutate it directly; configOnce
// makes InitGlobal idempotent; configMu guards concurrent Get/Init.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the flight operating profile.
func Defaults() *Config {
	return &Config{
		ZeroAGLAfterMs:   10000,
		FusionWBmp1:      0.70,
		FusionVzAlpha:    0.85,
		FusionVzMaxDtMs:  200,
		FusionVzFuseBeta: 0.20,
		FusionVzLeak:     0.02,

		FusionTiltAzAlpha:      0.90,
		FusionTiltAzMinTiltDeg: 2.0,

		FusionSafeTapxFactor: 0.7,
		FusionSafeZapxFactor: 0.8,

		TiltMaxDeployDeg: 20,
		Sos10kftDeltaK:   19.8,
		SosMinFloorMps:   300,

		SeaLevelPressurePa: 101325,

		FcSensorInvalidMs:  150,
		FcSensorRecoveryMs: 1500,

		FcTiltAbortDeg:     30,
		FcTiltAbortDwellMs: 200,

		FcMachMaxForDeploy: 0.50,
		FcMachDwellMs:      300,
		FcMachHyst:         0.02,

		FcBaroAgreeM:  15,
		FcBaroAgreeMs: 500,

		FcLiftoffDwellMs: 150,
		FcVzLiftoffMps:   8,
		FcAzLiftoffMps2:  15,
		FcLiftoffMinAglM: 5,

		FcBurnoutAzDoneMps2: 1.0,
		FcBurnoutDwellMs:    200,
		FcBurnoutHoldMs:     1500,

		FcMinDeployAglM:     100,
		FcTargetApogeeAglM:  3000,
		FcApogeeHighMarginM: 100,

		FcRetractBeforeApogeeS:    5,
		FcExpectedTtaS:            18,
		FcExpectedTtaScaleTimeout: 1.2,

		FcDeployCmdDeg: 30,

		ServoMachGateMax: 0.5,
		ServoTtaAbortS:   1.0,
		ServoMinPulseUs:  1000,
		ServoMaxPulseUs:  2000,

		TelemPeriodMs:      20,
		TelemetryCRC:       true,
		TelemetrySinkDepth: 32,

		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "flightcomputer-core",
		MQTTClientIDMonitor:  "flightcomputer-monitor",
		TopicTelemetry:       "rocket/telemetry",
		MonitorSerialPort:    "",
		MonitorSerialBaud:    57600,
		MonitorWSAddr:        ":8090",
	}
}

// BenchDefaults returns the bench-mode profile: identical gating
// logic, but with a short warm-up and a scaled-down apogee target so
// a scripted scenario on a workstation clock exercises the whole FSM,
// deploy included, without waiting real-world minutes or climbing
// kilometers. A second configuration profile, not a code fork.
func BenchDefaults() *Config {
	cfg := Defaults()
	cfg.ZeroAGLAfterMs = 200
	cfg.FcTargetApogeeAglM = 350
	cfg.FcApogeeHighMarginM = 50
	cfg.TopicTelemetry = "rocket/bench/telemetry"
	cfg.MonitorWSAddr = ":18090"
	return cfg
}

// Load reads a KEY=VALUE configuration file and overlays it onto the
// flight defaults profile.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setValue(key, value string) error {
	switch key {
	case "ZERO_AGL_AFTER_MS":
		return setInt(&c.ZeroAGLAfterMs, key, value)
	case "FUSION_W_BMP1":
		return setFloat(&c.FusionWBmp1, key, value)
	case "FUSION_VZ_ALPHA":
		return setFloat(&c.FusionVzAlpha, key, value)
	case "FUSION_VZ_MAX_DT_MS":
		return setInt(&c.FusionVzMaxDtMs, key, value)
	case "FUSION_VZ_FUSE_BETA":
		return setFloat(&c.FusionVzFuseBeta, key, value)
	case "FUSION_TILT_AZ_ALPHA":
		return setFloat(&c.FusionTiltAzAlpha, key, value)
	case "FUSION_TILT_AZ_MIN_TILT_DEG":
		return setFloat(&c.FusionTiltAzMinTiltDeg, key, value)
	case "FUSION_SAFE_TAPX_FACTOR":
		return setFloat(&c.FusionSafeTapxFactor, key, value)
	case "FUSION_SAFE_ZAPX_FACTOR":
		return setFloat(&c.FusionSafeZapxFactor, key, value)
	case "TILT_MAX_DEPLOY_DEG":
		return setFloat(&c.TiltMaxDeployDeg, key, value)
	case "SOS_10KFT_DELTA_K":
		return setFloat(&c.Sos10kftDeltaK, key, value)
	case "SOS_MIN_FLOOR_MPS":
		return setFloat(&c.SosMinFloorMps, key, value)
	case "SEA_LEVEL_PRESSURE_PA":
		return setFloat(&c.SeaLevelPressurePa, key, value)
	case "FC_SENSOR_INVALID_MS":
		return setInt(&c.FcSensorInvalidMs, key, value)
	case "FC_SENSOR_RECOVERY_MS":
		return setInt(&c.FcSensorRecoveryMs, key, value)
	case "FC_TILT_ABORT_DEG":
		return setFloat(&c.FcTiltAbortDeg, key, value)
	case "FC_TILT_ABORT_DWELL_MS":
		return setInt(&c.FcTiltAbortDwellMs, key, value)
	case "FC_MACH_MAX_FOR_DEPLOY":
		return setFloat(&c.FcMachMaxForDeploy, key, value)
	case "FC_MACH_DWELL_MS":
		return setInt(&c.FcMachDwellMs, key, value)
	case "FC_MACH_HYST":
		return setFloat(&c.FcMachHyst, key, value)
	case "FC_BARO_AGREE_M":
		return setFloat(&c.FcBaroAgreeM, key, value)
	case "FC_BARO_AGREE_MS":
		return setInt(&c.FcBaroAgreeMs, key, value)
	case "FC_LIFTOFF_DWELL_MS":
		return setInt(&c.FcLiftoffDwellMs, key, value)
	case "FC_VZ_LIFTOFF_MPS":
		return setFloat(&c.FcVzLiftoffMps, key, value)
	case "FC_AZ_LIFTOFF_MPS2":
		return setFloat(&c.FcAzLiftoffMps2, key, value)
	case "FC_LIFTOFF_MIN_AGL_M":
		return setFloat(&c.FcLiftoffMinAglM, key, value)
	case "FC_BURNOUT_AZ_DONE_MPS2":
		return setFloat(&c.FcBurnoutAzDoneMps2, key, value)
	case "FC_BURNOUT_DWELL_MS":
		return setInt(&c.FcBurnoutDwellMs, key, value)
	case "FC_BURNOUT_HOLD_MS":
		return setInt(&c.FcBurnoutHoldMs, key, value)
	case "FC_MIN_DEPLOY_AGL_M":
		return setFloat(&c.FcMinDeployAglM, key, value)
	case "FC_TARGET_APOGEE_AGL_M":
		return setFloat(&c.FcTargetApogeeAglM, key, value)
	case "FC_APOGEE_HIGH_MARGIN_M":
		return setFloat(&c.FcApogeeHighMarginM, key, value)
	case "FC_RETRACT_BEFORE_APOGEE_S":
		return setFloat(&c.FcRetractBeforeApogeeS, key, value)
	case "FC_EXPECTED_TTA_S":
		return setFloat(&c.FcExpectedTtaS, key, value)
	case "FC_EXPECTED_TTA_SCALE_TIMEOUT":
		return setFloat(&c.FcExpectedTtaScaleTimeout, key, value)
	case "FC_DEPLOY_CMD_DEG":
		return setFloat(&c.FcDeployCmdDeg, key, value)
	case "TELEM_PERIOD_MS":
		return setInt(&c.TelemPeriodMs, key, value)
	case "TELEMETRY_CRC":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.TelemetryCRC = v
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "MONITOR_SERIAL_PORT":
		c.MonitorSerialPort = value
	case "MONITOR_SERIAL_BAUD":
		return setInt(&c.MonitorSerialBaud, key, value)
	case "MONITOR_WS_ADDR":
		c.MonitorWSAddr = value
	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// validate checks cross-field sanity the per-key parser can't catch.
func (c *Config) validate() error {
	if c.TelemPeriodMs <= 0 {
		return fmt.Errorf("TELEM_PERIOD_MS must be positive")
	}
	if c.FusionVzAlpha <= 0 || c.FusionVzAlpha >= 1 {
		return fmt.Errorf("FUSION_VZ_ALPHA must be in (0,1)")
	}
	if c.FusionVzFuseBeta <= 0 || c.FusionVzFuseBeta >= 1 {
		return fmt.Errorf("FUSION_VZ_FUSE_BETA must be in (0,1)")
	}
	if c.FusionWBmp1 < 0 || c.FusionWBmp1 > 1 {
		return fmt.Errorf("FUSION_W_BMP1 must be in [0,1]")
	}
	if c.ServoMinPulseUs >= c.ServoMaxPulseUs {
		return fmt.Errorf("servo pulse endpoints must satisfy min < max")
	}
	return nil
}

// InitGlobal initializes the global configuration from a file.
// sync.Once makes repeated calls harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// InitGlobalWith installs an already-built Config as the global
// instance, used by cmd/bench and tests to install BenchDefaults()
// without a file on disk.
func InitGlobalWith(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = cfg
}

// Get returns the global configuration instance. InitGlobal or
// InitGlobalWith must run first.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
