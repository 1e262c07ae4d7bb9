package fc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leo-herrera29/srad-flight-computer/internal/config"
	"github.com/leo-herrera29/srad-flight-computer/internal/fusion"
	"github.com/leo-herrera29/srad-flight-computer/internal/reset"
)

func newTestContext() (*Context, *config.Config, *reset.Signal) {
	cfg := config.BenchDefaults()
	r := &reset.Signal{}
	return NewContext(cfg, r), cfg, r
}

func cleanInputs() Inputs {
	return Inputs{
		ImuAValid: true,
		ImuBValid: true,
		BaroValid: true,
		AglBmp:    0,
		AglImu:    0,
		Fused: fusion.Snapshot{
			AglFused:         0,
			VzFused:          0,
			AzEarth:          0,
			Tilt:             0,
			MachConservative: 0,
			ApogeeAglM:       0,
			TToApogeeS:       0,
		},
	}
}

func TestNewContextStartsPreflight(t *testing.T) {
	c, _, _ := newTestContext()
	status := c.Tick(20, 20, cleanInputs())
	require.Equal(t, StatePreflight, status.State)
}

// Once the tilt latch sets, the FSM reaches ABORT_LOCKOUT within the
// same tick and stays there regardless of later input.
func TestTiltLatchForcesAbortLockout(t *testing.T) {
	c, cfg, _ := newTestContext()

	in := cleanInputs()
	in.Fused.Tilt = cfg.FcTiltAbortDeg + 5
	var status Status
	for ms := 0; ms <= cfg.FcTiltAbortDwellMs+20; ms += 20 {
		status = c.Tick(20, int64(ms), in)
	}
	require.Equal(t, StateAbortLockout, status.State)
	require.True(t, status.Flags&FlagTiltLatch != 0)

	// Recovering the tilt reading must not un-latch the abort.
	in.Fused.Tilt = 0
	status = c.Tick(20, 10000, in)
	require.Equal(t, StateAbortLockout, status.State)
}

// airbrake_cmd_deg is nonzero only while DEPLOYED.
func TestCmdDegOnlyWhenDeployed(t *testing.T) {
	c, _, _ := newTestContext()
	status := c.Tick(20, 20, cleanInputs())
	require.Equal(t, 0.0, status.AirbrakeCmdDeg)

	c.state = StateDeployed
	status = c.status(cleanInputs().Fused, 20)
	require.Greater(t, status.AirbrakeCmdDeg, 0.0)
}

func TestMachGateHysteresisAndDwell(t *testing.T) {
	c, cfg, _ := newTestContext()

	// Starts OK-clear (machOK false) until dwell elapses below threshold.
	for ms := 20; ms < cfg.FcMachDwellMs; ms += 20 {
		c.updateMachGate(0.1, 20)
		require.False(t, c.machOK, "should not flip ON before dwell elapses")
	}
	c.updateMachGate(0.1, 20)
	require.True(t, c.machOK)

	// Transition OFF must be immediate once above threshold+hyst.
	c.updateMachGate(cfg.FcMachMaxForDeploy+cfg.FcMachHyst+0.01, 20)
	require.False(t, c.machOK)
}

func TestLiftoffLatchesOnceAndKeepsLaunchTime(t *testing.T) {
	c, cfg, _ := newTestContext()
	in := cleanInputs()
	in.Fused.VzFused = cfg.FcVzLiftoffMps + 1

	var nowMs int64
	for i := 0; i <= cfg.FcLiftoffDwellMs/20+2; i++ {
		nowMs += 20
		c.updateLiftoff(in.Fused, 20, nowMs)
	}
	require.True(t, c.liftoffLatched)
	latchedAt := c.tLaunchMs

	// Further ticks, even without liftoff conditions, must not relatch.
	in.Fused.VzFused = 0
	nowMs += 1000
	c.updateLiftoff(in.Fused, 20, nowMs)
	require.Equal(t, latchedAt, c.tLaunchMs)
}

func TestSoftResetReturnsToPreflight(t *testing.T) {
	c, cfg, r := newTestContext()
	in := cleanInputs()
	in.Fused.Tilt = cfg.FcTiltAbortDeg + 5
	for ms := 0; ms <= cfg.FcTiltAbortDwellMs+20; ms += 20 {
		c.Tick(20, int64(ms), in)
	}
	require.Equal(t, StateAbortLockout, c.state)

	r.Request()
	status := c.Tick(20, 100000, cleanInputs())
	require.Equal(t, StatePreflight, status.State)
	require.False(t, c.tiltLatch)
}

// Soft-reset applied twice with no intervening ticks must be
// idempotent: the second Consume() is already false, so a second
// Request()+observe before any Tick produces the same state as one.
func TestSoftResetIdempotentWithoutInterveningTick(t *testing.T) {
	c, _, r := newTestContext()
	r.Request()
	r.Request()
	status := c.Tick(20, 20, cleanInputs())
	require.Equal(t, StatePreflight, status.State)
	require.False(t, r.Consume())
}

func TestNaNTiltIsNeverOK(t *testing.T) {
	c, _, _ := newTestContext()
	require.False(t, c.tiltOK(math.NaN()))
}

// The debounce gates are asymmetric: OK must survive
// invalidMs of continuous bad samples before dropping, and a dropped
// gate must see recoveryMs of continuous good samples before it comes
// back, with any bad sample along the way resetting the good-ms count.
func TestDebounceGateAsymmetricTransition(t *testing.T) {
	var g debounceGate
	const invalidMs, recoveryMs = 150, 1500

	g.ok = true
	g.update(false, 100, invalidMs, recoveryMs)
	require.True(t, g.ok, "must not drop before invalidMs of bad accumulates")
	g.update(false, 50, invalidMs, recoveryMs)
	require.False(t, g.ok, "must drop exactly once badMs reaches invalidMs")

	g.update(true, 1000, invalidMs, recoveryMs)
	require.False(t, g.ok, "must not recover before recoveryMs of good accumulates")

	g.update(false, 20, invalidMs, recoveryMs)
	require.Equal(t, 0, g.goodMs, "a single bad sample must reset the good-ms accumulator")

	for ms := 0; ms < recoveryMs; ms += 20 {
		g.update(true, 20, invalidMs, recoveryMs)
	}
	require.True(t, g.ok, "must recover once a full recoveryMs run of good samples accumulates")
}

func TestWindowTimesOutToRetractingWithoutDeploying(t *testing.T) {
	c, cfg, _ := newTestContext()
	c.state = StateWindow
	c.liftoffLatched = true
	c.tLaunchMs = 0

	timeoutMs := int64(cfg.FcExpectedTtaS * cfg.FcExpectedTtaScaleTimeout * 1000)
	require.False(t, c.windowTimedOut(timeoutMs-20))
	require.True(t, c.windowTimedOut(timeoutMs+20))

	// A trajectory too low to ever satisfy deployConditionsMet must
	// still leave WINDOW once the timeout elapses, not park forever.
	lowSnapshot := fusion.Snapshot{AglFused: 10, ApogeeAglM: 36, Tilt: 0}
	c.advance(lowSnapshot, timeoutMs+20)
	require.Equal(t, StateRetracting, c.state)
}

func TestDeployConditionsRequireAllGates(t *testing.T) {
	c, cfg, _ := newTestContext()
	c.imuAGate.ok = true
	c.baroGate.ok = true
	c.machOK = true

	s := fusion.Snapshot{
		AglFused:   cfg.FcMinDeployAglM + 1,
		ApogeeAglM: cfg.FcTargetApogeeAglM + cfg.FcApogeeHighMarginM + 1,
		Tilt:       0,
	}
	require.True(t, c.deployConditionsMet(s))

	c.machOK = false
	require.False(t, c.deployConditionsMet(s))
}
