package baro

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAltitudeFromPressureAtSeaLevelReferenceIsZero(t *testing.T) {
	alt := AltitudeFromPressure(101325, 101325)
	require.InDelta(t, 0.0, alt, 1e-6)
}

func TestAltitudeFromPressureIncreasesAsPressureDrops(t *testing.T) {
	lowAlt := AltitudeFromPressure(101000, 101325)
	highAlt := AltitudeFromPressure(95000, 101325)
	require.Greater(t, highAlt, lowAlt)
	require.Greater(t, lowAlt, 0.0)
}

func TestAltitudeFromPressureNonPositiveInputsAreNaN(t *testing.T) {
	require.True(t, math.IsNaN(AltitudeFromPressure(0, 101325)))
	require.True(t, math.IsNaN(AltitudeFromPressure(-5, 101325)))
	require.True(t, math.IsNaN(AltitudeFromPressure(101325, 0)))
}
