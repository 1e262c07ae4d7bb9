package sensors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockIMUAProducesValidReadings(t *testing.T) {
	m := NewMockIMUA(5 * time.Millisecond)
	reading := m.Latest()
	require.True(t, reading.Valid)
	require.InDelta(t, 1.0, reading.AccelBodyG[0], 1e-6)
}

func TestMockBaroSetInvalidForcesStaleReading(t *testing.T) {
	m := NewMockBaro(5*time.Millisecond, 101325)
	require.True(t, m.Latest().Valid)

	m.SetInvalid()
	require.False(t, m.Latest().Valid)
}

func TestMockIMUBProducesValidReadings(t *testing.T) {
	m := NewMockIMUB(5 * time.Millisecond)
	require.True(t, m.Latest().Valid)
}
