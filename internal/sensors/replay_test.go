package sensors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
)

func TestReplayIMUAReturnsLastSet(t *testing.T) {
	r := NewReplayIMUA()
	require.False(t, r.Latest().Valid)

	reading := imu.ReadingA{QuatWXYZ: [4]float32{1, 0, 0, 0}, Valid: true}
	r.Set(reading)
	require.Equal(t, reading, r.Latest())
}

func TestReplayIMUBReturnsLastSet(t *testing.T) {
	r := NewReplayIMUB()
	reading := imu.ReadingB{GyroDps: [3]float32{1, 2, 3}, Valid: true}
	r.Set(reading)
	require.Equal(t, reading, r.Latest())
}

func TestReplayBaroReturnsLastSet(t *testing.T) {
	r := NewReplayBaro()
	reading := baro.Reading{PressurePa: 100000, Valid: true}
	r.Set(reading)
	require.Equal(t, reading, r.Latest())
}
