package attitude

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTilt_Identity(t *testing.T) {
	q := FromWXYZ([4]float32{1, 0, 0, 0})
	require.InDelta(t, 90.0, q.Tilt(), 1e-6)
}

func TestTilt_NoseStraightUp(t *testing.T) {
	// A -90-degree rotation about body Y puts the nose (+X) along earth +Z.
	half := -math.Pi / 4
	q := FromWXYZ([4]float32{float32(math.Cos(half)), 0, float32(math.Sin(half)), 0})
	require.InDelta(t, 0.0, q.Tilt(), 1e-4)
}

func TestTilt_BoundedRange(t *testing.T) {
	for _, wxyz := range [][4]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.7071, 0, 0.7071, 0},
		{0.5, 0.5, 0.5, 0.5},
	} {
		tilt := FromWXYZ(wxyz).Tilt()
		require.GreaterOrEqual(t, tilt, 0.0)
		require.LessOrEqual(t, tilt, 180.0)
	}
}

func TestRotateVector_ZeroQuaternionIsNaN(t *testing.T) {
	q := FromWXYZ([4]float32{0, 0, 0, 0})
	v := q.RotateVector([3]float64{1, 0, 0})
	require.True(t, math.IsNaN(v[0]))
}

func TestEuler_Identity(t *testing.T) {
	q := FromWXYZ([4]float32{1, 0, 0, 0})
	yaw, pitch, roll := q.Euler()
	require.InDelta(t, 0.0, yaw, 1e-6)
	require.InDelta(t, 0.0, pitch, 1e-6)
	require.InDelta(t, 0.0, roll, 1e-6)
}
