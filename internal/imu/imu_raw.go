// Package imu defines the two IMU reading shapes the fusion engine
// consumes and the non-blocking producer contract each concrete
// sensor (or mock/replay stand-in) must satisfy.
package imu

// ReadingA is IMU-A's sample: quaternion attitude (body→earth, the
// authoritative attitude source), body-frame acceleration in g, and an
// internal barometer reading riding on the same bus transaction.
type ReadingA struct {
	QuatWXYZ     [4]float32 // body→earth, w first
	AccelBodyG   [3]float32
	PressurePa   float32
	AltitudeMMSL float32
	Valid        bool
}

// ReadingB is IMU-B's sample: body-frame acceleration (already
// rotated into the body frame, same as A), angular rate, and die
// temperature. IMU-B carries no attitude source of its own.
type ReadingB struct {
	AccelBodyG [3]float32
	GyroDps    [3]float32
	TempC      float32
	Valid      bool
}

// SourceA is the non-blocking "get latest" contract for IMU-A.
// Implementations never block the caller on bus I/O; they return
// whatever was last captured by their own refresh cadence.
type SourceA interface {
	Latest() ReadingA
}

// SourceB is the equivalent contract for IMU-B.
type SourceB interface {
	Latest() ReadingB
}
