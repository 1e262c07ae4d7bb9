// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package attitude turns IMU-A's body→earth quaternion into the
// derived quantities the fusion engine publishes: a rotated vector,
// tilt from vertical, tilt azimuth, and a display-only Euler triplet.
// The quaternion itself remains the sole authoritative attitude
// source; nothing here re-estimates orientation.
package attitude

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat is a body→earth rotation quaternion, w first.
type Quat struct {
	W, X, Y, Z float64
}

// FromWXYZ builds a Quat from the wire-order float32 quadruple.
func FromWXYZ(wxyz [4]float32) Quat {
	return Quat{W: float64(wxyz[0]), X: float64(wxyz[1]), Y: float64(wxyz[2]), Z: float64(wxyz[3])}
}

func (q Quat) asNumber() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// RotateVector rotates the body-frame vector v into the earth frame:
// v' = q * v * q^-1, with v embedded as a pure quaternion.
func (q Quat) RotateVector(v [3]float64) [3]float64 {
	n := q.asNumber()
	norm := quat.Abs(n)
	if norm == 0 || math.IsNaN(norm) {
		return [3]float64{math.NaN(), math.NaN(), math.NaN()}
	}
	unit := quat.Scale(1/norm, n)
	p := quat.Number{Real: 0, Imag: v[0], Jmag: v[1], Kmag: v[2]}
	rotated := quat.Mul(quat.Mul(unit, p), quat.Conj(unit))
	return [3]float64{rotated.Imag, rotated.Jmag, rotated.Kmag}
}

// Tilt is the angle, in degrees, between the rotated body +X axis and
// earth +Z. Computed by rotating (1,0,0) and taking arccos of the
// clamped Z component, which stays robust near vertical where Euler
// pitch degenerates.
func (q Quat) Tilt() float64 {
	rotated := q.RotateVector([3]float64{1, 0, 0})
	z := rotated[2]
	if math.IsNaN(z) {
		return math.NaN()
	}
	if z > 1 {
		z = 1
	} else if z < -1 {
		z = -1
	}
	return math.Acos(z) * 180 / math.Pi
}

// HorizontalAxis returns the horizontal projection (hx, hy) of the
// rotated body +X axis, used to derive tilt azimuth.
func (q Quat) HorizontalAxis() (hx, hy float64) {
	rotated := q.RotateVector([3]float64{1, 0, 0})
	return rotated[0], rotated[1]
}

// Euler returns the (yaw, pitch, roll) triplet in degrees, for
// display only. The core's own math never consumes this.
func (q Quat) Euler() (yaw, pitch, roll float64) {
	if norm := quat.Abs(q.asNumber()); norm == 0 || math.IsNaN(norm) {
		return math.NaN(), math.NaN(), math.NaN()
	}
	w, x, y, z := q.W, q.X, q.Y, q.Z

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp) * 180 / math.Pi

	sinp := 2 * (w*y - z*x)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	pitch = math.Asin(sinp) * 180 / math.Pi

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp) * 180 / math.Pi

	return yaw, pitch, roll
}
