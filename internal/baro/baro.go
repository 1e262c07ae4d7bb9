// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package baro defines the external barometer's reading shape and
// its non-blocking producer contract, plus the standard barometric
// altitude formula used to turn a pressure sample into an MSL altitude.
package baro

import "math"

// Reading is a single external-barometer sample. Altitude is derived
// from pressure at capture time using the configured sea-level
// reference; it is stale whenever the producer hasn't refreshed it
// within its nominal ~10 Hz period, reflected by Valid going false.
type Reading struct {
	TemperatureC float32
	PressurePa   float32
	AltitudeMMSL float32
	Valid        bool
}

// Source is the non-blocking "get latest" contract. The core never
// performs bus I/O itself; it only reads whatever a producer task has
// already captured.
type Source interface {
	Latest() Reading
}

// AltitudeFromPressure converts a pressure reading (Pa) to altitude
// above mean sea level (m) via the standard barometric formula, using
// seaLevelPa as the reference pressure.
func AltitudeFromPressure(pressurePa, seaLevelPa float64) float64 {
	if pressurePa <= 0 || seaLevelPa <= 0 {
		return math.NaN()
	}
	const exponent = 1.0 / 5.25588
	return 44330.0 * (1.0 - math.Pow(pressurePa/seaLevelPa, exponent))
}
