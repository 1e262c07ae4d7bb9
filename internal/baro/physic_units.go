package baro

import "periph.io/x/conn/v3/physic"

// FromPhysicUnits builds a Reading from periph.io's typed physical
// units, the same types a real BMP driver's Sense() call returns.
// Nothing here talks to a device; it only converts already-captured
// values.
func FromPhysicUnits(temp physic.Temperature, pressure physic.Pressure, seaLevelPa float64, valid bool) Reading {
	tempC := float32(float64(temp-physic.ZeroCelsius) / float64(physic.Kelvin))
	pressurePa := float32(float64(pressure) / float64(physic.Pascal))
	altitude := float32(AltitudeFromPressure(float64(pressurePa), seaLevelPa))
	return Reading{
		TemperatureC: tempC,
		PressurePa:   pressurePa,
		AltitudeMMSL: altitude,
		Valid:        valid,
	}
}
