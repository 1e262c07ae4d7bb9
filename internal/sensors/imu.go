// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides concrete producer implementations for the
// three sensor snapshots the fusion engine reads: IMU-A, IMU-B, and
// the external barometer. Each producer owns its snapshot behind a
// mutex; Mock producers refresh it on their own goroutine at a nominal
// cadence, Replay producers on each Set call. Consumers copy under lock. The core itself never performs bus I/O.
// These producers are the only place a real driver would plug in;
// today they're backed by a smooth synthetic generator (Mock) or a
// scripted sequence (Replay), never real hardware.
package sensors

import (
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
)

// MockIMUA is a smooth synthetic IMU-A producer: a nose-up vehicle
// wobbling a couple of degrees off vertical, with 1 g of specific
// force along the body +X (nose) axis.
type MockIMUA struct {
	mu       sync.RWMutex
	start    time.Time
	snapshot imu.ReadingA
}

// NewMockIMUA creates a mock IMU-A producer and starts its refresh
// goroutine at the given period.
func NewMockIMUA(period time.Duration) *MockIMUA {
	m := &MockIMUA{start: time.Now()}
	m.refresh()
	go m.run(period)
	return m
}

func (m *MockIMUA) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		m.refresh()
	}
}

func (m *MockIMUA) refresh() {
	elapsed := time.Since(m.start).Seconds()

	// Nose-up is a -90 degree rotation about body Y; wobble it by a
	// couple of degrees so tilt and azimuth stay alive downstream.
	tiltDeg := -90 + 2*math.Sin(elapsed*0.1)
	half := tiltDeg * math.Pi / 360

	reading := imu.ReadingA{
		QuatWXYZ:     [4]float32{float32(math.Cos(half)), 0, float32(math.Sin(half)), 0},
		AccelBodyG:   [3]float32{1, 0, 0},
		PressurePa:   float32(101325 - 1.2*elapsed),
		AltitudeMMSL: float32(elapsed),
		Valid:        true,
	}
	m.mu.Lock()
	m.snapshot = reading
	m.mu.Unlock()
}

// Latest returns the most recently captured sample.
func (m *MockIMUA) Latest() imu.ReadingA {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// MockIMUB is a smooth synthetic IMU-B producer.
type MockIMUB struct {
	mu       sync.RWMutex
	start    time.Time
	snapshot imu.ReadingB
}

// NewMockIMUB creates a mock IMU-B producer and starts its refresh
// goroutine at the given period.
func NewMockIMUB(period time.Duration) *MockIMUB {
	m := &MockIMUB{start: time.Now()}
	m.refresh()
	go m.run(period)
	return m
}

func (m *MockIMUB) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		m.refresh()
	}
}

func (m *MockIMUB) refresh() {
	elapsed := time.Since(m.start).Seconds()
	reading := imu.ReadingB{
		AccelBodyG: [3]float32{1, 0, 0},
		GyroDps:    [3]float32{float32(2 * math.Sin(elapsed)), float32(1.5 * math.Cos(elapsed*0.7)), 0},
		TempC:      22,
		Valid:      true,
	}
	m.mu.Lock()
	m.snapshot = reading
	m.mu.Unlock()
}

// Latest returns the most recently captured sample.
func (m *MockIMUB) Latest() imu.ReadingB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// MockBaro is a smooth synthetic external-barometer producer.
type MockBaro struct {
	mu         sync.RWMutex
	start      time.Time
	seaLevelPa float64
	snapshot   baro.Reading
}

// NewMockBaro creates a mock barometer producer and starts its
// refresh goroutine at the given period.
func NewMockBaro(period time.Duration, seaLevelPa float64) *MockBaro {
	m := &MockBaro{start: time.Now(), seaLevelPa: seaLevelPa}
	m.refresh()
	go m.run(period)
	return m
}

func (m *MockBaro) run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		m.refresh()
	}
}

func (m *MockBaro) refresh() {
	elapsed := time.Since(m.start).Seconds()
	pressurePa := m.seaLevelPa - 1.2*elapsed

	// Built from periph.io's typed physical units rather than bare
	// float64s, the same shape a real BMP driver's Sense() call would
	// hand back over an I2C/SPI bus.
	temp := physic.ZeroCelsius + physic.Temperature(15.0*float64(physic.Kelvin))
	pressure := physic.Pressure(pressurePa * float64(physic.Pascal))
	reading := baro.FromPhysicUnits(temp, pressure, m.seaLevelPa, true)

	m.mu.Lock()
	m.snapshot = reading
	m.mu.Unlock()
}

// Latest returns the most recently captured sample.
func (m *MockBaro) Latest() baro.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// SetInvalid clears Valid on the current snapshot without touching
// the other fields. The producer's next periodic refresh overwrites it
// with a valid reading again.
func (m *MockBaro) SetInvalid() {
	m.mu.Lock()
	m.snapshot.Valid = false
	m.mu.Unlock()
}
