// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"

	"github.com/leo-herrera29/srad-flight-computer/internal/baro"
	"github.com/leo-herrera29/srad-flight-computer/internal/imu"
)

// ReplayIMUA is a scripted IMU-A producer driven entirely by Set
// calls from a scenario runner: no background goroutine, no real
// cadence. Used by cmd/bench to replay scripted flight input
// sequences deterministically.
type ReplayIMUA struct {
	mu       sync.RWMutex
	snapshot imu.ReadingA
}

// NewReplayIMUA creates a replay IMU-A producer with a zero-value
// (invalid) initial snapshot.
func NewReplayIMUA() *ReplayIMUA { return &ReplayIMUA{} }

// Set installs the next reading to be returned by Latest.
func (r *ReplayIMUA) Set(reading imu.ReadingA) {
	r.mu.Lock()
	r.snapshot = reading
	r.mu.Unlock()
}

// Latest returns the most recently Set reading.
func (r *ReplayIMUA) Latest() imu.ReadingA {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// ReplayIMUB is the IMU-B counterpart of ReplayIMUA.
type ReplayIMUB struct {
	mu       sync.RWMutex
	snapshot imu.ReadingB
}

// NewReplayIMUB creates a replay IMU-B producer.
func NewReplayIMUB() *ReplayIMUB { return &ReplayIMUB{} }

// Set installs the next reading to be returned by Latest.
func (r *ReplayIMUB) Set(reading imu.ReadingB) {
	r.mu.Lock()
	r.snapshot = reading
	r.mu.Unlock()
}

// Latest returns the most recently Set reading.
func (r *ReplayIMUB) Latest() imu.ReadingB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// ReplayBaro is the external-barometer counterpart of ReplayIMUA.
type ReplayBaro struct {
	mu       sync.RWMutex
	snapshot baro.Reading
}

// NewReplayBaro creates a replay barometer producer.
func NewReplayBaro() *ReplayBaro { return &ReplayBaro{} }

// Set installs the next reading to be returned by Latest.
func (r *ReplayBaro) Set(reading baro.Reading) {
	r.mu.Lock()
	r.snapshot = reading
	r.mu.Unlock()
}

// Latest returns the most recently Set reading.
func (r *ReplayBaro) Latest() baro.Reading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}
