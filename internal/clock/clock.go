// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock provides the cooperative periodic-pacing primitive
// every task in the core uses instead of a fixed-duration sleep: a
// "delay until next absolute period boundary" wait, which bounds
// cadence jitter even when tick work time varies.
package clock

import "time"

// Ticker paces a loop to a fixed period using absolute deadlines
// rather than relative sleeps, so a slow tick doesn't compound delay
// into the next one.
type Ticker struct {
	period   time.Duration
	next     time.Time
	lastWake time.Time
}

// NewTicker creates a Ticker for the given period, anchored to now.
func NewTicker(period time.Duration) *Ticker {
	now := time.Now()
	return &Ticker{period: period, next: now.Add(period), lastWake: now}
}

// WaitNext blocks until the next period boundary and returns the
// actual elapsed time since the previous wake (the tick's dt, for
// gyro integration and debounce accounting). If tick work overran the
// period, the missed boundary is skipped rather than fired
// immediately back-to-back, so the ticker never busy-spins to catch
// up.
func (t *Ticker) WaitNext() time.Duration {
	now := time.Now()
	if wait := t.next.Sub(now); wait > 0 {
		time.Sleep(wait)
		now = time.Now()
	}
	dt := now.Sub(t.lastWake)
	t.lastWake = now

	for !t.next.After(now) {
		t.next = t.next.Add(t.period)
	}
	return dt
}

// Period reports the ticker's configured period.
func (t *Ticker) Period() time.Duration {
	return t.period
}
