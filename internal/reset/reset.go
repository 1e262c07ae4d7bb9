// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package reset implements the single-word, edge-triggered soft-reset
// signal, and a Group that fans one request out to a separate signal
// for each of the fusion engine and the FC. A request is a single
// atomic write; the target task consumes it exactly once, at the top
// of its next tick.
package reset

import "sync/atomic"

// Signal is a one-shot, edge-triggered reset request. Zero value is
// ready to use.
type Signal struct {
	requested atomic.Bool
}

// Request marks a soft reset pending. Safe to call from any
// goroutine, any number of times; the next Consume observes exactly
// one pending reset regardless of how many Request calls coalesced.
func (s *Signal) Request() {
	s.requested.Store(true)
}

// Consume reports whether a reset was requested since the last
// Consume, clearing the pending flag. Call once at the top of each
// tick.
func (s *Signal) Consume() bool {
	return s.requested.CompareAndSwap(true, false)
}

// Group fans one soft-reset request out to N independent one-shot
// Signals. A bare Signal is consumed exactly once by whichever reader
// calls Consume first, which is wrong for "!cmd:soft_reset": it must
// clear both the fusion engine and the FC independently.
// Group gives each task its own Signal so every one of them observes
// the edge exactly once, regardless of tick order.
type Group struct {
	signals []*Signal
}

// NewGroup creates a Group of n independent signals, each zero-valued
// and ready to use.
func NewGroup(n int) *Group {
	g := &Group{signals: make([]*Signal, n)}
	for i := range g.signals {
		g.signals[i] = &Signal{}
	}
	return g
}

// Signal returns the i'th task's independent signal.
func (g *Group) Signal(i int) *Signal { return g.signals[i] }

// Request marks a soft reset pending on every signal in the group.
func (g *Group) Request() {
	for _, s := range g.signals {
		s.Request()
	}
}
