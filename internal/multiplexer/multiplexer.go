// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package multiplexer implements the Method Multiplexer (spec §4.10, C10):
// the process's main tick loop, owning the ordered set of backends and
// driving viability, pause/resume, and listen/say dispatch.
package multiplexer

import (
	"sync/atomic"
	"time"

	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/storage"
)

// entry pairs a backend with its configured priority (lowest wins ties,
// spec §4.10).
type entry struct {
	priority int
	backend  backend.Backend
}

// Multiplexer owns the ordered backend list and the published method tag.
type Multiplexer struct {
	logger       commons.Logger
	out          *storage.Storage
	entries      []entry
	tickInterval time.Duration

	active       backend.Backend
	publishedTag atomic.Value // backend.Method
	shutdown     chan struct{}
}

// New builds a Multiplexer. Entries should be added via Add before Run is
// called.
func New(logger commons.Logger, out *storage.Storage, tickInterval time.Duration) *Multiplexer {
	if tickInterval <= 0 {
		tickInterval = 100 * time.Millisecond
	}
	m := &Multiplexer{
		logger:       logger,
		out:          out,
		tickInterval: tickInterval,
		shutdown:     make(chan struct{}),
	}
	m.publishedTag.Store(backend.MethodNone)
	return m
}

// Add registers a backend at the given priority (lower wins ties, spec
// §4.10). Call before Run.
func (m *Multiplexer) Add(priority int, b backend.Backend) {
	m.entries = append(m.entries, entry{priority: priority, backend: b})
	sortEntries(m.entries)
}

func sortEntries(entries []entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].priority < entries[j-1].priority; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// CurrentMethod returns the published method tag without locking (spec
// §4.10: "readable without a lock"), satisfying eventbridge.MethodProvider.
func (m *Multiplexer) CurrentMethod() backend.Method {
	return m.publishedTag.Load().(backend.Method)
}

// noViableRetryDelay is the back-off when no backend is viable (spec
// §4.10 step 5: "sleep 1 second and retry"), distinct from the regular
// tickInterval cadence used while a backend is active.
const noViableRetryDelay = 1 * time.Second

// Run drives the tick loop until Shutdown is called. Intended to run on
// its own goroutine for the lifetime of the process.
func (m *Multiplexer) Run() {
	delay := m.tickInterval
	for {
		select {
		case <-m.shutdown:
			return
		case <-time.After(delay):
		}

		if m.tick() {
			delay = m.tickInterval
		} else {
			delay = noViableRetryDelay
		}
	}
}

// Shutdown stops Run.
func (m *Multiplexer) Shutdown() { close(m.shutdown) }

// tick performs one multiplexer cycle (spec §4.10 steps 1-5) and reports
// whether a backend was viable.
func (m *Multiplexer) tick() bool {
	var next backend.Backend
	for _, e := range m.entries {
		if e.backend.IsViable() {
			next = e.backend
			break
		}
	}

	if next != m.active {
		if m.active != nil {
			m.active.Pause()
		}
		if next != nil {
			next.Resume()
		}
		m.active = next
		if next != nil {
			m.publishedTag.Store(next.Method())
		} else {
			m.publishedTag.Store(backend.MethodNone)
		}
	}

	if next == nil {
		return false
	}

	if err := next.Listen(); err != nil {
		m.logger.Warnf("multiplexer: listen failed: %v", err)
	}
	if err := next.Say(m.out); err != nil {
		m.logger.Warnf("multiplexer: say failed: %v", err)
	}
	return true
}
