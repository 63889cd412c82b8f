// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package netforward implements the Net Forwarder backend (spec §4.7):
// the same shape as the text-line backend, over a separate channel, with
// viability additionally gated on recent ingress.
package netforward

import (
	"sync"
	"time"

	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
)

// Backend is the net-forwarder speech method.
type Backend struct {
	logger         commons.Logger
	stream         *stream.Stream
	bridge         *eventbridge.Bridge
	ingressTimeout time.Duration

	mu           sync.Mutex
	lastIngress  time.Time
	haveIngested bool
}

// New builds a Backend. ingressTimeout bounds how long the backend stays
// viable after the last inbound text message (spec §4.7).
func New(logger commons.Logger, s *stream.Stream, bridge *eventbridge.Bridge, ingressTimeout time.Duration) *Backend {
	return &Backend{logger: logger, stream: s, bridge: bridge, ingressTimeout: ingressTimeout}
}

func (b *Backend) Method() backend.Method { return backend.MethodText }

// IsViable is true iff the stream is connected AND inbound text arrived
// within the configured timeout (spec §4.7). Before any ingress has ever
// been observed, connectivity alone is sufficient — the timeout exists to
// detect an agent that stopped talking, not to gate the very first message.
func (b *Backend) IsViable() bool {
	if !b.stream.Connected() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.haveIngested {
		return true
	}
	return time.Since(b.lastIngress) <= b.ingressTimeout
}

func (b *Backend) Resume() { b.logger.Infof("netforward: resumed") }
func (b *Backend) Pause()  { b.logger.Infof("netforward: paused") }

// Listen drains inbound STRING messages, tracking the last-ingress
// timestamp used by IsViable.
func (b *Backend) Listen() error {
	for {
		frame, ok := b.stream.TryRecv()
		if !ok {
			return nil
		}
		if frame.Code != opcode.STRING {
			continue
		}
		text, err := frame.AsString()
		if err != nil {
			b.logger.Warnf("netforward: discarding malformed STRING: %v", err)
			continue
		}

		b.mu.Lock()
		b.lastIngress = time.Now()
		b.haveIngested = true
		b.mu.Unlock()

		id := b.bridge.NextStringID()
		if err := b.bridge.PublishInbound(id, text); err != nil {
			b.logger.Warnf("netforward: publish failed: %v", err)
		}
	}
}

// Say pops pending output and forwards it, same shape as the text-line
// backend (spec §4.7: "same shape as C6").
func (b *Backend) Say(out *storage.Storage) error {
	for out.Available() && b.stream.Connected() {
		u, err := out.Pop()
		if err != nil {
			return nil
		}
		if err := b.stream.Send(opcode.NewString(u.Text).Encode()); err != nil {
			b.logger.Warnf("netforward: send failed: %v", err)
			return nil
		}
		if err := b.bridge.AcknowledgeOutbound(u.StringID, u.GroupID); err != nil {
			b.logger.Warnf("netforward: acknowledge failed: %v", err)
		}
	}
	return nil
}
