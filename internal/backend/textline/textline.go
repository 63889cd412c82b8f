// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package textline implements the Text Line backend (spec §4.6): a
// line-oriented text backend over a Message Stream.
package textline

import (
	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
)

// Backend is the text-line speech method.
type Backend struct {
	logger  commons.Logger
	stream  *stream.Stream
	bridge  *eventbridge.Bridge
	resumed bool
}

// New builds a Backend over an already-constructed Message Stream.
func New(logger commons.Logger, s *stream.Stream, bridge *eventbridge.Bridge) *Backend {
	return &Backend{logger: logger, stream: s, bridge: bridge}
}

func (b *Backend) Method() backend.Method { return backend.MethodText }

// IsViable is true iff the underlying stream reports connected (spec §4.6).
func (b *Backend) IsViable() bool { return b.stream.Connected() }

func (b *Backend) Resume() {
	b.resumed = true
	b.logger.Infof("textline: resumed")
}

func (b *Backend) Pause() {
	b.resumed = false
	b.logger.Infof("textline: paused")
}

// Listen drains all inbound messages; every STRING message is published
// via the Event Bridge with a freshly assigned string_id (spec §4.6).
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
			b.logger.Warnf("textline: discarding malformed STRING: %v", err)
			continue
		}
		id := b.bridge.NextStringID()
		if err := b.bridge.PublishInbound(id, text); err != nil {
			b.logger.Warnf("textline: publish failed: %v", err)
		}
	}
}

// Say pops entries from Output Storage while the stream is connected,
// sending each as a STRING opcode and immediately acknowledging via the
// Event Bridge, preserving FIFO order (spec §4.6).
func (b *Backend) Say(out *storage.Storage) error {
	for out.Available() && b.stream.Connected() {
		u, err := out.Pop()
		if err != nil {
			return nil
		}
		if err := b.stream.Send(opcode.NewString(u.Text).Encode()); err != nil {
			b.logger.Warnf("textline: send failed: %v", err)
			return nil
		}
		if err := b.bridge.AcknowledgeOutbound(u.StringID, u.GroupID); err != nil {
			b.logger.Warnf("textline: acknowledge failed: %v", err)
		}
	}
	return nil
}
