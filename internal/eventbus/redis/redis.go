// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package redis implements the event-bus collaborator contract (spec §1,
// §6.4) over Redis pub/sub, the teacher's ambient client library
// (`*redis.Client`, see sip/infra/rtp_port_allocator.go's construction
// shape). The event bus itself stays an external collaborator — this
// package only gives it a concrete transport so the mediator can run as a
// standalone process instead of only against an in-memory fake.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/eventbridge"
	"github.com/rapidaai/speechmediator/internal/storage"
	"github.com/rapidaai/speechmediator/internal/stream"
)

// wireEvent is the JSON envelope exchanged over the bus's channels.
type wireEvent struct {
	Type       string `json:"type"`
	StringID   uint32 `json:"string_id,omitempty"`
	PartIndex  int    `json:"part_index,omitempty"`
	Text       string `json:"text,omitempty"`
	GroupID    uint32 `json:"group_id,omitempty"`
	Available  bool   `json:"available,omitempty"`
	Method     string `json:"method,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
}

// Bus adapts Redis pub/sub to eventbridge.Publisher (outbound) and drives a
// loop that decodes inbound control events onto Output Storage and
// availability/method queries (spec §6.4).
type Bus struct {
	client     *goredis.Client
	logger     commons.Logger
	outChannel string
	inChannel  string

	// streams and reloadConfig back RESET_REQUEST (spec.md:237, :246):
	// purging a stream's queued inbound messages and re-reading
	// configuration are both out of Output Storage's reach, so Bus needs
	// its own handles to them.
	streams      []*stream.Stream
	reloadConfig func() error
}

// New builds a Bus over an already-constructed *redis.Client, mirroring the
// teacher's pattern of injecting a live client rather than a DSN (spec
// §9-style dependency injection, `NewRTPPortAllocator(client *redis.Client, ...)`).
// streams are every Message Stream whose pending ingress chunks RESET_REQUEST
// must purge; reloadConfig re-reads configuration from its original source
// (may be nil if the caller has nothing to reload).
func New(client *goredis.Client, logger commons.Logger, outChannel, inChannel string, streams []*stream.Stream, reloadConfig func() error) *Bus {
	return &Bus{
		client: client, logger: logger, outChannel: outChannel, inChannel: inChannel,
		streams: streams, reloadConfig: reloadConfig,
	}
}

// Publish implements eventbridge.Publisher by publishing the JSON-encoded
// event to the outbound channel.
func (b *Bus) Publish(ev eventbridge.Event) error {
	body, err := json.Marshal(wireEvent{
		Type: string(ev.Type), StringID: ev.StringID, PartIndex: ev.PartIndex,
		Text: ev.Text, GroupID: ev.GroupID, Available: ev.Available, Method: ev.Method,
		InstanceID: ev.InstanceID,
	})
	if err != nil {
		return fmt.Errorf("eventbus/redis: encode: %w", err)
	}
	if err := b.client.Publish(context.Background(), b.outChannel, body).Err(); err != nil {
		return fmt.Errorf("eventbus/redis: publish: %w", err)
	}
	return nil
}

// Run subscribes to the inbound channel and dispatches every recognized
// event type (spec §6.4) until ctx is cancelled. out is Output Storage;
// methodProvider answers GET_METHOD queries.
func (b *Bus) Run(ctx context.Context, out *storage.Storage, methodProvider eventbridge.MethodProvider) error {
	sub := b.client.Subscribe(ctx, b.inChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload, out, methodProvider)
		}
	}
}

func (b *Bus) handle(payload string, out *storage.Storage, methodProvider eventbridge.MethodProvider) {
	var ev wireEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.logger.Warnf("eventbus/redis: discarding malformed inbound event: %v", err)
		return
	}

	switch ev.Type {
	case "SAY_STRING_REQUEST":
		out.Add(ev.Text, ev.StringID, ev.GroupID)

	case "RESET_REQUEST":
		out.Clear()
		for _, s := range b.streams {
			s.ClearRecv(nil)
		}
		if b.reloadConfig != nil {
			if err := b.reloadConfig(); err != nil {
				b.logger.Warnf("eventbus/redis: config reload failed: %v", err)
			}
		}

	case "LISTEN_AVAIL_REQUEST", "SAY_AVAIL_REQUEST":
		available := methodProvider.CurrentMethod() != backend.MethodNone
		if err := b.Publish(eventbridge.Event{Type: eventbridge.AvailResponse, Available: available}); err != nil {
			b.logger.Warnf("eventbus/redis: avail response publish failed: %v", err)
		}

	case "LISTEN_GET_METHOD", "SAY_GET_METHOD":
		if err := b.Publish(eventbridge.Event{Type: eventbridge.MethodResponse, Method: string(methodProvider.CurrentMethod())}); err != nil {
			b.logger.Warnf("eventbus/redis: method response publish failed: %v", err)
		}

	default:
		b.logger.Warnf("eventbus/redis: unrecognized inbound event type %q", ev.Type)
	}
}
