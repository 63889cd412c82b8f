// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package eventbridge translates between event-bus events and core data
// (spec §4.5, §6.4): chunked inbound publish, and outbound acknowledgement.
// The event bus itself is an external collaborator (spec §1) — this
// package only defines the contract at the boundary.
package eventbridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rapidaai/speechmediator/internal/backend"
	"github.com/rapidaai/speechmediator/internal/commons"
)

// EventType enumerates the outbound event-bus event types the bridge emits
// (spec §6.4).
type EventType string

const (
	ListenStringUnfinished EventType = "LISTEN_STRING_UNFINISHED"
	ListenStringEnd        EventType = "LISTEN_STRING_END"
	SayStringPerformed     EventType = "SAY_STRING_PERFORMED"

	// AvailResponse and MethodResponse answer the inbound
	// LISTEN_AVAIL_REQUEST/SAY_AVAIL_REQUEST and
	// LISTEN_GET_METHOD/SAY_GET_METHOD queries (spec §6.4).
	AvailResponse  EventType = "AVAIL_RESPONSE"
	MethodResponse EventType = "METHOD_RESPONSE"
)

// Event is one outbound event-bus message. InstanceID tags every event with
// this process's identity so a multi-instance event bus can route replies
// and de-duplicate across mediator restarts.
type Event struct {
	Type       EventType
	StringID   uint32
	PartIndex  int
	Text       string
	GroupID    uint32
	Available  bool
	Method     string
	InstanceID string
}

// Publisher is the event-bus collaborator contract (spec §6.4): anything
// capable of accepting one outbound Event.
type Publisher interface {
	Publish(Event) error
}

// ErrEventEmitFailed wraps any Publisher failure per spec §7.
type ErrEventEmitFailed struct {
	Cause error
}

func (e *ErrEventEmitFailed) Error() string { return fmt.Sprintf("event emit failed: %v", e.Cause) }
func (e *ErrEventEmitFailed) Unwrap() error { return e.Cause }

// Bridge assigns string_ids under a mutex (spec §5: "Inbound transcriptions
// produce events in strict string_id order") and performs chunked publish /
// ack emission.
type Bridge struct {
	publisher     Publisher
	logger        commons.Logger
	maxChunkBytes int
	instanceID    string

	mu     sync.Mutex
	nextID uint32
	acked  map[uint32]bool
}

// New builds a Bridge. maxEventBodyBytes bounds each LISTEN_STRING_* chunk
// (spec §4.5). A fresh instance id is generated for the process lifetime
// and stamped onto every published event.
func New(logger commons.Logger, publisher Publisher, maxEventBodyBytes int) *Bridge {
	return &Bridge{
		publisher:     publisher,
		logger:        logger,
		maxChunkBytes: maxEventBodyBytes,
		instanceID:    uuid.NewString(),
		acked:         make(map[uint32]bool),
	}
}

// NextStringID assigns a fresh, strictly increasing string_id (spec §3
// invariant 4, §8 testable property 3).
func (b *Bridge) NextStringID() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

// PublishInbound splits text into chunks of at most maxChunkBytes bytes,
// emitting LISTEN_STRING_UNFINISHED for every chunk but the last and
// LISTEN_STRING_END for the last, all sharing stringID with ascending
// part_index starting at 0 (spec §4.5, §8 scenario S2).
func (b *Bridge) PublishInbound(stringID uint32, text string) error {
	chunks := chunk(text, b.maxChunkBytes)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	for i, c := range chunks {
		typ := ListenStringUnfinished
		if i == len(chunks)-1 {
			typ = ListenStringEnd
		}
		if err := b.publisher.Publish(Event{Type: typ, StringID: stringID, PartIndex: i, Text: c, InstanceID: b.instanceID}); err != nil {
			b.logger.Warnw("eventbridge: publish failed", "string_id", stringID, "part_index", i, "err", err)
			return &ErrEventEmitFailed{Cause: err}
		}
	}
	return nil
}

// AcknowledgeOutbound emits exactly one SAY_STRING_PERFORMED for
// (stringID, groupID). Per spec §3 invariant 6 / §8 testable property 6, no
// string_id may be acknowledged twice in the process lifetime; a repeat
// call is a no-op rather than a double emission.
func (b *Bridge) AcknowledgeOutbound(stringID, groupID uint32) error {
	b.mu.Lock()
	if b.acked[stringID] {
		b.mu.Unlock()
		b.logger.Warnw("eventbridge: duplicate acknowledge suppressed", "string_id", stringID)
		return nil
	}
	b.acked[stringID] = true
	b.mu.Unlock()

	if err := b.publisher.Publish(Event{Type: SayStringPerformed, StringID: stringID, GroupID: groupID, InstanceID: b.instanceID}); err != nil {
		b.logger.Warnw("eventbridge: ack publish failed", "string_id", stringID, "err", err)
		return &ErrEventEmitFailed{Cause: err}
	}
	return nil
}

// chunk splits s into pieces of at most n bytes, respecting UTF-8 boundaries.
func chunk(s string, n int) []string {
	if n <= 0 || len(s) <= n {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var out []string
	runes := []rune(s)
	var cur []rune
	curLen := 0
	for _, r := range runes {
		rl := len(string(r))
		if curLen+rl > n && len(cur) > 0 {
			out = append(out, string(cur))
			cur = nil
			curLen = 0
		}
		cur = append(cur, r)
		curLen += rl
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// MethodProvider answers GET_METHOD queries (spec §6.4) by exposing the
// Method Multiplexer's currently published method tag without a lock.
type MethodProvider interface {
	CurrentMethod() backend.Method
}
