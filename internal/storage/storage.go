// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package storage implements Output Storage (spec §4.4): a thread-safe FIFO
// of pending outbound Utterances shared between the Event Bridge (writer)
// and the Method Multiplexer (reader/drainer).
package storage

import (
	"container/list"
	"errors"
	"sync"

	"github.com/rapidaai/speechmediator/internal/commons"
)

// ErrEmpty is returned by Pop when no utterance is queued.
var ErrEmpty = errors.New("storage: empty")

// Utterance is one (text, string_id, group_id) record (spec §3).
type Utterance struct {
	Text     string
	StringID uint32
	GroupID  uint32
}

// Storage is a mutex-guarded FIFO of Utterances.
type Storage struct {
	mu            sync.Mutex
	entries       *list.List
	maxChunkBytes int
	logger        commons.Logger
}

// New builds an empty Storage. maxChunkBytes bounds the size of any single
// utterance accepted by Add (spec §4.4).
func New(logger commons.Logger, maxChunkBytes int) *Storage {
	return &Storage{
		entries:       list.New(),
		maxChunkBytes: maxChunkBytes,
		logger:        logger,
	}
}

// Clear drops every pending utterance (used by RESET_REQUEST, spec §6.4).
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Init()
}

// Add enqueues an utterance. Empty text or text exceeding the configured
// maximum is rejected with a warning and not inserted — this is not an
// error condition per spec §4.4.
func (s *Storage) Add(text string, stringID, groupID uint32) {
	if text == "" {
		s.logger.Warnw("storage: rejecting empty utterance", "string_id", stringID, "group_id", groupID)
		return
	}
	if len(text) > s.maxChunkBytes {
		s.logger.Warnw("storage: rejecting oversized utterance", "string_id", stringID, "len", len(text), "max", s.maxChunkBytes)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.PushBack(Utterance{Text: text, StringID: stringID, GroupID: groupID})
}

// Available reports whether any utterance is queued.
func (s *Storage) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len() > 0
}

// Pop removes and returns the oldest utterance, preserving FIFO order
// (spec §3 invariant 5, §8 testable property 4).
func (s *Storage) Pop() (Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	front := s.entries.Front()
	if front == nil {
		return Utterance{}, ErrEmpty
	}
	s.entries.Remove(front)
	return front.Value.(Utterance), nil
}
