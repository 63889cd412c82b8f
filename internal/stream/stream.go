// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package stream implements the Message Stream (spec §4.2): one endpoint of
// a local connection-oriented byte stream, running its own I/O worker that
// multiplexes logical streams (SPEECH, COMMAND) over a single connection
// via the packet framer.
package stream

import (
	"container/list"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rapidaai/speechmediator/internal/commons"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/packet"
)

// pollInterval bounds every blocking I/O wait so shutdown is observable
// within one tick (spec §5: "all blocking I/O uses a poll with a timeout
// (≤ 100 ms)").
const pollInterval = 100 * time.Millisecond

// Role distinguishes the server (bind+listen+accept) and client
// (connect-with-retry) endpoint behaviors of spec §4.2.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// Options configures one Message Stream instance.
type Options struct {
	Role           Role
	Channel        string        // logical channel name, used to derive the socket path (server role)
	SocketDir      string        // directory prefix, spec §6.3 (default /tmp/mrh/)
	RemoteAddr     string        // full socket path to dial (client role)
	KeepAlive      bool          // spec §4.2 heartbeat
	IdleTimeout    time.Duration // spec §4.2 "configured client-idle timeout"
	ReconnectDelay time.Duration
}

// Stream owns one endpoint of a local byte-stream connection and the
// worker that drives it. The worker is the sole toucher of the socket FD
// and the packet decoder's reassembly buffers (spec §5).
type Stream struct {
	opts   Options
	logger commons.Logger

	listener *net.UnixListener // server role only

	mu        sync.Mutex
	conn      net.Conn
	connected bool

	outMu sync.Mutex
	out   *list.List // queue of outboundMessage

	inMu sync.Mutex
	in   *list.List // queue of opcode.Frame

	shutdown chan struct{}
	done     chan struct{}
}

type outboundMessage struct {
	stream  packet.StreamID
	payload []byte
}

// New constructs a Stream and starts its I/O worker. Construction is
// separated from any blocking connect attempt — the worker performs
// connect/accept on its own poll cycle; Shutdown stops and joins it.
func New(logger commons.Logger, opts Options) (*Stream, error) {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = pollInterval
	}

	s := &Stream{
		opts:     opts,
		logger:   logger,
		out:      list.New(),
		in:       list.New(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	if opts.Role == RoleServer {
		addr, err := socketPath(opts.SocketDir, opts.Channel)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(opts.SocketDir, 0o700); err != nil {
			return nil, fmt.Errorf("stream: creating socket dir: %w", err)
		}
		_ = os.Remove(addr) // stale socket file from a prior run

		l, err := net.ListenUnix("unixpacket", &net.UnixAddr{Name: addr, Net: "unixpacket"})
		if err != nil {
			return nil, fmt.Errorf("stream: listen %s: %w", addr, err)
		}
		s.listener = l
		logger.Infof("stream: %s listening at %s", opts.Channel, addr)
	}

	go s.run()
	return s, nil
}

func socketPath(dir, channel string) (string, error) {
	if channel == "" {
		return "", errors.New("stream: channel name required for server role")
	}
	return filepath.Join(dir, "mrhpsspeech_"+channel+".sock"), nil
}

// Send enqueues a single outbound message. bytes[0] must be the OpCode;
// minimum size 1 (spec §4.2).
func (s *Stream) Send(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("stream: %w: empty message", ErrInvalidArgument)
	}

	stream := classify(opcode.Code(b[0]))
	s.outMu.Lock()
	s.out.PushBack(outboundMessage{stream: stream, payload: append([]byte(nil), b...)})
	s.outMu.Unlock()
	return nil
}

// classify routes an outbound message onto its logical stream (spec §4.2:
// STRING and AUDIO -> SPEECH, everything else -> COMMAND).
func classify(code opcode.Code) packet.StreamID {
	switch code {
	case opcode.STRING, opcode.AUDIO:
		return packet.StreamSpeech
	default:
		return packet.StreamCommand
	}
}

// TryRecv pops the oldest inbound message, if any.
func (s *Stream) TryRecv() (opcode.Frame, bool) {
	s.inMu.Lock()
	defer s.inMu.Unlock()

	front := s.in.Front()
	if front == nil {
		return opcode.Frame{}, false
	}
	s.in.Remove(front)
	return front.Value.(opcode.Frame), true
}

// ClearRecv purges all inbound messages, optionally filtered by opcode.
func (s *Stream) ClearRecv(filter *opcode.Code) {
	s.inMu.Lock()
	defer s.inMu.Unlock()

	if filter == nil {
		s.in.Init()
		return
	}
	for e := s.in.Front(); e != nil; {
		next := e.Next()
		if e.Value.(opcode.Frame).Code == *filter {
			s.in.Remove(e)
		}
		e = next
	}
}

// Connected reports the observable connection state.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Shutdown stops the I/O worker and closes the socket. Blocks until the
// worker has exited.
func (s *Stream) Shutdown() {
	select {
	case <-s.shutdown:
		// already shutting down
	default:
		close(s.shutdown)
	}
	<-s.done
}

func (s *Stream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Stream) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	s.setConnected(false)
}
