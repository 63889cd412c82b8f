// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package stream

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/rapidaai/speechmediator/internal/packet"
)

// run is the I/O worker: it accepts/connects, drains the outbound FIFO onto
// the wire through the packet framer, reads packets off the wire and feeds
// the decoder, and deposits completed messages into the inbound FIFO (spec
// §4.2). It is the sole toucher of the socket FD and decoder state.
func (s *Stream) run() {
	defer close(s.done)

	decoder := packet.NewDecoder()
	var nextHeartbeat, idleDeadline time.Time

	for {
		select {
		case <-s.shutdown:
			s.closeConn()
			if s.listener != nil {
				_ = s.listener.Close()
			}
			return
		default:
		}

		conn := s.currentConn()
		if conn == nil {
			conn = s.acquireConn()
			if conn == nil {
				continue // connect/accept attempt timed out, retry next cycle
			}
			decoder.Reset()
			s.drainFIFOs()
			s.setConn(conn)
			now := time.Now()
			idleDeadline = now.Add(s.opts.idleTimeout())
			nextHeartbeat = now.Add(s.heartbeatInterval())
			s.logger.Infof("stream: %s connection established", s.opts.Channel)
			continue
		}

		if s.opts.KeepAlive {
			now := time.Now()
			if now.After(idleDeadline) {
				s.logger.Warnf("stream: %s idle timeout, closing connection", s.opts.Channel)
				s.closeConn()
				continue
			}
			if now.After(nextHeartbeat) {
				s.enqueueHeartbeat()
				nextHeartbeat = now.Add(s.heartbeatInterval())
			}
		}

		if err := s.flushOutbound(conn); err != nil {
			s.logger.Warnf("stream: %s write error: %v", s.opts.Channel, err)
			s.closeConn()
			continue
		}

		gotData, err := s.readOnePacket(conn, decoder)
		if err != nil {
			if !isTimeout(err) {
				s.logger.Warnf("stream: %s read error: %v", s.opts.Channel, err)
				s.closeConn()
			}
			continue
		}
		if gotData {
			idleDeadline = time.Now().Add(s.opts.idleTimeout())
		}
	}
}

func (o Options) idleTimeout() time.Duration {
	if o.IdleTimeout <= 0 {
		return 300 * time.Second
	}
	return o.IdleTimeout
}

// heartbeatInterval is 90% of the idle timeout (spec §4.2).
func (s *Stream) heartbeatInterval() time.Duration {
	return time.Duration(float64(s.opts.idleTimeout()) * 0.9)
}

func (s *Stream) enqueueHeartbeat() {
	msg := opcode.NewHello().Encode()
	s.outMu.Lock()
	s.out.PushBack(outboundMessage{stream: packet.StreamCommand, payload: msg})
	s.outMu.Unlock()
}

func (s *Stream) currentConn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Stream) setConn(c net.Conn) {
	s.mu.Lock()
	s.conn = c
	s.connected = true
	s.mu.Unlock()
}

func (s *Stream) drainFIFOs() {
	s.inMu.Lock()
	s.in.Init()
	s.inMu.Unlock()
	s.outMu.Lock()
	s.out.Init()
	s.outMu.Unlock()
}

// acquireConn performs one non-blocking-poll attempt at accept (server) or
// connect (client), bounded by pollInterval.
func (s *Stream) acquireConn() net.Conn {
	if s.opts.Role == RoleServer {
		_ = s.listener.SetDeadline(time.Now().Add(pollInterval))
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			return nil
		}
		return conn
	}

	conn, err := net.DialTimeout("unixpacket", s.opts.RemoteAddr, pollInterval)
	if err != nil {
		return nil
	}
	return conn
}

func (s *Stream) flushOutbound(conn net.Conn) error {
	for {
		s.outMu.Lock()
		front := s.out.Front()
		var msg outboundMessage
		if front != nil {
			msg = front.Value.(outboundMessage)
			s.out.Remove(front)
		}
		s.outMu.Unlock()

		if front == nil {
			return nil
		}

		for _, raw := range packet.Encode(msg.stream, msg.payload) {
			if err := writeFull(conn, raw); err != nil {
				return err
			}
		}
	}
}

func writeFull(conn net.Conn, buf []byte) error {
	written := 0
	for written < len(buf) {
		_ = conn.SetWriteDeadline(time.Now().Add(pollInterval))
		n, err := conn.Write(buf[written:])
		written += n
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// readOnePacket reads one packet (short reads are retried, spec §6.1) and
// feeds it to the decoder, depositing any completed message into the
// inbound FIFO. The bool return reports whether any bytes were read at
// all, for idle-timeout bookkeeping.
func (s *Stream) readOnePacket(conn net.Conn, decoder *packet.Decoder) (bool, error) {
	buf := make([]byte, packet.Size)
	read := 0
	for read < packet.Size {
		_ = conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			if isTimeout(err) {
				if read == 0 {
					return false, err
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return read > 0, errors.New("stream: connection closed by peer")
			}
			return read > 0, err
		}
	}

	p, err := packet.Decode(buf)
	if err != nil {
		return true, err
	}

	message, _, ok, err := decoder.Feed(p)
	if err != nil {
		return true, err
	}
	if !ok {
		return true, nil
	}

	frame, err := opcode.Decode(message)
	if err != nil {
		s.logger.Warnf("stream: %s discarding undecodable message: %v", s.opts.Channel, err)
		return true, nil
	}

	s.inMu.Lock()
	s.in.PushBack(frame)
	s.inMu.Unlock()
	return true, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
