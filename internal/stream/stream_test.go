// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package stream

import (
	"testing"
	"time"

	"github.com/rapidaai/speechmediator/internal/commons/commonstest"
	"github.com/rapidaai/speechmediator/internal/opcode"
	"github.com/stretchr/testify/require"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := commonstest.NewNoop()

	server, err := New(logger, Options{Role: RoleServer, Channel: "test", SocketDir: dir, IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer server.Shutdown()

	addr, err := socketPath(dir, "test")
	require.NoError(t, err)

	client, err := New(logger, Options{Role: RoleClient, RemoteAddr: addr, IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer client.Shutdown()

	require.Eventually(t, func() bool {
		return server.Connected() && client.Connected()
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewString("hello").Encode()))

	require.Eventually(t, func() bool {
		f, ok := server.TryRecv()
		if !ok {
			return false
		}
		s, err := f.AsString()
		require.NoError(t, err)
		require.Equal(t, "hello", s)
		return true
	}, 3*time.Second, 20*time.Millisecond)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	dir := t.TempDir()
	s, err := New(commonstest.NewNoop(), Options{Role: RoleServer, Channel: "test2", SocketDir: dir})
	require.NoError(t, err)
	defer s.Shutdown()

	err = s.Send(nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClearRecvFiltersByOpcode(t *testing.T) {
	dir := t.TempDir()
	logger := commonstest.NewNoop()
	server, err := New(logger, Options{Role: RoleServer, Channel: "test3", SocketDir: dir, IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer server.Shutdown()

	addr, _ := socketPath(dir, "test3")
	client, err := New(logger, Options{Role: RoleClient, RemoteAddr: addr, IdleTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer client.Shutdown()

	require.Eventually(t, func() bool { return server.Connected() }, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, client.Send(opcode.NewString("a").Encode()))
	require.NoError(t, client.Send(opcode.NewHello().Encode()))

	require.Eventually(t, func() bool {
		server.inMu.Lock()
		n := server.in.Len()
		server.inMu.Unlock()
		return n == 2
	}, 3*time.Second, 20*time.Millisecond)

	stringCode := opcode.STRING
	server.ClearRecv(&stringCode)

	server.inMu.Lock()
	defer server.inMu.Unlock()
	require.Equal(t, 1, server.in.Len())
}
