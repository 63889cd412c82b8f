// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package storage

import (
	"sync"
	"testing"

	"github.com/rapidaai/speechmediator/internal/commons/commonstest"
	"github.com/stretchr/testify/require"
)

func TestFIFOPreservesOrder(t *testing.T) {
	s := New(commonstest.NewNoop(), 128)
	s.Add("one", 1, 0)
	s.Add("two", 2, 0)
	s.Add("three", 3, 0)

	for _, want := range []string{"one", "two", "three"} {
		u, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, want, u.Text)
	}

	_, err := s.Pop()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestRejectsEmptyAndOversized(t *testing.T) {
	s := New(commonstest.NewNoop(), 4)
	s.Add("", 1, 0)
	s.Add("toolong", 2, 0)
	require.False(t, s.Available())
}

func TestClear(t *testing.T) {
	s := New(commonstest.NewNoop(), 128)
	s.Add("a", 1, 0)
	s.Clear()
	require.False(t, s.Available())
}

func TestConcurrentAddPop(t *testing.T) {
	s := New(commonstest.NewNoop(), 128)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add("x", uint32(i), 0)
		}(i)
	}
	wg.Wait()

	count := 0
	for s.Available() {
		_, err := s.Pop()
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 100, count)
}
