// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package commonstest provides a no-op commons.Logger for unit tests, the
// way teacher test files pass a stub logger into constructors that require
// one.
package commonstest

import "github.com/rapidaai/speechmediator/internal/commons"

type noop struct{}

// NewNoop returns a Logger whose methods discard everything.
func NewNoop() commons.Logger { return noop{} }

func (noop) Debugf(string, ...interface{}) {}
func (noop) Infof(string, ...interface{})  {}
func (noop) Warnf(string, ...interface{})  {}
func (noop) Errorf(string, ...interface{}) {}
func (noop) Fatalf(string, ...interface{}) {}
func (noop) Info(...interface{})           {}
func (noop) Warn(...interface{})           {}
func (noop) Error(...interface{})          {}
func (noop) Infow(string, ...interface{})  {}
func (noop) Warnw(string, ...interface{})  {}
func (noop) Errorw(string, ...interface{}) {}
func (noop) Sync() error                   { return nil }
