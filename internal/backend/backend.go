// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package backend defines the capability set every concrete speech method
// (text-line, net-forwarder, voice) implements, replacing the inheritance
// hierarchy of speech methods the original design used (spec §9 redesign
// note).
package backend

import "github.com/rapidaai/speechmediator/internal/storage"

// Method is the ingress/egress modality tag a backend exposes upward
// (spec §3).
type Method string

const (
	MethodNone  Method = ""
	MethodText  Method = "TEXT"
	MethodVoice Method = "VOICE"
)

// Backend is the capability set the Method Multiplexer (C10) drives. Every
// concrete backend (C6, C7, C8) implements this instead of deriving from a
// shared base class.
type Backend interface {
	// Method names the ingress/egress modality this backend exposes.
	Method() Method

	// IsViable reports whether the backend's transport is connected and any
	// required external provider credentials are present (spec §3 invariant 3).
	// Re-evaluated every multiplexer tick.
	IsViable() bool

	// Resume transitions the backend into the active (resumed) state.
	Resume()

	// Pause transitions the backend out of the active state.
	Pause()

	// Listen drains ingress and publishes received input via the Event Bridge.
	Listen() error

	// Say drains pending output from storage toward this backend's transport.
	Say(out *storage.Storage) error
}
