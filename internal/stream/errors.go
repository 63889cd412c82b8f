// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package stream

import "errors"

// ErrInvalidArgument mirrors the spec §7 error kind of the same name.
var ErrInvalidArgument = errors.New("invalid argument")
