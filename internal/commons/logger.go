// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package commons holds process-wide ambient concerns (logging) that every
// other package injects rather than resolving from a global.
package commons

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SEPARATOR is the field separator used for list-valued config strings
// (language code lists, normalizer pipelines, …), matching the teacher's
// commons.SEPARATOR convention.
const SEPARATOR = ","

// Logger is the logging contract every component in this module depends on.
// Backed by zap in production; tests may supply a no-op or buffering stub.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})

	Sync() error
}

type zapLogger struct {
	*zap.SugaredLogger
}

// NewLogger builds a Logger at the given level ("debug", "info", "warn",
// "error"). Unknown levels fall back to "info" with a warning emitted after
// construction.
func NewLogger(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	unknownLevel := false
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		unknownLevel = true
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	l := &zapLogger{base.Sugar()}
	if unknownLevel {
		l.Warnf("commons: unrecognized log level %q, defaulting to info", level)
	}
	return l, nil
}
