/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logDate string = `2006-01-02T15:04:05.000-07:00`

// newLogger writes human-readable lines to stderr. Routine events are only
// shown with --verbose; warnings and errors are always shown.
func newLogger(cfg *Config) (*zap.SugaredLogger, error) {
	level := zap.WarnLevel
	if cfg.verbose {
		level = zap.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	zc.Sampling = nil
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logDate)
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.EncoderConfig.ConsoleSeparator = " | "

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
