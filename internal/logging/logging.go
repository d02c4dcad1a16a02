// Package logging builds the diagnostic logger. Diagnostics go to stderr
// (or a rotated file) and never mix with the data written to stdout.
package logging

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const loggerKey = contextKey("logger")

// Options selects level and destination.
type Options struct {
	Verbose bool   // debug level instead of warn
	File    string // rotated log file; empty means the fallback writer
}

// New returns a sugared console logger writing to opts.File, or to
// fallback when no file is set.
func New(opts Options, fallback io.Writer) *zap.SugaredLogger {
	var ws zapcore.WriteSyncer = zapcore.AddSync(fallback)
	if opts.File != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	return zap.New(zapcore.NewCore(encoder, ws, level)).Sugar()
}

// WithContext adds logger to ctx.
func WithContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	return zap.NewNop().Sugar()
}
