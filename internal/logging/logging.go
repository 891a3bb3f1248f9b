// Package logging builds the process zap logger and holds the nil-safe
// helpers components use with an optional *zap.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format values accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a logger writing to file (stdout when empty) at the given level.
// The returned close function flushes and releases the output.
func New(level, format, file string) (*zap.Logger, func() error, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch format {
	case FormatJSON, "":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole:
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, nil, fmt.Errorf("log format: unknown format %q", format)
	}

	var out io.Writer = os.Stdout
	closeOut := func() error { return nil }
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		out = f
		closeOut = f.Close
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), lvl)
	logger := zap.New(core)
	return logger, func() error {
		_ = logger.Sync()
		return closeOut()
	}, nil
}

// Named returns l.Named(name), or nil when l is nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		return nil
	}
	return l.Named(name)
}

// CheckError logs msg at error level when err is non-nil and reports whether
// it was.
func CheckError(err error, l *zap.Logger, msg string, fields ...zap.Field) bool {
	if err != nil {
		if l != nil {
			l.Error(msg, append(fields, zap.Error(err))...)
		}
		return true
	}
	return false
}

// MakeInfo logs msg at info level when l is non-nil.
func MakeInfo(l *zap.Logger, msg string, fields ...zap.Field) {
	if l != nil {
		l.Info(msg, fields...)
	}
}

// MakeDebug logs msg at debug level when l is non-nil.
func MakeDebug(l *zap.Logger, msg string, fields ...zap.Field) {
	if l != nil {
		l.Debug(msg, fields...)
	}
}
