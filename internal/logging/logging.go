// Package logging builds the zap logger used for diagnostics: a console
// core on stderr and an append-only JSON file written through a buffered,
// non-blocking write syncer.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FileName is the diagnostic log file created in the log directory.
	FileName = "gerritconn.log"

	flushInterval = 5 * time.Second
	bufferSize    = 64 * 1024
)

// Options configures New.
type Options struct {
	// Dir is where the diagnostic log file is appended. Empty disables the file.
	Dir string

	// Console receives human-readable output. Nil disables the console core.
	Console io.Writer

	// Verbose lowers the console level to debug.
	Verbose bool
}

// New builds the logger. The returned close function flushes and releases
// the diagnostic file and must be called before exit.
func New(opts Options) (*zap.Logger, func() error, error) {
	var (
		cores   []zapcore.Core
		closers []func() error
	)

	if opts.Console != nil {
		level := zapcore.WarnLevel
		if opts.Verbose {
			level = zapcore.DebugLevel
		}

		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(zapcore.AddSync(opts.Console)),
			level,
		))
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(filepath.Join(opts.Dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		ws := &zapcore.BufferedWriteSyncer{
			WS:            zapcore.AddSync(f),
			Size:          bufferSize,
			FlushInterval: flushInterval,
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			ws,
			zapcore.DebugLevel,
		))

		closers = append(closers, ws.Stop, f.Close)
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named("gerritconn")

	closeFn := func() error {
		_ = logger.Sync()

		var firstErr error
		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		return firstErr
	}

	return logger, closeFn, nil
}
