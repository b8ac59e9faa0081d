// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the leveled logger used across the Leader
// subsystem and its collaborators. Logging is advisory only: no log
// line here is part of any contract, but the severity filtering and
// rotation behavior are real and configured from cfg.Config.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yigfs/fsclient/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Custom severity levels. slog ships with Debug/Info/Warn/Error; we add
// Trace below Debug and Off above Error so the five-plus-off severities
// used across the codebase and its config files map onto a single
// ordered scale.
const (
	levelTrace = slog.Level(-8)
	levelDebug = slog.LevelDebug
	levelInfo  = slog.LevelInfo
	levelWarn  = slog.LevelWarn
	levelError = slog.LevelError
	levelOff   = slog.Level(12)
)

// Options configures the package-level default logger.
type Options struct {
	// Format is "text" or "json".
	Format string
	// Severity is one of the internal/config level names.
	Severity string
	// LogFile, if non-empty, routes output through a rotating file
	// writer (lumberjack) fed asynchronously; otherwise logs go to
	// stderr synchronously.
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// BufferSize is the async writer's channel capacity. Defaults to
	// 1024 if zero.
	BufferSize int
}

type loggerFactory struct {
	format string
}

func severityName(l slog.Level) string {
	switch {
	case l < levelDebug:
		return config.TRACE
	case l < levelInfo:
		return config.DEBUG
	case l < levelWarn:
		return config.INFO
	case l < levelError:
		return config.WARNING
	default:
		return config.ERROR
	}
}

// customHandler renders records in one of two fixed formats; neither
// matches slog's built-in handlers exactly, so we implement
// slog.Handler directly rather than wrapping NewTextHandler/NewJSONHandler.
type customHandler struct {
	w      io.Writer
	level  *slog.LevelVar
	prefix string
	format string
}

func (h *customHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *customHandler) Handle(_ context.Context, r slog.Record) error {
	sev := severityName(r.Level)
	msg := h.prefix + r.Message

	var line string
	if h.format == "json" {
		line = fmt.Sprintf(
			"{\"timestamp\":{\"seconds\":%d,\"nanos\":%d},\"severity\":%q,\"message\":%q}\n",
			r.Time.Unix(), r.Time.Nanosecond(), sev, msg)
	} else {
		line = fmt.Sprintf("time=%q severity=%s message=%q\n",
			r.Time.Format("2006/01/02 15:04:05.000000"), sev, msg)
	}

	_, err := io.WriteString(h.w, line)
	return err
}

func (h *customHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *customHandler) WithGroup(_ string) slog.Handler      { return h }

func (fa *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	return &customHandler{w: w, level: level, prefix: prefix, format: fa.format}
}

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	case config.TRACE:
		programLevel.Set(levelTrace)
	case config.DEBUG:
		programLevel.Set(levelDebug)
	case config.INFO:
		programLevel.Set(levelInfo)
	case config.WARNING:
		programLevel.Set(levelWarn)
	case config.ERROR:
		programLevel.Set(levelError)
	default:
		programLevel.Set(levelOff)
	}
}

var (
	defaultLoggerFactory = &loggerFactory{format: "json"}
	defaultLoggerLevel   = new(slog.LevelVar)
	defaultLogger        = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultLoggerLevel, ""))
	closer               io.Closer
)

// Init (re)configures the package-level default logger per opts. It is
// called once at process startup by cmd/fsclientd; tests call it once
// per case to point the logger at a fresh file.
func Init(opts Options) error {
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}

	lvl := new(slog.LevelVar)
	setLoggingLevel(opts.Severity, lvl)

	var w io.Writer = os.Stderr
	if opts.LogFile != "" {
		bufSize := opts.BufferSize
		if bufSize == 0 {
			bufSize = 1024
		}
		lj := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		async := NewAsyncLogger(lj, bufSize)
		w = async
		closer = async
	}

	format := opts.Format
	if format != "json" {
		format = "text"
	}

	factory := &loggerFactory{format: format}
	defaultLoggerFactory = factory
	defaultLoggerLevel = lvl
	defaultLogger = slog.New(factory.createJsonOrTextHandler(w, lvl, ""))
	return nil
}

func logAt(level slog.Level, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(context.Background(), level, msg)
}

// Tracef logs at TRACE severity.
func Tracef(format string, args ...any) { logAt(levelTrace, format, args...) }

// Debugf logs at DEBUG severity.
func Debugf(format string, args ...any) { logAt(levelDebug, format, args...) }

// Infof logs at INFO severity.
func Infof(format string, args ...any) { logAt(levelInfo, format, args...) }

// Warnf logs at WARNING severity.
func Warnf(format string, args ...any) { logAt(levelWarn, format, args...) }

// Errorf logs at ERROR severity.
func Errorf(format string, args ...any) { logAt(levelError, format, args...) }

// Close flushes and closes any active async file writer. Safe to call
// even if Init was never called or used a plain stderr writer.
func Close() error {
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}
