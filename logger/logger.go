/*
 * MIT License
 *
 * Copyright (c) 2026 wampcc contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger defines the log-emission interface contracted by the
// specification: the library emits lines at {Debug, Info, Warn, Error}
// and the application supplies a sink, or a no-op.
package logger

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Level is the minimal log level a Logger will emit.
type Level uint8

const (
	// DebugLevel logs every line, including per-frame I/O chatter.
	DebugLevel Level = iota
	// InfoLevel logs session and registry lifecycle events.
	InfoLevel
	// WarnLevel logs recoverable conditions, e.g. a backpressure trip.
	WarnLevel
	// ErrorLevel logs conditions that close a socket or session.
	ErrorLevel
)

// String renders the Level's name.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warn"
	case ErrorLevel:
		return "Error"
	}
	return "unknown"
}

// Logger is the log-emission interface every wampcc component depends
// on. Fields are attached via With and are propagated to every
// subsequent call on the returned Logger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a Logger that prepends the given key/value fields
	// to every entry it emits. fields must be an even-length list of
	// alternating keys and values, matching hclog's convention.
	With(fields ...any) Logger
}

// hclogLogger adapts github.com/hashicorp/go-hclog to the Logger
// interface above.
type hclogLogger struct {
	l hclog.Logger
}

// New builds a Logger backed by hclog, writing lines at or above
// minLevel. name appears as the hclog logger's name, and a short
// request-independent correlation id (via google/uuid) is attached so
// that log lines from concurrently-running sessions can be told apart
// without an explicit session-id yet (one is not assigned until WELCOME).
func New(name string, minLevel Level) Logger {
	hl := hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: toHclogLevel(minLevel),
	})
	return &hclogLogger{l: hl.With("instance", uuid.NewString())}
}

func toHclogLevel(l Level) hclog.Level {
	switch l {
	case DebugLevel:
		return hclog.Debug
	case InfoLevel:
		return hclog.Info
	case WarnLevel:
		return hclog.Warn
	case ErrorLevel:
		return hclog.Error
	}
	return hclog.Info
}

func (h *hclogLogger) Debug(msg string, fields ...any) { h.l.Debug(msg, fields...) }
func (h *hclogLogger) Info(msg string, fields ...any)  { h.l.Info(msg, fields...) }
func (h *hclogLogger) Warn(msg string, fields ...any)  { h.l.Warn(msg, fields...) }
func (h *hclogLogger) Error(msg string, fields ...any) { h.l.Error(msg, fields...) }

func (h *hclogLogger) With(fields ...any) Logger {
	return &hclogLogger{l: h.l.With(fields...)}
}

// nopLogger discards every entry. It is the default sink for any
// component that was not explicitly given a Logger.
type nopLogger struct{}

// Nop returns a Logger that discards everything it is given.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) With(...any) Logger   { return nopLogger{} }
