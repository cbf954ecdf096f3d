/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log configures the process-wide slog logger. Records go to a
// one-line console view on stderr and, when enabled, to a rotating JSON file
// whose values are redacted before they are written.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"scenebuilder/internal/version"
)

// AppName is the static "app" attribute attached to every record.
const AppName = "scenebuilder"

// AutoFile selects the default log file under the user cache directory.
const AutoFile = "auto"

// Options controls Init. The zero value logs INFO to the console only.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // console or json; applies to stderr only
	AddSource bool
	File      string // rotated JSON log; "" disables it, AutoFile picks a default
}

var (
	level   = new(slog.LevelVar)
	current atomic.Pointer[slog.Logger]

	sinkMu sync.Mutex
	sink   io.Closer
)

// L returns the application logger, initializing a console-only logger on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return Init(Options{})
}

// Init replaces the global logger and slog.Default. A previously opened log
// file is closed.
func Init(opts Options) *slog.Logger {
	level.Set(ParseLevel(opts.Level))
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	var handlers fanout
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(os.Stderr, hopts))
	} else {
		handlers = append(handlers, newConsoleHandler(os.Stderr, hopts))
	}

	sinkMu.Lock()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	if path := ResolveFile(opts.File); path != "" {
		rot := &lj.Logger{Filename: path, MaxSize: 5, MaxBackups: 5, MaxAge: 14, Compress: true}
		sink = rot
		handlers = append(handlers, slog.NewJSONHandler(rot, &slog.HandlerOptions{
			Level:       level,
			AddSource:   opts.AddSource,
			ReplaceAttr: redactor(),
		}))
	}
	sinkMu.Unlock()

	var h slog.Handler = handlers
	if len(handlers) == 1 {
		h = handlers[0]
	}
	l := slog.New(&windowHandler{next: h}).With(
		slog.String("app", AppName),
		slog.String("ver", version.Version),
	)
	current.Store(l)
	slog.SetDefault(l)
	return l
}

// Close flushes and closes the log file, if any.
func Close() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}

// SetLevel changes the minimum level of the live logger.
func SetLevel(s string) { level.Set(ParseLevel(s)) }

// ParseLevel maps a level name to a slog.Level; unknown names mean INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveFile expands AutoFile to <user cache dir>/scenebuilder/scenebuilder.log.
// It returns "" when file logging is disabled or no cache dir exists.
func ResolveFile(file string) string {
	file = strings.TrimSpace(file)
	if file != AutoFile {
		return file
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, AppName+".log")
}

// WithComponent returns a logger tagged with the owning subsystem.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with the operation in progress.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type windowKey struct{}

// ContextWithWindow tags ctx with a window label. Records logged with that
// context carry it as the "window" attribute.
func ContextWithWindow(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, windowKey{}, label)
}

func windowFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	w, _ := ctx.Value(windowKey{}).(string)
	return w
}
