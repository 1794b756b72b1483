// Copyright 2022 CFC4N <cfc4n.cs@gmail.com>. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger to provide a consistent logging interface.
type Logger struct {
	*zerolog.Logger
}

// Options controls how New builds the root logger.
type Options struct {
	Out   io.Writer
	Debug bool
	JSON  bool
}

// New creates a new console Logger instance.
func New(out io.Writer, debug bool) *Logger {
	return NewWithOptions(Options{Out: out, Debug: debug})
}

// NewWithOptions creates a Logger writing either console or JSON lines.
func NewWithOptions(opts Options) *Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	zlog := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{&zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	zlog := zerolog.Nop()
	return &Logger{&zlog}
}

// WithComponent creates a child logger with a component field.
func (l *Logger) WithComponent(component string) *Logger {
	child := l.Logger.With().Str("component", component).Logger()
	return &Logger{&child}
}

// WithProbe creates a child logger with a probe field.
func (l *Logger) WithProbe(probe string) *Logger {
	child := l.Logger.With().Str("probe", probe).Logger()
	return &Logger{&child}
}

// WithSession creates a child logger with a session field.
func (l *Logger) WithSession(session string) *Logger {
	child := l.Logger.With().Str("session", session).Logger()
	return &Logger{&child}
}
