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

package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gojue/tphook/internal/config"
	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/events"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/internal/output/writers"
)

// logEventHandler prints events through the application logger.
type logEventHandler struct {
	logger *logger.Logger
}

func newLogEventHandler(log *logger.Logger) *logEventHandler {
	return &logEventHandler{logger: log}
}

// Handle processes an event by logging it.
func (h *logEventHandler) Handle(point string, event domain.Event) error {
	h.logger.Info().
		Str("point", point).
		Str("schema", event.Schema()).
		Msg(event.String())
	return nil
}

// Name returns the handler's identifier.
func (h *logEventHandler) Name() string {
	return "log"
}

// outputEventHandler writes one JSON line per event to an output writer.
type outputEventHandler struct {
	out zerolog.Logger
	w   writers.OutputWriter
}

func newOutputEventHandler(w writers.OutputWriter) *outputEventHandler {
	return &outputEventHandler{
		out: zerolog.New(w).With().Timestamp().Logger(),
		w:   w,
	}
}

func (h *outputEventHandler) Handle(point string, event domain.Event) error {
	h.out.Log().
		Str("point", point).
		Str("schema", event.Schema()).
		Msg(event.String())
	return nil
}

func (h *outputEventHandler) Name() string {
	return h.w.Name()
}

func (h *outputEventHandler) Close() error {
	if err := h.w.Flush(); err != nil {
		return err
	}
	return h.w.Close()
}

// newEventDispatcher creates a dispatcher feeding the configured event
// output, or the log when none is set.
func newEventDispatcher(log *logger.Logger, eo config.EventOutput) (domain.EventDispatcher, error) {
	dispatcher := events.NewDispatcher(log)

	var handler domain.EventHandler
	if eo.Addr != "" {
		w, err := writers.CreateWriter(eo.Addr, writers.RotateConfig{
			MaxSizeMB:  eo.MaxSizeMB,
			MaxBackups: eo.MaxBackups,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("output", w.Name()).Msg("Writing events")
		handler = newOutputEventHandler(w)
	} else {
		handler = newLogEventHandler(log.WithComponent("events"))
	}

	if err := dispatcher.Register(handler); err != nil {
		return nil, fmt.Errorf("failed to register %s handler: %w", handler.Name(), err)
	}
	return dispatcher, nil
}
