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

// Package status serves a read-only HTTP view of the probe set.
package status

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gojue/tphook/internal/lifecycle"
	"github.com/gojue/tphook/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Source is what the server reports on. *lifecycle.Controller satisfies it.
type Source interface {
	Session() string
	Status() []lifecycle.ProbeStatus
	ProbeStatus(name string) (lifecycle.ProbeStatus, bool)
}

// Health summarizes the probe set.
type Health struct {
	Probes int `json:"probes"`
	Active int `json:"active"`
}

type Server struct {
	ge     *gin.Engine
	addr   string
	source Source
	logger *logger.Logger
}

func NewServer(addr string, source Source, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Server{
		ge:     r,
		addr:   addr,
		source: source,
		logger: log.WithComponent("status"),
	}
	s.attach()
	return s
}

func (s *Server) attach() {
	s.ge.GET("/healthz", s.Healthz)
	s.ge.GET("/probes", s.Probes)
	s.ge.GET("/probes/:name", s.Probe)
	s.ge.NoRoute(func(c *gin.Context) {
		s.reply(c, http.StatusNotFound, RespErrorNotFound, nil)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ge
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.ge,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("Status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Healthz(c *gin.Context) {
	probes := s.source.Status()
	h := Health{Probes: len(probes)}
	for _, p := range probes {
		if p.Outcome == lifecycle.OutcomeActive {
			h.Active++
		}
	}
	s.reply(c, http.StatusOK, RespOK, h)
}

func (s *Server) Probes(c *gin.Context) {
	s.reply(c, http.StatusOK, RespOK, s.source.Status())
}

func (s *Server) Probe(c *gin.Context) {
	st, ok := s.source.ProbeStatus(c.Param("name"))
	if !ok {
		s.reply(c, http.StatusNotFound, RespErrorNotFound, nil)
		return
	}
	s.reply(c, http.StatusOK, RespOK, st)
}

func (s *Server) reply(c *gin.Context, httpCode int, code Status, data any) {
	c.JSON(httpCode, Resp{
		Code:    code,
		Session: s.source.Session(),
		Msg:     code.String(),
		Data:    data,
	})
}
