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

// Package lifecycle orchestrates locate and attach at startup and detach
// at shutdown for a set of probe records.
package lifecycle

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/google/uuid"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/locator"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/internal/probe"
)

// Outcome is the startup result for one probe.
type Outcome string

const (
	OutcomePending      Outcome = "pending"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeAttachFailed Outcome = "attach_failed"
	OutcomeActive       Outcome = "active"
)

type phase int

const (
	phaseInit phase = iota
	phaseStarted
	phaseStopped
)

// ProbeStatus is a point-in-time view of one registered probe.
type ProbeStatus struct {
	Name       string      `json:"name"`
	Schema     string      `json:"schema"`
	Descriptor string      `json:"descriptor,omitempty"`
	State      string      `json:"state"`
	Outcome    Outcome     `json:"outcome"`
	Error      string      `json:"error,omitempty"`
	Stats      probe.Stats `json:"stats"`
}

type entry struct {
	reg     probe.Registration
	outcome Outcome
	err     error
}

// Controller owns the process-wide set of probe records.
type Controller struct {
	host    domain.Host
	locator *locator.Locator
	logger  *logger.Logger
	session string

	mu      sync.Mutex
	phase   phase
	order   []string
	entries map[string]*entry
}

// NewController creates a controller bound to host.
func NewController(host domain.Host, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	session := uuid.NewString()
	log = log.WithComponent("lifecycle").WithSession(session)

	return &Controller{
		host:    host,
		locator: locator.New(host, log),
		logger:  log,
		session: session,
		entries: make(map[string]*entry),
	}
}

// Session returns the identifier attached to this controller's logs.
func (c *Controller) Session() string {
	return c.session
}

// Register adds a probe. It must be called before Start, and each name
// may be registered once.
func (c *Controller) Register(reg probe.Registration) error {
	if reg == nil {
		return errors.New(errors.ErrCodeConfiguration, "registration cannot be nil")
	}
	if reg.Name() == "" {
		return errors.New(errors.ErrCodeConfigValidation, "probe name cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phaseInit {
		return errors.New(errors.ErrCodeLifecycle, "probes can only be registered before start").
			WithContext("probe", reg.Name())
	}
	if _, exists := c.entries[reg.Name()]; exists {
		return errors.New(errors.ErrCodeConfiguration, "probe already registered").
			WithContext("probe", reg.Name())
	}

	c.entries[reg.Name()] = &entry{reg: reg, outcome: OutcomePending}
	c.order = append(c.order, reg.Name())
	return nil
}

// Start locates every registered probe in one registry pass and attaches
// the ones found. Missing points and host attach failures are logged and
// leave the probe inert. Only an invalid state transition aborts Start.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != phaseInit {
		return errors.New(errors.ErrCodeLifecycle, "controller already started")
	}
	c.phase = phaseStarted

	found, err := c.locator.LocateAll(c.order)
	if err != nil {
		if !errors.Is(err, errors.ErrCodeEnumerate) {
			return err
		}
		c.logger.Error().Err(err).Msg("Instrumentation point enumeration failed, probes stay inert")
		for _, name := range c.order {
			e := c.entries[name]
			e.outcome = OutcomeNotFound
			e.err = err
		}
		return nil
	}

	active := 0
	for _, name := range c.order {
		if err := ctx.Err(); err != nil {
			return err
		}

		e := c.entries[name]
		desc, ok := found[name]
		if !ok {
			e.outcome = OutcomeNotFound
			e.err = errors.NewNotFoundError(name)
			c.logger.Warn().Str("probe", name).Msg("Instrumentation point not found, probe stays inert")
			continue
		}

		if err := e.reg.Resolve(desc); err != nil {
			e.err = err
			return err
		}

		if err := e.reg.Attach(c.host); err != nil {
			e.err = err
			if errors.Is(err, errors.ErrCodeInvalidTransition) {
				return err
			}
			e.outcome = OutcomeAttachFailed
			c.logger.Error().Err(err).Str("probe", name).Msg("Attach failed, probe stays inert")
			continue
		}

		e.outcome = OutcomeActive
		active++
	}

	c.logger.Info().
		Int("registered", len(c.order)).
		Int("active", active).
		Msg("Probe startup complete")
	return nil
}

// Stop detaches every probe in reverse registration order and releases
// the ones that detached cleanly. It may be called from any phase; only
// the first call does work. Probes whose detach failed are retained.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.phase == phaseStopped {
		c.mu.Unlock()
		return nil
	}
	c.phase = phaseStopped
	order := append([]string(nil), c.order...)
	regs := make([]probe.Registration, len(order))
	for i, name := range order {
		regs[i] = c.entries[name].reg
	}
	c.mu.Unlock()

	// Detach waits for in-flight callbacks, which may read Status.
	failed := make(map[string]error)
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := regs[i].Detach(c.host); err != nil {
			failed[order[i]] = err
			errs = append(errs, err)
			c.logger.Error().Err(err).Str("probe", order[i]).Msg("Detach failed, probe retained")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, name := range c.order {
		if err, ok := failed[name]; ok {
			c.entries[name].err = err
			kept = append(kept, name)
			continue
		}
		delete(c.entries, name)
	}
	released := len(c.order) - len(kept)
	c.order = kept

	c.logger.Info().
		Int("released", released).
		Int("retained", len(c.order)).
		Msg("Probe teardown complete")
	return stderrors.Join(errs...)
}

// Status returns a snapshot of every probe still owned by the controller.
func (c *Controller) Status() []ProbeStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ProbeStatus, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, statusOf(c.entries[name]))
	}
	return out
}

// ProbeStatus returns the snapshot for one probe.
func (c *Controller) ProbeStatus(name string) (ProbeStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return ProbeStatus{}, false
	}
	return statusOf(e), true
}

func statusOf(e *entry) ProbeStatus {
	st := ProbeStatus{
		Name:    e.reg.Name(),
		Schema:  e.reg.Schema(),
		State:   e.reg.State().String(),
		Outcome: e.outcome,
		Stats:   e.reg.Stats(),
	}
	if d := e.reg.Descriptor(); d != nil {
		st.Descriptor = d.String()
	}
	if e.err != nil {
		st.Error = e.err.Error()
	}
	return st
}
