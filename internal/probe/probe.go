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

// Package probe holds the per-point probe record and its attach/detach
// state machine.
package probe

import (
	"sync"
	"sync/atomic"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/logger"
)

// State is the lifecycle position of a probe record. It only moves
// forward: Unresolved, Resolved, Attached, Detached.
type State int32

const (
	StateUnresolved State = iota
	StateResolved
	StateAttached
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolved:
		return "resolved"
	case StateAttached:
		return "attached"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Stats counts callback deliveries for one record.
type Stats struct {
	Invoked uint64 `json:"invoked"`
	Dropped uint64 `json:"dropped"`
	Late    uint64 `json:"late"`
}

// Registration is the schema-independent view of a probe record.
type Registration interface {
	domain.Callback

	Name() string
	Schema() string
	State() State
	Descriptor() domain.Descriptor
	Stats() Stats

	Resolve(desc domain.Descriptor) error
	Attach(host domain.Attacher) error
	Detach(host domain.Attacher) error
}

// EventPtr constrains PT to a pointer to T that decodes records.
type EventPtr[T any] interface {
	*T
	domain.Event
}

// Record binds one named instrumentation point to a typed callback.
//
// Resolve, Attach and Detach must be called from a single owner; they
// are serialized by a mutex. Concurrent owners are not supported.
// Invoke is called by the host and may run concurrently.
type Record[T any, PT EventPtr[T]] struct {
	name   string
	schema string
	fn     func(PT)
	logger *logger.Logger

	mu    sync.Mutex
	state atomic.Int32
	desc  domain.Descriptor

	invoked atomic.Uint64
	dropped atomic.Uint64
	late    atomic.Uint64
}

// New creates an unresolved record for the point called name.
func New[T any, PT EventPtr[T]](name string, fn func(PT), log *logger.Logger) (*Record[T, PT], error) {
	if name == "" {
		return nil, errors.New(errors.ErrCodeConfigValidation, "probe name cannot be empty")
	}
	if fn == nil {
		return nil, errors.New(errors.ErrCodeConfigValidation, "probe callback cannot be nil").
			WithContext("probe", name)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Record[T, PT]{
		name:   name,
		schema: PT(new(T)).Schema(),
		fn:     fn,
		logger: log.WithProbe(name),
	}, nil
}

// Name returns the instrumentation point name the record was built for.
func (r *Record[T, PT]) Name() string {
	return r.name
}

// Schema returns the record layout the callback consumes.
func (r *Record[T, PT]) Schema() string {
	return r.schema
}

// State returns the current lifecycle state.
func (r *Record[T, PT]) State() State {
	return State(r.state.Load())
}

// Descriptor returns the resolved handle, or nil while unresolved.
func (r *Record[T, PT]) Descriptor() domain.Descriptor {
	if r.State() == StateUnresolved {
		return nil
	}
	return r.desc
}

// Stats returns a snapshot of the delivery counters.
func (r *Record[T, PT]) Stats() Stats {
	return Stats{
		Invoked: r.invoked.Load(),
		Dropped: r.dropped.Load(),
		Late:    r.late.Load(),
	}
}

// Resolve stores desc and moves the record to Resolved.
func (r *Record[T, PT]) Resolve(desc domain.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.State(); s != StateUnresolved {
		return errors.NewInvalidTransitionError(r.name, s.String(), StateResolved.String())
	}
	if desc == nil {
		return errors.New(errors.ErrCodeConfigValidation, "descriptor cannot be nil").
			WithContext("probe", r.name)
	}

	r.desc = desc
	r.state.Store(int32(StateResolved))
	r.logger.Debug().Str("descriptor", desc.String()).Msg("Probe resolved")
	return nil
}

// Attach installs the record's callback at the host. The record must be
// Resolved. A host failure leaves it Resolved.
func (r *Record[T, PT]) Attach(host domain.Attacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.State(); s != StateResolved {
		return errors.NewInvalidTransitionError(r.name, s.String(), StateAttached.String())
	}

	if err := host.Attach(r.desc, r); err != nil {
		return errors.NewAttachError(r.name, err).WithContext("descriptor", r.desc.String())
	}

	r.state.Store(int32(StateAttached))
	r.logger.Info().Str("descriptor", r.desc.String()).Msg("Probe attached")
	return nil
}

// Detach removes the callback from the host. It is a no-op unless the
// record is Attached. When it returns nil, no invocation is in flight and
// none will start.
func (r *Record[T, PT]) Detach(host domain.Attacher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() != StateAttached {
		return nil
	}

	if err := host.Detach(r.desc, r); err != nil {
		return errors.NewDetachError(r.name, err).WithContext("descriptor", r.desc.String())
	}

	r.state.Store(int32(StateDetached))
	st := r.Stats()
	r.logger.Info().
		Uint64("invoked", st.Invoked).
		Uint64("dropped", st.Dropped).
		Msg("Probe detached")
	return nil
}

// Invoke implements domain.Callback. Records that fail to decode are
// counted and dropped; invocations after Detach are counted as late.
func (r *Record[T, PT]) Invoke(inv domain.Invocation) {
	if r.State() == StateDetached {
		r.late.Add(1)
		return
	}

	ev := PT(new(T))
	if err := ev.DecodeFromBytes(inv.Payload); err != nil {
		r.dropped.Add(1)
		r.logger.Debug().Err(err).Int("cpu", inv.CPU).Msg("Dropping undecodable record")
		return
	}

	r.invoked.Add(1)
	r.fn(ev)
}
