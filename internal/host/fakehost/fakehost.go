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

// Package fakehost is an in-memory host used to exercise probes without a
// kernel. It records every attach and detach, can be told to fail, and
// fires events concurrently at attached callbacks. Detach waits for
// in-flight invocations and later fires are rejected and counted.
package fakehost

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gojue/tphook/internal/domain"
)

// Handle is the descriptor handed out by Host.
type Handle struct {
	Key string
	ID  uint64
}

// String implements domain.Descriptor.
func (h Handle) String() string {
	return h.Key
}

type entry struct {
	name string
	desc domain.Descriptor
}

type binding struct {
	cb     domain.Callback
	mu     sync.RWMutex
	closed bool
}

// Host implements domain.Host in memory.
type Host struct {
	mu          sync.Mutex
	entries     []entry
	bindings    map[string]*binding
	attachErr   map[string]error
	detachErr   map[string]error
	enumErr     error
	attachCalls map[string]int
	detachCalls map[string]int
	visits      int

	rejected atomic.Int64
}

// New creates an empty Host.
func New() *Host {
	return &Host{
		bindings:    make(map[string]*binding),
		attachErr:   make(map[string]error),
		detachErr:   make(map[string]error),
		attachCalls: make(map[string]int),
		detachCalls: make(map[string]int),
	}
}

// Add appends a registry entry. Entries are visited in insertion order.
func (h *Host) Add(name string, desc domain.Descriptor) *Host {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry{name: name, desc: desc})
	return h
}

// FailAttach makes every Attach to desc return err.
func (h *Host) FailAttach(desc domain.Descriptor, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachErr[desc.String()] = err
}

// FailDetach makes every Detach from desc return err.
func (h *Host) FailDetach(desc domain.Descriptor, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachErr[desc.String()] = err
}

// FailEnumeration makes ForEachPoint return err without visiting.
func (h *Host) FailEnumeration(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enumErr = err
}

// ForEachPoint implements domain.Enumerator.
func (h *Host) ForEachPoint(visit domain.Visitor) error {
	h.mu.Lock()
	if h.enumErr != nil {
		err := h.enumErr
		h.mu.Unlock()
		return err
	}
	entries := append([]entry(nil), h.entries...)
	h.mu.Unlock()

	for _, e := range entries {
		h.mu.Lock()
		h.visits++
		h.mu.Unlock()
		visit(e.desc, e.name)
	}
	return nil
}

// Attach implements domain.Attacher. A point holds at most one callback.
func (h *Host) Attach(desc domain.Descriptor, cb domain.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := desc.String()
	h.attachCalls[key]++
	if err := h.attachErr[key]; err != nil {
		return err
	}
	if _, busy := h.bindings[key]; busy {
		return fmt.Errorf("point %s already has a callback attached", key)
	}
	h.bindings[key] = &binding{cb: cb}
	return nil
}

// Detach implements domain.Attacher. It blocks until every in-flight
// invocation of cb at desc has returned.
func (h *Host) Detach(desc domain.Descriptor, cb domain.Callback) error {
	h.mu.Lock()
	key := desc.String()
	h.detachCalls[key]++
	if err := h.detachErr[key]; err != nil {
		h.mu.Unlock()
		return err
	}
	b, ok := h.bindings[key]
	if !ok || b.cb != cb {
		h.mu.Unlock()
		return fmt.Errorf("callback is not attached to %s", key)
	}
	delete(h.bindings, key)
	h.mu.Unlock()

	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Fire delivers payload to the callback attached at desc. It reports
// false when nothing is attached or the binding has been detached.
func (h *Host) Fire(desc domain.Descriptor, cpu int, payload []byte) bool {
	h.mu.Lock()
	b, ok := h.bindings[desc.String()]
	h.mu.Unlock()
	if !ok {
		h.rejected.Add(1)
		return false
	}
	return h.fire(b, cpu, payload)
}

func (h *Host) fire(b *binding, cpu int, payload []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		h.rejected.Add(1)
		return false
	}
	b.cb.Invoke(domain.Invocation{CPU: cpu, Payload: payload})
	return true
}

// FireConcurrently fires n events at desc from n goroutines and returns
// how many were delivered.
func (h *Host) FireConcurrently(desc domain.Descriptor, n int, payload []byte) int {
	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(cpu int) {
			defer wg.Done()
			if h.Fire(desc, cpu, payload) {
				delivered.Add(1)
			}
		}(i)
	}
	wg.Wait()
	return int(delivered.Load())
}

// Attached reports whether desc currently has a callback.
func (h *Host) Attached(desc domain.Descriptor) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.bindings[desc.String()]
	return ok
}

// AttachCalls returns how many times Attach was called for desc.
func (h *Host) AttachCalls(desc domain.Descriptor) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attachCalls[desc.String()]
}

// DetachCalls returns how many times Detach was called for desc.
func (h *Host) DetachCalls(desc domain.Descriptor) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.detachCalls[desc.String()]
}

// TotalAttachCalls returns the number of Attach calls across all points.
func (h *Host) TotalAttachCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.attachCalls {
		n += c
	}
	return n
}

// Visits returns the number of visitor calls made so far.
func (h *Host) Visits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visits
}

// Rejected returns the number of fires that found no live binding.
func (h *Host) Rejected() int64 {
	return h.rejected.Load()
}
