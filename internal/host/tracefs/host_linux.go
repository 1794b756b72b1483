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

//go:build linux

package tracefs

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/perf"
	"github.com/cilium/ebpf/rlimit"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/pkg/util/kernel"
)

// Host attaches eBPF tracepoint programs and fans their records out to
// callbacks. Each point carries at most one callback.
type Host struct {
	*FS

	opts   Options
	logger *logger.Logger
	readFn asm.BuiltinFunc

	mu       sync.Mutex
	attached map[string]*attachment

	lost atomic.Uint64
}

type attachment struct {
	point   Point
	cb      domain.Callback
	events  *ebpf.Map
	prog    *ebpf.Program
	link    link.Link
	reader  *perf.Reader
	records chan perf.Record
	wg      sync.WaitGroup
	logger  *logger.Logger
	lost    *atomic.Uint64
}

// NewHost prepares the process for loading eBPF objects against fs.
func NewHost(fs *FS, opts Options) (*Host, error) {
	opts = opts.withDefaults()
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, errors.NewHostUnavailableError("failed to remove memlock rlimit", err)
	}

	h := &Host{
		FS:       fs,
		opts:     opts,
		logger:   opts.Logger.WithComponent("tracefs"),
		readFn:   asm.FnProbeRead,
		attached: make(map[string]*attachment),
	}

	// probe_read_kernel arrived in 5.5; older kernels only have probe_read.
	if v, err := kernel.HostVersion(); err == nil && v >= kernel.VersionCode(5, 5, 0) {
		h.readFn = asm.FnProbeReadKernel
	} else if err != nil {
		h.logger.Warn().Err(err).Msg("Kernel version unknown, using bpf_probe_read")
	}

	h.logger.Debug().
		Str("root", fs.Root()).
		Int("workers", opts.Workers).
		Int("per_cpu_buffer", opts.PerCPUBuffer).
		Msg("eBPF host ready")
	return h, nil
}

// Lost returns the number of records the kernel dropped on full buffers.
func (h *Host) Lost() uint64 {
	return h.lost.Load()
}

// Attach loads a program for desc and starts delivering its records to cb.
func (h *Host) Attach(desc domain.Descriptor, cb domain.Callback) error {
	p, err := pointOf(desc)
	if err != nil {
		return err
	}
	key := p.String()

	h.mu.Lock()
	if _, busy := h.attached[key]; busy {
		h.mu.Unlock()
		return fmt.Errorf("%s already has a callback attached", key)
	}
	// Reserve the point while the program loads.
	h.attached[key] = nil
	h.mu.Unlock()

	a, err := h.attach(p, cb)

	h.mu.Lock()
	if err != nil {
		delete(h.attached, key)
	} else {
		h.attached[key] = a
	}
	h.mu.Unlock()
	return err
}

func (h *Host) attach(p Point, cb domain.Callback) (*attachment, error) {
	format, err := h.ReadFormat(p)
	if err != nil {
		return nil, err
	}
	size := copySize(format.RecordSize())

	events, err := newEventsMap()
	if err != nil {
		return nil, errors.NewEBPFLoadError(p.String(), err)
	}
	prog, err := newProgram(size, h.readFn, events)
	if err != nil {
		events.Close()
		return nil, errors.NewEBPFLoadError(p.String(), err)
	}
	rd, err := perf.NewReader(events, h.opts.PerCPUBuffer)
	if err != nil {
		prog.Close()
		events.Close()
		return nil, errors.NewEBPFAttachError(p.String(), err)
	}
	lnk, err := link.Tracepoint(p.Group, p.Event, prog, nil)
	if err != nil {
		rd.Close()
		prog.Close()
		events.Close()
		return nil, errors.NewEBPFAttachError(p.String(), err)
	}

	a := &attachment{
		point:   p,
		cb:      cb,
		events:  events,
		prog:    prog,
		link:    lnk,
		reader:  rd,
		records: make(chan perf.Record, h.opts.Workers*64),
		logger:  h.logger.WithProbe(p.String()),
		lost:    &h.lost,
	}
	a.start(h.opts.Workers)

	a.logger.Info().
		Uint32("id", format.ID).
		Int("copy_size", size).
		Msg("Tracepoint attached")
	return a, nil
}

// Detach unhooks cb from desc. When it returns no invocation of cb is
// running and none will start.
func (h *Host) Detach(desc domain.Descriptor, cb domain.Callback) error {
	p, err := pointOf(desc)
	if err != nil {
		return err
	}
	key := p.String()

	h.mu.Lock()
	a, ok := h.attached[key]
	switch {
	case !ok:
		h.mu.Unlock()
		return fmt.Errorf("nothing is attached to %s", key)
	case a == nil:
		h.mu.Unlock()
		return fmt.Errorf("%s is still attaching", key)
	case a.cb != cb:
		h.mu.Unlock()
		return fmt.Errorf("a different callback is attached to %s", key)
	}
	h.mu.Unlock()

	// The kernel stops running the program once the link is gone.
	if err := a.link.Close(); err != nil {
		return errors.NewDetachError(key, err)
	}

	h.mu.Lock()
	delete(h.attached, key)
	h.mu.Unlock()

	a.stop()
	a.logger.Info().Msg("Tracepoint detached")
	return nil
}

// Close detaches everything still attached.
func (h *Host) Close() error {
	h.mu.Lock()
	pending := make([]*attachment, 0, len(h.attached))
	for _, a := range h.attached {
		if a != nil {
			pending = append(pending, a)
		}
	}
	h.mu.Unlock()

	var errs []error
	for _, a := range pending {
		if err := h.Detach(a.point, a.cb); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (a *attachment) start(workers int) {
	a.wg.Add(1 + workers)
	go a.readLoop()
	for i := 0; i < workers; i++ {
		go a.work()
	}
}

// stop closes the reader, drains the workers and releases kernel objects.
func (a *attachment) stop() {
	if err := a.reader.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close perf reader")
	}
	a.wg.Wait()
	a.prog.Close()
	a.events.Close()
}

func (a *attachment) readLoop() {
	defer a.wg.Done()
	defer close(a.records)

	for {
		record, err := a.reader.Read()
		if err != nil {
			if stderrors.Is(err, perf.ErrClosed) {
				return
			}
			a.logger.Warn().Err(err).Msg("Error reading from perf buffer")
			continue
		}

		if record.LostSamples != 0 {
			a.lost.Add(record.LostSamples)
			a.logger.Warn().
				Uint64("lost_samples", record.LostSamples).
				Msg("Perf buffer full, samples lost")
			continue
		}

		a.records <- record
	}
}

func (a *attachment) work() {
	defer a.wg.Done()
	for record := range a.records {
		a.cb.Invoke(domain.Invocation{CPU: record.CPU, Payload: record.RawSample})
	}
}
