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

package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tperrors "github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/host/fakehost"
	"github.com/gojue/tphook/internal/probe"
	"github.com/gojue/tphook/internal/schema"
)

var (
	h1 = fakehost.Handle{Key: "g:alpha", ID: 1}
	h2 = fakehost.Handle{Key: "g:beta", ID: 2}
)

func rawProbe(t *testing.T, name string, fn func(*schema.Raw)) probe.Registration {
	t.Helper()
	if fn == nil {
		fn = func(*schema.Raw) {}
	}
	rec, err := probe.New[schema.Raw](name, fn, nil)
	require.NoError(t, err)
	return rec
}

// renamed overrides the name a registration reports.
type renamed struct {
	probe.Registration
	name string
}

func (r renamed) Name() string { return r.name }

func TestStartAttachesFoundProbe(t *testing.T) {
	host := fakehost.New().Add("alpha", h1).Add("beta", h2)
	ctrl := NewController(host, nil)
	reg := rawProbe(t, "beta", nil)
	require.NoError(t, ctrl.Register(reg))

	require.NoError(t, ctrl.Start(context.Background()))

	assert.Equal(t, probe.StateAttached, reg.State())
	assert.Equal(t, h2, reg.Descriptor())
	st, ok := ctrl.ProbeStatus("beta")
	require.True(t, ok)
	assert.Equal(t, OutcomeActive, st.Outcome)
	assert.Equal(t, "g:beta", st.Descriptor)
	assert.NotEmpty(t, ctrl.Session())

	require.NoError(t, ctrl.Stop())
	assert.Equal(t, probe.StateDetached, reg.State())
	assert.Equal(t, 1, host.DetachCalls(h2))
	assert.Empty(t, ctrl.Status(), "released probes should be dropped")
}

func TestStartNotFoundLeavesInert(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)
	reg := rawProbe(t, "missing", nil)
	require.NoError(t, ctrl.Register(reg))

	require.NoError(t, ctrl.Start(context.Background()))

	st, ok := ctrl.ProbeStatus("missing")
	require.True(t, ok)
	assert.Equal(t, OutcomeNotFound, st.Outcome)
	assert.Equal(t, probe.StateUnresolved, reg.State())
	assert.Zero(t, host.TotalAttachCalls(), "attach must never be called")

	require.NoError(t, ctrl.Stop())
	assert.Empty(t, ctrl.Status())
}

func TestStartAttachFailureIsRecoverable(t *testing.T) {
	host := fakehost.New().Add("alpha", h1).Add("beta", h2)
	host.FailAttach(h1, errors.New("rejected"))
	ctrl := NewController(host, nil)
	failing := rawProbe(t, "alpha", nil)
	working := rawProbe(t, "beta", nil)
	require.NoError(t, ctrl.Register(failing))
	require.NoError(t, ctrl.Register(working))

	require.NoError(t, ctrl.Start(context.Background()))

	st, _ := ctrl.ProbeStatus("alpha")
	assert.Equal(t, OutcomeAttachFailed, st.Outcome)
	assert.Contains(t, st.Error, "rejected")
	assert.Equal(t, probe.StateResolved, failing.State())
	assert.Equal(t, probe.StateAttached, working.State())

	require.NoError(t, ctrl.Stop())
	assert.Zero(t, host.DetachCalls(h1), "detach of a non-attached probe must not reach the host")
	assert.Equal(t, 1, host.DetachCalls(h2))
}

func TestStartEnumerationFailure(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	host.FailEnumeration(errors.New("no tracefs"))
	ctrl := NewController(host, nil)
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))

	require.NoError(t, ctrl.Start(context.Background()))

	st, _ := ctrl.ProbeStatus("alpha")
	assert.Equal(t, OutcomeNotFound, st.Outcome)
	assert.Contains(t, st.Error, "no tracefs")
	assert.Zero(t, host.TotalAttachCalls())
	require.NoError(t, ctrl.Stop())
}

func TestStartReturnsLocatorErrors(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))
	// Bypass Register to feed the locator a name it rejects.
	ctrl.entries[""] = &entry{reg: renamed{rawProbe(t, "beta", nil), ""}, outcome: OutcomePending}
	ctrl.order = append(ctrl.order, "")

	err := ctrl.Start(context.Background())
	require.Error(t, err)
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeConfigValidation))

	st, _ := ctrl.ProbeStatus("alpha")
	assert.Equal(t, OutcomePending, st.Outcome, "only enumeration failures mark probes not_found")
	assert.Zero(t, host.Visits())
}

func TestStartInvalidTransitionIsFatal(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)
	reg := rawProbe(t, "alpha", nil)
	require.NoError(t, reg.Resolve(h1))
	require.NoError(t, ctrl.Register(reg))

	err := ctrl.Start(context.Background())
	require.Error(t, err)
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeInvalidTransition))
	assert.Equal(t, probe.StateResolved, reg.State())
	assert.Zero(t, host.TotalAttachCalls())

	require.NoError(t, ctrl.Stop())
}

func TestStartOnlyOnce(t *testing.T) {
	ctrl := NewController(fakehost.New(), nil)
	require.NoError(t, ctrl.Start(context.Background()))
	err := ctrl.Start(context.Background())
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeLifecycle))
}

func TestRegisterRules(t *testing.T) {
	ctrl := NewController(fakehost.New().Add("alpha", h1), nil)

	assert.Error(t, ctrl.Register(nil))
	err := ctrl.Register(renamed{rawProbe(t, "alpha", nil), ""})
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeConfigValidation))
	assert.Empty(t, ctrl.Status())
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))
	assert.Error(t, ctrl.Register(rawProbe(t, "alpha", nil)), "one owner per name")

	require.NoError(t, ctrl.Start(context.Background()))
	err = ctrl.Register(rawProbe(t, "beta", nil))
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeLifecycle))
	require.NoError(t, ctrl.Stop())
}

func TestStopWithoutStart(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))

	require.NoError(t, ctrl.Stop())
	assert.Empty(t, ctrl.Status())
	assert.Zero(t, host.DetachCalls(h1))

	// Teardown runs once; later calls and a late start do nothing.
	require.NoError(t, ctrl.Stop())
	assert.Error(t, ctrl.Start(context.Background()))
}

func TestStopRetainsProbeOnDetachFailure(t *testing.T) {
	host := fakehost.New().Add("alpha", h1).Add("beta", h2)
	ctrl := NewController(host, nil)
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))
	require.NoError(t, ctrl.Register(rawProbe(t, "beta", nil)))
	require.NoError(t, ctrl.Start(context.Background()))

	host.FailDetach(h1, errors.New("stuck"))
	err := ctrl.Stop()
	require.Error(t, err)
	assert.True(t, tperrors.Is(err, tperrors.ErrCodeDetach))

	status := ctrl.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "alpha", status[0].Name)
	assert.Equal(t, probe.StateAttached.String(), status[0].State)
}

func TestStartHonoursCancelledContext(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)
	require.NoError(t, ctrl.Register(rawProbe(t, "alpha", nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ctrl.Start(ctx), context.Canceled)
	assert.Zero(t, host.TotalAttachCalls())
	require.NoError(t, ctrl.Stop())
}

func TestNoInvocationAfterStop(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)

	var stopped atomic.Bool
	var late atomic.Int64
	var calls atomic.Int64
	reg := rawProbe(t, "alpha", func(*schema.Raw) {
		if stopped.Load() {
			late.Add(1)
		}
		calls.Add(1)
	})
	require.NoError(t, ctrl.Register(reg))
	require.NoError(t, ctrl.Start(context.Background()))

	assert.Equal(t, 32, host.FireConcurrently(h1, 32, make([]byte, 8)))

	require.NoError(t, ctrl.Stop())
	stopped.Store(true)

	assert.Zero(t, host.FireConcurrently(h1, 8, make([]byte, 8)))
	assert.Zero(t, late.Load(), "callback observed after teardown")
	assert.Equal(t, int64(32), calls.Load())
	assert.Zero(t, reg.Stats().Late)
}

func TestStatusFromCallbackDuringStop(t *testing.T) {
	host := fakehost.New().Add("alpha", h1)
	ctrl := NewController(host, nil)

	entered := make(chan struct{})
	resume := make(chan struct{})
	var seen atomic.Int64
	reg := rawProbe(t, "alpha", func(*schema.Raw) {
		close(entered)
		<-resume
		seen.Store(int64(len(ctrl.Status())))
	})
	require.NoError(t, ctrl.Register(reg))
	require.NoError(t, ctrl.Start(context.Background()))

	fired := make(chan bool)
	go func() { fired <- host.Fire(h1, 0, make([]byte, 8)) }()
	<-entered

	stopped := make(chan error)
	go func() { stopped <- ctrl.Stop() }()
	// Give Stop time to block in Detach behind the running callback.
	time.Sleep(20 * time.Millisecond)
	close(resume)

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop deadlocked against a callback reading Status")
	}
	assert.True(t, <-fired)
	assert.Equal(t, int64(1), seen.Load())
	assert.Equal(t, probe.StateDetached, reg.State())
	assert.Empty(t, ctrl.Status())
}
