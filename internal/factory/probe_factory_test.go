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

package factory

import (
	"errors"
	"testing"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/internal/probe"
	"github.com/gojue/tphook/internal/schema"
)

func nopSink(string, domain.Event) {}

func TestNewProbeFactory(t *testing.T) {
	factory := NewProbeFactory()
	if factory == nil {
		t.Fatal("NewProbeFactory returned nil")
	}

	if schemas := factory.GetSupportedSchemas(); len(schemas) != 0 {
		t.Errorf("expected 0 schemas, got %d", len(schemas))
	}
}

func TestRegisterSchema(t *testing.T) {
	factory := NewProbeFactory()

	if err := factory.RegisterSchema(schema.SchemaRaw, Typed[schema.Raw]()); err != nil {
		t.Fatalf("RegisterSchema() error = %v", err)
	}
	if schemas := factory.GetSupportedSchemas(); len(schemas) != 1 {
		t.Errorf("expected 1 schema, got %d", len(schemas))
	}
}

func TestRegisterSchemaInvalid(t *testing.T) {
	factory := NewProbeFactory()

	if err := factory.RegisterSchema("", Typed[schema.Raw]()); err == nil {
		t.Error("RegisterSchema() should reject an empty name")
	}
	if err := factory.RegisterSchema("x", nil); err == nil {
		t.Error("RegisterSchema() should reject a nil constructor")
	}

	_ = factory.RegisterSchema(schema.SchemaRaw, Typed[schema.Raw]())
	if err := factory.RegisterSchema(schema.SchemaRaw, Typed[schema.Raw]()); err == nil {
		t.Error("RegisterSchema() should return error for duplicate schema")
	}
}

func TestCreateProbe(t *testing.T) {
	factory := NewProbeFactory()
	if err := RegisterBuiltins(factory); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}

	reg, err := factory.CreateProbe(schema.SchemaSchedSwitch, "sched:sched_switch", nopSink, logger.Nop())
	if err != nil {
		t.Fatalf("CreateProbe() error = %v", err)
	}
	if reg.Name() != "sched:sched_switch" {
		t.Errorf("expected name 'sched:sched_switch', got '%s'", reg.Name())
	}
	if reg.Schema() != schema.SchemaSchedSwitch {
		t.Errorf("expected sched_switch schema, got '%s'", reg.Schema())
	}
	if reg.State() != probe.StateUnresolved {
		t.Errorf("expected unresolved probe, got %s", reg.State())
	}
}

func TestCreateProbeInfersSchema(t *testing.T) {
	factory := NewProbeFactory()
	_ = RegisterBuiltins(factory)

	tests := []struct {
		point string
		want  string
	}{
		{point: "sched_switch", want: schema.SchemaSchedSwitch},
		{point: "raw_syscalls:sys_enter", want: schema.SchemaSysEnter},
		{point: "block:block_rq_issue", want: schema.SchemaRaw},
	}

	for _, tt := range tests {
		t.Run(tt.point, func(t *testing.T) {
			reg, err := factory.CreateProbe("", tt.point, nopSink, nil)
			if err != nil {
				t.Fatalf("CreateProbe() error = %v", err)
			}
			if reg.Schema() != tt.want {
				t.Errorf("expected schema %s, got %s", tt.want, reg.Schema())
			}
		})
	}
}

func TestCreateProbeSinkReceivesTypedEvent(t *testing.T) {
	factory := NewProbeFactory()
	_ = RegisterBuiltins(factory)

	var got domain.Event
	reg, err := factory.CreateProbe(schema.SchemaRaw, "alpha", func(point string, ev domain.Event) {
		if point != "alpha" {
			t.Errorf("unexpected point %s", point)
		}
		got = ev
	}, nil)
	if err != nil {
		t.Fatalf("CreateProbe() error = %v", err)
	}

	reg.Invoke(domain.Invocation{Payload: make([]byte, 8)})
	if _, ok := got.(*schema.Raw); !ok {
		t.Errorf("expected *schema.Raw, got %T", got)
	}
}

func TestCreateProbeNotFound(t *testing.T) {
	factory := NewProbeFactory()

	if _, err := factory.CreateProbe("nope", "alpha", nopSink, nil); err == nil {
		t.Error("CreateProbe() should return error for unregistered schema")
	}
}

func TestCreateProbeConstructorError(t *testing.T) {
	factory := NewProbeFactory()

	_ = factory.RegisterSchema("broken", func(string, Sink, *logger.Logger) (probe.Registration, error) {
		return nil, errors.New("construction failed")
	})

	if _, err := factory.CreateProbe("broken", "alpha", nopSink, nil); err == nil {
		t.Error("CreateProbe() should return error when constructor fails")
	}
	if _, err := factory.CreateProbe(schema.SchemaRaw, "alpha", nil, nil); err == nil {
		t.Error("CreateProbe() should return error for unregistered raw schema")
	}
}

func TestGlobalFactory(t *testing.T) {
	schemas := GetSupportedSchemas()
	if len(schemas) < 4 {
		t.Fatalf("expected builtin schemas, got %v", schemas)
	}

	testSchema := "test-global-schema"
	if err := RegisterSchema(testSchema, Typed[schema.Raw]()); err != nil {
		t.Fatalf("RegisterSchema() error = %v", err)
	}

	reg, err := CreateProbe(testSchema, "global-test", nopSink, nil)
	if err != nil {
		t.Fatalf("CreateProbe() error = %v", err)
	}
	if reg.Name() != "global-test" {
		t.Errorf("expected name 'global-test', got '%s'", reg.Name())
	}

	if _, err := CreateProbe(schema.SchemaRaw, "alpha", nil, nil); err == nil {
		t.Error("CreateProbe() should reject a nil sink")
	}
}

func TestSchemaFor(t *testing.T) {
	tests := map[string]string{
		"sched:sched_switch":      schema.SchemaSchedSwitch,
		"sched_process_exit":      schema.SchemaSchedProcessExit,
		"raw_syscalls:sys_enter":  schema.SchemaSysEnter,
		"irq:irq_handler_entry":   schema.SchemaRaw,
		"sched:sched_switch:tail": schema.SchemaRaw,
	}
	for point, want := range tests {
		if got := SchemaFor(point); got != want {
			t.Errorf("SchemaFor(%q) = %q, want %q", point, got, want)
		}
	}
}
