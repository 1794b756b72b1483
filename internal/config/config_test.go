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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	if cfg == nil {
		t.Fatal("NewConfig returned nil")
	}
	if cfg.PerCPUBufferPages != DefaultPerCPUBufferPages {
		t.Errorf("expected PerCPUBufferPages=%d, got %d", DefaultPerCPUBufferPages, cfg.PerCPUBufferPages)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("expected Workers=%d, got %d", DefaultWorkers, cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid default config", mutate: func(*Config) {}},
		{name: "zero buffer", mutate: func(c *Config) { c.PerCPUBufferPages = 0 }, wantErr: true},
		{name: "buffer not power of two", mutate: func(c *Config) { c.PerCPUBufferPages = 12 }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: true},
		{name: "too many workers", mutate: func(c *Config) { c.Workers = MaxWorkers + 1 }, wantErr: true},
		{name: "negative event output size", mutate: func(c *Config) { c.EventOutput.MaxSizeMB = -1 }, wantErr: true},
		{name: "empty point", mutate: func(c *Config) { c.AddProbe("", "") }, wantErr: true},
		{
			name: "duplicate point",
			mutate: func(c *Config) {
				c.AddProbe("sched_switch", "")
				c.AddProbe("sched_switch", "raw")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tphook.yaml")
	data := []byte(`debug: true
workers: 2
listen: 127.0.0.1:28257
probes:
  - point: sched:sched_switch
  - point: sys_enter
    schema: raw
event_output:
  addr: /var/log/tphook/events.log
  max_size_mb: 10
  max_backups: 3
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !cfg.Debug || cfg.Workers != 2 || cfg.Listen != "127.0.0.1:28257" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.PerCPUBufferPages != DefaultPerCPUBufferPages {
		t.Errorf("defaults should survive loading, got %d", cfg.PerCPUBufferPages)
	}
	if len(cfg.Probes) != 2 || cfg.Probes[1].Schema != "raw" {
		t.Errorf("unexpected probes %+v", cfg.Probes)
	}
	if cfg.EventOutput != (EventOutput{Addr: "/var/log/tphook/events.log", MaxSizeMB: 10, MaxBackups: 3}) {
		t.Errorf("unexpected event output %+v", cfg.EventOutput)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("workers: 0\n"), 0o600)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should validate the result")
	}
}

func TestBytes(t *testing.T) {
	cfg := NewConfig()
	cfg.AddProbe("sched_switch", "")

	var out map[string]any
	if err := json.Unmarshal(cfg.Bytes(), &out); err != nil {
		t.Fatalf("Bytes() is not JSON: %v", err)
	}
	if out["workers"].(float64) != DefaultWorkers {
		t.Errorf("unexpected workers %v", out["workers"])
	}
}

func TestParseProbeArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    ProbeConfig
		wantErr bool
	}{
		{arg: "sched_switch", want: ProbeConfig{Point: "sched_switch"}},
		{arg: "raw_syscalls:sys_enter=raw", want: ProbeConfig{Point: "raw_syscalls:sys_enter", Schema: "raw"}},
		{arg: "=raw", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseProbeArg(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProbeArg() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProbeArg() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
