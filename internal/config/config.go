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
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gojue/tphook/internal/errors"
)

const (
	// DefaultPerCPUBufferPages is the default perf ring size per CPU, in pages.
	DefaultPerCPUBufferPages = 64

	// DefaultWorkers is the default number of goroutines invoking callbacks
	// per attached probe.
	DefaultWorkers = 4

	// MaxWorkers bounds Workers.
	MaxWorkers = 256
)

// ProbeConfig names one instrumentation point and the schema used to
// decode its records. An empty Schema lets the factory choose.
type ProbeConfig struct {
	Point  string `json:"point" yaml:"point"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Config is the agent configuration.
type Config struct {
	Debug             bool          `json:"debug" yaml:"debug"`
	LogJSON           bool          `json:"log_json" yaml:"log_json"`
	TracefsRoot       string        `json:"tracefs_root" yaml:"tracefs_root"`
	PerCPUBufferPages int           `json:"per_cpu_buffer_pages" yaml:"per_cpu_buffer_pages"`
	Workers           int           `json:"workers" yaml:"workers"`
	Listen            string        `json:"listen" yaml:"listen"`
	Probes            []ProbeConfig `json:"probes" yaml:"probes"`
	EventOutput       EventOutput   `json:"event_output" yaml:"event_output"`
}

// EventOutput sends decoded events somewhere other than the log. Addr is
// "stdout", "tcp://host:port" or a file path; files rotate by size.
type EventOutput struct {
	Addr       string `json:"addr" yaml:"addr"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		PerCPUBufferPages: DefaultPerCPUBufferPages,
		Workers:           DefaultWorkers,
	}
}

// LoadFile reads a YAML (or JSON) file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read config file", err).WithContext("path", path)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to parse config file", err).WithContext("path", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PerCPUBufferPages <= 0 || c.PerCPUBufferPages&(c.PerCPUBufferPages-1) != 0 {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("per_cpu_buffer_pages must be a positive power of two, got %d", c.PerCPUBufferPages))
	}
	if c.Workers <= 0 || c.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("workers must be in [1, %d], got %d", MaxWorkers, c.Workers))
	}

	if c.EventOutput.MaxSizeMB < 0 || c.EventOutput.MaxBackups < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "event_output rotation limits cannot be negative")
	}

	seen := make(map[string]struct{}, len(c.Probes))
	for i, p := range c.Probes {
		if p.Point == "" {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("probes[%d]: point cannot be empty", i))
		}
		if _, dup := seen[p.Point]; dup {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("probes[%d]: point %s listed twice", i, p.Point))
		}
		seen[p.Point] = struct{}{}
	}
	return nil
}

// AddProbe appends a probe entry.
func (c *Config) AddProbe(point, schema string) {
	c.Probes = append(c.Probes, ProbeConfig{Point: point, Schema: schema})
}

// PerCPUBufferBytes returns the perf ring size per CPU in bytes.
func (c *Config) PerCPUBufferBytes() int {
	return c.PerCPUBufferPages * os.Getpagesize()
}

// Bytes serializes the configuration to JSON.
func (c *Config) Bytes() []byte {
	b, err := json.Marshal(c)
	if err != nil {
		return []byte{}
	}
	return b
}

// ParseProbeArg parses "point" or "point=schema".
func ParseProbeArg(arg string) (ProbeConfig, error) {
	point, schema, _ := strings.Cut(arg, "=")
	point = strings.TrimSpace(point)
	if point == "" {
		return ProbeConfig{}, errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("invalid probe argument %q", arg))
	}
	return ProbeConfig{Point: point, Schema: strings.TrimSpace(schema)}, nil
}
