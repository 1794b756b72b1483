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

package builder

import (
	"github.com/gojue/tphook/internal/config"
)

// ConfigBuilder provides a fluent interface for building agent configurations.
type ConfigBuilder struct {
	config *config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: config.NewConfig(),
	}
}

// FromConfig starts a builder from an existing configuration.
func FromConfig(cfg *config.Config) *ConfigBuilder {
	cp := *cfg
	cp.Probes = append([]config.ProbeConfig(nil), cfg.Probes...)
	return &ConfigBuilder{config: &cp}
}

// WithDebug enables or disables debug logging.
func (b *ConfigBuilder) WithDebug(debug bool) *ConfigBuilder {
	b.config.Debug = debug
	return b
}

// WithJSONLog switches logging to JSON lines.
func (b *ConfigBuilder) WithJSONLog(enabled bool) *ConfigBuilder {
	b.config.LogJSON = enabled
	return b
}

// WithEventOutput routes events to addr instead of the log.
func (b *ConfigBuilder) WithEventOutput(addr string, maxSizeMB, maxBackups int) *ConfigBuilder {
	b.config.EventOutput = config.EventOutput{Addr: addr, MaxSizeMB: maxSizeMB, MaxBackups: maxBackups}
	return b
}

// WithTracefsRoot pins the tracefs mount point.
func (b *ConfigBuilder) WithTracefsRoot(root string) *ConfigBuilder {
	b.config.TracefsRoot = root
	return b
}

// WithPerCPUBufferPages sets the perf ring size per CPU.
func (b *ConfigBuilder) WithPerCPUBufferPages(pages int) *ConfigBuilder {
	b.config.PerCPUBufferPages = pages
	return b
}

// WithWorkers sets the number of callback goroutines per probe.
func (b *ConfigBuilder) WithWorkers(n int) *ConfigBuilder {
	b.config.Workers = n
	return b
}

// WithListen enables the status server on addr.
func (b *ConfigBuilder) WithListen(addr string) *ConfigBuilder {
	b.config.Listen = addr
	return b
}

// WithProbe adds an instrumentation point.
func (b *ConfigBuilder) WithProbe(point, schema string) *ConfigBuilder {
	b.config.AddProbe(point, schema)
	return b
}

// Build validates and returns the built configuration.
func (b *ConfigBuilder) Build() (*config.Config, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// MustBuild builds the configuration and panics on error.
// Use this only when you are certain the configuration is valid.
func (b *ConfigBuilder) MustBuild() *config.Config {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
