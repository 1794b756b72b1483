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
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/internal/probe"
	"github.com/gojue/tphook/internal/schema"
)

// Sink receives every decoded event of a probe built by the factory.
type Sink func(point string, event domain.Event)

// ProbeConstructor builds an unresolved probe for point.
type ProbeConstructor func(point string, sink Sink, log *logger.Logger) (probe.Registration, error)

// ProbeFactory defines the interface for creating probes by schema.
type ProbeFactory interface {
	// CreateProbe creates a probe for point using the named schema.
	CreateProbe(schemaName, point string, sink Sink, log *logger.Logger) (probe.Registration, error)

	// RegisterSchema registers a constructor for a schema name.
	RegisterSchema(schemaName string, constructor ProbeConstructor) error

	// GetSupportedSchemas returns all registered schema names, sorted.
	GetSupportedSchemas() []string

	// SchemaFor names the schema CreateProbe picks when none is given.
	SchemaFor(point string) string
}

// defaultFactory implements ProbeFactory.
type defaultFactory struct {
	mu           sync.RWMutex
	constructors map[string]ProbeConstructor
}

// NewProbeFactory creates an empty probe factory.
func NewProbeFactory() ProbeFactory {
	return &defaultFactory{
		constructors: make(map[string]ProbeConstructor),
	}
}

// Typed returns a constructor for records decoding into T.
func Typed[T any, PT probe.EventPtr[T]]() ProbeConstructor {
	return func(point string, sink Sink, log *logger.Logger) (probe.Registration, error) {
		if sink == nil {
			return nil, errors.New(errors.ErrCodeConfiguration, "sink cannot be nil")
		}
		rec, err := probe.New[T, PT](point, func(ev PT) { sink(point, ev) }, log)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// SchemaFor picks the schema for point when none is named: the schema
// registered under the point's bare event name, or raw.
func (f *defaultFactory) SchemaFor(point string) string {
	name := point
	if i := strings.LastIndexByte(point, ':'); i >= 0 {
		name = point[i+1:]
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.constructors[name]; ok {
		return name
	}
	return schema.SchemaRaw
}

// CreateProbe creates a new probe instance.
func (f *defaultFactory) CreateProbe(schemaName, point string, sink Sink, log *logger.Logger) (probe.Registration, error) {
	if schemaName == "" {
		schemaName = f.SchemaFor(point)
	}

	f.mu.RLock()
	constructor, exists := f.constructors[schemaName]
	f.mu.RUnlock()
	if !exists {
		return nil, errors.New(errors.ErrCodeNotFound, fmt.Sprintf("schema not registered: %s", schemaName)).
			WithContext("point", point)
	}

	reg, err := constructor(point, sink, log)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, fmt.Sprintf("failed to construct probe '%s' with schema '%s'", point, schemaName), err)
	}
	return reg, nil
}

// RegisterSchema registers a constructor for a schema name.
func (f *defaultFactory) RegisterSchema(schemaName string, constructor ProbeConstructor) error {
	if schemaName == "" {
		return errors.New(errors.ErrCodeConfiguration, "schema name cannot be empty")
	}
	if constructor == nil {
		return errors.New(errors.ErrCodeConfiguration, "constructor cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.constructors[schemaName]; exists {
		return errors.New(errors.ErrCodeConfiguration, fmt.Sprintf("schema '%s' already registered", schemaName))
	}

	f.constructors[schemaName] = constructor
	return nil
}

// GetSupportedSchemas returns a list of all registered schema names.
func (f *defaultFactory) GetSupportedSchemas() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins adds the schemas shipped in internal/schema.
func RegisterBuiltins(f ProbeFactory) error {
	builtins := []struct {
		name        string
		constructor ProbeConstructor
	}{
		{schema.SchemaRaw, Typed[schema.Raw]()},
		{schema.SchemaSchedSwitch, Typed[schema.SchedSwitch]()},
		{schema.SchemaSchedProcessExit, Typed[schema.SchedProcessExit]()},
		{schema.SchemaSysEnter, Typed[schema.SysEnter]()},
	}
	for _, b := range builtins {
		if err := f.RegisterSchema(b.name, b.constructor); err != nil {
			return err
		}
	}
	return nil
}

// Global factory instance
var globalFactory = func() ProbeFactory {
	f := NewProbeFactory()
	if err := RegisterBuiltins(f); err != nil {
		panic(err)
	}
	return f
}()

// RegisterSchema registers a schema constructor with the global factory.
func RegisterSchema(schemaName string, constructor ProbeConstructor) error {
	return globalFactory.RegisterSchema(schemaName, constructor)
}

// CreateProbe creates a probe using the global factory.
func CreateProbe(schemaName, point string, sink Sink, log *logger.Logger) (probe.Registration, error) {
	return globalFactory.CreateProbe(schemaName, point, sink, log)
}

// GetSupportedSchemas returns schema names from the global factory.
func GetSupportedSchemas() []string {
	return globalFactory.GetSupportedSchemas()
}

// SchemaFor resolves the default schema of point in the global factory.
func SchemaFor(point string) string {
	return globalFactory.SchemaFor(point)
}
