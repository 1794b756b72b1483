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

// Package locator resolves instrumentation point names to host
// descriptors by walking the host registry.
package locator

import (
	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
	"github.com/gojue/tphook/internal/logger"
)

// Locator resolves names against an Enumerator.
type Locator struct {
	enum   domain.Enumerator
	logger *logger.Logger
}

// New creates a Locator over enum.
func New(enum domain.Enumerator, log *logger.Logger) *Locator {
	if log == nil {
		log = logger.Nop()
	}
	return &Locator{
		enum:   enum,
		logger: log.WithComponent("locator"),
	}
}

// Matches reports whether a registry entry answers to query. An entry
// matches on its bare name or on the descriptor's qualified form.
func Matches(desc domain.Descriptor, name, query string) bool {
	return name == query || desc.String() == query
}

// Locate returns the first registry entry matching name. A miss is not an
// error: found is false and err is nil. err is only set when the host
// enumeration itself fails.
func (l *Locator) Locate(name string) (desc domain.Descriptor, found bool, err error) {
	if name == "" {
		return nil, false, errors.New(errors.ErrCodeConfigValidation, "instrumentation point name cannot be empty")
	}

	err = l.enum.ForEachPoint(func(d domain.Descriptor, entry string) {
		if found {
			return
		}
		if Matches(d, entry, name) {
			desc = d
			found = true
		}
	})
	if err != nil {
		return nil, false, errors.NewEnumerateError(err).WithContext("point", name)
	}

	if found {
		l.logger.Debug().Str("point", name).Str("descriptor", desc.String()).Msg("Instrumentation point located")
	} else {
		l.logger.Debug().Str("point", name).Msg("Instrumentation point not found")
	}
	return desc, found, nil
}

// LocateAll resolves every name in a single enumeration pass. Names with
// no match are absent from the result. First match wins per name.
func (l *Locator) LocateAll(names []string) (map[string]domain.Descriptor, error) {
	pending := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return nil, errors.New(errors.ErrCodeConfigValidation, "instrumentation point name cannot be empty")
		}
		pending[n] = struct{}{}
	}

	out := make(map[string]domain.Descriptor, len(names))
	if len(pending) == 0 {
		return out, nil
	}

	err := l.enum.ForEachPoint(func(d domain.Descriptor, entry string) {
		if len(pending) == 0 {
			return
		}
		for n := range pending {
			if Matches(d, entry, n) {
				out[n] = d
				delete(pending, n)
			}
		}
	})
	if err != nil {
		return nil, errors.NewEnumerateError(err)
	}

	l.logger.Debug().
		Int("requested", len(names)).
		Int("resolved", len(out)).
		Msg("Instrumentation points located")
	return out, nil
}
