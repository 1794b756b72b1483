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

//go:build !linux

package tracefs

import (
	"fmt"
	"runtime"

	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/errors"
)

// Host is unavailable off Linux.
type Host struct {
	*FS
}

// NewHost always fails off Linux.
func NewHost(fs *FS, opts Options) (*Host, error) {
	return nil, errors.NewHostUnavailableError(fmt.Sprintf("eBPF tracepoints are not supported on %s", runtime.GOOS), nil)
}

func (h *Host) Lost() uint64 { return 0 }

func (h *Host) Attach(desc domain.Descriptor, cb domain.Callback) error {
	return errors.NewHostUnavailableError("eBPF host unavailable", nil)
}

func (h *Host) Detach(desc domain.Descriptor, cb domain.Callback) error {
	return errors.NewHostUnavailableError("eBPF host unavailable", nil)
}

func (h *Host) Close() error { return nil }
