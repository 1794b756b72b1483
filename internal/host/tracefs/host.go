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

package tracefs

import (
	"os"

	"github.com/gojue/tphook/internal/logger"
)

const (
	defaultWorkers     = 4
	defaultBufferPages = 64
)

// Options tunes the eBPF host.
type Options struct {
	// Workers is the number of goroutines invoking callbacks per attached point.
	Workers int
	// PerCPUBuffer is the perf ring size in bytes for each CPU.
	PerCPUBuffer int
	Logger       *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.PerCPUBuffer <= 0 {
		o.PerCPUBuffer = defaultBufferPages * os.Getpagesize()
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}
