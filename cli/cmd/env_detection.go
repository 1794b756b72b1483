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

package cmd

import (
	"fmt"
	"strings"

	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/pkg/util/ebpf"
	"github.com/gojue/tphook/pkg/util/kernel"
)

func detectKernel() error {
	kv, err := kernel.HostVersion()
	if err != nil {
		return fmt.Errorf("failed to get the host kernel version: %w", err)
	}
	// BPF_PROG_TYPE_TRACEPOINT landed in 4.7.
	if kv < kernel.VersionCode(4, 7, 0) {
		return fmt.Errorf("the Linux kernel version %v is not supported, requires 4.7 or later", kv)
	}
	return nil
}

// detectEnv fails on a kernel that is too old. A missing or incomplete
// kernel config is only reported, since many distributions do not ship one.
func detectEnv(log *logger.Logger) error {
	if err := detectKernel(); err != nil {
		return err
	}

	cfg, err := ebpf.LoadConfig()
	if err != nil {
		log.Debug().Err(err).Msg("Kernel config unavailable, skipping option check")
	} else if missing := ebpf.MissingOptions(cfg, ebpf.TracepointOptions); len(missing) > 0 {
		log.Warn().Str("missing", strings.Join(missing, ",")).Msg("Kernel lacks options needed for tracepoint programs")
	}

	if in, err := ebpf.IsContainer(); err == nil && in {
		log.Info().Msg("Running inside a container; tracefs and bpf need to be mounted and permitted")
	}
	return nil
}
