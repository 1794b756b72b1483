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

// Package ebpf inspects the kernel build configuration for the options a
// tracepoint eBPF program depends on.
package ebpf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// TracepointOptions must all be "y" for tracepoint programs to load.
var TracepointOptions = []string{
	"CONFIG_BPF",
	"CONFIG_BPF_SYSCALL",
	"CONFIG_BPF_EVENTS",
	"CONFIG_PERF_EVENTS",
	"CONFIG_TRACEPOINTS",
}

var configLine = regexp.MustCompile(`^(CONFIG_[A-Za-z0-9_]+)=(.*)$`)

// ParseConfig reads a kernel .config, plain or gzip compressed as served
// at /proc/config.gz.
func ParseConfig(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}

	var src io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		src = gz
	}

	cfg := make(map[string]string)
	s := bufio.NewScanner(src)
	for s.Scan() {
		m := configLine.FindStringSubmatch(strings.TrimSpace(s.Text()))
		if m == nil {
			continue
		}
		cfg[m[1]] = strings.Trim(m[2], `"`)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if len(cfg) == 0 {
		return nil, fmt.Errorf("no CONFIG_ entries found")
	}
	return cfg, nil
}

// MissingOptions lists the entries of options not set to "y" in cfg.
func MissingOptions(cfg map[string]string, options []string) []string {
	var missing []string
	for _, opt := range options {
		if cfg[opt] != "y" {
			missing = append(missing, opt)
		}
	}
	return missing
}
