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

//go:build linux

package ebpf

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const procCgroupPath = "/proc/1/cgroup"

// configPaths are searched in order; %s is the kernel release.
var configPaths = []string{
	"/proc/config.gz",
	"/boot/config-%s",
	"/boot/config",
}

// LoadConfig finds and parses the running kernel's build configuration.
func LoadConfig() (map[string]string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	release := unix.ByteSliceToString(uts.Release[:])

	var lastErr error
	for _, p := range configPaths {
		if strings.Contains(p, "%s") {
			p = fmt.Sprintf(p, release)
		}
		cfg, err := loadConfigFile(p)
		if err != nil {
			lastErr = err
			continue
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("kernel config not found: %w", lastErr)
}

func loadConfigFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// IsContainer guesses from pid 1's cgroup whether we run in a container.
func IsContainer() (bool, error) {
	b, err := os.ReadFile(procCgroupPath)
	if err != nil {
		return false, err
	}
	s := string(b)
	return strings.Contains(s, "/docker") ||
		strings.Contains(s, "/kubepods") ||
		strings.Contains(s, "/containerd"), nil
}
