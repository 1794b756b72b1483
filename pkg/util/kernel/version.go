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

// Package kernel reports the running kernel version.
package kernel

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

// Version is a kernel version in LINUX_VERSION_CODE format.
type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v>>16, v>>8&0xff, v&0xff)
}

// VersionCode mirrors KERNEL_VERSION(a,b,c).
func VersionCode(major, minor, patch byte) Version {
	return Version(uint32(major)<<16 | uint32(minor)<<8 | uint32(patch))
}

var releaseRegex = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseRelease converts a release string such as "5.15.0-91-generic".
// Sublevels above 255 are clamped, as the kernel does.
func ParseRelease(release string) (Version, error) {
	m := releaseRegex.FindStringSubmatch(release)
	if m == nil {
		return 0, fmt.Errorf("invalid kernel release %q", release)
	}

	var parts [3]uint64
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid kernel release %q: %w", release, err)
		}
		if n > 255 {
			n = 255
		}
		parts[i] = n
	}
	return VersionCode(byte(parts[0]), byte(parts[1]), byte(parts[2])), nil
}

var (
	hostOnce    sync.Once
	hostVersion Version
	hostErr     error
)

// HostVersion returns the running kernel's version. The result is cached.
func HostVersion() (Version, error) {
	hostOnce.Do(func() {
		hostVersion, hostErr = currentVersion()
	})
	return hostVersion, hostErr
}
