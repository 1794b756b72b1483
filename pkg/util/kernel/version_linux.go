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

package kernel

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// currentVersion prefers /proc/version_signature, where Ubuntu keeps the
// upstream release; uname's release carries a rewritten sublevel there.
func currentVersion() (Version, error) {
	if sig, err := os.ReadFile("/proc/version_signature"); err == nil {
		if f := strings.Fields(string(sig)); len(f) >= 3 {
			if v, err := ParseRelease(f[2]); err == nil {
				return v, nil
			}
		}
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return 0, err
	}
	return ParseRelease(unix.ByteSliceToString(uts.Release[:]))
}
