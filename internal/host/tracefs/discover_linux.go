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

package tracefs

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gojue/tphook/internal/errors"
)

// DefaultRoots are probed in order by Discover.
var DefaultRoots = []string{
	"/sys/kernel/tracing",
	"/sys/kernel/debug/tracing",
}

// Discover finds a mounted tracefs, accepting tracefs itself or the
// debugfs tracing directory of older kernels.
func Discover() (*FS, error) {
	var lastErr error
	for _, root := range DefaultRoots {
		var st unix.Statfs_t
		if err := unix.Statfs(root, &st); err != nil {
			lastErr = err
			continue
		}
		magic := int64(st.Type)
		if magic != unix.TRACEFS_MAGIC && magic != unix.DEBUGFS_MAGIC {
			lastErr = fmt.Errorf("%s: unexpected filesystem magic %#x", root, magic)
			continue
		}
		fs, err := Open(root)
		if err != nil {
			lastErr = err
			continue
		}
		return fs, nil
	}
	return nil, errors.NewHostUnavailableError("tracefs is not mounted", lastErr)
}
