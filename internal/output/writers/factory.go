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

package writers

import (
	"strings"
)

// RotateConfig configures file rotation.
type RotateConfig struct {
	MaxSizeMB  int
	MaxBackups int
}

// CreateWriter picks a destination from addr:
//   - "" or "stdout": standard output
//   - "tcp://host:port": a TCP connection
//   - anything else: a size-rotated local file
func CreateWriter(addr string, rotate RotateConfig) (OutputWriter, error) {
	switch {
	case addr == "" || addr == "stdout":
		return NewStdoutWriter(), nil
	case strings.HasPrefix(addr, "tcp://"):
		return NewTcpWriter(strings.TrimPrefix(addr, "tcp://"), 4096)
	}
	return NewFileWriter(addr, rotate)
}
