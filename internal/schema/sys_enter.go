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

package schema

import "fmt"

// SchemaSysEnter names the raw_syscalls:sys_enter record layout.
const SchemaSysEnter = "sys_enter"

const sysEnterSize = 64

// SysEnter is the raw_syscalls:sys_enter tracepoint record.
type SysEnter struct {
	Common
	ID   int64     `json:"id"`
	Args [6]uint64 `json:"args"`
}

// DecodeFromBytes implements domain.Event.
func (e *SysEnter) DecodeFromBytes(data []byte) error {
	if err := need(SchemaSysEnter, data, sysEnterSize); err != nil {
		return err
	}
	e.Common.decode(data)
	e.ID = int64(order.Uint64(data[8:16]))
	for i := range e.Args {
		off := 16 + i*8
		e.Args[i] = order.Uint64(data[off : off+8])
	}
	return nil
}

// String implements domain.Event.
func (e *SysEnter) String() string {
	return fmt.Sprintf("NR %d (%x, %x, %x, %x, %x, %x)",
		e.ID, e.Args[0], e.Args[1], e.Args[2], e.Args[3], e.Args[4], e.Args[5])
}

// Schema implements domain.Event.
func (e *SysEnter) Schema() string {
	return SchemaSysEnter
}
