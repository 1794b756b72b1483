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

// Package schema provides statically typed decoders for tracepoint
// records. Offsets follow the kernel's published format files.
package schema

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/gojue/tphook/internal/errors"
)

const (
	// CommonSize is the size of struct trace_entry at the head of every record.
	CommonSize = 8

	// TaskCommLen mirrors TASK_COMM_LEN.
	TaskCommLen = 16
)

var order = binary.NativeEndian

// Common is the trace_entry header shared by all tracepoint records.
type Common struct {
	Type         uint16 `json:"common_type"`
	Flags        uint8  `json:"common_flags"`
	PreemptCount uint8  `json:"common_preempt_count"`
	PID          int32  `json:"common_pid"`
}

func (c *Common) decode(data []byte) {
	c.Type = order.Uint16(data[0:2])
	c.Flags = data[2]
	c.PreemptCount = data[3]
	c.PID = int32(order.Uint32(data[4:8]))
}

func need(schema string, data []byte, size int) error {
	if len(data) < size {
		return errors.NewEventDecodeError(schema, fmt.Errorf("record too short: %d < %d bytes", len(data), size))
	}
	return nil
}

func comm(b []byte) string {
	return unix.ByteSliceToString(b)
}
