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

// SchemaSchedProcessExit names the sched:sched_process_exit record layout.
const SchemaSchedProcessExit = "sched_process_exit"

const schedProcessExitSize = 32

// SchedProcessExit is the sched:sched_process_exit tracepoint record.
// Newer kernels append fields after Prio; they are ignored.
type SchedProcessExit struct {
	Common
	Comm string `json:"comm"`
	PID  int32  `json:"pid"`
	Prio int32  `json:"prio"`
}

// DecodeFromBytes implements domain.Event.
func (e *SchedProcessExit) DecodeFromBytes(data []byte) error {
	if err := need(SchemaSchedProcessExit, data, schedProcessExitSize); err != nil {
		return err
	}
	e.Common.decode(data)
	e.Comm = comm(data[8:24])
	e.PID = int32(order.Uint32(data[24:28]))
	e.Prio = int32(order.Uint32(data[28:32]))
	return nil
}

// String implements domain.Event.
func (e *SchedProcessExit) String() string {
	return fmt.Sprintf("comm=%s pid=%d prio=%d", e.Comm, e.PID, e.Prio)
}

// Schema implements domain.Event.
func (e *SchedProcessExit) Schema() string {
	return SchemaSchedProcessExit
}
