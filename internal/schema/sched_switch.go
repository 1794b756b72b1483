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

// SchemaSchedSwitch names the sched:sched_switch record layout.
const SchemaSchedSwitch = "sched_switch"

const schedSwitchSize = 64

// SchedSwitch is the sched:sched_switch tracepoint record.
type SchedSwitch struct {
	Common
	PrevComm  string `json:"prev_comm"`
	PrevPID   int32  `json:"prev_pid"`
	PrevPrio  int32  `json:"prev_prio"`
	PrevState int64  `json:"prev_state"`
	NextComm  string `json:"next_comm"`
	NextPID   int32  `json:"next_pid"`
	NextPrio  int32  `json:"next_prio"`
}

// DecodeFromBytes implements domain.Event.
func (e *SchedSwitch) DecodeFromBytes(data []byte) error {
	if err := need(SchemaSchedSwitch, data, schedSwitchSize); err != nil {
		return err
	}
	e.Common.decode(data)
	e.PrevComm = comm(data[8:24])
	e.PrevPID = int32(order.Uint32(data[24:28]))
	e.PrevPrio = int32(order.Uint32(data[28:32]))
	e.PrevState = int64(order.Uint64(data[32:40]))
	e.NextComm = comm(data[40:56])
	e.NextPID = int32(order.Uint32(data[56:60]))
	e.NextPrio = int32(order.Uint32(data[60:64]))
	return nil
}

// String implements domain.Event.
func (e *SchedSwitch) String() string {
	return fmt.Sprintf("prev_comm=%s prev_pid=%d prev_prio=%d prev_state=%d ==> next_comm=%s next_pid=%d next_prio=%d",
		e.PrevComm, e.PrevPID, e.PrevPrio, e.PrevState, e.NextComm, e.NextPID, e.NextPrio)
}

// Schema implements domain.Event.
func (e *SchedSwitch) Schema() string {
	return SchemaSchedSwitch
}
