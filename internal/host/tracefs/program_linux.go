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
	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
)

const (
	maxCopySize = 256
	// BPF_F_CURRENT_CPU
	currentCPU = 0xffffffff
)

// copySize rounds a record size up to a multiple of 8 and caps it to what
// the program copies onto its stack.
func copySize(recordSize int) int {
	size := (recordSize + 7) &^ 7
	switch {
	case size < 8:
		return 8
	case size > maxCopySize:
		return maxCopySize
	}
	return size
}

// instructions builds a tracepoint program that copies size bytes of the
// record to the stack and emits them on the perf array behind eventsFD.
func instructions(size int, readFn asm.BuiltinFunc, eventsFD int) asm.Instructions {
	return asm.Instructions{
		asm.Mov.Reg(asm.R6, asm.R1),

		asm.Mov.Reg(asm.R1, asm.RFP),
		asm.Add.Imm(asm.R1, -int32(size)),
		asm.Mov.Imm(asm.R2, int32(size)),
		asm.Mov.Reg(asm.R3, asm.R6),
		readFn.Call(),

		asm.Mov.Reg(asm.R1, asm.R6),
		asm.LoadMapPtr(asm.R2, eventsFD),
		asm.LoadImm(asm.R3, currentCPU, asm.DWord),
		asm.Mov.Reg(asm.R4, asm.RFP),
		asm.Add.Imm(asm.R4, -int32(size)),
		asm.Mov.Imm(asm.R5, int32(size)),
		asm.FnPerfEventOutput.Call(),

		asm.Mov.Imm(asm.R0, 0),
		asm.Return(),
	}
}

func newEventsMap() (*ebpf.Map, error) {
	return ebpf.NewMap(&ebpf.MapSpec{
		Name: "tphook_events",
		Type: ebpf.PerfEventArray,
	})
}

func newProgram(size int, readFn asm.BuiltinFunc, events *ebpf.Map) (*ebpf.Program, error) {
	return ebpf.NewProgram(&ebpf.ProgramSpec{
		Name:         "tphook_tp",
		Type:         ebpf.TracePoint,
		License:      "GPL",
		Instructions: instructions(size, readFn, events.FD()),
	})
}
