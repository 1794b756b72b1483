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
	"testing"

	"github.com/cilium/ebpf/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySize(t *testing.T) {
	assert.Equal(t, 8, copySize(0))
	assert.Equal(t, 8, copySize(5))
	assert.Equal(t, 64, copySize(64))
	assert.Equal(t, 72, copySize(65))
	assert.Equal(t, maxCopySize, copySize(4096))
}

func TestInstructions(t *testing.T) {
	insns := instructions(64, asm.FnProbeReadKernel, 3)

	var calls []asm.BuiltinFunc
	for _, ins := range insns {
		if ins.IsBuiltinCall() {
			calls = append(calls, asm.BuiltinFunc(ins.Constant))
		}
	}
	require.Equal(t, []asm.BuiltinFunc{asm.FnProbeReadKernel, asm.FnPerfEventOutput}, calls)

	last := insns[len(insns)-1]
	assert.Equal(t, asm.Exit, last.OpCode.JumpOp())

	old := instructions(64, asm.FnProbeRead, 3)
	assert.Equal(t, len(insns), len(old))
}
