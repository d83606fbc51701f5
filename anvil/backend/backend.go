// This file is part of mcc - https://github.com/db47h/mcc
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package backend defines the common contract every ANVIL code
// generator implements (spec.md §4.G), plus stack-slot layout helpers
// shared by the x86 and PPC64LE backends.
package backend

import (
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

// ArchInfo describes a target's machine characteristics, queried by
// callers that need to lay out data independent of any one backend
// (e.g. the frontend's struct layout, which already uses cc/types
// instead; ArchInfo exists for callers downstream of IR generation).
type ArchInfo struct {
	PointerSize  int
	WordSize     int
	GPRCount     int
	FPRCount     int
	BigEndian    bool
	StackGrowsUp bool
	HasCondCodes bool
	HasDelaySlots bool
}

// Backend is the common contract implemented by each target (spec.md
// §4.G "Common contract"). init/cleanup/reset bracket a backend's
// lifetime across possibly many modules; reset clears per-module state
// (string pool, stack-slot map) between compilations without tearing
// down the backend itself.
type Backend interface {
	Init() error
	Cleanup()
	Reset()
	CodegenModule(m *ir.Module) (string, error)
	CodegenFunc(f *ir.Func) (string, error)
	ArchInfo() ArchInfo
}

// StackFrame is the assignment of ALLOCA instructions to frame-relative
// byte offsets for one function, computed before any instruction is
// lowered (spec.md §4.G "Stack-slot materialization").
type StackFrame struct {
	Offsets map[*ir.Instr]int
	Size    int
}

// PlanStackFrame walks f's ALLOCA instructions in program order,
// assigning each a naturally aligned offset from the frame base, and
// rounds the total up to align bytes (16 for both x86 and PPC64LE
// ELFv2, per spec.md §4.G), then adds reserve bytes for the platform's
// mandatory ABI frame furniture (0 for x86, 32 for PPC64LE ELFv2's
// linkage area).
func PlanStackFrame(f *ir.Func, reg *types.Registry, align, reserve int) *StackFrame {
	sf := &StackFrame{Offsets: make(map[*ir.Instr]int)}
	offset := 0
	for _, b := range f.Blocks {
		for _, instr := range b.Instrs() {
			if instr.Op != ir.OpAlloca || instr.Result == nil {
				continue
			}
			pointee := reg.At(instr.Result.Type).Pointee
			elemSize := reg.SizeOf(pointee)
			elemAlign := reg.AlignOf(pointee)
			if elemAlign == 0 {
				elemAlign = 1
			}
			offset = alignUp(offset, elemAlign)
			sf.Offsets[instr] = offset
			offset += elemSize
		}
	}
	offset = alignUp(offset, align)
	sf.Size = offset + reserve
	f.StackSize = sf.Size
	return sf
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// Stats accumulates per-function emitted-instruction counts, the
// "-stats" style accounting named in SPEC_FULL.md and grounded on
// vm.Instance.InstructionCount/cmd/retro's -stats flag: there it counts
// VM instructions executed, here it counts assembly instructions
// emitted per function.
type Stats struct {
	counts map[string]int
}

// NewStats returns an empty instruction-count accumulator.
func NewStats() *Stats { return &Stats{counts: make(map[string]int)} }

// Add records n more emitted instructions for function fn.
func (s *Stats) Add(fn string, n int) { s.counts[fn] += n }

// Count returns the running instruction count for function fn.
func (s *Stats) Count(fn string) int { return s.counts[fn] }

// Reset clears all counts, for reuse across modules.
func (s *Stats) Reset() { s.counts = make(map[string]int) }

// Total returns the sum of every function's instruction count.
func (s *Stats) Total() int {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}
