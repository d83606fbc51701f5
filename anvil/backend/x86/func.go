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

package x86

import (
	"fmt"
	"strings"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/ir"
)

// funcCtx holds the per-function state needed while lowering: the
// stack-slot plan and the running output buffer. Parameter frame offsets
// (cdecl: pushed right-to-left by the caller, so they sit above the saved
// return address and frame pointer) are computed by slotOf.
type funcCtx struct {
	b     *Backend
	f     *ir.Func
	sb    strings.Builder
	frame *backend.StackFrame

	// valueSlots spills every non-void instruction result to its own
	// stack slot, the naive per-convention alternative to liveness-based
	// register allocation (spec.md §4.G "naive but correct").
	valueSlots map[*ir.Instr]int
}

func newFuncCtx(b *Backend, f *ir.Func) *funcCtx {
	// stack-slot alignment 16 bytes, no mandatory ABI reserve on x86
	// (spec.md §4.G "Frame size is... 16 bytes for x86... plus any
	// mandatory ABI reserve").
	frame := backend.PlanStackFrame(f, b.reg, 16, 0)
	fn := &funcCtx{b: b, f: f, frame: frame, valueSlots: make(map[*ir.Instr]int)}
	offset := frame.Size
	for _, blk := range f.Blocks {
		for _, instr := range blk.Instrs() {
			if instr.Op == ir.OpAlloca || instr.Result == nil {
				continue
			}
			offset += 4
			fn.valueSlots[instr] = offset
		}
	}
	frame.Size = (offset + 15) / 16 * 16
	f.StackSize = frame.Size
	return fn
}

func (fn *funcCtx) emit() (string, error) {
	fn.label(fn.f.Name, true)
	fn.prologue()
	for _, blk := range fn.f.Blocks {
		if blk != fn.f.Entry() {
			fn.blockLabel(blk)
		}
		for _, instr := range blk.Instrs() {
			if err := fn.lower(instr); err != nil {
				return "", err
			}
		}
	}
	text := fn.sb.String()
	fn.b.stats.Add(fn.f.Name, countInstrLines(text))
	return text, nil
}

// countInstrLines counts tab-indented lines (every emitted instruction,
// as opposed to labels and directives), the per-function instruction
// count spec.md §6's "-stats" mention needs.
func countInstrLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "\t") {
			n++
		}
	}
	return n
}

// label emits a bare function-entry label (global, unprefixed by block
// naming since it's the one label every caller resolves by symbol).
func (fn *funcCtx) label(name string, global bool) {
	fmt.Fprintf(&fn.sb, "%s:\n", name)
}

// blockLabel emits a block label prefixed with the containing
// function's name, per spec.md §4.G "Block labels".
func (fn *funcCtx) blockLabel(b *ir.Block) {
	fmt.Fprintf(&fn.sb, "%s:\n", fn.blockSym(b))
}

func (fn *funcCtx) blockSym(b *ir.Block) string {
	return fmt.Sprintf("%s.%s", fn.f.Name, b.Name)
}

func (fn *funcCtx) prologue() {
	if fn.b.dialect == NASM {
		fn.ins2("push", "ebp")
		fn.ins2("mov", "ebp, esp")
		if fn.frame.Size > 0 {
			fn.insf("sub esp, %d", fn.frame.Size)
		}
		return
	}
	fn.ins2("pushl", "%ebp")
	fn.ins2("movl", "%esp, %ebp")
	if fn.frame.Size > 0 {
		fn.insf("subl $%d, %%esp", fn.frame.Size)
	}
}

func (fn *funcCtx) epilogue() {
	if fn.b.dialect == NASM {
		fn.ins2("mov", "esp, ebp")
		fn.ins2("pop", "ebp")
		fn.ins1("ret")
		return
	}
	fn.ins2("movl", "%ebp, %esp")
	fn.ins2("popl", "%ebp")
	fn.ins1("ret")
}

func (fn *funcCtx) ins1(op string) { fmt.Fprintf(&fn.sb, "\t%s\n", op) }

func (fn *funcCtx) ins2(op, operands string) { fmt.Fprintf(&fn.sb, "\t%s %s\n", op, operands) }

func (fn *funcCtx) insf(format string, args ...interface{}) {
	fmt.Fprintf(&fn.sb, "\t%s\n", fmt.Sprintf(format, args...))
}
