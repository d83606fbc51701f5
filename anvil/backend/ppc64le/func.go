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

package ppc64le

import (
	"fmt"
	"strings"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/ir"
)

// gprArgRegs are the eight integer argument registers of the ELFv2
// calling convention (spec.md §4.G "up to eight GPRs on PPC64LE
// ELFv2"); a ninth and later argument spills to the parameter-save
// area on the stack.
var gprArgRegs = [8]string{"r3", "r4", "r5", "r6", "r7", "r8", "r9", "r10"}

type funcCtx struct {
	b     *Backend
	f     *ir.Func
	sb    strings.Builder
	frame *backend.StackFrame

	valueSlots map[*ir.Instr]int
}

func newFuncCtx(b *Backend, f *ir.Func) *funcCtx {
	frame := backend.PlanStackFrame(f, b.reg, 16, elfv2Reserve)
	fn := &funcCtx{b: b, f: f, frame: frame, valueSlots: make(map[*ir.Instr]int)}
	offset := frame.Size
	for _, blk := range f.Blocks {
		for _, instr := range blk.Instrs() {
			if instr.Op == ir.OpAlloca || instr.Result == nil {
				continue
			}
			offset += 8
			fn.valueSlots[instr] = offset
		}
	}
	frame.Size = (offset + 15) / 16 * 16
	f.StackSize = frame.Size
	return fn
}

func (fn *funcCtx) emit() (string, error) {
	fmt.Fprintf(&fn.sb, "%s:\n", fn.f.Name)
	fn.prologue()
	for _, blk := range fn.f.Blocks {
		if blk != fn.f.Entry() {
			fmt.Fprintf(&fn.sb, "%s:\n", fn.blockSym(blk))
		}
		for _, instr := range blk.Instrs() {
			if err := fn.lower(instr); err != nil {
				return "", err
			}
		}
	}
	fmt.Fprintf(&fn.sb, "\t.size %s, . - %s\n", fn.f.Name, fn.f.Name)
	text := fn.sb.String()
	fn.b.stats.Add(fn.f.Name, countInstrLines(text))
	return text, nil
}

// countInstrLines counts tab-indented lines that are neither directives
// ("\t.") nor local labels (ending in ':'), i.e. every emitted
// instruction, the per-function instruction count spec.md §6's "-stats"
// mention needs.
func countInstrLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, "\t.") && !strings.HasSuffix(line, ":") {
			n++
		}
	}
	return n
}

func (fn *funcCtx) blockSym(b *ir.Block) string {
	return fmt.Sprintf("%s.%s", fn.f.Name, b.Name)
}

func (fn *funcCtx) prologue() {
	fn.ins("mflr r0")
	fn.ins("std r0, 16(r1)")
	fn.insf("stdu r1, -%d(r1)", fn.frame.Size)
}

func (fn *funcCtx) epilogue() {
	fn.ins(fmt.Sprintf("addi r1, r1, %d", fn.frame.Size))
	fn.ins("ld r0, 16(r1)")
	fn.ins("mtlr r0")
	fn.ins("blr")
}

func (fn *funcCtx) ins(s string) { fmt.Fprintf(&fn.sb, "\t%s\n", s) }

func (fn *funcCtx) insf(format string, args ...interface{}) {
	fmt.Fprintf(&fn.sb, "\t%s\n", fmt.Sprintf(format, args...))
}

// slotOf mirrors x86's convention: parameters beyond the register file
// live in the caller's parameter-save area at SP+32 and up; results and
// ALLOCAs live below the saved-registers area, frame-relative.
func (fn *funcCtx) slotOf(v *ir.Value) (int, bool) {
	switch v.Kind {
	case ir.ValParam:
		if v.ParamIndex >= len(gprArgRegs) {
			return elfv2Reserve + (v.ParamIndex-len(gprArgRegs))*8, true
		}
		return 0, false // stays in its argument register; caller checks ParamIndex first
	case ir.ValInstr:
		if v.Instr.Op == ir.OpAlloca {
			if off, ok := fn.frame.Offsets[v.Instr]; ok {
				return -off - 8, true
			}
		}
		if off, ok := fn.valueSlots[v.Instr]; ok {
			return -off, true
		}
	}
	return 0, false
}

func (fn *funcCtx) mem(disp int) string {
	if disp >= 0 {
		return fmt.Sprintf("%d(r1)", disp)
	}
	return fmt.Sprintf("%d(r1)", disp)
}

func (fn *funcCtx) loadTo(dst string, v *ir.Value) {
	switch v.Kind {
	case ir.ValConstInt:
		fn.insf("li %s, %d", dst, v.ConstInt)
	case ir.ValConstNull:
		fn.insf("li %s, 0", dst)
	case ir.ValConstString:
		lbl := fn.b.strings.Label(v.ConstString)
		fn.insf("addis %s, r2, %s@toc@ha", dst, lbl)
		fn.insf("addi %s, %s, %s@toc@l", dst, dst, lbl)
	case ir.ValGlobal:
		fn.insf("addis %s, r2, %s@toc@ha", dst, v.Global.Name)
		fn.insf("addi %s, %s, %s@toc@l", dst, dst, v.Global.Name)
	case ir.ValFunction:
		fn.insf("addis %s, r2, %s@toc@ha", dst, v.Func.Name)
		fn.insf("addi %s, %s, %s@toc@l", dst, dst, v.Func.Name)
	case ir.ValParam:
		if v.ParamIndex < len(gprArgRegs) {
			fn.insf("mr %s, %s", dst, gprArgRegs[v.ParamIndex])
			return
		}
		off, _ := fn.slotOf(v)
		fn.insf("ld %s, %s", dst, fn.mem(off))
	default:
		if off, ok := fn.slotOf(v); ok {
			fn.insf("ld %s, %s", dst, fn.mem(off))
			return
		}
		fn.insf("li %s, 0", dst)
	}
}

func (fn *funcCtx) storeResult(instr *ir.Instr, srcReg string) {
	if instr.Result == nil {
		return
	}
	off, ok := fn.slotOf(instr.Result)
	if !ok {
		return
	}
	fn.insf("std %s, %s", srcReg, fn.mem(off))
}
