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

import "github.com/db47h/mcc/anvil/ir"

// lowerFloat lowers floating-point arithmetic, comparisons and
// conversions through the x87 stack: operands load via fld from their
// stack slot, the op consumes the top two stack entries, and the
// result spills back to the instruction's own slot with fstp. This is
// the same "naive but correct" convention as the integer path, with
// the x87 stack standing in for the designated primary/secondary
// registers.
func (fn *funcCtx) lowerFloat(instr *ir.Instr) error {
	switch instr.Op {
	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
		fn.fld(instr.Operands[1])
		fn.fld(instr.Operands[0])
		fn.ins1(fpArithMnemonic[instr.Op])
		fn.fstp(instr.Result)
		return nil

	case ir.OpFNeg:
		fn.fld(instr.Operands[0])
		fn.ins1("fchs")
		fn.fstp(instr.Result)
		return nil

	case ir.OpFCmpEQ, ir.OpFCmpNE, ir.OpFCmpLT, ir.OpFCmpLE, ir.OpFCmpGT, ir.OpFCmpGE:
		fn.fld(instr.Operands[1])
		fn.fld(instr.Operands[0])
		fn.ins1("fucomip")
		fn.ins1("fstp st(0)")
		if fn.b.dialect == NASM {
			fn.ins2("set"+fcmpSet[instr.Op], "al")
			fn.ins2("movzx", "eax, al")
		} else {
			fn.ins2("set"+fcmpSet[instr.Op], "%al")
			fn.ins2("movzbl", "%al, %eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpFPTrunc, ir.OpFPExt:
		fn.fld(instr.Operands[0])
		fn.fstp(instr.Result)
		return nil

	case ir.OpFPToSI, ir.OpFPToUI:
		fn.fld(instr.Operands[0])
		fn.ins1("fistp " + fn.slotOperand(instr.Result))
		off, _ := fn.slotOf(instr.Result)
		fn.mov(fn.reg("eax"), fn.memEBP(off))
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpUIToFP, ir.OpSIToFP:
		fn.loadTo("eax", instr.Operands[0])
		off := fn.tempIntSlot()
		fn.mov(fn.memEBP(off), fn.reg("eax"))
		fn.ins1("fild " + fn.memEBP(off))
		fn.fstp(instr.Result)
		return nil
	}
	return nil
}

var fpArithMnemonic = map[ir.Op]string{
	ir.OpFAdd: "faddp", ir.OpFSub: "fsubp", ir.OpFMul: "fmulp", ir.OpFDiv: "fdivp",
}

var fcmpSet = map[ir.Op]string{
	ir.OpFCmpEQ: "e", ir.OpFCmpNE: "ne", ir.OpFCmpLT: "b", ir.OpFCmpLE: "be",
	ir.OpFCmpGT: "a", ir.OpFCmpGE: "ae",
}

// fld pushes v onto the x87 stack from its backing memory slot.
func (fn *funcCtx) fld(v *ir.Value) {
	fn.ins1("fld " + fn.slotOperand(v))
}

// fstp pops the x87 stack top into result's backing memory slot.
func (fn *funcCtx) fstp(result *ir.Value) {
	fn.ins1("fstp " + fn.slotOperand(result))
}

func (fn *funcCtx) slotOperand(v *ir.Value) string {
	off, ok := fn.slotOf(v)
	if !ok {
		off = fn.tempIntSlot()
	}
	return fn.memEBP(off)
}

// tempIntSlot returns the offset of the frame's scratch conversion
// slot, reusing the first instruction-result slot region's final word
// as shared scratch space for int<->float staging.
func (fn *funcCtx) tempIntSlot() int {
	return -(fn.frame.Size)
}
