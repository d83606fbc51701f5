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

import "github.com/db47h/mcc/anvil/ir"

var fpArithMnemonic = map[ir.Op]string{
	ir.OpFAdd: "fadd", ir.OpFSub: "fsub", ir.OpFMul: "fmul", ir.OpFDiv: "fdiv",
}

// lowerFloat lowers floating-point ops through f1/f2, PPC64LE's
// ABI-designated first two FPR argument/scratch registers, mirroring
// the naive primary/secondary convention used for integers.
func (fn *funcCtx) lowerFloat(instr *ir.Instr) error {
	switch instr.Op {
	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
		fn.floadTo("f1", instr.Operands[0])
		fn.floadTo("f2", instr.Operands[1])
		fn.insf("%s f1, f1, f2", fpArithMnemonic[instr.Op])
		fn.fstoreResult(instr, "f1")
		return nil

	case ir.OpFNeg:
		fn.floadTo("f1", instr.Operands[0])
		fn.ins("fneg f1, f1")
		fn.fstoreResult(instr, "f1")
		return nil

	case ir.OpFCmpEQ, ir.OpFCmpNE, ir.OpFCmpLT, ir.OpFCmpLE, ir.OpFCmpGT, ir.OpFCmpGE:
		fn.floadTo("f1", instr.Operands[0])
		fn.floadTo("f2", instr.Operands[1])
		fn.ins("fcmpu cr0, f1, f2")
		cond := fcmpSet[instr.Op]
		fn.ins("li r3, 1")
		fn.insf("b%s 1f", cond)
		fn.ins("li r3, 0")
		fn.ins("1:")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpFPTrunc, ir.OpFPExt:
		fn.floadTo("f1", instr.Operands[0])
		fn.fstoreResult(instr, "f1")
		return nil

	case ir.OpFPToSI, ir.OpFPToUI:
		fn.floadTo("f1", instr.Operands[0])
		fn.ins("fctidz f1, f1")
		off := fn.fscratchSlot()
		fn.insf("stfd f1, %s", fn.mem(off))
		fn.insf("ld r3, %s", fn.mem(off))
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpUIToFP, ir.OpSIToFP:
		fn.loadTo("r3", instr.Operands[0])
		off := fn.fscratchSlot()
		fn.insf("std r3, %s", fn.mem(off))
		fn.insf("lfd f1, %s", fn.mem(off))
		fn.ins("fcfid f1, f1")
		fn.fstoreResult(instr, "f1")
		return nil
	}
	return nil
}

var fcmpSet = map[ir.Op]string{
	ir.OpFCmpEQ: "eq", ir.OpFCmpNE: "ne", ir.OpFCmpLT: "lt", ir.OpFCmpLE: "le",
	ir.OpFCmpGT: "gt", ir.OpFCmpGE: "ge",
}

func (fn *funcCtx) floadTo(dst string, v *ir.Value) {
	off, ok := fn.slotOf(v)
	if !ok {
		off = fn.fscratchSlot()
	}
	fn.insf("lfd %s, %s", dst, fn.mem(off))
}

func (fn *funcCtx) fstoreResult(instr *ir.Instr, srcReg string) {
	if instr.Result == nil {
		return
	}
	off, ok := fn.slotOf(instr.Result)
	if !ok {
		return
	}
	fn.insf("stfd %s, %s", srcReg, fn.mem(off))
}

// fscratchSlot returns the offset of the frame's shared int<->float
// staging slot, one word below the lowest assigned value slot.
func (fn *funcCtx) fscratchSlot() int {
	return -(fn.frame.Size)
}
