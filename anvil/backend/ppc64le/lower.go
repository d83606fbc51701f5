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

	"github.com/db47h/mcc/anvil/ir"
)

var binOpMnemonic = map[ir.Op]string{
	ir.OpAdd: "add", ir.OpSub: "subf", ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
	ir.OpMul: "mulld",
}

var shiftMnemonic = map[ir.Op]string{
	ir.OpShl: "sld", ir.OpLShr: "srd", ir.OpAShr: "srad",
}

func (fn *funcCtx) lower(instr *ir.Instr) error {
	switch instr.Op {
	case ir.OpNop, ir.OpPhi:
		return nil

	case ir.OpAlloca:
		return nil

	case ir.OpLoad:
		fn.lowerLoad(instr)
		return nil

	case ir.OpStore:
		fn.lowerStore(instr)
		return nil

	case ir.OpAdd, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpMul:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.insf("%s r3, r3, r4", binOpMnemonic[instr.Op])
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpSub:
		// PPC subf computes rt = rb - ra; swap to keep "first op minus
		// second op" semantics.
		fn.loadTo("r4", instr.Operands[0])
		fn.loadTo("r3", instr.Operands[1])
		fn.ins("subf r3, r3, r4")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpSDiv:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.ins("divd r3, r3, r4")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpUDiv:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.ins("divdu r3, r3, r4")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpSMod:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.ins("divd r5, r3, r4")
		fn.ins("mulld r5, r5, r4")
		fn.ins("subf r3, r5, r3")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpUMod:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.ins("divdu r5, r3, r4")
		fn.ins("mulld r5, r5, r4")
		fn.ins("subf r3, r5, r3")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpNeg:
		fn.loadTo("r3", instr.Operands[0])
		fn.ins("neg r3, r3")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpNot:
		fn.loadTo("r3", instr.Operands[0])
		fn.ins("nor r3, r3, r3")
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		fn.loadTo("r3", instr.Operands[0])
		fn.loadTo("r4", instr.Operands[1])
		fn.insf("%s r3, r3, r4", shiftMnemonic[instr.Op])
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpICmpEQ, ir.OpICmpNE, ir.OpICmpSLT, ir.OpICmpSLE, ir.OpICmpSGT, ir.OpICmpSGE,
		ir.OpICmpULT, ir.OpICmpULE, ir.OpICmpUGT, ir.OpICmpUGE:
		fn.lowerICmp(instr)
		return nil

	case ir.OpTrunc, ir.OpZExt, ir.OpSExt, ir.OpBitcast, ir.OpPtrToInt, ir.OpIntToPtr:
		fn.loadTo("r3", instr.Operands[0])
		fn.storeResult(instr, "r3")
		return nil

	case ir.OpGEP:
		fn.lowerGEP(instr)
		return nil

	case ir.OpBr:
		fn.insf("b %s", fn.blockSym(instr.Succs[0]))
		return nil

	case ir.OpCondBr:
		fn.loadTo("r3", instr.Operands[0])
		fn.ins("cmpdi r3, 0")
		fn.insf("bne %s", fn.blockSym(instr.Succs[0]))
		fn.insf("b %s", fn.blockSym(instr.Succs[1]))
		return nil

	case ir.OpCall:
		return fn.lowerCall(instr)

	case ir.OpRet:
		if len(instr.Operands) == 1 {
			fn.loadTo("r3", instr.Operands[0])
		}
		fn.epilogue()
		return nil

	case ir.OpUnreachable:
		fn.ins("trap")
		return nil

	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv, ir.OpFNeg,
		ir.OpFCmpEQ, ir.OpFCmpNE, ir.OpFCmpLT, ir.OpFCmpLE, ir.OpFCmpGT, ir.OpFCmpGE,
		ir.OpFPTrunc, ir.OpFPExt, ir.OpFPToUI, ir.OpFPToSI, ir.OpUIToFP, ir.OpSIToFP:
		return fn.lowerFloat(instr)

	case ir.OpExtractValue, ir.OpInsertValue:
		fn.loadTo("r3", instr.Operands[0])
		fn.storeResult(instr, "r3")
		return nil
	}
	return fmt.Errorf("ppc64le: unhandled opcode %s", instr.Op)
}

func (fn *funcCtx) lowerLoad(instr *ir.Instr) {
	addr := instr.Operands[0]
	if addr.Kind == ir.ValInstr && addr.Instr.Op == ir.OpAlloca {
		off, _ := fn.slotOf(addr)
		fn.insf("ld r3, %s", fn.mem(off))
	} else if addr.Kind == ir.ValGlobal {
		fn.loadTo("r4", addr)
		fn.ins("ld r3, 0(r4)")
	} else {
		fn.loadTo("r4", addr)
		fn.ins("ld r3, 0(r4)")
	}
	fn.storeResult(instr, "r3")
}

func (fn *funcCtx) lowerStore(instr *ir.Instr) {
	addr := instr.Operands[0]
	fn.loadTo("r3", instr.Operands[1])
	if addr.Kind == ir.ValInstr && addr.Instr.Op == ir.OpAlloca {
		off, _ := fn.slotOf(addr)
		fn.insf("std r3, %s", fn.mem(off))
		return
	}
	fn.loadTo("r4", addr)
	fn.ins("std r3, 0(r4)")
}

var icmpSet = map[ir.Op]string{
	ir.OpICmpEQ: "eq", ir.OpICmpNE: "ne",
	ir.OpICmpSLT: "lt", ir.OpICmpSLE: "le", ir.OpICmpSGT: "gt", ir.OpICmpSGE: "ge",
	ir.OpICmpULT: "lt", ir.OpICmpULE: "le", ir.OpICmpUGT: "gt", ir.OpICmpUGE: "ge",
}

func (fn *funcCtx) lowerICmp(instr *ir.Instr) {
	fn.loadTo("r3", instr.Operands[0])
	fn.loadTo("r4", instr.Operands[1])
	unsigned := instr.Op == ir.OpICmpULT || instr.Op == ir.OpICmpULE ||
		instr.Op == ir.OpICmpUGT || instr.Op == ir.OpICmpUGE
	if unsigned {
		fn.ins("cmpld r3, r4")
	} else {
		fn.ins("cmpd r3, r4")
	}
	cond := icmpSet[instr.Op]
	fn.insf("li r3, 1")
	fn.insf("b%s 1f", cond)
	fn.insf("li r3, 0")
	fn.ins("1:")
	fn.storeResult(instr, "r3")
}

// lowerGEP lowers pointer arithmetic: base plus the sum of index
// operands each scaled by the pointer's word size.
func (fn *funcCtx) lowerGEP(instr *ir.Instr) {
	fn.loadTo("r3", instr.Operands[0])
	for _, idx := range instr.Operands[1:] {
		fn.loadTo("r4", idx)
		fn.ins("sldi r4, r4, 3")
		fn.ins("add r3, r3, r4")
	}
	fn.storeResult(instr, "r3")
}

func (fn *funcCtx) lowerCall(instr *ir.Instr) error {
	args := instr.Operands[1:]
	for i, a := range args {
		if i < len(gprArgRegs) {
			fn.loadTo(gprArgRegs[i], a)
			continue
		}
		fn.loadTo("r3", a)
		fn.insf("std r3, %d(r1)", elfv2Reserve+(i-len(gprArgRegs))*8)
	}
	callee := instr.Operands[0]
	switch callee.Kind {
	case ir.ValFunction:
		fn.insf("bl %s", callee.Func.Name)
		fn.ins("nop")
	default:
		fn.loadTo("r12", callee)
		fn.ins("mtctr r12")
		fn.ins("bctrl")
	}
	fn.storeResult(instr, "r3")
	return nil
}
