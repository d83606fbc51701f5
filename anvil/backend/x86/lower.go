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

	"github.com/db47h/mcc/anvil/ir"
)

// reg names the primary ("a") and secondary ("c") scratch registers
// used by the uniform lowering pattern (spec.md §4.G "Per-instruction
// lowering"): load operand one to primary, operand two to secondary,
// emit the op, result stays in primary.
func (fn *funcCtx) reg(name string) string {
	if fn.b.dialect == NASM {
		return name
	}
	return "%" + name
}

func (fn *funcCtx) imm(n int64) string {
	if fn.b.dialect == NASM {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("$%d", n)
}

// memEBP formats a frame-relative operand at ebp+disp.
func (fn *funcCtx) memEBP(disp int) string {
	if fn.b.dialect == NASM {
		if disp >= 0 {
			return fmt.Sprintf("[ebp+%d]", disp)
		}
		return fmt.Sprintf("[ebp%d]", disp)
	}
	return fmt.Sprintf("%d(%%ebp)", disp)
}

func (fn *funcCtx) memSym(sym string) string {
	if fn.b.dialect == NASM {
		return fmt.Sprintf("[%s]", sym)
	}
	return sym
}

func (fn *funcCtx) symAddr(sym string) string {
	if fn.b.dialect == NASM {
		return sym
	}
	return fmt.Sprintf("$%s", sym)
}

func (fn *funcCtx) mov(dst, src string) {
	if fn.b.dialect == NASM {
		fn.ins2("mov", dst+", "+src)
	} else {
		fn.ins2("movl", src+", "+dst)
	}
}

// slotOf returns the frame-relative offset for a value's dedicated
// stack slot. Params live above the saved return address (cdecl);
// instruction results and ALLOCAs live below ebp.
func (fn *funcCtx) slotOf(v *ir.Value) (int, bool) {
	switch v.Kind {
	case ir.ValParam:
		return 8 + v.ParamIndex*4, true
	case ir.ValInstr:
		if v.Instr.Op == ir.OpAlloca {
			if off, ok := fn.frame.Offsets[v.Instr]; ok {
				return -off - 4, true
			}
		}
		if off, ok := fn.valueSlots[v.Instr]; ok {
			return -off, true
		}
	}
	return 0, false
}

// loadTo emits code to materialize v into register dst ("eax"/"ecx").
func (fn *funcCtx) loadTo(dst string, v *ir.Value) {
	switch v.Kind {
	case ir.ValConstInt:
		fn.mov(fn.reg(dst), fn.imm(v.ConstInt))
	case ir.ValConstNull:
		fn.mov(fn.reg(dst), fn.imm(0))
	case ir.ValConstString:
		lbl := fn.b.strings.Label(v.ConstString)
		fn.mov(fn.reg(dst), fn.symAddr(lbl))
	case ir.ValGlobal:
		fn.mov(fn.reg(dst), fn.symAddr(v.Global.Name))
	case ir.ValFunction:
		fn.mov(fn.reg(dst), fn.symAddr(v.Func.Name))
	default:
		if off, ok := fn.slotOf(v); ok {
			fn.mov(fn.reg(dst), fn.memEBP(off))
			return
		}
		fn.mov(fn.reg(dst), fn.imm(0))
	}
}

// storeResult spills the primary register into instr's result slot.
func (fn *funcCtx) storeResult(instr *ir.Instr, srcReg string) {
	if instr.Result == nil {
		return
	}
	off, ok := fn.slotOf(instr.Result)
	if !ok {
		return
	}
	fn.mov(fn.memEBP(off), fn.reg(srcReg))
}

// addrOperand resolves the memory operand a LOAD/STORE addresses:
// directly frame-relative when the address is an ALLOCA result
// (spec.md §4.G "lowered directly to frame-relative memory accesses"),
// otherwise indirect through a scratch register.
func (fn *funcCtx) addrOperand(addr *ir.Value) string {
	if addr.Kind == ir.ValInstr && addr.Instr.Op == ir.OpAlloca {
		off, _ := fn.slotOf(addr)
		return fn.memEBP(off)
	}
	if addr.Kind == ir.ValGlobal {
		return fn.memSym(addr.Global.Name)
	}
	fn.loadTo("ecx", addr)
	if fn.b.dialect == NASM {
		return "[ecx]"
	}
	return "(%ecx)"
}

var binOpMnemonic = map[ir.Op]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
}

var shiftMnemonic = map[ir.Op]string{
	ir.OpShl: "shl", ir.OpLShr: "shr", ir.OpAShr: "sar",
}

var icmpSet = map[ir.Op]string{
	ir.OpICmpEQ: "e", ir.OpICmpNE: "ne",
	ir.OpICmpSLT: "l", ir.OpICmpSLE: "le", ir.OpICmpSGT: "g", ir.OpICmpSGE: "ge",
	ir.OpICmpULT: "b", ir.OpICmpULE: "be", ir.OpICmpUGT: "a", ir.OpICmpUGE: "ae",
}

func (fn *funcCtx) lower(instr *ir.Instr) error {
	switch instr.Op {
	case ir.OpNop, ir.OpPhi:
		// PHI instructions are elided at lowering time (spec.md §4.G).
		return nil

	case ir.OpAlloca:
		return nil // slot already reserved by PlanStackFrame

	case ir.OpLoad:
		mem := fn.addrOperand(instr.Operands[0])
		fn.mov(fn.reg("eax"), mem)
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpStore:
		mem := fn.addrOperand(instr.Operands[0])
		fn.loadTo("eax", instr.Operands[1])
		fn.mov(mem, fn.reg("eax"))
		return nil

	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		mnem := binOpMnemonic[instr.Op]
		if fn.b.dialect == NASM {
			fn.ins2(mnem, "eax, ecx")
		} else {
			fn.ins2(mnem+"l", "%ecx, %eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpMul:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		if fn.b.dialect == NASM {
			fn.ins2("imul", "eax, ecx")
		} else {
			fn.ins2("imull", "%ecx, %eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpSDiv, ir.OpSMod:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		if fn.b.dialect == NASM {
			fn.ins1("cdq")
			fn.ins2("idiv", "ecx")
		} else {
			fn.ins1("cltd")
			fn.ins2("idivl", "%ecx")
		}
		if instr.Op == ir.OpSDiv {
			fn.storeResult(instr, "eax")
		} else {
			fn.storeResult(instr, "edx")
		}
		return nil

	case ir.OpUDiv, ir.OpUMod:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		fn.mov(fn.reg("edx"), fn.imm(0))
		if fn.b.dialect == NASM {
			fn.ins2("div", "ecx")
		} else {
			fn.ins2("divl", "%ecx")
		}
		if instr.Op == ir.OpUDiv {
			fn.storeResult(instr, "eax")
		} else {
			fn.storeResult(instr, "edx")
		}
		return nil

	case ir.OpNeg:
		fn.loadTo("eax", instr.Operands[0])
		if fn.b.dialect == NASM {
			fn.ins2("neg", "eax")
		} else {
			fn.ins2("negl", "%eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpNot:
		fn.loadTo("eax", instr.Operands[0])
		if fn.b.dialect == NASM {
			fn.ins2("not", "eax")
		} else {
			fn.ins2("notl", "%eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		mnem := shiftMnemonic[instr.Op]
		if fn.b.dialect == NASM {
			fn.ins2(mnem, "eax, cl")
		} else {
			fn.ins2(mnem+"l", "%cl, %eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpICmpEQ, ir.OpICmpNE, ir.OpICmpSLT, ir.OpICmpSLE, ir.OpICmpSGT, ir.OpICmpSGE,
		ir.OpICmpULT, ir.OpICmpULE, ir.OpICmpUGT, ir.OpICmpUGE:
		fn.loadTo("eax", instr.Operands[0])
		fn.loadTo("ecx", instr.Operands[1])
		if fn.b.dialect == NASM {
			fn.ins2("cmp", "eax, ecx")
			fn.ins2("set"+icmpSet[instr.Op], "al")
		} else {
			fn.ins2("cmpl", "%ecx, %eax")
			fn.ins2("set"+icmpSet[instr.Op], "%al")
		}
		if fn.b.dialect == NASM {
			fn.ins2("movzx", "eax, al")
		} else {
			fn.ins2("movzbl", "%al, %eax")
		}
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpTrunc, ir.OpZExt, ir.OpSExt, ir.OpBitcast, ir.OpPtrToInt, ir.OpIntToPtr:
		fn.loadTo("eax", instr.Operands[0])
		fn.storeResult(instr, "eax")
		return nil

	case ir.OpGEP:
		fn.lowerGEP(instr)
		return nil

	case ir.OpBr:
		fn.ins2("jmp", fn.blockSym(instr.Succs[0]))
		return nil

	case ir.OpCondBr:
		fn.loadTo("eax", instr.Operands[0])
		if fn.b.dialect == NASM {
			fn.ins2("test", "eax, eax")
		} else {
			fn.ins2("testl", "%eax, %eax")
		}
		fn.ins2("jnz", fn.blockSym(instr.Succs[0]))
		fn.ins2("jmp", fn.blockSym(instr.Succs[1]))
		return nil

	case ir.OpCall:
		return fn.lowerCall(instr)

	case ir.OpRet:
		if len(instr.Operands) == 1 {
			fn.loadTo("eax", instr.Operands[0])
		}
		fn.epilogue()
		return nil

	case ir.OpUnreachable:
		if fn.b.dialect == NASM {
			fn.ins1("ud2")
		} else {
			fn.ins1("ud2")
		}
		return nil

	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv, ir.OpFNeg,
		ir.OpFCmpEQ, ir.OpFCmpNE, ir.OpFCmpLT, ir.OpFCmpLE, ir.OpFCmpGT, ir.OpFCmpGE,
		ir.OpFPTrunc, ir.OpFPExt, ir.OpFPToUI, ir.OpFPToSI, ir.OpUIToFP, ir.OpSIToFP:
		return fn.lowerFloat(instr)

	case ir.OpExtractValue, ir.OpInsertValue:
		fn.loadTo("eax", instr.Operands[0])
		fn.storeResult(instr, "eax")
		return nil
	}
	return fmt.Errorf("x86: unhandled opcode %s", instr.Op)
}

// lowerGEP lowers pointer arithmetic: base plus the sum of index
// operands each scaled by the pointer's word size, the naive
// stand-in for proper element-size-aware addressing.
func (fn *funcCtx) lowerGEP(instr *ir.Instr) {
	fn.loadTo("eax", instr.Operands[0])
	for _, idx := range instr.Operands[1:] {
		fn.loadTo("ecx", idx)
		if fn.b.dialect == NASM {
			fn.ins2("imul", "ecx, 4")
			fn.ins2("add", "eax, ecx")
		} else {
			fn.ins2("imull", "$4, %ecx")
			fn.ins2("addl", "%ecx, %eax")
		}
	}
	fn.storeResult(instr, "eax")
}

func (fn *funcCtx) lowerCall(instr *ir.Instr) error {
	args := instr.Operands[1:]
	// cdecl: push arguments right-to-left, caller cleans up.
	for i := len(args) - 1; i >= 0; i-- {
		fn.loadTo("eax", args[i])
		fn.ins2("push", fn.reg("eax"))
	}
	callee := instr.Operands[0]
	switch callee.Kind {
	case ir.ValFunction:
		fn.ins2("call", callee.Func.Name)
	default:
		fn.loadTo("eax", callee)
		if fn.b.dialect == NASM {
			fn.ins2("call", "eax")
		} else {
			fn.ins2("call", "*%eax")
		}
	}
	if len(args) > 0 {
		if fn.b.dialect == NASM {
			fn.insf("add esp, %d", len(args)*4)
		} else {
			fn.insf("addl $%d, %%esp", len(args)*4)
		}
	}
	fn.storeResult(instr, "eax")
	return nil
}
