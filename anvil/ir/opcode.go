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

// Package ir implements the ANVIL intermediate representation: SSA-style
// values, instructions, basic blocks, functions and modules (spec.md
// §4.E), following the flat-opcode-enum idiom the teacher uses for its
// own instruction set in vm/opcodes.go rather than a per-opcode type
// hierarchy.
package ir

// Op is an ANVIL instruction opcode.
type Op int

const (
	OpNop Op = iota

	// Memory
	OpAlloca
	OpLoad
	OpStore
	OpGEP // pointer arithmetic: operand[0] is the base, remaining operands are indices

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSMod
	OpUMod
	OpNeg

	// Bitwise
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr // logical (unsigned) shift right
	OpAShr // arithmetic (signed) shift right
	OpNot

	// Floating point
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg

	// Comparisons: result is an i1
	OpICmpEQ
	OpICmpNE
	OpICmpSLT
	OpICmpSLE
	OpICmpSGT
	OpICmpSGE
	OpICmpULT
	OpICmpULE
	OpICmpUGT
	OpICmpUGE
	OpFCmpEQ
	OpFCmpNE
	OpFCmpLT
	OpFCmpLE
	OpFCmpGT
	OpFCmpGE

	// Conversions
	OpTrunc
	OpZExt
	OpSExt
	OpFPTrunc
	OpFPExt
	OpFPToUI
	OpFPToSI
	OpUIToFP
	OpSIToFP
	OpBitcast
	OpPtrToInt
	OpIntToPtr

	// Aggregate access
	OpExtractValue
	OpInsertValue

	// Control flow
	OpPhi
	OpBr     // unconditional branch; Succs[0] is the target
	OpCondBr // conditional branch; Operands[0] is the condition, Succs[0]=true target, Succs[1]=false target
	OpCall
	OpRet
	OpUnreachable
)

var opNames = [...]string{
	OpNop:          "nop",
	OpAlloca:       "alloca",
	OpLoad:         "load",
	OpStore:        "store",
	OpGEP:          "gep",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpSDiv:         "sdiv",
	OpUDiv:         "udiv",
	OpSMod:         "smod",
	OpUMod:         "umod",
	OpNeg:          "neg",
	OpAnd:          "and",
	OpOr:           "or",
	OpXor:          "xor",
	OpShl:          "shl",
	OpLShr:         "lshr",
	OpAShr:         "ashr",
	OpNot:          "not",
	OpFAdd:         "fadd",
	OpFSub:         "fsub",
	OpFMul:         "fmul",
	OpFDiv:         "fdiv",
	OpFNeg:         "fneg",
	OpICmpEQ:       "icmp.eq",
	OpICmpNE:       "icmp.ne",
	OpICmpSLT:      "icmp.slt",
	OpICmpSLE:      "icmp.sle",
	OpICmpSGT:      "icmp.sgt",
	OpICmpSGE:      "icmp.sge",
	OpICmpULT:      "icmp.ult",
	OpICmpULE:      "icmp.ule",
	OpICmpUGT:      "icmp.ugt",
	OpICmpUGE:      "icmp.uge",
	OpFCmpEQ:       "fcmp.eq",
	OpFCmpNE:       "fcmp.ne",
	OpFCmpLT:       "fcmp.lt",
	OpFCmpLE:       "fcmp.le",
	OpFCmpGT:       "fcmp.gt",
	OpFCmpGE:       "fcmp.ge",
	OpTrunc:        "trunc",
	OpZExt:         "zext",
	OpSExt:         "sext",
	OpFPTrunc:      "fptrunc",
	OpFPExt:        "fpext",
	OpFPToUI:       "fptoui",
	OpFPToSI:       "fptosi",
	OpUIToFP:       "uitofp",
	OpSIToFP:       "sitofp",
	OpBitcast:      "bitcast",
	OpPtrToInt:     "ptrtoint",
	OpIntToPtr:     "inttoptr",
	OpExtractValue: "extractvalue",
	OpInsertValue:  "insertvalue",
	OpPhi:          "phi",
	OpBr:           "br",
	OpCondBr:       "condbr",
	OpCall:         "call",
	OpRet:          "ret",
	OpUnreachable:  "unreachable",
}

func (o Op) String() string {
	if int(o) >= 0 && int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "?"
}

// IsTerminator reports whether op ends a basic block, per the
// block/function invariant that no instruction may follow a terminator
// (spec.md §4.E).
func (o Op) IsTerminator() bool {
	switch o {
	case OpBr, OpCondBr, OpRet, OpUnreachable:
		return true
	}
	return false
}

// commutative reports whether operand order doesn't affect the result.
func (o Op) commutative() bool {
	switch o {
	case OpAdd, OpMul, OpAnd, OpOr, OpXor, OpFAdd, OpFMul,
		OpICmpEQ, OpICmpNE, OpFCmpEQ, OpFCmpNE:
		return true
	}
	return false
}
