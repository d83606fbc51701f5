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

// Package opt implements ANVIL's function-level optimizer passes:
// constant folding with algebraic identities, strength reduction, and
// full loop unrolling (spec.md §4.F), run to a fixed point by Pipeline.
package opt

import (
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

// ConstFold evaluates every instruction whose operands are all
// constant, substituting the computed constant for every use of the
// result and marking the original NOP. It additionally applies
// algebraic identities that require only one constant operand (spec.md
// §4.F). It returns whether it mutated the function.
func ConstFold(f *ir.Func) bool {
	changed := false
	for _, instr := range f.AllInstrs() {
		if instr.Result == nil || instr.Op == ir.OpNop || instr.Op == ir.OpPhi {
			continue
		}
		repl := foldIdentity(instr)
		if repl == nil && allConst(instr.Operands) {
			repl = evalConst(instr)
		}
		if repl == nil {
			continue
		}
		substitute(f, instr.Result, repl)
		instr.Op = ir.OpNop
		instr.Operands = nil
		changed = true
	}
	return changed
}

func allConst(vs []*ir.Value) bool {
	if len(vs) == 0 {
		return false
	}
	for _, v := range vs {
		if !v.IsConst() {
			return false
		}
	}
	return true
}

func substitute(f *ir.Func, old, repl *ir.Value) {
	for _, instr := range f.AllInstrs() {
		instr.ReplaceOperand(old, repl)
	}
}

// foldIdentity matches the single-constant-operand algebraic identities
// from spec.md §4.F. It returns the replacement value, or nil if no
// identity applies.
func foldIdentity(instr *ir.Instr) *ir.Value {
	if len(instr.Operands) != 2 {
		return foldUnaryIdentity(instr)
	}
	lhs, rhs := instr.Operands[0], instr.Operands[1]
	ty := instr.ResultType()

	if lhs.Equal(rhs) {
		switch instr.Op {
		case ir.OpXor, ir.OpSub:
			return ir.ConstInt(ty, 0)
		case ir.OpAnd, ir.OpOr:
			return lhs
		case ir.OpICmpEQ, ir.OpICmpSLE, ir.OpICmpSGE, ir.OpICmpULE, ir.OpICmpUGE:
			return ir.ConstInt(ty, 1)
		case ir.OpICmpNE, ir.OpICmpSLT, ir.OpICmpSGT, ir.OpICmpULT, ir.OpICmpUGT:
			return ir.ConstInt(ty, 0)
		}
	}

	rc, rIsConst := asConstInt(rhs)
	lc, lIsConst := asConstInt(lhs)

	switch instr.Op {
	case ir.OpAdd:
		if rIsConst && rc == 0 {
			return lhs
		}
		if lIsConst && lc == 0 {
			return rhs
		}
	case ir.OpMul:
		if rIsConst && rc == 0 {
			return ir.ConstInt(ty, 0)
		}
		if lIsConst && lc == 0 {
			return ir.ConstInt(ty, 0)
		}
		if rIsConst && rc == 1 {
			return lhs
		}
		if lIsConst && lc == 1 {
			return rhs
		}
	case ir.OpSDiv, ir.OpUDiv:
		if rIsConst && rc == 1 {
			return lhs
		}
	case ir.OpSMod, ir.OpUMod:
		if rIsConst && rc == 1 {
			return ir.ConstInt(ty, 0)
		}
	case ir.OpAnd:
		if rIsConst && rc == 0 {
			return ir.ConstInt(ty, 0)
		}
		if lIsConst && lc == 0 {
			return ir.ConstInt(ty, 0)
		}
		if rIsConst && rc == -1 {
			return lhs
		}
		if lIsConst && lc == -1 {
			return rhs
		}
	case ir.OpOr:
		if rIsConst && rc == 0 {
			return lhs
		}
		if lIsConst && lc == 0 {
			return rhs
		}
		if rIsConst && rc == -1 {
			return ir.ConstInt(ty, -1)
		}
		if lIsConst && lc == -1 {
			return ir.ConstInt(ty, -1)
		}
	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		if rIsConst && rc == 0 {
			return lhs
		}
	case ir.OpSub:
		if rIsConst && rc == 0 {
			return lhs
		}
	}
	return nil
}

// foldUnaryIdentity has no single-operand identities to apply; spec.md
// §4.F's identity list is entirely binary. Kept for symmetry with the
// binary path's dispatch from foldIdentity.
func foldUnaryIdentity(instr *ir.Instr) *ir.Value {
	return nil
}

func asConstInt(v *ir.Value) (int64, bool) {
	if v.Kind == ir.ValConstInt {
		return v.ConstInt, true
	}
	return 0, false
}

// evalConst evaluates instr given that all its operands are constant,
// per spec.md §4.F's listed opcode coverage. Floating-point division by
// zero yields the all-operands-zero sentinel rather than propagating
// NaN.
func evalConst(instr *ir.Instr) *ir.Value {
	ty := instr.ResultType()
	ops := instr.Operands

	if len(ops) == 1 {
		switch instr.Op {
		case ir.OpNeg:
			return ir.ConstInt(ty, -ops[0].ConstInt)
		case ir.OpNot:
			return ir.ConstInt(ty, ^ops[0].ConstInt)
		case ir.OpFNeg:
			return ir.ConstFloat(ty, -ops[0].ConstFloat)
		}
		return nil
	}
	if len(ops) != 2 {
		return nil
	}
	a, b := ops[0], ops[1]

	switch instr.Op {
	case ir.OpAdd:
		return ir.ConstInt(ty, a.ConstInt+b.ConstInt)
	case ir.OpSub:
		return ir.ConstInt(ty, a.ConstInt-b.ConstInt)
	case ir.OpMul:
		return ir.ConstInt(ty, a.ConstInt*b.ConstInt)
	case ir.OpSDiv:
		if b.ConstInt == 0 {
			return nil
		}
		return ir.ConstInt(ty, a.ConstInt/b.ConstInt)
	case ir.OpUDiv:
		if b.ConstInt == 0 {
			return nil
		}
		return ir.ConstInt(ty, int64(uint64(a.ConstInt)/uint64(b.ConstInt)))
	case ir.OpSMod:
		if b.ConstInt == 0 {
			return nil
		}
		return ir.ConstInt(ty, a.ConstInt%b.ConstInt)
	case ir.OpUMod:
		if b.ConstInt == 0 {
			return nil
		}
		return ir.ConstInt(ty, int64(uint64(a.ConstInt)%uint64(b.ConstInt)))
	case ir.OpAnd:
		return ir.ConstInt(ty, a.ConstInt&b.ConstInt)
	case ir.OpOr:
		return ir.ConstInt(ty, a.ConstInt|b.ConstInt)
	case ir.OpXor:
		return ir.ConstInt(ty, a.ConstInt^b.ConstInt)
	case ir.OpShl:
		return ir.ConstInt(ty, a.ConstInt<<uint(b.ConstInt))
	case ir.OpLShr:
		return ir.ConstInt(ty, int64(uint64(a.ConstInt)>>uint(b.ConstInt)))
	case ir.OpAShr:
		return ir.ConstInt(ty, a.ConstInt>>uint(b.ConstInt))
	case ir.OpICmpEQ:
		return boolConst(ty, a.ConstInt == b.ConstInt)
	case ir.OpICmpNE:
		return boolConst(ty, a.ConstInt != b.ConstInt)
	case ir.OpICmpSLT:
		return boolConst(ty, a.ConstInt < b.ConstInt)
	case ir.OpICmpSLE:
		return boolConst(ty, a.ConstInt <= b.ConstInt)
	case ir.OpICmpSGT:
		return boolConst(ty, a.ConstInt > b.ConstInt)
	case ir.OpICmpSGE:
		return boolConst(ty, a.ConstInt >= b.ConstInt)
	case ir.OpICmpULT:
		return boolConst(ty, uint64(a.ConstInt) < uint64(b.ConstInt))
	case ir.OpICmpULE:
		return boolConst(ty, uint64(a.ConstInt) <= uint64(b.ConstInt))
	case ir.OpICmpUGT:
		return boolConst(ty, uint64(a.ConstInt) > uint64(b.ConstInt))
	case ir.OpICmpUGE:
		return boolConst(ty, uint64(a.ConstInt) >= uint64(b.ConstInt))
	case ir.OpFAdd:
		return ir.ConstFloat(ty, a.ConstFloat+b.ConstFloat)
	case ir.OpFSub:
		return ir.ConstFloat(ty, a.ConstFloat-b.ConstFloat)
	case ir.OpFMul:
		return ir.ConstFloat(ty, a.ConstFloat*b.ConstFloat)
	case ir.OpFDiv:
		if b.ConstFloat == 0 {
			return ir.ConstFloat(ty, 0)
		}
		return ir.ConstFloat(ty, a.ConstFloat/b.ConstFloat)
	case ir.OpFCmpEQ:
		return boolConst(ty, a.ConstFloat == b.ConstFloat)
	case ir.OpFCmpNE:
		return boolConst(ty, a.ConstFloat != b.ConstFloat)
	case ir.OpFCmpLT:
		return boolConst(ty, a.ConstFloat < b.ConstFloat)
	case ir.OpFCmpLE:
		return boolConst(ty, a.ConstFloat <= b.ConstFloat)
	case ir.OpFCmpGT:
		return boolConst(ty, a.ConstFloat > b.ConstFloat)
	case ir.OpFCmpGE:
		return boolConst(ty, a.ConstFloat >= b.ConstFloat)
	}
	return nil
}

// boolConst returns the i1 constant for a comparison result, boolean
// type ty already known from the comparing instruction's result type.
func boolConst(ty types.ID, v bool) *ir.Value {
	if v {
		return ir.ConstInt(ty, 1)
	}
	return ir.ConstInt(ty, 0)
}
