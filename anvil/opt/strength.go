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

package opt

import "github.com/db47h/mcc/anvil/ir"

// StrengthReduce rewrites MUL x,2^n -> SHL x,n, UDIV x,2^n -> LSHR x,n,
// and UMOD x,2^n -> AND x,(2^n-1). Signed division and modulo by powers
// of two are deliberately left alone (spec.md §4.F): the correction
// needed to handle negative dividends is out of scope.
func StrengthReduce(f *ir.Func) bool {
	changed := false
	for _, instr := range f.AllInstrs() {
		if instr.Result == nil || len(instr.Operands) != 2 {
			continue
		}
		n, ok := powerOfTwoShift(instr.Operands[1])
		if !ok {
			continue
		}
		switch instr.Op {
		case ir.OpMul:
			instr.Op = ir.OpShl
			instr.Operands[1] = ir.ConstInt(instr.Operands[1].Type, int64(n))
			changed = true
		case ir.OpUDiv:
			instr.Op = ir.OpLShr
			instr.Operands[1] = ir.ConstInt(instr.Operands[1].Type, int64(n))
			changed = true
		case ir.OpUMod:
			instr.Op = ir.OpAnd
			instr.Operands[1] = ir.ConstInt(instr.Operands[1].Type, (int64(1)<<uint(n))-1)
			changed = true
		}
	}
	return changed
}

// powerOfTwoShift reports whether v is a positive power-of-two integer
// constant, returning its log2.
func powerOfTwoShift(v *ir.Value) (int, bool) {
	if v.Kind != ir.ValConstInt || v.ConstInt <= 0 {
		return 0, false
	}
	n := v.ConstInt
	if n&(n-1) != 0 {
		return 0, false
	}
	shift := 0
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift, true
}
