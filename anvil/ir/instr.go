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

package ir

import "github.com/db47h/mcc/cc/types"

// Instr is one ANVIL instruction: an opcode, an operand list, an
// optional result value, and (for terminators) successor blocks. PHI
// instructions additionally carry a parallel PhiBlocks array so that
// Operands[i] is paired with the predecessor PhiBlocks[i] (spec.md §4.E
// "Instruction builder").
type Instr struct {
	Op       Op
	Operands []*Value
	Result   *Value // nil for instructions with no result (STORE, RET, BR, ...)
	Succs    []*Block
	PhiBlocks []*Block // parallel to Operands, only meaningful when Op == OpPhi

	Name string // optional debug name of Result, not semantically significant

	block *Block
	prev, next *Instr // intrusive doubly-linked list within block
}

// AddOperand appends val to instr's operand list (spec.md §4.E
// "add_operand").
func (i *Instr) AddOperand(val *Value) {
	i.Operands = append(i.Operands, val)
}

// AddIncoming appends one PHI (value, predecessor) pair.
func (i *Instr) AddIncoming(val *Value, pred *Block) {
	i.Operands = append(i.Operands, val)
	i.PhiBlocks = append(i.PhiBlocks, pred)
}

// SetSuccs sets the terminator's successor block list: one target for
// OpBr, two (true, false) for OpCondBr.
func (i *Instr) SetSuccs(succs ...*Block) {
	i.Succs = succs
}

// ReplaceOperand substitutes every operand pointer-equal to old with
// new, implementing the optimizer's "substitute all uses" step (spec.md
// §4.F "Constant folding").
func (i *Instr) ReplaceOperand(old, repl *Value) {
	for idx, v := range i.Operands {
		if v == old {
			i.Operands[idx] = repl
		}
	}
}

// ResultType returns the type of i's result, or types.VoidID if it has
// none.
func (i *Instr) ResultType() types.ID {
	if i.Result == nil {
		return types.VoidID
	}
	return i.Result.Type
}
