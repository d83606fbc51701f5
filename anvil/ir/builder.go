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

// Builder appends instructions to the end of one block at a time,
// implementing spec.md §4.E's "Instruction builder": create, add_operand,
// and the opcode-specific setters for branch targets and PHI incoming
// pairs layered on top of Instr's own methods.
type Builder struct {
	fn  *Func
	cur *Block
}

// NewBuilder returns a Builder with no current block; call SetBlock
// before emitting any instruction.
func NewBuilder(fn *Func) *Builder {
	return &Builder{fn: fn}
}

// SetBlock redirects subsequent emission to b.
func (bld *Builder) SetBlock(b *Block) { bld.cur = b }

// Block returns the builder's current insertion block.
func (bld *Builder) Block() *Block { return bld.cur }

// create builds a bare instruction with no operands, optionally giving
// it a result of type resTy. A types.VoidID result type means the
// instruction produces no value (STORE, RET, BR, CONDBR, ...).
func (bld *Builder) create(op Op, resTy types.ID, name string) *Instr {
	instr := &Instr{Op: op}
	if resTy != types.VoidID {
		if name == "" {
			name = bld.fn.nextValueName()
		}
		instr.Name = name
		instr.Result = &Value{Kind: ValInstr, Type: resTy, Instr: instr}
	}
	return instr
}

// emit appends instr to the current block and returns its result value
// (nil for a result-less instruction).
func (bld *Builder) emit(instr *Instr) *Value {
	bld.cur.Append(instr)
	return instr.Result
}

// Create is the exported entry point named in spec.md §4.E: it builds
// and appends an instruction with no operands yet, returning the
// instruction so the caller can AddOperand/AddIncoming/SetSuccs before
// moving on to the next one.
func (bld *Builder) Create(op Op, resTy types.ID, name string) *Instr {
	instr := bld.create(op, resTy, name)
	bld.cur.Append(instr)
	return instr
}

// BinOp emits a two-operand arithmetic/bitwise/comparison instruction.
func (bld *Builder) BinOp(op Op, resTy types.ID, lhs, rhs *Value) *Value {
	i := bld.create(op, resTy, "")
	i.AddOperand(lhs)
	i.AddOperand(rhs)
	return bld.emit(i)
}

// UnOp emits a single-operand instruction (NEG, NOT, FNEG, conversions).
func (bld *Builder) UnOp(op Op, resTy types.ID, v *Value) *Value {
	i := bld.create(op, resTy, "")
	i.AddOperand(v)
	return bld.emit(i)
}

// Alloca emits a stack-slot allocation of the given element type,
// yielding a pointer-typed result; the backend fills in Func.StackSize
// from the set of ALLOCAs in the function (spec.md §4.G "Stack frame
// layout").
func (bld *Builder) Alloca(elemTy, ptrTy types.ID) *Value {
	i := bld.create(OpAlloca, ptrTy, "")
	i.AddOperand(ConstInt(types.IntID, 1))
	_ = elemTy
	return bld.emit(i)
}

// Load emits a memory load of type resTy through pointer addr.
func (bld *Builder) Load(resTy types.ID, addr *Value) *Value {
	i := bld.create(OpLoad, resTy, "")
	i.AddOperand(addr)
	return bld.emit(i)
}

// Store emits a memory store of val through pointer addr; STORE has no
// result.
func (bld *Builder) Store(addr, val *Value) {
	i := bld.create(OpStore, types.VoidID, "")
	i.AddOperand(addr)
	i.AddOperand(val)
	bld.emit(i)
}

// Call emits a call to callee with the given arguments, yielding a
// result of type resTy (types.VoidID for a void call).
func (bld *Builder) Call(resTy types.ID, callee *Value, args ...*Value) *Value {
	i := bld.create(OpCall, resTy, "")
	i.AddOperand(callee)
	for _, a := range args {
		i.AddOperand(a)
	}
	return bld.emit(i)
}

// Br emits an unconditional branch to target. The block is terminated
// afterward; no further instructions may be appended to it.
func (bld *Builder) Br(target *Block) {
	i := bld.create(OpBr, types.VoidID, "")
	i.SetSuccs(target)
	bld.emit(i)
}

// CondBr emits a conditional branch on cond to thenBlk or elseBlk.
func (bld *Builder) CondBr(cond *Value, thenBlk, elseBlk *Block) {
	i := bld.create(OpCondBr, types.VoidID, "")
	i.AddOperand(cond)
	i.SetSuccs(thenBlk, elseBlk)
	bld.emit(i)
}

// Ret emits a return, with val nil for a void return.
func (bld *Builder) Ret(val *Value) {
	i := bld.create(OpRet, types.VoidID, "")
	if val != nil {
		i.AddOperand(val)
	}
	bld.emit(i)
}

// Phi creates and appends an empty PHI instruction of type resTy; the
// caller fills in incoming (value, predecessor) pairs with
// Instr.AddIncoming once all predecessors are known.
func (bld *Builder) Phi(resTy types.ID) *Instr {
	i := bld.create(OpPhi, resTy, "")
	bld.cur.Append(i)
	return i
}
