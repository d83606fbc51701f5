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

import (
	"strconv"

	"github.com/db47h/mcc/cc/types"
)

// Param is one function parameter: its declared name and type, and the
// SSA Value the function body refers to.
type Param struct {
	Name  string
	Type  types.ID
	Value *Value
}

// Func is one ANVIL function: a signature, a parameter list, and (for a
// definition, as opposed to a declaration) an ordered list of basic
// blocks headed by the entry block.
type Func struct {
	Name      string
	RetType   types.ID
	Params    []Param
	Variadic  bool
	Blocks    []*Block
	StackSize int // whole frame size (slots, spills, ABI reserve, aligned), filled in by the backend

	nextID int
}

// NewFunc creates a function declaration (no blocks) named name.
func NewFunc(name string, ret types.ID, params []types.Param, variadic bool) *Func {
	f := &Func{Name: name, RetType: ret, Variadic: variadic}
	for i, p := range params {
		f.Params = append(f.Params, Param{
			Name: p.Name, Type: p.Type,
			Value: &Value{Kind: ValParam, Type: p.Type, ParamIndex: i, ParamName: p.Name},
		})
	}
	return f
}

// IsDeclaration reports whether f has no body.
func (f *Func) IsDeclaration() bool { return len(f.Blocks) == 0 }

// Entry returns f's entry block, or nil if f has none yet.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// AddBlock appends a new block named name to f and returns it. The
// first block added to a function is its entry block, which per
// spec.md §4.E has no predecessors from outside the function.
func (f *Func) AddBlock(name string) *Block {
	b := NewBlock(name)
	b.Func = f
	f.Blocks = append(f.Blocks, b)
	return b
}

// nextValueName returns a fresh, function-unique temporary name for an
// unnamed instruction result, of the form "tN", which the textual IR
// dump prints as "%tN".
func (f *Func) nextValueName() string {
	f.nextID++
	return "t" + strconv.Itoa(f.nextID)
}

// AllInstrs returns every instruction in every block, in block order,
// for passes that need a whole-function view (constant folding's
// operand-substitution scan, in particular).
func (f *Func) AllInstrs() []*Instr {
	var out []*Instr
	for _, b := range f.Blocks {
		out = append(out, b.Instrs()...)
	}
	return out
}
