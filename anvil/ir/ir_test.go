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

package ir_test

import (
	"strings"
	"testing"

	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

// buildAddOneFunc builds:
//
//	func add1(x) { entry: t1 = ADD x, 1; RET t1 }
func buildAddOneFunc(reg *types.Registry) *ir.Func {
	f := ir.NewFunc("add1", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	sum := b.BinOp(ir.OpAdd, types.IntID, f.Params[0].Value, ir.ConstInt(types.IntID, 1))
	b.Ret(sum)
	return f
}

func TestBuilderBinOpAndRet(t *testing.T) {
	reg := types.NewRegistry()
	f := buildAddOneFunc(reg)
	if f.IsDeclaration() {
		t.Fatal("function with a body should not report IsDeclaration")
	}
	entry := f.Entry()
	if entry == nil || entry.Name != "entry" {
		t.Fatalf("Entry() = %+v, want block 'entry'", entry)
	}
	if entry.Len() != 2 {
		t.Fatalf("entry block has %d instrs, want 2 (ADD, RET)", entry.Len())
	}
	if !entry.Terminator() {
		t.Fatal("block ending in RET should report Terminator() true")
	}
	add := entry.First()
	if add.Op != ir.OpAdd || len(add.Operands) != 2 {
		t.Fatalf("first instr = %+v, want ADD with 2 operands", add)
	}
	if add.Result == nil || add.Result.Type != types.IntID {
		t.Fatalf("ADD result = %+v, want an IntID-typed value", add.Result)
	}
	ret := entry.Last()
	if ret.Op != ir.OpRet || len(ret.Operands) != 1 {
		t.Fatalf("last instr = %+v, want RET with 1 operand", ret)
	}
	if ret.Operands[0] != add.Result {
		t.Error("RET should return the ADD's result value by identity")
	}
}

func TestBuilderCondBrAndPreds(t *testing.T) {
	f := ir.NewFunc("f", types.VoidID, nil, false)
	entry := f.AddBlock("entry")
	thenB := f.AddBlock("then")
	elseB := f.AddBlock("else")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	b.CondBr(ir.ConstInt(types.IntID, 1), thenB, elseB)
	b.SetBlock(thenB)
	b.Br(elseB)
	b.SetBlock(elseB)
	b.Ret(nil)

	if len(elseB.Preds()) != 2 {
		t.Fatalf("else block preds = %v, want 2 (entry's false edge and then's fallthrough)", elseB.Preds())
	}
	if len(thenB.Preds()) != 1 || thenB.Preds()[0] != entry {
		t.Fatalf("then block preds = %v, want [entry]", thenB.Preds())
	}
}

func TestBuilderPhi(t *testing.T) {
	f := ir.NewFunc("f", types.IntID, nil, false)
	entry := f.AddBlock("entry")
	a := f.AddBlock("a")
	join := f.AddBlock("join")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	b.CondBr(ir.ConstInt(types.IntID, 1), a, join)
	b.SetBlock(a)
	b.Br(join)
	b.SetBlock(join)
	phi := b.Phi(types.IntID)
	phi.AddIncoming(ir.ConstInt(types.IntID, 1), a)
	phi.AddIncoming(ir.ConstInt(types.IntID, 0), entry)
	b.Ret(phi.Result)

	if len(phi.Operands) != 2 || len(phi.PhiBlocks) != 2 {
		t.Fatalf("PHI has %d operands / %d blocks, want 2/2", len(phi.Operands), len(phi.PhiBlocks))
	}
	if phi.PhiBlocks[0] != a || phi.PhiBlocks[1] != entry {
		t.Errorf("PhiBlocks = %v, want [a, entry] matching AddIncoming order", phi.PhiBlocks)
	}
}

func TestValueEqual(t *testing.T) {
	a := ir.ConstInt(types.IntID, 42)
	b := ir.ConstInt(types.IntID, 42)
	c := ir.ConstInt(types.IntID, 7)
	if !a.Equal(b) {
		t.Error("two ConstInt values with the same type/payload should be Equal")
	}
	if a.Equal(c) {
		t.Error("ConstInt values with different payloads should not be Equal")
	}
}

func TestReplaceOperand(t *testing.T) {
	f := ir.NewFunc("f", types.VoidID, nil, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	old := ir.ConstInt(types.IntID, 1)
	repl := ir.ConstInt(types.IntID, 2)
	sum := b.BinOp(ir.OpAdd, types.IntID, old, old)
	sum.Instr.ReplaceOperand(old, repl)
	for _, op := range sum.Instr.Operands {
		if op != repl {
			t.Errorf("operand %v not replaced", op)
		}
	}
}

func TestModuleDump(t *testing.T) {
	reg := types.NewRegistry()
	m := ir.NewModule("test", reg)
	m.AddFunc(buildAddOneFunc(reg))
	m.AddGlobal(&ir.Global{Name: "g", Type: types.IntID})

	var buf strings.Builder
	if err := m.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"module test", "global g", "func add1", "= add ", "ret "} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q in:\n%s", want, out)
		}
	}
}

func TestFuncByName(t *testing.T) {
	reg := types.NewRegistry()
	m := ir.NewModule("test", reg)
	f := buildAddOneFunc(reg)
	m.AddFunc(f)
	if m.FuncByName("add1") != f {
		t.Error("FuncByName should find the added function")
	}
	if m.FuncByName("missing") != nil {
		t.Error("FuncByName should return nil for an unknown name")
	}
}

func TestBlockRemove(t *testing.T) {
	reg := types.NewRegistry()
	ptrTy := reg.NewPointer(types.IntID, 0)
	f := ir.NewFunc("f", types.VoidID, nil, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	b.Alloca(types.IntID, ptrTy)
	if entry.Len() != 1 {
		t.Fatalf("entry has %d instrs, want 1", entry.Len())
	}
	entry.Remove(entry.First())
	if entry.Len() != 0 {
		t.Fatalf("entry has %d instrs after Remove, want 0", entry.Len())
	}
}
