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

package opt_test

import (
	"testing"

	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/anvil/opt"
	"github.com/db47h/mcc/cc/types"
)

// buildBinOp builds a minimal one-block function computing lhs `op` rhs
// and returning it, for exercising a single fold/strength-reduce rule in
// isolation.
func buildBinOp(op ir.Op, lhs, rhs *ir.Value) (*ir.Func, *ir.Instr) {
	f := ir.NewFunc("f", types.IntID, nil, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	res := b.BinOp(op, types.IntID, lhs, rhs)
	b.Ret(res)
	return f, res.Instr
}

func TestConstFoldArithmetic(t *testing.T) {
	f, instr := buildBinOp(ir.OpAdd, ir.ConstInt(types.IntID, 2), ir.ConstInt(types.IntID, 3))
	changed := opt.ConstFold(f)
	if !changed {
		t.Fatal("ConstFold should report a change for two constant operands")
	}
	if instr.Op != ir.OpNop {
		t.Errorf("folded instr.Op = %v, want OpNop", instr.Op)
	}
	ret := f.Entry().Last()
	if ret.Operands[0].Kind != ir.ValConstInt || ret.Operands[0].ConstInt != 5 {
		t.Errorf("RET operand = %+v, want ConstInt 5", ret.Operands[0])
	}
}

func TestConstFoldAddZeroIdentity(t *testing.T) {
	f := ir.NewFunc("f", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	sum := b.BinOp(ir.OpAdd, types.IntID, f.Params[0].Value, ir.ConstInt(types.IntID, 0))
	b.Ret(sum)

	if !opt.ConstFold(f) {
		t.Fatal("ConstFold should apply the 'x + 0 -> x' identity")
	}
	ret := f.Entry().Last()
	if ret.Operands[0] != f.Params[0].Value {
		t.Errorf("RET operand = %+v, want the parameter value directly", ret.Operands[0])
	}
}

func TestConstFoldXorSelfIdentity(t *testing.T) {
	f := ir.NewFunc("f", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	x := f.Params[0].Value
	res := b.BinOp(ir.OpXor, types.IntID, x, x)
	b.Ret(res)

	if !opt.ConstFold(f) {
		t.Fatal("ConstFold should apply the 'x ^ x -> 0' identity")
	}
	ret := f.Entry().Last()
	if ret.Operands[0].Kind != ir.ValConstInt || ret.Operands[0].ConstInt != 0 {
		t.Errorf("RET operand = %+v, want ConstInt 0", ret.Operands[0])
	}
}

func TestConstFoldDivByZeroNotFolded(t *testing.T) {
	f, instr := buildBinOp(ir.OpSDiv, ir.ConstInt(types.IntID, 1), ir.ConstInt(types.IntID, 0))
	changed := opt.ConstFold(f)
	if changed {
		t.Fatal("division by a constant zero should not be folded")
	}
	if instr.Op != ir.OpSDiv {
		t.Errorf("instr.Op = %v, want untouched OpSDiv", instr.Op)
	}
}

func TestStrengthReduceMulPowerOfTwo(t *testing.T) {
	f := ir.NewFunc("f", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	res := b.BinOp(ir.OpMul, types.IntID, f.Params[0].Value, ir.ConstInt(types.IntID, 8))
	b.Ret(res)

	if !opt.StrengthReduce(f) {
		t.Fatal("StrengthReduce should rewrite MUL by a power of two")
	}
	if res.Instr.Op != ir.OpShl {
		t.Errorf("instr.Op = %v, want OpShl", res.Instr.Op)
	}
	if res.Instr.Operands[1].ConstInt != 3 {
		t.Errorf("shift amount = %d, want 3 (log2(8))", res.Instr.Operands[1].ConstInt)
	}
}

func TestStrengthReduceLeavesNonPowerOfTwo(t *testing.T) {
	f, instr := buildBinOp(ir.OpMul, ir.ConstInt(types.IntID, 5), ir.ConstInt(types.IntID, 6))
	if opt.StrengthReduce(f) {
		t.Fatal("StrengthReduce should not touch a non-power-of-two multiplier")
	}
	if instr.Op != ir.OpMul {
		t.Errorf("instr.Op = %v, want untouched OpMul", instr.Op)
	}
}

func TestPipelineRunsToFixedPoint(t *testing.T) {
	// (x * 4) + 0 should fold away the +0 and strength-reduce the *4 in
	// one Pipeline call, each pass feeding the next.
	f := ir.NewFunc("f", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	mul := b.BinOp(ir.OpMul, types.IntID, f.Params[0].Value, ir.ConstInt(types.IntID, 4))
	add := b.BinOp(ir.OpAdd, types.IntID, mul, ir.ConstInt(types.IntID, 0))
	b.Ret(add)

	opt.Pipeline(f, opt.DefaultPasses)

	ret := f.Entry().Last()
	if ret.Operands[0] != mul {
		t.Errorf("RET operand = %+v, want the (reduced) MUL result directly", ret.Operands[0])
	}
	if mul.Instr.Op != ir.OpShl {
		t.Errorf("mul.Instr.Op = %v, want OpShl after strength reduction", mul.Instr.Op)
	}
}

// buildCountingLoop builds, entirely by hand (cc/lower never emits
// PHIs, so this is the only way to exercise UnrollLoops):
//
//	preheader: br header
//	header:    i = phi [0, preheader], [i2, body]
//	           s = phi [0, preheader], [s2, body]
//	           cond = icmp slt i, bound
//	           condbr cond, body, exit
//	body:      s2 = add s, i
//	           i2 = add i, 1
//	           br header
//	exit:      ret s
//
// matching spec.md §8 scenario 7's loop-carried accumulator, not just
// the induction variable.
func buildCountingLoop(bound int64) (*ir.Func, *ir.Block) {
	f := ir.NewFunc("f", types.IntID, nil, false)
	preheader := f.AddBlock("preheader")
	header := f.AddBlock("header")
	body := f.AddBlock("body")
	exit := f.AddBlock("exit")

	b := ir.NewBuilder(f)
	b.SetBlock(preheader)
	b.Br(header)

	b.SetBlock(header)
	iPhi := b.Phi(types.IntID)
	sPhi := b.Phi(types.IntID)
	cond := b.BinOp(ir.OpICmpSLT, types.IntID, iPhi.Result, ir.ConstInt(types.IntID, bound))
	b.CondBr(cond, body, exit)

	b.SetBlock(body)
	sNext := b.BinOp(ir.OpAdd, types.IntID, sPhi.Result, iPhi.Result)
	iNext := b.BinOp(ir.OpAdd, types.IntID, iPhi.Result, ir.ConstInt(types.IntID, 1))
	b.Br(header)

	iPhi.AddIncoming(ir.ConstInt(types.IntID, 0), preheader)
	iPhi.AddIncoming(iNext, body)
	sPhi.AddIncoming(ir.ConstInt(types.IntID, 0), preheader)
	sPhi.AddIncoming(sNext, body)

	b.SetBlock(exit)
	b.Ret(sPhi.Result)

	return f, preheader
}

func TestUnrollLoopsRetargetsPreheaderToExit(t *testing.T) {
	f, preheader := buildCountingLoop(3)
	if !opt.UnrollLoops(f) {
		t.Fatal("UnrollLoops should report a change for a 3-iteration counted loop")
	}
	term := preheader.Last()
	if term.Op != ir.OpBr || len(term.Succs) != 1 || term.Succs[0].Name != "exit" {
		t.Fatalf("preheader terminator = %+v, want a direct BR to exit", term)
	}
}

func TestUnrollLoopsChainsCarriedAccumulator(t *testing.T) {
	// Regression test: a naive unroller that only remaps the induction
	// variable leaves every cloned "s2 = add s, i" referencing the
	// original (never-executed) header PHI for s, instead of chaining to
	// the previous iteration's computed sum. With bound=3 the correct
	// unrolled sum is 0+1+2 = 3, computed across three dependent ADDs.
	f, preheader := buildCountingLoop(3)
	if !opt.UnrollLoops(f) {
		t.Fatal("UnrollLoops should report a change")
	}

	var adds []*ir.Instr
	for _, instr := range preheader.Instrs() {
		if instr.Op == ir.OpAdd {
			adds = append(adds, instr)
		}
	}
	// Two ADDs per iteration (accumulator + IV step) across 3 iterations.
	if len(adds) != 6 {
		t.Fatalf("preheader has %d ADDs, want 6 (2 per iteration x 3 iterations)", len(adds))
	}
	sAdds := []*ir.Instr{adds[0], adds[2], adds[4]}
	for i := 1; i < len(sAdds); i++ {
		prev, cur := sAdds[i-1], sAdds[i]
		if cur.Operands[0] != prev.Result {
			t.Errorf("iteration %d's accumulator add operand 0 = %+v, want iteration %d's result %+v",
				i, cur.Operands[0], i-1, prev.Result)
		}
	}
	// The IV operand of each accumulator add must be the constant for
	// that iteration (0, 1, 2), not a shared/ stale value.
	for i, add := range sAdds {
		want := int64(i)
		got := add.Operands[1]
		if got.Kind != ir.ValConstInt || got.ConstInt != want {
			t.Errorf("iteration %d's accumulator add operand 1 = %+v, want ConstInt %d", i, got, want)
		}
	}
}

func TestUnrollLoopsRewritesPostLoopUses(t *testing.T) {
	// The function returns sPhi.Result in exit; after unrolling that use
	// must be rewritten to the final iteration's computed value, not
	// left pointing at the original (now-unreachable) header PHI.
	f, preheader := buildCountingLoop(3)
	if !opt.UnrollLoops(f) {
		t.Fatal("UnrollLoops should report a change")
	}
	// Every iteration clones the accumulator add (s2 = s + i) followed by
	// the IV step add (i2 = i + 1); the accumulator is the first of each
	// pair, so the final iteration's accumulator sits at index len-2.
	var adds []*ir.Instr
	for _, instr := range preheader.Instrs() {
		if instr.Op == ir.OpAdd {
			adds = append(adds, instr)
		}
	}
	if len(adds) != 6 {
		t.Fatalf("preheader has %d ADDs, want 6", len(adds))
	}
	lastAccumulatorAdd := adds[len(adds)-2]
	exit := f.Blocks[len(f.Blocks)-1]
	ret := exit.Last()
	if ret.Op != ir.OpRet || ret.Operands[0] != lastAccumulatorAdd.Result {
		t.Errorf("exit RET operand = %+v, want the last iteration's accumulator ADD result %+v", ret.Operands[0], lastAccumulatorAdd.Result)
	}
}

func TestUnrollLoopsLeavesLargeTripCountAlone(t *testing.T) {
	f, preheader := buildCountingLoop(maxTripCountForTest + 1)
	if opt.UnrollLoops(f) {
		t.Fatal("UnrollLoops should not unroll a loop exceeding the trip-count budget")
	}
	term := preheader.Last()
	if term.Op != ir.OpBr || term.Succs[0].Name != "header" {
		t.Errorf("preheader terminator = %+v, want untouched BR to header", term)
	}
}

// maxTripCountForTest mirrors opt.maxTripCount (unexported); kept in
// sync manually since the budget constant isn't part of the package's
// public surface.
const maxTripCountForTest = 8

func TestOptimizeModuleSkipsDeclarations(t *testing.T) {
	reg := types.NewRegistry()
	m := ir.NewModule("m", reg)
	decl := ir.NewFunc("extern_fn", types.IntID, nil, false)
	m.AddFunc(decl)
	// OptimizeModule must not panic on a function with no blocks.
	opt.OptimizeModule(m)
	if !decl.IsDeclaration() {
		t.Fatal("declaration should remain a declaration")
	}
}
