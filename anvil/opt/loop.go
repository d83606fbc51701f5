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

const (
	maxTripCount = 8
	maxBodySize  = 32
)

// UnrollLoops scans f for the loop-header pattern of spec.md §4.F (a
// block whose first instruction is a PHI and whose terminator is a
// conditional branch) and fully unrolls every candidate whose trip
// count and body size fall within the stated bounds.
func UnrollLoops(f *ir.Func) bool {
	changed := false
	for _, header := range f.Blocks {
		if tryUnroll(f, header) {
			changed = true
		}
	}
	return changed
}

func tryUnroll(f *ir.Func, header *ir.Block) bool {
	iv := header.First()
	if iv == nil || iv.Op != ir.OpPhi || len(iv.Operands) != 2 || iv.Result == nil {
		return false
	}
	term := header.Last()
	if term == nil || term.Op != ir.OpCondBr || len(term.Succs) != 2 || len(term.Operands) != 1 {
		return false
	}

	preheader, latch, initVal, stepConst, ok := classifyIncoming(iv)
	if !ok {
		return false
	}
	if initVal.Kind != ir.ValConstInt {
		return false
	}

	trueSucc, falseSucc := term.Succs[0], term.Succs[1]
	var body *ir.Block
	var exit *ir.Block
	var continueOnTrue bool
	switch latch {
	case trueSucc:
		body, exit, continueOnTrue = trueSucc, falseSucc, true
	case falseSucc:
		body, exit, continueOnTrue = falseSucc, trueSucc, false
	default:
		return false
	}

	cond := term.Operands[0]
	if cond.Kind != ir.ValInstr || cond.Instr == nil {
		return false
	}
	bound, ivOnLeft, op, ok := icmpAgainstConst(cond.Instr, iv.Result)
	if !ok {
		return false
	}

	tripCount, ok := simulateTripCount(op, initVal.ConstInt, stepConst, bound, ivOnLeft, continueOnTrue)
	if !ok || tripCount == 0 || tripCount > maxTripCount {
		return false
	}

	bodyInstrs := nonTerminatorBody(body)
	if len(bodyInstrs) > maxBodySize {
		return false
	}

	unroll(f, preheader, header, body, exit, iv, initVal.ConstInt, stepConst, tripCount, bodyInstrs)
	return true
}

// classifyIncoming splits the IV PHI's two incoming pairs into
// preheader (the non-back-edge predecessor) and latch (the predecessor
// that branches unconditionally back to the header), returning the
// preheader's incoming value (initial value) and the step constant
// added in the latch's "iv = iv + step" incoming expression.
func classifyIncoming(iv *ir.Instr) (preheader, latch *ir.Block, initVal *ir.Value, step int64, ok bool) {
	preds := iv.PhiBlocks
	if len(preds) != 2 {
		return nil, nil, nil, 0, false
	}
	for i, pred := range preds {
		t := pred.Last()
		if t == nil || t.Op != ir.OpBr {
			continue
		}
		// The preheader also reaches header via a plain unconditional
		// BR, so a Br terminator alone doesn't identify the latch; only
		// a predecessor whose incoming value matches "iv = iv + step"
		// qualifies.
		if s, sok := stepFromAdd(iv.Operands[i], iv); sok {
			latch = pred
			step = s
		}
	}
	if latch == nil {
		return nil, nil, nil, 0, false
	}
	for i, pred := range preds {
		if pred != latch {
			preheader = pred
			initVal = iv.Operands[i]
		}
	}
	if preheader == nil {
		return nil, nil, nil, 0, false
	}
	return preheader, latch, initVal, step, true
}

// stepFromAdd recognizes the "next = add iv, const" pattern expected of
// a simple induction variable's step expression.
func stepFromAdd(v *ir.Value, iv *ir.Instr) (int64, bool) {
	if v.Kind != ir.ValInstr || v.Instr == nil || v.Instr.Op != ir.OpAdd || len(v.Instr.Operands) != 2 {
		return 0, false
	}
	a, b := v.Instr.Operands[0], v.Instr.Operands[1]
	if a.Equal(iv.Result) && b.Kind == ir.ValConstInt {
		return b.ConstInt, true
	}
	if b.Equal(iv.Result) && a.Kind == ir.ValConstInt {
		return a.ConstInt, true
	}
	return 0, false
}

// icmpAgainstConst recognizes a comparison between the IV and a
// constant bound, returning the bound, whether the IV was the left
// operand, and the comparison opcode.
func icmpAgainstConst(instr *ir.Instr, ivResult *ir.Value) (bound int64, ivOnLeft bool, op ir.Op, ok bool) {
	if len(instr.Operands) != 2 || !isICmp(instr.Op) {
		return 0, false, 0, false
	}
	a, b := instr.Operands[0], instr.Operands[1]
	if a.Equal(ivResult) && b.Kind == ir.ValConstInt {
		return b.ConstInt, true, instr.Op, true
	}
	if b.Equal(ivResult) && a.Kind == ir.ValConstInt {
		return a.ConstInt, false, instr.Op, true
	}
	return 0, false, 0, false
}

func isICmp(op ir.Op) bool {
	switch op {
	case ir.OpICmpEQ, ir.OpICmpNE, ir.OpICmpSLT, ir.OpICmpSLE, ir.OpICmpSGT, ir.OpICmpSGE,
		ir.OpICmpULT, ir.OpICmpULE, ir.OpICmpUGT, ir.OpICmpUGE:
		return true
	}
	return false
}

// simulateTripCount walks the induction variable forward from init in
// steps of step, evaluating the header's condition at each value, and
// counts how many times the loop body executes before the condition
// first selects the exit edge. It bails (ok=false) rather than guess
// when the walk exceeds the unrolling budget.
func simulateTripCount(op ir.Op, init, step, bound int64, ivOnLeft, continueOnTrue bool) (int, bool) {
	cur := init
	count := 0
	for i := 0; i <= maxTripCount; i++ {
		var lhs, rhs int64
		if ivOnLeft {
			lhs, rhs = cur, bound
		} else {
			lhs, rhs = bound, cur
		}
		condTrue := evalICmp(op, lhs, rhs)
		if condTrue != continueOnTrue {
			return count, true
		}
		count++
		if count > maxTripCount {
			return 0, false
		}
		cur += step
	}
	return 0, false
}

func evalICmp(op ir.Op, a, b int64) bool {
	switch op {
	case ir.OpICmpEQ:
		return a == b
	case ir.OpICmpNE:
		return a != b
	case ir.OpICmpSLT:
		return a < b
	case ir.OpICmpSLE:
		return a <= b
	case ir.OpICmpSGT:
		return a > b
	case ir.OpICmpSGE:
		return a >= b
	case ir.OpICmpULT:
		return uint64(a) < uint64(b)
	case ir.OpICmpULE:
		return uint64(a) <= uint64(b)
	case ir.OpICmpUGT:
		return uint64(a) > uint64(b)
	case ir.OpICmpUGE:
		return uint64(a) >= uint64(b)
	}
	return false
}

// nonTerminatorBody returns body's instructions excluding its
// terminator and any leading PHIs, the population that counts against
// the unrolling body-size budget.
func nonTerminatorBody(body *ir.Block) []*ir.Instr {
	var out []*ir.Instr
	for _, instr := range body.Instrs() {
		if instr.Op == ir.OpPhi || instr.Op.IsTerminator() {
			continue
		}
		out = append(out, instr)
	}
	return out
}

// carriedPhi records a header PHI other than the induction variable
// (spec.md §8 scenario 7's "s = s + iv" accumulator): its preheader
// (initial) incoming value and the value the latch feeds back each
// iteration.
type carriedPhi struct {
	init     *ir.Value
	latchVal *ir.Value
}

// collectCarriedPhis gathers header's leading PHI instructions other
// than iv, pairing each with its preheader-incoming and latch-incoming
// values so unroll can chain them across cloned iterations instead of
// leaving every clone referencing the original, never-executed header
// PHI.
func collectCarriedPhis(header *ir.Block, iv *ir.Instr, preheader, latch *ir.Block) map[*ir.Instr]carriedPhi {
	out := make(map[*ir.Instr]carriedPhi)
	for _, instr := range header.Instrs() {
		if instr.Op != ir.OpPhi {
			break
		}
		if instr == iv {
			continue
		}
		var info carriedPhi
		for i, pred := range instr.PhiBlocks {
			switch pred {
			case preheader:
				info.init = instr.Operands[i]
			case latch:
				info.latchVal = instr.Operands[i]
			}
		}
		if info.init != nil && info.latchVal != nil {
			out[instr] = info
		}
	}
	return out
}

// unroll clones body's non-terminator instructions into preheader once
// per iteration, with the IV and every other loop-carried PHI (see
// carriedPhi) substituted for their per-iteration values, then
// retargets preheader's branch straight to exit. Uses of the original
// header PHIs outside the loop are rewritten to the value computed by
// the final iteration, so that code following the loop observes the
// same result a non-unrolled execution would have produced.
func unroll(f *ir.Func, preheader, header, body, exit *ir.Block, iv *ir.Instr, init, step int64, tripCount int, bodyInstrs []*ir.Instr) {
	carried := collectCarriedPhis(header, iv, preheader, body)
	current := make(map[*ir.Instr]*ir.Value, len(carried))
	for phi, info := range carried {
		current[phi] = info.init
	}

	cur := init
	for n := 0; n < tripCount; n++ {
		remap := map[*ir.Value]*ir.Value{iv.Result: ir.ConstInt(iv.Result.Type, cur)}
		for phi := range carried {
			remap[phi.Result] = current[phi]
		}
		old := preheader.Last()
		for _, instr := range bodyInstrs {
			clone := cloneInstr(instr, remap)
			preheader.InsertBefore(old, clone)
			if instr.Result != nil {
				remap[instr.Result] = clone.Result
			}
		}
		for phi, info := range carried {
			if nv, ok := remap[info.latchVal]; ok {
				current[phi] = nv
			} else {
				current[phi] = info.latchVal
			}
		}
		cur += step
	}

	substitute(f, iv.Result, ir.ConstInt(iv.Result.Type, cur))
	for phi, final := range current {
		substitute(f, phi.Result, final)
	}

	term := preheader.Last()
	preheader.Remove(term)
	newTerm := &ir.Instr{Op: ir.OpBr}
	newTerm.SetSuccs(exit)
	preheader.Append(newTerm)
}

func cloneInstr(src *ir.Instr, remap map[*ir.Value]*ir.Value) *ir.Instr {
	clone := &ir.Instr{Op: src.Op}
	for _, v := range src.Operands {
		if rv, ok := remap[v]; ok {
			clone.AddOperand(rv)
		} else {
			clone.AddOperand(v)
		}
	}
	if src.Result != nil {
		clone.Result = &ir.Value{Kind: ir.ValInstr, Type: src.ResultType(), Instr: clone}
	}
	return clone
}
