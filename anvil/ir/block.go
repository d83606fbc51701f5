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

// Block is one basic block: an intrusive doubly-linked list of
// instructions headed by any leading PHIs and ending, once complete, in
// exactly one terminator (spec.md §4.E "Block/function invariants").
type Block struct {
	Name string
	Func *Func

	first, last *Instr
	count       int

	preds []*Block
}

// NewBlock creates an empty, unattached block named name.
func NewBlock(name string) *Block {
	return &Block{Name: name}
}

// Append adds instr to the end of the block's instruction list. It is a
// caller error to append after a terminator has already been placed;
// callers that must maintain the "no instruction follows a terminator"
// invariant check Terminator() first.
func (b *Block) Append(instr *Instr) {
	instr.block = b
	if b.last == nil {
		b.first, b.last = instr, instr
	} else {
		instr.prev = b.last
		b.last.next = instr
		b.last = instr
	}
	b.count++
	if instr.Op.IsTerminator() {
		for _, s := range instr.Succs {
			s.addPred(b)
		}
	}
}

// InsertBefore splices instr into the block immediately before mark,
// used by the loop unroller to clone a body into the preheader ahead
// of its existing terminator.
func (b *Block) InsertBefore(mark, instr *Instr) {
	instr.block = b
	prev := mark.prev
	instr.prev = prev
	instr.next = mark
	mark.prev = instr
	if prev != nil {
		prev.next = instr
	} else {
		b.first = instr
	}
	b.count++
}

func (b *Block) addPred(p *Block) {
	for _, e := range b.preds {
		if e == p {
			return
		}
	}
	b.preds = append(b.preds, p)
}

// Preds returns the blocks with a terminator branching into b.
func (b *Block) Preds() []*Block { return b.preds }

// First returns the first instruction in the block, or nil if empty.
func (b *Block) First() *Instr { return b.first }

// Last returns the last instruction in the block (the terminator, once
// the block is complete), or nil if empty.
func (b *Block) Last() *Instr { return b.last }

// Terminator reports whether the block already ends in a terminator.
func (b *Block) Terminator() bool { return b.last != nil && b.last.Op.IsTerminator() }

// Len returns the number of instructions in the block.
func (b *Block) Len() int { return b.count }

// Instrs returns the block's instructions in order, as a slice, for
// callers (the optimizer, the backend) that want random access or
// mutation-safe iteration rather than walking the intrusive list.
func (b *Block) Instrs() []*Instr {
	out := make([]*Instr, 0, b.count)
	for i := b.first; i != nil; i = i.next {
		out = append(out, i)
	}
	return out
}

// Remove unlinks instr from the block, replacing its position with
// nothing (used to splice out a NOP left behind by constant folding is
// NOT done this way -- folded instructions stay in place as OpNop so
// operand-substitution bookkeeping elsewhere doesn't have to track
// removal; Remove exists for passes, like loop unrolling's preheader
// retargeting, that truly delete an instruction).
func (b *Block) Remove(instr *Instr) {
	if instr.prev != nil {
		instr.prev.next = instr.next
	} else {
		b.first = instr.next
	}
	if instr.next != nil {
		instr.next.prev = instr.prev
	} else {
		b.last = instr.prev
	}
	instr.prev, instr.next = nil, nil
	b.count--
}
