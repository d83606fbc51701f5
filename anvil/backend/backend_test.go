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

package backend_test

import (
	"testing"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

func TestPlanStackFrameOffsetsAndSize(t *testing.T) {
	reg := types.NewRegistry()
	ptrChar := reg.NewPointer(types.CharID, 0)
	ptrInt := reg.NewPointer(types.IntID, 0)

	f := ir.NewFunc("f", types.VoidID, nil, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	a1 := b.Alloca(types.CharID, ptrChar)
	a2 := b.Alloca(types.IntID, ptrInt)
	b.Ret(nil)

	sf := backend.PlanStackFrame(f, reg, 16, 0)
	if sf.Offsets[a1.Instr] != 0 {
		t.Errorf("first alloca offset = %d, want 0", sf.Offsets[a1.Instr])
	}
	// a char at offset 0 then an int (align 4) must pad to offset 4.
	if sf.Offsets[a2.Instr] != 4 {
		t.Errorf("second alloca offset = %d, want 4 (aligned past the char)", sf.Offsets[a2.Instr])
	}
	if sf.Size != 16 {
		t.Errorf("frame size = %d, want 16 (8 bytes rounded up to a 16-byte align)", sf.Size)
	}
	if f.StackSize != sf.Size {
		t.Errorf("f.StackSize = %d, want it to mirror sf.Size (%d)", f.StackSize, sf.Size)
	}
}

func TestPlanStackFrameReserve(t *testing.T) {
	reg := types.NewRegistry()
	ptrInt := reg.NewPointer(types.IntID, 0)
	f := ir.NewFunc("f", types.VoidID, nil, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	b.Alloca(types.IntID, ptrInt)
	b.Ret(nil)

	sf := backend.PlanStackFrame(f, reg, 16, 32)
	if sf.Size != 48 {
		t.Errorf("frame size = %d, want 48 (16-byte aligned body + 32-byte linkage reserve)", sf.Size)
	}
}

func TestStatsAccumulateAndReset(t *testing.T) {
	s := backend.NewStats()
	s.Add("f", 3)
	s.Add("f", 2)
	s.Add("g", 10)
	if s.Count("f") != 5 {
		t.Errorf("Count(f) = %d, want 5", s.Count("f"))
	}
	if s.Total() != 15 {
		t.Errorf("Total() = %d, want 15", s.Total())
	}
	s.Reset()
	if s.Total() != 0 || s.Count("f") != 0 {
		t.Error("Reset should clear all counts")
	}
}

func TestStringPoolDedup(t *testing.T) {
	p := backend.NewStringPool(".LC")
	l1 := p.Label("hello")
	l2 := p.Label("world")
	l3 := p.Label("hello")
	if l1 != l3 {
		t.Errorf("Label(hello) = %q then %q, want the same label both times", l1, l3)
	}
	if l1 == l2 {
		t.Errorf("distinct strings got the same label %q", l1)
	}
	entries := p.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() has %d entries, want 2 (deduplicated)", len(entries))
	}
	if entries[0].Value != "hello" || entries[1].Value != "world" {
		t.Errorf("Entries() = %+v, want first-seen order [hello, world]", entries)
	}
}

func TestStringPoolReset(t *testing.T) {
	p := backend.NewStringPool(".LC")
	a := p.Label("x")
	p.Reset()
	b := p.Label("x")
	if a != b {
		t.Errorf("label after Reset = %q, want the sequence to restart at %q", b, a)
	}
}

func TestEscapeC(t *testing.T) {
	tests := []struct{ in, want string }{
		{"abc", "abc"},
		{"a\"b", `a\"b`},
		{"a\\b", `a\\b`},
		{"a\nb", `a\nb`},
		{"a\tb", `a\tb`},
	}
	for _, tt := range tests {
		if got := backend.EscapeC(tt.in); got != tt.want {
			t.Errorf("EscapeC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
