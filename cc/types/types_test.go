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

package types_test

import (
	"testing"

	"github.com/db47h/mcc/cc/types"
)

func TestBasicSizes(t *testing.T) {
	r := types.NewRegistry()
	tests := []struct {
		id   types.ID
		want int
	}{
		{types.VoidID, 0},
		{types.BoolID, 1},
		{types.CharID, 1},
		{types.ShortID, 2},
		{types.IntID, 4},
		{types.LongID, 8},
		{types.LLongID, 8},
		{types.FloatID, 4},
		{types.DoubleID, 8},
		{types.LDoubleID, 8},
	}
	for _, tt := range tests {
		if got := r.SizeOf(tt.id); got != tt.want {
			t.Errorf("SizeOf(%v) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestIsIntegerIsFloating(t *testing.T) {
	r := types.NewRegistry()
	if !r.IsInteger(types.IntID) || r.IsFloating(types.IntID) {
		t.Error("IntID should be integer, not floating")
	}
	if !r.IsFloating(types.DoubleID) || r.IsInteger(types.DoubleID) {
		t.Error("DoubleID should be floating, not integer")
	}
	if !r.IsInteger(types.BoolID) {
		t.Error("BoolID should count as an integer type")
	}
}

func TestPointerSizeAndAlign(t *testing.T) {
	r := types.NewRegistry()
	p := r.NewPointer(types.IntID, 0)
	if got := r.SizeOf(p); got != 8 {
		t.Errorf("SizeOf(pointer) = %d, want 8", got)
	}
	if got := r.AlignOf(p); got != 8 {
		t.Errorf("AlignOf(pointer) = %d, want 8", got)
	}
	if r.At(p).Pointee != types.IntID {
		t.Errorf("Pointee = %v, want IntID", r.At(p).Pointee)
	}
}

func TestArraySize(t *testing.T) {
	r := types.NewRegistry()
	arr := r.NewArray(types.IntID, 10)
	if got := r.SizeOf(arr); got != 40 {
		t.Errorf("SizeOf(int[10]) = %d, want 40", got)
	}
}

func TestFlexibleArraySizeIsZero(t *testing.T) {
	r := types.NewRegistry()
	arr := r.NewArray(types.CharID, -1)
	if got := r.SizeOf(arr); got != 0 {
		t.Errorf("SizeOf(flexible array) = %d, want 0", got)
	}
	if !r.At(arr).Flexible {
		t.Error("NewArray(_, -1) should set Flexible")
	}
}

// TestStructLayout checks field padding/alignment: { char c; int i; }
// must pad the char out to int's alignment, and the struct size itself
// must round up to its own alignment (4), per spec.md §3's size/align
// computation invariant.
func TestStructLayout(t *testing.T) {
	r := types.NewRegistry()
	st := r.NewIncompleteAggregate(types.Struct, "s")
	if r.At(st).Complete {
		t.Error("freshly forward-declared aggregate should be incomplete")
	}
	r.CompleteAggregate(st, []types.Field{
		{Name: "c", Type: types.CharID},
		{Name: "i", Type: types.IntID},
	})
	if !r.At(st).Complete {
		t.Error("CompleteAggregate should mark the type complete")
	}
	if got := r.SizeOf(st); got != 8 {
		t.Errorf("SizeOf(struct{char;int}) = %d, want 8 (1 byte + 3 padding + 4)", got)
	}
	if got := r.AlignOf(st); got != 4 {
		t.Errorf("AlignOf(struct{char;int}) = %d, want 4", got)
	}
}

// TestForwardDeclarationObservesCompletion checks the in-place mutation
// invariant: an ID captured before completion must see the completed
// layout afterward, since spec.md §3 requires "earlier references see
// the completed layout" without any pointer-patching.
func TestForwardDeclarationObservesCompletion(t *testing.T) {
	r := types.NewRegistry()
	id := r.NewIncompleteAggregate(types.Struct, "node")
	ptrBefore := r.NewPointer(id, 0) // a reference taken before completion
	r.CompleteAggregate(id, []types.Field{{Name: "v", Type: types.IntID}})
	if !r.At(r.At(ptrBefore).Pointee).Complete {
		t.Error("pointer taken before completion should observe the completed aggregate")
	}
	if got := r.SizeOf(id); got != 4 {
		t.Errorf("SizeOf(completed struct) = %d, want 4", got)
	}
}

func TestUnionSizeIsMax(t *testing.T) {
	r := types.NewRegistry()
	u := r.NewIncompleteAggregate(types.Union, "u")
	r.CompleteAggregate(u, []types.Field{
		{Name: "c", Type: types.CharID},
		{Name: "d", Type: types.DoubleID},
	})
	if got := r.SizeOf(u); got != 8 {
		t.Errorf("SizeOf(union{char;double}) = %d, want 8", got)
	}
}

func TestFunctionType(t *testing.T) {
	r := types.NewRegistry()
	fn := r.NewFunction(types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	ft := r.At(fn)
	if ft.Kind != types.Function || ft.Return != types.IntID || len(ft.Params) != 1 {
		t.Errorf("NewFunction produced unexpected type: %+v", ft)
	}
}
