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

// ValueKind tags a Value's origin.
type ValueKind int

const (
	ValConstInt ValueKind = iota
	ValConstFloat
	ValConstNull
	ValConstString
	ValParam
	ValInstr // the result of an instruction
	ValGlobal
	ValFunction
)

// Value is a single SSA value: one of a handful of constant kinds, a
// function parameter, an instruction result, or a reference to a global
// symbol or function (spec.md §4.E "Value creation").
type Value struct {
	Kind ValueKind
	Type types.ID

	ConstInt    int64
	ConstFloat  float64
	ConstString string

	ParamIndex int
	ParamName  string

	Instr *Instr // set when Kind == ValInstr

	Global *Global
	Func   *Func
}

// ConstInt returns an integer constant. Constants are not interned: each
// call builds a fresh Value. Value.Equal compares constants by payload,
// while operand replacement (ReplaceOperand) matches values by pointer.
func ConstInt(ty types.ID, v int64) *Value {
	return &Value{Kind: ValConstInt, Type: ty, ConstInt: v}
}

// ConstFloat returns a floating-point constant value.
func ConstFloat(ty types.ID, v float64) *Value {
	return &Value{Kind: ValConstFloat, Type: ty, ConstFloat: v}
}

// ConstNull returns the null pointer constant of the given pointer type.
func ConstNull(ty types.ID) *Value {
	return &Value{Kind: ValConstNull, Type: ty}
}

// ConstString returns a string-literal constant value, later pooled by
// the backend's string table (spec.md §4.G "String literal pooling").
func ConstString(ty types.ID, s string) *Value {
	return &Value{Kind: ValConstString, Type: ty, ConstString: s}
}

// IsConst reports whether v is any constant kind, the precondition for
// constant folding and algebraic-identity matching.
func (v *Value) IsConst() bool {
	switch v.Kind {
	case ValConstInt, ValConstFloat, ValConstNull, ValConstString:
		return true
	}
	return false
}

// Equal reports whether two values denote the same SSA name (pointer
// identity for non-constants) or the same constant payload -- the
// relation the optimizer's "x op x" algebraic identities key on.
func (v *Value) Equal(o *Value) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil || v.Kind != o.Kind || v.Type != o.Type {
		return false
	}
	switch v.Kind {
	case ValConstInt:
		return v.ConstInt == o.ConstInt
	case ValConstFloat:
		return v.ConstFloat == o.ConstFloat
	case ValConstString:
		return v.ConstString == o.ConstString
	case ValConstNull:
		return true
	}
	return false
}
