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

// Package types implements the C type graph: basic, pointer, array,
// function, aggregate (struct/union) and enum types, with qualifier bits
// and lazy size/alignment (spec.md §3 "C type").
//
// Per Design Notes §9, types are held in an arena (Registry) and referred
// to by stable ID rather than by pointer, so that a forward-declared
// aggregate can be completed in place: every ID referring to it observes
// the completed definition without any pointer-patching.
package types

// Kind is the tag of the C type union.
type Kind int

const (
	Void Kind = iota
	Bool
	Char
	Short
	Int
	Long
	LLong
	Float
	Double
	LDouble
	Pointer
	Array
	Function
	Struct
	Union
	Enum
)

// Qualifier bits, combinable.
type Qualifier uint8

const (
	Const Qualifier = 1 << iota
	Volatile
	Restrict
)

// ID is a stable handle into a Registry's arena. References between
// types (pointee, element, field types, return/parameter types) are IDs,
// never Go pointers.
type ID int

// Field is one member of a struct/union: name, type and optional bitfield
// width (spec.md §3 "aggregate").
type Field struct {
	Name     string
	Type     ID
	BitWidth int // 0 = not a bitfield
}

// Param is one named function parameter.
type Param struct {
	Name string
	Type ID
}

// Type is one node of the type graph.
type Type struct {
	Kind      Kind
	Unsigned  bool
	Qual      Qualifier
	Pointee   ID // Pointer
	Elem      ID // Array
	ArrayLen  int64
	Flexible  bool // Array: flexible array member
	VLA       bool // Array: variable-length
	Return    ID   // Function
	Params    []Param
	Variadic  bool
	Tag       string // Struct/Union/Enum
	Fields    []Field
	Enumerators []string
	Complete  bool // Struct/Union/Enum: has a definition

	size, align int // memoized by Registry.SizeOf/AlignOf; 0 == not yet computed
}

// Registry is the arena of type nodes for one translation unit, per
// Design Notes §9 and spec.md §5 ("per-context allocators... discarded
// wholesale").
type Registry struct {
	nodes []Type
}

// NewRegistry creates an empty Registry pre-populated with the basic
// types, so that callers can refer to them by well-known IDs.
func NewRegistry() *Registry {
	r := &Registry{}
	r.basic(Void)
	r.basic(Bool)
	r.basic(Char)
	r.basic(Short)
	r.basic(Int)
	r.basic(Long)
	r.basic(LLong)
	r.basic(Float)
	r.basic(Double)
	r.basic(LDouble)
	return r
}

func (r *Registry) basic(k Kind) ID {
	id := ID(len(r.nodes))
	r.nodes = append(r.nodes, Type{Kind: k})
	return id
}

const (
	VoidID ID = iota
	BoolID
	CharID
	ShortID
	IntID
	LongID
	LLongID
	FloatID
	DoubleID
	LDoubleID
)

// At returns the type node for id. The returned pointer aliases the
// Registry's backing array and is only valid until the next New* call
// that may grow it; callers needing stability should copy the value.
func (r *Registry) At(id ID) *Type {
	return &r.nodes[id]
}

// New appends t to the arena and returns its stable ID.
func (r *Registry) New(t Type) ID {
	id := ID(len(r.nodes))
	r.nodes = append(r.nodes, t)
	return id
}

// NewIncompleteAggregate creates a forward-declared struct/union/enum:
// Complete is false until CompleteAggregate mutates the same node.
func (r *Registry) NewIncompleteAggregate(k Kind, tag string) ID {
	return r.New(Type{Kind: k, Tag: tag})
}

// CompleteAggregate fills in the fields (or enumerators) of a
// previously forward-declared aggregate in place, at the same ID, so
// that every earlier reference observes the completed layout -- this is
// the in-place mutation spec.md §3 requires ("later definitions mutate
// the same type node... so that earlier references see the completed
// layout"), realized here as a slice-index write rather than a pointer
// write.
func (r *Registry) CompleteAggregate(id ID, fields []Field) {
	t := &r.nodes[id]
	t.Fields = fields
	t.Complete = true
	t.size, t.align = 0, 0
}

// CompleteEnum fills in a forward-declared enum's constant list in place.
func (r *Registry) CompleteEnum(id ID, enumerators []string) {
	t := &r.nodes[id]
	t.Enumerators = enumerators
	t.Complete = true
}

// NewPointer returns the ID of "pointer to pointee" with the given
// qualifiers on the pointer itself.
func (r *Registry) NewPointer(pointee ID, qual Qualifier) ID {
	return r.New(Type{Kind: Pointer, Pointee: pointee, Qual: qual})
}

// NewArray returns the ID of an array of elem, with length n (n < 0 for
// an incomplete/flexible array).
func (r *Registry) NewArray(elem ID, n int64) ID {
	t := Type{Kind: Array, Elem: elem}
	if n < 0 {
		t.Flexible = true
	} else {
		t.ArrayLen = n
	}
	return r.New(t)
}

// NewFunction returns the ID of a function type.
func (r *Registry) NewFunction(ret ID, params []Param, variadic bool) ID {
	return r.New(Type{Kind: Function, Return: ret, Params: params, Variadic: variadic})
}

// SizeOf returns the size in bytes of id, computing and memoizing it on
// first use ("lazily or at construction", per spec.md §3).
func (r *Registry) SizeOf(id ID) int {
	t := &r.nodes[id]
	if t.size != 0 || t.Kind == Void {
		return t.size
	}
	t.size = r.computeSize(id)
	return t.size
}

// AlignOf returns the alignment in bytes of id.
func (r *Registry) AlignOf(id ID) int {
	t := &r.nodes[id]
	if t.align != 0 {
		return t.align
	}
	t.align = r.computeAlign(id)
	return t.align
}

func (r *Registry) computeSize(id ID) int {
	t := &r.nodes[id]
	switch t.Kind {
	case Void:
		return 0
	case Bool, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	case LLong, LDouble:
		return 8
	case Pointer, Function:
		return 8
	case Array:
		if t.Flexible || t.VLA {
			return 0
		}
		return int(t.ArrayLen) * r.SizeOf(t.Elem)
	case Struct:
		size := 0
		for _, f := range t.Fields {
			a := r.AlignOf(f.Type)
			size = align(size, a)
			size += r.SizeOf(f.Type)
		}
		return align(size, r.AlignOf(id))
	case Union:
		size := 0
		for _, f := range t.Fields {
			if s := r.SizeOf(f.Type); s > size {
				size = s
			}
		}
		return align(size, r.AlignOf(id))
	case Enum:
		return 4
	}
	return 0
}

func (r *Registry) computeAlign(id ID) int {
	t := &r.nodes[id]
	switch t.Kind {
	case Struct, Union:
		a := 1
		for _, f := range t.Fields {
			if fa := r.AlignOf(f.Type); fa > a {
				a = fa
			}
		}
		return a
	case Array:
		return r.AlignOf(t.Elem)
	default:
		s := r.computeSize(id)
		if s == 0 {
			return 1
		}
		return s
	}
}

func align(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}

// IsInteger reports whether id names an integer type (including bool).
func (r *Registry) IsInteger(id ID) bool {
	switch r.nodes[id].Kind {
	case Bool, Char, Short, Int, Long, LLong, Enum:
		return true
	}
	return false
}

// IsFloating reports whether id names a floating type.
func (r *Registry) IsFloating(id ID) bool {
	switch r.nodes[id].Kind {
	case Float, Double, LDouble:
		return true
	}
	return false
}
