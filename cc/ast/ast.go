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

// Package ast implements the typed AST node model: a tagged union over
// the ~50 declaration/statement/expression kinds of spec.md §3, modeled
// as a flat Kind enum plus kind-specific fields rather than an interface
// hierarchy, following the flat-opcode-enum idiom the teacher uses
// throughout vm/opcodes.go instead of polymorphic dispatch.
package ast

import (
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/token"
)

// Kind tags every Node.
type Kind int

const (
	// Top level
	TranslationUnit Kind = iota

	// Declarations
	DeclFunction
	DeclVariable
	DeclTypedef
	DeclStruct
	DeclUnion
	DeclEnum
	DeclEnumerator
	DeclField
	DeclParameter

	// Statements
	StmtCompound
	StmtExpr
	StmtIf
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtSwitch
	StmtCase
	StmtDefault
	StmtBreak
	StmtContinue
	StmtReturn
	StmtGoto
	StmtLabel
	StmtNull

	// Expressions
	ExprIntLit
	ExprFloatLit
	ExprCharLit
	ExprStringLit
	ExprIdent
	ExprBinary
	ExprUnary
	ExprPostfix
	ExprTernary
	ExprCall
	ExprSubscript
	ExprMember
	ExprCast
	ExprSizeof
	ExprAlignof
	ExprCompoundLiteral
	ExprInitList
	ExprDesignatedInit
	ExprComma
	ExprGenericSelection
	ExprStatementExpr
	ExprLabelAddress
	ExprNullPointer
)

// Node is a single AST node: a tagged union realized as one struct with
// kind-specific fields left zero-valued when unused. Every node carries a
// source location; expressions additionally carry an optional resolved
// Type once the parser/checker has settled it.
type Node struct {
	Kind Kind
	Pos  token.Position
	Type types.ID // expressions only; zero value types.VoidID means unset

	// Shared / declaration fields
	Name     string
	Decls    []*Node // TranslationUnit, StmtCompound
	Init     *Node   // DeclVariable initializer, StmtFor init, ExprBinary RHS helper
	DeclType types.ID

	// Function
	Params []*Node // DeclParameter children
	Body   *Node   // StmtCompound

	// Struct/Union/Enum
	Fields      []*Node // DeclField / DeclEnumerator children
	BitWidth    *Node   // DeclField: optional bitfield width expression
	EnumValue   *Node   // DeclEnumerator: optional explicit value

	// Statements
	Cond    *Node // If/While/DoWhile/For/Switch/Ternary condition
	Then    *Node // If/Ternary
	Else    *Node // If/Ternary
	Stmt    *Node // While/DoWhile/For/Label body, loop body
	Post    *Node // For post-expression
	Label   string
	Value   *Node // Return expr, Case expr, goto target expr (label-address)
	CaseLo  *Node // StmtCase: range lower bound (GNU case ranges)
	CaseHi  *Node // StmtCase: range upper bound, nil for a single value

	// Expressions
	Op       string // binary/unary/postfix operator spelling
	Lhs      *Node
	Rhs      *Node
	Operand  *Node // unary/postfix/cast/sizeof/alignof operand
	Callee   *Node
	Args     []*Node
	Index    *Node // subscript index
	Member   string
	Arrow    bool // "->" vs "."
	TypeName types.ID // cast/sizeof(type)/alignof(type)/compound literal
	Elems    []*Node  // init list / generic selection associations / comma list
	Designators []*Node // designated init path (index or member accessors)

	IntVal    int64
	FloatVal  float64
	StrVal    string
	Unsigned  bool
}
