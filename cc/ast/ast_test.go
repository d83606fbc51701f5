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

package ast_test

import (
	"testing"

	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/token"
)

// TestNodeIsPlainValue checks the flat-struct tagged-union shape: a Node
// is usable by value with kind-specific fields simply left zero, no
// interface assertions required to inspect it.
func TestNodeIsPlainValue(t *testing.T) {
	n := &ast.Node{
		Kind: ast.ExprBinary,
		Pos:  token.Position{Filename: "t.c", Line: 1, Column: 1},
		Op:   "+",
		Lhs:  &ast.Node{Kind: ast.ExprIntLit, IntVal: 1},
		Rhs:  &ast.Node{Kind: ast.ExprIntLit, IntVal: 2},
	}
	if n.Kind != ast.ExprBinary {
		t.Fatalf("Kind = %v, want ExprBinary", n.Kind)
	}
	if n.Lhs.IntVal != 1 || n.Rhs.IntVal != 2 {
		t.Errorf("operands not preserved: %+v", n)
	}
	if n.Body != nil || n.Cond != nil {
		t.Error("unused fields should remain zero-valued")
	}
}

func TestDeclFunctionShape(t *testing.T) {
	param := &ast.Node{Kind: ast.DeclParameter, Name: "x", DeclType: types.IntID}
	body := &ast.Node{Kind: ast.StmtCompound}
	fn := &ast.Node{
		Kind:     ast.DeclFunction,
		Name:     "f",
		Params:   []*ast.Node{param},
		Body:     body,
		DeclType: types.IntID,
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "x" {
		t.Errorf("Params not preserved: %+v", fn.Params)
	}
	if fn.Body.Kind != ast.StmtCompound {
		t.Errorf("Body.Kind = %v, want StmtCompound", fn.Body.Kind)
	}
}

func TestStmtIfShape(t *testing.T) {
	n := &ast.Node{
		Kind: ast.StmtIf,
		Cond: &ast.Node{Kind: ast.ExprIdent, Name: "c"},
		Then: &ast.Node{Kind: ast.StmtNull},
		Else: &ast.Node{Kind: ast.StmtNull},
	}
	if n.Cond == nil || n.Then == nil || n.Else == nil {
		t.Errorf("If fields not preserved: %+v", n)
	}
}

// TestKindValuesAreDistinct catches an accidental duplicate iota entry,
// which would silently alias two unrelated node kinds.
func TestKindValuesAreDistinct(t *testing.T) {
	kinds := []ast.Kind{
		ast.TranslationUnit, ast.DeclFunction, ast.DeclVariable, ast.DeclTypedef,
		ast.StmtCompound, ast.StmtIf, ast.StmtWhile, ast.StmtFor, ast.StmtReturn,
		ast.ExprIntLit, ast.ExprBinary, ast.ExprUnary, ast.ExprCall, ast.ExprCast,
	}
	seen := make(map[ast.Kind]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			t.Fatalf("duplicate Kind value: %v", k)
		}
		seen[k] = true
	}
}
