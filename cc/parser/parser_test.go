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

package parser_test

import (
	"bytes"
	"testing"

	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/parser"
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/cpp"
	"github.com/db47h/mcc/diag"
)

type memOpener map[string]string

func (m memOpener) Open(name string) ([]byte, string, error) {
	return []byte(m[name]), ".", nil
}

// parse runs the full cpp -> parser pipeline on src, the same wiring
// cmd/mccc uses, and returns the translation unit and error counts.
func parse(t *testing.T, src string, std cpp.Std) (*ast.Node, *diag.StderrSink, *parser.Parser) {
	t.Helper()
	sink := diag.NewStderrSink(&bytes.Buffer{})
	pp := cpp.New(memOpener{"t.c": src}, sink, cpp.WithStd(std))
	if err := pp.Open("t.c"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	reg := types.NewRegistry()
	feat := parser.NewFeatureSet(std)
	ps := parser.New(pp, sink, reg, feat)
	tu := ps.ParseTranslationUnit()
	return tu, sink, ps
}

func TestParseSimpleFunction(t *testing.T) {
	tu, sink, ps := parse(t, "int main(void) { return 0; }\n", cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors: sink=%d parser=%d", sink.ErrorCount(), ps.ErrorCount())
	}
	if len(tu.Decls) != 1 {
		t.Fatalf("want 1 top-level decl, got %d", len(tu.Decls))
	}
	fn := tu.Decls[0]
	if fn.Kind != ast.DeclFunction || fn.Name != "main" {
		t.Fatalf("decl = %+v, want DeclFunction main", fn)
	}
	if fn.Body == nil || fn.Body.Kind != ast.StmtCompound {
		t.Fatalf("Body = %+v, want StmtCompound", fn.Body)
	}
	if len(fn.Body.Decls) != 1 || fn.Body.Decls[0].Kind != ast.StmtReturn {
		t.Fatalf("body stmts = %+v, want single StmtReturn", fn.Body.Decls)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	tu, sink, ps := parse(t, "int f(void) { return 1 + 2 * 3; }\n", cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors")
	}
	ret := tu.Decls[0].Body.Decls[0]
	add := ret.Value
	if add.Kind != ast.ExprBinary || add.Op != "+" {
		t.Fatalf("top expr = %+v, want '+' at the root (lower precedence binds last)", add)
	}
	if add.Rhs.Kind != ast.ExprBinary || add.Rhs.Op != "*" {
		t.Fatalf("rhs = %+v, want '*' nested under '+'", add.Rhs)
	}
}

func TestParseVariableDeclaration(t *testing.T) {
	tu, sink, ps := parse(t, "int x = 42;\n", cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors")
	}
	if len(tu.Decls) != 1 || tu.Decls[0].Kind != ast.DeclVariable {
		t.Fatalf("decls = %+v, want single DeclVariable", tu.Decls)
	}
	v := tu.Decls[0]
	if v.Name != "x" || v.DeclType != types.IntID {
		t.Fatalf("var = %+v, want x:int", v)
	}
	if v.Init == nil || v.Init.IntVal != 42 {
		t.Fatalf("Init = %+v, want literal 42", v.Init)
	}
}

func TestTypedefDisambiguation(t *testing.T) {
	src := "typedef int myint;\nmyint x;\n"
	tu, sink, ps := parse(t, src, cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors: sink=%d parser=%d", sink.ErrorCount(), ps.ErrorCount())
	}
	if len(tu.Decls) != 2 {
		t.Fatalf("want 2 decls (typedef + var), got %d: %+v", len(tu.Decls), tu.Decls)
	}
	if tu.Decls[1].Kind != ast.DeclVariable || tu.Decls[1].Name != "x" {
		t.Fatalf("second decl = %+v, want DeclVariable x recognized via the typedef name", tu.Decls[1])
	}
}

// TestBoolFeatureGating checks the FeatureSet predicates: _Bool is only
// available from C99 on, and _Static_assert/_Generic only from C11.
func TestBoolFeatureGating(t *testing.T) {
	feat89 := parser.NewFeatureSet(cpp.StdC89)
	feat11 := parser.NewFeatureSet(cpp.StdC11)
	if feat89.HasBool() {
		t.Error("C89 FeatureSet should not have _Bool")
	}
	if !feat11.HasBool() {
		t.Error("C11 FeatureSet should have _Bool")
	}
	if feat89.HasStaticAssert() || feat89.HasGeneric() {
		t.Error("C89 FeatureSet should not have C11 features")
	}
}

func TestPanicModeRecoversAtNextStatement(t *testing.T) {
	src := "int f(void) { @@@ ; return 1; }\n"
	tu, _, ps := parse(t, src, cpp.StdC11)
	if ps.ErrorCount() == 0 {
		t.Fatal("expected at least one parse error from the malformed statement")
	}
	fn := tu.Decls[0]
	if fn.Kind != ast.DeclFunction {
		t.Fatalf("expected recovery to still produce the function decl, got %+v", fn)
	}
}

func TestIfElseStatement(t *testing.T) {
	src := "int f(int c) { if (c) return 1; else return 2; }\n"
	tu, sink, ps := parse(t, src, cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors")
	}
	stmt := tu.Decls[0].Body.Decls[0]
	if stmt.Kind != ast.StmtIf {
		t.Fatalf("stmt = %+v, want StmtIf", stmt)
	}
	if stmt.Then == nil || stmt.Else == nil {
		t.Fatalf("If = %+v, want both Then and Else", stmt)
	}
}

func TestForLoopStatement(t *testing.T) {
	src := "int f(void) { int i; for (i = 0; i < 10; i = i + 1) ; return i; }\n"
	tu, sink, ps := parse(t, src, cpp.StdC11)
	if sink.ErrorCount() != 0 || ps.ErrorCount() != 0 {
		t.Fatalf("unexpected parse errors")
	}
	body := tu.Decls[0].Body.Decls
	var forStmt *ast.Node
	for _, s := range body {
		if s.Kind == ast.StmtFor {
			forStmt = s
		}
	}
	if forStmt == nil {
		t.Fatalf("no StmtFor found in %+v", body)
	}
	if forStmt.Cond == nil || forStmt.Post == nil {
		t.Fatalf("For = %+v, want Cond and Post set", forStmt)
	}
}
