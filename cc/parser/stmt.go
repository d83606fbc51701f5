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

package parser

import (
	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/token"
)

// parseCompoundStmt parses "{ block-item* }", opening and closing a
// typedef scope so declarations inside the block don't leak out
// (spec.md §4.D "Typedef handling").
func (p *Parser) parseCompoundStmt() *ast.Node {
	pos := p.tok.Pos
	p.expect("{")
	p.typedefs.push()
	n := &ast.Node{Kind: ast.StmtCompound, Pos: pos}
	for !p.at("}") && p.tok.Kind != token.EOF {
		before := p.tok
		n.Decls = append(n.Decls, p.parseBlockItem()...)
		if p.panic {
			p.synchronize()
		} else if p.tok == before {
			p.advance()
		}
	}
	p.typedefs.pop()
	p.expect("}")
	return n
}

// parseBlockItem parses one block-item: a declaration (possibly
// multi-name) or a single statement. Per spec.md §4.D's three-way
// identifier classification, an identifier lookahead is resolved by
// asking whether it currently names a typedef (declaration) or not
// (expression-statement, most commonly a label when followed by ':').
func (p *Parser) parseBlockItem() []*ast.Node {
	if p.startsDeclSpec() {
		return p.parseLocalDecl()
	}
	return []*ast.Node{p.parseStatement()}
}

// parseLocalDecl parses a block-scope declaration, mirroring
// parseExternalDecl but returning ast statement-shaped declaration
// nodes, since a DeclVariable can appear directly inside StmtCompound.Decls.
func (p *Parser) parseLocalDecl() []*ast.Node {
	spec := p.parseDeclSpecs()
	if p.accept(";") {
		return nil
	}
	pos := p.tok.Pos
	name, ty := p.parseDeclarator(spec.base)
	if spec.storage == "typedef" {
		p.typedefs.declare(name, ty)
		decls := []*ast.Node{{Kind: ast.DeclTypedef, Pos: pos, Name: name, DeclType: ty}}
		for p.accept(",") {
			n2, t2 := p.parseDeclarator(spec.base)
			p.typedefs.declare(n2, t2)
			decls = append(decls, &ast.Node{Kind: ast.DeclTypedef, Pos: p.tok.Pos, Name: n2, DeclType: t2})
		}
		p.expect(";")
		return decls
	}
	p.typedefs.shadow(name)
	first := &ast.Node{Kind: ast.DeclVariable, Pos: pos, Name: name, DeclType: ty}
	if p.accept("=") {
		first.Init = p.parseInitializer()
	}
	decls := []*ast.Node{first}
	for p.accept(",") {
		n2, t2 := p.parseDeclarator(spec.base)
		p.typedefs.shadow(n2)
		d2 := &ast.Node{Kind: ast.DeclVariable, Pos: p.tok.Pos, Name: n2, DeclType: t2}
		if p.accept("=") {
			d2.Init = p.parseInitializer()
		}
		decls = append(decls, d2)
	}
	p.expect(";")
	return decls
}

// parseStatement dispatches on the lookahead to one of the statement
// productions of spec.md §4.D.
func (p *Parser) parseStatement() *ast.Node {
	pos := p.tok.Pos
	switch {
	case p.at("{"):
		return p.parseCompoundStmt()
	case p.accept(";"):
		return &ast.Node{Kind: ast.StmtNull, Pos: pos}
	case p.acceptKW("if"):
		p.expect("(")
		cond := p.ParseExpr()
		p.expect(")")
		then := p.parseStatement()
		n := &ast.Node{Kind: ast.StmtIf, Pos: pos, Cond: cond, Then: then}
		if p.acceptKW("else") {
			n.Else = p.parseStatement()
		}
		return n
	case p.acceptKW("while"):
		p.expect("(")
		cond := p.ParseExpr()
		p.expect(")")
		body := p.parseStatement()
		return &ast.Node{Kind: ast.StmtWhile, Pos: pos, Cond: cond, Stmt: body}
	case p.acceptKW("do"):
		body := p.parseStatement()
		if !p.acceptKW("while") {
			p.error(p.tok.Pos, "expected 'while' after do-statement body")
		}
		p.expect("(")
		cond := p.ParseExpr()
		p.expect(")")
		p.expect(";")
		return &ast.Node{Kind: ast.StmtDoWhile, Pos: pos, Cond: cond, Stmt: body}
	case p.acceptKW("for"):
		return p.parseFor(pos)
	case p.acceptKW("switch"):
		p.expect("(")
		cond := p.ParseExpr()
		p.expect(")")
		body := p.parseStatement()
		return &ast.Node{Kind: ast.StmtSwitch, Pos: pos, Cond: cond, Stmt: body}
	case p.acceptKW("case"):
		lo := p.parseAssignment()
		n := &ast.Node{Kind: ast.StmtCase, Pos: pos, CaseLo: lo}
		if p.accept("...") { // GNU case-range extension
			n.CaseHi = p.parseAssignment()
		}
		p.expect(":")
		n.Stmt = p.parseStatement()
		return n
	case p.acceptKW("default"):
		p.expect(":")
		return &ast.Node{Kind: ast.StmtDefault, Pos: pos, Stmt: p.parseStatement()}
	case p.acceptKW("break"):
		p.expect(";")
		return &ast.Node{Kind: ast.StmtBreak, Pos: pos}
	case p.acceptKW("continue"):
		p.expect(";")
		return &ast.Node{Kind: ast.StmtContinue, Pos: pos}
	case p.acceptKW("return"):
		n := &ast.Node{Kind: ast.StmtReturn, Pos: pos}
		if !p.at(";") {
			n.Value = p.ParseExpr()
		}
		p.expect(";")
		return n
	case p.acceptKW("goto"):
		name, _ := p.expectIdent()
		p.expect(";")
		return &ast.Node{Kind: ast.StmtGoto, Pos: pos, Label: name}
	default:
		// identifier ':' is a label; anything else is an expression
		// statement. This is the third leg of the declaration / label /
		// expression classification (spec.md §4.D): reached only once
		// startsDeclSpec() has already ruled out a declaration.
		if p.tok.Kind == token.Ident && p.peek2().Is(":") {
			name := p.tok.Text
			p.advance()
			p.advance() // ':'
			return &ast.Node{Kind: ast.StmtLabel, Pos: pos, Label: name, Stmt: p.parseStatement()}
		}
		e := p.ParseExpr()
		p.expect(";")
		return &ast.Node{Kind: ast.StmtExpr, Pos: pos, Value: e}
	}
}

// parseFor parses the three classic for-loop clause flavors, including
// the C99 declaration-in-init-clause form.
func (p *Parser) parseFor(pos token.Position) *ast.Node {
	p.expect("(")
	n := &ast.Node{Kind: ast.StmtFor, Pos: pos}
	p.typedefs.push()
	if !p.at(";") {
		if p.startsDeclSpec() {
			decls := p.parseLocalDecl()
			n.Init = &ast.Node{Kind: ast.StmtCompound, Pos: pos, Decls: decls}
		} else {
			e := p.ParseExpr()
			p.expect(";")
			n.Init = &ast.Node{Kind: ast.StmtExpr, Pos: pos, Value: e}
		}
	} else {
		p.expect(";")
	}
	if !p.at(";") {
		n.Cond = p.ParseExpr()
	}
	p.expect(";")
	if !p.at(")") {
		n.Post = p.ParseExpr()
	}
	p.expect(")")
	n.Stmt = p.parseStatement()
	p.typedefs.pop()
	return n
}
