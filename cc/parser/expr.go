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
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/token"
)

// ParseExpr parses a full comma expression, the top production of
// spec.md §4.D's 14-level precedence table.
func (p *Parser) ParseExpr() *ast.Node {
	e := p.parseAssignment()
	if !p.at(",") {
		return e
	}
	n := &ast.Node{Kind: ast.ExprComma, Pos: e.Pos, Elems: []*ast.Node{e}}
	for p.accept(",") {
		n.Elems = append(n.Elems, p.parseAssignment())
	}
	return n
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "^=": true, "|=": true,
}

// parseAssignment implements the right-associative assignment-expression
// level: a ternary parses on the left, and if the lookahead is an
// assignment operator the right side recurses into another assignment
// (spec.md §4.D level 2).
func (p *Parser) parseAssignment() *ast.Node {
	lhs := p.parseTernary()
	if p.tok.Kind == token.Punct && assignOps[p.tok.Text] {
		op := p.tok.Text
		pos := p.tok.Pos
		p.advance()
		rhs := p.parseAssignment()
		return &ast.Node{Kind: ast.ExprBinary, Pos: pos, Op: op, Lhs: lhs, Rhs: rhs}
	}
	return lhs
}

// parseTernary implements "cond ? then : else", right-associative on the
// else branch (spec.md §4.D level 3).
func (p *Parser) parseTernary() *ast.Node {
	cond := p.parseLogicalOr()
	if !p.accept("?") {
		return cond
	}
	then := p.ParseExpr()
	p.expect(":")
	els := p.parseAssignment()
	return &ast.Node{Kind: ast.ExprTernary, Pos: cond.Pos, Cond: cond, Then: then, Else: els}
}

// Each parse* function below is one row of the left-associative
// binary-operator precedence table (spec.md §4.D levels 4-12): the
// operator spellings recognized at this level and the next-tighter level
// to descend into are threaded through parseBinLevel.
func (p *Parser) parseLogicalOr() *ast.Node  { return p.parseBinLevel([]string{"||"}, (*Parser).parseLogicalAnd) }
func (p *Parser) parseLogicalAnd() *ast.Node { return p.parseBinLevel([]string{"&&"}, (*Parser).parseBitOr) }
func (p *Parser) parseBitOr() *ast.Node      { return p.parseBinLevel([]string{"|"}, (*Parser).parseBitXor) }
func (p *Parser) parseBitXor() *ast.Node     { return p.parseBinLevel([]string{"^"}, (*Parser).parseBitAnd) }
func (p *Parser) parseBitAnd() *ast.Node     { return p.parseBinLevel([]string{"&"}, (*Parser).parseEquality) }
func (p *Parser) parseEquality() *ast.Node {
	return p.parseBinLevel([]string{"==", "!="}, (*Parser).parseRelational)
}
func (p *Parser) parseRelational() *ast.Node {
	return p.parseBinLevel([]string{"<", ">", "<=", ">="}, (*Parser).parseShift)
}
func (p *Parser) parseShift() *ast.Node {
	return p.parseBinLevel([]string{"<<", ">>"}, (*Parser).parseAdditive)
}
func (p *Parser) parseAdditive() *ast.Node {
	return p.parseBinLevel([]string{"+", "-"}, (*Parser).parseMultiplicative)
}
func (p *Parser) parseMultiplicative() *ast.Node {
	return p.parseBinLevel([]string{"*", "/", "%"}, (*Parser).parseCast)
}

// parseBinLevel parses one left-associative binary level: it parses the
// next-tighter production, then folds any run of same-level operators
// into a left-leaning chain of ExprBinary nodes.
func (p *Parser) parseBinLevel(ops []string, next func(*Parser) *ast.Node) *ast.Node {
	lhs := next(p)
	for {
		matched := ""
		for _, op := range ops {
			if p.at(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return lhs
		}
		pos := p.tok.Pos
		p.advance()
		rhs := next(p)
		lhs = &ast.Node{Kind: ast.ExprBinary, Pos: pos, Op: matched, Lhs: lhs, Rhs: rhs}
	}
}

// parseCast implements "(type-name) cast-expression" vs a parenthesized
// sub-expression: the declarator parser's typedef lookahead is what
// disambiguates the two, per spec.md §4.D level 13.
func (p *Parser) parseCast() *ast.Node {
	if p.at("(") && p.startsTypeName() {
		pos := p.tok.Pos
		p.advance()
		ty := p.parseTypeName()
		p.expect(")")
		if p.at("{") {
			return p.parseCompoundLiteral(pos, ty)
		}
		operand := p.parseCast()
		return &ast.Node{Kind: ast.ExprCast, Pos: pos, TypeName: ty, Operand: operand}
	}
	return p.parseUnary()
}

var unaryOps = map[string]bool{
	"&": true, "*": true, "+": true, "-": true, "~": true, "!": true,
}

// parseUnary implements prefix "++"/"--", the unary operators, sizeof and
// _Alignof (spec.md §4.D level 14).
func (p *Parser) parseUnary() *ast.Node {
	switch {
	case p.at("++"), p.at("--"):
		op := p.tok.Text
		pos := p.tok.Pos
		p.advance()
		return &ast.Node{Kind: ast.ExprUnary, Pos: pos, Op: op, Operand: p.parseUnary()}
	case p.tok.Kind == token.Punct && unaryOps[p.tok.Text]:
		op := p.tok.Text
		pos := p.tok.Pos
		p.advance()
		return &ast.Node{Kind: ast.ExprUnary, Pos: pos, Op: op, Operand: p.parseCast()}
	case p.atKW("sizeof"):
		pos := p.tok.Pos
		p.advance()
		if p.at("(") && p.startsTypeName() {
			p.advance()
			ty := p.parseTypeName()
			p.expect(")")
			return &ast.Node{Kind: ast.ExprSizeof, Pos: pos, TypeName: ty}
		}
		return &ast.Node{Kind: ast.ExprSizeof, Pos: pos, Operand: p.parseUnary()}
	case p.atKW("_Alignof"):
		pos := p.tok.Pos
		p.advance()
		p.expect("(")
		ty := p.parseTypeName()
		p.expect(")")
		return &ast.Node{Kind: ast.ExprAlignof, Pos: pos, TypeName: ty}
	case p.at("&&"):
		// GNU label-address extension: &&label
		pos := p.tok.Pos
		p.advance()
		id, _ := p.expectIdent()
		return &ast.Node{Kind: ast.ExprLabelAddress, Pos: pos, Label: id}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix implements array subscript, call, member access and
// postfix "++"/"--", left to right.
func (p *Parser) parsePostfix() *ast.Node {
	n := p.parsePrimary()
	for {
		switch {
		case p.accept("["):
			idx := p.ParseExpr()
			p.expect("]")
			n = &ast.Node{Kind: ast.ExprSubscript, Pos: n.Pos, Operand: n, Index: idx}
		case p.accept("("):
			var args []*ast.Node
			if !p.at(")") {
				args = append(args, p.parseAssignment())
				for p.accept(",") {
					args = append(args, p.parseAssignment())
				}
			}
			p.expect(")")
			n = &ast.Node{Kind: ast.ExprCall, Pos: n.Pos, Callee: n, Args: args}
		case p.accept("."):
			name, _ := p.expectIdent()
			n = &ast.Node{Kind: ast.ExprMember, Pos: n.Pos, Operand: n, Member: name}
		case p.accept("->"):
			name, _ := p.expectIdent()
			n = &ast.Node{Kind: ast.ExprMember, Pos: n.Pos, Operand: n, Member: name, Arrow: true}
		case p.at("++"), p.at("--"):
			op := p.tok.Text
			p.advance()
			n = &ast.Node{Kind: ast.ExprPostfix, Pos: n.Pos, Op: op, Operand: n}
		default:
			return n
		}
	}
}

func (p *Parser) expectIdent() (string, token.Position) {
	if p.tok.Kind != token.Ident {
		p.error(p.tok.Pos, "expected identifier, got %q", p.tok.Text)
		return "", p.tok.Pos
	}
	name, pos := p.tok.Text, p.tok.Pos
	p.advance()
	return name, pos
}

// parsePrimary implements literals, identifiers, parenthesized
// expressions, statement expressions and _Generic selections.
func (p *Parser) parsePrimary() *ast.Node {
	t := p.tok
	switch t.Kind {
	case token.IntLit:
		p.advance()
		return &ast.Node{Kind: ast.ExprIntLit, Pos: t.Pos, IntVal: t.Num.Int, Unsigned: t.Num.IsUnsign}
	case token.FloatLit:
		p.advance()
		return &ast.Node{Kind: ast.ExprFloatLit, Pos: t.Pos, FloatVal: t.Num.Float}
	case token.CharLit:
		p.advance()
		return &ast.Node{Kind: ast.ExprCharLit, Pos: t.Pos, StrVal: t.Text}
	case token.StringLit:
		p.advance()
		n := &ast.Node{Kind: ast.ExprStringLit, Pos: t.Pos, StrVal: t.Text}
		// adjacent string-literal concatenation
		for p.tok.Kind == token.StringLit {
			n.StrVal += p.tok.Text
			p.advance()
		}
		return n
	case token.Ident:
		if t.Text == "_Generic" && p.features.HasGeneric() {
			return p.parseGenericSelection()
		}
		p.advance()
		return &ast.Node{Kind: ast.ExprIdent, Pos: t.Pos, Name: t.Text}
	}
	if p.accept("(") {
		if p.at("{") {
			pos := t.Pos
			body := p.parseCompoundStmt()
			p.expect(")")
			return &ast.Node{Kind: ast.ExprStatementExpr, Pos: pos, Body: body}
		}
		e := p.ParseExpr()
		p.expect(")")
		return e
	}
	p.error(t.Pos, "expected expression, got %q", t.Text)
	p.advance()
	return &ast.Node{Kind: ast.ExprIntLit, Pos: t.Pos}
}

// parseGenericSelection implements C11 "_Generic(expr, type: e, ..., default: e)".
func (p *Parser) parseGenericSelection() *ast.Node {
	pos := p.tok.Pos
	p.advance() // "_Generic"
	p.expect("(")
	ctrl := p.parseAssignment()
	p.expect(",")
	n := &ast.Node{Kind: ast.ExprGenericSelection, Pos: pos, Operand: ctrl}
	for {
		assoc := &ast.Node{Kind: ast.ExprGenericSelection, Pos: p.tok.Pos}
		if p.acceptKW("default") {
			assoc.TypeName = 0
		} else {
			assoc.TypeName = p.parseTypeName()
		}
		p.expect(":")
		assoc.Value = p.parseAssignment()
		n.Elems = append(n.Elems, assoc)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return n
}

// parseCompoundLiteral implements "(type-name){ initializer-list }".
func (p *Parser) parseCompoundLiteral(pos token.Position, ty types.ID) *ast.Node {
	init := p.parseInitializerList()
	return &ast.Node{Kind: ast.ExprCompoundLiteral, Pos: pos, TypeName: ty, Init: init}
}
