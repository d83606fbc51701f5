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

// Package parser implements the recursive-descent C parser: expression
// precedence climbing, the inside-out declarator parser, typedef
// disambiguation, statement dispatch and panic-mode error recovery
// (spec.md §4.D).
package parser

import (
	"fmt"

	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/diag"
	"github.com/db47h/mcc/token"
)

// TokenSource is the lazy, infinite-with-EOF token stream the parser
// consumes, with single-token lookahead, per spec.md §4.D. cpp.Preprocessor
// satisfies this interface directly.
type TokenSource interface {
	// Next returns the next fully macro-expanded token, or a token.EOF
	// token at the end of the translation unit.
	Next() (*token.Token, error)
}

// Parser holds all per-translation-unit parsing state: none of it is
// shared across translation units, per spec.md §5.
type Parser struct {
	src      TokenSource
	sink     diag.Sink
	reg      *types.Registry
	typedefs *typedefScope
	features FeatureSet

	tok     *token.Token // current lookahead
	lookbuf *token.Token // one token of extra lookahead, fetched on demand
	panic   bool
	errs    int
}

// New creates a Parser reading tokens from src.
func New(src TokenSource, sink diag.Sink, reg *types.Registry, feat FeatureSet) *Parser {
	p := &Parser{src: src, sink: sink, reg: reg, typedefs: newTypedefScope(), features: feat}
	p.advance()
	return p
}

// fetch reads one token from src, silently skipping the Newline kind
// (never emitted by lex/cpp today, but future-proofed here).
func (p *Parser) fetch() *token.Token {
	for {
		t, err := p.src.Next()
		if err != nil {
			p.error(token.Position{}, err.Error())
			return &token.Token{Kind: token.EOF}
		}
		if t.Kind == token.Newline {
			continue
		}
		return t
	}
}

// advance discards the current lookahead and fetches the next token.
func (p *Parser) advance() *token.Token {
	prev := p.tok
	if p.lookbuf != nil {
		p.tok, p.lookbuf = p.lookbuf, nil
	} else {
		p.tok = p.fetch()
	}
	return prev
}

func (p *Parser) peek() *token.Token { return p.tok }

// peek2 returns the token following the current lookahead without
// consuming either, used only to disambiguate "(" + type-name from a
// parenthesized sub-expression in parseCast/startsTypeName.
func (p *Parser) peek2() *token.Token {
	if p.lookbuf == nil {
		p.lookbuf = p.fetch()
	}
	return p.lookbuf
}

// at reports whether the lookahead is the punctuator/operator spelled text.
func (p *Parser) at(text string) bool { return p.tok.Is(text) }

// atKW reports whether the lookahead is the keyword word. The lexer never
// distinguishes keywords from identifiers at the Kind level (lex/lexer.go
// emits every word as token.Ident), so keyword recognition is done here by
// spelling, at the parser boundary, rather than threading a keyword table
// through the lexer.
func (p *Parser) atKW(word string) bool { return p.tok.Kind == token.Ident && p.tok.Text == word }

func (p *Parser) accept(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptKW(word string) bool {
	if p.atKW(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(text string) (*token.Token, bool) {
	if p.at(text) {
		t := p.tok
		p.advance()
		return t, true
	}
	p.error(p.tok.Pos, "expected %q, got %q", text, p.tok.Text)
	return p.tok, false
}

func (p *Parser) error(pos token.Position, format string, args ...interface{}) {
	p.errs++
	if p.panic {
		return // one diagnostic per panic-mode run, per spec.md §4.D
	}
	p.sink.Report(diag.Diagnostic{Severity: diag.Error, Pos: pos.String(), Message: fmt.Sprintf(format, args...)})
	p.panic = true
}

// ErrorCount returns the number of parse errors found, including those
// whose diagnostic was suppressed in panic mode.
func (p *Parser) ErrorCount() int { return p.errs }

// syncKeywords are the tokens panic mode treats as safe restart points,
// per spec.md §4.D.
var syncKeywords = map[string]bool{
	"if": true, "while": true, "for": true, "do": true, "switch": true,
	"return": true, "break": true, "continue": true, "goto": true,
	"typedef": true, "extern": true, "static": true, "auto": true, "register": true,
	"struct": true, "union": true, "enum": true,
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "_Bool": true,
}

// synchronize discards tokens until a semicolon or a synchronization
// keyword, clearing panic mode for the next top-level production
// (spec.md §4.D, §7).
func (p *Parser) synchronize() {
	for p.tok.Kind != token.EOF {
		if p.tok.Is(";") {
			p.advance()
			break
		}
		if p.tok.Kind == token.Ident && syncKeywords[p.tok.Text] {
			break
		}
		p.advance()
	}
	p.panic = false
}

// ParseTranslationUnit parses a full translation unit: a sequence of
// top-level declarations, with panic-mode recovery between them.
func (p *Parser) ParseTranslationUnit() *ast.Node {
	tu := &ast.Node{Kind: ast.TranslationUnit}
	for p.tok.Kind != token.EOF {
		before := p.tok
		ds := p.parseExternalDecl()
		tu.Decls = append(tu.Decls, ds...)
		if p.panic {
			p.synchronize()
		} else if p.tok == before {
			// safety valve: guarantee forward progress even on an
			// unrecognized construct that didn't set panic mode.
			p.advance()
		}
	}
	return tu
}
