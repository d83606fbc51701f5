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

// Package lex is the character-level lexer. Per spec.md §1 this is an
// external collaborator to the core pipeline, specified only by the token
// stream it produces; this implementation is intentionally the thinnest
// package in the repository and exists only so the preprocessor and
// parser are exercisable end to end.
package lex

import (
	"bytes"
	"strconv"
	"text/scanner"
	"unicode"

	"github.com/db47h/mcc/token"
)

// Lexer tokenizes a single source file using text/scanner as its
// character classifier, following the scanning style of asm/parser.go.
type Lexer struct {
	s        scanner.Scanner
	filename string
	atBOL    bool
}

// New creates a Lexer reading from the contents of src, attributing
// positions to filename.
func New(filename string, src []byte) *Lexer {
	l := &Lexer{filename: filename, atBOL: true}
	l.s.Init(bytes.NewReader(src))
	l.s.Filename = filename
	l.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanChars | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	l.s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (i > 0 && unicode.IsDigit(ch))
	}
	return l
}

// Next scans and returns the next token, or an EOF token at end of input.
func (l *Lexer) Next() *token.Token {
	startLine := l.s.Pos().Line
	startOff := l.s.Pos().Offset
	tok := l.s.Scan()
	// text/scanner doesn't report whitespace directly. had-preceding-space
	// is derived from a gap between the end of the previous token and the
	// start of this one (skipped blanks, newlines or comments), and
	// beginning-of-line from whether we crossed a line while skipping to
	// this token. Every token that starts a new line gets BOL, not just the
	// file's first token.
	crossedLine := l.s.Position.Line != startLine
	hadSpace := crossedLine || l.s.Position.Offset != startOff
	bol := l.atBOL || crossedLine
	l.atBOL = false
	pos := token.Position{Filename: l.filename, Line: l.s.Position.Line, Column: l.s.Position.Column}
	switch tok {
	case scanner.EOF:
		return &token.Token{Kind: token.EOF, Pos: pos, BOL: bol}
	case scanner.Ident:
		text := l.s.TokenText()
		return &token.Token{Kind: token.Ident, Text: text, Pos: pos, HadSpace: hadSpace, BOL: bol}
	case scanner.Int:
		text := l.s.TokenText()
		n, _ := strconv.ParseInt(text, 0, 64)
		return &token.Token{Kind: token.IntLit, Text: text, Pos: pos, HadSpace: hadSpace, BOL: bol,
			Num: token.NumLit{Int: n}}
	case scanner.Float:
		text := l.s.TokenText()
		f, _ := strconv.ParseFloat(text, 64)
		return &token.Token{Kind: token.FloatLit, Text: text, Pos: pos, HadSpace: hadSpace, BOL: bol,
			Num: token.NumLit{IsFloat: true, Float: f}}
	case scanner.Char:
		return &token.Token{Kind: token.CharLit, Text: l.s.TokenText(), Pos: pos, HadSpace: hadSpace, BOL: bol}
	case scanner.String:
		return &token.Token{Kind: token.StringLit, Text: l.s.TokenText(), Pos: pos, HadSpace: hadSpace, BOL: bol}
	default:
		text := l.scanPunct(tok)
		return &token.Token{Kind: token.Punct, Text: text, Pos: pos, HadSpace: hadSpace, BOL: bol}
	}
}

// scanPunct consumes additional runes past r to recognize the multi-
// character C punctuators (<<=, ->, ##, ... and the like): text/scanner
// only ever hands back one rune at a time for anything outside its
// identifier/number/string/char modes, so the multi-char merging has to
// happen here.
func (l *Lexer) scanPunct(r rune) string {
	switch r {
	case '<':
		if l.s.Peek() == '<' {
			l.s.Next()
			if l.s.Peek() == '=' {
				l.s.Next()
				return "<<="
			}
			return "<<"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return "<="
		}
	case '>':
		if l.s.Peek() == '>' {
			l.s.Next()
			if l.s.Peek() == '=' {
				l.s.Next()
				return ">>="
			}
			return ">>"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return ">="
		}
	case '-':
		if l.s.Peek() == '>' {
			l.s.Next()
			return "->"
		}
		if l.s.Peek() == '-' {
			l.s.Next()
			return "--"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return "-="
		}
	case '+':
		if l.s.Peek() == '+' {
			l.s.Next()
			return "++"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return "+="
		}
	case '=':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "=="
		}
	case '!':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "!="
		}
	case '&':
		if l.s.Peek() == '&' {
			l.s.Next()
			return "&&"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return "&="
		}
	case '|':
		if l.s.Peek() == '|' {
			l.s.Next()
			return "||"
		}
		if l.s.Peek() == '=' {
			l.s.Next()
			return "|="
		}
	case '*':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "*="
		}
	case '/':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "/="
		}
	case '%':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "%="
		}
	case '^':
		if l.s.Peek() == '=' {
			l.s.Next()
			return "^="
		}
	case '#':
		if l.s.Peek() == '#' {
			l.s.Next()
			return "##"
		}
	case '.':
		if l.s.Peek() == '.' {
			l.s.Next()
			if l.s.Peek() == '.' {
				l.s.Next()
				return "..."
			}
			return ".."
		}
	}
	return string(r)
}
