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

// Package token implements the token and source-location model shared by
// the preprocessor and parser.
//
// A Token is produced once by the lexer and is never mutated afterwards:
// the preprocessor only ever paints a new Hideset onto a token or splices
// tokens into new lists, it never edits Text, Kind or Pos in place.
package token

import "fmt"

// Position is a source location: file, line and column, 1-based.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// IsValid reports whether the position carries a line number.
func (p Position) IsValid() bool { return p.Line > 0 }

// Kind identifies the lexical category of a Token.
type Kind int

// Closed enumeration of token kinds. Only the subset exercised by the
// preprocessor and parser documented in SPEC_FULL.md is named explicitly;
// the remaining C punctuators collapse to Punct with the spelling carried
// in Text, which is sufficient for macro pasting/stringizing and for the
// parser's switch-on-text dispatch.
const (
	EOF Kind = iota
	Ident
	Keyword
	IntLit
	FloatLit
	CharLit
	StringLit
	Punct
	Placemarker // result of an empty macro argument, vanishes on paste
	Newline
	HeaderName // <foo.h> or "foo.h", valid only right after #include
)

var kindNames = [...]string{
	EOF:        "EOF",
	Ident:      "Ident",
	Keyword:    "Keyword",
	IntLit:     "IntLit",
	FloatLit:   "FloatLit",
	CharLit:    "CharLit",
	StringLit:  "StringLit",
	Punct:      "Punct",
	Placemarker: "Placemarker",
	Newline:    "Newline",
	HeaderName: "HeaderName",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// NumLit carries the parsed payload of an integer or floating literal,
// decoded once by the lexer so the parser never re-parses text.
type NumLit struct {
	IsFloat  bool
	IsUnsign bool
	Bits     int // 0 = int, 32 = long, 64 = long long (encoded width hint)
	Int      int64
	Float    float64
}

// Token is the immutable unit consumed by the preprocessor and parser.
//
// HadSpace records whether whitespace preceded this token on the same
// logical line: required to tell a function-like macro invocation
// ("NAME(") from a bare object-like reference ("NAME (" still invokes,
// only a macro immediately followed by '(' with no *directive* meaning
// otherwise is affected; HadSpace is what lets '(' recognize adjacency).
// BOL records whether the token is the first on its logical line, which
// is how '#' is recognized as a directive introducer.
type Token struct {
	Kind     Kind
	Text     string
	Pos      Position
	HadSpace bool
	BOL      bool
	Num      NumLit
	Hideset  Hideset
	Next     *Token // intrusive link used only during macro rescanning
}

// Clone returns a shallow copy of t with a fresh Next pointer, used when a
// token from a macro body is substituted into multiple call sites.
func (t *Token) Clone() *Token {
	c := *t
	c.Next = nil
	return &c
}

// Is reports whether t is a Punct or Keyword token with the given spelling.
func (t *Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Keyword) && t.Text == text
}
