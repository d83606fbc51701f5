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

package cpp

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/db47h/mcc/diag"
	"github.com/db47h/mcc/lex"
	"github.com/db47h/mcc/token"
	"github.com/pkg/errors"
)

var knownDirectives = map[string]bool{
	"define": true, "undef": true, "include": true, "include_next": true,
	"if": true, "ifdef": true, "ifndef": true, "elif": true, "elifdef": true,
	"elifndef": true, "else": true, "endif": true, "error": true,
	"warning": true, "line": true, "pragma": true,
}

// Std selects the C standard in effect, gating feature availability per
// spec.md §4.D "Feature gating".
type Std int

const (
	StdC89 Std = iota
	StdC99
	StdC11
	StdC17
	StdC23
)

// Option configures a Preprocessor, following the functional-options idiom
// of vm.Option in the teacher's vm package.
type Option func(*Preprocessor)

// IncludePath appends a -I search directory.
func IncludePath(dir string) Option {
	return func(p *Preprocessor) { p.includes.search = append(p.includes.search, dir) }
}

// Define predefines a macro as if by -Dname or -Dname=value.
func Define(name, value string) Option {
	return func(p *Preprocessor) { p.predefine(name, value) }
}

// Undefine removes a predefined macro as if by -Uname.
func Undefine(name string) Option {
	return func(p *Preprocessor) { p.table.Undef(name) }
}

// WithStd sets the active C standard.
func WithStd(s Std) Option {
	return func(p *Preprocessor) { p.std = s }
}

// Preprocessor drives directive handling, macro expansion and conditional
// inclusion for one translation unit (spec.md §4.B).
type Preprocessor struct {
	table    *Table
	cond     condStack
	includes *includeStack
	std      Std
	sink     diag.Sink
	errCount int

	cur  *lex.Lexer
	curFile string
	curDir  string
	pending *token.Token // unread tokens from the current file, chained
	opener  FileOpener
}

// New creates a Preprocessor reading filename through opener, reporting
// diagnostics to sink.
func New(opener FileOpener, sink diag.Sink, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		table:    NewTable(),
		includes: newIncludeStack(opener, nil),
		sink:     sink,
		opener:   opener,
	}
	p.predefineBuiltins()
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Preprocessor) predefine(name, value string) {
	src := []byte(value)
	if value == "" {
		src = []byte("1")
	}
	l := lex.New("<command-line>", src)
	var body []*token.Token
	for {
		t := l.Next()
		if t.Kind == token.EOF {
			break
		}
		body = append(body, t)
	}
	p.table.Define(&Macro{Name: name, Body: body})
}

func (p *Preprocessor) predefineBuiltins() {
	now := time.Now()
	p.table.Define(&Macro{Name: "__DATE__", Body: strTok(now.Format(`"Jan _2 2006"`))})
	p.table.Define(&Macro{Name: "__TIME__", Body: strTok(now.Format(`"15:04:05"`))})
	p.table.Define(&Macro{Name: "__STDC__", Body: intTok(1)})
}

func strTok(s string) []*token.Token {
	return []*token.Token{{Kind: token.StringLit, Text: s}}
}

func intTok(n int64) []*token.Token {
	return []*token.Token{{Kind: token.IntLit, Text: strconv.FormatInt(n, 10), Num: token.NumLit{Int: n}}}
}

func (p *Preprocessor) stdcVersion() int64 {
	switch p.std {
	case StdC99:
		return 199901
	case StdC11:
		return 201112
	case StdC17:
		return 201710
	case StdC23:
		return 202311
	default:
		return 199409
	}
}

// Open begins reading filename as the top-level translation unit.
func (p *Preprocessor) Open(filename string) error {
	contents, dir, err := p.opener.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filename)
	}
	p.cur = lex.New(filename, contents)
	p.curFile = filename
	p.curDir = dir
	return nil
}

func (p *Preprocessor) report(sev diag.Severity, pos token.Position, format string, args ...interface{}) {
	if sev == diag.Error {
		p.errCount++
	}
	p.sink.Report(diag.Diagnostic{Severity: sev, Pos: fmt.Sprint(pos), Message: fmt.Sprintf(format, args...)})
}

// ErrorCount returns the number of errors reported so far.
func (p *Preprocessor) ErrorCount() int { return p.errCount }

// Macros returns the macro table accumulated so far, for -dM style
// dumps via Table.Dump.
func (p *Preprocessor) Macros() *Table { return p.table }

// rawNext returns the next raw (un-expanded) token from the current file,
// transparently popping the include stack at end of file.
func (p *Preprocessor) rawNext() *token.Token {
	for {
		if p.pending != nil {
			t := p.pending
			p.pending = p.pending.Next
			t.Next = nil
			return t
		}
		t := p.cur.Next()
		if t.Kind != token.EOF {
			return t
		}
		frame, ok := p.includes.pop()
		if !ok {
			return t // top-level EOF
		}
		p.cur = frame.lexer
		p.curFile = frame.filename
		p.curDir = frame.dir
	}
}

// Next returns the next fully macro-expanded token of the translation
// unit, transparently handling directives and conditional skipping. It
// returns a token.EOF token at the very end of the translation unit.
func (p *Preprocessor) Next() (*token.Token, error) {
	for {
		t := p.rawNext()
		if t.Kind == token.EOF {
			return t, nil
		}
		if t.BOL && t.Is("#") {
			if err := p.directive(); err != nil {
				return nil, err
			}
			continue
		}
		if !p.cond.active() {
			continue // discard tokens under a false conditional branch
		}
		line := p.collectLogicalLine(t)
		expanded, err := Expand(p.table, line)
		if err != nil {
			return nil, err
		}
		if len(expanded) == 0 {
			continue
		}
		p.pending = prependChain(expanded[1:], p.pending)
		return expanded[0], nil
	}
}

// prependChain links toks (in order) onto the front of rest, returning the
// new head. Used to splice freshly expanded tokens ahead of whatever the
// logical-line reader already queued (typically the next line's BOL
// token), without losing it.
func prependChain(toks []*token.Token, rest *token.Token) *token.Token {
	head := chain(toks)
	if head == nil {
		return rest
	}
	tail := head
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = rest
	return head
}

// collectLogicalLine reads tokens up to (not including) the next BOL
// token, continuing past line breaks while parentheses are still open
// (but never into a "#" directive line), so that macro expansion - in
// particular function-like argument collection, which may legitimately
// span physical lines - always sees a complete logical unit to rescan.
// first has already been popped.
func (p *Preprocessor) collectLogicalLine(first *token.Token) []*token.Token {
	line := []*token.Token{first}
	depth := 0
	count := func(t *token.Token) {
		if t.Is("(") {
			depth++
		} else if t.Is(")") {
			depth--
		}
	}
	count(first)
	for {
		t := p.rawNext()
		if t.Kind == token.EOF || (t.BOL && (depth <= 0 || t.Is("#"))) {
			p.pending = chainFront(t, p.pending)
			break
		}
		count(t)
		line = append(line, t)
	}
	return line
}

func chainFront(t *token.Token, rest *token.Token) *token.Token {
	if t.Kind == token.EOF {
		return rest
	}
	t.Next = rest
	return t
}

// Dump writes the fully expanded token stream to w, each token followed
// by a single space; line breaks are not preserved. It implements the
// "-E" mode named in spec.md §6.
func (p *Preprocessor) Dump(w io.Writer) error {
	for {
		t, err := p.Next()
		if err != nil {
			return err
		}
		if t.Kind == token.EOF {
			return nil
		}
		fmt.Fprintf(w, "%s ", t.Text)
	}
}
