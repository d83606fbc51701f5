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
	"strings"

	"github.com/db47h/mcc/diag"
	"github.com/db47h/mcc/lex"
	"github.com/db47h/mcc/token"
)

// restOfLine reads raw tokens up to (not including) the next
// beginning-of-line token, leaving that token queued in p.pending.
func (p *Preprocessor) restOfLine() []*token.Token {
	var toks []*token.Token
	for {
		t := p.rawNext()
		if t.Kind == token.EOF || t.BOL {
			p.pending = chainFront(t, p.pending)
			return toks
		}
		toks = append(toks, t)
	}
}

// directive handles one "#..." line. The '#' itself has already been
// consumed by the caller. Conditional directives are always processed,
// even inside a skipped region; every other directive is skipped while
// any enclosing branch is false, per spec.md §4.B.
func (p *Preprocessor) directive() error {
	name := p.rawNext()
	if name.BOL {
		// a lone '#' on its own line is the null directive, a no-op.
		p.pending = chainFront(name, p.pending)
		return nil
	}
	if name.Kind != token.Ident {
		p.restOfLine()
		p.report(diag.Warning, name.Pos, "invalid preprocessing directive")
		return nil
	}
	dname := name.Text
	skipping := !p.cond.active()

	switch dname {
	case "if", "ifdef", "ifndef":
		return p.doIf(dname, name.Pos)
	case "elif", "elifdef", "elifndef":
		return p.doElif(dname, name.Pos)
	case "else":
		return p.doElse(name.Pos)
	case "endif":
		return p.doEndif(name.Pos)
	}

	if skipping {
		p.restOfLine()
		return nil
	}

	switch dname {
	case "define":
		return p.doDefine()
	case "undef":
		return p.doUndef()
	case "include", "include_next":
		return p.doInclude(dname == "include_next")
	case "error":
		toks := p.restOfLine()
		p.report(diag.Error, name.Pos, "#error %s", joinText(toks))
	case "warning":
		toks := p.restOfLine()
		p.report(diag.Warning, name.Pos, "#warning %s", joinText(toks))
	case "line":
		p.restOfLine() // line-marker bookkeeping is out of scope for codegen
	case "pragma":
		p.restOfLine()
	default:
		if !knownDirectives[dname] {
			p.restOfLine()
			p.report(diag.Warning, name.Pos, "unknown directive #%s", dname)
			return nil
		}
		p.restOfLine()
	}
	return nil
}

func joinText(toks []*token.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func (p *Preprocessor) doIf(kind string, pos token.Position) error {
	var taken bool
	switch kind {
	case "ifdef":
		id := p.rawNext()
		p.restOfLine()
		taken = p.table.Defined(id.Text)
	case "ifndef":
		id := p.rawNext()
		p.restOfLine()
		taken = !p.table.Defined(id.Text)
	default: // "if"
		toks := p.restOfLine()
		if !p.cond.active() {
			// still push a frame (conditionals nest even when skipped),
			// but never evaluate the expression, per spec.md §4.B.
			p.cond.push(false, pos)
			return nil
		}
		v, err := p.evalConstExpr(toks)
		if err != nil {
			p.report(diag.Error, pos, "%v", err)
			v = 0
		}
		taken = v != 0
	}
	if !p.cond.active() {
		p.cond.push(false, pos)
		return nil
	}
	p.cond.push(taken, pos)
	return nil
}

func (p *Preprocessor) doElif(kind string, pos token.Position) error {
	f := p.cond.top()
	if f == nil {
		p.restOfLine()
		p.report(diag.Error, pos, "#%s without matching #if", kind)
		return nil
	}
	if f.elseSeen {
		p.restOfLine()
		p.report(diag.Error, pos, "#%s after #else", kind)
		return nil
	}
	parentActive := true
	for _, fr := range p.cond.frames[:len(p.cond.frames)-1] {
		if !fr.taken {
			parentActive = false
			break
		}
	}
	if !parentActive {
		p.restOfLine()
		f.taken = false
		return nil
	}
	if f.anyTaken {
		p.restOfLine()
		f.taken = false
		return nil
	}
	var taken bool
	switch kind {
	case "elifdef":
		id := p.rawNext()
		p.restOfLine()
		taken = p.table.Defined(id.Text)
	case "elifndef":
		id := p.rawNext()
		p.restOfLine()
		taken = !p.table.Defined(id.Text)
	default:
		toks := p.restOfLine()
		v, err := p.evalConstExpr(toks)
		if err != nil {
			p.report(diag.Error, pos, "%v", err)
			v = 0
		}
		taken = v != 0
	}
	f.taken = taken
	if taken {
		f.anyTaken = true
	}
	return nil
}

func (p *Preprocessor) doElse(pos token.Position) error {
	p.restOfLine()
	f := p.cond.top()
	if f == nil {
		p.report(diag.Error, pos, "#else without matching #if")
		return nil
	}
	if f.elseSeen {
		p.report(diag.Error, pos, "#else after #else")
		return nil
	}
	f.elseSeen = true
	parentActive := true
	for _, fr := range p.cond.frames[:len(p.cond.frames)-1] {
		if !fr.taken {
			parentActive = false
			break
		}
	}
	f.taken = parentActive && !f.anyTaken
	if f.taken {
		f.anyTaken = true
	}
	return nil
}

func (p *Preprocessor) doEndif(pos token.Position) error {
	p.restOfLine()
	if p.cond.empty() {
		p.report(diag.Error, pos, "#endif without matching #if")
		return nil
	}
	p.cond.pop()
	return nil
}

func (p *Preprocessor) doDefine() error {
	name := p.rawNext()
	if name.Kind != token.Ident {
		p.restOfLine()
		p.report(diag.Error, name.Pos, "macro name must be an identifier")
		return nil
	}
	mac := &Macro{Name: name.Text, DefinedAt: name.Pos}
	next := p.rawNext()
	if next.Is("(") && !next.HadSpace {
		mac.FuncLike = true
		for {
			t := p.rawNext()
			if t.Is(")") {
				break
			}
			if t.Is("...") {
				mac.Variadic = true
				p.rawNext() // consume the following ')'
				break
			}
			if t.Kind == token.Ident {
				mac.Params = append(mac.Params, t.Text)
			}
			if sep := p.rawNext(); sep.Is(")") {
				break
			}
		}
		mac.Body = p.restOfLine()
	} else {
		p.pending = chainFront(next, p.pending)
		mac.Body = p.restOfLine()
	}
	if len(mac.Body) > 0 {
		mac.Body[0].HadSpace = false
	}
	redefined, warn := p.table.Define(mac)
	if redefined && warn {
		p.report(diag.Warning, mac.DefinedAt, "%q redefined", mac.Name)
	}
	return nil
}

func (p *Preprocessor) doUndef() error {
	name := p.rawNext()
	p.restOfLine()
	if name.Kind == token.Ident {
		p.table.Undef(name.Text)
	}
	return nil
}

func (p *Preprocessor) doInclude(next bool) error {
	_ = next
	toks := p.restOfLine()
	name, system, err := headerName(toks)
	if err != nil {
		p.report(diag.Error, toks[0].Pos, "%v", err)
		return nil
	}
	if err := p.includes.push(includeFrame{lexer: p.cur, filename: p.curFile, dir: p.curDir}); err != nil {
		p.report(diag.Error, toks[0].Pos, "%v", err)
		return nil
	}
	contents, dir, err := p.includes.resolve(name, system)
	if err != nil {
		p.includes.pop()
		p.report(diag.Error, toks[0].Pos, "%v", err)
		return nil
	}
	p.cur = lex.New(name, contents)
	p.curFile = name
	p.curDir = dir
	return nil
}

// headerName recognizes "..." include targets as a string-literal token
// and <...> targets as a run of punctuator/ident tokens that must be
// re-assembled (macro-expandable includes are not modeled; only the two
// literal forms are).
func headerName(toks []*token.Token) (name string, system bool, err error) {
	if len(toks) == 0 {
		return "", false, errNoHeaderName
	}
	if toks[0].Kind == token.StringLit {
		return strings.Trim(toks[0].Text, `"`), false, nil
	}
	if toks[0].Is("<") {
		var b strings.Builder
		for _, t := range toks[1:] {
			if t.Is(">") {
				return b.String(), true, nil
			}
			b.WriteString(t.Text)
		}
		return "", false, errUnterminatedHeaderName
	}
	return "", false, errNoHeaderName
}

var errNoHeaderName = &headerNameError{"expected \"FILENAME\" or <FILENAME>"}
var errUnterminatedHeaderName = &headerNameError{"missing '>' in #include"}

type headerNameError struct{ msg string }

func (e *headerNameError) Error() string { return e.msg }
