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

	"github.com/db47h/mcc/lex"
	"github.com/db47h/mcc/token"
	"github.com/pkg/errors"
)

// expander implements the ISO C "rescanning and further replacement"
// algorithm with hide sets (spec.md §4.B, Design Notes "Hide sets").
//
// input is the token list not yet consumed. Expansion output is always
// spliced back onto the front of input, so a single scan loop handles
// both "fresh" tokens and the output of a prior expansion: this is what
// makes "#define A B", "#define B(x) x", "A(42)" (spec.md §8 scenario 2)
// expand correctly. Rescanning only the substituted body in isolation,
// without concatenating it to the remaining input first, would see "B"
// alone with no following "(42)" and fail to invoke B at all.
type expander struct {
	table *Table
	input *token.Token
}

func newExpander(t *Table, toks []*token.Token) *expander {
	return &expander{table: t, input: chain(toks)}
}

func chain(toks []*token.Token) *token.Token {
	var head, tail *token.Token
	for _, t := range toks {
		t.Next = nil
		if head == nil {
			head, tail = t, t
		} else {
			tail.Next = t
			tail = t
		}
	}
	return head
}

func (e *expander) prepend(toks []*token.Token) {
	if len(toks) == 0 {
		return
	}
	head := chain(toks)
	tail := head
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = e.input
	e.input = head
}

func (e *expander) pop() *token.Token {
	if e.input == nil {
		return nil
	}
	t := e.input
	e.input = e.input.Next
	t.Next = nil
	return t
}

func (e *expander) peek() *token.Token { return e.input }

// Expand runs the full algorithm over toks and returns the fully
// expanded, rescanned token sequence.
func Expand(t *Table, toks []*token.Token) ([]*token.Token, error) {
	e := newExpander(t, toks)
	var out []*token.Token
	for {
		tok := e.pop()
		if tok == nil {
			break
		}
		if tok.Kind != token.Ident {
			out = append(out, tok)
			continue
		}
		mac := t.Lookup(tok.Text)
		if mac == nil || tok.Hideset.Contains(tok.Text) {
			out = append(out, tok)
			continue
		}
		if mac.FuncLike {
			if p := e.peek(); p == nil || !p.Is("(") {
				// not an invocation: name not immediately followed by '('
				out = append(out, tok)
				continue
			}
			expanded, err := e.expandFuncLike(tok, mac)
			if err != nil {
				return nil, err
			}
			e.prepend(expanded)
			continue
		}
		expanded, err := e.expandObjectLike(tok, mac)
		if err != nil {
			return nil, err
		}
		e.prepend(expanded)
	}
	return out, nil
}

// expandObjectLike substitutes mac's body (no parameters to bind) and
// paints the result with mac.Name added to every token's hideset.
func (e *expander) expandObjectLike(call *token.Token, mac *Macro) ([]*token.Token, error) {
	out, err := e.substitute(mac, mac.Body, nil)
	if err != nil {
		return nil, err
	}
	paint(out, call.Hideset.Add(mac.Name))
	return out, nil
}

// expandFuncLike consumes "(", collects arguments honoring nested-paren
// depth, substitutes them into the body, and paints the result with the
// hideset intersection of the call and its closing paren, union mac.Name
// -- the classic Dave Prosser algorithm's hs' -- which is what lets
// "f(f)(1)" (spec.md §8 scenario 3) expand the inner argument f once
// while leaving the replacement-list occurrence of f blue-painted.
func (e *expander) expandFuncLike(call *token.Token, mac *Macro) ([]*token.Token, error) {
	e.pop() // consume '('
	args, rparen, err := e.collectArgs(mac)
	if err != nil {
		return nil, err
	}
	out, err := e.substitute(mac, mac.Body, args)
	if err != nil {
		return nil, err
	}
	hs := call.Hideset.Intersect(rparen.Hideset).Add(mac.Name)
	paint(out, hs)
	return out, nil
}

// collectArgs reads a parenthesized, comma-separated argument list. Commas
// nested inside parentheses never separate arguments; once the fixed
// parameter count has been satisfied, remaining top-level commas are kept
// as literal tokens inside the final (variadic) slot, which is how
// __VA_ARGS__ ends up as "a comma-separated sequence" per spec.md §4.B.
// An unterminated list is an error.
func (e *expander) collectArgs(mac *Macro) (args [][]*token.Token, rparen *token.Token, err error) {
	depth := 1
	var cur []*token.Token
	fixed := len(mac.Params)
	for {
		tok := e.pop()
		if tok == nil {
			return nil, nil, errors.New("unterminated macro argument list")
		}
		switch {
		case tok.Is("("):
			depth++
			cur = append(cur, tok)
		case tok.Is(")"):
			depth--
			if depth == 0 {
				args = append(args, cur)
				if fixed == 0 && !mac.Variadic && len(args) == 1 && len(args[0]) == 0 {
					args = nil
				}
				return args, tok, nil
			}
			cur = append(cur, tok)
		case tok.Is(",") && depth == 1 && len(args) < fixed:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, tok)
		}
	}
}

// substitute performs parameter substitution over body: '#' stringizes an
// unexpanded argument, '##' pastes two adjacent (unexpanded) operands, and
// every other parameter occurrence is macro-expanded before insertion
// (spec.md §4.B "pre-expanded"). Non-parameter tokens pass through as-is.
// The pre-expansion recursion below is simply another call to Expand with
// the table shared by this expander: the current macro's name is not yet
// in the argument tokens' hideset, so mutually recursive patterns like
// "#define f(x) x+f" inside "f(f)(1)" naturally terminate without any
// special "pop the current macro off a stack" bookkeeping.
func (e *expander) substitute(mac *Macro, body []*token.Token, args [][]*token.Token) ([]*token.Token, error) {
	raw := make([]*token.Token, 0, len(body))
	for i := 0; i < len(body); i++ {
		tok := body[i]

		if mac.FuncLike && tok.Is("#") && i+1 < len(body) && body[i+1].Kind == token.Ident {
			if idx := mac.paramIndex(body[i+1].Text); idx >= 0 {
				raw = append(raw, stringize(argAt(args, idx), tok.Pos))
				i++
				continue
			}
		}

		if tok.Kind == token.Ident {
			if idx := mac.paramIndex(tok.Text); idx >= 0 {
				arg := argAt(args, idx)
				adjPaste := (i > 0 && body[i-1].Is("##")) || (i+1 < len(body) && body[i+1].Is("##"))
				if adjPaste {
					raw = append(raw, withPlacemarker(cloneAll(arg))...)
					continue
				}
				expanded, err := Expand(e.table, cloneAll(arg))
				if err != nil {
					return nil, err
				}
				raw = append(raw, withPlacemarker(expanded)...)
				continue
			}
		}

		raw = append(raw, tok.Clone())
	}
	return paste(raw)
}

func argAt(args [][]*token.Token, idx int) []*token.Token {
	if idx < len(args) {
		return args[idx]
	}
	return nil
}

// withPlacemarker returns a single Placemarker token when toks is empty, so
// an empty argument still leaves a position-holder that '##' can paste
// against (an empty argument pasted onto a real token must still succeed).
func withPlacemarker(toks []*token.Token) []*token.Token {
	if len(toks) == 0 {
		return []*token.Token{{Kind: token.Placemarker}}
	}
	return toks
}

// paste resolves every "##" operator left in raw by concatenating the
// textual spellings of its two neighbors and re-lexing the result as a
// single token (spec.md §4.B). "##" at the start or end of a replacement
// list is a diagnosable error, per spec.md.
func paste(raw []*token.Token) ([]*token.Token, error) {
	out := make([]*token.Token, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if !t.Is("##") {
			out = append(out, t)
			continue
		}
		if len(out) == 0 {
			return nil, errors.Errorf("%s: '##' cannot appear at the start of a macro expansion", t.Pos)
		}
		if i+1 >= len(raw) {
			return nil, errors.Errorf("%s: '##' cannot appear at the end of a macro expansion", t.Pos)
		}
		left := out[len(out)-1]
		right := raw[i+1]
		pasted, err := pasteTokens(left, right)
		if err != nil {
			return nil, err
		}
		out[len(out)-1] = pasted
		i++ // right was consumed
	}
	// Placemarkers that survived to the end (never pasted against anything,
	// e.g. a lone empty variadic argument) vanish without emitting a token.
	filtered := out[:0]
	for _, t := range out {
		if t.Kind != token.Placemarker {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// pasteTokens concatenates the spellings of a and b and re-lexes the
// result as a single token. If either side is a placemarker, the other
// side passes through unchanged (pasting with an empty argument is a
// no-op, not an error).
func pasteTokens(a, b *token.Token) (*token.Token, error) {
	if a.Kind == token.Placemarker {
		r := b.Clone()
		r.Hideset = a.Hideset.Intersect(b.Hideset)
		return r, nil
	}
	if b.Kind == token.Placemarker {
		r := a.Clone()
		r.Hideset = a.Hideset.Intersect(b.Hideset)
		return r, nil
	}
	spelling := a.Text + b.Text
	l := lex.New(a.Pos.Filename, []byte(spelling))
	first := l.Next()
	if first.Kind == token.EOF {
		return nil, errors.Errorf("%s: pasting %q and %q produces an empty token", a.Pos, a.Text, b.Text)
	}
	if next := l.Next(); next.Kind != token.EOF {
		return nil, errors.Errorf("%s: pasting %q and %q does not produce a single valid token", a.Pos, a.Text, b.Text)
	}
	first.Pos = a.Pos
	first.HadSpace = a.HadSpace
	first.Hideset = a.Hideset.Intersect(b.Hideset)
	return first, nil
}

// stringize implements the '#' operator: concatenate the textual forms of
// arg's tokens with a single space between adjacent tokens that had
// intervening whitespace, wrap in double quotes, escape '"' and '\'.
func stringize(arg []*token.Token, pos token.Position) *token.Token {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.HadSpace {
			b.WriteByte(' ')
		}
		if t.Kind == token.StringLit || t.Kind == token.CharLit {
			for _, r := range t.Text {
				if r == '"' || r == '\\' {
					b.WriteByte('\\')
				}
				b.WriteRune(r)
			}
		} else {
			b.WriteString(t.Text)
		}
	}
	b.WriteByte('"')
	return &token.Token{Kind: token.StringLit, Text: b.String(), Pos: pos}
}

// cloneAll returns fresh copies (no shared Next pointers) of toks, so the
// same macro body or argument can be substituted at multiple sites without
// aliasing the intrusive list.
func cloneAll(toks []*token.Token) []*token.Token {
	out := make([]*token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Clone()
	}
	return out
}

// paint adds hs to the hideset of every token in toks, in place.
func paint(toks []*token.Token, hs token.Hideset) {
	for _, t := range toks {
		t.Hideset = t.Hideset.Union(hs)
	}
}
