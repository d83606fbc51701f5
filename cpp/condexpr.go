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
	"strconv"

	"github.com/db47h/mcc/token"
	"github.com/pkg/errors"
)

// evalConstExpr evaluates a #if/#elif constant expression per spec.md
// §4.B: "defined(X)"/"defined X" are handled before macro expansion (they
// must not macro-expand X); everything else is macro-expanded first, then
// evaluated with the full C binary/unary/ternary operator suite, with
// && and || always evaluating both sides to consume tokens (no lexical
// short-circuiting, since skipped tokens would otherwise desynchronize
// the reader). Division by zero is a diagnosable error.
func (p *Preprocessor) evalConstExpr(toks []*token.Token) (int64, error) {
	toks = p.foldDefined(toks)
	expanded, err := Expand(p.table, toks)
	if err != nil {
		return 0, err
	}
	expanded = bindUnboundIdents(expanded)
	c := &condExprParser{toks: expanded}
	v, err := c.ternary()
	if err != nil {
		return 0, err
	}
	if c.pos < len(c.toks) {
		return 0, errors.Errorf("%s: unexpected token %q in constant expression", c.peek().Pos, c.peek().Text)
	}
	return v, nil
}

// foldDefined replaces "defined(X)"/"defined X" with an integer literal
// 1/0 before macro expansion runs, so that X itself is never expanded.
func (p *Preprocessor) foldDefined(toks []*token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind == token.Ident && t.Text == "defined" {
			j := i + 1
			paren := false
			if j < len(toks) && toks[j].Is("(") {
				paren = true
				j++
			}
			if j < len(toks) && toks[j].Kind == token.Ident {
				name := toks[j].Text
				j++
				if paren {
					if j < len(toks) && toks[j].Is(")") {
						j++
					}
				}
				v := 0
				if p.table.Defined(name) {
					v = 1
				}
				out = append(out, &token.Token{Kind: token.IntLit, Text: strconv.Itoa(v), Pos: t.Pos, Num: token.NumLit{Int: int64(v)}})
				i = j - 1
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// bindUnboundIdents maps any identifier surviving macro expansion (i.e.
// not bound to a macro) to the integer literal 0, per spec.md §4.B.
func bindUnboundIdents(toks []*token.Token) []*token.Token {
	out := make([]*token.Token, len(toks))
	for i, t := range toks {
		if t.Kind == token.Ident {
			out[i] = &token.Token{Kind: token.IntLit, Text: "0", Pos: t.Pos, Num: token.NumLit{Int: 0}}
			continue
		}
		out[i] = t
	}
	return out
}

// condExprParser is a small precedence-climbing evaluator over the
// already-expanded token list, following the same one-token-lookahead
// discipline as cc/parser's expression parser.
type condExprParser struct {
	toks []*token.Token
	pos  int
}

func (c *condExprParser) peek() *token.Token {
	if c.pos < len(c.toks) {
		return c.toks[c.pos]
	}
	return &token.Token{Kind: token.EOF}
}

func (c *condExprParser) advance() *token.Token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *condExprParser) ternary() (int64, error) {
	cond, err := c.logicalOr()
	if err != nil {
		return 0, err
	}
	if c.peek().Is("?") {
		c.advance()
		a, err := c.ternary()
		if err != nil {
			return 0, err
		}
		if !c.peek().Is(":") {
			return 0, errors.Errorf("%s: expected ':' in conditional expression", c.peek().Pos)
		}
		c.advance()
		b, err := c.ternary()
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return a, nil
		}
		return b, nil
	}
	return cond, nil
}

func (c *condExprParser) logicalOr() (int64, error) {
	return c.binary([]string{"||"}, (*condExprParser).logicalAnd)
}
func (c *condExprParser) logicalAnd() (int64, error) { return c.binary([]string{"&&"}, (*condExprParser).bitOr) }
func (c *condExprParser) bitOr() (int64, error)      { return c.binary([]string{"|"}, (*condExprParser).bitXor) }
func (c *condExprParser) bitXor() (int64, error)     { return c.binary([]string{"^"}, (*condExprParser).bitAnd) }
func (c *condExprParser) bitAnd() (int64, error)     { return c.binary([]string{"&"}, (*condExprParser).equality) }
func (c *condExprParser) equality() (int64, error) {
	return c.binary([]string{"==", "!="}, (*condExprParser).relational)
}
func (c *condExprParser) relational() (int64, error) {
	return c.binary([]string{"<", ">", "<=", ">="}, (*condExprParser).shift)
}
func (c *condExprParser) shift() (int64, error) {
	return c.binary([]string{"<<", ">>"}, (*condExprParser).additive)
}
func (c *condExprParser) additive() (int64, error) {
	return c.binary([]string{"+", "-"}, (*condExprParser).multiplicative)
}
func (c *condExprParser) multiplicative() (int64, error) {
	return c.binary([]string{"*", "/", "%"}, (*condExprParser).unary)
}

// binary evaluates a single left-associative precedence level. Per
// spec.md, && and || always evaluate both operands (no lexical
// short-circuit): we compute both sides unconditionally and only apply
// the short-circuit to the *result*, so token consumption is identical
// regardless of the left operand's value.
func (c *condExprParser) binary(ops []string, next func(c *condExprParser) (int64, error)) (int64, error) {
	lhs, err := next(c)
	if err != nil {
		return 0, err
	}
	for {
		op := ""
		for _, o := range ops {
			if c.peek().Is(o) {
				op = o
				break
			}
		}
		if op == "" {
			return lhs, nil
		}
		c.advance()
		rhs, err := next(c)
		if err != nil {
			return 0, err
		}
		v, err := applyBinOp(op, lhs, rhs, c.peek().Pos)
		if err != nil {
			return 0, err
		}
		lhs = v
	}
}

func applyBinOp(op string, a, b int64, pos token.Position) (int64, error) {
	switch op {
	case "||":
		if a != 0 || b != 0 {
			return 1, nil
		}
		return 0, nil
	case "&&":
		if a != 0 && b != 0 {
			return 1, nil
		}
		return 0, nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<<":
		return a << uint(b), nil
	case ">>":
		return a >> uint(b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, errors.Errorf("%s: division by zero in constant expression", pos)
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, errors.Errorf("%s: division by zero in constant expression", pos)
		}
		return a % b, nil
	}
	panic("unreachable operator " + op)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (c *condExprParser) unary() (int64, error) {
	t := c.peek()
	switch {
	case t.Is("!"):
		c.advance()
		v, err := c.unary()
		if err != nil {
			return 0, err
		}
		return boolInt(v == 0), nil
	case t.Is("~"):
		c.advance()
		v, err := c.unary()
		if err != nil {
			return 0, err
		}
		return ^v, nil
	case t.Is("-"):
		c.advance()
		v, err := c.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case t.Is("+"):
		c.advance()
		return c.unary()
	}
	return c.primary()
}

func (c *condExprParser) primary() (int64, error) {
	t := c.advance()
	switch {
	case t.Kind == token.IntLit:
		return t.Num.Int, nil
	case t.Kind == token.CharLit:
		return int64(decodeCharLit(t.Text)), nil
	case t.Is("("):
		v, err := c.ternary()
		if err != nil {
			return 0, err
		}
		if !c.peek().Is(")") {
			return 0, errors.Errorf("%s: expected ')'", c.peek().Pos)
		}
		c.advance()
		return v, nil
	}
	return 0, errors.Errorf("%s: unexpected token %q in constant expression", t.Pos, t.Text)
}

// decodeCharLit extracts the integer value of a single-quoted character
// literal's first rune, ignoring escape-sequence edge cases not needed
// by #if expressions in practice.
func decodeCharLit(text string) rune {
	if len(text) < 3 {
		return 0
	}
	inner := text[1 : len(text)-1]
	if len(inner) > 1 && inner[0] == '\\' {
		u, err := strconv.Unquote(text)
		if err == nil && len(u) > 0 {
			return []rune(u)[0]
		}
	}
	return []rune(inner)[0]
}
