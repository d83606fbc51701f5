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

var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "bool": true, "struct": true, "union": true, "enum": true,
	"_Complex": true,
}

var storageClassKeywords = map[string]bool{
	"typedef": true, "extern": true, "static": true, "auto": true,
	"register": true, "_Thread_local": true,
}

var qualifierKeywords = map[string]bool{
	"const": true, "volatile": true, "restrict": true, "_Atomic": true,
}

var funcSpecKeywords = map[string]bool{"inline": true, "_Noreturn": true}

// startsDeclSpec reports whether the lookahead can begin a
// declaration-specifiers production: a storage class, a type qualifier, a
// function specifier, a built-in type keyword, or a typedef name
// currently visible in scope.
func (p *Parser) startsDeclSpec() bool {
	if p.tok.Kind != token.Ident {
		return false
	}
	t := p.tok.Text
	if storageClassKeywords[t] || qualifierKeywords[t] || funcSpecKeywords[t] || typeKeywords[t] {
		return true
	}
	return p.typedefs.isTypedef(t)
}

// startsTypeName reports whether the token just inside an already-peeked
// "(" begins a type-name, disambiguating a cast or compound literal from
// a parenthesized expression (spec.md §4.D "cast-expression"). Callers
// check this only when p.tok is itself "(", so it inspects peek2 rather
// than p.tok.
func (p *Parser) startsTypeName() bool {
	t := p.peek2()
	if t.Kind != token.Ident {
		return false
	}
	if storageClassKeywords[t.Text] || qualifierKeywords[t.Text] || funcSpecKeywords[t.Text] || typeKeywords[t.Text] {
		return true
	}
	return p.typedefs.isTypedef(t.Text)
}

// declSpec accumulates the parsed declaration-specifiers: storage class,
// qualifiers and the resolved base type.
type declSpec struct {
	storage  string // "", "typedef", "extern", "static", "auto", "register", "_Thread_local"
	qual     types.Qualifier
	base     types.ID
	inline   bool
	noreturn bool
}

// parseDeclSpecs parses the declaration-specifiers sequence: an unordered
// mix of storage-class specifiers, type qualifiers, function specifiers
// and exactly one type-specifier group, per C's grammar (spec.md §4.D).
func (p *Parser) parseDeclSpecs() declSpec {
	var spec declSpec
	var sawType bool
	var signedness string // "", "signed", "unsigned"
	longCount := 0
	var kw string // last scalar keyword seen: "int", "char", "float", "double", "short", "void", "_Bool"

	for {
		if p.tok.Kind != token.Ident {
			break
		}
		t := p.tok.Text
		switch {
		case storageClassKeywords[t]:
			spec.storage = t
			p.advance()
		case qualifierKeywords[t]:
			switch t {
			case "const":
				spec.qual |= types.Const
			case "volatile":
				spec.qual |= types.Volatile
			case "restrict":
				spec.qual |= types.Restrict
			}
			p.advance()
		case t == "inline":
			spec.inline = true
			p.advance()
		case t == "_Noreturn":
			spec.noreturn = true
			p.advance()
		case t == "signed" || t == "unsigned":
			signedness = t
			sawType = true
			p.advance()
		case t == "long":
			longCount++
			sawType = true
			p.advance()
		case t == "struct" || t == "union":
			spec.base = p.parseAggregateSpec(t)
			sawType = true
		case t == "enum":
			spec.base = p.parseEnumSpec()
			sawType = true
		case t == "void" || t == "char" || t == "short" || t == "int" ||
			t == "float" || t == "double" || t == "_Bool" || t == "bool":
			kw = t
			sawType = true
			p.advance()
		case !sawType && p.typedefs.isTypedef(t):
			spec.base = p.namedTypedefType(t)
			sawType = true
			p.advance()
		default:
			goto done
		}
	}
done:
	if spec.base != 0 || (sawType && (kw == "void" || kw == "struct" || kw == "union" || kw == "enum")) {
		if !sawType {
			spec.base = types.IntID
		}
		return spec
	}
	spec.base = resolveScalarSpec(kw, signedness, longCount)
	return spec
}

// resolveScalarSpec maps the built-in keyword combination to a basic
// type ID, defaulting to int when no type keyword was present at all
// (implicit int, a pre-C99 rule kept here because the teacher's own
// grammar tolerates it loosely as well).
func resolveScalarSpec(kw, signedness string, longCount int) types.ID {
	unsigned := signedness == "unsigned"
	switch kw {
	case "void":
		return types.VoidID
	case "char":
		return types.CharID
	case "short":
		return types.ShortID
	case "float":
		return types.FloatID
	case "double":
		if longCount > 0 {
			return types.LDoubleID
		}
		return types.DoubleID
	case "_Bool", "bool":
		return types.BoolID
	}
	switch longCount {
	case 0:
		if unsigned {
			return types.IntID // the unsigned keyword is not recorded: unsigned int gets the same IntID as int
		}
		return types.IntID
	case 1:
		return types.LongID
	default:
		return types.LLongID
	}
}

func (p *Parser) namedTypedefType(name string) types.ID {
	return p.typedefs.resolve(name)
}

// parseAggregateSpec parses "struct|union [tag] [{ member-decl-list }]".
func (p *Parser) parseAggregateSpec(kind string) types.ID {
	p.advance() // "struct"/"union"
	var tag string
	if p.tok.Kind == token.Ident && !p.at("{") {
		tag = p.tok.Text
		p.advance()
	}
	k := types.Struct
	if kind == "union" {
		k = types.Union
	}
	id := p.reg.NewIncompleteAggregate(k, tag)
	if p.accept("{") {
		var fields []types.Field
		for !p.at("}") && p.tok.Kind != token.EOF {
			base := p.parseDeclSpecs()
			for {
				name, ty, bitWidth := p.parseFieldDeclarator(base.base)
				fields = append(fields, types.Field{Name: name, Type: ty, BitWidth: bitWidth})
				if !p.accept(",") {
					break
				}
			}
			p.expect(";")
		}
		p.expect("}")
		p.reg.CompleteAggregate(id, fields)
	}
	return id
}

// parseFieldDeclarator parses one struct/union member declarator,
// including the optional ": width" bitfield suffix.
func (p *Parser) parseFieldDeclarator(base types.ID) (name string, ty types.ID, bitWidth int) {
	name, ty = p.parseDeclarator(base)
	if p.accept(":") {
		w := p.parseAssignment()
		if w.Kind == ast.ExprIntLit {
			bitWidth = int(w.IntVal)
		}
		if bitWidth == 0 {
			bitWidth = 1
		}
	}
	return name, ty, bitWidth
}

// parseEnumSpec parses "enum [tag] [{ enumerator-list }]".
func (p *Parser) parseEnumSpec() types.ID {
	p.advance() // "enum"
	var tag string
	if p.tok.Kind == token.Ident && !p.at("{") {
		tag = p.tok.Text
		p.advance()
	}
	id := p.reg.NewIncompleteAggregate(types.Enum, tag)
	if p.accept("{") {
		var names []string
		for !p.at("}") && p.tok.Kind != token.EOF {
			name, _ := p.expectIdent()
			names = append(names, name)
			if p.accept("=") {
				p.parseAssignment()
			}
			if !p.accept(",") {
				break
			}
		}
		p.expect("}")
		p.reg.CompleteEnum(id, names)
	}
	return id
}

// --- Inside-out declarator parsing (spec.md §4.D) ---
//
// A declarator is parsed by first collecting the pointer-prefix stack
// ("*const *"), then parsing the direct-declarator (an identifier, or a
// parenthesized nested declarator for grouping), then the suffix chain
// of array and function modifiers, and finally wrapping the base type
// inside-out: suffixes bind tighter than the leading pointers, and a
// parenthesized inner declarator's suffixes apply to the inner
// declarator, not to the outer pointer, which is exactly what makes
// "int (*fp)(void)" a pointer to function rather than a function
// returning a pointer.

type declaratorSuffix struct {
	isFunc   bool
	params   []types.Param
	variadic bool
	isArray  bool
	arrayLen int64
	hasLen   bool
}

// parseDeclarator parses a (possibly abstract) declarator and returns the
// declared name (empty for an abstract declarator) and its full type,
// built by wrapping base according to the pointer/suffix/grouping
// structure just parsed.
//
// This is a thin wrapper around declaratorBuilder, which does the actual
// inside-out assembly and is recursive so that arbitrarily nested
// grouping -- "int (*(*pfp)(void))[3]", a pointer to a function
// returning a pointer to array-of-3-int -- threads the base type through
// every level correctly: a parenthesized sub-declarator's own pointers
// and suffixes are resolved relative to whatever the *enclosing*
// suffixes and pointers decide its "base" is, not relative to the
// outermost base directly.
func (p *Parser) parseDeclarator(base types.ID) (name string, ty types.ID) {
	name, build := p.declaratorBuilder()
	return name, build(base)
}

// declaratorBuilder parses one declarator without yet knowing the base
// type it applies to, returning the declared name and a function that
// completes the type given that base. Applying a declarator's own
// pointer-prefix binds tighter to the base than its own suffix-chain
// (array/function), matching the standard rule that postfix
// (array/function) declarator operators bind tighter to the identifier
// than the prefix '*' does: "*a[10]" is array of pointer, not pointer to
// array, so pointers wrap the base first (innermost) and suffixes wrap
// that result (outermost). A parenthesized group nested inside reverses
// roles only for what is inside the parens; the enclosing suffix-chain
// still applies to whatever flows out of the group.
func (p *Parser) declaratorBuilder() (name string, build func(types.ID) types.ID) {
	nPtr, ptrQuals := p.parsePointerPrefix()

	var groupName string
	var groupBuild func(types.ID) types.ID
	grouped := false
	switch {
	case p.accept("("):
		if p.startsDeclSpec() || p.at(")") {
			// Not a grouped declarator after all: this is the parameter
			// list of an abstract function declarator, e.g. "int(void)".
			suf := p.parseParamList()
			p.expect(")")
			suffixes := append([]declaratorSuffix{suf}, p.parseSuffixChain()...)
			return "", func(base types.ID) types.ID {
				return p.wrapSuffixes(p.wrapPointers(base, nPtr, ptrQuals), suffixes)
			}
		}
		groupName, groupBuild = p.declaratorBuilder()
		p.expect(")")
		grouped = true
	case p.tok.Kind == token.Ident:
		name = p.tok.Text
		p.advance()
	}

	suffixes := p.parseSuffixChain()
	outer := func(base types.ID) types.ID {
		t := p.wrapPointers(base, nPtr, ptrQuals)
		return p.wrapSuffixes(t, suffixes)
	}
	if !grouped {
		return name, outer
	}
	return groupName, func(base types.ID) types.ID {
		return groupBuild(outer(base))
	}
}

// parsePointerPrefix consumes a run of "*" (each optionally followed by
// qualifiers) and returns how many there were plus each one's qualifier
// set, in source order (innermost pointer first, as wrapPointers applies
// them).
func (p *Parser) parsePointerPrefix() (n int, quals []types.Qualifier) {
	for p.accept("*") {
		var q types.Qualifier
		for p.tok.Kind == token.Ident && qualifierKeywords[p.tok.Text] {
			switch p.tok.Text {
			case "const":
				q |= types.Const
			case "volatile":
				q |= types.Volatile
			case "restrict":
				q |= types.Restrict
			}
			p.advance()
		}
		quals = append(quals, q)
		n++
	}
	return n, quals
}

func (p *Parser) wrapPointers(base types.ID, n int, quals []types.Qualifier) types.ID {
	t := base
	for i := 0; i < n; i++ {
		var q types.Qualifier
		if i < len(quals) {
			q = quals[i]
		}
		t = p.reg.NewPointer(t, q)
	}
	return t
}

// parseSuffixChain parses the direct-declarator suffix sequence: any
// number of "[expr]" and "(params)" groups, in source order. wrapSuffixes
// applies them right to left, so the first-encountered suffix binds
// closest to the identifier, per the standard's declarator grammar.
func (p *Parser) parseSuffixChain() []declaratorSuffix {
	var suffixes []declaratorSuffix
	for {
		switch {
		case p.accept("["):
			var s declaratorSuffix
			s.isArray = true
			for p.tok.Kind == token.Ident && qualifierKeywords[p.tok.Text] {
				p.advance()
			}
			if !p.at("]") {
				e := p.parseAssignment()
				if e.Kind == ast.ExprIntLit {
					s.arrayLen = e.IntVal
					s.hasLen = true
				}
			}
			p.expect("]")
			suffixes = append(suffixes, s)
		case p.at("("):
			p.advance()
			s := p.parseParamList()
			p.expect(")")
			suffixes = append(suffixes, s)
		default:
			return suffixes
		}
	}
}

// parseParamList parses a function declarator's parameter-type-list.
// "(void)" with nothing else means zero parameters; "()" is the K&R-style
// unprototyped empty parameter list; anything else is a comma-separated
// parameter-declaration list optionally ending in "...".
func (p *Parser) parseParamList() declaratorSuffix {
	var s declaratorSuffix
	s.isFunc = true
	if p.at(")") {
		return s
	}
	if p.atKW("void") && p.peek2().Is(")") {
		p.advance()
		return s
	}
	for {
		if p.accept("...") {
			s.variadic = true
			break
		}
		base := p.parseDeclSpecs()
		name, ty := p.parseDeclarator(base.base)
		s.params = append(s.params, types.Param{Name: name, Type: ty})
		if !p.accept(",") {
			break
		}
	}
	return s
}

func (p *Parser) wrapSuffixes(base types.ID, suffixes []declaratorSuffix) types.ID {
	// Suffixes are applied right to left, each wrapping the result of the
	// one after it, so the first one parsed ends up outermost: "a[3][4]"
	// is array-of-3 of array-of-4, and "a()(int)" is a function returning
	// a function taking int.
	t := base
	for i := len(suffixes) - 1; i >= 0; i-- {
		s := suffixes[i]
		switch {
		case s.isFunc:
			t = p.reg.NewFunction(t, s.params, s.variadic)
		case s.isArray:
			n := int64(-1)
			if s.hasLen {
				n = s.arrayLen
			}
			t = p.reg.NewArray(t, n)
		}
	}
	return t
}

// parseTypeName parses an abstract type-name: declaration-specifiers
// followed by an optional abstract declarator (spec.md §4.D cast/sizeof
// operands).
func (p *Parser) parseTypeName() types.ID {
	spec := p.parseDeclSpecs()
	_, ty := p.parseDeclarator(spec.base)
	return ty
}

// parseInitializerList parses "{ initializer (, initializer)* [,] }",
// including designated initializers ([idx]= / .field=).
func (p *Parser) parseInitializerList() *ast.Node {
	pos := p.tok.Pos
	p.expect("{")
	n := &ast.Node{Kind: ast.ExprInitList, Pos: pos}
	for !p.at("}") && p.tok.Kind != token.EOF {
		n.Elems = append(n.Elems, p.parseInitializer())
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	return n
}

func (p *Parser) parseInitializer() *ast.Node {
	if p.at("{") {
		return p.parseInitializerList()
	}
	if p.at("[") || p.at(".") {
		pos := p.tok.Pos
		var designators []*ast.Node
		for p.at("[") || p.at(".") {
			if p.accept("[") {
				idx := p.parseAssignment()
				p.expect("]")
				designators = append(designators, idx)
			} else {
				p.advance() // "."
				name, mpos := p.expectIdent()
				designators = append(designators, &ast.Node{Kind: ast.ExprMember, Pos: mpos, Member: name})
			}
		}
		p.expect("=")
		val := p.parseInitializer()
		return &ast.Node{Kind: ast.ExprDesignatedInit, Pos: pos, Designators: designators, Value: val}
	}
	return p.parseAssignment()
}

// parseExternalDecl parses one top-level external-declaration: a function
// definition or a (possibly multi-declarator) declaration. A single
// source declaration can introduce several names ("int a, *b, c[3];"), so
// this returns one node per declared name.
func (p *Parser) parseExternalDecl() []*ast.Node {
	if !p.startsDeclSpec() {
		p.error(p.tok.Pos, "expected declaration, got %q", p.tok.Text)
		return nil
	}
	spec := p.parseDeclSpecs()
	if p.accept(";") {
		return nil // plain "struct S;" / "enum E;" tag declaration
	}
	pos := p.tok.Pos
	name, ty := p.parseDeclarator(spec.base)
	if spec.storage == "typedef" {
		p.typedefs.declare(name, ty)
		first := &ast.Node{Kind: ast.DeclTypedef, Pos: pos, Name: name, DeclType: ty}
		decls := []*ast.Node{first}
		for p.accept(",") {
			n2, t2 := p.parseDeclarator(spec.base)
			p.typedefs.declare(n2, t2)
			decls = append(decls, &ast.Node{Kind: ast.DeclTypedef, Pos: p.tok.Pos, Name: n2, DeclType: t2})
		}
		p.expect(";")
		return decls
	}
	if p.at("{") {
		body := p.parseCompoundStmt()
		return []*ast.Node{{Kind: ast.DeclFunction, Pos: pos, Name: name, DeclType: ty, Body: body}}
	}
	first := &ast.Node{Kind: ast.DeclVariable, Pos: pos, Name: name, DeclType: ty}
	if p.accept("=") {
		first.Init = p.parseInitializer()
	}
	decls := []*ast.Node{first}
	for p.accept(",") {
		n2, t2 := p.parseDeclarator(spec.base)
		d2 := &ast.Node{Kind: ast.DeclVariable, Pos: p.tok.Pos, Name: n2, DeclType: t2}
		if p.accept("=") {
			d2.Init = p.parseInitializer()
		}
		decls = append(decls, d2)
	}
	p.expect(";")
	return decls
}
