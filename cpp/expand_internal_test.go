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
	"sort"
	"testing"

	"github.com/db47h/mcc/token"
)

// These tests reach the unexported paste/pasteTokens/stringize helpers
// and expandFuncLike's hideset intersection directly: spec.md §1 calls
// this "the only place where incorrect implementation silently
// produces wrong code," and none of it is visible from the external
// cpp_test package.

func hideset(names ...string) token.Hideset {
	hs := append(token.Hideset(nil), names...)
	sort.Strings(hs)
	return hs
}

func ident(text string, hs ...string) *token.Token {
	return &token.Token{Kind: token.Ident, Text: text, Hideset: hideset(hs...)}
}

func punct(text string, hs ...string) *token.Token {
	return &token.Token{Kind: token.Punct, Text: text, Hideset: hideset(hs...)}
}

func TestPasteTokensConcatenatesSpellingAndIntersectsHidesets(t *testing.T) {
	a := ident("foo", "A", "SHARED")
	b := ident("bar", "B", "SHARED")
	got, err := pasteTokens(a, b)
	if err != nil {
		t.Fatalf("pasteTokens: %v", err)
	}
	if got.Kind != token.Ident || got.Text != "foobar" {
		t.Fatalf("pasteTokens result = %+v, want Ident \"foobar\"", got)
	}
	if len(got.Hideset) != 1 || got.Hideset[0] != "SHARED" {
		t.Errorf("pasteTokens hideset = %v, want [SHARED] (intersection, not union of A/B/SHARED)", got.Hideset)
	}
}

func TestPasteTokensPlacemarkerPassesOtherSideThrough(t *testing.T) {
	a := &token.Token{Kind: token.Placemarker, Hideset: hideset("X")}
	b := ident("y", "X", "Y")
	got, err := pasteTokens(a, b)
	if err != nil {
		t.Fatalf("pasteTokens: %v", err)
	}
	if got.Kind != token.Ident || got.Text != "y" {
		t.Fatalf("pasteTokens(placemarker, y) = %+v, want the y token through unchanged", got)
	}
	if len(got.Hideset) != 1 || got.Hideset[0] != "X" {
		t.Errorf("hideset = %v, want [X] (intersection of {X} and {X,Y})", got.Hideset)
	}
}

func TestPasteTokensInvalidCombinationErrors(t *testing.T) {
	a := &token.Token{Kind: token.IntLit, Text: "1"}
	b := punct("+")
	if _, err := pasteTokens(a, b); err == nil {
		t.Error("pasting \"1\" and \"+\" should fail: relexing \"1+\" does not yield a single token")
	}
}

func TestPasteResolvesDoubleHashInSequence(t *testing.T) {
	raw := []*token.Token{ident("foo"), punct("##"), ident("bar")}
	out, err := paste(raw)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	if len(out) != 1 || out[0].Text != "foobar" {
		t.Fatalf("paste result = %v, want single token \"foobar\"", out)
	}
}

func TestPasteRejectsLeadingDoubleHash(t *testing.T) {
	raw := []*token.Token{punct("##"), ident("x")}
	if _, err := paste(raw); err == nil {
		t.Error("a leading '##' should be a diagnosable error")
	}
}

func TestPasteRejectsTrailingDoubleHash(t *testing.T) {
	raw := []*token.Token{ident("x"), punct("##")}
	if _, err := paste(raw); err == nil {
		t.Error("a trailing '##' should be a diagnosable error")
	}
}

func TestPasteDropsSurvivingPlacemarkers(t *testing.T) {
	raw := []*token.Token{{Kind: token.Placemarker}, ident("x")}
	out, err := paste(raw)
	if err != nil {
		t.Fatalf("paste: %v", err)
	}
	if len(out) != 1 || out[0].Text != "x" {
		t.Fatalf("paste result = %v, want just \"x\" with the lone placemarker dropped", out)
	}
}

func TestStringizeEscapesEmbeddedQuotesAndBackslashes(t *testing.T) {
	arg := []*token.Token{{Kind: token.StringLit, Text: `say "hi"`}}
	got := stringize(arg, token.Position{})
	want := `"say \"hi\""`
	if got.Kind != token.StringLit || got.Text != want {
		t.Errorf("stringize = %q, want %q", got.Text, want)
	}
}

func TestStringizeInsertsSpaceForOriginalWhitespace(t *testing.T) {
	arg := []*token.Token{
		ident("a"),
		{Kind: token.Ident, Text: "b", HadSpace: true},
	}
	got := stringize(arg, token.Position{})
	want := `"a b"`
	if got.Text != want {
		t.Errorf("stringize = %q, want %q", got.Text, want)
	}
}

// TestExpandFuncLikeHidesetIsIntersectionNotUnion exercises the hs'
// computation in expandFuncLike directly: call.Hideset and
// rparen.Hideset are intersected, then mac.Name is added. Using Union
// instead (an easy mistake, since paint itself unions) would leak
// names that only one side carries into the result, defeating the
// blue-paint mechanism spec.md §8 scenario 3 depends on.
func TestExpandFuncLikeHidesetIsIntersectionNotUnion(t *testing.T) {
	table := NewTable()
	mac := &Macro{
		Name:     "ID",
		FuncLike: true,
		Params:   []string{"x"},
		Body:     []*token.Token{ident("x")},
	}
	table.Define(mac)

	call := ident("ID", "OUTER", "SHARED")
	toks := []*token.Token{
		call,
		punct("("),
		ident("1"),
		punct(")", "INNER", "SHARED"),
	}
	e := newExpander(table, toks)
	e.pop() // consume "ID" itself, mirroring Expand's own dispatch loop

	out, err := e.expandFuncLike(call, mac)
	if err != nil {
		t.Fatalf("expandFuncLike: %v", err)
	}
	if len(out) != 1 || out[0].Text != "1" {
		t.Fatalf("expandFuncLike result = %v, want single substituted token \"1\"", out)
	}
	hs := out[0].Hideset
	if hs.Contains("OUTER") || hs.Contains("INNER") {
		t.Errorf("hideset = %v, want neither OUTER nor INNER: hs' is an intersection, a Union bug would leak them", hs)
	}
	if !hs.Contains("ID") || !hs.Contains("SHARED") {
		t.Errorf("hideset = %v, want both ID (painted by this expansion) and SHARED (the true intersection)", hs)
	}
}
