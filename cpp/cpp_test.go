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

package cpp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/mcc/cpp"
	"github.com/db47h/mcc/diag"
	"github.com/db47h/mcc/token"
)

// memOpener serves files from an in-memory map, for tests that don't
// want to touch the filesystem.
type memOpener map[string]string

func (m memOpener) Open(name string) ([]byte, string, error) {
	src, ok := m[name]
	if !ok {
		return nil, "", errFileNotFound(name)
	}
	return []byte(src), ".", nil
}

type errFileNotFound string

func (e errFileNotFound) Error() string { return "file not found: " + string(e) }

func expandAll(t *testing.T, src string, opts ...cpp.Option) ([]string, int) {
	t.Helper()
	sink := diag.NewStderrSink(&bytes.Buffer{})
	p := cpp.New(memOpener{"t.c": src}, sink, opts...)
	if err := p.Open("t.c"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	var got []string
	for {
		tok, err := p.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tok.Kind == token.EOF {
			break
		}
		got = append(got, tok.Text)
	}
	return got, sink.ErrorCount()
}

func TestObjectLikeMacro(t *testing.T) {
	got, errs := expandAll(t, "#define FOO 42\nFOO\n")
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	want := []string{"42"}
	assertTokens(t, got, want)
}

func TestFuncLikeMacro(t *testing.T) {
	got, errs := expandAll(t, "#define ADD(a,b) a+b\nADD(1,2)\n")
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"1", "+", "2"})
}

// TestIndirectFuncLikeInvocation mirrors "#define A B / #define B(x) x
// / A(42)": B's own name only becomes visible once A has expanded, so
// the invocation has to be recognized on the rescan, not the first pass.
func TestIndirectFuncLikeInvocation(t *testing.T) {
	got, errs := expandAll(t, "#define A B\n#define B(x) x\nA(42)\n")
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"42"})
}

func TestSelfReferentialMacroDoesNotExpandForever(t *testing.T) {
	got, errs := expandAll(t, "#define X X + 1\nX\n")
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"X", "+", "1"})
}

// TestTokenPasteThenRescan covers spec.md §8 scenario 1: "##" pastes
// "v" and "1" into the single identifier "v1" inside CAT's expansion,
// and that pasted identifier is only recognized as (non-)macro text on
// the rescan that follows, not re-interpreted as two separate tokens.
func TestTokenPasteThenRescan(t *testing.T) {
	src := "#define CAT(a,b) a##b\n#define X(n) CAT(v,n)\nint X(1) = 7;\n"
	got, errs := expandAll(t, src)
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"int", "v1", "=", "7", ";"})
}

// TestHidesetBluePaintsSelfReferentialFuncLikeMacro covers spec.md §8
// scenario 3: "f(f)(1)" expands the argument "f" once (it is not
// hidden against f's own name yet) but the "f" coming from f's own
// replacement list is hidden against further expansion of f, so the
// result is "f + f (1)", not an infinite loop and not "f + f(1)"
// re-invoking f a second time.
func TestHidesetBluePaintsSelfReferentialFuncLikeMacro(t *testing.T) {
	src := "#define f(x) x+f\nf(f)(1)\n"
	got, errs := expandAll(t, src)
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"f", "+", "f", "(", "1", ")"})
}

func TestUndef(t *testing.T) {
	got, errs := expandAll(t, "#define FOO 1\n#undef FOO\nFOO\n")
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"FOO"})
}

func TestConditionalInclusion(t *testing.T) {
	src := "#define FLAG 1\n#if FLAG\nyes\n#else\nno\n#endif\n"
	got, errs := expandAll(t, src)
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"yes"})
}

func TestConditionalElse(t *testing.T) {
	src := "#if 0\nyes\n#else\nno\n#endif\n"
	got, errs := expandAll(t, src)
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"no"})
}

func TestIfdef(t *testing.T) {
	src := "#define FOO\n#ifdef FOO\nyes\n#endif\n#ifndef FOO\nno\n#endif\n"
	got, errs := expandAll(t, src)
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"yes"})
}

func TestRedefinitionSameBodySilent(t *testing.T) {
	_, errs := expandAll(t, "#define FOO 1\n#define FOO 1\nFOO\n")
	if errs != 0 {
		t.Fatalf("identical-body redefinition should not error, got %d errors", errs)
	}
}

func TestDefineOption(t *testing.T) {
	got, errs := expandAll(t, "FOO\n", cpp.Define("FOO", "99"))
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"99"})
}

func TestUndefineOption(t *testing.T) {
	got, errs := expandAll(t, "FOO\n", cpp.Define("FOO", "1"), cpp.Undefine("FOO"))
	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	assertTokens(t, got, []string{"FOO"})
}

func TestInclude(t *testing.T) {
	sink := diag.NewStderrSink(&bytes.Buffer{})
	p := cpp.New(memOpener{
		"main.c": "#include \"inc.h\"\nMAIN\n",
		"inc.h":  "#define MAIN 7\n",
	}, sink)
	if err := p.Open("main.c"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	var got []string
	for {
		tok, err := p.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tok.Kind == token.EOF {
			break
		}
		got = append(got, tok.Text)
	}
	assertTokens(t, got, []string{"7"})
}

func TestDumpPreprocessOnly(t *testing.T) {
	sink := diag.NewStderrSink(&bytes.Buffer{})
	p := cpp.New(memOpener{"t.c": "#define FOO 1\nFOO + FOO\n"}, sink)
	if err := p.Open("t.c"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	var buf bytes.Buffer
	if err := p.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	want := "1 + 1"
	if got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
}

func TestMacrosDump(t *testing.T) {
	sink := diag.NewStderrSink(&bytes.Buffer{})
	p := cpp.New(memOpener{"t.c": "#define FOO 1\n#define BAR(x) x\n"}, sink)
	if err := p.Open("t.c"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	for {
		tok, err := p.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	var buf bytes.Buffer
	if err := p.Macros().Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "#define BAR(x) x") {
		t.Errorf("macro dump missing BAR entry: %q", out)
	}
	if !strings.Contains(out, "#define FOO 1") {
		t.Errorf("macro dump missing FOO entry: %q", out)
	}
}

func assertTokens(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %q, want %q (full: got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}
