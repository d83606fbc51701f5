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

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/mcc/cpp"
)

func TestStdFlagSetAndString(t *testing.T) {
	var s stdFlag
	tests := []struct {
		in   string
		want cpp.Std
	}{
		{"c89", cpp.StdC89}, {"gnu89", cpp.StdC89},
		{"c99", cpp.StdC99}, {"c11", cpp.StdC11},
		{"c17", cpp.StdC17}, {"c23", cpp.StdC23},
	}
	for _, tt := range tests {
		if err := s.Set(tt.in); err != nil {
			t.Fatalf("Set(%q): %v", tt.in, err)
		}
		if s.std != tt.want {
			t.Errorf("Set(%q) -> std = %v, want %v", tt.in, s.std, tt.want)
		}
		if tt.in[0] == 'c' && s.String() != tt.in {
			t.Errorf("String() after Set(%q) = %q", tt.in, s.String())
		}
	}
	if err := s.Set("c55"); err == nil {
		t.Error("Set(c55) should fail for an unsupported standard")
	}
}

func TestArchFlagSet(t *testing.T) {
	var a archFlag
	for _, v := range []string{"x86-gas", "x86-nasm", "ppc64le"} {
		if err := a.Set(v); err != nil {
			t.Errorf("Set(%q): %v", v, err)
		}
		if a.String() != v {
			t.Errorf("String() = %q, want %q", a.String(), v)
		}
	}
	if err := a.Set("arm64"); err == nil {
		t.Error("Set(arm64) should fail for an unsupported target")
	}
}

func TestRepeatableFlagLists(t *testing.T) {
	var d defineList
	d.Set("FOO=1")
	d.Set("BAR")
	if len(d) != 2 || d[0] != "FOO=1" || d[1] != "BAR" {
		t.Errorf("defineList = %v, want [FOO=1 BAR]", d)
	}

	var i includeList
	i.Set("/usr/include")
	if len(i) != 1 {
		t.Errorf("includeList = %v, want 1 entry", i)
	}

	var u undefList
	u.Set("NDEBUG")
	if len(u) != 1 {
		t.Errorf("undefList = %v, want 1 entry", u)
	}
}

func TestSelectBackendUnknownArch(t *testing.T) {
	if _, err := selectBackend("mips", nil); err == nil {
		t.Error("selectBackend(mips) should fail for an unknown target")
	}
}

// TestRunEndToEnd drives run() against a real temp file through the full
// cpp -> parser -> lower -> opt -> backend pipeline, the same wiring
// main() uses.
func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.c")
	if err := os.WriteFile(path, []byte("int add(int a, int b) { return a + b; }\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	err := run(path, w, nil, nil, nil, cpp.StdC17, "x86-gas", false, false, false, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	w.Flush()
	if !strings.Contains(out.String(), "add:") {
		t.Errorf("output missing function label:\n%s", out.String())
	}
}

func TestRunDumpIR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.c")
	if err := os.WriteFile(path, []byte("int f(void) { return 1; }\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	if err := run(path, w, nil, nil, nil, cpp.StdC17, "x86-gas", false, false, true, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	w.Flush()
	if !strings.Contains(out.String(), "func f") {
		t.Errorf("IR dump missing function: %s", out.String())
	}
}

func TestRunDefinesAndMacroDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.c")
	if err := os.WriteFile(path, []byte("VALUE\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	defines := defineList{"VALUE=7"}
	if err := run(path, w, nil, defines, nil, cpp.StdC17, "x86-gas", false, true, false, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	w.Flush()
	if !strings.Contains(out.String(), "#define VALUE 7") {
		t.Errorf("macro dump missing VALUE: %s", out.String())
	}
}
