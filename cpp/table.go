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
	"sort"
)

// Table is the macro table: a name-keyed hash map with O(1) amortized
// lookup, per spec.md §4.B. Go's builtin map already gives us the
// chained-bucket hash table the spec calls for; we just own the
// define/undef/redefinition-diagnosis policy around it.
type Table struct {
	m map[string]*Macro
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{m: make(map[string]*Macro, 64)}
}

// Lookup returns the macro named name, or nil if undefined.
func (t *Table) Lookup(name string) *Macro {
	return t.m[name]
}

// Defined reports whether name is currently #define'd.
func (t *Table) Defined(name string) bool {
	_, ok := t.m[name]
	return ok
}

// Define installs mac, replacing any prior definition of the same name.
// It reports redefined (a prior definition existed) and warn (the prior
// definition had a different body, which ISO C requires diagnosing as a
// warning rather than silently accepting or rejecting).
func (t *Table) Define(mac *Macro) (redefined, warn bool) {
	if prev, ok := t.m[mac.Name]; ok {
		redefined = true
		warn = !sameBody(prev, mac)
	}
	t.m[mac.Name] = mac
	return redefined, warn
}

// Undef removes name from the table. Undefining a name that was never
// defined is not an error per ISO C.
func (t *Table) Undef(name string) {
	delete(t.m, name)
}

// Dump writes every currently-defined macro to w in #define form, sorted
// by name for reproducible output, the "-dM" style debug aid (grounded
// on asm.Disassemble's writer-sink dump pattern).
func (t *Table) Dump(w io.Writer) error {
	names := make([]string, 0, len(t.m))
	for name := range t.m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mac := t.m[name]
		if _, err := fmt.Fprintf(w, "#define %s", mac.Name); err != nil {
			return err
		}
		if mac.FuncLike {
			if _, err := fmt.Fprintf(w, "(%s)", joinParams(mac)); err != nil {
				return err
			}
		}
		for _, tok := range mac.Body {
			if _, err := fmt.Fprintf(w, " %s", tok.Text); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func joinParams(mac *Macro) string {
	s := ""
	for i, p := range mac.Params {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	if mac.Variadic {
		if len(mac.Params) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s
}
