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

// Package cpp implements the C preprocessor: directive handling, the
// macro table, the conditional-inclusion stack, and the hide-set
// rescanning macro expander (spec.md §4.B).
package cpp

import "github.com/db47h/mcc/token"

// Macro is a #define'd name: object-like or function-like, with an owned
// replacement token list. Per spec.md §3, lifetime runs from #define to
// #undef or end of translation unit.
type Macro struct {
	Name      string
	FuncLike  bool
	Params    []string // ordered, named
	Variadic  bool
	Body      []*token.Token // owned, unexpanded
	DefinedAt token.Position
}

// sameBody reports whether two macro bodies are token-for-token identical
// (kind + text), which is what ISO C requires for a silent redefinition.
func sameBody(a, b *Macro) bool {
	if a.FuncLike != b.FuncLike || a.Variadic != b.Variadic || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	if len(a.Body) != len(b.Body) {
		return false
	}
	for i := range a.Body {
		if a.Body[i].Kind != b.Body[i].Kind || a.Body[i].Text != b.Body[i].Text {
			return false
		}
	}
	return true
}

// paramIndex returns the index of name in m.Params, or -1. __VA_ARGS__
// resolves to the synthetic slot len(Params) for variadic macros.
func (m *Macro) paramIndex(name string) int {
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	if m.Variadic && name == "__VA_ARGS__" {
		return len(m.Params)
	}
	return -1
}
