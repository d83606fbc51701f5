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

import "github.com/db47h/mcc/cc/types"

// typedefEntry records whether an identifier is a visible typedef name
// in some scope and, if so, which type it names.
type typedefEntry struct {
	isType bool
	typ    types.ID
}

// typedefScope tracks which identifiers currently name a type, per
// lexical block, so the declarator parser can disambiguate
// "T * x;" (declaration) from "T * x;" (multiplication expression
// statement) at parse time, per spec.md §4.D "Typedef handling".
type typedefScope struct {
	scopes []map[string]typedefEntry
}

func newTypedefScope() *typedefScope {
	s := &typedefScope{}
	s.push()
	return s
}

func (s *typedefScope) push() { s.scopes = append(s.scopes, map[string]typedefEntry{}) }

func (s *typedefScope) pop() { s.scopes = s.scopes[:len(s.scopes)-1] }

// declare marks name as a typedef naming typ in the innermost scope.
func (s *typedefScope) declare(name string, typ types.ID) {
	s.scopes[len(s.scopes)-1][name] = typedefEntry{isType: true, typ: typ}
}

// shadow marks name as NOT a typedef in the innermost scope, so that a
// local declaration ("int T;" inside a block where T is a file-scope
// typedef) shadows the outer typedef name for the rest of the block, per
// the standard's scoping rules for ordinary identifiers.
func (s *typedefScope) shadow(name string) {
	s.scopes[len(s.scopes)-1][name] = typedefEntry{}
}

// isTypedef reports whether name currently resolves to a typedef,
// searching from the innermost scope outward and stopping at the first
// scope that has an entry (shadowing included) for it.
func (s *typedefScope) isTypedef(name string) bool {
	e, _ := s.lookup(name)
	return e.isType
}

// resolve returns the type a visible typedef name resolves to. Callers
// must only call this after isTypedef reported true.
func (s *typedefScope) resolve(name string) types.ID {
	e, _ := s.lookup(name)
	return e.typ
}

func (s *typedefScope) lookup(name string) (typedefEntry, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return typedefEntry{}, false
}
