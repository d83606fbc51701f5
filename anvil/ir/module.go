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

package ir

import "github.com/db47h/mcc/cc/types"

// Global is a module-level data symbol (a non-function global variable).
type Global struct {
	Name string
	Type types.ID
	Init *Value // nil for a tentative/external definition
}

// Module is one compiled translation unit's worth of ANVIL IR: its type
// registry, global variables and functions (spec.md §3 "Module").
type Module struct {
	Name    string
	Types   *types.Registry
	Globals []*Global
	Funcs   []*Func
}

// NewModule creates an empty module named name, owning reg as its type
// registry.
func NewModule(name string, reg *types.Registry) *Module {
	return &Module{Name: name, Types: reg}
}

// AddGlobal appends a new global variable declaration/definition.
func (m *Module) AddGlobal(g *Global) { m.Globals = append(m.Globals, g) }

// AddFunc appends f to the module's function list.
func (m *Module) AddFunc(f *Func) { m.Funcs = append(m.Funcs, f) }

// FuncByName returns the first function named name, or nil.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
