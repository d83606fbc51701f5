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

// Package lower bridges the typed AST (cc/ast) to ANVIL IR (anvil/ir):
// the glue a CLI driver needs between parsing and code generation that
// spec.md leaves as an implementation detail of "the front end" (Design
// Notes, PHI lowering paragraph) rather than naming as its own
// component. It covers the subset of C a straight-line, naive-codegen
// compiler needs: scalar locals and globals, arithmetic/bitwise/
// comparison/assignment expressions, and structured control flow.
package lower

import (
	"github.com/pkg/errors"

	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/types"
)

// Lowerer translates one translation unit's AST into an ir.Module.
type Lowerer struct {
	reg *types.Registry
	mod *ir.Module
}

// New creates a Lowerer targeting a fresh module named name, built over
// reg's type graph.
func New(name string, reg *types.Registry) *Lowerer {
	return &Lowerer{reg: reg, mod: ir.NewModule(name, reg)}
}

// Lower translates tu's declarations into l's module.
func (l *Lowerer) Lower(tu *ast.Node) (*ir.Module, error) {
	for _, d := range tu.Decls {
		if err := l.lowerTopLevel(d); err != nil {
			return nil, err
		}
	}
	return l.mod, nil
}

func (l *Lowerer) lowerTopLevel(d *ast.Node) error {
	switch d.Kind {
	case ast.DeclFunction:
		return l.lowerFunc(d)
	case ast.DeclVariable:
		l.mod.AddGlobal(&ir.Global{Name: d.Name, Type: d.DeclType})
		return nil
	case ast.DeclTypedef, ast.DeclStruct, ast.DeclUnion, ast.DeclEnum:
		return nil // type-only declarations have no IR representation
	}
	return errors.Errorf("lower: unsupported top-level declaration kind %d", d.Kind)
}

func (l *Lowerer) lowerFunc(d *ast.Node) error {
	ty := l.reg.At(d.DeclType)
	f := ir.NewFunc(d.Name, ty.Return, ty.Params, ty.Variadic)
	l.mod.AddFunc(f)
	if d.Body == nil {
		return nil // prototype only
	}
	fn := newFuncBuilder(l.reg, l.mod, f)
	fn.bindParams()
	if err := fn.lowerCompound(d.Body); err != nil {
		return err
	}
	fn.terminateImplicitReturn()
	return nil
}
