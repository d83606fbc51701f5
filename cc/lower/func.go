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

package lower

import (
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/types"
)

// funcBuilder lowers one function body, tracking lexical scopes of
// local variable addresses and the enclosing loop's break/continue
// targets.
type funcBuilder struct {
	reg *types.Registry
	mod *ir.Module
	f   *ir.Func
	b   *ir.Builder

	scopes []map[string]*ir.Value

	breakTargets    []*ir.Block
	continueTargets []*ir.Block

	blockSeq int
}

func newFuncBuilder(reg *types.Registry, mod *ir.Module, f *ir.Func) *funcBuilder {
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	return &funcBuilder{reg: reg, mod: mod, f: f, b: b}
}

func (fn *funcBuilder) pushScope() { fn.scopes = append(fn.scopes, make(map[string]*ir.Value)) }
func (fn *funcBuilder) popScope()  { fn.scopes = fn.scopes[:len(fn.scopes)-1] }

func (fn *funcBuilder) declare(name string, addr *ir.Value) {
	fn.scopes[len(fn.scopes)-1][name] = addr
}

func (fn *funcBuilder) lookup(name string) (*ir.Value, bool) {
	for i := len(fn.scopes) - 1; i >= 0; i-- {
		if v, ok := fn.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// bindParams gives every parameter a stack slot, so it is addressable
// and reassignable exactly like a local variable.
func (fn *funcBuilder) bindParams() {
	fn.pushScope()
	for _, p := range fn.f.Params {
		pt := fn.ptrTo(p.Type)
		addr := fn.b.Alloca(p.Type, pt)
		fn.b.Store(addr, p.Value)
		fn.declare(p.Name, addr)
	}
}

// ptrTo returns (creating if necessary) the registry's pointer-to-elem
// type.
func (fn *funcBuilder) ptrTo(elem types.ID) types.ID {
	return fn.reg.NewPointer(elem, 0)
}

func (fn *funcBuilder) terminateImplicitReturn() {
	if fn.b.Block() == nil {
		return
	}
	if !fn.b.Block().Terminator() {
		if fn.f.RetType == types.VoidID {
			fn.b.Ret(nil)
		} else {
			fn.b.Ret(ir.ConstInt(fn.f.RetType, 0))
		}
	}
}

func (fn *funcBuilder) lowerCompound(node *ast.Node) error {
	fn.pushScope()
	defer fn.popScope()
	for _, item := range node.Decls {
		if err := fn.lowerBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (fn *funcBuilder) lowerBlockItem(node *ast.Node) error {
	switch node.Kind {
	case ast.DeclVariable:
		return fn.lowerLocalDecl(node)
	default:
		return fn.lowerStmt(node)
	}
}

func (fn *funcBuilder) lowerLocalDecl(node *ast.Node) error {
	pt := fn.ptrTo(node.DeclType)
	addr := fn.b.Alloca(node.DeclType, pt)
	fn.declare(node.Name, addr)
	if node.Init != nil {
		v, err := fn.lowerExpr(node.Init)
		if err != nil {
			return err
		}
		fn.b.Store(addr, fn.convert(v, fn.exprType(node.Init), node.DeclType))
	}
	return nil
}
