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
	"strconv"

	"github.com/pkg/errors"

	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/ast"
)

func (fn *funcBuilder) lowerStmt(node *ast.Node) error {
	switch node.Kind {
	case ast.StmtCompound:
		return fn.lowerCompound(node)

	case ast.StmtNull:
		return nil

	case ast.StmtExpr:
		_, err := fn.lowerExpr(node.Value)
		return err

	case ast.StmtReturn:
		if node.Value == nil {
			fn.b.Ret(nil)
			fn.startUnreachableBlock()
			return nil
		}
		v, err := fn.lowerExpr(node.Value)
		if err != nil {
			return err
		}
		fn.b.Ret(v)
		fn.startUnreachableBlock()
		return nil

	case ast.StmtIf:
		return fn.lowerIf(node)

	case ast.StmtWhile:
		return fn.lowerWhile(node)

	case ast.StmtDoWhile:
		return fn.lowerDoWhile(node)

	case ast.StmtFor:
		return fn.lowerFor(node)

	case ast.StmtBreak:
		if len(fn.breakTargets) == 0 {
			return errors.New("lower: break outside loop")
		}
		fn.b.Br(fn.breakTargets[len(fn.breakTargets)-1])
		fn.startUnreachableBlock()
		return nil

	case ast.StmtContinue:
		if len(fn.continueTargets) == 0 {
			return errors.New("lower: continue outside loop")
		}
		fn.b.Br(fn.continueTargets[len(fn.continueTargets)-1])
		fn.startUnreachableBlock()
		return nil
	}
	return errors.Errorf("lower: unsupported statement kind %d", node.Kind)
}

// startUnreachableBlock opens a fresh block after an unconditional
// branch (break/continue/return), so that any statements syntactically
// following it in the same compound still have somewhere to lower into
// even though they are unreachable.
func (fn *funcBuilder) startUnreachableBlock() {
	blk := fn.f.AddBlock(fn.label("unreachable"))
	fn.b.SetBlock(blk)
}

// label returns a function-unique block name built from base, so
// repeated control-flow constructs (two "if" statements, nested loops)
// don't collide when the backend later prefixes labels with the
// function name alone.
func (fn *funcBuilder) label(base string) string {
	fn.blockSeq++
	return base + "." + strconv.Itoa(fn.blockSeq)
}

func (fn *funcBuilder) lowerIf(node *ast.Node) error {
	cond, err := fn.lowerExpr(node.Cond)
	if err != nil {
		return err
	}
	thenBlk := fn.f.AddBlock(fn.label("if.then"))
	var elseBlk *ir.Block
	endBlk := fn.f.AddBlock(fn.label("if.end"))
	if node.Else != nil {
		elseBlk = fn.f.AddBlock(fn.label("if.else"))
		fn.b.CondBr(cond, thenBlk, elseBlk)
	} else {
		fn.b.CondBr(cond, thenBlk, endBlk)
	}

	fn.b.SetBlock(thenBlk)
	if err := fn.lowerStmt(node.Then); err != nil {
		return err
	}
	if !fn.b.Block().Terminator() {
		fn.b.Br(endBlk)
	}

	if node.Else != nil {
		fn.b.SetBlock(elseBlk)
		if err := fn.lowerStmt(node.Else); err != nil {
			return err
		}
		if !fn.b.Block().Terminator() {
			fn.b.Br(endBlk)
		}
	}

	fn.b.SetBlock(endBlk)
	return nil
}

func (fn *funcBuilder) lowerWhile(node *ast.Node) error {
	headerBlk := fn.f.AddBlock(fn.label("while.cond"))
	bodyBlk := fn.f.AddBlock(fn.label("while.body"))
	endBlk := fn.f.AddBlock(fn.label("while.end"))

	fn.b.Br(headerBlk)
	fn.b.SetBlock(headerBlk)
	cond, err := fn.lowerExpr(node.Cond)
	if err != nil {
		return err
	}
	fn.b.CondBr(cond, bodyBlk, endBlk)

	fn.b.SetBlock(bodyBlk)
	fn.breakTargets = append(fn.breakTargets, endBlk)
	fn.continueTargets = append(fn.continueTargets, headerBlk)
	err = fn.lowerStmt(node.Stmt)
	fn.breakTargets = fn.breakTargets[:len(fn.breakTargets)-1]
	fn.continueTargets = fn.continueTargets[:len(fn.continueTargets)-1]
	if err != nil {
		return err
	}
	if !fn.b.Block().Terminator() {
		fn.b.Br(headerBlk)
	}

	fn.b.SetBlock(endBlk)
	return nil
}

func (fn *funcBuilder) lowerDoWhile(node *ast.Node) error {
	bodyBlk := fn.f.AddBlock(fn.label("dowhile.body"))
	condBlk := fn.f.AddBlock(fn.label("dowhile.cond"))
	endBlk := fn.f.AddBlock(fn.label("dowhile.end"))

	fn.b.Br(bodyBlk)
	fn.b.SetBlock(bodyBlk)
	fn.breakTargets = append(fn.breakTargets, endBlk)
	fn.continueTargets = append(fn.continueTargets, condBlk)
	err := fn.lowerStmt(node.Stmt)
	fn.breakTargets = fn.breakTargets[:len(fn.breakTargets)-1]
	fn.continueTargets = fn.continueTargets[:len(fn.continueTargets)-1]
	if err != nil {
		return err
	}
	if !fn.b.Block().Terminator() {
		fn.b.Br(condBlk)
	}

	fn.b.SetBlock(condBlk)
	cond, err := fn.lowerExpr(node.Cond)
	if err != nil {
		return err
	}
	fn.b.CondBr(cond, bodyBlk, endBlk)

	fn.b.SetBlock(endBlk)
	return nil
}

func (fn *funcBuilder) lowerFor(node *ast.Node) error {
	fn.pushScope()
	defer fn.popScope()

	if node.Init != nil {
		if err := fn.lowerBlockItem(node.Init); err != nil {
			return err
		}
	}

	headerBlk := fn.f.AddBlock(fn.label("for.cond"))
	bodyBlk := fn.f.AddBlock(fn.label("for.body"))
	postBlk := fn.f.AddBlock(fn.label("for.post"))
	endBlk := fn.f.AddBlock(fn.label("for.end"))

	fn.b.Br(headerBlk)
	fn.b.SetBlock(headerBlk)
	if node.Cond != nil {
		cond, err := fn.lowerExpr(node.Cond)
		if err != nil {
			return err
		}
		fn.b.CondBr(cond, bodyBlk, endBlk)
	} else {
		fn.b.Br(bodyBlk)
	}

	fn.b.SetBlock(bodyBlk)
	fn.breakTargets = append(fn.breakTargets, endBlk)
	fn.continueTargets = append(fn.continueTargets, postBlk)
	err := fn.lowerStmt(node.Stmt)
	fn.breakTargets = fn.breakTargets[:len(fn.breakTargets)-1]
	fn.continueTargets = fn.continueTargets[:len(fn.continueTargets)-1]
	if err != nil {
		return err
	}
	if !fn.b.Block().Terminator() {
		fn.b.Br(postBlk)
	}

	fn.b.SetBlock(postBlk)
	if node.Post != nil {
		if _, err := fn.lowerExpr(node.Post); err != nil {
			return err
		}
	}
	fn.b.Br(headerBlk)

	fn.b.SetBlock(endBlk)
	return nil
}
