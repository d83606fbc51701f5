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
	"github.com/pkg/errors"

	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/ast"
	"github.com/db47h/mcc/cc/types"
)

// lowerExpr lowers node to the SSA value it evaluates to.
func (fn *funcBuilder) lowerExpr(node *ast.Node) (*ir.Value, error) {
	switch node.Kind {
	case ast.ExprIntLit:
		return ir.ConstInt(fn.exprType(node), node.IntVal), nil

	case ast.ExprFloatLit:
		return ir.ConstFloat(types.DoubleID, node.FloatVal), nil

	case ast.ExprCharLit:
		var v int64
		if len(node.StrVal) > 0 {
			v = int64(node.StrVal[0])
		}
		return ir.ConstInt(types.CharID, v), nil

	case ast.ExprStringLit:
		return ir.ConstString(fn.ptrTo(types.CharID), node.StrVal), nil

	case ast.ExprNullPointer:
		return ir.ConstNull(fn.ptrTo(types.VoidID)), nil

	case ast.ExprIdent:
		addr, elemTy, err := fn.lvalue(node)
		if err != nil {
			return nil, err
		}
		return fn.b.Load(elemTy, addr), nil

	case ast.ExprComma:
		var v *ir.Value
		for _, e := range node.Elems {
			var err error
			v, err = fn.lowerExpr(e)
			if err != nil {
				return nil, err
			}
		}
		return v, nil

	case ast.ExprBinary:
		return fn.lowerBinary(node)

	case ast.ExprUnary:
		return fn.lowerUnary(node)

	case ast.ExprPostfix:
		return fn.lowerPostfix(node)

	case ast.ExprTernary:
		return fn.lowerTernaryExpr(node)

	case ast.ExprCall:
		return fn.lowerCall(node)

	case ast.ExprCast:
		v, err := fn.lowerExpr(node.Operand)
		if err != nil {
			return nil, err
		}
		return fn.convert(v, fn.exprType(node.Operand), node.TypeName), nil

	case ast.ExprSizeof:
		ty := node.TypeName
		if ty == types.VoidID && node.Operand != nil {
			ty = fn.exprType(node.Operand)
		}
		return ir.ConstInt(types.LongID, int64(fn.reg.SizeOf(ty))), nil

	case ast.ExprAlignof:
		return ir.ConstInt(types.LongID, int64(fn.reg.AlignOf(node.TypeName))), nil
	}
	return nil, errors.Errorf("lower: unsupported expression kind %d", node.Kind)
}

// lvalue resolves node to the address it names and the type stored
// there, for assignment targets and the "&"/"*" unary operators.
func (fn *funcBuilder) lvalue(node *ast.Node) (*ir.Value, types.ID, error) {
	switch node.Kind {
	case ast.ExprIdent:
		if addr, ok := fn.lookup(node.Name); ok {
			t := fn.reg.At(addr.Type)
			return addr, t.Pointee, nil
		}
		if g := fn.lookupGlobal(node.Name); g != nil {
			addr := &ir.Value{Kind: ir.ValGlobal, Type: fn.ptrTo(g.Type), Global: g}
			return addr, g.Type, nil
		}
		return nil, 0, errors.Errorf("lower: undefined identifier %q", node.Name)

	case ast.ExprUnary:
		if node.Op == "*" {
			ptr, err := fn.lowerExpr(node.Operand)
			if err != nil {
				return nil, 0, err
			}
			elem := types.VoidID
			if t := fn.reg.At(fn.exprType(node.Operand)); t.Kind == types.Pointer {
				elem = t.Pointee
			}
			return ptr, elem, nil
		}
	}
	return nil, 0, errors.Errorf("lower: expression is not assignable")
}

func (fn *funcBuilder) lookupGlobal(name string) *ir.Global {
	for _, g := range fn.mod.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

var assignBaseOp = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"<<=": "<<", ">>=": ">>", "&=": "&", "^=": "^", "|=": "|",
}

func (fn *funcBuilder) lowerBinary(node *ast.Node) (*ir.Value, error) {
	switch node.Op {
	case "=":
		v, err := fn.lowerExpr(node.Rhs)
		if err != nil {
			return nil, err
		}
		addr, elemTy, err := fn.lvalue(node.Lhs)
		if err != nil {
			return nil, err
		}
		v = fn.convert(v, fn.exprType(node.Rhs), elemTy)
		fn.b.Store(addr, v)
		return v, nil

	case "&&", "||":
		return fn.lowerLogical(node)
	}

	if base, ok := assignBaseOp[node.Op]; ok {
		addr, elemTy, err := fn.lvalue(node.Lhs)
		if err != nil {
			return nil, err
		}
		cur := fn.b.Load(elemTy, addr)
		rhs, err := fn.lowerExpr(node.Rhs)
		if err != nil {
			return nil, err
		}
		rhsTy := fn.exprType(node.Rhs)
		result, err := fn.applyBinOp(base, elemTy, cur, rhsTy, rhs)
		if err != nil {
			return nil, err
		}
		fn.b.Store(addr, result)
		return result, nil
	}

	lhs, err := fn.lowerExpr(node.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := fn.lowerExpr(node.Rhs)
	if err != nil {
		return nil, err
	}
	return fn.applyBinOp(node.Op, fn.exprType(node.Lhs), lhs, fn.exprType(node.Rhs), rhs)
}

// applyBinOp lowers one arithmetic/bitwise/comparison operator, unifying
// operand types via the usual-arithmetic-conversion approximation in
// arithResultType before emitting the instruction.
func (fn *funcBuilder) applyBinOp(op string, lty types.ID, lhs *ir.Value, rty types.ID, rhs *ir.Value) (*ir.Value, error) {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		opTy := fn.arithResultType(lty, rty)
		lhs = fn.convert(lhs, lty, opTy)
		rhs = fn.convert(rhs, rty, opTy)
		ircOp, err := cmpOp(op, fn.reg.IsFloating(opTy), fn.reg.At(opTy).Unsigned)
		if err != nil {
			return nil, err
		}
		return fn.b.BinOp(ircOp, types.BoolID, lhs, rhs), nil
	}

	resTy := fn.arithResultType(lty, rty)
	if op == "<<" || op == ">>" {
		// shift count keeps its own type; only the shifted value widens
		resTy = lty
	} else {
		lhs = fn.convert(lhs, lty, resTy)
		rhs = fn.convert(rhs, rty, resTy)
	}
	floating := fn.reg.IsFloating(resTy)
	unsigned := fn.reg.At(resTy).Unsigned
	opc, err := arithOp(op, floating, unsigned)
	if err != nil {
		return nil, err
	}
	return fn.b.BinOp(opc, resTy, lhs, rhs), nil
}

func arithOp(op string, floating, unsigned bool) (ir.Op, error) {
	switch op {
	case "+":
		if floating {
			return ir.OpFAdd, nil
		}
		return ir.OpAdd, nil
	case "-":
		if floating {
			return ir.OpFSub, nil
		}
		return ir.OpSub, nil
	case "*":
		if floating {
			return ir.OpFMul, nil
		}
		return ir.OpMul, nil
	case "/":
		if floating {
			return ir.OpFDiv, nil
		}
		if unsigned {
			return ir.OpUDiv, nil
		}
		return ir.OpSDiv, nil
	case "%":
		if floating {
			return ir.OpNop, errors.New("lower: floating-point modulo has no operator")
		}
		if unsigned {
			return ir.OpUMod, nil
		}
		return ir.OpSMod, nil
	case "&":
		return ir.OpAnd, nil
	case "|":
		return ir.OpOr, nil
	case "^":
		return ir.OpXor, nil
	case "<<":
		return ir.OpShl, nil
	case ">>":
		if unsigned {
			return ir.OpLShr, nil
		}
		return ir.OpAShr, nil
	}
	return ir.OpNop, errors.Errorf("lower: unsupported binary operator %q", op)
}

func cmpOp(op string, floating, unsigned bool) (ir.Op, error) {
	switch op {
	case "==":
		if floating {
			return ir.OpFCmpEQ, nil
		}
		return ir.OpICmpEQ, nil
	case "!=":
		if floating {
			return ir.OpFCmpNE, nil
		}
		return ir.OpICmpNE, nil
	case "<":
		if floating {
			return ir.OpFCmpLT, nil
		}
		if unsigned {
			return ir.OpICmpULT, nil
		}
		return ir.OpICmpSLT, nil
	case "<=":
		if floating {
			return ir.OpFCmpLE, nil
		}
		if unsigned {
			return ir.OpICmpULE, nil
		}
		return ir.OpICmpSLE, nil
	case ">":
		if floating {
			return ir.OpFCmpGT, nil
		}
		if unsigned {
			return ir.OpICmpUGT, nil
		}
		return ir.OpICmpSGT, nil
	case ">=":
		if floating {
			return ir.OpFCmpGE, nil
		}
		if unsigned {
			return ir.OpICmpUGE, nil
		}
		return ir.OpICmpSGE, nil
	}
	return ir.OpNop, errors.Errorf("lower: unsupported comparison operator %q", op)
}

// lowerLogical lowers "&&"/"||" with short-circuit evaluation, storing
// the result through a temporary slot rather than a PHI, mirroring the
// alloca-for-every-local convention used throughout this package.
func (fn *funcBuilder) lowerLogical(node *ast.Node) (*ir.Value, error) {
	slot := fn.b.Alloca(types.BoolID, fn.ptrTo(types.BoolID))

	lhs, err := fn.condValue(node.Lhs)
	if err != nil {
		return nil, err
	}

	rhsBlk := fn.f.AddBlock(fn.label("logic.rhs"))
	shortBlk := fn.f.AddBlock(fn.label("logic.short"))
	endBlk := fn.f.AddBlock(fn.label("logic.end"))

	if node.Op == "&&" {
		fn.b.CondBr(lhs, rhsBlk, shortBlk)
	} else {
		fn.b.CondBr(lhs, shortBlk, rhsBlk)
	}

	fn.b.SetBlock(rhsBlk)
	rhs, err := fn.condValue(node.Rhs)
	if err != nil {
		return nil, err
	}
	fn.b.Store(slot, rhs)
	fn.b.Br(endBlk)

	fn.b.SetBlock(shortBlk)
	var short int64
	if node.Op == "||" {
		short = 1
	}
	fn.b.Store(slot, ir.ConstInt(types.BoolID, short))
	fn.b.Br(endBlk)

	fn.b.SetBlock(endBlk)
	return fn.b.Load(types.BoolID, slot), nil
}

// condValue lowers node and reduces it to an i1 by comparing against
// zero, the conversion every statement-level condition needs (spec.md
// §4.D's boolean-context implicit conversion).
func (fn *funcBuilder) condValue(node *ast.Node) (*ir.Value, error) {
	v, err := fn.lowerExpr(node)
	if err != nil {
		return nil, err
	}
	ty := fn.exprType(node)
	if ty == types.BoolID {
		return v, nil
	}
	if fn.reg.IsFloating(ty) {
		return fn.b.BinOp(ir.OpFCmpNE, types.BoolID, v, ir.ConstFloat(ty, 0)), nil
	}
	return fn.b.BinOp(ir.OpICmpNE, types.BoolID, v, ir.ConstInt(ty, 0)), nil
}

func (fn *funcBuilder) lowerUnary(node *ast.Node) (*ir.Value, error) {
	switch node.Op {
	case "+":
		return fn.lowerExpr(node.Operand)

	case "-":
		v, err := fn.lowerExpr(node.Operand)
		if err != nil {
			return nil, err
		}
		ty := fn.exprType(node.Operand)
		if fn.reg.IsFloating(ty) {
			return fn.b.UnOp(ir.OpFNeg, ty, v), nil
		}
		return fn.b.UnOp(ir.OpNeg, ty, v), nil

	case "~":
		v, err := fn.lowerExpr(node.Operand)
		if err != nil {
			return nil, err
		}
		return fn.b.UnOp(ir.OpNot, fn.exprType(node.Operand), v), nil

	case "!":
		cond, err := fn.condValue(node.Operand)
		if err != nil {
			return nil, err
		}
		return fn.b.BinOp(ir.OpICmpEQ, types.BoolID, cond, ir.ConstInt(types.BoolID, 0)), nil

	case "&":
		addr, _, err := fn.lvalue(node.Operand)
		if err != nil {
			return nil, err
		}
		return addr, nil

	case "*":
		ptr, err := fn.lowerExpr(node.Operand)
		if err != nil {
			return nil, err
		}
		elem := types.VoidID
		if t := fn.reg.At(fn.exprType(node.Operand)); t.Kind == types.Pointer {
			elem = t.Pointee
		}
		return fn.b.Load(elem, ptr), nil

	case "++", "--":
		return fn.lowerIncDec(node.Operand, node.Op == "++", true)
	}
	return nil, errors.Errorf("lower: unsupported unary operator %q", node.Op)
}

func (fn *funcBuilder) lowerPostfix(node *ast.Node) (*ir.Value, error) {
	switch node.Op {
	case "++", "--":
		return fn.lowerIncDec(node.Operand, node.Op == "++", false)
	}
	return nil, errors.Errorf("lower: unsupported postfix operator %q", node.Op)
}

// lowerIncDec lowers "++x"/"--x"/"x++"/"x--", returning the new value
// for a prefix form and the old value for a postfix one.
func (fn *funcBuilder) lowerIncDec(operand *ast.Node, inc, prefix bool) (*ir.Value, error) {
	addr, elemTy, err := fn.lvalue(operand)
	if err != nil {
		return nil, err
	}
	cur := fn.b.Load(elemTy, addr)

	var step *ir.Value
	floating := fn.reg.IsFloating(elemTy)
	if floating {
		step = ir.ConstFloat(elemTy, 1)
	} else {
		step = ir.ConstInt(elemTy, 1)
	}

	var next *ir.Value
	switch {
	case floating && inc:
		next = fn.b.BinOp(ir.OpFAdd, elemTy, cur, step)
	case floating && !inc:
		next = fn.b.BinOp(ir.OpFSub, elemTy, cur, step)
	case !floating && inc:
		next = fn.b.BinOp(ir.OpAdd, elemTy, cur, step)
	default:
		next = fn.b.BinOp(ir.OpSub, elemTy, cur, step)
	}
	fn.b.Store(addr, next)

	if prefix {
		return next, nil
	}
	return cur, nil
}

func (fn *funcBuilder) lowerTernaryExpr(node *ast.Node) (*ir.Value, error) {
	resTy := fn.exprType(node)
	slot := fn.b.Alloca(resTy, fn.ptrTo(resTy))

	cond, err := fn.condValue(node.Cond)
	if err != nil {
		return nil, err
	}

	thenBlk := fn.f.AddBlock(fn.label("ternary.then"))
	elseBlk := fn.f.AddBlock(fn.label("ternary.else"))
	endBlk := fn.f.AddBlock(fn.label("ternary.end"))
	fn.b.CondBr(cond, thenBlk, elseBlk)

	fn.b.SetBlock(thenBlk)
	tv, err := fn.lowerExpr(node.Then)
	if err != nil {
		return nil, err
	}
	fn.b.Store(slot, fn.convert(tv, fn.exprType(node.Then), resTy))
	fn.b.Br(endBlk)

	fn.b.SetBlock(elseBlk)
	ev, err := fn.lowerExpr(node.Else)
	if err != nil {
		return nil, err
	}
	fn.b.Store(slot, fn.convert(ev, fn.exprType(node.Else), resTy))
	fn.b.Br(endBlk)

	fn.b.SetBlock(endBlk)
	return fn.b.Load(resTy, slot), nil
}

func (fn *funcBuilder) lowerCall(node *ast.Node) (*ir.Value, error) {
	var callee *ir.Value
	retTy := types.IntID

	if node.Callee.Kind == ast.ExprIdent {
		if f := fn.mod.FuncByName(node.Callee.Name); f != nil {
			callee = &ir.Value{Kind: ir.ValFunction, Type: fn.ptrTo(f.RetType), Func: f}
			retTy = f.RetType
		}
	}
	if callee == nil {
		v, err := fn.lowerExpr(node.Callee)
		if err != nil {
			return nil, err
		}
		callee = v
		if t := fn.reg.At(fn.exprType(node.Callee)); t.Kind == types.Pointer {
			if ft := fn.reg.At(t.Pointee); ft.Kind == types.Function {
				retTy = ft.Return
			}
		}
	}

	args := make([]*ir.Value, 0, len(node.Args))
	for _, a := range node.Args {
		v, err := fn.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return fn.b.Call(retTy, callee, args...), nil
}

// convert emits the conversion instruction(s) needed to coerce a value
// of type from into type to, or returns v unchanged when no conversion
// is needed.
func (fn *funcBuilder) convert(v *ir.Value, from, to types.ID) *ir.Value {
	if from == to {
		return v
	}
	fromFloat := fn.reg.IsFloating(from)
	toFloat := fn.reg.IsFloating(to)
	switch {
	case fromFloat && toFloat:
		if fn.reg.SizeOf(to) > fn.reg.SizeOf(from) {
			return fn.b.UnOp(ir.OpFPExt, to, v)
		}
		if fn.reg.SizeOf(to) < fn.reg.SizeOf(from) {
			return fn.b.UnOp(ir.OpFPTrunc, to, v)
		}
		return v
	case fromFloat && !toFloat:
		if fn.reg.At(to).Unsigned {
			return fn.b.UnOp(ir.OpFPToUI, to, v)
		}
		return fn.b.UnOp(ir.OpFPToSI, to, v)
	case !fromFloat && toFloat:
		if fn.reg.At(from).Unsigned {
			return fn.b.UnOp(ir.OpUIToFP, to, v)
		}
		return fn.b.UnOp(ir.OpSIToFP, to, v)
	default:
		if !fn.reg.IsInteger(from) || !fn.reg.IsInteger(to) {
			return fn.b.UnOp(ir.OpBitcast, to, v)
		}
		if fn.reg.SizeOf(to) > fn.reg.SizeOf(from) {
			if fn.reg.At(from).Unsigned {
				return fn.b.UnOp(ir.OpZExt, to, v)
			}
			return fn.b.UnOp(ir.OpSExt, to, v)
		}
		if fn.reg.SizeOf(to) < fn.reg.SizeOf(from) {
			return fn.b.UnOp(ir.OpTrunc, to, v)
		}
		return v
	}
}

// arithResultType approximates C's usual arithmetic conversions: the
// wider floating type wins, otherwise the wider integer type, unsigned
// breaking a same-size tie.
func (fn *funcBuilder) arithResultType(l, r types.ID) types.ID {
	lf, rf := fn.reg.IsFloating(l), fn.reg.IsFloating(r)
	if lf || rf {
		switch {
		case lf && !rf:
			return l
		case rf && !lf:
			return r
		case fn.reg.SizeOf(l) >= fn.reg.SizeOf(r):
			return l
		default:
			return r
		}
	}
	ls, rs := fn.reg.SizeOf(l), fn.reg.SizeOf(r)
	switch {
	case ls > rs:
		return l
	case rs > ls:
		return r
	case fn.reg.At(l).Unsigned:
		return l
	case fn.reg.At(r).Unsigned:
		return r
	default:
		return l
	}
}

// exprType infers node's static type without a full type-checking pass
// (spec.md leaves "the front end" responsible for the checker this
// package substitutes a minimal local inference for): it trusts
// node.Type when the parser has already resolved it, and otherwise
// derives a plausible type bottom-up from literal kinds, declared
// variable/parameter types, and operator shape.
func (fn *funcBuilder) exprType(node *ast.Node) types.ID {
	if node.Type != types.VoidID {
		return node.Type
	}
	switch node.Kind {
	case ast.ExprIntLit:
		if node.Unsigned {
			return fn.reg.New(types.Type{Kind: types.Int, Unsigned: true})
		}
		return types.IntID
	case ast.ExprFloatLit:
		return types.DoubleID
	case ast.ExprCharLit:
		return types.CharID
	case ast.ExprStringLit:
		return fn.ptrTo(types.CharID)
	case ast.ExprNullPointer:
		return fn.ptrTo(types.VoidID)
	case ast.ExprIdent:
		if addr, ok := fn.lookup(node.Name); ok {
			return fn.reg.At(addr.Type).Pointee
		}
		if g := fn.lookupGlobal(node.Name); g != nil {
			return g.Type
		}
		return types.IntID
	case ast.ExprBinary:
		if node.Op == "=" {
			return fn.exprType(node.Lhs)
		}
		if _, ok := assignBaseOp[node.Op]; ok {
			return fn.exprType(node.Lhs)
		}
		switch node.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			return types.BoolID
		}
		return fn.arithResultType(fn.exprType(node.Lhs), fn.exprType(node.Rhs))
	case ast.ExprUnary:
		switch node.Op {
		case "!":
			return types.BoolID
		case "&":
			return fn.ptrTo(fn.exprType(node.Operand))
		case "*":
			if t := fn.reg.At(fn.exprType(node.Operand)); t.Kind == types.Pointer {
				return t.Pointee
			}
			return types.IntID
		default:
			return fn.exprType(node.Operand)
		}
	case ast.ExprPostfix:
		return fn.exprType(node.Operand)
	case ast.ExprCall:
		if node.Callee.Kind == ast.ExprIdent {
			if f := fn.mod.FuncByName(node.Callee.Name); f != nil {
				return f.RetType
			}
		}
		return types.IntID
	case ast.ExprCast:
		return node.TypeName
	case ast.ExprTernary:
		return fn.exprType(node.Then)
	case ast.ExprComma:
		if len(node.Elems) > 0 {
			return fn.exprType(node.Elems[len(node.Elems)-1])
		}
		return types.VoidID
	case ast.ExprSizeof, ast.ExprAlignof:
		return types.LongID
	}
	return types.IntID
}
