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

import (
	"fmt"
	"io"
)

// Dump writes m's functions and globals as a debug-readable textual IR,
// grounded on asm.Disassemble's writer-sink dump and lang/retro.DumpVM.
// spec.md names no canonical IR textual format (Non-goal); this exists
// solely to make IR inspectable between optimizer passes, not to define
// one.
func (m *Module) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "; module %s\n", m.Name); err != nil {
		return err
	}
	for _, g := range m.Globals {
		if _, err := fmt.Fprintf(w, "global %s\n", g.Name); err != nil {
			return err
		}
	}
	for _, f := range m.Funcs {
		if err := f.dump(w); err != nil {
			return err
		}
	}
	return nil
}

func (f *Func) dump(w io.Writer) error {
	if f.IsDeclaration() {
		_, err := fmt.Fprintf(w, "declare %s\n", f.Name)
		return err
	}
	if _, err := fmt.Fprintf(w, "func %s {\n", f.Name); err != nil {
		return err
	}
	for _, b := range f.Blocks {
		if _, err := fmt.Fprintf(w, "%s:\n", b.Name); err != nil {
			return err
		}
		for _, instr := range b.Instrs() {
			if err := instr.dump(w); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func (i *Instr) dump(w io.Writer) error {
	var err error
	if i.Result != nil {
		_, err = fmt.Fprintf(w, "  %s = %s", i.Name, i.Op)
	} else {
		_, err = fmt.Fprintf(w, "  %s", i.Op)
	}
	if err != nil {
		return err
	}
	for idx, v := range i.Operands {
		sep := ", "
		if idx == 0 {
			sep = " "
		}
		if _, err := fmt.Fprintf(w, "%s%s", sep, v.dumpString()); err != nil {
			return err
		}
	}
	for _, s := range i.Succs {
		if _, err := fmt.Fprintf(w, " -> %s", s.Name); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

func (v *Value) dumpString() string {
	switch v.Kind {
	case ValConstInt:
		return fmt.Sprintf("%d", v.ConstInt)
	case ValConstFloat:
		return fmt.Sprintf("%g", v.ConstFloat)
	case ValConstNull:
		return "null"
	case ValConstString:
		return fmt.Sprintf("%q", v.ConstString)
	case ValParam:
		return "%" + v.ParamName
	case ValGlobal:
		return "@" + v.Global.Name
	case ValFunction:
		return "@" + v.Func.Name
	case ValInstr:
		return "%" + v.Instr.Name
	}
	return "?"
}
