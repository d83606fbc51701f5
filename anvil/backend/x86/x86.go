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

// Package x86 implements ANVIL's IA-32 backend, emitting either GAS
// (AT&T) or NASM (Intel) syntax per spec.md §4.G "Syntax dialects". It
// follows the naive per-instruction lowering convention: primary
// register EAX, secondary register ECX, no liveness-driven allocation.
package x86

import (
	"fmt"
	"strings"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

// Dialect selects the assembly syntax emitted.
type Dialect int

const (
	GAS Dialect = iota
	NASM
)

// Backend is the IA-32 code generator. It implements
// backend.Backend.
type Backend struct {
	dialect Dialect
	reg     *types.Registry
	strings *backend.StringPool
	stats   *backend.Stats
}

// New creates an IA-32 backend emitting the given dialect. reg is the
// frontend's type registry, needed to size ALLOCA slots.
func New(dialect Dialect, reg *types.Registry) *Backend {
	b := &Backend{dialect: dialect, reg: reg, stats: backend.NewStats()}
	lblPrefix := ".LC"
	if dialect == NASM {
		lblPrefix = "LC"
	}
	b.strings = backend.NewStringPool(lblPrefix)
	return b
}

func (b *Backend) Init() error { return nil }
func (b *Backend) Cleanup()    {}
func (b *Backend) Reset() {
	b.strings.Reset()
	b.stats.Reset()
}

// Stats returns the running per-function emitted-instruction counts.
func (b *Backend) Stats() *backend.Stats { return b.stats }

// ArchInfo reports IA-32 machine characteristics (spec.md §4.G
// "arch_info").
func (b *Backend) ArchInfo() backend.ArchInfo {
	return backend.ArchInfo{
		PointerSize:  4,
		WordSize:     4,
		GPRCount:     6, // eax ecx edx ebx esi edi
		FPRCount:     8, // x87/SSE stack, naive model
		BigEndian:    false,
		StackGrowsUp: false,
		HasCondCodes: true,
	}
}

// CodegenModule emits every function definition followed by the
// pooled string-literal data section.
func (b *Backend) CodegenModule(m *ir.Module) (string, error) {
	var sb strings.Builder
	b.emitModuleHeader(&sb, m)
	for _, f := range m.Funcs {
		if f.IsDeclaration() {
			continue
		}
		text, err := b.CodegenFunc(f)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	b.emitDataSection(&sb)
	return sb.String(), nil
}

func (b *Backend) emitModuleHeader(sb *strings.Builder, m *ir.Module) {
	if b.dialect == NASM {
		fmt.Fprintf(sb, "; module %s\n", m.Name)
		fmt.Fprintf(sb, "section .text\n")
	} else {
		fmt.Fprintf(sb, "# module %s\n", m.Name)
		fmt.Fprintf(sb, ".text\n")
	}
	for _, f := range m.Funcs {
		if !f.IsDeclaration() {
			b.directive(sb, "globl", f.Name)
		}
	}
}

func (b *Backend) emitDataSection(sb *strings.Builder) {
	entries := b.strings.Entries()
	if len(entries) == 0 {
		return
	}
	if b.dialect == NASM {
		fmt.Fprintf(sb, "section .data\n")
	} else {
		fmt.Fprintf(sb, ".data\n")
	}
	for _, e := range entries {
		fmt.Fprintf(sb, "%s:\n", e.Label)
		if b.dialect == NASM {
			fmt.Fprintf(sb, "\tdb \"%s\", 0\n", backend.EscapeC(e.Value))
		} else {
			fmt.Fprintf(sb, "\t.asciz \"%s\"\n", backend.EscapeC(e.Value))
		}
	}
}

func (b *Backend) directive(sb *strings.Builder, name string, args ...string) {
	if b.dialect == NASM {
		fmt.Fprintf(sb, "global %s\n", strings.Join(args, ", "))
		return
	}
	fmt.Fprintf(sb, ".%s %s\n", name, strings.Join(args, ", "))
}

// CodegenFunc lowers one function to assembly text (spec.md §4.G
// "codegen_func").
func (b *Backend) CodegenFunc(f *ir.Func) (string, error) {
	fn := newFuncCtx(b, f)
	return fn.emit()
}
