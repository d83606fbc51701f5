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

// Package ppc64le implements ANVIL's PPC64LE ELFv2 backend, emitting
// GAS syntax with ELFv2 ABI framing (spec.md §4.G). Like the x86
// backend it follows the naive per-instruction lowering convention:
// primary register r3, secondary register r4.
package ppc64le

import (
	"fmt"
	"strings"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

// elfv2Reserve is the minimum ELFv2 stack frame: four doublewords for
// the back-chain pointer, CR save, LR save at SP+16 and TOC save at SP+24
// (spec.md §4.G "32-byte minimum frame, LR-save at SP+16, TOC-save at
// SP+24"). The parameter-save area for outgoing arguments starts right
// after it, at SP+elfv2Reserve.
const elfv2Reserve = 32

// Backend is the PPC64LE ELFv2 code generator.
type Backend struct {
	reg     *types.Registry
	strings *backend.StringPool
	stats   *backend.Stats
}

// New creates a PPC64LE backend. reg is the frontend's type registry,
// needed to size ALLOCA slots.
func New(reg *types.Registry) *Backend {
	return &Backend{reg: reg, strings: backend.NewStringPool(".LC"), stats: backend.NewStats()}
}

func (b *Backend) Init() error { return nil }
func (b *Backend) Cleanup()    {}
func (b *Backend) Reset() {
	b.strings.Reset()
	b.stats.Reset()
}

// Stats returns the running per-function emitted-instruction counts.
func (b *Backend) Stats() *backend.Stats { return b.stats }

// ArchInfo reports PPC64LE machine characteristics (spec.md §4.G
// "arch_info").
func (b *Backend) ArchInfo() backend.ArchInfo {
	return backend.ArchInfo{
		PointerSize:  8,
		WordSize:     8,
		GPRCount:     32,
		FPRCount:     32,
		BigEndian:    false,
		StackGrowsUp: false,
		HasCondCodes: true,
	}
}

// CodegenModule emits every function definition followed by the
// pooled string-literal data section.
func (b *Backend) CodegenModule(m *ir.Module) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# module %s\n", m.Name)
	fmt.Fprintf(&sb, "\t.abiversion 2\n\t.section \".text\"\n")
	for _, f := range m.Funcs {
		if !f.IsDeclaration() {
			fmt.Fprintf(&sb, "\t.globl %s\n\t.type %s, @function\n", f.Name, f.Name)
		}
	}
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

func (b *Backend) emitDataSection(sb *strings.Builder) {
	entries := b.strings.Entries()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(sb, "\t.section \".data\"\n")
	for _, e := range entries {
		fmt.Fprintf(sb, "%s:\n\t.string \"%s\"\n", e.Label, backend.EscapeC(e.Value))
	}
}

// CodegenFunc lowers one function to assembly text (spec.md §4.G
// "codegen_func").
func (b *Backend) CodegenFunc(f *ir.Func) (string, error) {
	fn := newFuncCtx(b, f)
	return fn.emit()
}
