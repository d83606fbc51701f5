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

package ppc64le_test

import (
	"strings"
	"testing"

	"github.com/db47h/mcc/anvil/backend/ppc64le"
	"github.com/db47h/mcc/anvil/ir"
	"github.com/db47h/mcc/cc/types"
)

func buildAddOneFunc() (*types.Registry, *ir.Module) {
	reg := types.NewRegistry()
	f := ir.NewFunc("add1", types.IntID, []types.Param{{Name: "x", Type: types.IntID}}, false)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(f)
	b.SetBlock(entry)
	sum := b.BinOp(ir.OpAdd, types.IntID, f.Params[0].Value, ir.ConstInt(types.IntID, 1))
	b.Ret(sum)
	m := ir.NewModule("t", reg)
	m.AddFunc(f)
	return reg, m
}

func TestCodegenModule(t *testing.T) {
	reg, m := buildAddOneFunc()
	be := ppc64le.New(reg)
	if err := be.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer be.Cleanup()
	out, err := be.CodegenModule(m)
	if err != nil {
		t.Fatalf("CodegenModule: %v", err)
	}
	for _, want := range []string{
		"add1:", ".abiversion 2", ".globl add1", "mflr r0", "std r0, 16(r1)", "blr",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q in:\n%s", want, out)
		}
	}
}

func TestStackFrameIncludesELFv2Reserve(t *testing.T) {
	reg, m := buildAddOneFunc()
	be := ppc64le.New(reg)
	if _, err := be.CodegenModule(m); err != nil {
		t.Fatalf("CodegenModule: %v", err)
	}
	f := m.FuncByName("add1")
	if f.StackSize < 32 {
		t.Errorf("StackSize = %d, want at least the 32-byte ELFv2 linkage reserve", f.StackSize)
	}
	if f.StackSize%16 != 0 {
		t.Errorf("StackSize = %d, want a multiple of 16", f.StackSize)
	}
}

func TestStatsTrackedPerFunction(t *testing.T) {
	reg, m := buildAddOneFunc()
	be := ppc64le.New(reg)
	if _, err := be.CodegenModule(m); err != nil {
		t.Fatalf("CodegenModule: %v", err)
	}
	if be.Stats().Count("add1") == 0 {
		t.Error("Stats should record a nonzero instruction count for add1")
	}
	be.Reset()
	if be.Stats().Total() != 0 {
		t.Error("Reset should clear accumulated stats")
	}
}

func TestArchInfo(t *testing.T) {
	reg := types.NewRegistry()
	be := ppc64le.New(reg)
	info := be.ArchInfo()
	if info.PointerSize != 8 || info.BigEndian || info.GPRCount != 32 {
		t.Errorf("ArchInfo = %+v, want 8-byte little-endian with 32 GPRs", info)
	}
}
