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

package opt

import "github.com/db47h/mcc/anvil/ir"

// Pass is one function-level optimizer pass. It reports whether it
// mutated the function, the signal the pipeline loops on to a fixed
// point (spec.md §4.F).
type Pass func(*ir.Func) bool

// DefaultPasses is the pass list run by Pipeline, in the order the
// spec's sections present them: folding first so strength reduction and
// unrolling see simplified operands, unrolling last since it is the
// only pass that can grow the instruction count passes after it would
// have to re-simplify.
var DefaultPasses = []Pass{
	ConstFold,
	StrengthReduce,
	UnrollLoops,
}

// Pipeline runs passes against f repeatedly until a full round makes no
// change.
func Pipeline(f *ir.Func, passes []Pass) {
	for {
		changed := false
		for _, p := range passes {
			if p(f) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// OptimizeModule runs the default pipeline over every function
// definition in m.
func OptimizeModule(m *ir.Module) {
	for _, f := range m.Funcs {
		if f.IsDeclaration() {
			continue
		}
		Pipeline(f, DefaultPasses)
	}
}
