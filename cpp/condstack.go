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

package cpp

import "github.com/db47h/mcc/token"

// condFrame is one level of #if/#ifdef/#ifndef nesting (spec.md §3
// "Conditional stack frame").
type condFrame struct {
	taken    bool // current branch is being compiled
	anyTaken bool // some branch in this chain has already been taken
	elseSeen bool
	origin   token.Position
}

// condStack tracks nested conditional-inclusion state for one translation
// unit (never shared across units, per spec.md §5).
type condStack struct {
	frames []condFrame
}

// active reports whether tokens should currently be emitted: true only
// when every frame on the stack has its branch taken.
func (c *condStack) active() bool {
	for _, f := range c.frames {
		if !f.taken {
			return false
		}
	}
	return true
}

func (c *condStack) push(taken bool, origin token.Position) {
	c.frames = append(c.frames, condFrame{taken: taken, anyTaken: taken, origin: origin})
}

func (c *condStack) top() *condFrame {
	if len(c.frames) == 0 {
		return nil
	}
	return &c.frames[len(c.frames)-1]
}

func (c *condStack) pop() { c.frames = c.frames[:len(c.frames)-1] }

func (c *condStack) empty() bool { return len(c.frames) == 0 }
