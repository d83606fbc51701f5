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

package backend

import "fmt"

// StringPool deduplicates CONST-STRING operands by value, assigning
// each unique string a synthesized label the first time it is seen
// (spec.md §4.G "String literal pooling").
type StringPool struct {
	prefix string
	labels map[string]string
	order  []string
	next   int
}

// NewStringPool creates a pool whose synthesized labels are prefixed
// with prefix (conventionally the backend's private-symbol prefix,
// e.g. ".LC" for GAS or "LC" for NASM-style local labels).
func NewStringPool(prefix string) *StringPool {
	return &StringPool{prefix: prefix, labels: make(map[string]string)}
}

// Label returns the pooled label for s, creating one if this is the
// first occurrence.
func (p *StringPool) Label(s string) string {
	if lbl, ok := p.labels[s]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("%s%d", p.prefix, p.next)
	p.next++
	p.labels[s] = lbl
	p.order = append(p.order, s)
	return lbl
}

// Entries returns the pooled strings in first-seen order paired with
// their labels, for emitting the data section.
func (p *StringPool) Entries() []StringEntry {
	out := make([]StringEntry, len(p.order))
	for i, s := range p.order {
		out[i] = StringEntry{Label: p.labels[s], Value: s}
	}
	return out
}

// Reset empties the pool between module compilations.
func (p *StringPool) Reset() {
	p.labels = make(map[string]string)
	p.order = nil
	p.next = 0
}

// StringEntry is one pooled string ready for data-section emission.
type StringEntry struct {
	Label string
	Value string
}

// EscapeC renders s as a sequence of byte-escaped characters suitable
// for a `.ascii`/`.string`-style assembler directive (both GAS and NASM
// accept C-style backslash escapes inside quoted string operands).
func EscapeC(s string) string {
	out := make([]byte, 0, len(s)+8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		case '\t':
			out = append(out, '\\', 't')
		default:
			if c < 0x20 || c >= 0x7f {
				out = append(out, []byte(fmt.Sprintf("\\%03o", c))...)
			} else {
				out = append(out, c)
			}
		}
	}
	return string(out)
}
