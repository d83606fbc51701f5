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

package token

import "sort"

// Hideset is the "blue paint" attached to every token: the set of macro
// names currently forbidden from expanding that token, per spec.md §3/§4.B.
//
// Represented as a sorted slice rather than a map: hidesets are small (a
// handful of names deep even for heavily nested macros) and are compared
// and unioned far more often than looked up individually, so a sorted
// slice with a merge-union beats map allocation overhead.
type Hideset []string

// Contains reports whether name is in the hideset.
func (h Hideset) Contains(name string) bool {
	i := sort.SearchStrings(h, name)
	return i < len(h) && h[i] == name
}

// Union returns the hideset containing the union of h and other, sorted
// and de-duplicated. h and other are never mutated. When one of them is
// empty the other is returned as is, so the result can share backing
// storage with an operand.
func (h Hideset) Union(other Hideset) Hideset {
	if len(h) == 0 {
		return other
	}
	if len(other) == 0 {
		return h
	}
	out := make(Hideset, 0, len(h)+len(other))
	i, j := 0, 0
	for i < len(h) && j < len(other) {
		switch {
		case h[i] < other[j]:
			out = append(out, h[i])
			i++
		case h[i] > other[j]:
			out = append(out, other[j])
			j++
		default:
			out = append(out, h[i])
			i++
			j++
		}
	}
	out = append(out, h[i:]...)
	out = append(out, other[j:]...)
	return out
}

// Add returns a hideset equal to h plus name.
func (h Hideset) Add(name string) Hideset {
	return h.Union(Hideset{name})
}

// Intersect returns the set of names present in both h and other. Used when
// painting the result of a "##" paste: ISO C says the hideset of a pasted
// token is the intersection of its two operands' hidesets, not the union.
func (h Hideset) Intersect(other Hideset) Hideset {
	if len(h) == 0 || len(other) == 0 {
		return nil
	}
	out := make(Hideset, 0, len(h))
	i, j := 0, 0
	for i < len(h) && j < len(other) {
		switch {
		case h[i] < other[j]:
			i++
		case h[i] > other[j]:
			j++
		default:
			out = append(out, h[i])
			i++
			j++
		}
	}
	return out
}
