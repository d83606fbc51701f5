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

package parser

import "github.com/db47h/mcc/cpp"

// FeatureSet reports which standard-specific grammar features the active
// standard provides (spec.md §4.D "Feature gating"). The parser consults
// only HasGeneric, rejecting _Generic before C11; the other predicates
// gate nothing, and _Bool and _Alignof are accepted under every standard.
type FeatureSet struct {
	std cpp.Std
}

// NewFeatureSet derives a FeatureSet from the active preprocessor standard.
func NewFeatureSet(std cpp.Std) FeatureSet { return FeatureSet{std: std} }

func (f FeatureSet) atLeast(std cpp.Std) bool { return f.std >= std }

// HasBool reports whether _Bool/bool is a keyword (C99 and later).
func (f FeatureSet) HasBool() bool { return f.atLeast(cpp.StdC99) }

// HasStaticAssert reports whether _Static_assert is available (C11+).
func (f FeatureSet) HasStaticAssert() bool { return f.atLeast(cpp.StdC11) }

// HasGeneric reports whether _Generic selection expressions are available
// (C11+).
func (f FeatureSet) HasGeneric() bool { return f.atLeast(cpp.StdC11) }

// HasAlignas reports whether _Alignas/_Alignof are available (C11+).
func (f FeatureSet) HasAlignas() bool { return f.atLeast(cpp.StdC11) }

// HasNullptr reports whether the nullptr constant and nullptr_t are
// available (C23+).
func (f FeatureSet) HasNullptr() bool { return f.atLeast(cpp.StdC23) }
