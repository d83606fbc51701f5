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

import (
	"path/filepath"

	"github.com/db47h/mcc/lex"
	"github.com/pkg/errors"
)

// DefaultMaxIncludeDepth is the default include-nesting cap (spec.md §4.B).
const DefaultMaxIncludeDepth = 200

// includeFrame snapshots the lexer state for the including file so it can
// be re-entered once the nested file is fully consumed (spec.md §3
// "Include stack frame").
type includeFrame struct {
	lexer    *lex.Lexer
	filename string
	dir      string // directory of this file, for "a.h" relative lookups
}

// FileOpener is the out-of-scope filesystem collaborator (spec.md §1):
// the preprocessor only consumes this interface, never os.Open directly,
// so it can be driven from in-memory sources in tests.
type FileOpener interface {
	// Open returns the contents of name and the directory name resolved
	// to, for relative-include bookkeeping.
	Open(name string) (contents []byte, dir string, err error)
}

// includeStack resolves #include targets and tracks nested files.
type includeStack struct {
	frames   []includeFrame
	search   []string // -I search paths, in order
	opener   FileOpener
	maxDepth int
}

func newIncludeStack(opener FileOpener, search []string) *includeStack {
	return &includeStack{opener: opener, search: search, maxDepth: DefaultMaxIncludeDepth}
}

// resolve implements the search order of spec.md §4.B: for a non-system
// include, (a) the directory of the including file, (b) -I paths in
// order, (c) the literal filename; system includes skip (a).
func (s *includeStack) resolve(name string, system bool) (contents []byte, dir string, err error) {
	try := func(base string) (bool, []byte, string, error) {
		path := name
		if base != "" {
			path = filepath.Join(base, name)
		}
		c, d, err := s.opener.Open(path)
		if err == nil {
			return true, c, d, nil
		}
		return false, nil, "", err
	}

	if !system && len(s.frames) > 0 {
		if ok, c, d, _ := try(s.frames[len(s.frames)-1].dir); ok {
			return c, d, nil
		}
	}
	for _, p := range s.search {
		if ok, c, d, _ := try(p); ok {
			return c, d, nil
		}
	}
	if ok, c, d, _ := try(""); ok {
		return c, d, nil
	}
	return nil, "", errors.Errorf("%s: no such file or directory", name)
}

func (s *includeStack) depth() int { return len(s.frames) }

func (s *includeStack) push(f includeFrame) error {
	if len(s.frames) >= s.maxDepth {
		return errors.Errorf("#include nested too deeply (limit %d)", s.maxDepth)
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *includeStack) pop() (includeFrame, bool) {
	if len(s.frames) == 0 {
		return includeFrame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}
