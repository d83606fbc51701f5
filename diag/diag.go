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

// Package diag is the diagnostics sink: the out-of-scope "diagnostic
// formatting" collaborator named in spec.md §1/§6 is represented here
// only by the Sink interface and a minimal stderr-writing default.
package diag

import (
	"fmt"
	"io"
)

// Severity classifies a Diagnostic, per spec.md §6.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "?"
	}
}

// Diagnostic is one reported message: severity, location and text.
type Diagnostic struct {
	Severity Severity
	Pos      string
	Message  string
}

// Sink collects diagnostics and tracks the error count, per spec.md §6.
type Sink interface {
	Report(Diagnostic)
	ErrorCount() int
}

// StderrSink is the default Sink: writes to an io.Writer (ordinarily
// os.Stderr) and tracks how many Error-severity diagnostics it has seen.
type StderrSink struct {
	w        io.Writer
	errCount int
}

// NewStderrSink creates a StderrSink writing to w.
func NewStderrSink(w io.Writer) *StderrSink {
	return &StderrSink{w: w}
}

func (s *StderrSink) Report(d Diagnostic) {
	if d.Severity == Error {
		s.errCount++
	}
	fmt.Fprintf(s.w, "%s: %s: %s\n", d.Pos, d.Severity, d.Message)
}

func (s *StderrSink) ErrorCount() int { return s.errCount }
