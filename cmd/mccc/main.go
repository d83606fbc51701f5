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

// Command mccc drives the MCC/ANVIL pipeline end to end: preprocess,
// parse, lower to IR, optimize, and emit assembly text for the
// selected target. Flag handling and top-level error reporting follow
// cmd/retro/main.go's fileList/cellSizeBits/atExit shape.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/db47h/mcc/anvil/backend"
	"github.com/db47h/mcc/anvil/backend/ppc64le"
	"github.com/db47h/mcc/anvil/backend/x86"
	"github.com/db47h/mcc/anvil/opt"
	"github.com/db47h/mcc/cc/lower"
	"github.com/db47h/mcc/cc/parser"
	"github.com/db47h/mcc/cc/types"
	"github.com/db47h/mcc/cpp"
	"github.com/db47h/mcc/diag"
)

// defineList collects repeatable -D name[=value] flags.
type defineList []string

func (d *defineList) String() string     { return "" }
func (d *defineList) Set(s string) error { *d = append(*d, s); return nil }
func (d *defineList) Get() interface{}   { return *d }

// includeList collects repeatable -I dir flags.
type includeList []string

func (l *includeList) String() string     { return "" }
func (l *includeList) Set(s string) error { *l = append(*l, s); return nil }
func (l *includeList) Get() interface{}   { return *l }

// undefList collects repeatable -U name flags.
type undefList []string

func (u *undefList) String() string     { return "" }
func (u *undefList) Set(s string) error { *u = append(*u, s); return nil }
func (u *undefList) Get() interface{}   { return *u }

// stdFlag validates -std against the supported standard names.
type stdFlag struct{ std cpp.Std }

func (s *stdFlag) String() string {
	switch s.std {
	case cpp.StdC89:
		return "c89"
	case cpp.StdC99:
		return "c99"
	case cpp.StdC11:
		return "c11"
	case cpp.StdC17:
		return "c17"
	case cpp.StdC23:
		return "c23"
	}
	return "c17"
}

func (s *stdFlag) Set(v string) error {
	switch v {
	case "c89", "gnu89":
		s.std = cpp.StdC89
	case "c99", "gnu99":
		s.std = cpp.StdC99
	case "c11", "gnu11":
		s.std = cpp.StdC11
	case "c17", "gnu17":
		s.std = cpp.StdC17
	case "c23", "gnu23":
		s.std = cpp.StdC23
	default:
		return errors.Errorf("unsupported -std value %q", v)
	}
	return nil
}

// archFlag selects the code generation target.
type archFlag struct{ name string }

func (a *archFlag) String() string { return a.name }

func (a *archFlag) Set(v string) error {
	switch v {
	case "x86-gas", "x86-nasm", "ppc64le":
		a.name = v
		return nil
	default:
		return errors.Errorf("unsupported -march value %q (want x86-gas, x86-nasm or ppc64le)", v)
	}
}

var debug bool

// atExit follows cmd/retro/main.go's debug-vs-plain stderr reporting:
// %+v with a wrapped stack trace in debug mode, a short %v otherwise.
func atExit(err error) {
	if err == nil {
		return
	}
	if debug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}

func main() {
	var (
		includes   includeList
		defines    defineList
		undefs     undefList
		std        = stdFlag{std: cpp.StdC17}
		arch       = archFlag{name: "x86-gas"}
		outFile    string
		emitPrep   bool
		dumpMacros bool
		dumpIR     bool
		showStats  bool
	)

	flag.Var(&includes, "I", "add `dir` to the #include search path (repeatable)")
	flag.Var(&defines, "D", "predefine macro `name[=value]` (repeatable)")
	flag.Var(&undefs, "U", "remove predefined macro `name` (repeatable)")
	flag.Var(&std, "std", "C standard: c89, c99, c11, c17 or c23")
	flag.Var(&arch, "march", "target: x86-gas, x86-nasm or ppc64le")
	flag.StringVar(&outFile, "o", "", "write output to `file` instead of stdout")
	flag.BoolVar(&emitPrep, "E", false, "preprocess only, emit expanded source")
	flag.BoolVar(&dumpMacros, "dM", false, "dump the macro table in #define form and exit")
	flag.BoolVar(&dumpIR, "dump-ir", false, "emit the ANVIL IR textual dump instead of assembly")
	flag.BoolVar(&showStats, "stats", false, "print the total emitted-instruction count on stderr")
	flag.BoolVar(&debug, "debug", false, "print stack traces on error")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mccc [flags] file.c")
		os.Exit(2)
	}
	srcName := flag.Arg(0)

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			atExit(errors.Wrapf(err, "create %s", outFile))
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	atExit(run(srcName, w, includes, defines, undefs, std.std, arch.name, emitPrep, dumpMacros, dumpIR, showStats))
}

func run(srcName string, w *bufio.Writer, includes includeList, defines defineList, undefs undefList,
	std cpp.Std, arch string, emitPrep, dumpMacros, dumpIR, showStats bool) error {

	sink := diag.NewStderrSink(os.Stderr)

	var opts []cpp.Option
	for _, dir := range includes {
		opts = append(opts, cpp.IncludePath(dir))
	}
	for _, def := range defines {
		name, value := def, ""
		if i := strings.IndexByte(def, '='); i >= 0 {
			name, value = def[:i], def[i+1:]
		}
		opts = append(opts, cpp.Define(name, value))
	}
	for _, name := range undefs {
		opts = append(opts, cpp.Undefine(name))
	}
	opts = append(opts, cpp.WithStd(std))

	p := cpp.New(osFileOpener{}, sink, opts...)
	if err := p.Open(srcName); err != nil {
		return errors.Wrapf(err, "open %s", srcName)
	}

	if dumpMacros {
		return p.Macros().Dump(w)
	}
	if emitPrep {
		if err := p.Dump(w); err != nil {
			return err
		}
		return checkDiagnostics(p.ErrorCount(), sink.ErrorCount())
	}

	reg := types.NewRegistry()
	feat := parser.NewFeatureSet(std)
	ps := parser.New(p, sink, reg, feat)
	tu := ps.ParseTranslationUnit()
	if err := checkDiagnostics(p.ErrorCount(), ps.ErrorCount(), sink.ErrorCount()); err != nil {
		return err
	}

	l := lower.New(srcName, reg)
	mod, err := l.Lower(tu)
	if err != nil {
		return errors.Wrap(err, "lowering")
	}

	opt.OptimizeModule(mod)

	if dumpIR {
		return mod.Dump(w)
	}

	be, err := selectBackend(arch, reg)
	if err != nil {
		return err
	}
	if err := be.Init(); err != nil {
		return errors.Wrap(err, "backend init")
	}
	defer be.Cleanup()

	text, err := be.CodegenModule(mod)
	if err != nil {
		return errors.Wrap(err, "codegen")
	}
	if _, err := w.WriteString(text); err != nil {
		return err
	}

	if showStats {
		printStats(be)
	}
	return nil
}

func selectBackend(arch string, reg *types.Registry) (backend.Backend, error) {
	switch arch {
	case "x86-gas":
		return x86.New(x86.GAS, reg), nil
	case "x86-nasm":
		return x86.New(x86.NASM, reg), nil
	case "ppc64le":
		return ppc64le.New(reg), nil
	default:
		return nil, errors.Errorf("unknown target %q", arch)
	}
}

// printStats reports the module-wide emitted-instruction total for
// backends exposing Stats (spec.md §6's "-stats" mention).
func printStats(be backend.Backend) {
	type statser interface{ Stats() *backend.Stats }
	s, ok := be.(statser)
	if !ok {
		return
	}
	fmt.Fprintf(os.Stderr, "instructions emitted: %d\n", s.Stats().Total())
}

func checkDiagnostics(counts ...int) error {
	for _, n := range counts {
		if n > 0 {
			return errors.New("compilation failed with diagnostics")
		}
	}
	return nil
}
