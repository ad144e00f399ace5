// Command blockc compiles a block-script IR fixture (spec.md §6 "Compiler
// entry points") to its generated factory-function source, or dumps its
// disassembly. Flag handling follows cmd/funxy/main.go's style: a manual
// scan of os.Args rather than the flag package (the teacher's funxy CLI
// never uses it either, since its subcommands share flags in combinations
// the stdlib flag package doesn't model cleanly), plus the same
// recover-and-report-cleanly top-level panic guard.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/funvibe/blockc/internal/config"
	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/pkg/compiler"

	"github.com/mattn/go-isatty"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: blockc -in <fixture> [options]

Options:
  -in <path>      IR fixture to compile (YAML or JSON, required)
  -dump           print the IR disassembly (internal/ir.Dump) instead of
                  generated source
  -dump-all       print generated source for every procedure as well as
                  the entry script (default: entry script only)
  -debug          enable debug logging during analysis/codegen
  -out <path>     write output to path instead of stdout
  -version        print the compiler version and exit

blockc version %s
`, config.Version)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if os.Getenv("BLOCKC_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	var (
		inPath  string
		outPath string
		debug   bool
		dump    bool
		dumpAll bool
	)

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "-help", "--help":
			usage()
			return
		case "-version", "--version":
			fmt.Println(config.Version)
			return
		case "-debug", "--debug":
			debug = true
		case "-dump", "--dump":
			dump = true
		case "-dump-all", "--dump-all":
			dumpAll = true
		case "-in", "--in":
			if i+1 >= len(args) {
				fail("missing argument to %s", args[i])
			}
			i++
			inPath = args[i]
		case "-out", "--out":
			if i+1 >= len(args) {
				fail("missing argument to %s", args[i])
			}
			i++
			outPath = args[i]
		default:
			fail("unrecognized argument %q", args[i])
		}
	}

	if debug {
		config.IsDebugMode = true
	}

	if inPath == "" {
		usage()
		os.Exit(1)
	}

	bundle, err := ir.LoadFixture(inPath)
	if err != nil {
		fail("%s", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fail("%s", err)
		}
		defer f.Close()
		out = f
	}

	if dump {
		dumpScripts(out, bundle)
		return
	}

	runCompile(out, bundle, debug, dumpAll)
}

func dumpScripts(out *os.File, bundle *ir.IR) {
	codes := make([]string, 0, len(bundle.Procedures))
	for code := range bundle.Procedures {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "; procedure %s\n", code)
		ir.Dump(out, bundle.Procedures[code])
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "; entry %s\n", bundle.Entry.TopBlockID)
	ir.Dump(out, bundle.Entry)
}

func runCompile(out *os.File, bundle *ir.IR, debug, dumpAll bool) {
	c := compiler.New()
	c.SetDebug(debug)
	if debug {
		c.SetLogger(stderrLogger{})
	}

	results, err := c.CompileIR(bundle)
	if err != nil {
		fail("%s", err)
	}

	for _, r := range results {
		if !dumpAll && r.IsProcedure {
			continue
		}
		if r.IsProcedure {
			fmt.Fprintf(out, "// procedure %s\n", r.ProcedureCode)
		} else {
			fmt.Fprintf(out, "// entry %s\n", r.ScriptID)
		}
		fmt.Fprintln(out, r.FactorySource)
	}
}

// stderrLogger adapts diagnostics.Logger to stderr, colorized only when
// stderr is a real terminal (mirrors builtins_term.go's isatty.IsTerminal
// || isatty.IsCygwinTerminal detection, without the rest of that file's
// double-buffering machinery blockc has no use for).
type stderrLogger struct{}

func (stderrLogger) Debugf(format string, args ...interface{}) {
	prefix := "debug: "
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		prefix = "\x1b[2mdebug:\x1b[0m "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

var _ diagnostics.Logger = stderrLogger{}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "blockc: "+format+"\n", args...)
	os.Exit(1)
}
