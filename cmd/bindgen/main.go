// Command bindgen reads a blockc.yaml extension manifest and writes one
// generated registration stub per op into internal/hostbridge/genbindings
// (SPEC_FULL.md §4 S3). Each stub's init() wraps the manifest-named
// Go function in a hostbridge.ExtensionOp and calls genbindings.Register,
// so a Runtime only has to range over genbindings.All() to learn every
// opcode a given build was compiled with support for.
//
// Grounded on internal/ext/inspector.go's packages.Load flow: bindgen
// resolves each op's target package with golang.org/x/tools/go/packages
// (NeedName|NeedTypes|NeedTypesInfo|NeedSyntax) and checks the bound
// function's parameter and result counts before generating code, the same way inspector.go
// resolves a funxy.yaml `bind:` entry against the real Go type system
// instead of trusting the manifest blindly.
package main

import (
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/blockc/internal/hostbridge/extmanifest"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: bindgen -manifest <blockc.yaml> -out <dir>\n")
}

func main() {
	var manifestPath, outDir string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-manifest":
			i++
			if i >= len(args) {
				fail("missing argument to -manifest")
			}
			manifestPath = args[i]
		case "-out":
			i++
			if i >= len(args) {
				fail("missing argument to -out")
			}
			outDir = args[i]
		case "-h", "-help", "--help":
			usage()
			return
		default:
			fail("unrecognized argument %q", args[i])
		}
	}
	if manifestPath == "" || outDir == "" {
		usage()
		os.Exit(1)
	}

	m, err := extmanifest.Load(manifestPath)
	if err != nil {
		fail("%s", err)
	}

	pkgPaths := uniquePkgPaths(m.Ops)
	loaded, err := loadPackages(pkgPaths)
	if err != nil {
		fail("%s", err)
	}

	for _, op := range m.Ops {
		if err := verifyBinding(loaded, op); err != nil {
			fail("op %q: %s", op.Opcode, err)
		}
		if err := writeStub(outDir, op); err != nil {
			fail("op %q: %s", op.Opcode, err)
		}
	}

	fmt.Fprintf(os.Stderr, "bindgen: generated %d binding(s) into %s\n", len(m.Ops), outDir)
}

func uniquePkgPaths(ops []extmanifest.Op) []string {
	seen := make(map[string]bool)
	var out []string
	for _, op := range ops {
		if !seen[op.Pkg] {
			seen[op.Pkg] = true
			out = append(out, op.Pkg)
		}
	}
	sort.Strings(out)
	return out
}

func loadPackages(pkgPaths []string) (map[string]*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
		Env:  append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, pkgPaths...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	out := make(map[string]*packages.Package, len(pkgs))
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
		out[pkg.PkgPath] = pkg
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	return out, nil
}

// verifyBinding checks that op.Func exists in op.Pkg as a package-level
// function with two parameters and two results. It does not check the
// parameter or result types against func(context.Context,
// map[string]interface{}) (interface{}, error), the only signature
// genbindings' generated init() stubs know how to wrap as a
// hostbridge.ExtensionOp; a mismatch there surfaces when the stub compiles.
func verifyBinding(loaded map[string]*packages.Package, op extmanifest.Op) error {
	pkg, ok := loaded[op.Pkg]
	if !ok {
		return fmt.Errorf("package %s was not loaded", op.Pkg)
	}
	obj := pkg.Types.Scope().Lookup(op.Func)
	if obj == nil {
		return fmt.Errorf("function %s not found in %s", op.Func, op.Pkg)
	}
	sig, ok := obj.Type().(*types.Signature)
	if !ok {
		return fmt.Errorf("%s.%s is not a function", op.Pkg, op.Func)
	}
	if sig.Params().Len() != 2 || sig.Results().Len() != 2 {
		return fmt.Errorf("%s.%s must have signature func(context.Context, map[string]interface{}) (interface{}, error)", op.Pkg, op.Func)
	}
	return nil
}

var stubTmpl = template.Must(template.New("stub").Parse(`// Code generated by cmd/bindgen from blockc.yaml. DO NOT EDIT.

package genbindings

import (
	"context"

	target "{{.Pkg}}"

	"github.com/funvibe/blockc/internal/hostbridge"
)

type opFunc_{{.Safe}} struct{}

func (opFunc_{{.Safe}}) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return target.{{.Func}}(ctx, args)
}

func init() {
	Register({{printf "%q" .Opcode}}, opFunc_{{.Safe}}{}, {{.Blocking}}, {{.Async}})
}

var _ hostbridge.ExtensionOp = opFunc_{{.Safe}}{}
`))

func writeStub(outDir string, op extmanifest.Op) error {
	f, err := os.Create(filepath.Join(outDir, "generated_"+sanitize(op.Opcode)+".go"))
	if err != nil {
		return err
	}
	defer f.Close()
	return stubTmpl.Execute(f, struct {
		extmanifest.Op
		Safe string
	}{Op: op, Safe: sanitize(op.Opcode)})
}

func sanitize(opcode string) string {
	var b strings.Builder
	for _, r := range opcode {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "bindgen: "+format+"\n", args...)
	os.Exit(1)
}
