package domain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/scanner"
	"go/token"
	"log/slog"
	"path"
	"reflect"
	"regexp"
	"sync"

	"golang.org/x/tools/go/ast/astutil"

	"inplace.dev/pkg/inplace/internal/adapter"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

// programHeader is prepended to edited text; it occupies one line.
const programHeader = "package main\n"

var versionSuffix = regexp.MustCompile(`\.v\d+$`)

// SourceCompiler turns edited text into a replacement for original. It is the
// only place edited code is evaluated.
type SourceCompiler interface {
	Compile(ctx context.Context, original *live.Unit, text string) (*live.Unit, error)
}

// Compiler compiles edited Go source with an embedded interpreter, in a scope
// made of the original's module globals and the imports of its file. Every
// compiled text is kept by hash for later introspection.
type Compiler struct {
	interpreter adapter.Interpreter
	lookup      *SourceLookup

	mu      sync.Mutex
	sources map[string]string
}

// NewCompiler constructs a Compiler. lookup may be nil, in which case edited
// text only sees the module globals and the imports it declares itself.
func NewCompiler(interpreter adapter.Interpreter, lookup *SourceLookup) *Compiler {
	return &Compiler{
		interpreter: interpreter,
		lookup:      lookup,
		sources:     make(map[string]string),
	}
}

// SyntheticName is the name of the compilation unit for a source hash.
func SyntheticName(hash string) string {
	if len(hash) > 16 {
		hash = hash[:16]
	}

	return "inplace_" + hash
}

// HashSource returns the content hash naming a compilation unit.
func HashSource(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(text)))
}

// Source returns a previously compiled text by hash.
func (c *Compiler) Source(hash string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text, ok := c.sources[hash]

	return text, ok
}

// Compile parses text, finds the definition of original, and evaluates it.
// It fails with a *CompileError or *MissingDefinitionError and has no side
// effects on the slot either way.
func (c *Compiler) Compile(ctx context.Context, original *live.Unit, text string) (*live.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := HashSource(text)
	unitName := SyntheticName(hash)
	filename := unitName + ".go"

	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filename, programHeader+text, parser.SkipObjectResolution)
	if err != nil {
		return nil, syntaxError(filename, err)
	}

	name := definitionName(original)

	decl := findDefinition(file, name, original.Kind())
	if decl == nil {
		return nil, &MissingDefinitionError{Name: name, File: filename}
	}

	if decl.Recv != nil {
		receiverToParam(decl)
	}

	symbols, scopeErr := c.buildScope(ctx, fset, file, original, unitName)

	var program bytes.Buffer
	if err := format.Node(&program, fset, file); err != nil {
		return nil, &CompileError{File: filename, Msg: err.Error(), Err: err}
	}

	v, err := c.interpreter.Eval(ctx, program.String(), symbols, "main."+name)
	if err != nil {
		slog.Debug("Edited source failed to evaluate", "unit", original.Target(), "file", filename, "error", err)

		msg := err.Error()
		if scopeErr != nil {
			msg = fmt.Sprintf("%s (imports of the original file are unavailable: %v)", msg, scopeErr)
		}

		return nil, &CompileError{File: filename, Msg: msg, Err: err}
	}

	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, &MissingDefinitionError{Name: name, File: filename}
	}

	replacement, err := live.NewReplacement(original, v, hash)
	if err != nil {
		return nil, &CompileError{File: filename, Msg: err.Error(), Err: err}
	}

	// Only installed texts are kept; failed attempts are not retained.
	c.mu.Lock()
	c.sources[hash] = text
	c.mu.Unlock()

	return replacement, nil
}

// buildScope injects the module globals (dot-imported from a synthetic
// package) and the original file's imports that text refers to. Only names
// the text uses are imported, so the program never has unused imports. The
// returned error says why the original's imports could not be added; the
// scope is still usable without them.
func (c *Compiler) buildScope(ctx context.Context, fset *token.FileSet, file *ast.File, original *live.Unit, unitName string) (adapter.Symbols, error) {
	declared := declaredNames(file)
	used := referencedNames(file)

	var scopeErr error

	if c.lookup != nil {
		src, err := c.lookup.Lookup(ctx, original)
		if err != nil {
			slog.Warn("No source scope for original", "unit", original.Target(), "error", err)
			scopeErr = err
		}

		for _, imp := range src.Imports {
			name := importName(imp)
			if name == "_" || name == "." || !used[name] || declared[name] {
				continue
			}

			astutil.AddNamedImport(fset, file, imp.Name, imp.Path)
			declared[name] = true
		}
	}

	globals := original.Module().Globals()
	for name := range globals {
		if declared[name] || !used[name] {
			delete(globals, name)
		}
	}

	if len(globals) == 0 {
		return nil, scopeErr
	}

	astutil.AddNamedImport(fset, file, ".", unitName)

	return adapter.Symbols{unitName + "/" + unitName: globals}, scopeErr
}

func syntaxError(filename string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]

		return &CompileError{
			File:   filename,
			Line:   max(first.Pos.Line-1, 1),
			Column: first.Pos.Column,
			Msg:    first.Msg,
			Err:    err,
		}
	}

	return &CompileError{File: filename, Msg: err.Error(), Err: err}
}

// findDefinition returns the top-level declaration of name. Methods may be
// written either with a receiver or already in function form.
func findDefinition(file *ast.File, name string, kind live.Kind) *ast.FuncDecl {
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Name.Name != name {
			continue
		}

		if fd.Recv == nil || kind == live.KindMethod {
			return fd
		}
	}

	return nil
}

// receiverToParam turns `func (r T) M(args)` into `func M(r T, args)`, the
// shape of a method expression.
func receiverToParam(decl *ast.FuncDecl) {
	recv := decl.Recv.List[0]

	params := decl.Type.Params
	if params == nil {
		params = &ast.FieldList{}
		decl.Type.Params = params
	}

	// Go parameter lists are either all named or all unnamed.
	field := &ast.Field{Type: recv.Type}

	switch {
	case len(recv.Names) > 0:
		field.Names = []*ast.Ident{ast.NewIdent(recv.Names[0].Name)}

		if len(params.List) > 0 && !hasNamedParams(params) {
			for _, p := range params.List {
				p.Names = []*ast.Ident{ast.NewIdent("_")}
			}
		}
	case hasNamedParams(params):
		field.Names = []*ast.Ident{ast.NewIdent("_")}
	}

	params.List = append([]*ast.Field{field}, params.List...)
	decl.Recv = nil
}

func hasNamedParams(params *ast.FieldList) bool {
	return params != nil && len(params.List) > 0 && len(params.List[0].Names) > 0
}

// declaredNames collects every top-level name the edited file declares or
// imports; globals with those names are left out of the scope.
func declaredNames(file *ast.File) map[string]bool {
	names := make(map[string]bool)

	for _, imp := range file.Imports {
		p := imp.Path.Value[1 : len(imp.Path.Value)-1]
		if imp.Name != nil {
			names[imp.Name.Name] = true
		} else {
			names[importName(m.Import{Path: p})] = true
		}
	}

	for _, d := range file.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			if decl.Recv == nil {
				names[decl.Name.Name] = true
			}

		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}

	return names
}

// referencedNames returns the identifiers text uses, skipping the selected
// half of X.Sel expressions, which never names a package-level symbol.
func referencedNames(file *ast.File) map[string]bool {
	names := make(map[string]bool)

	var visit func(n ast.Node) bool
	visit = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.SelectorExpr:
			ast.Inspect(x.X, visit)
			return false
		case *ast.Ident:
			names[x.Name] = true
		}

		return true
	}

	for _, d := range file.Decls {
		ast.Inspect(d, visit)
	}

	return names
}

func importName(imp m.Import) string {
	if imp.Name != "" {
		return imp.Name
	}

	return versionSuffix.ReplaceAllString(path.Base(imp.Path), "")
}
