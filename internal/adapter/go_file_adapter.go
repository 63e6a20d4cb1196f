package adapter

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	m "inplace.dev/pkg/inplace/internal/model"
)

// ErrSourceNotFound is returned when the definition of a unit cannot be found
// on disk, e.g. for functions built from generated code or without sources.
var ErrSourceNotFound = errors.New("source not found")

// GoFileAdapter encapsulates Go-specific parsing so the domain layer can ask
// for the text of a definition without touching go/parser itself.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and optional source bytes.
	Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// FuncSource returns the verbatim function enclosing file:line, with the
	// line its declaration starts on. name picks the declaration to prefer.
	FuncSource(ctx context.Context, file m.Path, line int, name string) (m.FuncSource, error)
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
// Parsed files are cached for the adapter's lifetime.
type LocalGoFileAdapter struct {
	root string

	mu    sync.Mutex
	files map[string]*parsedFile
}

type parsedFile struct {
	path string
	fset *token.FileSet
	file *ast.File
	src  []byte
}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter. root, when set, is
// used to find files whose recorded names were trimmed at build time.
func NewLocalGoFileAdapter(root string) *LocalGoFileAdapter {
	return &LocalGoFileAdapter{
		root:  root,
		files: make(map[string]*parsedFile),
	}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(ctx context.Context, fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return parser.ParseFile(fileSet, filename, src, parser.ParseComments)
}

// FuncSource slices the function enclosing file:line out of the file.
func (a *LocalGoFileAdapter) FuncSource(ctx context.Context, file m.Path, line int, name string) (m.FuncSource, error) {
	pf, err := a.load(ctx, file)
	if err != nil {
		return m.FuncSource{}, err
	}

	node, literal := findFunc(pf, line, name)
	if node == nil {
		return m.FuncSource{}, fmt.Errorf("no function %s at %s:%d: %w", name, file, line, ErrSourceNotFound)
	}

	start := pf.fset.Position(node.Pos()).Offset
	end := pf.fset.Position(node.End()).Offset

	return m.FuncSource{
		File:    m.Path(pf.path),
		Line:    pf.fset.Position(node.Pos()).Line,
		Text:    string(pf.src[start:end]),
		Literal: literal,
		Imports: importsOf(pf.file),
	}, nil
}

func (a *LocalGoFileAdapter) load(ctx context.Context, file m.Path) (*parsedFile, error) {
	path, err := a.resolve(file)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if pf, ok := a.files[path]; ok {
		return pf, nil
	}

	// #nosec G304 - path comes from the binary's own line tables
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fset := token.NewFileSet()

	f, err := a.Parse(ctx, fset, path, src)
	if err != nil {
		slog.Error("Failed to parse source file", "path", path, "error", err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	pf := &parsedFile{path: path, fset: fset, file: f, src: src}
	a.files[path] = pf

	return pf, nil
}

// resolve maps a file name recorded in the binary to a readable file.
func (a *LocalGoFileAdapter) resolve(file m.Path) (string, error) {
	name := string(file)
	if name == "" || strings.HasPrefix(name, "<") {
		return "", fmt.Errorf("no file recorded for %q: %w", name, ErrSourceNotFound)
	}

	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	if a.root != "" {
		parts := strings.Split(filepath.ToSlash(name), "/")
		for i := range parts {
			candidate := filepath.Join(a.root, filepath.Join(parts[i:]...))
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrSourceNotFound)
}

// findFunc returns the function containing line, which may be the line of
// the func keyword or any line of the body: the runtime records the first
// body line for functions without a frame. A declaration named name wins,
// then the innermost func literal, then any declaration.
func findFunc(pf *parsedFile, line int, name string) (ast.Node, bool) {
	var named, literal, other ast.Node

	ast.Inspect(pf.file, func(n ast.Node) bool {
		if n == nil {
			return false
		}

		if pf.fset.Position(n.Pos()).Line > line || pf.fset.Position(n.End()).Line < line {
			return false
		}

		switch d := n.(type) {
		case *ast.FuncDecl:
			if d.Name.Name == name {
				named = d
			} else {
				other = d
			}

		case *ast.FuncLit:
			literal = d
		}

		return true
	})

	switch {
	case named != nil:
		return named, false
	case literal != nil:
		return literal, true
	default:
		return other, false
	}
}

func importsOf(file *ast.File) []m.Import {
	imports := make([]m.Import, 0, len(file.Imports))

	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}

		imp := m.Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}

		imports = append(imports, imp)
	}

	return imports
}
