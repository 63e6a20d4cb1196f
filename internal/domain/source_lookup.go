package domain

import (
	"context"
	"fmt"
	"go/format"
	"regexp"
	"strings"

	"inplace.dev/pkg/inplace/internal/adapter"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

// SourceLookup finds the Go source of original units.
type SourceLookup struct {
	files adapter.GoFileAdapter
}

// NewSourceLookup wraps a GoFileAdapter.
func NewSourceLookup(files adapter.GoFileAdapter) *SourceLookup {
	return &SourceLookup{files: files}
}

// Lookup returns the verbatim declaration of u.
func (l *SourceLookup) Lookup(ctx context.Context, u *live.Unit) (m.FuncSource, error) {
	file, line, ok := u.Position()
	if !ok {
		return m.FuncSource{}, fmt.Errorf("%s has no recorded position: %w", u.Target(), adapter.ErrSourceNotFound)
	}

	return l.files.FuncSource(ctx, m.Path(file), line, definitionName(u))
}

// Location returns where u is declared: the line of its func keyword when
// the source can be found, the line recorded in the binary otherwise.
func (l *SourceLookup) Location(ctx context.Context, u *live.Unit) m.Location {
	loc := m.LocationOf(u)
	if loc.File == "" {
		return loc
	}

	if src, err := l.Lookup(ctx, u); err == nil {
		loc.Line = src.Line
	}

	return loc
}

// Presentable returns u's source as a standalone top-level declaration with
// no leading indentation.
func (l *SourceLookup) Presentable(ctx context.Context, u *live.Unit) (string, error) {
	src, err := l.Lookup(ctx, u)
	if err != nil {
		return "", err
	}

	return presentSource(src, definitionName(u)), nil
}

// definitionName is the name edited text must define for u: the Go name of
// the function, or the slot name for func literals.
func definitionName(u *live.Unit) string {
	full := u.FuncName()
	if full == "" || closureName.MatchString(full) {
		return u.Name()
	}

	full = strings.ReplaceAll(full, "[...]", "")
	full = strings.TrimSuffix(full, "-fm")

	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}

	return full
}

func presentSource(src m.FuncSource, name string) string {
	text := dedent(src.Text)
	if src.Literal {
		text = "func " + name + strings.TrimPrefix(text, "func")
	}

	if formatted, err := format.Source([]byte(text)); err == nil {
		text = string(formatted)
	}

	return strings.TrimRight(text, "\n") + "\n"
}

// dedent strips the indentation shared by every line after the first. The
// first line starts at the declaration itself and carries none.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	prefix := ""
	first := true

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false

			continue
		}

		prefix = commonPrefix(prefix, indent)
	}

	if prefix == "" {
		return text
	}

	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimPrefix(lines[i], prefix)
	}

	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))

	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return a[:i]
}
