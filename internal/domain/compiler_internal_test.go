package domain

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace.dev/pkg/inplace/pkg/live"
)

func parseText(t *testing.T, text string) *ast.File {
	t.Helper()

	file, err := parser.ParseFile(token.NewFileSet(), "edit.go", programHeader+text, parser.SkipObjectResolution)
	require.NoError(t, err)

	return file
}

func paramList(decl *ast.FuncDecl) []string {
	var out []string

	for _, field := range decl.Type.Params.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			out = append(out, typ)
			continue
		}

		for _, n := range field.Names {
			out = append(out, n.Name+" "+typ)
		}
	}

	return out
}

func TestReceiverToParam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "named receiver",
			text: "func (r Rect) Area() float64 { return r.W * r.H }",
			want: []string{"r Rect"},
		},
		{
			name: "pointer receiver with params",
			text: "func (r *Rect) Grow(d float64) { r.W += d }",
			want: []string{"r *Rect", "d float64"},
		},
		{
			name: "unnamed receiver with named params",
			text: "func (Rect) Scale(k float64) float64 { return k }",
			want: []string{"_ Rect", "k float64"},
		},
		{
			name: "unnamed receiver with unnamed params",
			text: "func (Rect) Kind(int) string { return \"rect\" }",
			want: []string{"Rect", "int"},
		},
		{
			name: "named receiver with unnamed params",
			text: "func (a Acc) Add(int, string) int { return a.N }",
			want: []string{"a Acc", "_ int", "_ string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := parseText(t, tt.text)
			decl := file.Decls[0].(*ast.FuncDecl)

			receiverToParam(decl)

			assert.Nil(t, decl.Recv)
			assert.Equal(t, tt.want, paramList(decl))
		})
	}
}

func TestFindDefinition(t *testing.T) {
	file := parseText(t, "func Area() int { return 1 }\n\nfunc (r Rect) Area() int { return 2 }\n\nfunc helper() {}\n")

	fn := findDefinition(file, "Area", live.KindFunc)
	require.NotNil(t, fn)
	assert.Nil(t, fn.Recv)

	method := findDefinition(file, "Area", live.KindMethod)
	require.NotNil(t, method)
	assert.Nil(t, method.Recv, "first match wins for methods too")

	assert.Nil(t, findDefinition(file, "Missing", live.KindFunc))

	onlyMethod := parseText(t, "func (r Rect) Area() int { return 2 }\n")
	assert.Nil(t, findDefinition(onlyMethod, "Area", live.KindFunc))
	assert.NotNil(t, findDefinition(onlyMethod, "Area", live.KindMethod))
}

func TestDeclaredAndReferencedNames(t *testing.T) {
	file := parseText(t, `import (
	str "strings"
	"gopkg.in/yaml.v3"
)

const limit = 3

type pair struct{ a, b int }

func Describe(name string) string {
	_ = yaml.Marshal
	return str.ToUpper(name) + Suffix + r.Field
}
`)

	declared := declaredNames(file)
	for _, name := range []string{"str", "yaml", "limit", "pair", "Describe"} {
		assert.True(t, declared[name], name)
	}

	referenced := referencedNames(file)
	assert.True(t, referenced["Suffix"])
	assert.True(t, referenced["str"])
	assert.True(t, referenced["r"])
	assert.False(t, referenced["Field"])
	assert.False(t, referenced["ToUpper"])
}

func TestSyntaxErrorLinesAreRelativeToText(t *testing.T) {
	_, err := parser.ParseFile(token.NewFileSet(), "inplace_x.go", programHeader+"func f() {\n\treturn 1 +\n}\n", 0)
	require.Error(t, err)

	compileErr, ok := syntaxError("inplace_x.go", err).(*CompileError)
	require.True(t, ok)
	assert.Equal(t, "inplace_x.go", compileErr.File)
	assert.Equal(t, 3, compileErr.Line)
	assert.ErrorIs(t, compileErr, ErrCompile)
}

func TestSyntheticName(t *testing.T) {
	hash := HashSource("func f() {}\n")

	assert.Len(t, hash, 64)
	assert.Equal(t, "inplace_"+hash[:16], SyntheticName(hash))
	assert.Equal(t, "inplace_abc", SyntheticName("abc"))
	assert.Equal(t, hash, HashSource("func f() {}\n"))
	assert.NotEqual(t, hash, HashSource("func f() { }\n"))
}
