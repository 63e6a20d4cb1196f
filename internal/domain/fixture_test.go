package domain_test

import (
	"io"
	"os"
	"strings"
	"testing"

	"inplace.dev/pkg/inplace/internal/adapter"
	"inplace.dev/pkg/inplace/internal/domain"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

// Greeting is read by greet; edits see it through the module scope.
var Greeting = "hello"

// Counter is the receiver of the method slots used in these tests.
type Counter struct {
	N int
}

func inc(x int) int {
	return x + 1
}

func greet(name string) string {
	return Greeting + ", " + strings.ToUpper(name)
}

func (c Counter) Next() int {
	return c.N + 1
}

type fixture struct {
	mod   *live.Module
	inc   *live.Unit
	greet *live.Unit
	next  *live.Unit
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	mod := live.NewModule("example.com/fixture")
	mod.Var("Greeting", &Greeting)

	f := fixture{mod: mod}
	f.inc = mod.Def("Inc", inc)
	f.greet = mod.Def("Greet", greet)
	f.next = mod.Class("Counter", (*Counter)(nil)).Def("Next", Counter.Next)

	return f
}

func newCompiler() *domain.Compiler {
	return domain.NewCompiler(
		adapter.NewYaegiInterpreter(io.Discard, io.Discard),
		domain.NewSourceLookup(adapter.NewLocalGoFileAdapter("")),
	)
}

func newRegistry() *domain.Registry {
	lookup := domain.NewSourceLookup(adapter.NewLocalGoFileAdapter(""))

	return domain.NewRegistry(
		domain.NewCompiler(adapter.NewYaegiInterpreter(io.Discard, io.Discard), lookup),
		domain.NewAttachmentStrategy(),
		lookup,
	)
}

func callInc(t *testing.T, mod *live.Module, x int) int {
	t.Helper()

	out, err := mod.Call("Inc", x)
	if err != nil {
		t.Fatalf("call Inc: %v", err)
	}

	return out[0].(int)
}

// lineAt returns the text of the source line loc points at.
func lineAt(t *testing.T, loc m.Location) string {
	t.Helper()

	data, err := os.ReadFile(string(loc.File))
	if err != nil {
		t.Fatalf("read %s: %v", loc.File, err)
	}

	lines := strings.Split(string(data), "\n")
	if loc.Line < 1 || loc.Line > len(lines) {
		t.Fatalf("%s is out of range", loc)
	}

	return lines[loc.Line-1]
}
