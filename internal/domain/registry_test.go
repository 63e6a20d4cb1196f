package domain_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace.dev/pkg/inplace/internal/domain"
	"inplace.dev/pkg/inplace/pkg/live"
)

const (
	incPlusTwo = `func inc(x int) int {
	return x + 2
}
`
	incPlusThree = `func inc(x int) int {
	return x + 3
}
`
)

func TestRegistry_InstallThenRevert(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	// Act
	replacement, err := registry.Install(ctx, f.inc, incPlusTwo)

	// Assert
	require.NoError(t, err)
	assert.True(t, replacement.IsReplacement())
	assert.Equal(t, 5, callInc(t, f.mod, 3))

	current, ok := f.mod.Unit("Inc")
	require.True(t, ok)
	assert.Same(t, replacement, current)

	require.NoError(t, registry.Revert(ctx, f.inc))
	assert.Equal(t, 4, callInc(t, f.mod, 3))

	current, ok = f.mod.Unit("Inc")
	require.True(t, ok)
	assert.Same(t, f.inc, current)
	assert.Zero(t, registry.Len())
}

func TestRegistry_InstallInvalidSyntaxKeepsOriginal(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	// Act
	_, err := registry.Install(ctx, f.inc, "func inc(x int) int {\n\treturn x +\n")

	// Assert
	require.ErrorIs(t, err, domain.ErrCompile)

	var compileErr *domain.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Positive(t, compileErr.Line)
	assert.Contains(t, compileErr.File, "inplace_")

	assert.Equal(t, 4, callInc(t, f.mod, 3))
	assert.Zero(t, registry.Len())
}

func TestRegistry_InstallWithoutDefinition(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	// Act
	_, err := registry.Install(ctx, f.inc, "func other(x int) int {\n\treturn x\n}\n")

	// Assert
	require.ErrorIs(t, err, domain.ErrMissingDefinition)
	assert.ErrorContains(t, err, "there is no function inc")

	_, ok := registry.CurrentSource(f.inc)
	assert.False(t, ok)
	assert.Empty(t, registry.DumpActive())
	assert.Equal(t, 4, callInc(t, f.mod, 3))
}

func TestRegistry_InstallWrongSignature(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	// Act
	_, err := registry.Install(ctx, f.inc, "func inc(x string) string {\n\treturn x\n}\n")

	// Assert
	require.ErrorIs(t, err, domain.ErrCompile)
	assert.Zero(t, registry.Len())
	assert.Equal(t, 4, callInc(t, f.mod, 3))
}

func TestRegistry_FailedInstallKeepsPreviousEdit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	first, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)

	// Act
	_, err = registry.Install(ctx, f.inc, "func inc(x int) int {")

	// Assert
	require.ErrorIs(t, err, domain.ErrCompile)
	assert.Equal(t, 5, callInc(t, f.mod, 3))

	rec, ok := registry.CurrentSource(f.inc)
	require.True(t, ok)
	assert.Same(t, first, rec.Replacement)
	assert.Equal(t, incPlusTwo, rec.Text)
}

func TestRegistry_SecondEditRevertsToPristineOriginal(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	first, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)

	// Act: the second edit is requested through the active replacement.
	second, err := registry.Install(ctx, first, incPlusThree)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 6, callInc(t, f.mod, 3))
	assert.Same(t, f.inc, registry.Original(second))
	assert.Same(t, first, registry.Original(first), "superseded replacements are forgotten")
	assert.Equal(t, 1, registry.Len())

	require.NoError(t, registry.Revert(ctx, f.inc))
	assert.Equal(t, 4, callInc(t, f.mod, 3))
}

func TestRegistry_RevertThroughReplacement(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	replacement, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)

	// Act
	err = registry.Revert(ctx, replacement)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, callInc(t, f.mod, 3))
	assert.Zero(t, registry.Len())
}

func TestRegistry_RevertTwiceFails(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)
	require.NoError(t, registry.Revert(ctx, f.inc))

	// Act
	err = registry.Revert(ctx, f.inc)

	// Assert
	require.ErrorIs(t, err, domain.ErrUnknownUnit)

	var unknown *domain.UnknownUnitError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "fixture.Inc", unknown.Target)
}

func TestRegistry_RevertSupersededReplacementFails(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	first, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)
	_, err = registry.Install(ctx, f.inc, incPlusThree)
	require.NoError(t, err)

	// Act
	err = registry.Revert(ctx, first)

	// Assert
	require.ErrorIs(t, err, domain.ErrUnknownUnit)
	assert.Equal(t, 6, callInc(t, f.mod, 3))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_RevertUntrackedFails(t *testing.T) {
	f := newFixture(t)

	err := newRegistry().Revert(context.Background(), f.greet)

	require.ErrorIs(t, err, domain.ErrUnknownUnit)
}

func TestRegistry_EditUsesModuleScope(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	text := "func greet(name string) string {\n\treturn strings.Repeat(Greeting, 2) + \" \" + name\n}\n"

	// Act
	_, err := registry.Install(ctx, f.greet, text)

	// Assert
	require.NoError(t, err)

	out, err := f.mod.Call("Greet", "bob")
	require.NoError(t, err)
	assert.Equal(t, []any{"hellohello bob"}, out)
}

func TestRegistry_EditedCodeCallsThroughSlots(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.greet, "func greet(name string) string {\n\treturn strings.Repeat(\"x\", Inc(len(name)))\n}\n")
	require.NoError(t, err)

	// Act
	_, err = registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)

	// Assert: Greet sees the edited Inc.
	out, err := f.mod.Call("Greet", "bob")
	require.NoError(t, err)
	assert.Equal(t, []any{"xxxxx"}, out)
}

func TestRegistry_MethodEdit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	counter, ok := f.mod.Lookup("Counter")
	require.True(t, ok)

	// Act
	_, err := registry.Install(ctx, f.next, "func (c Counter) Next() int {\n\treturn c.N + 10\n}\n")

	// Assert
	require.NoError(t, err)

	out, err := counter.Call("Next", Counter{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{11}, out)

	require.NoError(t, registry.Revert(ctx, f.next))

	out, err = counter.Call("Next", Counter{N: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{2}, out)
}

func TestRegistry_DumpActiveIsSortedAndDeduplicated(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.next, "func (c Counter) Next() int {\n\treturn 0\n}\n")
	require.NoError(t, err)
	_, err = registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)
	_, err = registry.Install(ctx, f.inc, incPlusThree)
	require.NoError(t, err)

	// Act
	edits := registry.DumpActive()

	// Assert
	require.Len(t, edits, 2)
	assert.Equal(t, "fixture.Inc", edits[0].Target)
	assert.Equal(t, incPlusThree, edits[0].Source)
	assert.Equal(t, "func", edits[0].Kind)
	assert.Equal(t, "fixture.Counter.Next", edits[1].Target)
	assert.Equal(t, "method", edits[1].Kind)
	assert.True(t, edits[0].Location.Less(edits[1].Location))
	assert.Equal(t, domain.HashSource(incPlusThree), edits[0].Hash)
}

func TestRegistry_RevertAll(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)
	_, err = registry.Install(ctx, f.next, "func (c Counter) Next() int {\n\treturn 0\n}\n")
	require.NoError(t, err)

	// Act
	err = registry.RevertAll(ctx)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, registry.Len())
	assert.Empty(t, registry.DumpActive())
	assert.Equal(t, 4, callInc(t, f.mod, 3))

	current, ok := f.mod.Unit("Inc")
	require.True(t, ok)
	assert.Same(t, f.inc, current)
}

func TestRegistry_OnShutdownWithoutOwner(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)

	// Act
	err = registry.OnShutdown(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Len(), "reporting does not revert")
}

// Acc has a method whose parameters are unnamed in edited text.
type Acc struct {
	N int
}

func (a Acc) Add(n int) int {
	return a.N + n
}

func TestRegistry_MethodEditWithUnnamedParams(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mod := live.NewModule("example.com/acc")
	acc := mod.Class("Acc", (*Acc)(nil))
	add := acc.Def("Add", Acc.Add)
	registry := newRegistry()

	// Act
	_, err := registry.Install(ctx, add, "func (a Acc) Add(int) int {\n\treturn a.N * 100\n}\n")

	// Assert
	require.NoError(t, err)

	out, err := acc.Call("Add", Acc{N: 2}, 5)
	require.NoError(t, err)
	assert.Equal(t, []any{200}, out)
}

func TestRegistry_DumpActiveLocatesDeclarations(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	registry := newRegistry()

	_, err := registry.Install(ctx, f.inc, incPlusTwo)
	require.NoError(t, err)
	_, err = registry.Install(ctx, f.next, "func (c Counter) Next() int {\n\treturn 0\n}\n")
	require.NoError(t, err)

	// Act
	edits := registry.DumpActive()

	// Assert
	require.Len(t, edits, 2)
	assert.True(t, strings.HasPrefix(lineAt(t, edits[0].Location), "func inc("))
	assert.True(t, strings.HasPrefix(lineAt(t, edits[1].Location), "func (c Counter) Next()"))
}
