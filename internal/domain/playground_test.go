package domain_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace.dev/pkg/inplace/internal/adapter"
	"inplace.dev/pkg/inplace/internal/domain"
	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/internal/playground"
	"inplace.dev/pkg/inplace/pkg/live"
)

func newPlaygroundSession(t *testing.T) *domain.Session {
	t.Helper()

	return domain.NewSession(domain.SessionConfig{
		Modules:     []*live.Module{playground.Module()},
		FS:          adapter.NewLocalSourceFSAdapter(t.TempDir()),
		Interpreter: adapter.NewYaegiInterpreter(io.Discard, io.Discard),
	})
}

func TestPlayground_Show(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "playground.Inc", want: "func Inc(x int) int {"},
		{target: "playground.Hypot", want: "func Hypot(a, b float64) float64 {"},
		{target: "playground.Rect.Area", want: "func (r Rect) Area() float64 {"},
		{target: "playground.Rect.Grow", want: "func (r *Rect) Grow(d float64) {"},
		{target: "playground.Circle.Area", want: "func (c Circle) Area() float64 {"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			// Arrange
			session := newPlaygroundSession(t)

			// Act
			text, err := session.Show(context.Background(), tt.target)

			// Assert
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(text, tt.want), text)
		})
	}
}

func TestPlayground_InstallInc(t *testing.T) {
	// Arrange
	ctx := context.Background()
	session := newPlaygroundSession(t)
	defer session.Close(ctx)

	// Act
	_, err := session.Install(ctx, "playground.Inc", "func Inc(x int) int {\n\treturn x + 10\n}\n")

	// Assert
	require.NoError(t, err)

	out, err := session.Call(ctx, "playground.Inc", []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, []any{11}, out)
}

func TestPlayground_InstallHypotWithFileImports(t *testing.T) {
	// Arrange
	ctx := context.Background()
	session := newPlaygroundSession(t)
	defer session.Close(ctx)

	// Act
	_, err := session.Install(ctx, "playground.Hypot", "func Hypot(a, b float64) float64 {\n\treturn math.Abs(a) + math.Abs(b)\n}\n")

	// Assert
	require.NoError(t, err)

	out, err := session.Call(ctx, "playground.Hypot", []string{"3", "-4"})
	require.NoError(t, err)
	assert.Equal(t, []any{7.0}, out)
}

func TestPlayground_InstallRectArea(t *testing.T) {
	// Arrange
	ctx := context.Background()
	session := newPlaygroundSession(t)
	defer session.Close(ctx)

	// Act
	_, err := session.Install(ctx, "playground.Rect.Area", "func (r Rect) Area() float64 {\n\treturn r.W + r.H\n}\n")

	// Assert
	require.NoError(t, err)

	out, err := session.Call(ctx, "playground.Rect.Area", []string{"{w: 2, h: 3}"})
	require.NoError(t, err)
	assert.Equal(t, []any{5.0}, out)

	diff, err := session.Diff(ctx, "playground.Rect.Area")
	require.NoError(t, err)
	assert.Contains(t, diff, "-\treturn r.W * r.H")
	assert.Contains(t, diff, "+\treturn r.W + r.H")
}

func TestPlayground_UnitsPointAtDeclarations(t *testing.T) {
	// Arrange
	session := newPlaygroundSession(t)

	// Act
	units, err := session.Units(context.Background())

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, units)

	byTarget := make(map[string]m.UnitInfo, len(units))
	for _, u := range units {
		assert.True(t, u.Source, u.Target)
		byTarget[u.Target] = u
	}

	assert.True(t, strings.HasPrefix(lineAt(t, byTarget["playground.Inc"].Location), "func Inc("))
	assert.True(t, strings.HasPrefix(lineAt(t, byTarget["playground.Rect.Area"].Location), "func (r Rect) Area()"))
	assert.True(t, strings.HasPrefix(lineAt(t, byTarget["playground.Circle.Area"].Location), "func (c Circle) Area()"))
}
