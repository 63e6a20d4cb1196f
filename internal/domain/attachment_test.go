package domain_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inplace.dev/pkg/inplace/internal/domain"
	"inplace.dev/pkg/inplace/pkg/live"
)

func TestAttachmentStrategy_Locate(t *testing.T) {
	f := newFixture(t)
	strategy := domain.NewAttachmentStrategy()

	fnLoc, err := strategy.Locate(f.inc)
	require.NoError(t, err)
	assert.Equal(t, "fixture.Inc", fnLoc.String())

	methodLoc, err := strategy.Locate(f.next)
	require.NoError(t, err)
	assert.Equal(t, "fixture.Counter.Next", methodLoc.String())

	_, err = strategy.Locate(nil)
	require.Error(t, err)
}

func TestAttachmentStrategy_AttachIsSymmetric(t *testing.T) {
	// Arrange
	f := newFixture(t)
	strategy := domain.NewAttachmentStrategy()

	loc, err := strategy.Locate(f.next)
	require.NoError(t, err)

	rep, err := live.NewReplacement(f.next, reflect.ValueOf(func(c Counter) int { return -c.N }), "h")
	require.NoError(t, err)

	counter, ok := f.mod.Lookup("Counter")
	require.True(t, ok)

	// Act + Assert
	require.NoError(t, strategy.Attach(loc, rep))

	out, err := counter.Call("Next", Counter{N: 4})
	require.NoError(t, err)
	assert.Equal(t, []any{-4}, out)

	require.NoError(t, strategy.Attach(loc, f.next))

	current, ok := counter.Unit("Next")
	require.True(t, ok)
	assert.Same(t, f.next, current)
}

func TestAttachmentStrategy_AttachRejectsWrongType(t *testing.T) {
	f := newFixture(t)
	strategy := domain.NewAttachmentStrategy()

	loc, err := strategy.Locate(f.inc)
	require.NoError(t, err)

	require.Error(t, strategy.Attach(loc, f.greet))

	current, ok := f.mod.Unit("Inc")
	require.True(t, ok)
	assert.Same(t, f.inc, current)
}
