package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagerModel_NeedsPagination(t *testing.T) {
	short := newPagerModel("t", "a\nb\n", 80, 10)
	assert.False(t, short.needsPagination())

	long := newPagerModel("t", strings.Repeat("line\n", 50), 80, 10)
	assert.True(t, long.needsPagination())

	unknown := newPagerModel("t", strings.Repeat("line\n", 50), 80, 0)
	assert.False(t, unknown.needsPagination())
}

func TestPagerModel_Update(t *testing.T) {
	model := newPagerModel("edits", strings.Repeat("line\n", 50), 80, 10)

	next, cmd := model.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	assert.Nil(t, cmd)

	resized := next.(pagerModel)
	assert.Equal(t, 100, resized.viewport.Width)
	assert.Equal(t, 18, resized.viewport.Height)

	next, _ = resized.Update(tea.KeyMsg{Type: tea.KeyDown})
	scrolled := next.(pagerModel)
	assert.Equal(t, 1, scrolled.viewport.YOffset)

	next, cmd = scrolled.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, next.(pagerModel).quitting)
	assert.Empty(t, next.(pagerModel).View())
}

func TestPagerModel_View(t *testing.T) {
	view := newPagerModel("edits", "hello\n", 80, 10).View()

	assert.Contains(t, view, "edits")
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "q quit")
}

func TestTUI_BrowsePrintsWhenNotATerminal(t *testing.T) {
	cmd, _, _ := newTestCommand()
	out := &bytes.Buffer{}

	err := NewTUI(NewSimpleUI(cmd), out).Browse(context.Background(), sampleEdits())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "The following edits have been applied:")
}
