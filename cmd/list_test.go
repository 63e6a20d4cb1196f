package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_PrintsUnits(t *testing.T) {
	// Arrange
	useTempFiles(t)
	useModules(t, newCalcModule())

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list"})

	// Act
	err := cmd.Execute()

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "calc.Triple")
	assert.Contains(t, out.String(), "func(int) int")
	assert.Contains(t, out.String(), "fixture_test.go")
	assert.Contains(t, out.String(), "TOTAL UNITS 1")
}
