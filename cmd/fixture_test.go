package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"inplace.dev/pkg/inplace/pkg/live"
)

func triple(x int) int {
	return x * 3
}

const tripleTimesFour = `func triple(x int) int {
	return x * 4
}
`

func newCalcModule() *live.Module {
	mod := live.NewModule("example.com/calc")
	mod.Def("Triple", triple)

	return mod
}

// useModules registers mods for the duration of the test.
func useModules(t *testing.T, mods ...*live.Module) {
	t.Helper()

	original := modules
	modules = mods

	t.Cleanup(func() { modules = original })
}

// useTempFiles keeps the log and journal files out of the package directory.
func useTempFiles(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	viper.Set(logFilenameKey, filepath.Join(dir, "inplace.log"))
	viper.Set(journalDirKey, dir)

	t.Cleanup(func() {
		viper.Set(logFilenameKey, defaultLogFilename)
		viper.Set(journalDirKey, defaultJournalDir)
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
