// Package cmd provides the root command and CLI setup for inplace.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"inplace.dev/pkg/inplace/internal/adapter"
	"inplace.dev/pkg/inplace/internal/controller"
	"inplace.dev/pkg/inplace/internal/domain"
	"inplace.dev/pkg/inplace/pkg/live"
)

// modules are the hot modules the host binary was built with.
var modules []*live.Module

var editorFlag string
var sourceRootFlag string
var dumpOnExitFlag bool
var verboseFlag bool

const targetsHelp = `Targets name a hot slot as module.Func or module.Type.Method,
e.g. playground.Inc or playground.Rect.Area.`

const rootLongDescription = `Inplace edits the functions of a running Go program. Open a function in
your editor, save, and the new body replaces the old one while the program
keeps running; revert restores the original at any time.

` + targetsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inplace",
		Short: "Live function patching for Go programs",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&editorFlag, editorFlagName, viper.GetString(editorKey), "editor command (default $VISUAL, $EDITOR, vi)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(editorFlagName), editorKey)

	cmd.PersistentFlags().StringVar(&sourceRootFlag, sourceRootFlagName, viper.GetString(sourceRootKey), "directory holding the sources of a binary built with -trimpath")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(sourceRootFlagName), sourceRootKey)

	cmd.PersistentFlags().BoolVar(&dumpOnExitFlag, dumpOnExitFlagName, viper.GetBool(dumpOnExitKey), "print the active edits when the session ends")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(dumpOnExitFlagName), dumpOnExitKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// newSession starts a patching session over the registered modules, printing
// through cmd.
func newSession(cmd *cobra.Command) (*domain.Session, controller.UI) {
	ui := controller.NewUI(cmd, true)

	session := domain.NewSession(domain.SessionConfig{
		Modules:     modules,
		Files:       adapter.NewLocalGoFileAdapter(viper.GetString(sourceRootKey)),
		FS:          adapter.NewLocalSourceFSAdapter(""),
		Editor:      adapter.NewLocalEditorAdapter(viper.GetString(editorKey)).WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		Interpreter: adapter.NewYaegiInterpreter(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		Reports:     adapter.NewReportStore(),
		Journal:     newJournal(),
		Reporter:    ui,
		DumpOnExit:  viper.GetBool(dumpOnExitKey),
		Logger:      slog.Default(),
	})

	return session, ui
}

// newJournal opens the session journal, or returns nil when journaling is
// off or the file cannot be created.
func newJournal() adapter.Journal {
	if !viper.GetBool(journalKey) {
		return nil
	}

	journal, err := adapter.NewGobJournal(viper.GetString(journalDirKey))
	if err != nil {
		slog.Warn("Journal disabled", "error", err)
		return nil
	}

	return journal
}

// Execute adds all child commands to the root command and sets flags appropriately.
// It is called by the host's main with the modules the shell may edit.
func Execute(mods ...*live.Module) {
	modules = mods

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
