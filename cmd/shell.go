package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inplace.dev/pkg/inplace/internal/controller"
	"inplace.dev/pkg/inplace/internal/domain"
	m "inplace.dev/pkg/inplace/internal/model"
)

const shellLongDescription = `Start an interactive patching shell. Each line is one command:

  edit TARGET            open TARGET in the editor and install the result
  install TARGET FILE    install the function defined in FILE
  revert TARGET          restore the original of TARGET
  revert-all             restore every original
  dump [-o FILE]         print the active edits, or save them as YAML
  browse                 page through the active edits
  show TARGET            print the source TARGET currently runs
  diff TARGET            diff the original of TARGET against its edit
  list                   list every editable unit
  call TARGET [ARGS...]  call TARGET with YAML-encoded arguments
  history                list the installs and reverts of this session
  exit                   leave the shell

Leaving the shell reports the edits still active and reverts them.

` + targetsHelp

// errExit ends the shell loop without an error.
var errExit = errors.New("exit")

var shellPromptFlag string

// shellCmd represents the shell command.
var shellCmd = newShellCmd()

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive patching shell",
		Long:  shellLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			session, ui := newSession(cmd)
			defer session.Close(context.WithoutCancel(ctx))

			sh := newShell(cmd, session, ui)
			sh.prompt = viper.GetString(shellPromptKey)

			return sh.loop(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&shellPromptFlag, promptFlagName, viper.GetString(shellPromptKey), "prompt printed before each command")
	bindFlagToConfig(cmd.Flags().Lookup(promptFlagName), shellPromptKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shell dispatches command lines to a session.
type shell struct {
	session *domain.Session
	ui      controller.UI
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	prompt  string

	// keepGoing continues past failed commands; scripts stop at the first.
	keepGoing bool
}

func newShell(cmd *cobra.Command, session *domain.Session, ui controller.UI) *shell {
	return &shell{
		session:   session,
		ui:        ui,
		in:        cmd.InOrStdin(),
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
		keepGoing: true,
	}
}

type lineResult struct {
	text string
	ok   bool
	err  error
}

// loop reads commands from r until it is exhausted, exit is entered or ctx
// is done. The reader goroutine only scans after a request so that an
// editor started by a command gets the terminal to itself.
func (sh *shell) loop(ctx context.Context, r io.Reader) error {
	requests := make(chan struct{})
	lines := make(chan lineResult, 1)

	go func() {
		scanner := bufio.NewScanner(r)

		for range requests {
			ok := scanner.Scan()
			lines <- lineResult{text: scanner.Text(), ok: ok, err: scanner.Err()}

			if !ok {
				return
			}
		}
	}()

	defer close(requests)

	for {
		if sh.prompt != "" {
			fmt.Fprint(sh.out, sh.prompt)
		}

		select {
		case requests <- struct{}{}:
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		}

		var line lineResult

		select {
		case line = <-lines:
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		}

		if !line.ok {
			return line.err
		}

		err := sh.run(ctx, line.text)
		if errors.Is(err, errExit) {
			return nil
		}

		if err != nil {
			if !sh.keepGoing {
				return err
			}

			sh.ui.DisplayError(ctx, err)
		}
	}
}

// run executes a single command line.
func (sh *shell) run(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}

	if len(words) == 0 {
		return nil
	}

	root := sh.commands()
	root.SetArgs(words)
	root.SetIn(sh.in)
	root.SetOut(sh.out)
	root.SetErr(sh.errOut)

	return root.ExecuteContext(ctx)
}

// commands builds a fresh command tree for one line, so flag values never
// leak from one line to the next.
func (sh *shell) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "inplace",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(
		sh.editCmd(),
		sh.installCmd(),
		sh.revertCmd(),
		sh.revertAllCmd(),
		sh.dumpCmd(),
		sh.browseCmd(),
		sh.showCmd(),
		sh.diffCmd(),
		sh.listCmd(),
		sh.callCmd(),
		sh.historyCmd(),
		sh.exitCmd(),
	)

	return root
}

func (sh *shell) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit TARGET",
		Short: "Edit TARGET and install the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replacement, err := sh.session.Edit(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrNoChanges) {
				cmd.Println("No changes.")
				return nil
			}

			if err != nil {
				return err
			}

			sh.ui.DisplayInstalled(cmd.Context(), replacement)

			return nil
		},
	}
}

func (sh *shell) installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install TARGET FILE",
		Short: "Install the function defined in FILE for TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}

			replacement, err := sh.session.Install(cmd.Context(), args[0], string(text))
			if err != nil {
				return err
			}

			sh.ui.DisplayInstalled(cmd.Context(), replacement)

			return nil
		},
	}
}

func (sh *shell) revertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert TARGET",
		Short: "Restore the original of TARGET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.session.Revert(cmd.Context(), args[0]); err != nil {
				return err
			}

			sh.ui.DisplayReverted(cmd.Context(), args[0])

			return nil
		},
	}
}

func (sh *shell) revertAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert-all",
		Short: "Restore every original",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			edits := sh.session.Dump()

			if err := sh.session.RevertAll(cmd.Context()); err != nil {
				return err
			}

			for _, e := range edits {
				sh.ui.DisplayReverted(cmd.Context(), e.Target)
			}

			return nil
		},
	}
}

func (sh *shell) dumpCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the active edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "" {
				return sh.session.SaveDump(cmd.Context(), m.Path(output))
			}

			return sh.ui.DisplayEdits(cmd.Context(), sh.session.Dump())
		},
	}

	cmd.Flags().StringVarP(&output, outputFlagName, "o", "", "save the edits to a YAML file instead")

	return cmd
}

func (sh *shell) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Page through the active edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.ui.Browse(cmd.Context(), sh.session.Dump())
		},
	}
}

func (sh *shell) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TARGET",
		Short: "Print the source TARGET currently runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := sh.session.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return sh.ui.DisplaySource(cmd.Context(), args[0], text)
		},
	}
}

func (sh *shell) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff TARGET",
		Short: "Diff the original of TARGET against its edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diff, err := sh.session.Diff(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Print(diff)

			return nil
		},
	}
}

func (sh *shell) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every editable unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			units, err := sh.session.Units(cmd.Context())
			if err != nil {
				return err
			}

			return sh.ui.DisplayUnits(cmd.Context(), units)
		},
	}
}

func (sh *shell) callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call TARGET [ARGS...]",
		Short: "Call TARGET with YAML-encoded arguments",
		Args:  cobra.MinimumNArgs(1),
		// Arguments such as -3 are values, not flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := sh.session.Call(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}

			sh.ui.DisplayResults(cmd.Context(), results)

			return nil
		},
	}
}

func (sh *shell) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the installs and reverts of this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := sh.session.History(cmd.Context())
			if err != nil {
				return err
			}

			return sh.ui.DisplayHistory(cmd.Context(), entries)
		},
	}
}

func (sh *shell) exitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "exit",
		Aliases: []string{"quit"},
		Short:   "Leave the shell",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errExit
		},
	}
}
