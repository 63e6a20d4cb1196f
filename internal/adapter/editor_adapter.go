package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

const defaultEditor = "vi"

// EditorAdapter hands a file to the user's editor and blocks until the user
// is done with it.
type EditorAdapter interface {
	Edit(ctx context.Context, path string) error
}

// LocalEditorAdapter runs an editor command attached to the given streams.
type LocalEditorAdapter struct {
	command string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewLocalEditorAdapter constructs an adapter for command, e.g. "code --wait".
// An empty command falls back to $VISUAL, $EDITOR and finally vi.
func NewLocalEditorAdapter(command string) *LocalEditorAdapter {
	return &LocalEditorAdapter{
		command: command,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
}

// WithStreams replaces the streams the editor is attached to.
func (a *LocalEditorAdapter) WithStreams(stdin io.Reader, stdout, stderr io.Writer) *LocalEditorAdapter {
	a.stdin, a.stdout, a.stderr = stdin, stdout, stderr
	return a
}

// Command returns the editor command line that will be used.
func (a *LocalEditorAdapter) Command() string {
	return ResolveEditorCommand(a.command)
}

// Edit runs the editor on path and waits for it to exit.
func (a *LocalEditorAdapter) Edit(ctx context.Context, path string) error {
	argv, err := shlex.Split(a.Command())
	if err != nil {
		return fmt.Errorf("parse editor command %q: %w", a.Command(), err)
	}

	if len(argv) == 0 {
		return fmt.Errorf("empty editor command")
	}

	// #nosec G204 - the editor is chosen by the user running the session
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = a.stdin
	cmd.Stdout = a.stdout
	cmd.Stderr = a.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", argv[0], err)
	}

	return nil
}

// ResolveEditorCommand picks the editor command: the configured one, then
// $VISUAL, then $EDITOR, then vi.
func ResolveEditorCommand(configured string) string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}

	return defaultEditor
}
