// Package controller provides output adapters for displaying patching
// session results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

// UI defines how session results are shown to the user.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayEdits(ctx context.Context, edits []m.Edit) error
	DisplayUnits(ctx context.Context, units []m.UnitInfo) error
	DisplayHistory(ctx context.Context, entries []m.JournalEntry) error
	DisplaySource(ctx context.Context, title, text string) error
	DisplayInstalled(ctx context.Context, replacement *live.Unit)
	DisplayReverted(ctx context.Context, target string)
	DisplayResults(ctx context.Context, results []any)
	DisplayError(ctx context.Context, err error)
	Browse(ctx context.Context, edits []m.Edit) error

	// ReportEdits is called when a session ends with edits still installed.
	ReportEdits(ctx context.Context, edits []m.Edit) error
}

// NewUI picks the TUI when the command writes to a terminal and tui is set,
// the SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tui bool) UI {
	simple := NewSimpleUI(cmd)
	if tui && IsTTY(cmd.OutOrStdout()) {
		return NewTUI(simple, cmd.OutOrStdout())
	}

	return simple
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when w is not a terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}

	return width
}
