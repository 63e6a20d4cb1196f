package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "inplace.dev/pkg/inplace/internal/model"
	"inplace.dev/pkg/inplace/pkg/live"
)

const (
	defaultWidth    = 80
	editsHeader     = "The following edits have been applied:"
	noEditsMessage  = "No edits are active."
	patchedMark     = "*"
	missingLocation = "-"
	noHistory       = "Nothing has been installed yet."
	historyTime     = "15:04:05"
)

var titleStyle = lipgloss.NewStyle().Bold(true)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayEdits prints every active edit with its location and source.
func (s *SimpleUI) DisplayEdits(ctx context.Context, edits []m.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderEdits(edits, TerminalWidth(s.cmd.OutOrStdout(), defaultWidth)))

	return nil
}

// ReportEdits prints the edits still active when the session ends.
func (s *SimpleUI) ReportEdits(ctx context.Context, edits []m.Edit) error {
	return s.DisplayEdits(ctx, edits)
}

// Browse prints the edits; SimpleUI has no pager.
func (s *SimpleUI) Browse(ctx context.Context, edits []m.Edit) error {
	return s.DisplayEdits(ctx, edits)
}

// DisplayUnits prints the hot slots as a table.
func (s *SimpleUI) DisplayUnits(ctx context.Context, units []m.UnitInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderUnitsTable(units))

	return nil
}

// DisplayHistory prints the journaled installs and reverts as a table.
func (s *SimpleUI) DisplayHistory(ctx context.Context, entries []m.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(entries) == 0 {
		s.printf("%s\n", noHistory)
		return nil
	}

	s.printf("%s", renderHistoryTable(entries))

	return nil
}

// DisplaySource prints text under a bold title.
func (s *SimpleUI) DisplaySource(ctx context.Context, title, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n\n%s", titleStyle.Render(title), text)

	if !strings.HasSuffix(text, "\n") {
		s.printf("\n")
	}

	return nil
}

// DisplayInstalled confirms an install.
func (s *SimpleUI) DisplayInstalled(ctx context.Context, replacement *live.Unit) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Installed %s (%s)\n", replacement.Target(), shortHash(replacement.Hash()))
}

// DisplayReverted confirms a revert.
func (s *SimpleUI) DisplayReverted(ctx context.Context, target string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Reverted %s\n", target)
}

// DisplayResults prints the values returned by a call, one per line.
func (s *SimpleUI) DisplayResults(ctx context.Context, results []any) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, r := range results {
		s.printf("%#v\n", r)
	}
}

// DisplayError prints err to the command's error stream.
func (s *SimpleUI) DisplayError(_ context.Context, err error) {
	if err == nil {
		return
	}

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "error: %v\n", err)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderEdits(edits []m.Edit, width int) string {
	if len(edits) == 0 {
		return noEditsMessage + "\n"
	}

	var b strings.Builder

	rule := strings.Repeat("-", max(width, 1))

	b.WriteString(editsHeader + "\n\n")

	for _, e := range edits {
		b.WriteString(rule + "\n")
		fmt.Fprintf(&b, "%s (%s)\n\n", e.Location, e.Target)
		b.WriteString(strings.TrimRight(e.Source, "\n"))
		b.WriteString("\n\n\n")
	}

	return b.String()
}

func renderUnitsTable(units []m.UnitInfo) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Target", "Kind", "Type", "Location", "Patched"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER,
	})

	patched := 0

	for _, u := range units {
		location := u.Location.String()
		if !u.Source {
			location = missingLocation
		}

		mark := ""
		if u.Patched {
			mark = patchedMark
			patched++
		}

		table.Append([]string{u.Target, u.Kind, u.Type, location, mark})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Units %d", len(units)), "", "", "", fmt.Sprintf("%d", patched)})

	table.Render()

	return tableBuffer.String()
}

func renderHistoryTable(entries []m.JournalEntry) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"#", "Time", "Action", "Target", "Hash"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", e.Seq),
			e.Time.Format(historyTime),
			string(e.Action),
			e.Target,
			shortHash(e.Hash),
		})
	}

	table.Render()

	return tableBuffer.String()
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}

	return hash
}
