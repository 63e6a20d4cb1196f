package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "inplace.dev/pkg/inplace/internal/model"
)

const (
	pagerTitle    = "inplace - active edits"
	pagerChrome   = 2 // header and footer lines
	pagerHelpText = "↑/↓ scroll • q quit"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI with a Bubble Tea pager for browsing edits. Everything
// else is printed like SimpleUI.
type TUI struct {
	*SimpleUI
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(simple *SimpleUI, output io.Writer) *TUI {
	return &TUI{SimpleUI: simple, output: output}
}

// Browse shows the edits in a scrollable pager when they do not fit on the
// screen.
func (p *TUI) Browse(ctx context.Context, edits []m.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	width, height := defaultWidth, 0

	if f, ok := p.output.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			width, height = w, h
		}
	}

	content := renderEdits(edits, width)

	model := newPagerModel(pagerTitle, content, width, height)
	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, content)
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// pagerModel is the Bubble Tea model of the edits pager.
type pagerModel struct {
	title    string
	content  string
	viewport viewport.Model
	quitting bool
}

func newPagerModel(title, content string, width, height int) pagerModel {
	vp := viewport.New(width, max(height-pagerChrome, 0))
	vp.SetContent(content)

	return pagerModel{
		title:    title,
		content:  content,
		viewport: vp,
	}
}

func (pm pagerModel) needsPagination() bool {
	if pm.viewport.Height <= 0 {
		return false
	}

	return strings.Count(pm.content, "\n") > pm.viewport.Height
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.viewport.Width = msg.Width
		pm.viewport.Height = max(msg.Height-pagerChrome, 0)

		return pm, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			pm.quitting = true
			return pm, tea.Quit
		}
	}

	var cmd tea.Cmd
	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	footer := fmt.Sprintf("%3.f%% • %s", pm.viewport.ScrollPercent()*100, pagerHelpText)

	return headerStyle.Render(pm.title) + "\n" + pm.viewport.View() + "\n" + footerStyle.Render(footer)
}
