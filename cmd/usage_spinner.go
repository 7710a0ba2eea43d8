package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const scanSpinnerLabel = "Reading Codex session logs..."

// runScanSpinner runs scan while animating a spinner on output, and returns
// the scan's error once it finishes. The spinner program owns the terminal
// only for the duration of the scan.
func runScanSpinner(ctx context.Context, output io.Writer, scan func(context.Context) error) error {
	model := scanModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		run: func() tea.Msg {
			return scanFinishedMsg{err: scan(ctx)}
		},
	}

	finalModel, err := tea.NewProgram(
		model,
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		return err
	}

	finished, ok := finalModel.(scanModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return finished.err
}

type scanFinishedMsg struct {
	err error
}

type scanModel struct {
	spinner  spinner.Model
	run      tea.Cmd
	err      error
	finished bool
}

func (m scanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanFinishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m scanModel) View() string {
	if m.finished {
		return ""
	}

	return m.spinner.View() + " " + scanSpinnerLabel
}
