// Package accounts renders the saved-account listing with per-account usage
// bars through a one-shot bubbletea program.
package accounts

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/codex-accounts-cli/internal/application"
	"github.com/bnema/codex-accounts-cli/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// Row pairs one saved account with whatever usage could be resolved for it.
type Row struct {
	Account domain.Account
	Usage   application.DisplayUsage
}

type renderReadyMsg struct{}

type model struct {
	rows   []Row
	opts   RenderOptions
	styles styles
	output string
}

func newModel(rows []Row, opts RenderOptions) model {
	return model{
		rows:   rows,
		opts:   opts,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.rows, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(rows []Row, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(rows, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
