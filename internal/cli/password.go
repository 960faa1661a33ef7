package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Password prompts for a secret. On a terminal the answer is masked and never
// echoed; any other input, such as a pipe, is read as a plain line.
func (r *LineReader) Password(ctx context.Context, label string) (string, error) {
	if f, ok := r.source.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return readMasked(ctx, f, r.writer, label)
	}
	return r.Require(ctx, label)
}

func readMasked(ctx context.Context, in io.Reader, out io.Writer, label string) (string, error) {
	program := tea.NewProgram(
		newPasswordModel(label),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return "", ErrInputCancelled
		}
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	m, ok := final.(passwordModel)
	if !ok || !m.submitted {
		return "", ErrInputCancelled
	}
	return m.input.Value(), nil
}

// passwordModel is a single masked input line.
type passwordModel struct {
	label     string
	warning   string
	input     textinput.Model
	submitted bool
	cancelled bool
}

func newPasswordModel(label string) passwordModel {
	input := textinput.New()
	input.Prompt = FormatPrompt(label)
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 256
	input.Focus()

	return passwordModel{label: label, input: input}
}

func (m passwordModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if m.input.Value() == "" {
				m.warning = m.label + " is required"
				return m, nil
			}
			m.submitted = true
			m.input.Blur()
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			m.input.Blur()
			return m, tea.Quit
		}
	}

	m.warning = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m passwordModel) View() string {
	if m.warning != "" {
		return m.input.View() + "\n" + FormatWarning(m.warning) + "\n"
	}
	return m.input.View() + "\n"
}
