package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-cstest/internal/wizard"
)

// =============================================================================
// Key Bindings
// =============================================================================

type keyMap struct {
	Submit key.Binding
	Back   key.Binding
	Cancel key.Binding
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Back:   key.NewBinding(key.WithKeys("shift+tab", "ctrl+b"), key.WithHelp("shift+tab", "back")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "tab", "h", "l"), key.WithHelp("←/→", "toggle")),
}

// =============================================================================
// Model
// =============================================================================

// promptModel shows a single wizard step.
type promptModel struct {
	prompt wizard.Prompt
	input  textinput.Model
	choice bool

	reply wizard.Reply
	done  bool
}

func newPromptModel(p wizard.Prompt) promptModel {
	ti := textinput.New()
	ti.Placeholder = p.Placeholder
	ti.CharLimit = 20
	ti.Width = 24
	ti.Prompt = "> "
	ti.SetValue(p.Default)
	ti.CursorEnd()
	ti.Focus()

	choice, _ := wizard.ParseYesNo(p.Default)

	return promptModel{
		prompt: p,
		input:  ti,
		choice: choice,
	}
}

// Init implements tea.Model.
func (m promptModel) Init() tea.Cmd {
	if m.prompt.Kind == wizard.KindInteger {
		return textinput.Blink
	}
	return nil
}

// Update implements tea.Model.
func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.prompt.Kind == wizard.KindInteger {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Cancel):
		return m.finish(wizard.Reply{Kind: wizard.ReplyCancel})

	case key.Matches(keyMsg, keys.Back):
		return m.finish(wizard.Reply{Kind: wizard.ReplyBack})

	case key.Matches(keyMsg, keys.Submit):
		value := m.input.Value()
		if m.prompt.Kind == wizard.KindYesNo {
			value = wizard.FormatYesNo(m.choice)
		}
		return m.finish(wizard.Reply{Kind: wizard.ReplyAnswer, Value: value})
	}

	if m.prompt.Kind == wizard.KindYesNo {
		switch {
		case key.Matches(keyMsg, keys.Yes):
			m.choice = true
			return m.finish(wizard.Reply{Kind: wizard.ReplyAnswer, Value: "yes"})
		case key.Matches(keyMsg, keys.No):
			m.choice = false
			return m.finish(wizard.Reply{Kind: wizard.ReplyAnswer, Value: "no"})
		case key.Matches(keyMsg, keys.Toggle):
			m.choice = !m.choice
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) finish(r wizard.Reply) (tea.Model, tea.Cmd) {
	m.reply = r
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m promptModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(stepStyle.Render(fmt.Sprintf("Randomtest settings (%d/%d)", m.prompt.Number, m.prompt.Total)))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(m.prompt.Title))
	b.WriteString("\n\n")

	if m.prompt.Kind == wizard.KindYesNo {
		yes, no := choiceInactiveStyle, choiceInactiveStyle
		if m.choice {
			yes = choiceActiveStyle
		} else {
			no = choiceActiveStyle
		}
		b.WriteString(yes.Render("Yes"))
		b.WriteString(" ")
		b.WriteString(no.Render("No"))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	if m.prompt.Err != nil {
		b.WriteString(errorStyle.Render(m.prompt.Err.Error()))
		b.WriteString("\n")
	}

	help := []string{"enter confirm", "esc cancel"}
	if m.prompt.Number > 1 {
		help = append(help, "shift+tab back")
	}
	if m.prompt.Kind == wizard.KindYesNo {
		help = append(help, "y/n choose")
	}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Prompter
// =============================================================================

// Prompter implements wizard.Prompter with one Bubble Tea program per step.
type Prompter struct {
	In  io.Reader // nil = stdin
	Out io.Writer // nil = stdout
}

// Prompt implements wizard.Prompter.
func (p *Prompter) Prompt(ctx context.Context, pr wizard.Prompt) (wizard.Reply, error) {
	if ctx.Err() != nil {
		return wizard.Reply{}, wizard.ErrCancelled
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newPromptModel(pr), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return wizard.Reply{}, wizard.ErrCancelled
		}
		return wizard.Reply{}, fmt.Errorf("run prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || !m.done {
		return wizard.Reply{Kind: wizard.ReplyCancel}, nil
	}
	return m.reply, nil
}

var _ wizard.Prompter = (*Prompter)(nil)
