package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-cstest/internal/wizard"
)

// =============================================================================
// Test Helpers
// =============================================================================

func integerPrompt() wizard.Prompt {
	return wizard.Prompt{
		Step:        wizard.StepIterations,
		Number:      1,
		Total:       wizard.TotalSteps,
		Title:       "Number of iterations",
		Placeholder: "e.g. 1000",
		Kind:        wizard.KindInteger,
		Default:     "10",
	}
}

func yesNoPrompt(def string) wizard.Prompt {
	return wizard.Prompt{
		Step:    wizard.StepShowFullText,
		Number:  3,
		Total:   wizard.TotalSteps,
		Title:   "Show full text?",
		Kind:    wizard.KindYesNo,
		Default: def,
	}
}

func send(m promptModel, msgs ...tea.Msg) promptModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(promptModel)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// Tests: promptModel.Update
// =============================================================================

func TestPromptModel_IntegerSubmit(t *testing.T) {
	m := newPromptModel(integerPrompt())
	m = send(m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		runes("250"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if !m.done {
		t.Fatal("expected model to be done after enter")
	}
	if m.reply.Kind != wizard.ReplyAnswer {
		t.Errorf("reply kind = %v, want ReplyAnswer", m.reply.Kind)
	}
	if m.reply.Value != "250" {
		t.Errorf("reply value = %q, want %q", m.reply.Value, "250")
	}
}

func TestPromptModel_IntegerKeepsDefault(t *testing.T) {
	m := send(newPromptModel(integerPrompt()), tea.KeyMsg{Type: tea.KeyEnter})
	if m.reply.Value != "10" {
		t.Errorf("reply value = %q, want default %q", m.reply.Value, "10")
	}
}

func TestPromptModel_Keys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want wizard.ReplyKind
	}{
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, wizard.ReplyCancel},
		{"ctrl+c cancels", tea.KeyMsg{Type: tea.KeyCtrlC}, wizard.ReplyCancel},
		{"shift+tab goes back", tea.KeyMsg{Type: tea.KeyShiftTab}, wizard.ReplyBack},
		{"ctrl+b goes back", tea.KeyMsg{Type: tea.KeyCtrlB}, wizard.ReplyBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := newPromptModel(integerPrompt()).Update(tt.msg)
			m := next.(promptModel)
			if !m.done {
				t.Fatal("expected model to be done")
			}
			if m.reply.Kind != tt.want {
				t.Errorf("reply kind = %v, want %v", m.reply.Kind, tt.want)
			}
			if cmd == nil {
				t.Error("expected quit command")
			}
		})
	}
}

func TestPromptModel_YesNo(t *testing.T) {
	tests := []struct {
		name string
		def  string
		msgs []tea.Msg
		want string
	}{
		{"y answers yes", "no", []tea.Msg{runes("y")}, "yes"},
		{"n answers no", "yes", []tea.Msg{runes("n")}, "no"},
		{"enter keeps default yes", "yes", []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, "yes"},
		{"enter keeps default no", "no", []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, "no"},
		{"toggle then enter", "no", []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter}}, "yes"},
		{"double toggle", "no", []tea.Msg{tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyEnter}}, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := send(newPromptModel(yesNoPrompt(tt.def)), tt.msgs...)
			if !m.done {
				t.Fatal("expected model to be done")
			}
			if m.reply.Value != tt.want {
				t.Errorf("reply value = %q, want %q", m.reply.Value, tt.want)
			}
		})
	}
}

func TestPromptModel_YesNoIgnoresOtherKeys(t *testing.T) {
	m := send(newPromptModel(yesNoPrompt("no")), runes("x"), runes("7"))
	if m.done {
		t.Error("unrelated keys should not finish the prompt")
	}
}

// =============================================================================
// Tests: promptModel.View
// =============================================================================

func TestPromptModel_View(t *testing.T) {
	p := integerPrompt()
	p.Err = errors.New(`Number of iterations: "ten" is not a non-negative integer`)
	view := newPromptModel(p).View()

	for _, want := range []string{"(1/6)", "Number of iterations", "is not a non-negative integer", "esc cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "back") {
		t.Error("first step should not offer back")
	}
}

func TestPromptModel_ViewYesNo(t *testing.T) {
	view := newPromptModel(yesNoPrompt("yes")).View()
	for _, want := range []string{"(3/6)", "Yes", "No", "shift+tab back", "y/n choose"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestPromptModel_ViewDone(t *testing.T) {
	m := send(newPromptModel(integerPrompt()), tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.View(); got != "" {
		t.Errorf("View() after done = %q, want empty", got)
	}
}

// =============================================================================
// Tests: Prompter
// =============================================================================

func TestPrompter_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Prompter{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	_, err := p.Prompt(ctx, integerPrompt())
	if !errors.Is(err, wizard.ErrCancelled) {
		t.Errorf("Prompt() error = %v, want ErrCancelled", err)
	}
}
