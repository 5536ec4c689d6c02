package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-cstest/internal/settings"
)

// scriptedPrompter replays replies and records the prompts it was shown.
type scriptedPrompter struct {
	replies []Reply
	prompts []Prompt
	onEmpty error
}

func (s *scriptedPrompter) Prompt(ctx context.Context, p Prompt) (Reply, error) {
	s.prompts = append(s.prompts, p)
	if len(s.replies) == 0 {
		if s.onEmpty != nil {
			return Reply{}, s.onEmpty
		}
		<-ctx.Done()
		return Reply{}, ctx.Err()
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func answer(v string) Reply { return Reply{Kind: ReplyAnswer, Value: v} }

func defaults() settings.Settings {
	return settings.Settings{
		Iterations:   10,
		Seed:         0,
		ShowFullText: false,
		ShowCoverage: true,
	}
}

func TestParseUint(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"  1000  ", 1000, false},
		{"18446744073709551615", 18446744073709551615, false},
		{"18446744073709551616", 0, true},
		{"", 0, true},
		{"   ", 0, true},
		{"-1", 0, true},
		{"+1", 0, true},
		{"1.5", 0, true},
		{"12abc", 0, true},
		{"1 000", 0, true},
		{"0x10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUint(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseYesNo(t *testing.T) {
	for _, in := range []string{"yes", "Y", " true "} {
		b, err := ParseYesNo(in)
		require.NoError(t, err, in)
		assert.True(t, b, in)
	}
	for _, in := range []string{"no", "N", "FALSE"} {
		b, err := ParseYesNo(in)
		require.NoError(t, err, in)
		assert.False(t, b, in)
	}
	_, err := ParseYesNo("maybe")
	assert.Error(t, err)
}

func TestWizard_StepOrder(t *testing.T) {
	w := New(defaults())
	var order []Step
	for !w.Done() {
		order = append(order, w.Step())
		p := w.Current()
		input := "1"
		if p.Kind == KindYesNo {
			input = "yes"
		}
		require.NoError(t, w.Answer(input))
	}

	assert.Equal(t, []Step{
		StepIterations,
		StepSeed,
		StepShowFullText,
		StepAvoidUsedOptions,
		StepShowChoices,
		StepShowCoverage,
	}, order)
}

func TestWizard_CurrentSeededFromDefaults(t *testing.T) {
	w := New(defaults())
	p := w.Current()

	assert.Equal(t, 1, p.Number)
	assert.Equal(t, TotalSteps, p.Total)
	assert.Equal(t, KindInteger, p.Kind)
	assert.Equal(t, "10", p.Default)
	assert.NoError(t, p.Err)
}

func TestWizard_ValidationBlocksAdvance(t *testing.T) {
	w := New(defaults())

	err := w.Answer("ten")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepIterations, verr.Step)
	assert.Equal(t, StepIterations, w.Step(), "state unchanged")
	assert.Equal(t, uint64(10), w.Result().Iterations)
	assert.Error(t, w.Current().Err, "error shown on re-prompt")

	require.NoError(t, w.Answer("25"))
	assert.Equal(t, StepSeed, w.Step())
	assert.NoError(t, w.Current().Err)
}

func TestWizard_BackResumesWithEnteredValue(t *testing.T) {
	w := New(defaults())
	require.NoError(t, w.Answer("77"))
	require.NoError(t, w.Answer("5"))
	assert.Equal(t, StepShowFullText, w.Step())

	assert.True(t, w.Back())
	assert.Equal(t, StepSeed, w.Step())
	assert.Equal(t, "5", w.Current().Default)

	assert.True(t, w.Back())
	assert.Equal(t, "77", w.Current().Default)
	assert.False(t, w.Back(), "cannot go back from the first step")
}

func TestWizard_AnswerAfterDone(t *testing.T) {
	w := New(defaults())
	for _, in := range []string{"1", "2", "y", "n", "y", "n"} {
		require.NoError(t, w.Answer(in))
	}
	assert.True(t, w.Done())
	assert.Error(t, w.Answer("1"))
	assert.False(t, w.Back())
}

func TestRun_Complete(t *testing.T) {
	p := &scriptedPrompter{replies: []Reply{
		answer("500"),
		answer("-3"), // rejected, re-prompted
		answer("99"),
		answer("yes"),
		{Kind: ReplyBack},
		answer("no"),
		answer("yes"),
		answer("no"),
		answer("no"),
	}}

	got, err := Run(context.Background(), p, defaults())
	require.NoError(t, err)

	assert.Equal(t, settings.Settings{
		Iterations:       500,
		Seed:             99,
		ShowFullText:     false,
		AvoidUsedOptions: true,
		ShowChoices:      false,
		ShowCoverage:     false,
	}, got)

	// The rejected seed was re-prompted with the error attached.
	require.GreaterOrEqual(t, len(p.prompts), 3)
	assert.Equal(t, StepSeed, p.prompts[2].Step)
	assert.Error(t, p.prompts[2].Err)

	// Back from "avoid used options" resumes "show full text" with the
	// value entered before.
	require.Len(t, p.prompts, 9)
	assert.Equal(t, StepAvoidUsedOptions, p.prompts[4].Step)
	assert.Equal(t, StepShowFullText, p.prompts[5].Step)
	assert.Equal(t, "yes", p.prompts[5].Default)
}

func TestRun_CancelReply(t *testing.T) {
	p := &scriptedPrompter{replies: []Reply{answer("5"), {Kind: ReplyCancel}}}

	_, err := Run(context.Background(), p, defaults())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedPrompter{replies: []Reply{answer("5")}}

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, p, defaults())
		done <- err
	}()
	cancel()

	assert.ErrorIs(t, <-done, ErrCancelled)
}

func TestRun_PrompterError(t *testing.T) {
	boom := errors.New("terminal gone")
	p := &scriptedPrompter{onEmpty: boom}

	_, err := Run(context.Background(), p, defaults())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestCollector(t *testing.T) {
	p := &scriptedPrompter{replies: []Reply{
		answer("1"), answer("2"), answer("y"), answer("y"), answer("y"), answer("y"),
	}}
	got, err := Collector{Prompter: p}.Collect(context.Background(), defaults())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Iterations)
	assert.True(t, got.ShowCoverage)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "Random seed", StepSeed.String())
	assert.Equal(t, "done", StepDone.String())
	assert.Equal(t, "unknown", Step(-1).String())
}
