package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/plan"
)

func inputTopic() plan.Topic {
	return plan.Topic{
		Title:       "Python async",
		Description: "plain description",
		Subtopics: []plan.Subtopic{
			{
				Title:             "Coroutines",
				Description:       "plain subtopic description",
				DifficultyLevel:   2,
				Exercises:         []string{"write a coroutine"},
				VerificationSteps: []string{"explain await", "trace a task"},
			},
			{
				Title:             "Event loops",
				Description:       "another plain description",
				DifficultyLevel:   3,
				Exercises:         []string{},
				VerificationSteps: []string{"name the loop policy"},
			},
		},
	}
}

// markdownRewrite simulates a well-behaved formatting model: same
// structure, rewritten text.
func markdownRewrite(t plan.Topic) string {
	out := t.Clone()
	out.Description = "**" + out.Description + "**"
	for i := range out.Subtopics {
		out.Subtopics[i].Description = "*" + out.Subtopics[i].Description + "*"
		for j, step := range out.Subtopics[i].VerificationSteps {
			out.Subtopics[i].VerificationSteps[j] = "- [ ] " + step
		}
	}
	data, _ := json.Marshal(out)
	return string(data)
}

func TestFormatPreservesShape(t *testing.T) {
	input := inputTopic()
	mock := llm.NewMock(markdownRewrite(input))
	f, err := NewFormatter(FormatterConfig{LLM: mock})
	require.NoError(t, err)

	got, err := f.Format(context.Background(), input, "")
	require.NoError(t, err)

	assert.True(t, plan.ShapeEqual(&input, got))
	require.Len(t, got.Subtopics, 2)
	assert.Equal(t, "**plain description**", got.Description)
	assert.Equal(t, "- [ ] explain await", got.Subtopics[0].VerificationSteps[0])
	assert.Equal(t, 2, got.Subtopics[0].DifficultyLevel)

	// The input value is untouched: the original plan stays available
	// for audit.
	assert.Equal(t, "plain description", input.Description)
	assert.Equal(t, "explain await", input.Subtopics[0].VerificationSteps[0])
}

func TestFormatShapeMismatchIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*plan.Topic)
	}{
		{
			name:   "dropped subtopic",
			mutate: func(tp *plan.Topic) { tp.Subtopics = tp.Subtopics[:1] },
		},
		{
			name: "extra subtopic",
			mutate: func(tp *plan.Topic) {
				tp.Subtopics = append(tp.Subtopics, plan.Subtopic{Title: "invented"})
			},
		},
		{
			name:   "dropped exercise",
			mutate: func(tp *plan.Topic) { tp.Subtopics[0].Exercises = nil },
		},
		{
			name: "extra verification step",
			mutate: func(tp *plan.Topic) {
				tp.Subtopics[1].VerificationSteps = append(tp.Subtopics[1].VerificationSteps, "invented")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := inputTopic()
			bad := input.Clone()
			tt.mutate(&bad)
			data, err := json.Marshal(bad)
			require.NoError(t, err)

			f, err := NewFormatter(FormatterConfig{LLM: llm.NewMock(string(data))})
			require.NoError(t, err)

			_, err = f.Format(context.Background(), input, "")
			require.Error(t, err)

			var fmtErr *FormattingError
			assert.True(t, errors.As(err, &fmtErr), "expected FormattingError, got %T: %v", err, err)
		})
	}
}

func TestFormatRejectsInvalidInput(t *testing.T) {
	f, err := NewFormatter(FormatterConfig{LLM: llm.NewMock()})
	require.NoError(t, err)

	_, err = f.Format(context.Background(), plan.Topic{Title: "t"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subtopic")
}

func TestFormatUpstreamOutagePropagates(t *testing.T) {
	mock := llm.NewMock().FailWith(fmt.Errorf("api down: %w", llm.ErrUnavailable))
	f, err := NewFormatter(FormatterConfig{LLM: mock})
	require.NoError(t, err)

	_, err = f.Format(context.Background(), inputTopic(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrUnavailable))

	var fmtErr *FormattingError
	assert.False(t, errors.As(err, &fmtErr))
}

func TestFormatStyleGuideInPrompt(t *testing.T) {
	input := inputTopic()
	mock := llm.NewMock(markdownRewrite(input))
	f, err := NewFormatter(FormatterConfig{LLM: mock})
	require.NoError(t, err)

	_, err = f.Format(context.Background(), input, "use sentence case headers")
	require.NoError(t, err)
	require.Len(t, mock.Requests, 1)
	assert.Contains(t, mock.Requests[0].Prompt, "use sentence case headers")
}
