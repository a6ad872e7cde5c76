package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonforge/lessonforge/internal/plan"
)

func formattedTopic() plan.Topic {
	return plan.Topic{
		Title:       "Python async",
		Description: "**Asynchronous programming** in Python",
		Subtopics: []plan.Subtopic{
			{
				Title:             "Coroutines",
				Description:       "The `async`/`await` building blocks.",
				DifficultyLevel:   2,
				Exercises:         []string{"Write a coroutine that sleeps and returns a value"},
				VerificationSteps: []string{"- [ ] Explain the event loop handoff"},
			},
			{
				Title:             "Event loops",
				Description:       "Scheduling and task lifecycles.",
				Exercises:         []string{"```python\nimport asyncio\n```"},
				VerificationSteps: []string{},
			},
		},
	}
}

func TestBuildDrafts(t *testing.T) {
	topic := formattedTopic()
	parent, children := BuildDrafts(&topic)

	assert.Equal(t, "Python async", parent.Title)
	assert.Equal(t, topic.Description, parent.Body)
	assert.Equal(t, []string{"learning"}, parent.Labels)

	require.Len(t, children, 2)
	assert.Equal(t, "Coroutines", children[0].Title)
	assert.Equal(t, "Event loops", children[1].Title)
	assert.Equal(t, []string{"learning", "subtopic"}, children[0].Labels)

	first := children[0].Body
	assert.Contains(t, first, "The `async`/`await` building blocks.")
	assert.Contains(t, first, "Difficulty: 2/5")
	assert.Contains(t, first, "### Verification steps")
	assert.Contains(t, first, "- [ ] Explain the event loop handoff")
	assert.NotContains(t, first, "- - [ ]")
	assert.Contains(t, first, "### Exercises")

	// Already-fenced exercise content is kept verbatim, not bulleted.
	second := children[1].Body
	assert.Contains(t, second, "```python\nimport asyncio\n```")
	assert.NotContains(t, second, "Difficulty:")
	assert.NotContains(t, second, "### Verification steps")
}

func TestWithBacklink(t *testing.T) {
	assert.Equal(t, "body\n\nParent: #7", withBacklink("body", 7))
	assert.Equal(t, "Parent: #7", withBacklink("  ", 7))
}
