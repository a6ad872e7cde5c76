// Package tracker publishes a formatted study plan to GitHub as one
// parent issue plus a linked sub-issue per subtopic.
package tracker

import (
	"fmt"
	"strings"

	"github.com/lessonforge/lessonforge/internal/plan"
)

// Default labels applied to created issues.
var (
	topicLabels    = []string{"learning"}
	subtopicLabels = []string{"learning", "subtopic"}
)

// IssueDraft is an issue waiting to be created.
type IssueDraft struct {
	Title  string
	Body   string
	Labels []string
}

// Issue identifies an issue that exists on the tracker (or a dry-run
// placeholder for one).
type Issue struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}

// BuildDrafts converts a formatted Topic into the parent draft and one
// child draft per subtopic, in subtopic order. Child bodies get their
// parent backlink appended at creation time, once the parent number is
// known.
func BuildDrafts(t *plan.Topic) (IssueDraft, []IssueDraft) {
	parent := IssueDraft{
		Title:  t.Title,
		Body:   t.Description,
		Labels: topicLabels,
	}

	children := make([]IssueDraft, 0, len(t.Subtopics))
	for i := range t.Subtopics {
		st := &t.Subtopics[i]
		var parts []string
		if strings.TrimSpace(st.Description) != "" {
			parts = append(parts, strings.TrimSpace(st.Description))
		}
		if st.DifficultyLevel > 0 {
			parts = append(parts, fmt.Sprintf("Difficulty: %d/5", st.DifficultyLevel))
		}
		if len(st.VerificationSteps) > 0 {
			lines := make([]string, 0, len(st.VerificationSteps)+1)
			lines = append(lines, "### Verification steps")
			for _, s := range st.VerificationSteps {
				// The formatter may already have produced checklist items.
				if strings.HasPrefix(strings.TrimSpace(s), "- ") {
					lines = append(lines, s)
				} else {
					lines = append(lines, "- [ ] "+s)
				}
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
		if len(st.Exercises) > 0 {
			lines := make([]string, 0, len(st.Exercises)+1)
			lines = append(lines, "### Exercises")
			for _, ex := range st.Exercises {
				if strings.Contains(ex, "```") {
					lines = append(lines, ex)
				} else {
					lines = append(lines, "- "+ex)
				}
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}

		children = append(children, IssueDraft{
			Title:  st.Title,
			Body:   strings.Join(parts, "\n\n"),
			Labels: subtopicLabels,
		})
	}
	return parent, children
}

// withBacklink appends the human-readable parent reference to a child
// issue body. This is in addition to the formal sub-issue link, which
// is registered through the tracker API.
func withBacklink(body string, parentNumber int) string {
	link := fmt.Sprintf("Parent: #%d", parentNumber)
	if strings.TrimSpace(body) == "" {
		return link
	}
	return body + "\n\n" + link
}
