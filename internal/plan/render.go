package plan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderDocument renders the whole plan as a single Markdown document,
// suitable for printing to the terminal or piping to a file.
func RenderDocument(t *Topic) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n%s\n", t.Title, strings.TrimSpace(t.Description))

	for i := range t.Subtopics {
		st := &t.Subtopics[i]
		sb.WriteString("\n---\n\n")
		fmt.Fprintf(&sb, "## %s\n\n", st.Title)
		if st.DifficultyLevel > 0 {
			fmt.Fprintf(&sb, "Difficulty: %d/5\n\n", st.DifficultyLevel)
		}
		sb.WriteString(strings.TrimSpace(st.Description))
		sb.WriteString("\n")

		if len(st.VerificationSteps) > 0 {
			sb.WriteString("\n### Verification steps\n\n")
			for _, step := range st.VerificationSteps {
				fmt.Fprintf(&sb, "- %s\n", step)
			}
		}
		if len(st.Exercises) > 0 {
			sb.WriteString("\n### Exercises\n\n")
			for _, ex := range st.Exercises {
				fmt.Fprintf(&sb, "- %s\n", ex)
			}
		}
	}
	return sb.String()
}

// RenderHTML converts the rendered plan document to HTML using
// GitHub-flavored Markdown, for local previews of what issue bodies
// will look like.
func RenderHTML(t *Topic) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(RenderDocument(t)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render plan HTML: %w", err)
	}
	return buf.Bytes(), nil
}
