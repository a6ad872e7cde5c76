// Package plan defines the study-plan data model shared by every
// pipeline stage. A Topic is created once by the generator, copied into
// the formatter, and consumed read-only by the publisher.
package plan

import (
	"fmt"
	"strings"
)

// Topic is the root structured learning plan. Subtopic order is the
// learning sequence and must survive every stage unchanged.
type Topic struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Subtopics   []Subtopic `json:"subtopics"`
}

// Subtopic is one unit of the plan.
type Subtopic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// DifficultyLevel ranges 1 (easy) to 5 (hard). Advisory only; 0 means
	// the model did not supply one.
	DifficultyLevel   int      `json:"difficulty_level,omitempty"`
	Exercises         []string `json:"exercises"`
	VerificationSteps []string `json:"verification_steps"`
}

// Validate checks the invariants a Topic must satisfy before it can be
// formatted or published.
func (t *Topic) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("topic title is required")
	}
	if len(t.Subtopics) == 0 {
		return fmt.Errorf("topic must have at least one subtopic")
	}
	for i, st := range t.Subtopics {
		if strings.TrimSpace(st.Title) == "" {
			return fmt.Errorf("subtopic %d: title is required", i)
		}
		if st.DifficultyLevel < 0 || st.DifficultyLevel > 5 {
			return fmt.Errorf("subtopic %d: difficulty_level must be between 1 and 5 (got %d)", i, st.DifficultyLevel)
		}
	}
	return nil
}

// Clone returns a deep copy. Stages hand each other copies so that no
// stage can mutate a Topic it did not create.
func (t Topic) Clone() Topic {
	out := Topic{
		Title:       t.Title,
		Description: t.Description,
		Subtopics:   make([]Subtopic, len(t.Subtopics)),
	}
	for i, st := range t.Subtopics {
		out.Subtopics[i] = Subtopic{
			Title:             st.Title,
			Description:       st.Description,
			DifficultyLevel:   st.DifficultyLevel,
			Exercises:         append([]string(nil), st.Exercises...),
			VerificationSteps: append([]string(nil), st.VerificationSteps...),
		}
	}
	return out
}

// Normalize replaces nil collections with empty ones so that every
// string-slice field is non-null after decoding model output.
func (t *Topic) Normalize() {
	if t.Subtopics == nil {
		t.Subtopics = []Subtopic{}
	}
	for i := range t.Subtopics {
		if t.Subtopics[i].Exercises == nil {
			t.Subtopics[i].Exercises = []string{}
		}
		if t.Subtopics[i].VerificationSteps == nil {
			t.Subtopics[i].VerificationSteps = []string{}
		}
	}
}

// SubtopicShape is the structural signature of one subtopic.
type SubtopicShape struct {
	Exercises         int
	VerificationSteps int
}

// Shape returns the structural signature of the Topic: one entry per
// subtopic, in order, with the exercise and verification-step counts.
func (t *Topic) Shape() []SubtopicShape {
	shape := make([]SubtopicShape, len(t.Subtopics))
	for i, st := range t.Subtopics {
		shape[i] = SubtopicShape{
			Exercises:         len(st.Exercises),
			VerificationSteps: len(st.VerificationSteps),
		}
	}
	return shape
}

// ShapeEqual reports whether two topics have identical structure:
// same subtopic count and, per subtopic, the same number of exercises
// and verification steps.
func ShapeEqual(a, b *Topic) bool {
	if len(a.Subtopics) != len(b.Subtopics) {
		return false
	}
	sa, sb := a.Shape(), b.Shape()
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
