package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/plan"
)

const formatterSystemPrompt = "You are a Markdown formatting assistant. " +
	"You receive a structured learning topic and return the same object shape " +
	"with its text fields rewritten as Markdown ready for GitHub issue bodies. " +
	"Never add or remove subtopics, exercises, or verification steps; never invent content, only reformat."

// FormatterConfig holds configuration for the Formatter.
type FormatterConfig struct {
	LLM         llm.Client // required
	JSONRetries int        // clarified-prompt retries (default: 2)
	Logger      *zap.Logger
}

// Formatter rewrites a Topic's text fields into Markdown. It is a
// structural identity transform: the output must have exactly the same
// subtopic, exercise, and verification-step counts as the input.
type Formatter struct {
	llm         llm.Client
	jsonRetries int
	logger      *zap.Logger
}

// NewFormatter creates a Formatter.
func NewFormatter(cfg FormatterConfig) (*Formatter, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	f := &Formatter{
		llm:         cfg.LLM,
		jsonRetries: cfg.JSONRetries,
		logger:      cfg.Logger,
	}
	if f.jsonRetries <= 0 {
		f.jsonRetries = defaultJSONRetries
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	return f, nil
}

// Format returns a new Topic whose text is Markdown-ready. The input
// value is never mutated; the caller keeps the original plan for audit.
func (f *Formatter) Format(ctx context.Context, topic plan.Topic, styleGuide string) (*plan.Topic, error) {
	if err := topic.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topic: %w", err)
	}

	payload, err := json.Marshal(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode topic: %w", err)
	}

	style := styleGuide
	if style == "" {
		style = "Use a simple, professional style."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `Rewrite the following topic into the SAME Topic-shaped JSON where the text fields are Markdown-ready.
Style guide: %s

Rules:
1. Keep the exact number and order of subtopics, exercises, and verification_steps.
2. Render verification_steps as Markdown checklist items ("- [ ] ...").
3. Use fenced code blocks where exercises contain code; keep existing fences as-is.
4. Keep difficulty_level values unchanged.
5. Respond with ONLY raw JSON matching the input schema.

Topic JSON:
%s`, style, payload)

	formatted, err := structuredCall[plan.Topic](ctx, f.llm, f.logger, "format",
		formatterSystemPrompt, sb.String(), f.jsonRetries, func(t *plan.Topic) error {
			t.Normalize()
			return t.Validate()
		})
	if err != nil {
		if isUpstream(err) {
			return nil, fmt.Errorf("markdown formatting: %w", err)
		}
		return nil, &FormattingError{Reason: "invalid formatter output", Err: err}
	}

	// Shape preservation is the post-condition of this stage. A mismatch
	// is fatal for the run; silently truncating or padding would corrupt
	// the learning sequence.
	if !plan.ShapeEqual(&topic, formatted) {
		return nil, &FormattingError{
			Reason: fmt.Sprintf("shape mismatch: input %v, output %v", topic.Shape(), formatted.Shape()),
		}
	}

	f.logger.Info("plan formatted", zap.Int("subtopics", len(formatted.Subtopics)))
	return formatted, nil
}
