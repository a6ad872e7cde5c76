// Package ai implements the plan-producing stages: the generator that
// turns a learning request into a structured Topic, and the formatter
// that rewrites the Topic's text into tracker-ready Markdown.
package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/plan"
	"github.com/lessonforge/lessonforge/internal/search"
)

const (
	defaultMaxSubtopics  = 3
	defaultJSONRetries   = 2
	defaultConcurrency   = 3
	maxGroundingSnippets = 5
)

const learningSystemPrompt = "You are an expert learning assistant. " +
	"You help users learn new topics by breaking them down into manageable subtopics."

// outline is the first-phase response: the topic plus subtopic names.
// Full subtopics are expanded one call each in the second phase.
type outline struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Subtopics   []string `json:"subtopics"`
}

// GeneratorConfig holds configuration for the Generator.
type GeneratorConfig struct {
	LLM          llm.Client      // required
	Searcher     search.Searcher // optional; nil disables grounding
	MaxSubtopics int             // default: 3
	JSONRetries  int             // clarified-prompt retries per call (default: 2)
	Concurrency  int             // concurrent subtopic expansions (default: 3)
	Logger       *zap.Logger
}

// Generator produces a structured learning plan from a free-text
// request, optionally grounded by search results.
type Generator struct {
	llm          llm.Client
	searcher     search.Searcher
	maxSubtopics int
	jsonRetries  int
	concurrency  int
	logger       *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	g := &Generator{
		llm:          cfg.LLM,
		searcher:     cfg.Searcher,
		maxSubtopics: cfg.MaxSubtopics,
		jsonRetries:  cfg.JSONRetries,
		concurrency:  cfg.Concurrency,
		logger:       cfg.Logger,
	}
	if g.maxSubtopics <= 0 {
		g.maxSubtopics = defaultMaxSubtopics
	}
	if g.jsonRetries <= 0 {
		g.jsonRetries = defaultJSONRetries
	}
	if g.concurrency <= 0 {
		g.concurrency = defaultConcurrency
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g, nil
}

// Generate produces a Topic for the request. styleGuide is advisory
// text woven into the instructions; it never changes the output schema.
func (g *Generator) Generate(ctx context.Context, request, styleGuide string) (*plan.Topic, error) {
	if strings.TrimSpace(request) == "" {
		return nil, fmt.Errorf("request is required")
	}

	grounding, err := g.ground(ctx, request)
	if err != nil {
		return nil, err
	}

	ol, err := g.generateOutline(ctx, request, styleGuide, grounding)
	if err != nil {
		return nil, err
	}
	g.logger.Info("outline generated",
		zap.String("topic", ol.Title),
		zap.Int("subtopics", len(ol.Subtopics)))

	topic := &plan.Topic{
		Title:       ol.Title,
		Description: ol.Description,
		Subtopics:   make([]plan.Subtopic, len(ol.Subtopics)),
	}

	// Expand subtopics concurrently; results land by outline index so
	// the learning sequence is preserved.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, name := range ol.Subtopics {
		eg.Go(func() error {
			st, err := g.expandSubtopic(egCtx, request, name, styleGuide)
			if err != nil {
				return err
			}
			topic.Subtopics[i] = *st
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	topic.Normalize()
	if err := topic.Validate(); err != nil {
		return nil, &GenerationError{Op: "plan", Err: err}
	}
	return topic, nil
}

// ground runs one search over the raw request and formats the top
// snippets for prompt injection. Returns "" when grounding is disabled.
func (g *Generator) ground(ctx context.Context, request string) (string, error) {
	if g.searcher == nil {
		return "", nil
	}
	results, err := g.searcher.Search(ctx, request)
	if err != nil {
		return "", fmt.Errorf("grounding search failed: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	if len(results) > maxGroundingSnippets {
		results = results[:maxGroundingSnippets]
	}

	var sb strings.Builder
	sb.WriteString("Current information from web search (use it to keep the plan up to date):\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
	}
	g.logger.Debug("grounding snippets collected", zap.Int("count", len(results)))
	return sb.String(), nil
}

func (g *Generator) generateOutline(ctx context.Context, request, styleGuide, grounding string) (*outline, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I want to learn: %s\n\n", request)
	if grounding != "" {
		sb.WriteString(grounding)
		sb.WriteString("\n")
	}
	if styleGuide != "" {
		fmt.Fprintf(&sb, "Advisory style notes (do not change the output schema): %s\n\n", styleGuide)
	}
	fmt.Fprintf(&sb, `Break this topic into at most %d subtopics ordered as a learning sequence.

Respond with ONLY raw JSON matching this schema:
{"title": "...", "description": "...", "subtopics": ["name", ...]}`, g.maxSubtopics)

	ol, err := structuredCall[outline](ctx, g.llm, g.logger, "outline",
		learningSystemPrompt, sb.String(), g.jsonRetries, func(o *outline) error {
			if strings.TrimSpace(o.Title) == "" {
				return fmt.Errorf("outline title is empty")
			}
			if len(o.Subtopics) == 0 {
				return fmt.Errorf("outline has no subtopics")
			}
			return nil
		})
	if err != nil {
		if isUpstream(err) {
			return nil, fmt.Errorf("outline generation: %w", err)
		}
		return nil, &GenerationError{Op: "outline", Err: err}
	}
	if len(ol.Subtopics) > g.maxSubtopics {
		ol.Subtopics = ol.Subtopics[:g.maxSubtopics]
	}
	return ol, nil
}

func (g *Generator) expandSubtopic(ctx context.Context, request, name, styleGuide string) (*plan.Subtopic, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a detailed subtopic for %q as part of learning %q.\n", name, request)
	if styleGuide != "" {
		fmt.Fprintf(&sb, "Advisory style notes (do not change the output schema): %s\n", styleGuide)
	}
	sb.WriteString(`Include a description, practice exercises, and objective verification steps.

Respond with ONLY raw JSON matching this schema:
{"title": "...", "description": "...", "difficulty_level": 1-5, "exercises": ["...", ...], "verification_steps": ["...", ...]}`)

	st, err := structuredCall[plan.Subtopic](ctx, g.llm, g.logger, "subtopic:"+name,
		learningSystemPrompt, sb.String(), g.jsonRetries, func(s *plan.Subtopic) error {
			if strings.TrimSpace(s.Title) == "" {
				return fmt.Errorf("subtopic title is empty")
			}
			if s.DifficultyLevel < 0 || s.DifficultyLevel > 5 {
				return fmt.Errorf("difficulty_level %d out of range", s.DifficultyLevel)
			}
			return nil
		})
	if err != nil {
		if isUpstream(err) {
			return nil, fmt.Errorf("subtopic %q generation: %w", name, err)
		}
		return nil, &GenerationError{Op: "subtopic " + name, Err: err}
	}
	g.logger.Debug("subtopic expanded", zap.String("subtopic", st.Title))
	return st, nil
}
