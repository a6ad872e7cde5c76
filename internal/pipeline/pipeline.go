// Package pipeline sequences the study-plan stages: generate, format,
// and optionally publish. The flow is a fixed linear state machine,
// not a general graph; the fan-out is small and known.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lessonforge/lessonforge/internal/plan"
	"github.com/lessonforge/lessonforge/internal/tracker"
)

// State is the orchestrator's position in the run.
type State string

const (
	StateStart      State = "start"
	StateGenerated  State = "generated"
	StateFormatted  State = "formatted"
	StatePublished  State = "published"
	StateDryRunDone State = "dry_run_done"
	StateFailed     State = "failed"
)

// Generator produces a structured plan from a free-text request.
type Generator interface {
	Generate(ctx context.Context, request, styleGuide string) (*plan.Topic, error)
}

// Formatter rewrites a plan's text into Markdown, preserving shape.
type Formatter interface {
	Format(ctx context.Context, topic plan.Topic, styleGuide string) (*plan.Topic, error)
}

// Publisher pushes a formatted plan to the tracker (or previews it).
type Publisher interface {
	Publish(ctx context.Context, topic plan.Topic, owner, repo string, dryRun bool) (*tracker.PublishResult, error)
}

// Request is one pipeline run's input, already parsed from whatever
// surface (CLI, service) collected it.
type Request struct {
	Title      string // what to learn (required)
	Body       string // optional background: what the user already knows
	StyleGuide string // advisory formatting notes
	Owner      string // tracker owner, required when Publish
	Repo       string // tracker repo, required when Publish
	Publish    bool   // publish to the tracker after formatting
	DryRun     bool   // preview instead of mutating the tracker
}

// Validate checks the request before any stage runs.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("request title is required")
	}
	if r.Publish && (r.Owner == "" || r.Repo == "") {
		return fmt.Errorf("owner and repo are required when publishing")
	}
	return nil
}

// Result carries a run's outputs. Generated is the original structured
// plan (kept for audit), Formatted the Markdown-ready copy.
type Result struct {
	RunID     string
	State     State
	Generated plan.Topic
	Formatted plan.Topic
	Publish   *tracker.PublishResult
}

// Config holds the pipeline's collaborators.
type Config struct {
	Generator Generator // required
	Formatter Formatter // required
	Publisher Publisher // required only for publishing runs
	Logger    *zap.Logger
}

// Pipeline runs the stages strictly in sequence, exactly once each,
// failing fast on the first error.
type Pipeline struct {
	gen    Generator
	format Formatter
	pub    Publisher
	logger *zap.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Formatter == nil {
		return nil, fmt.Errorf("formatter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		gen:    cfg.Generator,
		format: cfg.Formatter,
		pub:    cfg.Publisher,
		logger: logger,
	}, nil
}

// Run executes one pipeline run. Stage errors abort immediately; the
// returned Result records the failed state and whatever stages had
// completed. No stage is ever retried by the orchestrator.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: uuid.New().String(), State: StateStart}
	logger := p.logger.With(zap.String("run_id", result.RunID))

	if err := req.Validate(); err != nil {
		result.State = StateFailed
		return result, err
	}
	if req.Publish && p.pub == nil {
		result.State = StateFailed
		return result, fmt.Errorf("publishing requested but no publisher configured")
	}

	request := strings.TrimSpace(req.Title)
	if strings.TrimSpace(req.Body) != "" {
		request += "\n\nWhat I already know: " + strings.TrimSpace(req.Body)
	}

	logger.Info("run started", zap.String("title", req.Title), zap.Bool("publish", req.Publish))

	generated, err := p.gen.Generate(ctx, request, req.StyleGuide)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("generation stage: %w", err)
	}
	result.Generated = *generated
	result.State = StateGenerated
	logger.Info("plan generated", zap.Int("subtopics", len(generated.Subtopics)))

	// The formatter gets a copy; the generated plan stays untouched for
	// audit and logging.
	formatted, err := p.format.Format(ctx, generated.Clone(), req.StyleGuide)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("formatting stage: %w", err)
	}
	result.Formatted = *formatted
	result.State = StateFormatted
	logger.Info("plan formatted")

	if !req.Publish {
		// Terminal at Formatted: the caller displays the plan.
		return result, nil
	}

	pubResult, err := p.pub.Publish(ctx, formatted.Clone(), req.Owner, req.Repo, req.DryRun)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("publish stage: %w", err)
	}
	result.Publish = pubResult
	if req.DryRun {
		result.State = StateDryRunDone
	} else {
		result.State = StatePublished
	}
	logger.Info("run finished", zap.String("state", string(result.State)))

	return result, nil
}
