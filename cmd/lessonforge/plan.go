package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lessonforge/lessonforge/internal/ai"
	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/llm"
	"github.com/lessonforge/lessonforge/internal/pipeline"
	"github.com/lessonforge/lessonforge/internal/plan"
	"github.com/lessonforge/lessonforge/internal/search"
	"github.com/lessonforge/lessonforge/internal/tracker"
)

var (
	planBody         string
	planStyleGuide   string
	planOwner        string
	planRepo         string
	planPublish      bool
	planNoDryRun     bool
	planHTMLPath     string
	planMaxSubtopics int
)

var planCmd = &cobra.Command{
	Use:   "plan <what to learn>",
	Short: "Generate a study plan (and optionally publish it as issues)",
	Long: `Generate a structured study plan from a free-text learning request.

The plan is printed as Markdown. With --publish it is also turned into
GitHub issues: one parent issue for the topic and one linked sub-issue
per subtopic. Publishing defaults to a dry-run preview; pass
--no-dry-run to actually create issues (requires GITHUB_TOKEN).

Examples:
  # Print a plan
  lessonforge plan "Python async"

  # Preview the issues that would be created
  lessonforge plan "Python async" --publish --owner me --repo learning

  # Actually create the issues
  lessonforge plan "Python async" --publish --owner me --repo learning --no-dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planBody, "body", "", "what you already know about the topic")
	planCmd.Flags().StringVar(&planStyleGuide, "style-guide", "", "advisory markdown style instructions")
	planCmd.Flags().StringVar(&planOwner, "owner", "", "GitHub owner for --publish")
	planCmd.Flags().StringVar(&planRepo, "repo", "", "GitHub repository for --publish")
	planCmd.Flags().BoolVar(&planPublish, "publish", false, "publish the plan as GitHub issues")
	planCmd.Flags().BoolVar(&planNoDryRun, "no-dry-run", false, "actually create issues instead of previewing")
	planCmd.Flags().StringVar(&planHTMLPath, "html", "", "also write an HTML rendering of the plan to this file")
	planCmd.Flags().IntVar(&planMaxSubtopics, "max-subtopics", 0, "maximum number of subtopics (default 3)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	dryRun := !planNoDryRun

	// The tracker credential is only needed for a live publish, and its
	// absence must surface before anything irreversible happens.
	var api tracker.IssueAPI
	if planPublish && !dryRun {
		if err := cfg.RequireTracker(); err != nil {
			return &tracker.AuthError{Reason: err.Error()}
		}
		gh, err := tracker.NewGitHub(cmd.Context(), cfg.Tracker.Token)
		if err != nil {
			return err
		}
		api = gh
	}

	client, err := llm.NewAnthropic(llm.AnthropicConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Retry:   cfg.RetryConfig(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	var searcher search.Searcher
	if cfg.HasSearch() {
		searcher, err = search.NewTavily(search.TavilyConfig{APIKey: cfg.Search.APIKey})
		if err != nil {
			return err
		}
	} else {
		logger.Info("TAVILY_API_KEY not set, generating without search grounding")
	}

	maxSubtopics := planMaxSubtopics
	if maxSubtopics == 0 {
		maxSubtopics = cfg.MaxSubtopics
	}
	generator, err := ai.NewGenerator(ai.GeneratorConfig{
		LLM:          client,
		Searcher:     searcher,
		MaxSubtopics: maxSubtopics,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	formatter, err := ai.NewFormatter(ai.FormatterConfig{LLM: client, Logger: logger})
	if err != nil {
		return err
	}

	pipe, err := pipeline.New(pipeline.Config{
		Generator: generator,
		Formatter: formatter,
		Publisher: tracker.NewPublisher(tracker.PublisherConfig{API: api, Logger: logger}),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	result, err := pipe.Run(cmd.Context(), pipeline.Request{
		Title:      strings.Join(args, " "),
		Body:       planBody,
		StyleGuide: planStyleGuide,
		Owner:      planOwner,
		Repo:       planRepo,
		Publish:    planPublish,
		DryRun:     dryRun,
	})
	if err != nil {
		return describeFailure(err)
	}

	fmt.Println(plan.RenderDocument(&result.Formatted))

	if planHTMLPath != "" {
		html, err := plan.RenderHTML(&result.Formatted)
		if err != nil {
			return err
		}
		if err := os.WriteFile(planHTMLPath, html, 0o644); err != nil {
			return fmt.Errorf("failed to write HTML preview: %w", err)
		}
		fmt.Printf("HTML preview written to %s\n", planHTMLPath)
	}

	if result.Publish != nil {
		printPublishResult(result.Publish)
	}
	return nil
}

// printPublishResult shows the created (or placeholder) issues.
func printPublishResult(r *tracker.PublishResult) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Println("\n---")
	if r.DryRun {
		fmt.Printf("\n%s Dry run: no issues were created\n\n", green("✓"))
	} else {
		fmt.Printf("\n%s Created %d issue(s), %d sub-issue link(s)\n\n",
			green("✓"), 1+len(r.Children), r.Linked)
	}
	fmt.Printf("Topic: %s (%s)\n", r.Parent.Title, cyan(r.Parent.URL))
	for _, child := range r.Children {
		fmt.Printf("  Sub-issue: %s (%s)\n", child.Title, cyan(child.URL))
	}
}

// describeFailure adds context for the known failure classes; partial
// publish results in particular must stay visible for manual cleanup.
func describeFailure(err error) error {
	var pubErr *tracker.PublishError
	if errors.As(err, &pubErr) && len(pubErr.Created) > 0 {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s Publish failed mid-sequence; these issues already exist:\n", red("✗"))
		for _, is := range pubErr.Created {
			fmt.Fprintf(os.Stderr, "  #%d %s (%s)\n", is.Number, is.Title, is.URL)
		}
	}
	if errors.Is(err, llm.ErrUnavailable) {
		return fmt.Errorf("%w (check network and service status, then retry)", err)
	}
	return err
}
