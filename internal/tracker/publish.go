package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lessonforge/lessonforge/internal/plan"
)

// dryRunURL marks placeholder issues that were never created.
const dryRunURL = "DRY_RUN"

// PublishResult describes what a publish run produced. In dry-run mode
// the issues are deterministic placeholders.
type PublishResult struct {
	DryRun   bool
	Parent   Issue
	Children []Issue
	Linked   int // number of sub-issue links registered
}

// PublisherConfig holds configuration for the Publisher.
type PublisherConfig struct {
	API    IssueAPI // required for live publishing; may be nil for dry-run only
	Logger *zap.Logger
}

// Publisher turns a formatted Topic into one parent issue and linked
// child issues, or placeholder previews in dry-run mode.
type Publisher struct {
	api    IssueAPI
	logger *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{api: cfg.API, logger: logger}
}

// Publish creates the parent issue, then each child issue in subtopic
// order, linking every child as a formal sub-issue right after it is
// created. The parent exists before any child; each child exists
// before its link. On failure the returned PublishError lists every
// issue already created.
func (p *Publisher) Publish(ctx context.Context, topic plan.Topic, owner, repo string, dryRun bool) (*PublishResult, error) {
	if err := topic.Validate(); err != nil {
		return nil, fmt.Errorf("topic is not publishable: %w", err)
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required for publishing")
	}

	parentDraft, childDrafts := BuildDrafts(&topic)

	if dryRun {
		return p.dryRun(parentDraft, childDrafts), nil
	}

	// Credential problems must surface before anything is created; a
	// partially-authenticated live run is never attempted.
	if p.api == nil {
		return nil, &AuthError{Reason: "no tracker credential configured"}
	}

	parent, err := p.api.CreateIssue(ctx, owner, repo, parentDraft)
	if err != nil {
		return nil, &PublishError{Op: "create parent issue", Err: err}
	}
	p.logger.Info("parent issue created",
		zap.Int("number", parent.Number),
		zap.String("url", parent.URL))

	created := []Issue{*parent}
	result := &PublishResult{Parent: *parent, Children: make([]Issue, 0, len(childDrafts))}

	for i, draft := range childDrafts {
		draft.Body = withBacklink(draft.Body, parent.Number)

		child, err := p.api.CreateIssue(ctx, owner, repo, draft)
		if err != nil {
			return nil, &PublishError{
				Op:      fmt.Sprintf("create sub-issue %d of %d (%s)", i+1, len(childDrafts), draft.Title),
				Created: created,
				Err:     err,
			}
		}
		created = append(created, *child)
		result.Children = append(result.Children, *child)

		if err := p.api.AddSubIssue(ctx, owner, repo, parent.Number, child.ID); err != nil {
			return nil, &PublishError{
				Op:      fmt.Sprintf("link sub-issue %d of %d (#%d)", i+1, len(childDrafts), child.Number),
				Created: created,
				Err:     err,
			}
		}
		result.Linked++
		p.logger.Info("sub-issue created and linked",
			zap.Int("number", child.Number),
			zap.Int("parent", parent.Number))
	}

	return result, nil
}

// dryRun computes deterministic placeholders without touching the
// network, so repeated previews of the same plan are identical.
func (p *Publisher) dryRun(parent IssueDraft, children []IssueDraft) *PublishResult {
	result := &PublishResult{
		DryRun:   true,
		Parent:   Issue{URL: dryRunURL, Title: parent.Title},
		Children: make([]Issue, len(children)),
	}
	for i, d := range children {
		result.Children[i] = Issue{URL: dryRunURL, Title: d.Title}
	}
	return result
}
