package tracker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// IssueAPI is the tracker boundary: issue creation plus the two-phase
// sub-issue relationship registration.
type IssueAPI interface {
	CreateIssue(ctx context.Context, owner, repo string, draft IssueDraft) (*Issue, error)
	AddSubIssue(ctx context.Context, owner, repo string, parentNumber int, subIssueID int64) error
}

// GitHub implements IssueAPI against the GitHub REST API. Mutation
// calls are paced with a rate limiter to stay clear of GitHub's
// secondary rate limits.
type GitHub struct {
	client  *github.Client
	limiter *rate.Limiter
}

var _ IssueAPI = (*GitHub)(nil)

// NewGitHub creates an authenticated GitHub client. An empty token is
// an AuthError so callers can refuse live publishing before any
// network call.
func NewGitHub(ctx context.Context, token string) (*GitHub, error) {
	if token == "" {
		return nil, &AuthError{Reason: "GITHUB_TOKEN is not set"}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHub{
		client:  github.NewClient(tc),
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}, nil
}

// CreateIssue creates one issue and returns its tracker identifiers.
func (g *GitHub) CreateIssue(ctx context.Context, owner, repo string, draft IssueDraft) (*Issue, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := &github.IssueRequest{
		Title: github.String(draft.Title),
		Body:  github.String(draft.Body),
	}
	if len(draft.Labels) > 0 {
		labels := append([]string(nil), draft.Labels...)
		req.Labels = &labels
	}

	issue, _, err := g.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue %q: %w", draft.Title, err)
	}
	return &Issue{
		ID:     issue.GetID(),
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
		Title:  issue.GetTitle(),
	}, nil
}

// AddSubIssue registers an existing issue as a formal sub-issue of the
// parent. The endpoint is not surfaced by the client library, so the
// request goes through its raw request plumbing.
func (g *GitHub) AddSubIssue(ctx context.Context, owner, repo string, parentNumber int, subIssueID int64) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("repos/%s/%s/issues/%d/sub_issues", owner, repo, parentNumber)
	body := map[string]any{"sub_issue_id": subIssueID}
	req, err := g.client.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("failed to build sub-issue request: %w", err)
	}
	if _, err := g.client.Do(ctx, req, nil); err != nil {
		return fmt.Errorf("failed to link sub-issue %d to #%d: %w", subIssueID, parentNumber, err)
	}
	return nil
}
