package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records every tracker call and can be scripted to fail at a
// given point in the sequence.
type fakeAPI struct {
	createCalls []IssueDraft
	linkCalls   [][2]int64 // parent number, sub-issue id

	failCreateAt int // 1-based create call index to fail, 0 = never
	failLinkAt   int // 1-based link call index to fail, 0 = never

	nextNumber int
}

func (f *fakeAPI) CreateIssue(_ context.Context, _, _ string, draft IssueDraft) (*Issue, error) {
	f.createCalls = append(f.createCalls, draft)
	if f.failCreateAt > 0 && len(f.createCalls) == f.failCreateAt {
		return nil, fmt.Errorf("boom: create %d", f.failCreateAt)
	}
	f.nextNumber++
	return &Issue{
		ID:     int64(1000 + f.nextNumber),
		Number: f.nextNumber,
		URL:    fmt.Sprintf("https://github.com/o/r/issues/%d", f.nextNumber),
		Title:  draft.Title,
	}, nil
}

func (f *fakeAPI) AddSubIssue(_ context.Context, _, _ string, parentNumber int, subIssueID int64) error {
	f.linkCalls = append(f.linkCalls, [2]int64{int64(parentNumber), subIssueID})
	if f.failLinkAt > 0 && len(f.linkCalls) == f.failLinkAt {
		return fmt.Errorf("boom: link %d", f.failLinkAt)
	}
	return nil
}

func TestPublishLiveSuccess(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(PublisherConfig{API: api})

	result, err := p.Publish(context.Background(), formattedTopic(), "o", "r", false)
	require.NoError(t, err)

	// One parent plus one issue per subtopic, one link per child.
	require.Len(t, api.createCalls, 3)
	require.Len(t, api.linkCalls, 2)
	assert.False(t, result.DryRun)
	assert.Equal(t, 1, result.Parent.Number)
	require.Len(t, result.Children, 2)
	assert.Equal(t, 2, result.Linked)

	// Parent first, children in subtopic order.
	assert.Equal(t, "Python async", api.createCalls[0].Title)
	assert.Equal(t, "Coroutines", api.createCalls[1].Title)
	assert.Equal(t, "Event loops", api.createCalls[2].Title)

	// Each child body carries the human-readable backlink; links use
	// the parent number and the child's tracker id.
	for _, draft := range api.createCalls[1:] {
		assert.True(t, strings.Contains(draft.Body, "Parent: #1"), "child body missing backlink: %q", draft.Body)
	}
	assert.Equal(t, [2]int64{1, 1002}, api.linkCalls[0])
	assert.Equal(t, [2]int64{1, 1003}, api.linkCalls[1])
}

func TestPublishDryRun(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(PublisherConfig{API: api})

	first, err := p.Publish(context.Background(), formattedTopic(), "o", "r", true)
	require.NoError(t, err)
	second, err := p.Publish(context.Background(), formattedTopic(), "o", "r", true)
	require.NoError(t, err)

	// Never touches the tracker, and repeated previews are identical.
	assert.Empty(t, api.createCalls)
	assert.Empty(t, api.linkCalls)
	assert.Equal(t, first, second)

	assert.True(t, first.DryRun)
	assert.Equal(t, "DRY_RUN", first.Parent.URL)
	require.Len(t, first.Children, 2)
	assert.Equal(t, "Coroutines", first.Children[0].Title)
	assert.Equal(t, "DRY_RUN", first.Children[0].URL)
}

func TestPublishDryRunWorksWithoutCredential(t *testing.T) {
	p := NewPublisher(PublisherConfig{}) // no API configured
	result, err := p.Publish(context.Background(), formattedTopic(), "o", "r", true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
}

func TestPublishLiveWithoutCredential(t *testing.T) {
	api := &fakeAPI{}
	// The credential gate sits in front of the API: a publisher that
	// was never given one refuses before any create call.
	p := NewPublisher(PublisherConfig{})

	_, err := p.Publish(context.Background(), formattedTopic(), "o", "r", false)
	require.Error(t, err)

	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr), "expected AuthError, got %T: %v", err, err)
	assert.Empty(t, api.createCalls, "no issue creation may be observed")
}

func TestPublishChildCreateFailureReportsPartials(t *testing.T) {
	api := &fakeAPI{failCreateAt: 3} // parent and first child succeed
	p := NewPublisher(PublisherConfig{API: api})

	_, err := p.Publish(context.Background(), formattedTopic(), "o", "r", false)
	require.Error(t, err)

	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr), "expected PublishError, got %T: %v", err, err)

	// Parent plus every child created before the failure.
	require.Len(t, pubErr.Created, 2)
	assert.Equal(t, "Python async", pubErr.Created[0].Title)
	assert.Equal(t, "Coroutines", pubErr.Created[1].Title)
	assert.Contains(t, pubErr.Op, "create sub-issue 2 of 2")

	// The failure stops the sequence: no second link attempt.
	assert.Len(t, api.linkCalls, 1)
}

func TestPublishLinkFailureIncludesCreatedChild(t *testing.T) {
	api := &fakeAPI{failLinkAt: 1}
	p := NewPublisher(PublisherConfig{API: api})

	_, err := p.Publish(context.Background(), formattedTopic(), "o", "r", false)
	require.Error(t, err)

	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr))

	// The child exists on the tracker even though its link failed, so
	// it must be in the reconciliation list.
	require.Len(t, pubErr.Created, 2)
	assert.Equal(t, "Coroutines", pubErr.Created[1].Title)
	assert.Contains(t, pubErr.Op, "link sub-issue 1 of 2")
	assert.Len(t, api.createCalls, 2, "sequence stops at the failed link")
}

func TestPublishParentFailure(t *testing.T) {
	api := &fakeAPI{failCreateAt: 1}
	p := NewPublisher(PublisherConfig{API: api})

	_, err := p.Publish(context.Background(), formattedTopic(), "o", "r", false)
	require.Error(t, err)

	var pubErr *PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.Empty(t, pubErr.Created)
	assert.Empty(t, api.linkCalls)
}

func TestPublishRejectsUnpublishableTopic(t *testing.T) {
	p := NewPublisher(PublisherConfig{API: &fakeAPI{}})

	t.Run("no subtopics", func(t *testing.T) {
		topic := formattedTopic()
		topic.Subtopics = nil
		_, err := p.Publish(context.Background(), topic, "o", "r", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not publishable")
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := p.Publish(context.Background(), formattedTopic(), "", "r", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner and repo")
	})
}
