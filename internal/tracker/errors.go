package tracker

import (
	"fmt"
	"strings"
)

// AuthError indicates a missing or invalid tracker credential. Live
// publishing raises it before any issue-creation call is attempted.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("tracker authentication failed: %s", e.Reason)
}

// PublishError reports a mid-sequence tracker failure. Created lists
// every issue that already exists on the tracker (parent first, then
// children in order) so the caller can reconcile orphans by hand; the
// publisher never rolls back or retries tracker mutations.
type PublishError struct {
	Op      string  // the operation that failed
	Created []Issue // issues created before the failure
	Err     error
}

func (e *PublishError) Error() string {
	if len(e.Created) == 0 {
		return fmt.Sprintf("publish failed at %s: %v", e.Op, e.Err)
	}
	urls := make([]string, len(e.Created))
	for i, is := range e.Created {
		urls[i] = is.URL
	}
	return fmt.Sprintf("publish failed at %s: %v (already created: %s)",
		e.Op, e.Err, strings.Join(urls, ", "))
}

func (e *PublishError) Unwrap() error { return e.Err }
