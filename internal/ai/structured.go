package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lessonforge/lessonforge/internal/llm"
)

// structuredCall asks the completion service for JSON matching T and
// validates the decoded value. Malformed or invalid output is retried
// with a clarified prompt; transport failures propagate immediately so
// the caller can classify them as upstream outages.
func structuredCall[T any](ctx context.Context, client llm.Client, logger *zap.Logger,
	operation, system, prompt string, maxRetries int, validate func(*T) error) (*T, error) {

	var lastProblem string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		currentPrompt := prompt
		if attempt > 0 {
			currentPrompt = fmt.Sprintf(`%s

IMPORTANT - Previous response could not be used: %s
Respond with ONLY raw JSON (no markdown fences, no commentary) matching the exact schema above.`, prompt, lastProblem)
			logger.Warn("structured output invalid, retrying with clarified prompt",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.String("problem", lastProblem))
		}

		text, err := client.Complete(ctx, llm.Request{System: system, Prompt: currentPrompt})
		if err != nil {
			return nil, err
		}

		out, err := llm.ExtractJSON[T](text)
		if err == nil && validate != nil {
			err = validate(&out)
		}
		if err == nil {
			return &out, nil
		}

		lastProblem = err.Error()
		if attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}
		// Brief fixed pause before the clarified retry; backoff is for
		// transport failures, not model formatting slips.
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, fmt.Errorf("%s canceled: %w", operation, ctx.Err())
		}
	}

	return nil, fmt.Errorf("invalid structured output after %d attempts: %s",
		maxRetries+1, lastProblem)
}

// isUpstream reports whether err is a transport-level outage rather
// than bad model output.
func isUpstream(err error) bool {
	return errors.Is(err, llm.ErrUnavailable)
}
