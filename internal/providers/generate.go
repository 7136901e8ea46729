package providers

import (
	"context"
	"fmt"
)

const (
	defaultMaxOutputTokens = 4096

	// defaultMaxInputTokens caps the prompt when the configured model is not
	// in the catalog and its real context window is unknown.
	defaultMaxInputTokens = 8192

	// shrinkRetries bounds how many times an over-long input is cut down
	// before the overflow error propagates.
	shrinkRetries = 2
	shrinkFactor  = 0.8
)

// inputBudget looks up the input-token window for modelID in a provider's
// catalog, falling back to defaultMaxInputTokens for unknown ids.
func inputBudget(models []Model, modelID string) int {
	for _, m := range models {
		if m.ID == modelID {
			return m.MaxInputTokens
		}
	}
	return defaultMaxInputTokens
}

// generateWithShrink drives a vendor call. The prompt is truncated to the
// model's input window before the first attempt; a context-length overflow
// retries with the previous token budget multiplied by shrinkFactor. Other
// errors propagate immediately.
func generateWithShrink(ctx context.Context, req Request, maxInput int, fn func(Request) (Response, error)) (Response, error) {
	budget := estimateTokens(req.Prompt)
	if budget > maxInput {
		budget = maxInput
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req
		attemptReq.Prompt = truncateToTokens(req.Prompt, budget)

		resp, err := fn(attemptReq)
		if err == nil {
			return resp, nil
		}
		if !IsContextLength(err) {
			return Response{}, err
		}
		if attempt >= shrinkRetries {
			return Response{}, fmt.Errorf("input still too large after %d shrink retries: %w", shrinkRetries, err)
		}
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		budget = int(float64(budget) * shrinkFactor)
	}
}
