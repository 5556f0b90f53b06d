// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package oracle provides the external judgment interface used for
// classification and extraction decisions, with a Claude-backed
// implementation and a deterministic offline mock.
package oracle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// Oracle accepts a prompt-shaped payload and returns a semi-structured
// textual response. Callers own parsing and validation of the response.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New selects a backend from the AI configuration.
func New(cfg types.AIConfig) (Oracle, error) {
	switch cfg.Mode {
	case types.OracleMock:
		return &Mock{}, nil
	case types.OracleClaude, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude oracle requires an API key (set ai.api_key or .secrets/anthropic-api-key)")
		}
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown oracle mode %q: use claude or mock", cfg.Mode)
	}
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Call invokes the oracle with exponential backoff on transient failures.
// maxRetries counts retries after the first attempt; negative means the
// default of 3. Context cancellation (including the per-document timeout)
// aborts the wait and is returned as-is so callers can skip the document.
func Call(ctx context.Context, o Oracle, prompt string, maxRetries int) (string, error) {
	if maxRetries < 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := o.Complete(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
