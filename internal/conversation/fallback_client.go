package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// LLM attempt outcomes reported to an AttemptObserver.
const (
	AttemptSuccess   = "success"
	AttemptError     = "error"
	AttemptExhausted = "exhausted"
)

// AttemptObserver receives one outcome per attempt plus a final exhausted outcome.
type AttemptObserver interface {
	ObserveLLMAttempt(outcome string)
}

// FallbackLLMClient wraps a primary LLM client with a fallback provider.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient returns a client that tries fallback when primary fails. A nil
// fallback makes it a passthrough.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	c.logger.Warn("primary llm failed", "error", err, "fallback_available", c.fallback != nil)
	if c.fallback == nil {
		return LLMResponse{}, err
	}
	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Warn("fallback llm failed", "primary_error", err, "error", fallbackErr)
		return LLMResponse{}, fallbackErr
	}
	return resp, nil
}

// RetryingLLMClient makes up to a fixed number of attempts, without backoff, each bounded
// by its own timeout.
type RetryingLLMClient struct {
	inner    LLMClient
	attempts int
	timeout  time.Duration
	observer AttemptObserver
	logger   *logging.Logger
}

// NewRetryingLLMClient wraps inner. attempts below one is treated as one; a zero timeout
// leaves the caller's deadline in charge. observer may be nil.
func NewRetryingLLMClient(inner LLMClient, attempts int, timeout time.Duration, observer AttemptObserver, logger *logging.Logger) *RetryingLLMClient {
	if inner == nil {
		panic("conversation: llm client cannot be nil")
	}
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryingLLMClient{inner: inner, attempts: attempts, timeout: timeout, observer: observer, logger: logger}
}

func (c *RetryingLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		resp, err := c.attempt(ctx, req)
		if err == nil {
			c.observe(AttemptSuccess)
			return resp, nil
		}
		lastErr = err
		c.observe(AttemptError)
		c.logger.Warn("llm attempt failed", "attempt", attempt, "max_attempts", c.attempts, "error", err)
		if errors.Is(err, ErrLLMUnavailable) {
			break
		}
	}
	c.observe(AttemptExhausted)
	if errors.Is(lastErr, ErrLLMUnavailable) {
		return LLMResponse{}, lastErr
	}
	return LLMResponse{}, fmt.Errorf("%w: %v", ErrLLMUnavailable, lastErr)
}

func (c *RetryingLLMClient) attempt(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if c.timeout <= 0 {
		return c.inner.Complete(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Complete(attemptCtx, req)
}

func (c *RetryingLLMClient) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveLLMAttempt(outcome)
	}
}
