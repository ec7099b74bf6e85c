package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"google.golang.org/genai"
)

// RetryPolicy retries model calls that fail because the service is overloaded.
type RetryPolicy struct {
	// Retries is the number of extra attempts after the first failure.
	Retries int
	// Delay is the pause before each retry.
	Delay time.Duration
}

// DefaultRetryPolicy retries once after 800ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 1, Delay: 800 * time.Millisecond}
}

// Validate checks if the policy is valid.
func (p RetryPolicy) Validate() error {
	if p.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if p.Delay < 0 {
		return errors.New("retry delay must not be negative")
	}
	return nil
}

// Do runs fn, retrying transient failures. Non-transient errors and context
// cancellation end the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, logger ports.Logger, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Retries || !IsTransient(err) {
			return err
		}

		logger.Warn("Model overloaded, retrying", "attempt", attempt+1, "delay", p.Delay, "error", err)

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// IsTransient reports whether err is an overload or rate-limit response from the model.
// Typed genai errors are checked by status code; other errors by their message.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusServiceUnavailable, http.StatusTooManyRequests:
			return true
		}
		return strings.Contains(apiErr.Status, "UNAVAILABLE") || strings.Contains(apiErr.Status, "RESOURCE_EXHAUSTED")
	}
	msg := err.Error()
	return strings.Contains(msg, "503") || strings.Contains(msg, "UNAVAILABLE")
}
