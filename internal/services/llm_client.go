package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrLLMUnavailable   = errors.New("language model is unavailable")
	ErrLLMEmptyResponse = errors.New("language model returned an empty response")
)

// guardedLLMClient bounds every call by a timeout and a circuit breaker
type guardedLLMClient struct {
	next    LLMClientInterface
	breaker CircuitBreakerInterface
	timeout time.Duration
	metrics MetricsRecorderInterface
}

// NewGuardedLLMClient wraps an LLM backend with a per-call timeout and a circuit breaker
func NewGuardedLLMClient(next LLMClientInterface, breaker CircuitBreakerInterface, timeout time.Duration, metrics MetricsRecorderInterface) LLMClientInterface {
	return &guardedLLMClient{
		next:    next,
		breaker: breaker,
		timeout: timeout,
		metrics: metrics,
	}
}

func (g *guardedLLMClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.call(ctx, "generate", func(ctx context.Context) (string, error) {
		return g.next.GenerateJSON(ctx, prompt)
	})
}

func (g *guardedLLMClient) ExtractFromImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	return g.call(ctx, "extract", func(ctx context.Context) (string, error) {
		return g.next.ExtractFromImage(ctx, prompt, data, mimeType)
	})
}

func (g *guardedLLMClient) VisionModel() string {
	return g.next.VisionModel()
}

func (g *guardedLLMClient) call(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	if g.breaker.IsOpen() {
		g.count(operation, "rejected")
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, ErrCircuitBreakerOpen)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := fn(ctx)
	if err == nil {
		answer, err = cleanJSONAnswer(answer)
	}
	if g.metrics != nil {
		g.metrics.RecordProcessingTime("llm_request", time.Since(start))
	}
	if err != nil {
		g.breaker.RecordFailure()
		g.count(operation, "failed")
		return "", fmt.Errorf("%w: %w", ErrLLMUnavailable, err)
	}

	g.breaker.RecordSuccess()
	g.count(operation, "success")
	return answer, nil
}

func (g *guardedLLMClient) count(operation, status string) {
	if g.metrics != nil {
		g.metrics.IncrementCounter("llm_requests_total", map[string]string{"operation": operation, "status": status})
	}
}

// cleanJSONAnswer strips markdown code fences some models wrap around JSON
func cleanJSONAnswer(answer string) (string, error) {
	text := strings.TrimSpace(answer)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return "", ErrLLMEmptyResponse
	}
	return text, nil
}
