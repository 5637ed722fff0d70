package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

func fastRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

// claudeError builds an SDK error the way the client returns it for status
func claudeError(status int, header http.Header) *anthropic.Error {
	req, _ := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
	if header == nil {
		header = http.Header{}
	}
	return &anthropic.Error{
		StatusCode: status,
		Request:    req,
		Response:   &http.Response{StatusCode: status, Header: header},
	}
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.True(t, IsRateLimitError(fmt.Errorf("gemini: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"})))
	assert.False(t, IsRateLimitError(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}))
	assert.True(t, IsRateLimitError(fmt.Errorf("claude: %w", claudeError(429, nil))))
	assert.True(t, IsRateLimitError(claudeError(529, nil)))
	assert.False(t, IsRateLimitError(claudeError(401, nil)))
	assert.True(t, IsRateLimitError(errors.New(`{"type":"rate_limit_error"}`)))
	assert.False(t, IsRateLimitError(errors.New("invalid api key")))
}

func TestRetryAfter(t *testing.T) {
	throttled := claudeError(429, http.Header{"Retry-After": []string{"7"}})
	assert.Equal(t, 7*time.Second, RetryAfter(fmt.Errorf("claude: %w", throttled)))
	assert.Equal(t, time.Duration(0), RetryAfter(claudeError(429, nil)))

	geminiErr := genai.APIError{
		Code:    429,
		Status:  "RESOURCE_EXHAUSTED",
		Details: []map[string]any{{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "45s"}},
	}
	assert.Equal(t, 45*time.Second, RetryAfter(geminiErr))

	text := errors.New("Error 429, Message: quota exceeded. Please retry in 12.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, 12500*time.Millisecond, RetryAfter(text))
	assert.Equal(t, time.Duration(0), RetryAfter(errors.New("boom")))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, DefaultInitialBackoff, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 2*DefaultInitialBackoff, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(0, 10*time.Second))
	assert.Equal(t, DefaultMaxBackoff, cfg.CalculateBackoff(5, 0))
	assert.Equal(t, DefaultMaxBackoff, cfg.CalculateBackoff(0, time.Hour))
}

func TestRetryDoSingleAttemptByDefault(t *testing.T) {
	calls := 0
	attempts, err := NewDefaultRetryConfig().Do(context.Background(), arbor.NewLogger(), "test", func() error {
		calls++
		return errors.New("429 RESOURCE_EXHAUSTED")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestRetryDoRetriesRateLimits(t *testing.T) {
	calls := 0
	attempts, err := fastRetryConfig(3).Do(context.Background(), arbor.NewLogger(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("429 too many requests")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoStopsOnOtherErrors(t *testing.T) {
	calls := 0
	_, err := fastRetryConfig(3).Do(context.Background(), arbor.NewLogger(), "test", func() error {
		calls++
		return errors.New("invalid argument")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetryConfig(5)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	_, err := cfg.Do(ctx, arbor.NewLogger(), "test", func() error {
		cancel()
		return errors.New("429")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
