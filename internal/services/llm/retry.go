package llm

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"
)

// RetryConfig controls how a chat turn is re-sent after the provider throttles it.
// The zero MaxRetries keeps one request per question.
type RetryConfig struct {
	MaxRetries        int           // llm.max_retries
	InitialBackoff    time.Duration // wait before the first retry when the provider gives no hint
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

const (
	DefaultInitialBackoff    = 30 * time.Second
	DefaultMaxBackoff        = 2 * time.Minute
	DefaultBackoffMultiplier = 2.0
)

func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// IsRateLimitError reports whether a provider refused the turn for load reasons:
// HTTP 429 from either SDK, Gemini RESOURCE_EXHAUSTED, or Claude's 529 overloaded.
// Errors that lost their SDK type are matched on their text.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code == http.StatusTooManyRequests || geminiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		return claudeErr.StatusCode == http.StatusTooManyRequests || claudeErr.StatusCode == 529
	}

	msg := err.Error()
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "rate_limit_error", "overloaded_error"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryInMessage matches the "Please retry in 12.5s" hint Gemini puts in message text
var retryInMessage = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`)

// RetryAfter returns the wait the provider asked for, or 0 when it gave none.
// Claude sends a Retry-After header; Gemini sends a google.rpc.RetryInfo detail.
func RetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}

	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		if claudeErr.Response == nil {
			return 0
		}
		seconds, convErr := strconv.Atoi(claudeErr.Response.Header.Get("Retry-After"))
		if convErr != nil || seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		for _, detail := range geminiErr.Details {
			if delay, ok := detail["retryDelay"].(string); ok {
				if d, parseErr := time.ParseDuration(delay); parseErr == nil {
					return d
				}
			}
		}
		return hintFromText(geminiErr.Message)
	}

	return hintFromText(err.Error())
}

func hintFromText(msg string) time.Duration {
	m := retryInMessage.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff returns the wait before retry number attempt (0-based).
// A provider hint replaces InitialBackoff as the base; the result never exceeds MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, hint time.Duration) time.Duration {
	wait := c.InitialBackoff
	if hint > 0 {
		wait = hint
	}
	for i := 0; i < attempt && wait < c.MaxBackoff; i++ {
		wait = time.Duration(float64(wait) * c.BackoffMultiplier)
	}
	return min(wait, c.MaxBackoff)
}

// Do runs call, retrying only rate limit failures up to MaxRetries times.
// It returns the last error and the number of attempts made.
func (c *RetryConfig) Do(ctx context.Context, logger arbor.ILogger, name string, call func() error) (int, error) {
	var err error
	attempt := 0
	for ; attempt <= c.MaxRetries; attempt++ {
		err = call()
		if err == nil {
			return attempt + 1, nil
		}
		if attempt == c.MaxRetries || !IsRateLimitError(err) {
			break
		}

		backoff := c.CalculateBackoff(attempt, RetryAfter(err))

		logger.Warn().
			Str("provider", name).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Rate limited, retrying API call")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, ctx.Err()
		case <-timer.C:
		}
	}
	return attempt + 1, err
}
