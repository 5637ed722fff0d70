package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/common"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"golang.org/x/time/rate"
)

// ChatSession is a conversation with one model that keeps every turn.
// It implements interfaces.ChatSession.
type ChatSession struct {
	generator         Generator
	model             string
	systemInstruction string
	timeout           time.Duration
	limiter           *rate.Limiter
	logger            arbor.ILogger

	mu         sync.Mutex
	transcript []interfaces.Message
}

var _ interfaces.ChatSession = (*ChatSession)(nil)

// NewChatSession starts an empty conversation. Requests are spaced at least
// llm.rate_limit apart; an empty rate limit disables pacing.
func NewChatSession(generator Generator, model string, config *common.LLMConfig, logger arbor.ILogger) *ChatSession {
	limit := rate.Inf
	if interval := common.ParseDuration(config.RateLimit, 0); interval > 0 {
		limit = rate.Every(interval)
	}

	return &ChatSession{
		generator:         generator,
		model:             model,
		systemInstruction: config.SystemInstruction,
		timeout:           common.ParseDuration(config.Timeout, 0),
		limiter:           rate.NewLimiter(limit, 1),
		logger:            logger,
	}
}

// Send submits prompt as the next user turn. The transcript only grows when the
// model answers, so a failed turn can be sent again without duplicating it.
func (s *ChatSession) Send(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	userTurn := interfaces.Message{Role: "user", Content: prompt}
	messages := make([]interfaces.Message, 0, len(s.transcript)+1)
	messages = append(messages, s.transcript...)
	messages = append(messages, userTurn)

	start := time.Now()
	resp, err := s.generator.GenerateContent(ctx, &ContentRequest{
		Messages:          messages,
		Model:             s.model,
		SystemInstruction: s.systemInstruction,
	})
	if err != nil {
		return "", err
	}

	s.transcript = append(s.transcript, userTurn, interfaces.Message{Role: "assistant", Content: resp.Text})

	s.logger.Debug().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("turns", len(s.transcript)/2).
		Dur("elapsed", time.Since(start)).
		Msg("Chat turn completed")

	return resp.Text, nil
}

// History returns a copy of the transcript in chronological order
func (s *ChatSession) History() []interfaces.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]interfaces.Message, len(s.transcript))
	copy(history, s.transcript)
	return history
}
