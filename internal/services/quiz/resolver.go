package quiz

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quizpilot/internal/interfaces"
	"github.com/ternarybob/quizpilot/internal/models"
)

// Resolver asks the chat session for the answer to each question
type Resolver struct {
	session interfaces.ChatSession
	logger  arbor.ILogger
}

func NewResolver(session interfaces.ChatSession, logger arbor.ILogger) *Resolver {
	return &Resolver{session: session, logger: logger}
}

// Resolve sends the question as the next turn of the session and parses the reply
func (r *Resolver) Resolve(ctx context.Context, record *models.QuestionRecord) models.Answer {
	answer := models.Answer{
		QuestionID: record.ID,
		Prompt:     BuildPrompt(record),
	}

	reply, err := r.session.Send(ctx, answer.Prompt)
	if err != nil {
		answer.Err = fmt.Errorf("ask question %s: %w", record.ID, err)
		return answer
	}
	answer.Reply = reply

	value, err := ParseReply(reply, record)
	if err != nil {
		answer.Err = err
		r.logger.Warn().
			Str("question_id", record.ID).
			Str("reply", truncate(reply, 200)).
			Err(err).
			Msg("Could not parse model reply")
		return answer
	}
	answer.Value = value

	r.logger.Info().
		Str("question_id", record.ID).
		Str("option", models.OptionKey(value, record.ID)).
		Msg("Model selected option")

	return answer
}
