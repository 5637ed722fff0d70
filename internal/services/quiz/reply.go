package quiz

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/quizpilot/internal/models"
)

// Reply parse failures
var (
	// ErrNoOptionKey means the reply contains no option<value>[<id>] token.
	ErrNoOptionKey = errors.New("reply contains no option key")

	// ErrQuestionMismatch means the token names a different question.
	ErrQuestionMismatch = errors.New("reply names a different question")

	// ErrUnknownOption means the token's value is not one of the question's options.
	ErrUnknownOption = errors.New("reply names an unknown option")
)

// replyKeyRegex finds option<value>[<question id>] anywhere in a reply.
// Values are whole alphanumeric tokens, so "option12[5]" selects "12".
var replyKeyRegex = regexp.MustCompile(`option([A-Za-z0-9]+)\[([^\]]+)\]`)

// ParseReply extracts the selected option value from a model reply. The first
// option key in the reply wins.
func ParseReply(reply string, record *models.QuestionRecord) (string, error) {
	m := replyKeyRegex.FindStringSubmatch(reply)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoOptionKey, truncate(reply, 80))
	}
	value, questionID := m[1], m[2]

	if questionID != record.ID {
		return "", fmt.Errorf("%w: got %s, asked %s", ErrQuestionMismatch, questionID, record.ID)
	}
	if _, ok := record.Options.Lookup(value); !ok {
		return "", fmt.Errorf("%w: %s not in [%s]", ErrUnknownOption, value, strings.Join(record.Options.Values(), ", "))
	}
	return value, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
