package quiz

import (
	"fmt"
	"strings"

	"github.com/ternarybob/quizpilot/internal/models"
)

// BuildPrompt renders a question as "<text> Options: {'<key>': '<label>', ...}".
// Options keep page order and the mapping is written as a Python dict literal.
func BuildPrompt(record *models.QuestionRecord) string {
	var b strings.Builder
	b.WriteString(record.Question)
	b.WriteString(" Options: {")
	for i, opt := range record.Options {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pyQuote(opt.Key))
		b.WriteString(": ")
		b.WriteString(pyQuote(opt.Label))
	}
	b.WriteString("}")
	return b.String()
}

// pyQuote quotes s the way Python's repr() quotes a str: single quotes unless
// s contains a single quote and no double quote.
func pyQuote(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == quote || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}
