package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// optionKeyRegex matches a synthesized option key: option<value>[<question id>]
var optionKeyRegex = regexp.MustCompile(`^option(.+)\[([^\]]*)\]$`)

// Option is a single answer choice of a question.
type Option struct {
	Key   string // option<value>[<question id>]
	Value string // value attribute of the radio input
	Label string // label text with any "label:" prefix removed
}

// OptionKey builds the key that identifies a choice of a question.
func OptionKey(value, questionID string) string {
	return "option" + value + "[" + questionID + "]"
}

// ParseOptionKey splits an option key into its option value and question id.
func ParseOptionKey(key string) (value, questionID string, ok bool) {
	m := optionKeyRegex.FindStringSubmatch(key)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Options is an ordered option set. It is encoded as a JSON object whose
// members keep page order.
type Options []Option

// Lookup returns the option with the given radio value.
func (o Options) Lookup(value string) (Option, bool) {
	for _, opt := range o {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Values returns the radio values in page order.
func (o Options) Values() []string {
	values := make([]string, len(o))
	for i, opt := range o {
		values[i] = opt.Value
	}
	return values
}

// MarshalJSON writes the options as {"<key>": "<label>", ...} in slice order.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		label, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of option keys to labels, preserving member order.
func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("options: expected object, got %v", tok)
	}

	result := Options{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("options: expected string key, got %v", keyTok)
		}
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("options: value for %q: %w", key, err)
		}
		value, _, _ := ParseOptionKey(key)
		result = append(result, Option{Key: key, Value: value, Label: label})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = result
	return nil
}

// QuestionRecord is one extracted quiz question and its choices.
type QuestionRecord struct {
	ID       string  `json:"id" validate:"required"`
	Question string  `json:"question" validate:"required"`
	Options  Options `json:"options" validate:"min=1"`
}

var recordValidator = validator.New()

// Validate reports whether the record can be answered: it needs an id, question
// text, at least one option, and every option key must belong to this question.
func (q *QuestionRecord) Validate() error {
	if err := recordValidator.Struct(q); err != nil {
		return fmt.Errorf("question %q: %w", q.ID, err)
	}
	for _, opt := range q.Options {
		if opt.Key != OptionKey(opt.Value, q.ID) {
			return fmt.Errorf("question %q: option key %q does not reference this question", q.ID, opt.Key)
		}
	}
	return nil
}
